package fonts

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes faces by family and weight.
type Cache struct {
	loader Loader
	logger *log.Logger

	group singleflight.Group

	mu        sync.RWMutex
	resolved  map[string]*Face
	fallbacks []*Face
}

// Option configures a Cache.
type Option func(*Cache)

// WithLoader sets the loader used for non built-in families.
func WithLoader(l Loader) Option {
	return func(c *Cache) { c.loader = l }
}

// WithDir is WithLoader(DirLoader(dir)).
func WithDir(dir string) Option {
	return WithLoader(DirLoader(dir))
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l *log.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCache returns an empty cache. Without options only built-in families resolve
// and every other family falls back to Go.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		loader:   DirLoader(""),
		logger:   log.New(io.Discard),
		resolved: make(map[string]*Face),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the face for family and weight, loading it on first use.
// Concurrent callers share one load. A failed load is logged once and the
// built-in fallback is cached for the key; the only error Load returns is the
// context's.
func (c *Cache) Load(ctx context.Context, family, weight string) (*Face, error) {
	key := Key(family, weight)

	c.mu.RLock()
	f, ok := c.resolved[key]
	c.mu.RUnlock()
	if ok {
		return f, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		return c.load(context.WithoutCancel(ctx), key, family, weight), nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val.(*Face), nil
	}
}

// Face returns the face for family and weight without blocking on I/O beyond
// the load itself. It is Load with a background context.
func (c *Cache) Face(family, weight string) *Face {
	f, _ := c.Load(context.Background(), family, weight)
	return f
}

// Loaded reports whether a face for family and weight has been resolved,
// including resolution to a fallback.
func (c *Cache) Loaded(family, weight string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.resolved[Key(family, weight)]
	return ok
}

func (c *Cache) load(ctx context.Context, key, family, weight string) *Face {
	c.mu.RLock()
	f, ok := c.resolved[key]
	c.mu.RUnlock()
	if ok {
		return f
	}

	f = Builtin(family, weight)
	if f == nil {
		font, err := c.loader(ctx, NormalizeFamily(family), weight)
		if err != nil {
			c.logger.Warn("font load failed, using fallback", "family", family, "weight", weight, "err", err)
			f = Default(weight)
			f.Fallback = true
		} else {
			f = &Face{Family: NormalizeFamily(family), Weight: weight, Font: font}
			c.logger.Debug("font loaded", "family", family, "weight", weight)
		}
	}

	c.mu.Lock()
	c.resolved[key] = f
	c.mu.Unlock()
	return f
}

// Preload resolves the regular weight of each family in parallel.
func (c *Cache) Preload(ctx context.Context, families ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, family := range families {
		g.Go(func() error {
			_, err := c.Load(ctx, family, "normal")
			return err
		})
	}
	return g.Wait()
}

// AddFallback appends family to the chain consulted for graphemes the primary
// face lacks, such as emoji. Families that fail to load are skipped.
func (c *Cache) AddFallback(ctx context.Context, family string) error {
	f, err := c.Load(ctx, family, "normal")
	if err != nil {
		return err
	}
	if f.Fallback {
		return nil
	}
	c.mu.Lock()
	c.fallbacks = append(c.fallbacks, f)
	c.mu.Unlock()
	return nil
}

// Chain returns the primary face for family and weight followed by the
// configured fallback faces.
func (c *Cache) Chain(ctx context.Context, family, weight string) ([]*Face, error) {
	primary, err := c.Load(ctx, family, weight)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Face, 0, 1+len(c.fallbacks))
	out = append(out, primary)
	out = append(out, c.fallbacks...)
	return out, nil
}

// Pick returns the first face in chain that has a glyph for the first rune of
// grapheme, or the first face when none does.
func Pick(chain []*Face, grapheme string) *Face {
	if len(chain) == 0 {
		return nil
	}
	for _, r := range grapheme {
		for _, f := range chain {
			if f.Has(r) {
				return f
			}
		}
		break
	}
	return chain[0]
}
