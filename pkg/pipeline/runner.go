package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/overlay3d/pkg/cache"
	"github.com/matzehuels/overlay3d/pkg/errors"
	"github.com/matzehuels/overlay3d/pkg/fonts"
	"github.com/matzehuels/overlay3d/pkg/observability"
	"github.com/matzehuels/overlay3d/pkg/video"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating render logic.
//
// The Runner keeps no per-run state. Every call builds a fresh scene, so
// multiple goroutines can use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Fonts  *fonts.Cache
	Video  *video.Service
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// Fonts and Video get defaults and may be replaced before first use.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Fonts:  fonts.NewCache(fonts.WithLogger(logger)),
		Video:  video.New(video.Config{}, logger),
		Logger: logger,
	}
}

// Preview renders a single transparent frame, or the frame composited over
// the video at opts.Time when opts.VideoPath is set, and encodes it as PNG.
func (r *Runner) Preview(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := r.preview(ctx, opts)
	observability.Pipeline().OnPreviewComplete(ctx, res != nil && res.CacheInfo.PreviewHit, time.Since(start), err)
	return res, err
}

func (r *Runner) preview(ctx context.Context, opts Options) (*Result, error) {
	videoHash := ""
	if opts.VideoPath != "" {
		fi, err := os.Stat(opts.VideoPath)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "video not found: %s", filepath.Base(opts.VideoPath))
		}
		videoHash = r.Keyer.ProbeKey(opts.VideoPath, fi.Size(), fi.ModTime().UnixNano())
	}
	paramsHash, err := opts.sceneHash()
	if err != nil {
		return nil, err
	}
	key := r.Keyer.PreviewKey(paramsHash, opts.PreviewKeyOpts(videoHash))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "preview")
			return &Result{PNG: data, CacheInfo: CacheInfo{PreviewHit: true}}, nil
		}
		observability.Cache().OnCacheMiss(ctx, "preview")
	}

	renderStart := time.Now()
	sc := r.NewScene(ctx, opts)
	var img image.Image
	if opts.VideoPath != "" {
		src := r.Video.NewFrameSource(opts.VideoPath)
		if err := src.Seek(ctx, opts.Time); err != nil {
			return nil, err
		}
		img = sc.Host.CaptureCompositeFrame(src)
	} else {
		img = sc.Host.RenderOverlay()
	}
	res := &Result{Glyphs: sc.Glyphs()}
	res.Stats.RenderTime = time.Since(renderStart)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	res.PNG = buf.Bytes()

	if err := r.Cache.Set(ctx, key, res.PNG, cache.TTLPreview); err == nil {
		observability.Cache().OnCacheSet(ctx, "preview", len(res.PNG))
	}
	opts.Logger.Debug("rendered preview", "glyphs", res.Glyphs, "bytes", len(res.PNG), "duration", res.Stats.RenderTime)
	return res, nil
}

// Overlay renders the animated text and encodes it to opts.OverlayPath as a
// transparent WebM. The ring turns once every SpinPeriod seconds.
func (r *Runner) Overlay(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.OverlayPath == "" {
		return nil, errors.New(errors.ErrCodeInvalidParams, "overlay path is required")
	}

	n := opts.FrameCount()
	observability.Pipeline().OnOverlayStart(ctx, n)
	start := time.Now()

	res := &Result{OverlayPath: opts.OverlayPath}
	sc := r.NewScene(ctx, opts)
	res.Glyphs = sc.Glyphs()

	frames := make(chan image.Image, 2)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(frames)
		for i := range n {
			t := float64(i) / float64(opts.FPS)
			sc.SetRotation(opts.RotationAt(t))
			// The export buffer is reused between frames.
			frame := imaging.Clone(sc.Host.RenderOverlay())
			select {
			case frames <- frame:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	g.Go(func() error {
		written, err := r.Video.EncodeOverlay(gctx, frames, opts.FPS, opts.OverlayPath)
		res.Frames = written
		return err
	})
	err := g.Wait()
	res.Stats.EncodeTime = time.Since(start)
	observability.Pipeline().OnOverlayComplete(ctx, res.Frames, res.Stats.EncodeTime, err)
	if err != nil {
		return nil, err
	}

	opts.Logger.Info("encoded overlay",
		"frames", res.Frames,
		"fps", opts.FPS,
		"output", filepath.Base(opts.OverlayPath),
		"duration", res.Stats.EncodeTime)
	return res, nil
}

// Compose burns an overlay into opts.VideoPath and writes opts.OutputPath.
// An existing opts.OverlayPath is used as is; otherwise an overlay is rendered
// first at the video's resolution unless Width and Height are set.
func (r *Runner) Compose(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if opts.VideoPath == "" || opts.OutputPath == "" {
		return nil, errors.New(errors.ErrCodeInvalidParams, "video and output paths are required")
	}

	res := &Result{OutputPath: opts.OutputPath}
	if opts.OverlayPath == "" || !fileExists(opts.OverlayPath) {
		if opts.Width == 0 && opts.Height == 0 {
			meta, err := r.Probe(ctx, opts.VideoPath)
			if err != nil {
				return nil, err
			}
			opts.Width, opts.Height = meta.Width, meta.Height
		}
		opts.SetOverlayDefaults()
		if opts.OverlayPath == "" {
			tmp, err := os.CreateTemp("", "overlay3d-*.webm")
			if err != nil {
				return nil, err
			}
			tmp.Close()
			opts.OverlayPath = tmp.Name()
			defer os.Remove(opts.OverlayPath)
		}
		ov, err := r.Overlay(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("overlay: %w", err)
		}
		res.Frames, res.Glyphs = ov.Frames, ov.Glyphs
		res.Stats.EncodeTime = ov.Stats.EncodeTime
	} else {
		res.OverlayPath = opts.OverlayPath
	}

	start := time.Now()
	err := r.Video.RenderWithOverlay(ctx, video.RenderOptions{
		VideoPath:   opts.VideoPath,
		OverlayPath: opts.OverlayPath,
		OutputPath:  opts.OutputPath,
		Duration:    opts.Duration,
	})
	if err != nil {
		return nil, err
	}
	res.Stats.ComposeTime = time.Since(start)
	opts.Logger.Info("composed video", "output", filepath.Base(opts.OutputPath), "duration", res.Stats.ComposeTime)
	return res, nil
}

// Probe returns video metadata, cached by path, size and modification time.
func (r *Runner) Probe(ctx context.Context, path string) (video.Meta, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return video.Meta{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "video not found: %s", filepath.Base(path))
	}
	key := r.Keyer.ProbeKey(path, fi.Size(), fi.ModTime().UnixNano())
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var meta video.Meta
		if json.Unmarshal(data, &meta) == nil {
			observability.Cache().OnCacheHit(ctx, "probe")
			return meta, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "probe")

	meta, err := r.Video.Probe(ctx, path)
	if err != nil {
		return video.Meta{}, err
	}
	if data, err := json.Marshal(meta); err == nil {
		if r.Cache.Set(ctx, key, data, cache.TTLProbe) == nil {
			observability.Cache().OnCacheSet(ctx, "probe", len(data))
		}
	}
	return meta, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
