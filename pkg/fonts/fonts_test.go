package fonts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

func TestIsBold(t *testing.T) {
	tests := []struct {
		weight string
		want   bool
	}{
		{"", false},
		{"normal", false},
		{"bold", true},
		{"Bold", true},
		{"bolder", true},
		{"400", false},
		{"600", true},
		{"900", true},
	}
	for _, tt := range tests {
		if got := IsBold(tt.weight); got != tt.want {
			t.Errorf("IsBold(%q) = %v, want %v", tt.weight, got, tt.want)
		}
	}
}

func TestBuiltin(t *testing.T) {
	for _, family := range []string{"", "Go", "Go Mono"} {
		for _, weight := range []string{"normal", "bold"} {
			f := Builtin(family, weight)
			if f == nil {
				t.Fatalf("Builtin(%q, %q) = nil", family, weight)
			}
			if !f.Has('A') {
				t.Errorf("Builtin(%q, %q) has no 'A'", family, weight)
			}
		}
	}
	if Builtin("Poppins", "normal") != nil {
		t.Error("Poppins should not be built in")
	}
}

func TestCacheMemoizes(t *testing.T) {
	var calls atomic.Int32
	loader := func(ctx context.Context, family, weight string) (*sfnt.Font, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return opentype.Parse(goitalic.TTF)
	}
	c := NewCache(WithLoader(loader))
	ctx := context.Background()

	var wg sync.WaitGroup
	faces := make([]*Face, 8)
	for i := range faces {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, err := c.Load(ctx, "Italic", "normal")
			if err != nil {
				t.Errorf("Load: %v", err)
			}
			faces[i] = f
		}(i)
	}
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("loader called %d times, want 1", n)
	}
	for i := 1; i < len(faces); i++ {
		if faces[i] != faces[0] {
			t.Error("concurrent loads returned different faces")
		}
	}
	if !c.Loaded("Italic", "normal") || c.Loaded("Italic", "bold") {
		t.Error("Loaded() mismatch")
	}
}

func TestCacheFallbackOnce(t *testing.T) {
	var calls atomic.Int32
	loader := func(ctx context.Context, family, weight string) (*sfnt.Font, error) {
		calls.Add(1)
		return nil, errors.New("boom")
	}
	c := NewCache(WithLoader(loader))

	for i := 0; i < 3; i++ {
		f, err := c.Load(context.Background(), "Missing", "bold")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if !f.Fallback {
			t.Error("expected fallback face")
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("loader called %d times, want 1", n)
	}
}

func TestCacheContextCanceled(t *testing.T) {
	block := make(chan struct{})
	loader := func(ctx context.Context, family, weight string) (*sfnt.Font, error) {
		<-block
		return nil, ErrNotFound
	}
	c := NewCache(WithLoader(loader))
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Load(ctx, "Slow", "normal"); !errors.Is(err, context.Canceled) {
		t.Errorf("Load err = %v, want context.Canceled", err)
	}
}

func TestDirLoader(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "OpenSans-Bold.ttf"), goitalic.TTF, 0644); err != nil {
		t.Fatal(err)
	}

	load := DirLoader(dir)
	if _, err := load(context.Background(), "Open Sans", "bold"); err != nil {
		t.Errorf("bold lookup: %v", err)
	}
	if _, err := load(context.Background(), "Open Sans", "normal"); !errors.Is(err, ErrNotFound) {
		t.Errorf("regular lookup err = %v, want ErrNotFound", err)
	}
}

func TestPreloadAndChain(t *testing.T) {
	loader := func(ctx context.Context, family, weight string) (*sfnt.Font, error) {
		if family == "Emoji" {
			return opentype.Parse(goitalic.TTF)
		}
		return nil, ErrNotFound
	}
	c := NewCache(WithLoader(loader))
	ctx := context.Background()

	if err := c.Preload(ctx, CommonFamilies...); err != nil {
		t.Fatalf("Preload: %v", err)
	}
	for _, family := range CommonFamilies {
		if !c.Loaded(family, "normal") {
			t.Errorf("%s not resolved after preload", family)
		}
	}

	if err := c.AddFallback(ctx, "Emoji"); err != nil {
		t.Fatal(err)
	}
	if err := c.AddFallback(ctx, "Nope"); err != nil {
		t.Fatal(err)
	}
	chain, err := c.Chain(ctx, "Go", "normal")
	if err != nil {
		t.Fatal(err)
	}
	if len(chain) != 2 {
		t.Fatalf("chain length = %d, want 2", len(chain))
	}
	if got := Pick(chain, "A"); got != chain[0] {
		t.Error("Pick should prefer the primary face")
	}
}
