package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	NoopRenderHooks{}.OnFrame(ctx, "export", 3, time.Millisecond)

	p := NoopPipelineHooks{}
	p.OnPreviewComplete(ctx, true, time.Second, nil)
	p.OnOverlayStart(ctx, 100)
	p.OnOverlayComplete(ctx, 100, time.Second, nil)

	e := NoopEncodeHooks{}
	e.OnEncodeStart(ctx, "compose")
	e.OnEncodeComplete(ctx, "compose", time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "preview")
	c.OnCacheMiss(ctx, "preview")
	c.OnCacheSet(ctx, "preview", 1024)

	NoopStatsHooks{}.OnRecord(ctx, "video", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Render().(NoopRenderHooks); !ok {
		t.Error("Render() should return NoopRenderHooks by default")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Encode().(NoopEncodeHooks); !ok {
		t.Error("Encode() should return NoopEncodeHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Stats().(NoopStatsHooks); !ok {
		t.Error("Stats() should return NoopStatsHooks by default")
	}

	h := NewLogHooks(log.New(&bytes.Buffer{}))
	h.Register()
	if Render() != RenderHooks(h) || Pipeline() != PipelineHooks(h) || Encode() != EncodeHooks(h) ||
		Cache() != CacheHooks(h) || Stats() != StatsHooks(h) {
		t.Error("Register should install the hooks for every category")
	}

	// nil keeps the current hooks
	SetRenderHooks(nil)
	if Render() != RenderHooks(h) {
		t.Error("SetRenderHooks(nil) should be ignored")
	}

	Reset()
	if _, ok := Stats().(NoopStatsHooks); !ok {
		t.Error("Reset should restore defaults")
	}
}

func TestLogHooksWarnOnError(t *testing.T) {
	var buf bytes.Buffer
	h := NewLogHooks(log.New(&buf))

	h.OnEncodeComplete(context.Background(), "compose", time.Second, errors.New("exit status 1"))
	h.OnRecord(context.Background(), "download", errors.New("redis down"))

	out := buf.String()
	if !strings.Contains(out, "encoder compose failed") || !strings.Contains(out, "exit status 1") {
		t.Errorf("missing encoder warning: %q", out)
	}
	if !strings.Contains(out, "stats not recorded") {
		t.Errorf("missing stats warning: %q", out)
	}
}
