package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook category by writing debug and warning lines
// to a logger.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks writing to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{Logger: logger}
}

// Register installs h for all categories.
func (h *LogHooks) Register() {
	SetRenderHooks(h)
	SetPipelineHooks(h)
	SetEncodeHooks(h)
	SetCacheHooks(h)
	SetStatsHooks(h)
}

func (h *LogHooks) OnFrame(_ context.Context, path string, items int, d time.Duration) {
	h.Logger.Debug("frame", "path", path, "items", items, "took", d)
}

func (h *LogHooks) OnPreviewComplete(_ context.Context, hit bool, d time.Duration, err error) {
	h.done("preview", d, err, "cache_hit", hit)
}

func (h *LogHooks) OnOverlayStart(_ context.Context, frames int) {
	h.Logger.Debug("overlay started", "frames", frames)
}

func (h *LogHooks) OnOverlayComplete(_ context.Context, frames int, d time.Duration, err error) {
	h.done("overlay", d, err, "frames", frames)
}

func (h *LogHooks) OnEncodeStart(_ context.Context, op string) {
	h.Logger.Debug("encoder started", "op", op)
}

func (h *LogHooks) OnEncodeComplete(_ context.Context, op string, d time.Duration, err error) {
	h.done("encoder "+op, d, err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRecord(_ context.Context, action string, err error) {
	if err != nil {
		h.Logger.Warn("stats not recorded", "action", action, "err", err)
		return
	}
	h.Logger.Debug("stats recorded", "action", action)
}

func (h *LogHooks) done(what string, d time.Duration, err error, kv ...any) {
	kv = append(kv, "took", d)
	if err != nil {
		h.Logger.Warn(what+" failed", append(kv, "err", err)...)
		return
	}
	h.Logger.Debug(what+" done", kv...)
}
