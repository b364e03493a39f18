// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through the registered hooks; binaries register
// implementations at startup. Every category defaults to a no-op, so library
// code never needs to check whether instrumentation is configured.
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRenderHooks(observability.NewLogHooks(logger))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnOverlayStart(ctx, frames)
//	// ... render and encode ...
//	observability.Pipeline().OnOverlayComplete(ctx, frames, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from the scene renderers.
type RenderHooks interface {
	// OnFrame records one rendered frame. path is "interactive" or "export".
	OnFrame(ctx context.Context, path string, items int, duration time.Duration)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the overlay pipeline.
type PipelineHooks interface {
	OnPreviewComplete(ctx context.Context, cacheHit bool, duration time.Duration, err error)

	OnOverlayStart(ctx context.Context, frames int)
	OnOverlayComplete(ctx context.Context, frames int, duration time.Duration, err error)
}

// =============================================================================
// Encode Hooks
// =============================================================================

// EncodeHooks receives events from external encoder runs.
type EncodeHooks interface {
	// OnEncodeStart records an encoder invocation. op is "probe", "overlay",
	// "compose" or "frame".
	OnEncodeStart(ctx context.Context, op string)
	OnEncodeComplete(ctx context.Context, op string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Stats Hooks
// =============================================================================

// StatsHooks receives events from usage statistics recording.
type StatsHooks interface {
	OnRecord(ctx context.Context, action string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnFrame(context.Context, string, int, time.Duration) {}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnPreviewComplete(context.Context, bool, time.Duration, error) {}
func (NoopPipelineHooks) OnOverlayStart(context.Context, int)                           {}
func (NoopPipelineHooks) OnOverlayComplete(context.Context, int, time.Duration, error)  {}

// NoopEncodeHooks is a no-op implementation of EncodeHooks.
type NoopEncodeHooks struct{}

func (NoopEncodeHooks) OnEncodeStart(context.Context, string)                          {}
func (NoopEncodeHooks) OnEncodeComplete(context.Context, string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopStatsHooks is a no-op implementation of StatsHooks.
type NoopStatsHooks struct{}

func (NoopStatsHooks) OnRecord(context.Context, string, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	renderHooks   RenderHooks   = NoopRenderHooks{}
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	encodeHooks   EncodeHooks   = NoopEncodeHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	statsHooks    StatsHooks    = NoopStatsHooks{}
	hooksMu       sync.RWMutex
)

// SetRenderHooks registers custom render hooks.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// SetPipelineHooks registers custom pipeline hooks.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetEncodeHooks registers custom encoder hooks.
func SetEncodeHooks(h EncodeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		encodeHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetStatsHooks registers custom stats hooks.
func SetStatsHooks(h StatsHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		statsHooks = h
	}
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Encode returns the registered encoder hooks.
func Encode() EncodeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return encodeHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Stats returns the registered stats hooks.
func Stats() StatsHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return statsHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	renderHooks = NoopRenderHooks{}
	pipelineHooks = NoopPipelineHooks{}
	encodeHooks = NoopEncodeHooks{}
	cacheHooks = NoopCacheHooks{}
	statsHooks = NoopStatsHooks{}
}
