// Package pipeline turns text parameters into preview images, transparent
// overlay videos and finished compositions.
//
// It is shared by the CLI and the HTTP API so both render identically:
//
//  1. Scene: a scene.Host with a layout engine and optional occlusion mask
//  2. Render: one export frame (Preview) or an animated frame sequence (Overlay)
//  3. Encode: PNG for previews, VP9 WebM with alpha for overlays, H.264 for
//     compositions (Compose)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Preview(ctx, pipeline.Options{
//	    Params: glyph.Params{Text: "HELLO"},
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("preview.png", res.PNG, 0644)
package pipeline

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/overlay3d/pkg/cache"
	"github.com/matzehuels/overlay3d/pkg/errors"
	"github.com/matzehuels/overlay3d/pkg/glyph"
	"github.com/matzehuels/overlay3d/pkg/occlusion"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default output width in pixels (portrait 720p).
	DefaultWidth = 720

	// DefaultHeight is the default output height in pixels.
	DefaultHeight = 1280

	// DefaultFPS is the overlay frame rate.
	DefaultFPS = 20

	// DefaultDuration is the overlay length in seconds.
	DefaultDuration = 5.0

	// DefaultSpinPeriod is the time for one full turn of the text ring.
	DefaultSpinPeriod = 8.0

	// MaxDuration bounds overlay length in seconds.
	MaxDuration = 60.0

	// MaxFPS bounds the overlay frame rate.
	MaxFPS = 60
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
type Options struct {
	// Scene options
	Params    glyph.Params      `json:"params"`
	Occlusion *occlusion.Params `json:"occlusion,omitempty"`

	// Frame options
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// Preview options
	VideoPath string  `json:"video_path,omitempty"`
	Time      float64 `json:"time,omitempty"` // Video time of the preview frame in seconds

	// Overlay options
	Duration   float64 `json:"duration,omitempty"`
	FPS        int     `json:"fps,omitempty"`
	SpinPeriod float64 `json:"spin_period,omitempty"` // Seconds per turn; negative spins the other way
	Static     bool    `json:"static,omitempty"`      // Disable the spin animation

	// Output options
	OverlayPath string `json:"overlay_path,omitempty"`
	OutputPath  string `json:"output_path,omitempty"`
	Refresh     bool   `json:"refresh,omitempty"` // Bypass the preview cache

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// PNG is the encoded preview image.
	PNG []byte

	// OverlayPath is the encoded overlay video.
	OverlayPath string

	// OutputPath is the composed video.
	OutputPath string

	// Frames is the number of overlay frames encoded.
	Frames int

	// Glyphs is the number of glyphs in the scene.
	Glyphs int

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	RenderTime  time.Duration
	EncodeTime  time.Duration
	ComposeTime time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	PreviewHit bool
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if err := errors.ValidateDimensions(o.Width, o.Height); err != nil {
		return err
	}
	if err := errors.ValidateText(o.Params.Text); err != nil {
		return err
	}
	if o.Time < 0 {
		o.Time = 0
	}
	o.SetOverlayDefaults()
	if o.Duration > MaxDuration {
		return errors.New(errors.ErrCodeInvalidParams, "duration %gs exceeds %gs", o.Duration, MaxDuration)
	}
	if o.FPS > MaxFPS {
		return errors.New(errors.ErrCodeInvalidParams, "fps %d exceeds %d", o.FPS, MaxFPS)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// SetOverlayDefaults sets default values for overlay animation.
func (o *Options) SetOverlayDefaults() {
	if o.Duration <= 0 {
		o.Duration = DefaultDuration
	}
	if o.FPS <= 0 {
		o.FPS = DefaultFPS
	}
	if o.SpinPeriod == 0 {
		o.SpinPeriod = DefaultSpinPeriod
	}
}

// FrameCount returns the number of frames in the overlay.
func (o *Options) FrameCount() int {
	return max(1, int(math.Round(o.Duration*float64(o.FPS))))
}

// RotationAt returns the Y rotation in radians at t seconds into the overlay.
func (o *Options) RotationAt(t float64) float64 {
	_, base := o.Params.GroupRotation()
	if o.Static || o.SpinPeriod == 0 {
		return base
	}
	return base + 2*math.Pi*t/o.SpinPeriod
}

// PreviewKeyOpts returns cache key options for a preview.
func (o *Options) PreviewKeyOpts(videoHash string) cache.PreviewKeyOpts {
	return cache.PreviewKeyOpts{
		Width:     o.Width,
		Height:    o.Height,
		VideoHash: videoHash,
		Time:      o.Time,
	}
}

// sceneHash identifies everything that changes the rendered scene.
func (o *Options) sceneHash() (string, error) {
	h, err := cache.HashJSON(struct {
		Params    glyph.Params      `json:"p"`
		Occlusion *occlusion.Params `json:"o,omitempty"`
	}{o.Params, o.Occlusion})
	if err != nil {
		return "", fmt.Errorf("hash params: %w", err)
	}
	return h, nil
}
