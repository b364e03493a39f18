package scene

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/overlay3d/pkg/composite"
	"github.com/matzehuels/overlay3d/pkg/fonts"
	"github.com/matzehuels/overlay3d/pkg/geom"
	"github.com/matzehuels/overlay3d/pkg/observability"
	"github.com/matzehuels/overlay3d/pkg/raster"
)

// MaxPixelRatio caps the interactive renderer's device pixel ratio.
const MaxPixelRatio = 1.5

// Host owns the scene graph, camera and renderers.
type Host struct {
	scene  *Node
	root   *Node
	camera Camera

	width, height int
	surface       draw.Image
	interactive   *raster.Renderer

	exportW, exportH int
	export           *raster.Renderer
	compositor       *composite.Compositor
	video            composite.VideoSource

	fonts  *fonts.Cache
	logger *log.Logger
	ctx    context.Context
}

// Option configures a Host.
type Option func(*hostConfig)

type hostConfig struct {
	surface          draw.Image
	dpr              float64
	exportW, exportH int
	fonts            *fonts.Cache
	logger           *log.Logger
	ctx              context.Context
}

// WithSurface makes the interactive renderer present into surface.
func WithSurface(s draw.Image) Option {
	return func(c *hostConfig) { c.surface = s }
}

// WithDevicePixelRatio sets the display's pixel ratio; the renderer uses at most
// MaxPixelRatio.
func WithDevicePixelRatio(dpr float64) Option {
	return func(c *hostConfig) { c.dpr = dpr }
}

// WithExportSize sets the export resolution. It defaults to the initial size.
func WithExportSize(w, h int) Option {
	return func(c *hostConfig) { c.exportW, c.exportH = w, h }
}

// WithFonts injects the font cache shared by both renderers.
func WithFonts(f *fonts.Cache) Option {
	return func(c *hostConfig) { c.fonts = f }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *hostConfig) { c.logger = l }
}

// WithContext sets the context used for font loads during rendering.
func WithContext(ctx context.Context) Option {
	return func(c *hostConfig) { c.ctx = ctx }
}

// New creates a host for a w×h view. When a surface is given and w or h is zero,
// the surface bounds are used.
func New(w, h int, opts ...Option) *Host {
	cfg := hostConfig{dpr: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.surface != nil && (w <= 0 || h <= 0) {
		b := cfg.surface.Bounds()
		w, h = b.Dx(), b.Dy()
	}
	w, h = max(w, 1), max(h, 1)
	if cfg.exportW <= 0 || cfg.exportH <= 0 {
		cfg.exportW, cfg.exportH = w, h
	}
	if cfg.logger == nil {
		cfg.logger = log.New(io.Discard)
	}
	if cfg.fonts == nil {
		cfg.fonts = fonts.NewCache(fonts.WithLogger(cfg.logger))
	}
	if cfg.ctx == nil {
		cfg.ctx = context.Background()
	}

	h0 := &Host{
		scene:   NewGroup("scene"),
		root:    NewGroup("root"),
		camera:  NewCamera(float64(w) / float64(h)),
		width:   w,
		height:  h,
		surface: cfg.surface,
		exportW: cfg.exportW,
		exportH: cfg.exportH,
		fonts:   cfg.fonts,
		logger:  cfg.logger,
		ctx:     cfg.ctx,
	}

	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	ambient := NewLight("ambient", Light{Kind: LightAmbient, Color: white, Intensity: 0.8})
	directional := NewLight("directional", Light{Kind: LightDirectional, Color: white, Intensity: 0.8})
	directional.Position = geom.Vec3{2, 4, 5}
	h0.scene.Add(ambient, directional, h0.root)

	h0.interactive = raster.New(w, h, cfg.fonts, raster.Options{
		PixelRatio: math.Min(math.Max(cfg.dpr, 1), MaxPixelRatio),
		Logger:     cfg.logger,
	})
	h0.export = raster.New(cfg.exportW, cfg.exportH, cfg.fonts, raster.Options{
		PixelRatio:     1,
		PreserveBuffer: true,
		Logger:         cfg.logger,
	})
	h0.compositor = composite.New(cfg.exportW, cfg.exportH, h0, cfg.logger)
	return h0
}

// Scene returns the top-level node holding lights and the root group.
func (h *Host) Scene() *Node { return h.scene }

// Root returns the group that layout engines attach to.
func (h *Host) Root() *Node { return h.root }

// Camera returns a copy of the camera.
func (h *Host) Camera() Camera { return h.camera }

// Size returns the logical view size.
func (h *Host) Size() (int, int) { return h.width, h.height }

// ExportSize returns the export resolution.
func (h *Host) ExportSize() (int, int) { return h.exportW, h.exportH }

// Fonts returns the injected font cache.
func (h *Host) Fonts() *fonts.Cache { return h.fonts }

// Resize updates the camera aspect and the interactive viewport. The export
// renderer keeps its resolution.
func (h *Host) Resize(w, h2 int) {
	if w <= 0 || h2 <= 0 {
		return
	}
	h.width, h.height = w, h2
	h.camera.Aspect = float64(w) / float64(h2)
	h.interactive.SetSize(w, h2)
}

// ViewSizeAtZ returns the visible world extent on plane z.
func (h *Host) ViewSizeAtZ(z float64) (float64, float64) {
	return h.camera.ViewSizeAtZ(z)
}

// RenderFrame draws the scene with the interactive renderer. With a surface the
// frame is presented and the surface returned; otherwise the renderer's buffer
// is returned.
func (h *Host) RenderFrame() image.Image {
	start := time.Now()
	items := h.Items()
	img := h.interactive.Render(h.ctx, items, h.camera.Raster())
	observability.Render().OnFrame(h.ctx, "interactive", len(items), time.Since(start))
	if h.surface != nil {
		h.interactive.Present(h.surface)
		return h.surface
	}
	return img
}

// RenderOverlay draws the scene with the export renderer and returns its
// preserved buffer. The camera aspect follows the export resolution.
func (h *Host) RenderOverlay() image.Image {
	start := time.Now()
	cam := h.camera
	cam.Aspect = float64(h.exportW) / float64(h.exportH)
	items := h.Items()
	img := h.export.Render(h.ctx, items, cam.Raster())
	observability.Render().OnFrame(h.ctx, "export", len(items), time.Since(start))
	return img
}

// AttachVideo sets the video captured by CaptureVideoFrame. A nil source is
// rejected with a warning.
func (h *Host) AttachVideo(src composite.VideoSource) bool {
	if src == nil {
		h.logger.Warn("no video source to attach overlay to")
		return false
	}
	h.video = src
	return true
}

// CaptureCompositeFrame merges src's current frame with an export render.
func (h *Host) CaptureCompositeFrame(src composite.VideoSource) *image.RGBA {
	return h.compositor.Capture(src)
}

// CaptureVideoFrame is CaptureCompositeFrame for the attached video.
func (h *Host) CaptureVideoFrame() *image.RGBA {
	return h.compositor.Capture(h.video)
}

// Run renders fps frames per second until ctx is done. tick runs before each
// frame with the time elapsed since Run started.
func (h *Host) Run(ctx context.Context, fps int, tick func(elapsed time.Duration)) error {
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if tick != nil {
				tick(now.Sub(start))
			}
			h.RenderFrame()
		}
	}
}

// Items flattens the visible drawables of the graph with up-to-date world
// matrices.
func (h *Host) Items() []raster.Item {
	h.scene.UpdateWorld()
	var items []raster.Item
	h.scene.Traverse(func(n *Node) bool {
		if !n.Visible {
			return false
		}
		switch {
		case n.Text != nil:
			items = append(items, raster.Item{World: n.WorldMatrix(), RenderOrder: n.RenderOrder, Text: n.Text})
		case n.Volume != nil:
			items = append(items, raster.Item{World: n.WorldMatrix(), RenderOrder: n.RenderOrder, Volume: n.Volume})
		}
		return true
	})
	return items
}

var _ composite.OverlayRenderer = (*Host)(nil)
