package pipeline

import (
	"context"

	"github.com/matzehuels/overlay3d/pkg/glyph"
	"github.com/matzehuels/overlay3d/pkg/layout"
	"github.com/matzehuels/overlay3d/pkg/occlusion"
	"github.com/matzehuels/overlay3d/pkg/scene"
)

// Scene is a host populated for one pipeline run.
type Scene struct {
	Host   *scene.Host
	Engine layout.Engine
	Mask   *occlusion.Mask // nil without occlusion options

	params glyph.Params
}

// NewScene builds the host, layout and optional occlusion mask for opts. The
// options must already be validated. hostOpts are applied after the defaults.
func (r *Runner) NewScene(ctx context.Context, opts Options, hostOpts ...scene.Option) *Scene {
	host := scene.New(opts.Width, opts.Height, append([]scene.Option{
		scene.WithExportSize(opts.Width, opts.Height),
		scene.WithFonts(r.Fonts),
		scene.WithLogger(opts.Logger),
		scene.WithContext(ctx),
	}, hostOpts...)...)
	s := &Scene{
		Host:   host,
		Engine: layout.New(opts.Params.LayoutMode(), host.Root()),
		params: opts.Params,
	}
	s.SetOcclusion(opts.Occlusion)
	s.Engine.Update(s.params)
	return s
}

// SetRotation re-lays the text with the group turned to y radians.
func (s *Scene) SetRotation(y float64) {
	p := s.params
	p.RotationY = glyph.Float(y)
	s.Engine.Update(p)
}

// Glyphs returns the number of laid-out glyphs.
func (s *Scene) Glyphs() int { return len(s.Engine.Glyphs()) }

// Update re-lays the scene with p. A change of layout mode swaps the engine
// and disposes the old group.
func (s *Scene) Update(p glyph.Params) {
	if p.LayoutMode() != s.params.LayoutMode() {
		s.Engine.Group().Dispose()
		s.Engine = layout.New(p.LayoutMode(), s.Host.Root())
	}
	s.params = p
	s.Engine.Update(p)
}

// SetOcclusion adds, updates or hides the occlusion mask. A nil p leaves the
// mask as it is.
func (s *Scene) SetOcclusion(p *occlusion.Params) {
	if p == nil {
		return
	}
	if s.Mask == nil {
		s.Mask = occlusion.New(s.Host.Root())
	}
	s.Mask.Update(*p)
}
