package layout

import (
	"github.com/matzehuels/overlay3d/pkg/glyph"
	"github.com/matzehuels/overlay3d/pkg/scene"
)

// Engine is implemented by both layout engines.
type Engine interface {
	// Update lays out p. It never fails; malformed values use defaults.
	Update(p glyph.Params)
	// Group is the engine's root node, attached to the scene by the caller.
	Group() *scene.Node
	// Glyphs returns snapshots of the current glyphs in display order.
	Glyphs() []glyph.Glyph
}

// New returns the engine for mode, attached to parent.
func New(mode glyph.Mode, parent *scene.Node) Engine {
	if mode == glyph.ModeLinear {
		return NewLinear(parent)
	}
	return NewCircular(parent)
}

// applyGroup sets the tilt and offset shared by both engines.
func applyGroup(g *scene.Node, p glyph.Params) {
	x, y := p.GroupRotation()
	g.SetEuler(x, y, 0)
	g.Position = p.GroupOffset()
}
