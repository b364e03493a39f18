// Package occlusion provides an invisible cylinder that hides glyphs behind it.
//
// The mask writes depth but no color and is drawn before any glyph, so glyphs on
// the far side of a circular layout disappear behind it while the surface itself
// stays transparent.
package occlusion

import (
	"math"

	"github.com/matzehuels/overlay3d/pkg/geom"
	"github.com/matzehuels/overlay3d/pkg/scene"
)

const (
	// Segments is the radial resolution of the cylinder.
	Segments = 32
	// RenderOrder places the mask before all glyphs.
	RenderOrder = -1
	// MinExtent is the smallest radius or height accepted.
	MinExtent = 0.01
)

// Params configures the mask. Zero Radius or Height means 1; nil Enabled means true.
type Params struct {
	Radius  float64 `json:"radius,omitempty" toml:"radius"`
	Height  float64 `json:"height,omitempty" toml:"height"`
	Y       float64 `json:"y,omitempty" toml:"y"`
	Enabled *bool   `json:"enabled,omitempty" toml:"enabled"`
}

// Mask is a depth-only open cylinder attached to a scene group.
type Mask struct {
	group *scene.Node
	mesh  *scene.Node
}

// New creates a mask attached to parent, which may be nil.
func New(parent *scene.Node) *Mask {
	g := scene.NewGroup("occluder")
	mesh := scene.NewVolume("occluder-cylinder", scene.Volume{
		Segments:   Segments,
		ColorWrite: false,
		DepthWrite: true,
	})
	mesh.RenderOrder = RenderOrder
	g.Add(mesh)
	if parent != nil {
		parent.Add(g)
	}
	return &Mask{group: g, mesh: mesh}
}

// Group returns the mask's root node.
func (m *Mask) Group() *scene.Node { return m.group }

// Mesh returns the cylinder node.
func (m *Mask) Mesh() *scene.Node { return m.mesh }

// Update applies p.
func (m *Mask) Update(p Params) {
	enabled := p.Enabled == nil || *p.Enabled
	m.group.Visible = enabled

	r := extent(p.Radius)
	h := extent(p.Height)
	m.mesh.Scale = geom.Vec3{r, h, r}
	m.group.Position = geom.Vec3{0, p.Y, 0}
	m.group.UpdateWorld()
}

// Enabled reports whether the mask is currently drawn.
func (m *Mask) Enabled() bool { return m.group.Visible }

// Radius returns the applied radius.
func (m *Mask) Radius() float64 { return m.mesh.Scale.X() }

// Height returns the applied height.
func (m *Mask) Height() float64 { return m.mesh.Scale.Y() }

// Depth returns the distance along r to the nearest front face of the mask.
// It reports false when the mask is disabled or r misses it.
func (m *Mask) Depth(r geom.Ray) (float64, bool) {
	if !m.mesh.EffectivelyVisible() {
		return 0, false
	}
	m.group.UpdateWorld()
	inv := m.mesh.WorldMatrix().Inv()
	local := geom.Ray{
		Origin: geom.TransformPoint(inv, r.Origin),
		Dir:    geom.TransformDir(inv, r.Dir),
	}
	t, ok := geom.UnitCylinder{}.IntersectFront(local, 0)
	if !ok {
		return 0, false
	}
	return t * r.Dir.Len(), true
}

func extent(v float64) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		v = 1
	}
	return math.Max(MinExtent, math.Abs(v))
}
