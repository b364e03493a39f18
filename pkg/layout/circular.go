package layout

import (
	"math"

	"github.com/matzehuels/overlay3d/pkg/geom"
	"github.com/matzehuels/overlay3d/pkg/glyph"
	"github.com/matzehuels/overlay3d/pkg/scene"
)

// SpecialScaleCircular is the size multiplier of the special glyph on a circle.
const SpecialScaleCircular = 1.2

// Circular arranges glyphs around a circle of radius r in the group's XZ plane.
type Circular struct {
	group *scene.Node
	pool  *glyph.Pool
}

// NewCircular creates the engine and attaches its group to parent, which may be nil.
func NewCircular(parent *scene.Node) *Circular {
	g := scene.NewGroup("circular")
	if parent != nil {
		parent.Add(g)
	}
	return &Circular{group: g, pool: glyph.NewPool(g, "circular-glyph-")}
}

// Group returns the engine's root node.
func (c *Circular) Group() *scene.Node { return c.group }

// Glyphs returns snapshots of the pooled glyphs.
func (c *Circular) Glyphs() []glyph.Glyph { return c.pool.Snapshots() }

// Step returns the angular step between neighbouring glyphs for n glyphs and
// letter spacing s. Positive spacing spreads glyphs over a virtually larger
// count and leaves a gap at the end of the circle.
func Step(n int, s float64) float64 {
	count := float64(n) + s*float64(n)
	return 2 * math.Pi / math.Max(1, count)
}

// Placement returns the local position and orientation of a glyph at angle theta.
func Placement(theta, radius float64, faceOutward bool) (geom.Vec3, geom.Quat) {
	pos := geom.Vec3{math.Cos(theta) * radius, 0, math.Sin(theta) * radius}
	rot := geom.LookAtQuat(pos, geom.Origin, geom.UnitY)
	if faceOutward {
		rot = rot.Mul(geom.AxisAngle(geom.UnitY, math.Pi))
	}
	return pos, rot
}

// Update lays out p around the circle.
func (c *Circular) Update(p glyph.Params) {
	chars := p.Graphemes()
	n := len(chars)
	c.pool.Resize(n)

	var (
		radius  = p.Radius()
		size    = p.Size()
		color   = p.ColorOf()
		weight  = p.Weight()
		step    = Step(n, p.Spacing())
		special = glyph.MustColor(glyph.SpecialColor)
	)

	for i, ch := range chars {
		node := c.pool.At(i)
		t := node.Text
		t.Content = ch
		t.Weight = weight
		t.Family = p.FontFamily
		t.AnchorX = scene.AnchorCenter
		t.LetterSpacing = 0
		t.Outline = nil
		if glyph.IsSpecial(ch) {
			t.Color = special
			t.Size = size * SpecialScaleCircular
		} else {
			t.Color = color
			t.Size = size
		}

		node.Position, node.Rotation = Placement(float64(i)*step, radius, p.FaceOutward)
		node.Visible = true
	}

	applyGroup(c.group, p)
	c.group.UpdateWorld()

	if p.FrontHalfOnly {
		for _, node := range c.pool.Nodes() {
			node.Visible = node.WorldPosition().Z() > 0
		}
	}
}
