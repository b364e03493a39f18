package raster

import (
	"image/color"
	"math"

	"github.com/matzehuels/overlay3d/pkg/geom"
)

// Anchor is the horizontal anchor of a text block. Text is always centered
// vertically on its origin.
type Anchor int

const (
	AnchorCenter Anchor = iota
	AnchorLeft
)

func (a Anchor) String() string {
	if a == AnchorLeft {
		return "left"
	}
	return "center"
}

// Outline is a stroke drawn behind glyph fill. Width is a fraction of the font size.
type Outline struct {
	Width float64
	Color color.NRGBA
}

// Text is a block of text laid out in its node's local XY plane, facing +Z.
// Size is the em height in world units; LetterSpacing is a fraction of Size.
type Text struct {
	Content       string
	Size          float64
	Color         color.NRGBA
	Weight        string
	Family        string
	LetterSpacing float64
	AnchorX       Anchor
	Outline       *Outline
}

// Volume is a unit open cylinder (radius 1, height 1) transformed by its world
// matrix. Volumes contribute depth only.
type Volume struct {
	Segments   int
	ColorWrite bool
	DepthWrite bool
}

// Item is one drawable in world space.
type Item struct {
	World       geom.Mat4
	RenderOrder int
	Text        *Text
	Volume      *Volume
}

// Camera holds the matrices needed to project world points into the buffer.
type Camera struct {
	View       geom.Mat4
	Projection geom.Mat4
	Near       float64
}

// Depth returns the view-space distance of p in front of the camera.
func (c Camera) Depth(p geom.Vec3) float64 {
	return -geom.TransformPoint(c.View, p).Z()
}

// Project maps p to buffer coordinates for a w×h buffer. ok is false for points
// at or behind the near plane.
func (c Camera) Project(p geom.Vec3, w, h int) (x, y, depth float64, ok bool) {
	clip := c.Projection.Mul4(c.View).Mul4x1(p.Vec4(1))
	depth = clip[3]
	if depth < c.Near {
		return 0, 0, depth, false
	}
	nx, ny := clip[0]/clip[3], clip[1]/clip[3]
	x = (nx + 1) / 2 * float64(w)
	y = (1 - ny) / 2 * float64(h)
	return x, y, depth, true
}

// Ray returns the world-space ray through buffer position (px, py). The ray
// starts on the near plane.
func (c Camera) Ray(px, py float64, w, h int) geom.Ray {
	return rayThrough(c.Projection.Mul4(c.View).Inv(), px, py, w, h)
}

func rayThrough(inv geom.Mat4, px, py float64, w, h int) geom.Ray {
	nx := px/float64(w)*2 - 1
	ny := 1 - py/float64(h)*2
	near := geom.TransformPoint(inv, geom.Vec3{nx, ny, -1})
	far := geom.TransformPoint(inv, geom.Vec3{nx, ny, 1})
	return geom.Ray{Origin: near, Dir: far.Sub(near)}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
