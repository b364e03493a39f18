package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/matzehuels/overlay3d/pkg/geom"
	"github.com/matzehuels/overlay3d/pkg/glyph"
	"github.com/matzehuels/overlay3d/pkg/scene"
)

const eps = 1e-9

func TestCircularRadius(t *testing.T) {
	tests := []struct {
		name   string
		radius *float64
		want   float64
	}{
		{"default", nil, 4},
		{"explicit", glyph.Float(2.5), 2.5},
		{"negative winding", glyph.Float(-3), 3},
		{"clamped", glyph.Float(0), glyph.MinRadius},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCircular(nil)
			c.Update(glyph.Params{Text: "HELLO", RadiusValue: tt.radius})
			for i, g := range c.Glyphs() {
				d := math.Hypot(g.Position.X(), g.Position.Z())
				if math.Abs(d-tt.want) > eps {
					t.Errorf("glyph %d distance = %v, want %v", i, d, tt.want)
				}
				if g.Position.Y() != 0 {
					t.Errorf("glyph %d y = %v, want 0", i, g.Position.Y())
				}
			}
		})
	}
}

func TestCircularIdempotent(t *testing.T) {
	p := glyph.Params{Text: "Idempotent", TiltX: 15, TiltY: 30, XOffset: 20, FaceOutward: true, FrontHalfOnly: true}
	c := NewCircular(nil)
	c.Update(p)
	first := c.Glyphs()
	c.Update(p)
	second := c.Glyphs()

	if len(first) != len(second) {
		t.Fatalf("len %d != %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.Char != b.Char || a.Visible != b.Visible || !geom.ApproxVec(a.Position, b.Position, eps) ||
			!geom.ApproxQuat(a.Orientation, b.Orientation, eps) {
			t.Errorf("glyph %d differs: %+v vs %+v", i, a, b)
		}
	}
}

func TestCircularPoolTracksGraphemes(t *testing.T) {
	c := NewCircular(nil)
	for _, text := range []string{"abcdef", "ab", "a💙b", ""} {
		p := glyph.Params{Text: text}
		c.Update(p)
		want := len(p.Graphemes())
		if got := len(c.Glyphs()); got != want {
			t.Errorf("%q: pool = %d, want %d", text, got, want)
		}
		if got := len(c.Group().Children()); got != want {
			t.Errorf("%q: children = %d, want %d", text, got, want)
		}
	}
}

func TestCircularGraphemeChars(t *testing.T) {
	c := NewCircular(nil)
	c.Update(glyph.Params{Text: "A💙B", ReverseText: true})
	got := c.Glyphs()
	want := []string{"B", "💙", "A"}
	if len(got) != len(want) {
		t.Fatalf("got %d glyphs", len(got))
	}
	for i := range want {
		if got[i].Char != want[i] {
			t.Errorf("glyph %d = %q, want %q", i, got[i].Char, want[i])
		}
	}
	if got[1].Size != SpecialScaleCircular || got[1].Color != glyph.MustColor(glyph.SpecialColor) {
		t.Errorf("special glyph style = %+v", got[1])
	}
}

func TestCircularAB(t *testing.T) {
	c := NewCircular(nil)
	c.Update(glyph.Params{Text: "AB", RadiusValue: glyph.Float(4)})
	g := c.Glyphs()

	if !geom.ApproxVec(g[0].Position, geom.Vec3{4, 0, 0}, eps) {
		t.Errorf("A at %v, want (4,0,0)", g[0].Position)
	}
	if !geom.ApproxVec(g[1].Position, geom.Vec3{-4, 0, 0}, 1e-9) {
		t.Errorf("B at %v, want (-4,0,0)", g[1].Position)
	}

	// Local +Z of each glyph points away from the center toward the glyph.
	for i, gl := range g {
		z := gl.Orientation.Rotate(geom.UnitZ)
		want := gl.Position.Normalize()
		if !geom.ApproxVec(z, want, 1e-9) {
			t.Errorf("glyph %d facing %v, want %v", i, z, want)
		}
	}
}

func TestCircularFaceOutward(t *testing.T) {
	c := NewCircular(nil)
	c.Update(glyph.Params{Text: "AB", FaceOutward: true})
	for i, g := range c.Glyphs() {
		z := g.Orientation.Rotate(geom.UnitZ)
		want := g.Position.Normalize().Mul(-1)
		if !geom.ApproxVec(z, want, 1e-9) {
			t.Errorf("glyph %d facing %v, want %v", i, z, want)
		}
	}
}

func TestCircularFrontHalfOnly(t *testing.T) {
	c := NewCircular(nil)
	p := glyph.Params{Text: "ABCDEFG", FrontHalfOnly: true}
	c.Update(p)

	step := Step(7, 0)
	for i, g := range c.Glyphs() {
		want := math.Sin(float64(i)*step) > 0
		if g.Visible != want {
			t.Errorf("glyph %d visible = %v, want %v", i, g.Visible, want)
		}
	}

	p.FrontHalfOnly = false
	c.Update(p)
	for i, g := range c.Glyphs() {
		if !g.Visible {
			t.Errorf("glyph %d hidden without culling", i)
		}
	}
}

func TestCircularGroupTransform(t *testing.T) {
	c := NewCircular(nil)
	c.Update(glyph.Params{Text: "A", TiltX: 90, TiltY: 45, XOffset: 100, YOffset: -50})
	g := c.Group()

	if !geom.ApproxVec(g.Position, geom.Vec3{1, -0.5, 0}, eps) {
		t.Errorf("group position = %v", g.Position)
	}
	want := geom.EulerXYZ(math.Pi/2, math.Pi/4, 0)
	if !geom.ApproxQuat(g.Rotation, want, eps) {
		t.Errorf("group rotation = %v, want %v", g.Rotation, want)
	}

	c.Update(glyph.Params{Text: "A", TiltY: 45, RotationY: glyph.Float(1)})
	want = geom.EulerXYZ(0, 1, 0)
	if !geom.ApproxQuat(g.Rotation, want, eps) {
		t.Errorf("rotationY override = %v, want %v", g.Rotation, want)
	}
}

func TestStep(t *testing.T) {
	tests := []struct {
		n    int
		s    float64
		want float64
	}{
		{4, 0, math.Pi / 2},
		{4, 1, math.Pi / 4},
		{0, 0, 2 * math.Pi},
		{2, -0.9, 2 * math.Pi},
	}
	for _, tt := range tests {
		if got := Step(tt.n, tt.s); math.Abs(got-tt.want) > eps {
			t.Errorf("Step(%d, %v) = %v, want %v", tt.n, tt.s, got, tt.want)
		}
	}
}

func TestLinearSimple(t *testing.T) {
	l := NewLinear(nil)
	l.Update(glyph.Params{Text: "HELLO", LetterSpacing: 0.1, FontSize: 2})

	if l.Variant() != VariantSimple {
		t.Fatalf("variant = %v", l.Variant())
	}
	g := l.Glyphs()
	if len(g) != 1 {
		t.Fatalf("simple variant has %d glyphs", len(g))
	}
	if g[0].Char != "HELLO" || g[0].Anchor != scene.AnchorCenter || g[0].Size != 2 {
		t.Errorf("block = %+v", g[0])
	}
}

func TestLinearPerGlyph(t *testing.T) {
	l := NewLinear(nil)
	l.Update(glyph.Params{Text: "A💙B", FontSize: 1, LetterSpacing: 5})

	if l.Variant() != VariantPerGlyph {
		t.Fatalf("variant = %v", l.Variant())
	}
	g := l.Glyphs()
	if len(g) != 3 {
		t.Fatalf("got %d glyphs", len(g))
	}

	wantX := []float64{-0.45, 0, 0.45}
	for i := range g {
		if math.Abs(g[i].Position.X()-wantX[i]) > eps {
			t.Errorf("glyph %d x = %v, want %v", i, g[i].Position.X(), wantX[i])
		}
		if g[i].Anchor != scene.AnchorLeft {
			t.Errorf("glyph %d anchor = %v", i, g[i].Anchor)
		}
	}

	heart := g[1]
	if math.Abs(heart.Size-1.8) > eps {
		t.Errorf("heart size = %v, want 1.8", heart.Size)
	}
	if heart.Color == g[0].Color {
		t.Error("heart should have a distinct color")
	}
	if heart.Outline == nil || heart.Outline.Width != SpecialOutlineWidth {
		t.Errorf("heart outline = %+v", heart.Outline)
	}
	if g[0].Outline != nil {
		t.Error("plain glyph has an outline")
	}
}

func TestLinearCentering(t *testing.T) {
	l := NewLinear(nil)
	for _, text := range []string{"💙", "a💙", "ab💙cd"} {
		l.Update(glyph.Params{Text: text, FontSize: 1.5})
		g := l.Glyphs()
		first, last := g[0].Position.X(), g[len(g)-1].Position.X()
		if math.Abs(first+last) > eps {
			t.Errorf("%q: first %v last %v not symmetric", text, first, last)
		}
	}
}

func TestLinearVariantSwitch(t *testing.T) {
	l := NewLinear(nil)
	l.Update(glyph.Params{Text: "ab💙cd"})
	if n := len(l.Group().Children()); n != 5 {
		t.Fatalf("per-glyph children = %d", n)
	}
	l.Update(glyph.Params{Text: "abcd"})
	if n := len(l.Group().Children()); n != 1 {
		t.Errorf("extra glyphs not disposed, children = %d", n)
	}
}

func TestEmptyTextSingleSpace(t *testing.T) {
	for _, mode := range []glyph.Mode{glyph.ModeCircular, glyph.ModeLinear} {
		for _, text := range []string{"", "   ", "\t", " \n\t "} {
			t.Run(fmt.Sprintf("%s/%q", mode, text), func(t *testing.T) {
				e := New(mode, scene.NewGroup("root"))
				e.Update(glyph.Params{Text: "ABC"})
				e.Update(glyph.Params{Text: text})
				g := e.Glyphs()
				if len(g) != 1 || g[0].Char != " " {
					t.Errorf("glyphs = %+v, want one space", g)
				}
			})
		}
	}
}

func TestCircularNonFiniteRadius(t *testing.T) {
	c := NewCircular(nil)
	c.Update(glyph.Params{Text: "AB", RadiusValue: glyph.Float(math.Inf(1))})
	for _, g := range c.Glyphs() {
		for _, v := range g.Position {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("position %v not finite", g.Position)
			}
		}
		if d := math.Hypot(g.Position.X(), g.Position.Z()); math.Abs(d-glyph.DefaultRadius) > eps {
			t.Errorf("distance = %v, want default radius %v", d, glyph.DefaultRadius)
		}
	}
}
