package scene

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/overlay3d/pkg/composite"
	"github.com/matzehuels/overlay3d/pkg/geom"
)

func TestNodeHierarchy(t *testing.T) {
	a, b, c := NewGroup("a"), NewGroup("b"), NewGroup("c")
	a.Add(b)
	b.Add(c)

	if c.Parent() != b || len(a.Children()) != 1 {
		t.Fatal("unexpected hierarchy")
	}

	// Re-parenting detaches from the old parent.
	a.Add(c)
	if c.Parent() != a || len(b.Children()) != 0 || len(a.Children()) != 2 {
		t.Error("Add should move the node")
	}

	c.Dispose()
	if c.Parent() != nil || len(a.Children()) != 1 || !c.Disposed() {
		t.Error("Dispose should detach the node")
	}
}

func TestWorldPosition(t *testing.T) {
	group := NewGroup("group")
	group.Position = geom.Vec3{1, 0, 0}
	group.SetEuler(0, math.Pi/2, 0)
	child := NewGroup("child")
	child.Position = geom.Vec3{2, 0, 0}
	group.Add(child)

	want := geom.Vec3{1, 0, -2}
	if got := child.WorldPosition(); !geom.ApproxVec(got, want, 1e-9) {
		t.Errorf("WorldPosition() = %v, want %v", got, want)
	}

	group.UpdateWorld()
	if got := geom.MatrixPosition(child.WorldMatrix()); !geom.ApproxVec(got, want, 1e-9) {
		t.Errorf("WorldMatrix position = %v, want %v", got, want)
	}
}

func TestEffectivelyVisible(t *testing.T) {
	a, b := NewGroup("a"), NewGroup("b")
	a.Add(b)
	a.Visible = false
	if b.EffectivelyVisible() {
		t.Error("child of hidden group reported visible")
	}
}

func TestCameraDefaults(t *testing.T) {
	c := NewCamera(2)
	if c.FOV != 35 || c.Near != 0.1 || c.Far != 100 || c.Position.Z() != 10 {
		t.Errorf("camera = %+v", c)
	}
	if NewCamera(0).Aspect != 1 {
		t.Error("invalid aspect should default to 1")
	}
}

func TestViewSizeAtZ(t *testing.T) {
	c := NewCamera(16.0 / 9.0)

	tests := []struct {
		z    float64
		dist float64
	}{
		{0, 10},
		{5, 5},
		{10, 0.001},
		{20, 0.001},
	}
	for _, tt := range tests {
		w, h := c.ViewSizeAtZ(tt.z)
		wantH := 2 * math.Tan(35*math.Pi/360) * tt.dist
		if math.Abs(h-wantH) > 1e-12 || math.Abs(w-wantH*16/9) > 1e-12 {
			t.Errorf("ViewSizeAtZ(%v) = %v,%v; want %v,%v", tt.z, w, h, wantH*16/9, wantH)
		}
	}
}

func TestHostLights(t *testing.T) {
	h := New(320, 240)
	var lights []*Node
	h.Scene().Traverse(func(n *Node) bool {
		if n.Light != nil {
			lights = append(lights, n)
		}
		return true
	})
	if len(lights) != 2 {
		t.Fatalf("got %d lights", len(lights))
	}
	for _, l := range lights {
		if l.Light.Intensity != 0.8 {
			t.Errorf("%s intensity = %v", l.Name, l.Light.Intensity)
		}
	}
}

func TestHostResize(t *testing.T) {
	h := New(200, 100, WithDevicePixelRatio(3))
	h.Resize(100, 100)
	if h.Camera().Aspect != 1 {
		t.Errorf("aspect = %v", h.Camera().Aspect)
	}
	if w, hh := h.ExportSize(); w != 200 || hh != 100 {
		t.Errorf("export size changed to %dx%d", w, hh)
	}
	img := h.RenderFrame()
	if b := img.Bounds(); b.Dx() != 150 || b.Dy() != 150 {
		t.Errorf("interactive buffer = %v, want 150x150 at clamped ratio", b)
	}

	h.Resize(0, 10)
	if h.Camera().Aspect != 1 {
		t.Error("non-positive resize should be ignored")
	}
}

func TestHostRenderText(t *testing.T) {
	surface := image.NewRGBA(image.Rect(0, 0, 160, 120))
	h := New(0, 0, WithSurface(surface))
	h.Root().Add(NewText("hello", Text{Content: "Hi", Size: 1, Color: color.NRGBA{R: 255, A: 255}}))

	h.RenderFrame()
	if !hasCoverage(surface) {
		t.Error("surface has no coverage after RenderFrame")
	}

	overlay := h.RenderOverlay()
	if !hasCoverage(overlay) {
		t.Error("export render has no coverage")
	}
}

func TestHostItemsSkipHidden(t *testing.T) {
	h := New(64, 64)
	group := NewGroup("g")
	group.Add(NewText("t", Text{Content: "x", Size: 1}))
	h.Root().Add(group)

	if n := len(h.Items()); n != 1 {
		t.Fatalf("items = %d", n)
	}
	group.Visible = false
	if n := len(h.Items()); n != 0 {
		t.Errorf("hidden group still yields %d items", n)
	}
}

func TestHostCaptureAndAttach(t *testing.T) {
	h := New(32, 32)
	if h.AttachVideo(nil) {
		t.Error("AttachVideo(nil) should fail")
	}

	frame := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for i := range frame.Pix {
		frame.Pix[i] = 255
	}
	if !h.AttachVideo(&composite.Still{Image: frame}) {
		t.Fatal("AttachVideo should accept a source")
	}
	out := h.CaptureVideoFrame()
	if out.RGBAAt(16, 16).A != 255 {
		t.Error("composite frame missing video")
	}
}

func TestHostRun(t *testing.T) {
	h := New(16, 16)
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	ticks := 0
	err := h.Run(ctx, 100, func(time.Duration) { ticks++ })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() = %v", err)
	}
	if ticks == 0 {
		t.Error("tick never called")
	}
}

func TestToDOT(t *testing.T) {
	root := NewGroup("root")
	text := NewText("glyph-0", Text{Content: "A", Size: 1})
	text.Visible = false
	root.Add(text)

	dot := ToDOT(root)
	for _, want := range []string{"digraph scene", "n0 -> n1", "glyph-0 (text)", "dashed"} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func hasCoverage(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				return true
			}
		}
	}
	return false
}
