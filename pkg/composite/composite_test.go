package composite

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/charmbracelet/log"
)

type overlayFunc func() image.Image

func (f overlayFunc) RenderOverlay() image.Image { return f() }

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// pendingSource becomes ready after a number of polls.
type pendingSource struct {
	polls int
	frame image.Image
}

func (s *pendingSource) ReadyState() int {
	if s.polls > 0 {
		s.polls--
		return HaveNothing
	}
	return HaveEnoughData
}

func (s *pendingSource) Frame() image.Image { return s.frame }

func TestCaptureBeforeAndAfterReady(t *testing.T) {
	var logs bytes.Buffer
	logger := log.New(&logs)

	overlay := image.NewRGBA(image.Rect(0, 0, 8, 8))
	overlay.SetRGBA(4, 4, color.RGBA{R: 255, A: 255})
	c := New(8, 8, overlayFunc(func() image.Image { return overlay }), logger)

	src := &pendingSource{polls: 1, frame: solid(16, 16, color.RGBA{B: 255, A: 255})}

	before := c.Capture(src)
	if before != c.Buffer() {
		t.Fatal("unready capture should return the existing buffer")
	}
	if before.RGBAAt(0, 0).A != 0 {
		t.Error("unready capture modified the buffer")
	}
	if !bytes.Contains(logs.Bytes(), []byte("not ready")) {
		t.Errorf("expected a warning, got %q", logs.String())
	}

	after := c.Capture(src)
	if got := after.RGBAAt(0, 0); got.B != 255 || got.A != 255 {
		t.Errorf("video pixel = %v", got)
	}
	if got := after.RGBAAt(4, 4); got.R != 255 || got.B != 0 {
		t.Errorf("overlay pixel = %v", got)
	}
}

func TestCaptureNilSource(t *testing.T) {
	c := New(4, 4, nil, nil)
	if c.Capture(nil) != c.Buffer() {
		t.Error("nil source should return the buffer")
	}
}

func TestCaptureRecomputes(t *testing.T) {
	frame := solid(4, 4, color.RGBA{G: 255, A: 255})
	c := New(4, 4, nil, nil)
	src := &Still{Image: frame}
	c.Capture(src)

	src.Image = solid(4, 4, color.RGBA{R: 255, A: 255})
	got := c.Capture(src).RGBAAt(2, 2)
	if got.G != 0 || got.R != 255 {
		t.Errorf("stale content after recapture: %v", got)
	}
}

func TestStill(t *testing.T) {
	var s *Still
	if s.ReadyState() != HaveNothing || s.Frame() != nil {
		t.Error("nil Still should not be ready")
	}
	s = &Still{}
	if s.ReadyState() != HaveNothing {
		t.Error("empty Still should not be ready")
	}
}
