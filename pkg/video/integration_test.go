//go:build integration

package video

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func requireTools(t *testing.T, s *Service) {
	t.Helper()
	if !s.Available() {
		t.Skip("ffmpeg/ffprobe not installed")
	}
}

func TestEncodeProbeCompose(t *testing.T) {
	ctx := context.Background()
	s := New(Config{}, nil)
	requireTools(t, s)
	dir := t.TempDir()

	frames := make(chan image.Image)
	go func() {
		defer close(frames)
		for i := range 10 {
			img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
			img.Set(i, i, color.NRGBA{R: 255, A: 255})
			frames <- img
		}
	}()
	overlay := filepath.Join(dir, "overlay.webm")
	n, err := s.EncodeOverlay(ctx, frames, 10, overlay)
	if err != nil {
		t.Fatalf("EncodeOverlay: %v", err)
	}
	if n != 10 {
		t.Errorf("frames = %d", n)
	}

	meta, err := s.Probe(ctx, overlay)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if meta.Width != 64 || meta.Height != 64 {
		t.Errorf("meta = %+v", meta)
	}

	src := s.NewFrameSource(overlay)
	if err := src.Seek(ctx, 0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if src.Frame() == nil {
		t.Fatal("no frame after seek")
	}

	base := filepath.Join(dir, "base.webm")
	if _, err := s.EncodeOverlay(ctx, solidFrames(10, 64, 64, color.NRGBA{B: 255, A: 255}), 10, base); err != nil {
		t.Fatalf("encode base: %v", err)
	}

	out := filepath.Join(dir, "out", "result.mp4")
	if err := s.RenderWithOverlay(ctx, RenderOptions{VideoPath: base, OverlayPath: overlay, OutputPath: out}); err != nil {
		t.Fatalf("RenderWithOverlay: %v", err)
	}
	if fi, err := os.Stat(out); err != nil || fi.Size() == 0 {
		t.Fatalf("output missing: %v", err)
	}

	// Transparent overlay pixels keep the base colour.
	frame, err := s.ExtractFrame(ctx, out, 0)
	if err != nil {
		t.Fatalf("ExtractFrame: %v", err)
	}
	r, g, b, _ := frame.At(48, 16).RGBA()
	if b>>8 < 180 || r>>8 > 80 || g>>8 > 80 {
		t.Errorf("pixel (48,16) = %d,%d,%d; want base blue", r>>8, g>>8, b>>8)
	}
}

func solidFrames(n, w, h int, c color.NRGBA) <-chan image.Image {
	frames := make(chan image.Image)
	go func() {
		defer close(frames)
		for range n {
			img := image.NewNRGBA(image.Rect(0, 0, w, h))
			for y := range h {
				for x := range w {
					img.SetNRGBA(x, y, c)
				}
			}
			frames <- img
		}
	}()
	return frames
}
