// Package composite merges a video frame and a transparent 3D render into a
// single capturable image.
package composite

import (
	"image"
	"image/draw"
	"io"

	"github.com/charmbracelet/log"
	xdraw "golang.org/x/image/draw"
)

// Ready states of a video source, in increasing order of availability.
const (
	HaveNothing = iota
	HaveMetadata
	HaveCurrentData
	HaveFutureData
	HaveEnoughData
)

// VideoSource provides the frame currently displayed by a video.
type VideoSource interface {
	// ReadyState reports how much media is available, one of the Have constants.
	ReadyState() int
	// Frame returns the current frame, or nil when none has been decoded.
	Frame() image.Image
}

// OverlayRenderer renders the 3D scene into a transparent image.
type OverlayRenderer interface {
	RenderOverlay() image.Image
}

// Compositor owns the output buffer. Each successful capture recomputes the
// buffer from scratch.
type Compositor struct {
	buf     *image.RGBA
	overlay OverlayRenderer
	logger  *log.Logger
}

// New returns a compositor producing w×h frames.
func New(w, h int, overlay OverlayRenderer, logger *log.Logger) *Compositor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Compositor{
		buf:     image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1))),
		overlay: overlay,
		logger:  logger,
	}
}

// Buffer returns the output buffer.
func (c *Compositor) Buffer() *image.RGBA { return c.buf }

// Capture draws the current video frame scaled to the output size and the
// overlay on top. When src is nil or not ready the buffer is returned unchanged.
func (c *Compositor) Capture(src VideoSource) *image.RGBA {
	if src == nil || src.ReadyState() < HaveMetadata {
		c.logger.Warn("video not ready for capture")
		return c.buf
	}

	b := c.buf.Bounds()
	clear(c.buf.Pix)

	if frame := src.Frame(); frame != nil {
		xdraw.CatmullRom.Scale(c.buf, b, frame, frame.Bounds(), xdraw.Src, nil)
	}
	if c.overlay != nil {
		if ov := c.overlay.RenderOverlay(); ov != nil {
			if ov.Bounds().Size() == b.Size() {
				draw.Draw(c.buf, b, ov, ov.Bounds().Min, draw.Over)
			} else {
				xdraw.CatmullRom.Scale(c.buf, b, ov, ov.Bounds(), xdraw.Over, nil)
			}
		}
	}
	return c.buf
}

// Still is a VideoSource backed by a single image. A nil image is not ready.
type Still struct {
	Image image.Image
}

// ReadyState reports HaveEnoughData once an image is set.
func (s *Still) ReadyState() int {
	if s == nil || s.Image == nil {
		return HaveNothing
	}
	return HaveEnoughData
}

// Frame returns the image.
func (s *Still) Frame() image.Image {
	if s == nil {
		return nil
	}
	return s.Image
}
