package video

import (
	"bytes"
	"context"
	"image"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/overlay3d/pkg/composite"
	"github.com/matzehuels/overlay3d/pkg/errors"
)

// ExtractFrame decodes the frame shown at t seconds.
func (s *Service) ExtractFrame(ctx context.Context, path string, t float64) (image.Image, error) {
	out, err := s.run(ctx, errors.ErrCodeEncoder, s.cfg.FFmpegPath, BuildFrameArgs(path, t), nil)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncoder, err, "decode frame at %ss", ftoa(t))
	}
	return img, nil
}

// BuildFrameArgs returns the ffmpeg arguments that write one PNG frame to stdout.
func BuildFrameArgs(path string, t float64) []string {
	return []string{
		"-v", "error",
		"-ss", ftoa(max(t, 0)),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
}

// FrameSource is a composite.VideoSource over a video file. It has no data
// until the first successful Seek.
type FrameSource struct {
	svc  *Service
	path string

	mu    sync.RWMutex
	frame image.Image
	at    float64
}

// NewFrameSource returns an unloaded source for path.
func (s *Service) NewFrameSource(path string) *FrameSource {
	return &FrameSource{svc: s, path: path}
}

// Seek decodes the frame at t seconds. On failure the previous frame is kept.
func (f *FrameSource) Seek(ctx context.Context, t float64) error {
	img, err := f.svc.ExtractFrame(ctx, f.path, t)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.frame, f.at = img, t
	f.mu.Unlock()
	return nil
}

// ReadyState implements composite.VideoSource.
func (f *FrameSource) ReadyState() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.frame == nil {
		return composite.HaveNothing
	}
	return composite.HaveEnoughData
}

// Frame implements composite.VideoSource.
func (f *FrameSource) Frame() image.Image {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.frame
}

// Time returns the position of the current frame in seconds.
func (f *FrameSource) Time() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.at
}

var _ composite.VideoSource = (*FrameSource)(nil)
