package video

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/overlay3d/pkg/errors"
	"github.com/matzehuels/overlay3d/pkg/observability"
)

// EncodeOverlay pipes frames into ffmpeg as PNGs and writes a transparent VP9
// WebM to out. It returns once frames is closed and the encoder has exited,
// reporting the number of frames written. On failure out is removed.
func (s *Service) EncodeOverlay(ctx context.Context, frames <-chan image.Image, fps int, out string) (int, error) {
	if fps <= 0 {
		fps = s.cfg.Profile.FrameRate
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	args := BuildEncodeArgs(fps, out)
	s.logger.Debug("exec", "tool", s.cfg.FFmpegPath, "args", args)
	cmd := exec.CommandContext(ctx, s.cfg.FFmpegPath, args...)
	stderr := newTail(stderrTail)
	cmd.Stderr = stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return 0, err
	}

	start := time.Now()
	observability.Encode().OnEncodeStart(ctx, "overlay")
	if err := cmd.Start(); err != nil {
		err = toolError(ctx, errors.ErrCodeEncoder, s.cfg.FFmpegPath, args, "", err)
		observability.Encode().OnEncodeComplete(ctx, "overlay", time.Since(start), err)
		return 0, err
	}

	var n int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stdin.Close()
		w := bufio.NewWriterSize(stdin, 1<<20)
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case img, ok := <-frames:
				if !ok {
					return w.Flush()
				}
				if err := imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestSpeed)); err != nil {
					return fmt.Errorf("frame %d: %w", n, err)
				}
				n++
			}
		}
	})

	werr := g.Wait()
	err = cmd.Wait()
	if err != nil {
		err = toolError(ctx, errors.ErrCodeEncoder, s.cfg.FFmpegPath, args, stderr.String(), err)
	} else if werr != nil {
		err = errors.Wrap(errors.ErrCodeEncoder, werr, "write overlay frames")
	}
	observability.Encode().OnEncodeComplete(ctx, "overlay", time.Since(start), err)
	if err != nil {
		os.Remove(out)
		return n, err
	}
	s.logger.Debug("overlay encoded", "frames", n, "output", filepath.Base(out), "duration", time.Since(start))
	return n, nil
}

// overlayCodec encodes and decodes overlay clips. It keeps the alpha plane of
// yuva420p VP9 streams.
const overlayCodec = "libvpx-vp9"

// BuildEncodeArgs returns the ffmpeg arguments used by EncodeOverlay.
func BuildEncodeArgs(fps int, out string) []string {
	return []string{
		"-y",
		"-v", "error",
		"-f", "image2pipe",
		"-framerate", strconv.Itoa(fps),
		"-c:v", "png",
		"-i", "-",
		"-c:v", overlayCodec,
		"-pix_fmt", "yuva420p",
		"-auto-alt-ref", "0",
		"-b:v", "0",
		"-crf", "32",
		"-deadline", "realtime",
		"-cpu-used", "8",
		"-an",
		out,
	}
}
