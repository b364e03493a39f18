package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/overlay3d/pkg/errors"
	"github.com/matzehuels/overlay3d/pkg/observability"
)

// RenderOptions selects the inputs and output of a composition.
type RenderOptions struct {
	VideoPath   string
	OverlayPath string
	OutputPath  string
	// Duration trims the output in seconds. Zero keeps the full video.
	Duration float64
}

// RenderWithOverlay draws the overlay video on top of the source video at the
// origin and encodes the result with the service profile. Audio is copied
// through when present.
func (s *Service) RenderWithOverlay(ctx context.Context, opts RenderOptions) error {
	video, err := filepath.Abs(opts.VideoPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "video path")
	}
	overlay, err := filepath.Abs(opts.OverlayPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "overlay path")
	}
	out, err := filepath.Abs(opts.OutputPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "output path")
	}
	if _, err := os.Stat(video); err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "video file not found: %s", filepath.Base(video))
	}
	if _, err := os.Stat(overlay); err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "overlay file not found: %s", filepath.Base(overlay))
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	args := BuildOverlayArgs(video, overlay, out, opts.Duration, s.cfg.Profile)
	s.logger.Info("rendering video", "video", filepath.Base(video), "overlay", filepath.Base(overlay), "output", filepath.Base(out))

	start := time.Now()
	observability.Encode().OnEncodeStart(ctx, "compose")
	_, err = s.run(ctx, errors.ErrCodeEncoder, s.cfg.FFmpegPath, args, nil)
	observability.Encode().OnEncodeComplete(ctx, "compose", time.Since(start), err)
	return err
}

// BuildOverlayArgs returns the ffmpeg arguments for RenderWithOverlay.
// WebM overlays are decoded with libvpx: the native VP9 decoder drops the
// alpha plane and the overlay would cover the whole source.
func BuildOverlayArgs(video, overlay, out string, duration float64, p EncoderProfile) []string {
	args := []string{"-y", "-i", video}
	if strings.EqualFold(filepath.Ext(overlay), ".webm") {
		args = append(args, "-c:v", overlayCodec)
	}
	args = append(args,
		"-i", overlay,
		"-filter_complex", "[0:v][1:v]overlay=0:0:format=auto[v]",
		"-map", "[v]",
		"-map", "0:a?",
		"-c:v", p.Codec,
		"-preset", p.Preset,
		"-tune", p.Tune,
		"-profile:v", p.Profile,
		"-level", p.Level,
		"-crf", strconv.Itoa(p.CRF),
		"-pix_fmt", p.PixFmt,
		"-c:a", p.AudioCodec,
		"-b:a", p.AudioBitrate,
		"-ar", strconv.Itoa(p.AudioRate),
		"-ac", strconv.Itoa(p.Channels),
		"-r", strconv.Itoa(p.FrameRate),
		"-movflags", "+faststart",
	)
	if duration > 0 {
		args = append(args, "-t", ftoa(duration))
	}
	return append(args, out)
}
