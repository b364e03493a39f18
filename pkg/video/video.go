package video

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/overlay3d/pkg/errors"
)

// EncoderProfile holds the output encoding settings for composed videos.
type EncoderProfile struct {
	Codec        string
	Preset       string
	Tune         string
	Profile      string
	Level        string
	CRF          int
	PixFmt       string
	AudioCodec   string
	AudioBitrate string
	AudioRate    int
	Channels     int
	FrameRate    int
}

// DefaultProfile favors fast encoding and small files for mobile playback.
func DefaultProfile() EncoderProfile {
	return EncoderProfile{
		Codec:        "libx264",
		Preset:       "veryfast",
		Tune:         "fastdecode",
		Profile:      "baseline",
		Level:        "3.1",
		CRF:          50,
		PixFmt:       "yuv420p",
		AudioCodec:   "aac",
		AudioBitrate: "128k",
		AudioRate:    44100,
		Channels:     2,
		FrameRate:    20,
	}
}

// Config locates the tools and sets the encoder profile.
type Config struct {
	FFmpegPath  string
	FFprobePath string
	Profile     EncoderProfile
}

// Service runs ffmpeg and ffprobe.
type Service struct {
	cfg    Config
	logger *log.Logger
}

// New returns a Service. Empty tool paths resolve through $PATH and zero
// profile fields take their defaults.
func New(cfg Config, logger *log.Logger) *Service {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	cfg.Profile = cfg.Profile.withDefaults()
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Service{cfg: cfg, logger: logger}
}

// Profile returns the effective encoder profile.
func (s *Service) Profile() EncoderProfile { return s.cfg.Profile }

// Available reports whether both executables can be found.
func (s *Service) Available() bool {
	if _, err := exec.LookPath(s.cfg.FFmpegPath); err != nil {
		return false
	}
	_, err := exec.LookPath(s.cfg.FFprobePath)
	return err == nil
}

func (p EncoderProfile) withDefaults() EncoderProfile {
	d := DefaultProfile()
	setStr := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if *dst <= 0 {
			*dst = v
		}
	}
	setStr(&p.Codec, d.Codec)
	setStr(&p.Preset, d.Preset)
	setStr(&p.Tune, d.Tune)
	setStr(&p.Profile, d.Profile)
	setStr(&p.Level, d.Level)
	setInt(&p.CRF, d.CRF)
	setStr(&p.PixFmt, d.PixFmt)
	setStr(&p.AudioCodec, d.AudioCodec)
	setStr(&p.AudioBitrate, d.AudioBitrate)
	setInt(&p.AudioRate, d.AudioRate)
	setInt(&p.Channels, d.Channels)
	setInt(&p.FrameRate, d.FrameRate)
	return p
}

// run executes a tool and returns its standard output.
func (s *Service) run(ctx context.Context, code errors.Code, tool string, args []string, stdin io.Reader) ([]byte, error) {
	s.logger.Debug("exec", "tool", tool, "args", args)
	cmd := exec.CommandContext(ctx, tool, args...)
	var stdout bytes.Buffer
	stderr := newTail(stderrTail)
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return nil, toolError(ctx, code, tool, args, stderr.String(), err)
	}
	return stdout.Bytes(), nil
}

func toolError(ctx context.Context, code errors.Code, tool string, args []string, stderr string, err error) error {
	if ctx.Err() != nil {
		err = ctx.Err()
	}
	return errors.Wrap(code, &errors.ToolError{Tool: tool, Args: args, Stderr: stderr, Err: err}, "%s failed", tool)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
