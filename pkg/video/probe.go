package video

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/overlay3d/pkg/errors"
)

// Meta describes a probed video.
type Meta struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Duration float64 `json:"duration"`
	FPS      float64 `json:"fps"`
	Codec    string  `json:"codec,omitempty"`
	HasAudio bool    `json:"hasAudio"`
}

// Probe reads the dimensions, duration and frame rate of the video at path.
func (s *Service) Probe(ctx context.Context, path string) (Meta, error) {
	if _, err := os.Stat(path); err != nil {
		return Meta{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "video not found: %s", path)
	}
	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	out, err := s.run(ctx, errors.ErrCodeProbe, s.cfg.FFprobePath, args, nil)
	if err != nil {
		return Meta{}, err
	}
	meta, err := parseProbe(out)
	if err != nil {
		return Meta{}, errors.Wrap(errors.ErrCodeProbe, err, "parse ffprobe output for %s", path)
	}
	return meta, nil
}

type probeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func parseProbe(data []byte) (Meta, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Meta{}, err
	}

	var meta Meta
	found := false
	for _, st := range out.Streams {
		switch st.CodecType {
		case "video":
			if found {
				continue
			}
			found = true
			meta.Width, meta.Height = st.Width, st.Height
			meta.Codec = st.CodecName
			meta.FPS = parseRate(st.RFrameRate)
			if meta.FPS == 0 {
				meta.FPS = parseRate(st.AvgFrameRate)
			}
			meta.Duration, _ = strconv.ParseFloat(st.Duration, 64)
		case "audio":
			meta.HasAudio = true
		}
	}
	if !found {
		return Meta{}, errors.New(errors.ErrCodeInvalidVideoType, "no video stream")
	}
	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil && d > 0 {
		meta.Duration = d
	}
	return meta, nil
}

// parseRate parses ffprobe rates such as "30000/1001" or "25".
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
