// Package video wraps the ffmpeg and ffprobe executables.
//
// A [Service] probes uploaded videos, burns a transparent overlay into a
// video ([Service.RenderWithOverlay]), encodes rendered overlay frames into a
// VP9 WebM with alpha ([Service.EncodeOverlay]) and extracts single frames for
// previews ([Service.ExtractFrame], [FrameSource]).
//
// Every failure of an external tool is returned as an
// [github.com/matzehuels/overlay3d/pkg/errors.Error] with code ENCODER_FAILED or
// PROBE_FAILED whose cause is a [github.com/matzehuels/overlay3d/pkg/errors.ToolError]
// carrying the tail of the tool's standard error. Nothing is retried.
package video
