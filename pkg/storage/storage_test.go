package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/overlay3d/pkg/errors"
)

// mp4Header is the start of an ISO base media file.
var mp4Header = append([]byte("\x00\x00\x00\x20ftypisom\x00\x00\x02\x00isomiso2avc1mp41"), make([]byte, 64)...)

func newLayout(t *testing.T) *Layout {
	t.Helper()
	l, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	l.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return l
}

func TestNewCreatesDirs(t *testing.T) {
	l := newLayout(t)
	for _, d := range []string{DirVideos, DirOverlays, DirOutputs} {
		if fi, err := os.Stat(l.Dir(d)); err != nil || !fi.IsDir() {
			t.Errorf("%s not created: %v", d, err)
		}
	}
}

func TestPathsStripTraversal(t *testing.T) {
	l := newLayout(t)
	tests := []struct {
		in   string
		want string
	}{
		{"clip.mp4", "clip.mp4"},
		{"../../etc/passwd", "passwd"},
		{"a/b/c.webm", "c.webm"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := l.Video(tt.in)
			if got != filepath.Join(l.Root, DirVideos, tt.want) {
				t.Errorf("Video(%q) = %q", tt.in, got)
			}
		})
	}
}

func TestIsVideoType(t *testing.T) {
	tests := map[string]bool{
		"video/mp4":              true,
		"video/quicktime":        true,
		"video/webm":             true,
		"video/x-matroska":       true,
		"video/mp4; codecs=avc1": true,
		"video/avi":              false,
		"image/png":              false,
		"":                       false,
	}
	for in, want := range tests {
		if got := IsVideoType(in); got != want {
			t.Errorf("IsVideoType(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSaveVideo(t *testing.T) {
	l := newLayout(t)
	saved, err := l.SaveVideo(bytes.NewReader(mp4Header), "My Clip.MOV", "video/quicktime")
	if err != nil {
		t.Fatalf("SaveVideo: %v", err)
	}
	if !strings.HasSuffix(saved.File, ".mov") || len(saved.File) != 36+4 {
		t.Errorf("File = %q, want <uuid>.mov", saved.File)
	}
	data, err := os.ReadFile(saved.Path)
	if err != nil || !bytes.Equal(data, mp4Header) {
		t.Errorf("stored bytes differ: %v", err)
	}

	saved, err = l.SaveVideo(bytes.NewReader(mp4Header), "noext", "")
	if err != nil || filepath.Ext(saved.File) != ".mp4" {
		t.Errorf("default ext: %q, %v", saved.File, err)
	}
}

func TestSaveVideoRejects(t *testing.T) {
	l := newLayout(t)
	tests := []struct {
		name     string
		data     []byte
		declared string
		code     errors.Code
	}{
		{"empty", nil, "video/mp4", errors.ErrCodeInvalidInput},
		{"text body", []byte("hello world, definitely not a video"), "video/mp4", errors.ErrCodeInvalidVideoType},
		{"declared image", mp4Header, "image/png", errors.ErrCodeInvalidVideoType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.SaveVideo(bytes.NewReader(tt.data), "x.mp4", tt.declared)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestSizeLimit(t *testing.T) {
	l := newLayout(t)
	l.MaxVideoBytes = int64(len(mp4Header)) - 1
	_, err := l.SaveVideo(bytes.NewReader(mp4Header), "x.mp4", "")
	if !errors.Is(err, errors.ErrCodeFileTooLarge) {
		t.Fatalf("err = %v", err)
	}
	entries, _ := os.ReadDir(l.Dir(DirVideos))
	if len(entries) != 0 {
		t.Errorf("oversized upload left %d files", len(entries))
	}
}

func TestSaveOverlay(t *testing.T) {
	l := newLayout(t)
	saved, err := l.SaveOverlay(strings.NewReader("webm"))
	if err != nil {
		t.Fatal(err)
	}
	if saved.File != "overlay_1700000000000.webm" || saved.Size != 4 {
		t.Errorf("saved = %+v", saved)
	}
	if !Exists(l.Overlay(saved.File)) {
		t.Error("overlay not stored")
	}
}

func TestOutputName(t *testing.T) {
	l := newLayout(t)
	tests := map[string]string{
		"":            "result_1700000000000.mp4",
		"final":       "final.mp4",
		"final.mp4":   "final.mp4",
		"../x.mp4":    "x.mp4",
		".hidden.mp4": "result_1700000000000.mp4",
	}
	for in, want := range tests {
		if got := l.OutputName(in); got != want {
			t.Errorf("OutputName(%q) = %q, want %q", in, got, want)
		}
	}
}
