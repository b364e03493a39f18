// Package storage manages uploaded videos, encoded overlays and rendered
// outputs below a single root directory.
package storage

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/matzehuels/overlay3d/pkg/errors"
)

// Directory names below the root.
const (
	DirVideos   = "videos"
	DirOverlays = "overlays"
	DirOutputs  = "outputs"
)

// Upload size limits.
const (
	MaxVideoBytes   = 80 << 20
	MaxOverlayBytes = 200 << 20
)

// sniffLen is how much of an upload is inspected to detect its type.
const sniffLen = 512

var videoMIME = regexp.MustCompile(`^video/(mp4|quicktime|webm|x-matroska)$`)

// Layout resolves files inside the storage root.
type Layout struct {
	Root            string
	MaxVideoBytes   int64
	MaxOverlayBytes int64

	now func() time.Time
}

// New creates the directory tree under root.
func New(root string) (*Layout, error) {
	l := &Layout{
		Root:            root,
		MaxVideoBytes:   MaxVideoBytes,
		MaxOverlayBytes: MaxOverlayBytes,
		now:             time.Now,
	}
	for _, dir := range []string{DirVideos, DirOverlays, DirOutputs} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return nil, fmt.Errorf("create %s dir: %w", dir, err)
		}
	}
	return l, nil
}

// Video returns the path of an uploaded video. Only the base name of file is used.
func (l *Layout) Video(file string) string { return l.join(DirVideos, file) }

// Overlay returns the path of an uploaded overlay.
func (l *Layout) Overlay(file string) string { return l.join(DirOverlays, file) }

// Output returns the path of a rendered output.
func (l *Layout) Output(file string) string { return l.join(DirOutputs, file) }

func (l *Layout) join(dir, file string) string {
	return filepath.Join(l.Root, dir, filepath.Base(filepath.Clean("/"+file)))
}

// Dir returns the absolute-or-relative directory for one of the Dir* names.
func (l *Layout) Dir(name string) string { return filepath.Join(l.Root, name) }

// Saved describes a stored upload.
type Saved struct {
	File string `json:"file"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// IsVideoType reports whether a MIME type is an accepted video container.
func IsVideoType(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil && err != mime.ErrInvalidMediaParameter {
		return false
	}
	return videoMIME.MatchString(mt)
}

// SaveVideo validates and stores an uploaded video under a random name.
// declared is the client-supplied content type; the leading bytes of r must
// also sniff as an accepted container.
func (l *Layout) SaveVideo(r io.Reader, filename, declared string) (Saved, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return Saved{}, errors.New(errors.ErrCodeInvalidInput, "video file is empty")
		}
		return Saved{}, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	sniffed := ""
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		sniffed = kind.MIME.Value
	}
	if !IsVideoType(sniffed) || (declared != "" && !IsVideoType(declared) && declared != "application/octet-stream") {
		return Saved{}, errors.New(errors.ErrCodeInvalidVideoType, "only video files are accepted")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".mp4"
	}
	name := uuid.NewString() + ext
	return l.write(l.Video(name), name, io.MultiReader(strings.NewReader(string(head)), r), l.MaxVideoBytes)
}

// SaveOverlay stores an uploaded overlay WebM.
func (l *Layout) SaveOverlay(r io.Reader) (Saved, error) {
	name := "overlay_" + strconv.FormatInt(l.now().UnixMilli(), 10) + ".webm"
	return l.write(l.Overlay(name), name, r, l.MaxOverlayBytes)
}

// NewOverlayPath reserves a name for a server-side encoded overlay.
func (l *Layout) NewOverlayPath() (file, path string) {
	file = "overlay_" + strconv.FormatInt(l.now().UnixMilli(), 10) + "_" + uuid.NewString()[:8] + ".webm"
	return file, l.Overlay(file)
}

// OutputName returns a safe output file name. An empty or invalid name gets a
// timestamped default.
func (l *Layout) OutputName(name string) string {
	base := filepath.Base(filepath.Clean("/" + name))
	if name == "" || errors.ValidateFilename(base) != nil || base == "/" {
		return "result_" + strconv.FormatInt(l.now().UnixMilli(), 10) + ".mp4"
	}
	if filepath.Ext(base) == "" {
		base += ".mp4"
	}
	return base
}

// Exists reports whether path is a regular file.
func Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func (l *Layout) write(path, name string, r io.Reader, limit int64) (Saved, error) {
	f, err := os.Create(path)
	if err != nil {
		return Saved{}, fmt.Errorf("create %s: %w", name, err)
	}
	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > limit {
		err = errors.New(errors.ErrCodeFileTooLarge, "file exceeds %d MB", limit>>20)
	}
	if err != nil {
		os.Remove(path)
		return Saved{}, err
	}
	return Saved{File: name, Path: path, Size: n}, nil
}
