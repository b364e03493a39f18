package api

import (
	"cmp"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/overlay3d/pkg/buildinfo"
	"github.com/matzehuels/overlay3d/pkg/errors"
	"github.com/matzehuels/overlay3d/pkg/glyph"
	"github.com/matzehuels/overlay3d/pkg/occlusion"
	"github.com/matzehuels/overlay3d/pkg/pipeline"
	"github.com/matzehuels/overlay3d/pkg/stats"
	"github.com/matzehuels/overlay3d/pkg/storage"
)

// Summary list lengths returned by GET /api/stats.
const (
	statsTopNames = 10
	statsRecent   = 20
)

// multipartMemory is the in-memory part of multipart parsing; larger uploads
// spill to temporary files.
const multipartMemory = 32 << 20

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "overlay3d API",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"message":   "overlay3d API - health check",
		"version":   buildinfo.Version,
		"ffmpeg":    s.runner.Video.Available(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"endpoints": map[string]string{
			"stats":         "/api/stats",
			"statsTest":     "/api/stats/test",
			"statsDownload": "/api/stats/download",
		},
	})
}

type uploadResponse struct {
	File string `json:"file"`
	Path string `json:"path"`
}

func (s *Server) handleUploadVideo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.storage.MaxVideoBytes+multipartMemory)
	file, hdr, err := r.FormFile("video")
	if err != nil {
		writeError(w, s.logger, uploadError(err, "video"))
		return
	}
	defer file.Close()

	saved, err := s.storage.SaveVideo(file, hdr.Filename, hdr.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.logger.Info("video uploaded", "file", saved.File, "bytes", saved.Size)
	writeJSON(w, http.StatusOK, uploadResponse{File: saved.File, Path: "uploads/" + storage.DirVideos + "/" + saved.File})
}

func (s *Server) handleUploadOverlay(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.storage.MaxOverlayBytes+multipartMemory)
	file, _, err := r.FormFile("overlay")
	if err != nil {
		writeError(w, s.logger, uploadError(err, "overlay"))
		return
	}
	defer file.Close()

	saved, err := s.storage.SaveOverlay(file)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.logger.Info("overlay uploaded", "file", saved.File, "bytes", saved.Size)
	writeJSON(w, http.StatusOK, uploadResponse{File: saved.File, Path: "uploads/" + storage.DirOverlays + "/" + saved.File})
}

func uploadError(err error, field string) error {
	var maxErr *http.MaxBytesError
	if stderrors.As(err, &maxErr) {
		return errors.Wrap(errors.ErrCodeFileTooLarge, err, "%s file too large", field)
	}
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "no %s file in request", field)
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	path, err := s.videoPath(file)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	meta, err := s.runner.Probe(r.Context(), path)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

type renderRequest struct {
	VideoFile   string   `json:"videoFile"`
	OverlayFile string   `json:"overlayFile"`
	OutputName  string   `json:"outputName"`
	Name        string   `json:"name"`
	Duration    *float64 `json:"duration"`
}

type renderResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if req.VideoFile == "" || req.OverlayFile == "" {
		writeError(w, s.logger, errors.New(errors.ErrCodeInvalidInput, "videoFile and overlayFile are required"))
		return
	}
	name, err := errors.ValidateName(req.Name)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	videoPath, err := s.videoPath(req.VideoFile)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	overlayPath := s.storage.Overlay(req.OverlayFile)
	if !storage.Exists(overlayPath) {
		writeError(w, s.logger, errors.New(errors.ErrCodeFileNotFound, "overlay file not found: %s", filepath.Base(req.OverlayFile)))
		return
	}
	outName := s.storage.OutputName(req.OutputName)
	duration := s.cfg.RenderDuration
	if req.Duration != nil {
		duration = max(*req.Duration, 0)
	}

	res, err := s.runner.Compose(r.Context(), pipeline.Options{
		VideoPath:   videoPath,
		OverlayPath: overlayPath,
		OutputPath:  s.storage.Output(outName),
		Duration:    duration,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	stats.Record(r.Context(), s.stats, s.logger, stats.KindVideo, clientIP(r), name)
	writeJSON(w, http.StatusOK, renderResponse{
		Success: true,
		URL:     "/outputs/" + outName,
		Path:    res.OutputPath,
		Message: "video rendered",
	})
}

// sceneRequest is the body of preview and overlay requests: text parameters
// plus frame settings.
type sceneRequest struct {
	glyph.Params
	Occlusion  *occlusion.Params `json:"occlusion,omitempty"`
	Width      int               `json:"width,omitempty"`
	Height     int               `json:"height,omitempty"`
	VideoFile  string            `json:"videoFile,omitempty"`
	Time       float64           `json:"time,omitempty"`
	Duration   float64           `json:"duration,omitempty"`
	FPS        int               `json:"fps,omitempty"`
	SpinPeriod float64           `json:"spinPeriod,omitempty"`
	Static     bool              `json:"static,omitempty"`
}

func (s *Server) sceneOptions(req sceneRequest) (pipeline.Options, error) {
	opts := pipeline.Options{
		Params:     req.Params,
		Occlusion:  req.Occlusion,
		Width:      cmp.Or(req.Width, s.cfg.Width),
		Height:     cmp.Or(req.Height, s.cfg.Height),
		Time:       req.Time,
		Duration:   req.Duration,
		FPS:        cmp.Or(req.FPS, s.cfg.FPS),
		SpinPeriod: req.SpinPeriod,
		Static:     req.Static,
		Logger:     s.logger,
	}
	if opts.SpinPeriod == 0 {
		opts.SpinPeriod = s.cfg.SpinPeriod
	}
	if req.VideoFile != "" {
		path, err := s.videoPath(req.VideoFile)
		if err != nil {
			return opts, err
		}
		opts.VideoPath = path
	}
	return opts, opts.ValidateAndSetDefaults()
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req sceneRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	opts, err := s.sceneOptions(req)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	res, err := s.runner.Preview(r.Context(), opts)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(res.PNG)))
	w.Header().Set("X-Cache", map[bool]string{true: "HIT", false: "MISS"}[res.CacheInfo.PreviewHit])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.PNG)
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	var req sceneRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	opts, err := s.sceneOptions(req)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	file, path := s.storage.NewOverlayPath()
	opts.OverlayPath = path
	if _, err := s.runner.Overlay(r.Context(), opts); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{File: file, Path: "uploads/" + storage.DirOverlays + "/" + file})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.snapshot(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats.Summarize(st, statsTopNames, statsRecent))
}

func (s *Server) handleStatsTest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "stats API is running"})
}

func (s *Server) handleStatsDebug(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"message":   "stats debug endpoint",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"backend":   fmt.Sprintf("%T", s.stats),
	}
	if fs, ok := s.stats.(*stats.FileStore); ok {
		_, err := os.Stat(fs.Path())
		resp["file"] = fs.Path()
		resp["fileExists"] = err == nil
	}
	writeJSON(w, http.StatusOK, resp)
}

type statsRecordRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleStatsRecord(kind stats.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statsRecordRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, s.logger, err)
				return
			}
		}
		name, err := errors.ValidateName(req.Name)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		stats.Record(r.Context(), s.stats, s.logger, kind, clientIP(r), name)
		writeJSON(w, http.StatusOK, map[string]string{"message": "recorded " + strings.ToLower(kind.Action())})
	}
}

func (s *Server) handleStatsDownload(w http.ResponseWriter, r *http.Request) {
	st, err := s.snapshot(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="stats.json"`)
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) snapshot(r *http.Request) (stats.Stats, error) {
	if s.stats == nil {
		return stats.Empty(), nil
	}
	st, err := s.stats.Snapshot(r.Context())
	if err != nil {
		return stats.Stats{}, errors.Wrap(errors.ErrCodeUnavailable, err, "stats unavailable")
	}
	return st, nil
}

// videoPath resolves an uploaded video, falling back to the public samples.
func (s *Server) videoPath(file string) (string, error) {
	base := filepath.Base(file)
	if err := errors.ValidateFilename(base); err != nil {
		return "", err
	}
	path := s.storage.Video(base)
	if storage.Exists(path) {
		return path, nil
	}
	if s.cfg.PublicDir != "" {
		if p := filepath.Join(s.cfg.PublicDir, base); storage.Exists(p) {
			return p, nil
		}
	}
	return "", errors.New(errors.ErrCodeFileNotFound, "video file not found: %s", base)
}

// clientIP returns the address set by middleware.RealIP without its port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
