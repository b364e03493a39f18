// Package api serves the overlay3d HTTP API.
//
// Clients upload a source video, request previews or server-side overlays
// for a set of text parameters, and ask for the overlay to be burned into the
// video. Finished files are served from /outputs. Every error response is
// JSON of the form {"error": message, "code": CODE}.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/overlay3d/pkg/buildinfo"
	"github.com/matzehuels/overlay3d/pkg/pipeline"
	"github.com/matzehuels/overlay3d/pkg/stats"
	"github.com/matzehuels/overlay3d/pkg/storage"
)

// Config configures the server.
type Config struct {
	Addr string
	// AllowedOrigins lists CORS origins; "*" or empty allows all.
	AllowedOrigins []string
	// RenderDuration trims composed videos when a request gives no duration.
	RenderDuration float64
	// PublicDir holds bundled sample videos that may be rendered by name.
	PublicDir string
	// Preview and overlay defaults.
	Width, Height, FPS int
	SpinPeriod         float64
}

// Server routes requests to the pipeline, storage and stats.
type Server struct {
	cfg     Config
	runner  *pipeline.Runner
	storage *storage.Layout
	stats   stats.Store
	logger  *log.Logger
	router  chi.Router
}

// New creates a server. A nil stats store disables stats recording.
func New(cfg Config, runner *pipeline.Runner, layout *storage.Layout, st stats.Store, logger *log.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":3001"
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		cfg:     cfg,
		runner:  runner,
		storage: layout,
		stats:   st,
		logger:  logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload-video", s.handleUploadVideo)
		r.Post("/upload-overlay", s.handleUploadOverlay)
		r.Get("/probe/{file}", s.handleProbe)
		r.Post("/render", s.handleRender)
		r.Post("/preview", s.handlePreview)
		r.Post("/overlay", s.handleOverlay)

		r.Route("/stats", func(r chi.Router) {
			r.Get("/", s.handleStats)
			r.Get("/test", s.handleStatsTest)
			r.Get("/debug", s.handleStatsDebug)
			r.Post("/video", s.handleStatsRecord(stats.KindVideo))
			r.Post("/download", s.handleStatsRecord(stats.KindDownload))
			r.Get("/download", s.handleStatsDownload)
		})
	})

	outputs := http.FileServer(http.Dir(s.storage.Dir(storage.DirOutputs)))
	r.Handle("/outputs/*", http.StripPrefix("/outputs/", outputs))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.storage.Root))))
	if s.cfg.PublicDir != "" {
		r.Handle("/public/*", http.StripPrefix("/public/", http.FileServer(http.Dir(s.cfg.PublicDir))))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, s.logger, errNotFound(r.URL.Path))
	})
	return r
}

// ListenAndServe serves until ctx is canceled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"ip", r.RemoteAddr,
			"id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Server", buildinfo.UserAgent())
		h.Set("Access-Control-Allow-Origin", s.allowOrigin(r.Header.Get("Origin")))
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Add("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowOrigin(origin string) string {
	if len(s.cfg.AllowedOrigins) == 0 {
		return "*"
	}
	for _, o := range s.cfg.AllowedOrigins {
		if o == "*" {
			return "*"
		}
		if o == origin {
			return origin
		}
	}
	return s.cfg.AllowedOrigins[0]
}
