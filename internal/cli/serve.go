package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/overlay3d/pkg/api"
	"github.com/matzehuels/overlay3d/pkg/observability"
	"github.com/matzehuels/overlay3d/pkg/storage"
)

// preloadFamilies are loaded at startup when [fonts] preload is set.
var preloadFamilies = []string{"Arial", "Helvetica", "Times New Roman", "Courier New"}

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API for uploads, previews, overlays, composition and
usage statistics. Settings come from the config file and OVERLAY3D_*
environment variables; --addr overrides the listen address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.config.Server.Addr = addr
			}
			return c.runServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :3001)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context) error {
	cfg := c.config
	logger := loggerFromContext(ctx)
	observability.NewLogHooks(logger).Register()
	defer observability.Reset()

	layout, err := storage.New(cfg.Storage.Root)
	if err != nil {
		return err
	}
	if cfg.Server.MaxVideoMB > 0 {
		layout.MaxVideoBytes = int64(cfg.Server.MaxVideoMB) << 20
	}
	if cfg.Server.MaxOverlayMB > 0 {
		layout.MaxOverlayBytes = int64(cfg.Server.MaxOverlayMB) << 20
	}

	store, err := c.openStats(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	if cfg.Fonts.Preload {
		prog := newProgress(c.Logger)
		if err := runner.Fonts.Preload(ctx, preloadFamilies...); err != nil {
			c.Logger.Warn("font preload incomplete", "error", err)
		}
		prog.done("Preloaded fonts")
	}
	if !runner.Video.Available() {
		c.Logger.Warn("ffmpeg not found; uploads and previews work, rendering will fail")
	}

	srv := api.New(api.Config{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RenderDuration: cfg.Server.RenderDuration,
		PublicDir:      cfg.Storage.PublicDir,
		Width:          cfg.Render.Width,
		Height:         cfg.Render.Height,
		FPS:            cfg.Render.FPS,
		SpinPeriod:     cfg.Render.SpinPeriod,
	}, runner, layout, store, logger)

	c.Logger.Debug("server configured", "storage", layout.Root, "stats", cfg.Stats.Backend)
	return srv.ListenAndServe(ctx)
}
