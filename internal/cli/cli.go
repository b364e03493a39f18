// Package cli implements the overlay3d command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/overlay3d/pkg/buildinfo"
	"github.com/matzehuels/overlay3d/pkg/cache"
	"github.com/matzehuels/overlay3d/pkg/config"
	"github.com/matzehuels/overlay3d/pkg/fonts"
	"github.com/matzehuels/overlay3d/pkg/pipeline"
	"github.com/matzehuels/overlay3d/pkg/video"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "overlay3d"

	// cachePrefix namespaces keys in shared Redis caches.
	cachePrefix = "overlay3d:cache:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "overlay3d renders 3D text rings over videos",
		Long: `overlay3d lays text out on a ring or a line in 3D, renders it as a
transparent overlay and burns the overlay into videos. It can run as an HTTP
service or render locally.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./"+config.FileName+" when present)")

	// Register all subcommands
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.overlayCommand())
	root.AddCommand(c.composeCommand())
	root.AddCommand(c.probeCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.sceneCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner from the loaded config.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cc, nil, c.Logger)
	r.Fonts = c.newFonts(ctx)
	r.Video = c.newVideo()
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.config.Cache.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(ctx, c.config.Cache.RedisURL, cachePrefix)
	}
	dir := c.config.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// newFonts creates the font cache and registers the configured fallbacks.
func (c *CLI) newFonts(ctx context.Context) *fonts.Cache {
	opts := []fonts.Option{fonts.WithLogger(c.Logger)}
	if c.config.Fonts.Dir != "" {
		opts = append(opts, fonts.WithDir(c.config.Fonts.Dir))
	}
	fc := fonts.NewCache(opts...)
	for _, family := range c.config.Fonts.Fallbacks {
		if err := fc.AddFallback(ctx, family); err != nil {
			c.Logger.Warn("fallback font not loaded", "family", family, "error", err)
		}
	}
	return fc
}

func (c *CLI) newVideo() *video.Service {
	f := c.config.FFmpeg
	return video.New(video.Config{
		FFmpegPath:  f.Path,
		FFprobePath: f.ProbePath,
		Profile: video.EncoderProfile{
			Codec:        f.Codec,
			Preset:       f.Preset,
			Tune:         f.Tune,
			Profile:      f.Profile,
			Level:        f.Level,
			CRF:          f.CRF,
			PixFmt:       f.PixFmt,
			AudioCodec:   f.AudioCodec,
			AudioBitrate: f.AudioBitrate,
			AudioRate:    f.AudioRate,
			Channels:     f.Channels,
			FrameRate:    f.FrameRate,
		},
	}, c.Logger)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/overlay3d/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
