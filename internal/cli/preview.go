package cli

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/overlay3d/pkg/pipeline"
	"github.com/matzehuels/overlay3d/pkg/scene"
)

// previewFlags holds flags for the preview command.
type previewFlags struct {
	scene   sceneFlags
	output  string
	video   string
	time    float64
	width   int
	height  int
	noCache bool
	refresh bool
	watch   bool
	fps     int
}

// previewCommand creates the preview command for rendering a single frame.
func (c *CLI) previewCommand() *cobra.Command {
	flags := previewFlags{output: "preview.png", fps: 10}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render one frame of the text overlay as PNG",
		Long: `Render one frame of the text overlay as a PNG image.

Without --video the frame is transparent. With --video the text is
composited over the video frame at --time seconds.

With --watch the scene file given by --params is watched and the PNG is
rewritten on every change until interrupted.`,
		Example: `  overlay3d preview --text "HELLO WORLD" -o hello.png
  overlay3d preview -p scene.toml --video clip.mp4 --time 1.5
  overlay3d preview -p scene.toml --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, occ, err := flags.scene.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			opts := pipeline.Options{
				Params:    params,
				Occlusion: occ,
				Width:     c.dimension(flags.width, c.config.Render.Width),
				Height:    c.dimension(flags.height, c.config.Render.Height),
				VideoPath: flags.video,
				Time:      flags.time,
				Refresh:   flags.refresh,
				Logger:    c.Logger,
			}
			if flags.watch {
				if flags.scene.file == "" {
					return fmt.Errorf("--watch needs a scene file (--params)")
				}
				return c.runWatch(cmd.Context(), cmd.Flags(), opts, flags)
			}
			return c.runPreview(cmd.Context(), opts, flags)
		},
	}

	flags.scene.register(cmd.Flags())
	cmd.Flags().StringVarP(&flags.output, "output", "o", flags.output, "output PNG path")
	cmd.Flags().StringVar(&flags.video, "video", "", "composite over this video")
	cmd.Flags().Float64Var(&flags.time, "time", 0, "video time in seconds")
	cmd.Flags().IntVar(&flags.width, "width", 0, "frame width (default from config)")
	cmd.Flags().IntVar(&flags.height, "height", 0, "frame height (default from config)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable the preview cache")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "render even when cached")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "re-render when the scene file changes")
	cmd.Flags().IntVar(&flags.fps, "fps", flags.fps, "watch polling rate")

	return cmd
}

// dimension returns flag when set, else the configured value.
func (c *CLI) dimension(flag, configured int) int {
	if flag > 0 {
		return flag
	}
	return configured
}

func (c *CLI) runPreview(ctx context.Context, opts pipeline.Options, flags previewFlags) error {
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	res, err := runner.Preview(ctx, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(flags.output, res.PNG, 0o644); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	prog.done("Rendered preview")

	printSuccess("Preview rendered")
	printFile(flags.output)
	printRenderStats(res.Glyphs, 0, res.Stats.RenderTime, res.CacheInfo.PreviewHit)
	return nil
}

// runWatch keeps a live scene and rewrites the PNG after each change of the
// scene file.
func (c *CLI) runWatch(ctx context.Context, fs *pflag.FlagSet, opts pipeline.Options, flags previewFlags) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	// Editors often replace files, so the directory is watched.
	path, err := filepath.Abs(flags.scene.file)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	surface := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	sc := runner.NewScene(ctx, opts, scene.WithSurface(surface))
	sc.Host.RenderFrame()

	changed := make(chan struct{}, 1)
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) == path && ev.Has(fsnotify.Write|fsnotify.Create) {
					select {
					case changed <- struct{}{}:
					default:
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.Logger.Warn("watch error", "error", err)
			}
		}
	}()

	printInfo("Watching %s (ctrl+c to stop)", flags.scene.file)
	dirty := true
	err = sc.Host.Run(ctx, flags.fps, func(time.Duration) {
		// The surface holds the frame rendered after the previous tick.
		if dirty {
			dirty = false
			if err := imaging.Save(surface, flags.output); err != nil {
				c.Logger.Error("write preview", "error", err)
				return
			}
			printFile(flags.output)
		}
		select {
		case <-changed:
		default:
			return
		}
		params, occ, err := flags.scene.resolve(fs)
		if err != nil {
			printWarning("%v", err)
			return
		}
		sc.Update(params)
		sc.SetOcclusion(occ)
		dirty = true
		c.Logger.Debug("scene reloaded", "glyphs", sc.Glyphs())
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}
