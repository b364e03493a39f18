package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/overlay3d/pkg/config"
	"github.com/matzehuels/overlay3d/pkg/pipeline"
)

// animationFlags holds the flags shared by overlay and compose.
type animationFlags struct {
	scene    sceneFlags
	width    int
	height   int
	fps      int
	duration float64
	spin     float64
	static   bool
}

func (f *animationFlags) register(fs *pflag.FlagSet) {
	f.scene.register(fs)
	fs.IntVar(&f.width, "width", 0, "overlay width (default: video size or config)")
	fs.IntVar(&f.height, "height", 0, "overlay height (default: video size or config)")
	fs.IntVar(&f.fps, "fps", 0, "overlay frame rate (default from config)")
	fs.Float64Var(&f.duration, "duration", 0, "overlay length in seconds (default from config)")
	fs.Float64Var(&f.spin, "spin-period", 0, "seconds per full turn; negative reverses (default from config)")
	fs.BoolVar(&f.static, "static", false, "do not animate the ring")
}

// animationOptions builds pipeline options; zero values fall back to the config.
func (c *CLI) animationOptions(fs *pflag.FlagSet, f animationFlags) (pipeline.Options, error) {
	params, occ, err := f.scene.resolve(fs)
	if err != nil {
		return pipeline.Options{}, err
	}
	r := c.config.Render
	return pipeline.Options{
		Params:     params,
		Occlusion:  occ,
		Width:      f.width,
		Height:     f.height,
		FPS:        c.dimension(f.fps, r.FPS),
		Duration:   pick(f.duration, r.Duration),
		SpinPeriod: pick(f.spin, r.SpinPeriod),
		Static:     f.static,
		Logger:     c.Logger,
	}, nil
}

func pick(flag, configured float64) float64 {
	if flag != 0 {
		return flag
	}
	return configured
}

// overlayCommand creates the overlay command for rendering a transparent WebM.
func (c *CLI) overlayCommand() *cobra.Command {
	var flags animationFlags
	var output string

	cmd := &cobra.Command{
		Use:   "overlay",
		Short: "Render the animated text as a transparent WebM",
		Example: `  overlay3d overlay --text "SPIN ME" -o ring.webm
  overlay3d overlay -p scene.toml --duration 10 --fps 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.animationOptions(cmd.Flags(), flags)
			if err != nil {
				return err
			}
			if opts.Width == 0 {
				opts.Width = c.config.Render.Width
			}
			if opts.Height == 0 {
				opts.Height = c.config.Render.Height
			}
			opts.OverlayPath = output
			return c.runOverlay(cmd.Context(), opts)
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "overlay.webm", "output WebM path")

	return cmd
}

func (c *CLI) runOverlay(ctx context.Context, opts pipeline.Options) error {
	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering overlay...")
	spinner.Start()
	res, err := runner.Overlay(ctx, opts)
	if err != nil {
		spinner.StopWithError("Overlay failed")
		return err
	}
	spinner.StopWithSuccess("Overlay rendered")
	printFile(res.OverlayPath)
	printRenderStats(res.Glyphs, res.Frames, res.Stats.EncodeTime, false)
	printNextStep("Burn it into a video", "overlay3d compose VIDEO --overlay "+res.OverlayPath)
	return nil
}

// composeCommand creates the compose command for burning an overlay into a video.
func (c *CLI) composeCommand() *cobra.Command {
	var flags animationFlags
	var overlay, output string

	cmd := &cobra.Command{
		Use:   "compose <video>",
		Short: "Burn the text overlay into a video",
		Long: `Burn the text overlay into a video and write an H.264 MP4.

With --overlay an existing WebM overlay is used. Otherwise the overlay is
rendered first at the video's resolution.`,
		Example: `  overlay3d compose clip.mp4 --text "HELLO" -o result.mp4
  overlay3d compose clip.mp4 --overlay ring.webm`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.animationOptions(cmd.Flags(), flags)
			if err != nil {
				return err
			}
			opts.VideoPath = args[0]
			opts.OverlayPath = overlay
			opts.OutputPath = output
			return c.runCompose(cmd.Context(), opts)
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&overlay, "overlay", "", "existing overlay WebM")
	cmd.Flags().StringVarP(&output, "output", "o", "result.mp4", "output MP4 path")

	return cmd
}

func (c *CLI) runCompose(ctx context.Context, opts pipeline.Options) error {
	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	if !runner.Video.Available() {
		printWarning("ffmpeg not found; set [ffmpeg] path in %s", c.configFileName())
	}

	spinner := newSpinnerWithContext(ctx, "Composing video...")
	spinner.Start()
	res, err := runner.Compose(ctx, opts)
	if err != nil {
		spinner.StopWithError("Compose failed")
		return err
	}
	spinner.StopWithSuccess("Video composed")
	printFile(res.OutputPath)
	printRenderStats(res.Glyphs, res.Frames, res.Stats.EncodeTime+res.Stats.ComposeTime, false)
	return nil
}

// probeCommand creates the probe command for inspecting a video.
func (c *CLI) probeCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe <video>",
		Short: "Show video dimensions, duration and frame rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			meta, err := runner.Probe(ctx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(meta)
			}
			printKeyValue("Size", fmt.Sprintf("%dx%d", meta.Width, meta.Height))
			printKeyValue("Duration", strconv.FormatFloat(meta.Duration, 'f', 2, 64)+"s")
			printKeyValue("FPS", strconv.FormatFloat(meta.FPS, 'f', 2, 64))
			if meta.Codec != "" {
				printKeyValue("Codec", meta.Codec)
			}
			printKeyValue("Audio", strconv.FormatBool(meta.HasAudio))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// configFileName returns the config path in use, for messages.
func (c *CLI) configFileName() string {
	if c.configPath != "" {
		return c.configPath
	}
	return config.FileName
}
