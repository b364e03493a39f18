package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/overlay3d/pkg/pipeline"
	"github.com/matzehuels/overlay3d/pkg/scene"
)

// sceneCommand creates the scene command for dumping the scene graph.
func (c *CLI) sceneCommand() *cobra.Command {
	var flags sceneFlags
	var output string

	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Dump the laid-out scene graph as DOT or SVG",
		Long: `Lay out the text and write the scene graph (groups, glyphs, lights and
the occlusion mask) as Graphviz DOT. An .svg output is rendered with
Graphviz; anything else is written as DOT. Without -o the DOT goes to stdout.`,
		Example: `  overlay3d scene --text ABC
  overlay3d scene -p scene.toml --occlude -o scene.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			params, occ, err := flags.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			opts := pipeline.Options{Params: params, Occlusion: occ, Logger: c.Logger}
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}

			runner := pipeline.NewRunner(nil, nil, c.Logger)
			runner.Fonts = c.newFonts(ctx)
			sc := runner.NewScene(ctx, opts)
			dot := scene.ToDOT(sc.Host.Scene())

			if output == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), dot)
				return err
			}
			data := []byte(dot)
			if strings.EqualFold(filepath.Ext(output), ".svg") {
				if data, err = scene.RenderSVG(ctx, dot); err != nil {
					return err
				}
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Scene written (%d glyphs)", sc.Glyphs())
			printFile(output)
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.dot or .svg)")
	return cmd
}
