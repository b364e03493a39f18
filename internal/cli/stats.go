package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/overlay3d/pkg/stats"
)

// statsFlags holds flags for the stats command.
type statsFlags struct {
	top         int
	recent      int
	asJSON      bool
	interactive bool
	interval    time.Duration
	export      string
}

// statsCommand creates the stats command for inspecting usage counters.
func (c *CLI) statsCommand() *cobra.Command {
	flags := statsFlags{top: 10, recent: 20, interval: 2 * time.Second}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show usage statistics",
		Long: `Show usage statistics from the configured stats backend (file, redis
or mongo): totals, top names and recent activity.

With -i a live dashboard polls the backend until you quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStats(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if flags.interactive {
				return runDashboard(ctx, store, flags.interval)
			}

			snap, err := store.Snapshot(ctx)
			if err != nil {
				return err
			}
			if flags.export != "" {
				return exportStats(flags.export, snap)
			}
			sum := stats.Summarize(snap, flags.top, flags.recent)
			if flags.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			printSummary(sum)
			return nil
		},
	}

	cmd.Flags().IntVar(&flags.top, "top", flags.top, "number of names to show")
	cmd.Flags().IntVar(&flags.recent, "recent", flags.recent, "number of activities to show")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "print the summary as JSON")
	cmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "live dashboard")
	cmd.Flags().DurationVar(&flags.interval, "interval", flags.interval, "dashboard refresh interval")
	cmd.Flags().StringVar(&flags.export, "export", "", "write the full record as JSON to this file")

	return cmd
}

func (c *CLI) openStats(ctx context.Context) (stats.Store, error) {
	cfg := c.config
	return stats.Open(ctx, stats.Options{
		Backend:  cfg.Stats.Backend,
		File:     cfg.StatsPath(),
		RedisURL: cfg.Stats.RedisURL,
		MongoURI: cfg.Stats.MongoURI,
		MongoDB:  cfg.Stats.MongoDB,
	})
}

func runDashboard(ctx context.Context, store stats.Store, interval time.Duration) error {
	m := NewStatsModel(ctx, store.Snapshot, interval)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func exportStats(path string, s stats.Stats) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export stats: %w", err)
	}
	printSuccess("Exported statistics")
	printFile(path)
	return nil
}

func printSummary(s stats.Summary) {
	fmt.Println(StyleTitle.Render("Usage"))
	fmt.Println(summaryLine(s))
	fmt.Println()

	if len(s.TopNames) > 0 {
		fmt.Println(statsTable(nameHeaders, nameRows(s.TopNames)).Render())
	}
	if len(s.RecentActivity) > 0 {
		fmt.Println(statsTable(activityHeaders, activityRows(s.RecentActivity)).Render())
	}
	if s.TotalVideos == 0 && s.TotalDownloads == 0 {
		printNextStep("Nothing recorded yet; start the API with", "overlay3d serve")
	}
}
