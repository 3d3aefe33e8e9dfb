// ABOUTME: Visualization CLI commands
// ABOUTME: Handles viz dashboard and pipeline graph generation
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harperreed/outreach/models"
	"github.com/harperreed/outreach/query"
	"github.com/harperreed/outreach/viz"
)

func newVizCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viz",
		Short: "Pipeline visualizations",
	}
	cmd.AddCommand(newVizGraphCommand(app), newVizDashboardCommand(app))
	return cmd
}

func newVizGraphCommand(app *App) *cobra.Command {
	var output string
	var bare bool
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the stage graph with per-stage counts as GraphViz DOT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			var counts map[models.Stage]int
			if !bare {
				counts = query.ComputeStats(tr.Snapshot(), tr.Now()).ByStage
			}

			g, err := viz.PipelineGraph(cmd.Context(), counts)
			if err != nil {
				return err
			}

			if output != "" {
				if err := os.WriteFile(output, []byte(g.DOT), 0644); err != nil {
					return fmt.Errorf("failed to write graph: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d stages and %d moves to %s\n", g.NodeCount, g.EdgeCount, output)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), g.DOT)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&bare, "no-counts", false, "Draw the stage graph without record counts")
	return cmd
}

func newVizDashboardCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Print a text overview of the pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			snap, now := tr.Snapshot(), tr.Now()
			fmt.Fprint(cmd.OutOrStdout(), viz.RenderDashboard(viz.Dashboard{
				Stats:     query.ComputeStats(snap, now),
				FollowUps: query.UpcomingFollowUps(snap, now, query.DefaultFollowUpWindow, query.DefaultFollowUpLimit),
				Now:       now,
			}))
			return nil
		},
	}
}
