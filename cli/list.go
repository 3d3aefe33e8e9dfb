// ABOUTME: Read-only pipeline commands
// ABOUTME: list, stats, followups, stages and export
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/outreach/models"
	"github.com/harperreed/outreach/query"
)

func newListCommand(app *App) *cobra.Command {
	var p query.Params
	var tab, sortKey, order string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List connections with tab, search, sort and paging",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			p.Tab, p.Sort, p.Order = query.Tab(tab), query.SortKey(sortKey), query.Order(order)
			if p.PageSize == 0 {
				p.PageSize = app.Config.Pipeline.PageSize
			}

			res, err := query.Run(tr.Snapshot(), p, tr.Now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}
			if res.Total == 0 {
				fmt.Fprintln(out, "No connections found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tSTAGE\tDATE\tFOLLOW UP\tPROFILE")
			_, _ = fmt.Fprintln(w, "----\t-----\t----\t---------\t-------")
			for _, it := range res.Items {
				rec := it.Record
				followUp := "-"
				if rec.FollowUpDate != nil {
					followUp = rec.FollowUpDate.Format("2006-01-02")
				}
				if it.FollowUpDue {
					followUp = "🔴 " + followUp
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					rec.Name, it.StageLabel, rec.ActivityDate().Format("2006-01-02"), followUp, rec.ProfileID)
			}
			_ = w.Flush()
			fmt.Fprintf(out, "\nPage %d of %d (%d connections)\n", res.Page, res.Pages, res.Total)
			return nil
		},
	}

	tabs := make([]string, 0, len(query.Tabs()))
	for _, t := range query.Tabs() {
		tabs = append(tabs, string(t))
	}
	cmd.Flags().StringVarP(&tab, "tab", "t", string(query.TabAll), "Tab: "+strings.Join(tabs, ", "))
	cmd.Flags().StringVarP(&p.Search, "search", "s", "", "Case-insensitive match on name or title")
	cmd.Flags().StringVar(&sortKey, "sort", string(query.SortDate), "Sort by name, date, stage or updated")
	cmd.Flags().StringVar(&order, "order", string(query.Desc), "asc or desc")
	cmd.Flags().IntVarP(&p.Page, "page", "p", 1, "Page number")
	cmd.Flags().IntVar(&p.PageSize, "page-size", 0, "Rows per page (default: pipeline.page_size)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the page as JSON")
	return cmd
}

func newStatsCommand(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show pipeline counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			st := query.ComputeStats(tr.Snapshot(), tr.Now())

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, st)
			}
			fmt.Fprintln(out, "PIPELINE")
			fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			fmt.Fprintf(out, "  Total:             %d\n", st.Total)
			fmt.Fprintf(out, "  Pending:           %d\n", st.Pending)
			fmt.Fprintf(out, "  Reach out now:     %d\n", st.ReachoutRequired)
			fmt.Fprintf(out, "  Declined:          %d\n\n", st.Declined)
			for _, s := range models.Stages() {
				fmt.Fprintf(out, "  %-18s %d\n", models.Label(s)+":", st.ByStage[s])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print stats as JSON")
	return cmd
}

func newFollowUpsCommand(app *App) *cobra.Command {
	var days, limit int
	cmd := &cobra.Command{
		Use:   "followups",
		Short: "List connections whose follow-up is due soon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			now := tr.Now()
			recs := query.UpcomingFollowUps(tr.Snapshot(), now, time.Duration(days)*24*time.Hour, limit)

			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintf(out, "No follow-ups in the next %d days.\n", days)
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tDUE\tSTAGE\tPROFILE")
			_, _ = fmt.Fprintln(w, "----\t---\t-----\t-------")
			for _, rec := range recs {
				indicator := "🟢"
				if rec.FollowUpDue(now) {
					indicator = "🔴"
				}
				_, _ = fmt.Fprintf(w, "%s %s\t%s\t%s\t%s\n",
					indicator, rec.Name, rec.FollowUpDate.Format("2006-01-02"), models.Label(rec.DisplayStage()), rec.ProfileID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "Look-ahead window in days")
	cmd.Flags().IntVar(&limit, "limit", query.DefaultFollowUpLimit, "Maximum number of results")
	return cmd
}

func newStagesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "Show the pipeline stages and their forward moves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "STAGE\tLABEL\tNEXT")
			_, _ = fmt.Fprintln(w, "-----\t-----\t----")
			for _, info := range models.StageGraph() {
				next := make([]string, 0, len(info.Next))
				for _, n := range info.Next {
					next = append(next, string(n))
				}
				if len(next) == 0 {
					next = append(next, "(final)")
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", info.Stage, info.Label, strings.Join(next, ", "))
			}
			return w.Flush()
		},
	}
}

func newExportCommand(app *App) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the pipeline as JSON",
		Long:  "Writes connections-YYYY-MM-DD.json to --output (a file or directory), or stdout when --output is -.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := tr.Export(cmd.Context())
			if err != nil {
				return err
			}

			if output == "-" {
				return writeJSON(cmd.OutOrStdout(), doc)
			}

			path := output
			if info, err := os.Stat(output); err == nil && info.IsDir() {
				path = filepath.Join(output, models.ExportFileName(doc.ExportDate))
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create export: %w", err)
			}
			defer f.Close()
			if err := writeJSON(f, doc); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d connections and %d pending to %s\n",
				len(doc.Connections), len(doc.PendingConnections), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", ".", "Output file or directory, - for stdout")
	return cmd
}
