// ABOUTME: Pipeline mutation commands
// ABOUTME: scan, outreach, add, advance, delete, sweep and clear
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/harperreed/outreach/inbox"
	"github.com/harperreed/outreach/models"
	"github.com/harperreed/outreach/tracker"
)

func contactFlags(cmd *cobra.Command, in *models.ContactInput) {
	cmd.Flags().StringVar(&in.Name, "name", "", "Contact name (default: Unknown)")
	cmd.Flags().StringVar(&in.Title, "title", "", "Headline or job title")
	cmd.Flags().StringVar(&in.AvatarURL, "avatar", "", "Profile picture URL")
}

// printOutcome reports a mutation result. Only storage failures are errors.
func printOutcome(w io.Writer, outcome tracker.Outcome, profileID string) error {
	mark := "✓"
	if outcome != tracker.OutcomeApplied {
		mark = "✗"
	}
	_, err := fmt.Fprintf(w, "%s %s\n", mark, outcome.Message(profileID))
	return err
}

func newScanCommand(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "scan [file]",
		Short: "Reconcile a batch of observed connections (JSON file or stdin)",
		Long: `Reads scraped connections as {"connections": [...]} or a bare JSON array
and promotes every pending contact that now shows up as connected.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open batch: %w", err)
				}
				defer f.Close()
				r = f
			}
			batch, err := inbox.ParseBatch(r)
			if err != nil {
				return err
			}

			tr, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			report, err := tr.Reconcile(cmd.Context(), batch)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, report)
			}
			fmt.Fprintf(out, "✓ Scanned %d connections: %d newly accepted, %d untracked, %d skipped\n",
				report.Observed, report.Accepted, report.Ignored, report.Skipped)
			fmt.Fprintf(out, "  Tracking %d connections\n", report.TrackedTotal)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the reconcile report as JSON")
	return cmd
}

func newOutreachCommand(app *App) *cobra.Command {
	var in models.ContactInput
	cmd := &cobra.Command{
		Use:   "outreach <profile-url>",
		Short: "Record a sent connection request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			in.ProfileID = args[0]
			outcome, err := tr.RecordOutreachSent(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printOutcome(cmd.OutOrStdout(), outcome, models.CanonicalProfileID(args[0]))
		},
	}
	contactFlags(cmd, &in)
	return cmd
}

func newAddCommand(app *App) *cobra.Command {
	var in models.ContactInput
	cmd := &cobra.Command{
		Use:   "add <profile-url>",
		Short: "Add a connection by hand as already connected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			in.ProfileID = args[0]
			outcome, err := tr.RequestManualAdd(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printOutcome(cmd.OutOrStdout(), outcome, models.CanonicalProfileID(args[0]))
		},
	}
	contactFlags(cmd, &in)
	return cmd
}

func newAdvanceCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <profile-url> <stage>",
		Short: "Move a connection to another pipeline stage",
		Long:  "Stages: pending, connected, followedUp, upcomingChat, chatDeclined, upcomingOnboard, onboardDeclined, onboarded.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			outcome, err := tr.AdvanceStage(cmd.Context(), args[0], models.Stage(args[1]))
			if err != nil {
				return err
			}
			return printOutcome(cmd.OutOrStdout(), outcome, models.CanonicalProfileID(args[0]))
		},
	}
}

func newDeleteCommand(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <profile-url>",
		Short: "Delete a connection from the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := models.CanonicalProfileID(args[0])
			ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "delete "+id, yes)
			if err != nil || !ok {
				return err
			}

			tr, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			outcome, err := tr.DeleteRecord(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printOutcome(cmd.OutOrStdout(), outcome, id)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newSweepCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Drop pending requests older than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			report, err := tr.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Removed %d stale pending requests\n", report.Removed)
			for _, id := range report.IDs {
				fmt.Fprintf(out, "  - %s\n", id)
			}
			return nil
		},
	}
}

func newClearCommand(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every pending and tracked connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "clear all data", yes)
			if err != nil || !ok {
				return err
			}

			tr, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			removed, err := tr.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %d connections\n", removed)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
