// ABOUTME: Command that launches the interactive pipeline TUI
// ABOUTME: Wires the tracker into the bubbletea program
package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/harperreed/outreach/tui"
)

func newTUICommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and update the pipeline interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			m := tui.NewModel(cmd.Context(), tr, app.Config.Pipeline.PageSize)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}
