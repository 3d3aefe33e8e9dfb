// ABOUTME: Charm sync commands
// ABOUTME: charm link and charm status for the local and charm storage drivers
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harperreed/outreach/charm"
)

func newCharmCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "charm",
		Short: "Charm KV sync",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "link",
		Short: "Link this device to Charm Cloud",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.charmClient(cmd)
			if err != nil {
				return err
			}
			return charm.Link(cmd.OutOrStdout(), client)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show Charm sync status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.charmClient(cmd)
			if err != nil {
				return err
			}
			return charm.Status(cmd.OutOrStdout(), client)
		},
	})

	return cmd
}

func (a *App) charmClient(cmd *cobra.Command) (*charm.Client, error) {
	if _, err := a.Tracker(cmd.Context()); err != nil {
		return nil, err
	}
	if a.charm == nil {
		return nil, fmt.Errorf("storage driver %q does not use charm; set storage.driver to local or charm", a.Config.Storage.Driver)
	}
	return a.charm, nil
}
