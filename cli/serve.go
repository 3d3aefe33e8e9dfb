// ABOUTME: serve command: local HTTP API, retention sweeper and inbox watcher
// ABOUTME: All three run under one errgroup and stop together on SIGINT/SIGTERM
package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harperreed/outreach/inbox"
	"github.com/harperreed/outreach/web"
)

func newServeCommand(app *App) *cobra.Command {
	var addr, inboxDir string
	var noSweeper bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the daily sweeper and the inbox watcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tr, err := app.Tracker(ctx)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = app.Config.Server.Addr
			}
			if inboxDir == "" {
				inboxDir = app.Config.Inbox.Dir
			}

			srv := web.NewServer(tr, web.Options{
				Logger:         app.Logger,
				Gatherer:       app.Registry,
				PageSize:       app.Config.Pipeline.PageSize,
				AllowedOrigins: app.Config.Server.AllowedOrigins,
			})

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.Start(ctx, addr)
			})
			if !noSweeper {
				g.Go(func() error {
					tr.RunSweeper(ctx, app.Config.Sweeper.InitialDelay, app.Config.Sweeper.Interval)
					return nil
				})
			}
			if inboxDir != "" {
				g.Go(func() error {
					return inbox.NewWatcher(inboxDir, tr, app.Logger).Run(ctx)
				})
			}

			app.Logger.Info("serving",
				zap.String("addr", addr),
				zap.String("inbox", inboxDir),
				zap.Bool("sweeper", !noSweeper))

			if err := g.Wait(); err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr)")
	cmd.Flags().StringVar(&inboxDir, "inbox", "", "Directory to watch for scraped batches (default: inbox.dir)")
	cmd.Flags().BoolVar(&noSweeper, "no-sweeper", false, "Do not run the retention sweeper")
	return cmd
}
