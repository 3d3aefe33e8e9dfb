// ABOUTME: Root cobra command and shared application wiring
// ABOUTME: Loads config, builds the logger and opens the store and tracker lazily per command
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harperreed/outreach/charm"
	"github.com/harperreed/outreach/config"
	"github.com/harperreed/outreach/db"
	"github.com/harperreed/outreach/tracker"
)

// App is the state shared by every command of one invocation.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry

	configPath string
	verbose    bool
	storePath  string
	driver     string
	strict     bool

	store   db.Store
	charm   *charm.Client
	tracker *tracker.Tracker
}

// NewRootCommand builds the full command tree.
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(&App{}, version)
}

func newRootCommand(app *App, version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "outreach",
		Short:         "Track connection requests from sent to onboarded",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&app.configPath, "config", "c", "", "Config file (default: $XDG_CONFIG_HOME/outreach/config.yaml)")
	flags.BoolVarP(&app.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&app.driver, "driver", "", "Storage driver override: sqlite, local, charm or redis")
	flags.StringVar(&app.storePath, "db-path", "", "Storage path override for the sqlite and local drivers")
	flags.BoolVar(&app.strict, "strict", false, "Only allow stage moves along the pipeline graph")

	root.AddCommand(
		newScanCommand(app),
		newOutreachCommand(app),
		newAddCommand(app),
		newAdvanceCommand(app),
		newDeleteCommand(app),
		newListCommand(app),
		newStatsCommand(app),
		newFollowUpsCommand(app),
		newStagesCommand(app),
		newExportCommand(app),
		newClearCommand(app),
		newSweepCommand(app),
		newServeCommand(app),
		newMCPCommand(app, version),
		newTUICommand(app),
		newVizCommand(app),
		newCharmCommand(app),
	)

	return root
}

// Execute runs the command tree against os.Args. The app is closed even
// when a command fails, which skips PersistentPostRun.
func Execute(version string) error {
	app := &App{}
	defer app.Close()
	return newRootCommand(app, version).Execute()
}

func (a *App) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.driver != "" {
		cfg.Storage.Driver = a.driver
	}
	if a.storePath != "" {
		cfg.Storage.Path = a.storePath
	}
	if a.strict {
		cfg.Pipeline.StrictTransitions = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.Config = cfg

	logger, err := cfg.Log.NewLogger(a.verbose)
	if err != nil {
		return err
	}
	a.Logger = logger
	a.Registry = prometheus.NewRegistry()
	return nil
}

// Tracker opens the configured store on first use.
func (a *App) Tracker(ctx context.Context) (*tracker.Tracker, error) {
	if a.tracker != nil {
		return a.tracker, nil
	}

	store, client, err := OpenStore(ctx, a.Config)
	if err != nil {
		return nil, err
	}

	tr, err := tracker.New(ctx, store, tracker.Options{
		Logger:           a.Logger,
		Timeout:          a.Config.Storage.Timeout,
		Strict:           a.Config.Pipeline.StrictTransitions,
		PendingRetention: a.Config.Pipeline.PendingRetention,
		Metrics:          tracker.NewMetrics(a.Registry),
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load pipeline: %w", err)
	}

	a.store = store
	a.charm = client
	a.tracker = tr
	a.Logger.Debug("opened store", zap.String("driver", a.Config.Storage.Driver))
	return tr, nil
}

// Close stops the tracker, closes the store and flushes the logger.
func (a *App) Close() {
	if a.tracker != nil {
		_ = a.tracker.Close()
		a.tracker = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && !errors.Is(err, db.ErrClosed) {
			a.Logger.Warn("failed to close store", zap.Error(err))
		}
		a.store = nil
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}
