// ABOUTME: Import utility for browser-extension JSON exports
// ABOUTME: Maps the legacy status field to a stage and merges the records into the configured store

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/harperreed/outreach/cli"
	"github.com/harperreed/outreach/config"
	"github.com/harperreed/outreach/models"
	"github.com/harperreed/outreach/tracker"
)

// legacyRecord is a record as written by older extension builds, which kept
// a status of "pending" or "connected" instead of a deal stage.
type legacyRecord struct {
	models.ContactRecord
	Status string `json:"status,omitempty"`
}

type legacyExport struct {
	Connections        map[string]legacyRecord `json:"connections"`
	PendingConnections map[string]legacyRecord `json:"pendingConnections"`
}

type options struct {
	configPath string
	file       string
	dryRun     bool
	backup     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Config file (default: XDG config dir)")
	flag.StringVar(&opts.file, "file", "", "Export file to import (required)")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "Show what would happen without making changes")
	flag.BoolVar(&opts.backup, "backup", true, "Export the current pipeline before importing")
	flag.Parse()

	if opts.file == "" {
		log.Fatal("Error: -file flag is required")
	}

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		log.Fatalf("Import failed: %v", err)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("failed to read export: %w", err)
	}
	snap, err := parseExport(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Found %d connections and %d pending in %s\n", len(snap.Tracked), len(snap.Pending), opts.file)
	if opts.dryRun {
		fmt.Fprintln(out, "[DRY RUN] No changes written")
		return nil
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger(false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, _, err := cli.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	tr, err := tracker.New(ctx, store, tracker.Options{
		Logger:  logger,
		Timeout: cfg.Storage.Timeout,
	})
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to load pipeline: %w", err)
	}
	defer func() {
		_ = tr.Close()
		_ = store.Close()
	}()

	if opts.backup {
		path, err := backup(ctx, tr, filepath.Dir(opts.file))
		if err != nil {
			return err
		}
		logger.Info("backed up pipeline", zap.String("path", path))
		fmt.Fprintf(out, "Backup written to %s\n", path)
	}

	n, err := tr.Import(ctx, snap)
	if err != nil {
		return fmt.Errorf("failed to import: %w", err)
	}
	fmt.Fprintf(out, "✓ Imported %d records (%d total in store)\n", n, tr.Snapshot().Len())
	return nil
}

// parseExport reads an export document and fills in the stage of legacy
// records from their status.
func parseExport(data []byte) (models.Snapshot, error) {
	var doc legacyExport
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to parse export: %w", err)
	}
	if doc.Connections == nil && doc.PendingConnections == nil {
		return models.Snapshot{}, errors.New("export has neither connections nor pendingConnections")
	}

	snap := models.NewSnapshot()
	for id, rec := range doc.PendingConnections {
		snap.Pending[id] = rec.upgrade()
	}
	for id, rec := range doc.Connections {
		snap.Tracked[id] = rec.upgrade()
	}
	return snap, nil
}

func (r legacyRecord) upgrade() models.ContactRecord {
	rec := r.ContactRecord
	if rec.Stage == "" && r.Status != "" {
		if r.Status == "pending" {
			rec.Stage = models.StagePending
		} else {
			rec.Stage = models.StageConnected
		}
	}
	return rec
}

func backup(ctx context.Context, tr *tracker.Tracker, dir string) (string, error) {
	doc, err := tr.Export(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to export current pipeline: %w", err)
	}
	path := filepath.Join(dir, "backup-"+models.ExportFileName(doc.ExportDate))
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return path, nil
}
