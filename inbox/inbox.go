// ABOUTME: File-drop collaborator for scraped connection batches
// ABOUTME: Watches a directory with fsnotify and reconciles each *.json batch dropped into it
package inbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/harperreed/outreach/models"
	"github.com/harperreed/outreach/tracker"
)

const (
	ProcessedDir = "processed"
	FailedDir    = "failed"

	// DefaultSettle is how long a file must go without events before it is read.
	DefaultSettle = 250 * time.Millisecond

	// DefaultRetry is how long a batch waits after a storage failure before
	// it is read again.
	DefaultRetry = 30 * time.Second
)

// ErrMalformedBatch marks a file that is not a batch of observations.
var ErrMalformedBatch = errors.New("malformed observation batch")

type Watcher struct {
	dir     string
	tracker *tracker.Tracker
	logger  *zap.Logger
	settle  time.Duration
	retry   time.Duration

	seen map[string]time.Time
}

func NewWatcher(dir string, tr *tracker.Tracker, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:     dir,
		tracker: tr,
		logger:  logger.With(zap.String("inbox", dir)),
		settle:  DefaultSettle,
		retry:   DefaultRetry,
		seen:    make(map[string]time.Time),
	}
}

// ParseBatch accepts either {"connections": [...]} or a bare array.
func ParseBatch(r io.Reader) ([]models.RawObservation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch: %w", err)
	}
	data = bytes.TrimSpace(data)

	var batch []models.RawObservation
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedBatch, err)
		}
		return batch, nil
	}

	var doc struct {
		Connections []models.RawObservation `json:"connections"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedBatch, err)
	}
	return doc.Connections, nil
}

// Run drains files already in the inbox, then reconciles new ones as they
// settle. It returns when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create inbox: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch inbox: %w", err)
	}
	w.logger.Info("watching inbox")

	if err := w.ProcessDir(ctx); err != nil {
		w.logger.Error("failed to drain inbox", zap.Error(err))
	}

	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isBatch(event.Name) || event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.seen[event.Name] = time.Now()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", zap.Error(err))

		case now := <-ticker.C:
			for path, last := range w.seen {
				if now.Sub(last) < w.settle {
					continue
				}
				delete(w.seen, path)
				w.handle(ctx, path)
			}
		}
	}
}

// ProcessDir reconciles every batch currently in the inbox, oldest name first.
func (w *Watcher) ProcessDir(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to list inbox: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && isBatch(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.handle(ctx, filepath.Join(w.dir, name))
	}
	return nil
}

// ProcessFile reconciles one batch file and files it under processed/ or
// failed/. Storage failures leave the file in place for the next pass.
func (w *Watcher) ProcessFile(ctx context.Context, path string) (*tracker.ReconcileReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch: %w", err)
	}
	batch, err := ParseBatch(f)
	_ = f.Close()
	if err != nil {
		if moveErr := w.move(path, FailedDir); moveErr != nil {
			w.logger.Error("failed to move batch", zap.String("file", path), zap.Error(moveErr))
		}
		return nil, err
	}

	report, err := w.tracker.Reconcile(ctx, batch)
	if err != nil {
		return nil, err
	}

	if err := w.move(path, ProcessedDir); err != nil {
		return report, err
	}
	return report, nil
}

// handle processes one batch. A storage failure puts the file back on the
// pending list so Run reads it again after the retry delay.
func (w *Watcher) handle(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	report, err := w.ProcessFile(ctx, path)
	if err != nil {
		if errors.Is(err, tracker.ErrStorageUnavailable) && ctx.Err() == nil {
			w.seen[path] = time.Now().Add(w.retry - w.settle)
			w.logger.Warn("storage unavailable, will retry batch",
				zap.String("file", filepath.Base(path)),
				zap.Duration("retry_in", w.retry),
				zap.Error(err))
			return
		}
		w.logger.Warn("failed to process batch", zap.String("file", filepath.Base(path)), zap.Error(err))
		return
	}
	w.logger.Info("processed batch",
		zap.String("file", filepath.Base(path)),
		zap.String("run_id", report.RunID),
		zap.Int("accepted", report.Accepted),
		zap.Int("total_connections", report.TrackedTotal))
}

func (w *Watcher) move(path, sub string) error {
	dest := filepath.Join(w.dir, sub)
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", sub, err)
	}
	if err := os.Rename(path, filepath.Join(dest, filepath.Base(path))); err != nil {
		return fmt.Errorf("failed to move batch: %w", err)
	}
	return nil
}

func isBatch(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(base, ".json") && !strings.HasPrefix(base, ".")
}
