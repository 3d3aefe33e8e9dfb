// ABOUTME: Retention sweeper evicting abandoned pending outreach
// ABOUTME: Runs once after an initial delay, then on a fixed interval
package tracker

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/harperreed/outreach/models"
)

const (
	DefaultSweepInitialDelay = 60 * time.Minute
	DefaultSweepInterval     = 24 * time.Hour
)

// SweepReport summarises one sweeper run.
type SweepReport struct {
	RunID   string   `json:"runId"`
	Removed int      `json:"removed"`
	IDs     []string `json:"removedIds"`
}

// Sweep removes pending records whose dateSent is older than the retention
// threshold. Records without a dateSent are kept. State is saved only when
// something was removed.
func (t *Tracker) Sweep(ctx context.Context) (SweepReport, error) {
	report := SweepReport{RunID: ulid.Make().String(), IDs: []string{}}

	err := t.submit(ctx, "sweep", func(snap *models.Snapshot, now time.Time) (bool, error) {
		report.IDs = report.IDs[:0]
		cutoff := now.Add(-t.retention)
		for id, rec := range snap.Pending {
			if rec.DateSent != nil && rec.DateSent.Before(cutoff) {
				delete(snap.Pending, id)
				report.IDs = append(report.IDs, id)
			}
		}
		report.Removed = len(report.IDs)
		return report.Removed > 0, nil
	})
	if err != nil {
		t.metrics.operations.WithLabelValues("sweep", "error").Inc()
		return SweepReport{}, err
	}

	t.metrics.operations.WithLabelValues("sweep", string(OutcomeApplied)).Inc()
	t.metrics.swept.Add(float64(report.Removed))
	t.logger.Info("swept stale pending records",
		zap.String("run_id", report.RunID),
		zap.Int("removed", report.Removed))

	return report, nil
}

// RunSweeper blocks until ctx is cancelled, sweeping after initialDelay and
// then every interval. Failed runs are logged and retried on the next tick.
func (t *Tracker) RunSweeper(ctx context.Context, initialDelay, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	timer := time.NewTimer(initialDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if _, err := t.Sweep(ctx); err != nil && ctx.Err() == nil {
				t.logger.Error("sweeper run failed", zap.Error(err))
			}
			timer.Reset(interval)
		}
	}
}
