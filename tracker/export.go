// ABOUTME: Whole-state operations: export, import and clear
// ABOUTME: Export is a pure read; import and clear go through the mutation queue
package tracker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harperreed/outreach/models"
)

// Export refreshes from the store and returns the full state as a document.
func (t *Tracker) Export(ctx context.Context) (models.ExportDocument, error) {
	if err := t.Refresh(ctx); err != nil {
		return models.ExportDocument{}, err
	}
	snap := t.Snapshot()
	doc := models.ExportDocument{
		ExportID:           uuid.NewString(),
		Connections:        snap.Tracked,
		PendingConnections: snap.Pending,
		ExportDate:         t.now(),
	}
	t.logger.Info("exported pipeline",
		zap.String("export_id", doc.ExportID),
		zap.Int("connections", len(doc.Connections)),
		zap.Int("pending", len(doc.PendingConnections)))
	return doc, nil
}

// Import merges snap into the stored state. Imported records overwrite
// existing ones with the same id, in whichever set the import puts them.
func (t *Tracker) Import(ctx context.Context, snap models.Snapshot) (int, error) {
	incoming := snap.Clone()
	incoming.Normalize()

	err := t.submit(ctx, "import", func(state *models.Snapshot, now time.Time) (bool, error) {
		for _, rec := range incoming.Pending {
			state.Put(models.SetPending, rec)
		}
		for _, rec := range incoming.Tracked {
			state.Put(models.SetTracked, rec)
		}
		return incoming.Len() > 0, nil
	})
	if err != nil {
		return 0, err
	}

	t.logger.Info("imported pipeline", zap.Int("records", incoming.Len()))
	return incoming.Len(), nil
}

// Clear persists two empty sets.
func (t *Tracker) Clear(ctx context.Context) (int, error) {
	var removed int
	err := t.submit(ctx, "clear", func(state *models.Snapshot, now time.Time) (bool, error) {
		removed = state.Len()
		*state = models.NewSnapshot()
		return true, nil
	})
	if err != nil {
		return 0, err
	}

	t.logger.Info("cleared pipeline", zap.Int("removed", removed))
	return removed, nil
}
