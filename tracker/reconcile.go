// ABOUTME: Reconciliation of scraped connections against pending outreach
// ABOUTME: Promotes matched pending records to tracked and ignores everything else
package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/harperreed/outreach/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ReconcileReport summarises one batch.
type ReconcileReport struct {
	RunID        string   `json:"runId"`
	Observed     int      `json:"observed"`
	Accepted     int      `json:"acceptedCount"`
	Ignored      int      `json:"ignored"`
	Skipped      int      `json:"skipped"`
	TrackedTotal int      `json:"totalConnections"`
	AcceptedIDs  []string `json:"acceptedIds"`
}

// ValidateObservation checks the fields a scraped entry must carry.
func ValidateObservation(obs models.RawObservation) error {
	if err := validate.Struct(obs); err != nil {
		return fmt.Errorf("%w: %w", models.ErrMalformedObservation, err)
	}
	return nil
}

// Reconcile promotes every pending record that appears in batch. Malformed
// observations are skipped and unmatched ones ignored. State is saved only
// when something was accepted, so re-running a batch is a no-op.
func (t *Tracker) Reconcile(ctx context.Context, batch []models.RawObservation) (*ReconcileReport, error) {
	report := &ReconcileReport{
		RunID:       ulid.Make().String(),
		Observed:    len(batch),
		AcceptedIDs: []string{},
	}
	log := t.logger.With(zap.String("run_id", report.RunID))

	err := t.submit(ctx, "reconcile", func(snap *models.Snapshot, now time.Time) (bool, error) {
		report.Accepted, report.Ignored, report.Skipped = 0, 0, 0
		report.AcceptedIDs = report.AcceptedIDs[:0]

		for i, obs := range batch {
			obs.ProfileID = models.CanonicalProfileID(obs.ProfileID)
			obs.Name = strings.TrimSpace(obs.Name)
			obs.Title = strings.TrimSpace(obs.Title)
			obs.AvatarURL = strings.TrimSpace(obs.AvatarURL)

			if err := ValidateObservation(obs); err != nil {
				report.Skipped++
				log.Warn("skipping malformed observation", zap.Int("index", i), zap.Error(err))
				continue
			}

			pending, ok := snap.Pending[obs.ProfileID]
			if !ok {
				report.Ignored++
				continue
			}

			snap.Put(models.SetTracked, promote(pending, obs, now))
			report.Accepted++
			report.AcceptedIDs = append(report.AcceptedIDs, obs.ProfileID)
		}

		report.TrackedTotal = len(snap.Tracked)
		return report.Accepted > 0, nil
	})
	if err != nil {
		return nil, err
	}

	t.metrics.observations.WithLabelValues("accepted").Add(float64(report.Accepted))
	t.metrics.observations.WithLabelValues("ignored").Add(float64(report.Ignored))
	t.metrics.observations.WithLabelValues("skipped").Add(float64(report.Skipped))
	t.metrics.operations.WithLabelValues("reconcile", string(OutcomeApplied)).Inc()

	log.Info("reconciled connections",
		zap.Int("observed", report.Observed),
		zap.Int("accepted", report.Accepted),
		zap.Int("ignored", report.Ignored),
		zap.Int("skipped", report.Skipped),
		zap.Int("tracked_total", report.TrackedTotal))

	return report, nil
}

// promote merges a pending record with its fresh observation.
func promote(pending models.ContactRecord, obs models.RawObservation, now time.Time) models.ContactRecord {
	rec := pending
	rec.ProfileID = obs.ProfileID
	rec.Name = obs.Name
	if obs.Title != "" {
		rec.Title = obs.Title
	}
	if obs.AvatarURL != "" {
		rec.AvatarURL = obs.AvatarURL
	}
	rec.Stage = models.StageConnected
	rec.DateConnected = at(now)
	rec.LastUpdated = at(now)
	rec.FollowUpDate = at(models.FollowUpFrom(now))
	return rec
}
