// ABOUTME: Single-record pipeline operations: outreach, manual add, stage change, delete
// ABOUTME: Not-found and duplicate cases are reported as outcomes, never as errors
package tracker

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harperreed/outreach/models"
)

func at(t time.Time) *time.Time {
	return &t
}

// RecordOutreachSent puts the contact into the pending set. A repeat for a
// pending id refreshes its details but keeps the original dateSent; an id
// that is already tracked is left alone.
func (t *Tracker) RecordOutreachSent(ctx context.Context, in models.ContactInput) (Outcome, error) {
	rawName := in.Name
	in = in.Normalize()
	if in.ProfileID == "" {
		return t.finish("record_outreach", in.ProfileID, OutcomeInvalidInput, nil)
	}

	var outcome Outcome
	err := t.submit(ctx, "record_outreach", func(snap *models.Snapshot, now time.Time) (bool, error) {
		if _, ok := snap.Tracked[in.ProfileID]; ok {
			outcome = OutcomeAlreadyTracked
			return false, nil
		}

		rec, exists := snap.Pending[in.ProfileID]
		if !exists {
			rec = models.ContactRecord{ProfileID: in.ProfileID, DateSent: at(now)}
		}
		if rec.DateSent == nil {
			rec.DateSent = at(now)
		}
		if !exists || strings.TrimSpace(rawName) != "" || rec.Name == "" {
			rec.Name = in.Name
		}
		rec.Title = in.Title
		rec.AvatarURL = in.AvatarURL
		rec.Stage = models.StagePending
		rec.LastUpdated = at(now)
		rec.FollowUpDate = nil

		snap.Put(models.SetPending, rec)
		outcome = OutcomeApplied
		return true, nil
	})
	return t.finish("record_outreach", in.ProfileID, outcome, err)
}

// RequestManualAdd tracks the contact directly at connected. A pending
// record for the same id is promoted and keeps its dateSent.
func (t *Tracker) RequestManualAdd(ctx context.Context, in models.ContactInput) (Outcome, error) {
	in = in.Normalize()
	if in.ProfileID == "" {
		return t.finish("manual_add", in.ProfileID, OutcomeInvalidInput, nil)
	}

	var outcome Outcome
	err := t.submit(ctx, "manual_add", func(snap *models.Snapshot, now time.Time) (bool, error) {
		if _, ok := snap.Tracked[in.ProfileID]; ok {
			outcome = OutcomeAlreadyTracked
			return false, nil
		}

		rec := models.ContactRecord{
			ProfileID: in.ProfileID,
			Name:      in.Name,
			Title:     in.Title,
			AvatarURL: in.AvatarURL,
			DateSent:  at(now),
		}
		if pending, ok := snap.Pending[in.ProfileID]; ok && pending.DateSent != nil {
			rec.DateSent = pending.DateSent
		}
		rec.Stage = models.StageConnected
		rec.DateConnected = at(now)
		rec.LastUpdated = at(now)
		rec.FollowUpDate = at(models.FollowUpFrom(now))

		snap.Put(models.SetTracked, rec)
		outcome = OutcomeApplied
		return true, nil
	})
	return t.finish("manual_add", in.ProfileID, outcome, err)
}

// AdvanceStage moves a record to target. The stage graph is advisory unless
// the tracker is strict; a target that is not a stage at all is always
// rejected. Records move between sets when crossing the pending boundary.
func (t *Tracker) AdvanceStage(ctx context.Context, profileID string, target models.Stage) (Outcome, error) {
	profileID = models.CanonicalProfileID(profileID)
	if !models.IsKnownStage(target) {
		return t.finish("advance_stage", profileID, OutcomeInvalidStage, nil)
	}

	var outcome Outcome
	err := t.submit(ctx, "advance_stage", func(snap *models.Snapshot, now time.Time) (bool, error) {
		rec, set, ok := snap.Locate(profileID)
		if !ok {
			outcome = OutcomeNotFound
			return false, nil
		}

		if t.strict && !models.IsLegalTransition(rec.DisplayStage(), target) {
			outcome = OutcomeIllegalTransition
			return false, nil
		}

		rec.Stage = target
		rec.LastUpdated = at(now)
		if target == models.StageFollowedUp {
			rec.FollowUpDate = at(models.FollowUpFrom(now))
		}

		switch {
		case target == models.StagePending:
			snap.Put(models.SetPending, rec)
		case set == models.SetPending:
			if rec.DateConnected == nil {
				rec.DateConnected = at(now)
			}
			if target == models.StageConnected {
				rec.FollowUpDate = at(models.FollowUpFrom(now))
			}
			snap.Put(models.SetTracked, rec)
		default:
			snap.Put(models.SetTracked, rec)
		}

		outcome = OutcomeApplied
		return true, nil
	})
	return t.finish("advance_stage", profileID, outcome, err)
}

// DeleteRecord removes the id from whichever set holds it.
func (t *Tracker) DeleteRecord(ctx context.Context, profileID string) (Outcome, error) {
	profileID = models.CanonicalProfileID(profileID)

	var outcome Outcome
	err := t.submit(ctx, "delete", func(snap *models.Snapshot, now time.Time) (bool, error) {
		if !snap.Remove(profileID) {
			outcome = OutcomeNotFound
			return false, nil
		}
		outcome = OutcomeApplied
		return true, nil
	})
	return t.finish("delete", profileID, outcome, err)
}

// finish records metrics and the operation's log line.
func (t *Tracker) finish(op, profileID string, outcome Outcome, err error) (Outcome, error) {
	if err != nil {
		t.metrics.operations.WithLabelValues(op, "error").Inc()
		t.logger.Warn("operation failed",
			zap.String("operation", op),
			zap.String("profile_id", profileID),
			zap.Error(err))
		return "", err
	}

	t.metrics.operations.WithLabelValues(op, string(outcome)).Inc()
	t.logger.Info("operation complete",
		zap.String("operation", op),
		zap.String("profile_id", profileID),
		zap.String("outcome", string(outcome)))
	return outcome, nil
}
