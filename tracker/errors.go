// ABOUTME: Error sentinels and operation outcomes for the pipeline engine
// ABOUTME: Soft failures are outcomes; only storage and shutdown are errors
package tracker

import "errors"

var (
	// ErrStorageUnavailable wraps any load or save failure. The cache is left
	// at the last successful save.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("tracker closed")
)

// Outcome reports what a single-record operation did.
type Outcome string

const (
	OutcomeApplied           Outcome = "applied"
	OutcomeNotFound          Outcome = "not_found"
	OutcomeAlreadyTracked    Outcome = "already_tracked"
	OutcomeInvalidStage      Outcome = "invalid_stage"
	OutcomeIllegalTransition Outcome = "illegal_transition"
	OutcomeInvalidInput      Outcome = "invalid_input"
)

// Message is a short human-readable status line for surfaces.
func (o Outcome) Message(profileID string) string {
	switch o {
	case OutcomeApplied:
		return "updated " + profileID
	case OutcomeNotFound:
		return profileID + " not found"
	case OutcomeAlreadyTracked:
		return profileID + " is already tracked"
	case OutcomeInvalidStage:
		return "unknown stage"
	case OutcomeIllegalTransition:
		return "transition not allowed from current stage"
	case OutcomeInvalidInput:
		return "profile id is required"
	default:
		return string(o)
	}
}
