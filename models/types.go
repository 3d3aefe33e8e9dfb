// ABOUTME: Data models for the outreach pipeline
// ABOUTME: Defines ContactRecord, RawObservation, ContactInput and export documents
package models

import (
	"errors"
	"strings"
	"time"
)

// DefaultName is used when a collaborator could not extract a contact's name.
const DefaultName = "Unknown"

// ErrMalformedObservation marks a scraped entry missing a required field.
var ErrMalformedObservation = errors.New("malformed observation")

// ContactRecord is one person in either the pending or the tracked set.
// JSON names follow the browser extension's storage layout so exports round-trip.
type ContactRecord struct {
	ProfileID     string     `json:"profileUrl"`
	Name          string     `json:"name"`
	Title         string     `json:"title,omitempty"`
	AvatarURL     string     `json:"pfp,omitempty"`
	Stage         Stage      `json:"dealStage"`
	DateSent      *time.Time `json:"dateSent,omitempty"`
	DateConnected *time.Time `json:"dateConnected,omitempty"`
	LastUpdated   *time.Time `json:"lastUpdated,omitempty"`
	FollowUpDate  *time.Time `json:"followUpDate"`
}

// DisplayStage is the stage used for labels and action buttons.
// Unknown stages render as connected; the stored value is left alone.
func (r ContactRecord) DisplayStage() Stage {
	if IsKnownStage(r.Stage) {
		return r.Stage
	}
	return StageConnected
}

// ActivityDate is dateConnected falling back to dateSent.
func (r ContactRecord) ActivityDate() time.Time {
	if r.DateConnected != nil {
		return *r.DateConnected
	}
	if r.DateSent != nil {
		return *r.DateSent
	}
	return time.Time{}
}

// FollowUpDue reports whether the record is a connected contact whose
// follow-up date has arrived.
func (r ContactRecord) FollowUpDue(now time.Time) bool {
	return r.Stage == StageConnected && r.FollowUpDate != nil && !r.FollowUpDate.After(now)
}

// RawObservation is one accepted connection seen on a connections-listing page.
type RawObservation struct {
	ProfileID             string     `json:"profileUrl" validate:"required"`
	Name                  string     `json:"name" validate:"required"`
	Title                 string     `json:"title,omitempty"`
	AvatarURL             string     `json:"pfp,omitempty"`
	ObservedConnectedDate *time.Time `json:"dateConnected,omitempty"`
}

// ContactInput is what a click collaborator extracts from a profile page.
type ContactInput struct {
	ProfileID string `json:"profileUrl" validate:"required"`
	Name      string `json:"name,omitempty"`
	Title     string `json:"title,omitempty"`
	AvatarURL string `json:"pfp,omitempty"`
}

// Normalize trims fields, strips the query string from the profile id and
// applies the default name.
func (c ContactInput) Normalize() ContactInput {
	c.ProfileID = CanonicalProfileID(c.ProfileID)
	c.Name = strings.TrimSpace(c.Name)
	c.Title = strings.TrimSpace(c.Title)
	c.AvatarURL = strings.TrimSpace(c.AvatarURL)
	if c.Name == "" {
		c.Name = DefaultName
	}
	return c
}

// CanonicalProfileID drops query parameters and surrounding whitespace.
func CanonicalProfileID(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.IndexByte(id, '?'); i >= 0 {
		id = id[:i]
	}
	return id
}

// ExportDocument is the downloadable JSON form of the whole state.
type ExportDocument struct {
	ExportID           string                   `json:"exportId"`
	Connections        map[string]ContactRecord `json:"connections"`
	PendingConnections map[string]ContactRecord `json:"pendingConnections"`
	ExportDate         time.Time                `json:"exportDate"`
}

// ExportFileName is the suggested file name for an export taken at t.
func ExportFileName(t time.Time) string {
	return "connections-" + t.Format("2006-01-02") + ".json"
}
