// ABOUTME: Pipeline MCP tool handlers
// ABOUTME: Implements record_outreach, mark_connected, reconcile_connections, advance_stage, delete_contact and sweep_pending
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/outreach/models"
	"github.com/harperreed/outreach/tracker"
)

type PipelineHandlers struct {
	tracker *tracker.Tracker
}

func NewPipelineHandlers(tr *tracker.Tracker) *PipelineHandlers {
	return &PipelineHandlers{tracker: tr}
}

type ContactInput struct {
	ProfileURL string `json:"profile_url" jsonschema:"Profile URL identifying the contact (required)"`
	Name       string `json:"name,omitempty" jsonschema:"Contact name (defaults to Unknown)"`
	Title      string `json:"title,omitempty" jsonschema:"Headline or job title"`
	AvatarURL  string `json:"avatar_url,omitempty" jsonschema:"Profile picture URL"`
}

func (in ContactInput) toModel() models.ContactInput {
	return models.ContactInput{
		ProfileID: in.ProfileURL,
		Name:      in.Name,
		Title:     in.Title,
		AvatarURL: in.AvatarURL,
	}
}

type ContactOutput struct {
	ProfileURL    string  `json:"profile_url"`
	Name          string  `json:"name"`
	Title         string  `json:"title,omitempty"`
	AvatarURL     string  `json:"avatar_url,omitempty"`
	Stage         string  `json:"stage"`
	StageLabel    string  `json:"stage_label"`
	Set           string  `json:"set,omitempty"`
	DateSent      *string `json:"date_sent,omitempty"`
	DateConnected *string `json:"date_connected,omitempty"`
	LastUpdated   *string `json:"last_updated,omitempty"`
	FollowUpDate  *string `json:"follow_up_date,omitempty"`
}

type MutationOutput struct {
	Outcome string         `json:"outcome"`
	Message string         `json:"message"`
	Contact *ContactOutput `json:"contact,omitempty"`
}

func (h *PipelineHandlers) RecordOutreach(ctx context.Context, request *mcp.CallToolRequest, input ContactInput) (*mcp.CallToolResult, MutationOutput, error) {
	outcome, err := h.tracker.RecordOutreachSent(ctx, input.toModel())
	if err != nil {
		return nil, MutationOutput{}, fmt.Errorf("failed to record outreach: %w", err)
	}
	return nil, h.mutationOutput(outcome, input.ProfileURL), nil
}

func (h *PipelineHandlers) MarkConnected(ctx context.Context, request *mcp.CallToolRequest, input ContactInput) (*mcp.CallToolResult, MutationOutput, error) {
	outcome, err := h.tracker.RequestManualAdd(ctx, input.toModel())
	if err != nil {
		return nil, MutationOutput{}, fmt.Errorf("failed to add contact: %w", err)
	}
	return nil, h.mutationOutput(outcome, input.ProfileURL), nil
}

type AdvanceStageInput struct {
	ProfileURL string `json:"profile_url" jsonschema:"Profile URL of the contact (required)"`
	Stage      string `json:"stage" jsonschema:"Target stage: pending, connected, followedUp, upcomingChat, chatDeclined, upcomingOnboard, onboardDeclined or onboarded"`
}

func (h *PipelineHandlers) AdvanceStage(ctx context.Context, request *mcp.CallToolRequest, input AdvanceStageInput) (*mcp.CallToolResult, MutationOutput, error) {
	if input.ProfileURL == "" {
		return nil, MutationOutput{}, fmt.Errorf("profile_url is required")
	}
	outcome, err := h.tracker.AdvanceStage(ctx, input.ProfileURL, models.Stage(input.Stage))
	if err != nil {
		return nil, MutationOutput{}, fmt.Errorf("failed to change stage: %w", err)
	}
	return nil, h.mutationOutput(outcome, input.ProfileURL), nil
}

type DeleteContactInput struct {
	ProfileURL string `json:"profile_url" jsonschema:"Profile URL of the contact to delete (required)"`
}

func (h *PipelineHandlers) DeleteContact(ctx context.Context, request *mcp.CallToolRequest, input DeleteContactInput) (*mcp.CallToolResult, MutationOutput, error) {
	if input.ProfileURL == "" {
		return nil, MutationOutput{}, fmt.Errorf("profile_url is required")
	}
	outcome, err := h.tracker.DeleteRecord(ctx, input.ProfileURL)
	if err != nil {
		return nil, MutationOutput{}, fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil, MutationOutput{Outcome: string(outcome), Message: outcome.Message(input.ProfileURL)}, nil
}

type ObservationInput struct {
	ProfileURL    string `json:"profile_url" jsonschema:"Profile URL seen on the connections page"`
	Name          string `json:"name" jsonschema:"Name as shown on the connections page"`
	Title         string `json:"title,omitempty" jsonschema:"Headline as shown on the connections page"`
	AvatarURL     string `json:"avatar_url,omitempty" jsonschema:"Profile picture URL"`
	DateConnected string `json:"date_connected,omitempty" jsonschema:"When the connection was made (RFC3339), if shown"`
}

type ReconcileInput struct {
	Connections []ObservationInput `json:"connections" jsonschema:"Accepted connections observed on a connections-listing page"`
}

func (h *PipelineHandlers) ReconcileConnections(ctx context.Context, request *mcp.CallToolRequest, input ReconcileInput) (*mcp.CallToolResult, tracker.ReconcileReport, error) {
	batch := make([]models.RawObservation, 0, len(input.Connections))
	for _, c := range input.Connections {
		obs := models.RawObservation{
			ProfileID: c.ProfileURL,
			Name:      c.Name,
			Title:     c.Title,
			AvatarURL: c.AvatarURL,
		}
		if t, err := time.Parse(time.RFC3339, c.DateConnected); err == nil {
			obs.ObservedConnectedDate = &t
		}
		batch = append(batch, obs)
	}

	report, err := h.tracker.Reconcile(ctx, batch)
	if err != nil {
		return nil, tracker.ReconcileReport{}, fmt.Errorf("failed to reconcile connections: %w", err)
	}
	return nil, *report, nil
}

type SweepInput struct{}

func (h *PipelineHandlers) SweepPending(ctx context.Context, request *mcp.CallToolRequest, input SweepInput) (*mcp.CallToolResult, tracker.SweepReport, error) {
	report, err := h.tracker.Sweep(ctx)
	if err != nil {
		return nil, tracker.SweepReport{}, fmt.Errorf("failed to sweep pending: %w", err)
	}
	return nil, report, nil
}

func (h *PipelineHandlers) mutationOutput(outcome tracker.Outcome, profileURL string) MutationOutput {
	out := MutationOutput{Outcome: string(outcome), Message: outcome.Message(profileURL)}
	snap := h.tracker.Snapshot()
	if rec, set, ok := snap.Locate(models.CanonicalProfileID(profileURL)); ok {
		c := contactToOutput(rec, set)
		out.Contact = &c
	}
	return out
}

func contactToOutput(rec models.ContactRecord, set models.Set) ContactOutput {
	return ContactOutput{
		ProfileURL:    rec.ProfileID,
		Name:          rec.Name,
		Title:         rec.Title,
		AvatarURL:     rec.AvatarURL,
		Stage:         string(rec.Stage),
		StageLabel:    models.Label(rec.DisplayStage()),
		Set:           string(set),
		DateSent:      formatTime(rec.DateSent),
		DateConnected: formatTime(rec.DateConnected),
		LastUpdated:   formatTime(rec.LastUpdated),
		FollowUpDate:  formatTime(rec.FollowUpDate),
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
