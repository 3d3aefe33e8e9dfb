// ABOUTME: MCP prompt handlers for outreach workflow templates
// ABOUTME: Builds a follow-up drafting prompt from contacts whose reach-out is due
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/outreach/query"
	"github.com/harperreed/outreach/tracker"
)

type PromptHandlers struct {
	tracker *tracker.Tracker
}

func NewPromptHandlers(tr *tracker.Tracker) *PromptHandlers {
	return &PromptHandlers{tracker: tr}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "follow-up-suggestions":
		return h.followUpSuggestions(ctx)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) followUpSuggestions(ctx context.Context) (*mcp.GetPromptResult, error) {
	if err := h.tracker.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("failed to load pipeline: %w", err)
	}

	now := h.tracker.Now()
	due := query.Filter(h.tracker.Snapshot(), query.TabReachout, "", now)
	query.Sort(due, query.SortDate, query.Asc)

	var promptText strings.Builder
	if len(due) == 0 {
		promptText.WriteString("No connections currently need a follow-up message.\n")
	} else {
		promptText.WriteString(fmt.Sprintf("These %d connections are due for a follow-up message:\n\n", len(due)))
		for _, row := range due {
			rec := row.Record
			promptText.WriteString(fmt.Sprintf("- %s", rec.Name))
			if rec.Title != "" {
				promptText.WriteString(fmt.Sprintf(" (%s)", rec.Title))
			}
			if rec.DateConnected != nil {
				promptText.WriteString(fmt.Sprintf(", connected %s", rec.DateConnected.Format("2006-01-02")))
			}
			promptText.WriteString(fmt.Sprintf(" %s\n", rec.ProfileID))
		}
		promptText.WriteString("\nFor each contact draft a short, friendly follow-up note that references their role.")
		promptText.WriteString("\nAfter sending, mark the contact as followedUp with the advance_stage tool.")
	}

	return &mcp.GetPromptResult{
		Description: "Follow-up suggestions for connections awaiting reach-out",
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: promptText.String(),
				},
			},
		},
	}, nil
}
