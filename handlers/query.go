// ABOUTME: Read-only MCP tool handlers over the pipeline
// ABOUTME: Implements query_pipeline, pipeline_stats, upcoming_followups and export_pipeline
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/outreach/models"
	"github.com/harperreed/outreach/query"
	"github.com/harperreed/outreach/tracker"
)

type QueryHandlers struct {
	tracker  *tracker.Tracker
	pageSize int
}

func NewQueryHandlers(tr *tracker.Tracker, pageSize int) *QueryHandlers {
	return &QueryHandlers{tracker: tr, pageSize: pageSize}
}

type QueryPipelineInput struct {
	Tab    string `json:"tab,omitempty" jsonschema:"all, pending, reachout, declined or a stage name (default all)"`
	Search string `json:"search,omitempty" jsonschema:"Case-insensitive match on name or title"`
	Sort   string `json:"sort,omitempty" jsonschema:"name, date, stage or updated (default date)"`
	Order  string `json:"order,omitempty" jsonschema:"asc or desc (default desc)"`
	Page   int    `json:"page,omitempty" jsonschema:"1-based page number"`
}

type QueryItem struct {
	Contact     ContactOutput `json:"contact"`
	NextStages  []string      `json:"next_stages"`
	FollowUpDue bool          `json:"follow_up_due"`
}

type QueryPipelineOutput struct {
	Items []QueryItem `json:"items"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
	Pages int         `json:"pages"`
}

func (h *QueryHandlers) QueryPipeline(ctx context.Context, request *mcp.CallToolRequest, input QueryPipelineInput) (*mcp.CallToolResult, QueryPipelineOutput, error) {
	if err := h.tracker.Refresh(ctx); err != nil {
		return nil, QueryPipelineOutput{}, fmt.Errorf("failed to load pipeline: %w", err)
	}

	res, err := query.Run(h.tracker.Snapshot(), query.Params{
		Tab:      query.Tab(input.Tab),
		Search:   input.Search,
		Sort:     query.SortKey(input.Sort),
		Order:    query.Order(input.Order),
		Page:     input.Page,
		PageSize: h.pageSize,
	}, h.tracker.Now())
	if err != nil {
		return nil, QueryPipelineOutput{}, err
	}

	out := QueryPipelineOutput{Items: make([]QueryItem, 0, len(res.Items)), Total: res.Total, Page: res.Page, Pages: res.Pages}
	for _, it := range res.Items {
		next := make([]string, 0, len(it.NextStages))
		for _, s := range it.NextStages {
			next = append(next, string(s.Stage))
		}
		out.Items = append(out.Items, QueryItem{
			Contact:     contactToOutput(it.Record, it.Set),
			NextStages:  next,
			FollowUpDue: it.FollowUpDue,
		})
	}
	return nil, out, nil
}

type StatsInput struct{}

func (h *QueryHandlers) PipelineStats(ctx context.Context, request *mcp.CallToolRequest, input StatsInput) (*mcp.CallToolResult, query.Stats, error) {
	if err := h.tracker.Refresh(ctx); err != nil {
		return nil, query.Stats{}, fmt.Errorf("failed to load pipeline: %w", err)
	}
	return nil, query.ComputeStats(h.tracker.Snapshot(), h.tracker.Now()), nil
}

type UpcomingFollowUpsInput struct {
	Days  int `json:"days,omitempty" jsonschema:"Look-ahead window in days (default 7)"`
	Limit int `json:"limit,omitempty" jsonschema:"Maximum results (default 5)"`
}

type UpcomingFollowUpsOutput struct {
	FollowUps []ContactOutput `json:"follow_ups"`
}

func (h *QueryHandlers) UpcomingFollowUps(ctx context.Context, request *mcp.CallToolRequest, input UpcomingFollowUpsInput) (*mcp.CallToolResult, UpcomingFollowUpsOutput, error) {
	if err := h.tracker.Refresh(ctx); err != nil {
		return nil, UpcomingFollowUpsOutput{}, fmt.Errorf("failed to load pipeline: %w", err)
	}

	window := time.Duration(input.Days) * 24 * time.Hour
	recs := query.UpcomingFollowUps(h.tracker.Snapshot(), h.tracker.Now(), window, input.Limit)

	out := UpcomingFollowUpsOutput{FollowUps: make([]ContactOutput, 0, len(recs))}
	for _, rec := range recs {
		out.FollowUps = append(out.FollowUps, contactToOutput(rec, models.SetTracked))
	}
	return nil, out, nil
}

type ExportInput struct{}

type ExportOutput struct {
	FileName           string                   `json:"file_name"`
	ExportID           string                   `json:"export_id"`
	ExportDate         string                   `json:"export_date"`
	Connections        map[string]ContactOutput `json:"connections"`
	PendingConnections map[string]ContactOutput `json:"pending_connections"`
}

func (h *QueryHandlers) ExportPipeline(ctx context.Context, request *mcp.CallToolRequest, input ExportInput) (*mcp.CallToolResult, ExportOutput, error) {
	doc, err := h.tracker.Export(ctx)
	if err != nil {
		return nil, ExportOutput{}, fmt.Errorf("failed to export pipeline: %w", err)
	}
	out := ExportOutput{
		FileName:           models.ExportFileName(doc.ExportDate),
		ExportID:           doc.ExportID,
		ExportDate:         doc.ExportDate.Format(time.RFC3339),
		Connections:        make(map[string]ContactOutput, len(doc.Connections)),
		PendingConnections: make(map[string]ContactOutput, len(doc.PendingConnections)),
	}
	for id, rec := range doc.Connections {
		out.Connections[id] = contactToOutput(rec, models.SetTracked)
	}
	for id, rec := range doc.PendingConnections {
		out.PendingConnections[id] = contactToOutput(rec, models.SetPending)
	}
	return nil, out, nil
}
