// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides the pipeline_graph tool for agents
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/outreach/models"
	"github.com/harperreed/outreach/query"
	"github.com/harperreed/outreach/tracker"
	"github.com/harperreed/outreach/viz"
)

type VizHandlers struct {
	tracker *tracker.Tracker
}

func NewVizHandlers(tr *tracker.Tracker) *VizHandlers {
	return &VizHandlers{tracker: tr}
}

type PipelineGraphInput struct {
	Counts *bool `json:"counts,omitempty" jsonschema:"Label each stage with its record count (default true)"`
}

type PipelineGraphOutput struct {
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) PipelineGraph(ctx context.Context, request *mcp.CallToolRequest, input PipelineGraphInput) (*mcp.CallToolResult, PipelineGraphOutput, error) {
	if err := h.tracker.Refresh(ctx); err != nil {
		return nil, PipelineGraphOutput{}, fmt.Errorf("failed to load pipeline: %w", err)
	}

	var counts map[models.Stage]int
	if input.Counts == nil || *input.Counts {
		counts = query.ComputeStats(h.tracker.Snapshot(), h.tracker.Now()).ByStage
	}

	g, err := viz.PipelineGraph(ctx, counts)
	if err != nil {
		return nil, PipelineGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	return nil, PipelineGraphOutput{
		DOTSource: g.DOT,
		NodeCount: g.NodeCount,
		EdgeCount: g.EdgeCount,
	}, nil
}
