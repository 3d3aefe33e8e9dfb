// ABOUTME: MCP resource handlers for exposing pipeline data
// ABOUTME: Provides read-only access to the stage graph, stats and single contacts via URI
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/outreach/models"
	"github.com/harperreed/outreach/query"
	"github.com/harperreed/outreach/tracker"
)

const resourceScheme = "outreach://"

type ResourceHandlers struct {
	tracker *tracker.Tracker
}

func NewResourceHandlers(tr *tracker.Tracker) *ResourceHandlers {
	return &ResourceHandlers{tracker: tr}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	path := strings.TrimPrefix(uri, resourceScheme)
	name, rest, _ := strings.Cut(path, "/")

	switch name {
	case "stages":
		return jsonResource(uri, models.StageGraph())

	case "pipeline":
		if err := h.tracker.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("failed to load pipeline: %w", err)
		}
		return jsonResource(uri, query.ComputeStats(h.tracker.Snapshot(), h.tracker.Now()))

	case "contacts":
		id, err := url.PathUnescape(rest)
		if err != nil || id == "" {
			return nil, fmt.Errorf("invalid contact id in %s", uri)
		}
		rec, set, ok := h.tracker.Snapshot().Locate(models.CanonicalProfileID(id))
		if !ok {
			return nil, fmt.Errorf("contact not found: %s", id)
		}
		return jsonResource(uri, contactToOutput(rec, set))

	default:
		return nil, fmt.Errorf("unknown resource: %s", name)
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
