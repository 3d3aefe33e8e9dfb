// ABOUTME: Tests for pipeline graph and dashboard rendering
// ABOUTME: Checks stage labels, counts and follow-up lines in the output
package viz

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/outreach/models"
	"github.com/harperreed/outreach/query"
)

func TestPipelineGraphWithCounts(t *testing.T) {
	g, err := PipelineGraph(context.Background(), map[models.Stage]int{
		models.StagePending:   3,
		models.StageConnected: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, 8, g.NodeCount)
	assert.Equal(t, 8, g.EdgeCount)
	assert.Contains(t, g.DOT, "digraph")
	assert.Contains(t, g.DOT, "Pending (3)")
	assert.Contains(t, g.DOT, "Connected (2)")
	assert.Contains(t, g.DOT, "Onboarded (0)")
}

func TestPipelineGraphWithoutCounts(t *testing.T) {
	g, err := PipelineGraph(context.Background(), nil)
	require.NoError(t, err)

	assert.Contains(t, g.DOT, "Chat Booked")
	assert.NotContains(t, g.DOT, "(0)")
}

func TestRenderDashboard(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	past := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	soon := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

	stats := query.Stats{
		Total:            4,
		Pending:          1,
		ReachoutRequired: 1,
		Declined:         1,
		ByStage: map[models.Stage]int{
			models.StagePending:      1,
			models.StageConnected:    2,
			models.StageChatDeclined: 1,
		},
	}
	out := RenderDashboard(Dashboard{
		Stats: stats,
		FollowUps: []models.ContactRecord{
			{ProfileID: "https://www.linkedin.com/in/ada", Name: "Ada", FollowUpDate: &past},
			{ProfileID: "https://www.linkedin.com/in/bob", Name: "Bob", FollowUpDate: &soon},
		},
		Now: now,
	})

	assert.Contains(t, out, "OUTREACH PIPELINE DASHBOARD")
	assert.Contains(t, out, "4 total")
	assert.Contains(t, out, "██████████   2")

	lines := strings.Split(out, "\n")
	var ada, bob string
	for _, l := range lines {
		if strings.Contains(l, "Ada") {
			ada = l
		}
		if strings.Contains(l, "Bob") {
			bob = l
		}
	}
	assert.Contains(t, ada, "overdue")
	assert.NotContains(t, bob, "overdue")
	assert.Contains(t, bob, "Mar 12")
}

func TestRenderDashboardEmpty(t *testing.T) {
	out := RenderDashboard(Dashboard{Stats: query.Stats{ByStage: map[models.Stage]int{}}, Now: time.Now()})
	assert.Contains(t, out, "░░░░░░░░░░   0")
	assert.NotContains(t, out, "UPCOMING FOLLOW-UPS")
}
