// ABOUTME: Terminal dashboard rendering
// ABOUTME: ASCII overview of pipeline counts and upcoming follow-ups
package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/outreach/models"
	"github.com/harperreed/outreach/query"
)

type Dashboard struct {
	Stats     query.Stats
	FollowUps []models.ContactRecord
	Now       time.Time
}

func RenderDashboard(d Dashboard) string {
	var out strings.Builder

	// Header
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  OUTREACH PIPELINE DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("PIPELINE OVERVIEW\n")
	renderPipeline(&out, d.Stats.ByStage)
	out.WriteString("\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  📇 %d total  ⏳ %d pending  ✉️  %d need reach-out  ✗ %d declined\n\n",
		d.Stats.Total, d.Stats.Pending, d.Stats.ReachoutRequired, d.Stats.Declined))

	if len(d.FollowUps) > 0 {
		out.WriteString("UPCOMING FOLLOW-UPS\n")
		for _, rec := range d.FollowUps {
			out.WriteString(fmt.Sprintf("  %s  %s%s\n", rec.FollowUpDate.Format("Jan 02"), rec.Name, overdue(rec, d.Now)))
		}
	}

	return out.String()
}

func overdue(rec models.ContactRecord, now time.Time) string {
	if rec.FollowUpDate != nil && rec.FollowUpDate.Before(models.StartOfDay(now)) {
		return "  ⚠️  overdue"
	}
	return ""
}

func renderPipeline(out *strings.Builder, byStage map[models.Stage]int) {
	// Find max count for scaling
	maxCount := 0
	for _, count := range byStage {
		if count > maxCount {
			maxCount = count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, stage := range models.Stages() {
		count := byStage[stage]

		// Calculate bar length (0-10 blocks)
		barLength := (count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		out.WriteString(fmt.Sprintf("  %-18s %s  %2d\n", models.Label(stage), bar, count))
	}
}
