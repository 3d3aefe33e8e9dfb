// ABOUTME: Pipeline statistics and upcoming follow-up selection
// ABOUTME: Feeds the stats header, the dashboard and the follow-up reminders
package query

import (
	"sort"
	"time"

	"github.com/harperreed/outreach/models"
)

const (
	DefaultFollowUpWindow = 7 * 24 * time.Hour
	DefaultFollowUpLimit  = 5
)

// Stats are the counts shown above the connections list.
type Stats struct {
	Total            int                  `json:"total"`
	Pending          int                  `json:"pending"`
	ReachoutRequired int                  `json:"reachoutRequired"`
	ByStage          map[models.Stage]int `json:"byStage"`
	Declined         int                  `json:"declined"`
}

// ComputeStats counts records by display stage across both sets, so an
// unknown stored stage counts as connected.
func ComputeStats(snap models.Snapshot, now time.Time) Stats {
	st := Stats{ByStage: map[models.Stage]int{}}
	for _, s := range models.Stages() {
		st.ByStage[s] = 0
	}
	for _, row := range snap.All() {
		rec := row.Record
		stage := rec.DisplayStage()
		st.Total++
		st.ByStage[stage]++
		if stage == models.StagePending {
			st.Pending++
		}
		if rec.FollowUpDue(now) {
			st.ReachoutRequired++
		}
		if models.IsDeclined(stage) {
			st.Declined++
		}
	}
	return st
}

// UpcomingFollowUps returns tracked records with a follow-up date on or
// before now+window, soonest first, at most limit of them.
func UpcomingFollowUps(snap models.Snapshot, now time.Time, window time.Duration, limit int) []models.ContactRecord {
	if window <= 0 {
		window = DefaultFollowUpWindow
	}
	if limit <= 0 {
		limit = DefaultFollowUpLimit
	}
	horizon := now.Add(window)

	out := []models.ContactRecord{}
	for _, rec := range snap.Tracked {
		if rec.FollowUpDate != nil && !rec.FollowUpDate.After(horizon) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].FollowUpDate.Equal(*out[j].FollowUpDate) {
			return out[i].FollowUpDate.Before(*out[j].FollowUpDate)
		}
		return out[i].ProfileID < out[j].ProfileID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
