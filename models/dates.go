// ABOUTME: Follow-up date arithmetic for pipeline decisions
// ABOUTME: Follow-ups land at the start of the day 14 days after the decision
package models

import "time"

// FollowUpDays is the gap between a pipeline decision and the next outreach.
const FollowUpDays = 14

// FollowUpFrom schedules the next follow-up: decision date + 14 days,
// truncated to the start of that day in the decision's location.
func FollowUpFrom(decision time.Time) time.Time {
	d := decision.AddDate(0, 0, FollowUpDays)
	return StartOfDay(d)
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func timePtr(t time.Time) *time.Time {
	return &t
}
