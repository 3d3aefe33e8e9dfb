// ABOUTME: Dashboard view for the TUI
// ABOUTME: Renders pipeline stats, per-stage counts and due follow-ups
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/outreach/query"
	"github.com/harperreed/outreach/viz"
)

func (m Model) renderDashboardView() string {
	var s strings.Builder

	snap := m.tracker.Snapshot()
	now := m.tracker.Now()
	s.WriteString(viz.RenderDashboard(viz.Dashboard{
		Stats:     query.ComputeStats(snap, now),
		FollowUps: query.UpcomingFollowUps(snap, now, query.DefaultFollowUpWindow, query.DefaultFollowUpLimit),
		Now:       now,
	}))
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("Esc: Back • q: Quit"))

	return s.String()
}

func (m Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.viewMode = ViewList
	}
	return m, nil
}
