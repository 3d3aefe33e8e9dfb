// ABOUTME: Contact detail view for the TUI
// ABOUTME: Shows one record and advances it to an allowed next stage
package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/outreach/models"
	"github.com/harperreed/outreach/query"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// current looks the selected record up in the live cache.
func (m Model) current() (query.Item, bool) {
	snap := m.tracker.Snapshot()
	rec, set, ok := snap.Locate(m.selectedID)
	if !ok {
		return query.Item{}, false
	}
	return query.NewItem(models.Located{Record: rec, Set: set}, m.tracker.Now()), true
}

func (m Model) renderDetailView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("CONNECTION"))
	s.WriteString("\n\n")

	it, ok := m.current()
	if !ok {
		s.WriteString(fmt.Sprintf("Connection not found: %s\n", m.selectedID))
		s.WriteString(m.renderDetailHelp(nil))
		return s.String()
	}

	rec := it.Record
	s.WriteString(m.renderField("Name", rec.Name))
	s.WriteString(m.renderField("Title", rec.Title))
	s.WriteString(m.renderField("Profile", rec.ProfileID))
	s.WriteString(m.renderField("Stage", it.StageLabel))
	s.WriteString(m.renderField("Sent", shortDate(rec.DateSent)))
	s.WriteString(m.renderField("Connected", shortDate(rec.DateConnected)))
	s.WriteString(m.renderField("Last Updated", shortDate(rec.LastUpdated)))
	followUp := shortDate(rec.FollowUpDate)
	if it.FollowUpDue {
		followUp += " (reach out now)"
	}
	s.WriteString(m.renderField("Follow Up", followUp))

	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Bold(true).Render("MOVE TO"))
	s.WriteString("\n")
	if len(it.NextStages) == 0 {
		s.WriteString("  (final stage)\n")
	}
	for i, next := range it.NextStages {
		swatch := lipgloss.NewStyle().Background(lipgloss.Color(next.Color)).Render("  ")
		s.WriteString(fmt.Sprintf("  [%d] %s %s\n", i+1, swatch, next.Label))
	}

	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	s.WriteString(m.renderDetailHelp(it.NextStages))

	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func (m Model) renderDetailHelp(next []models.StageInfo) string {
	help := []string{"Esc: Back"}
	if len(next) > 0 {
		help = append(help, fmt.Sprintf("1-%d: Move stage", len(next)))
	}
	help = append(help, "d: Delete", "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	m.err = nil

	key := msg.String()
	switch key {
	case "esc":
		m.viewMode = ViewList
		m.reload(false)
		return m, nil
	case "d":
		m.viewMode = ViewConfirmDelete
		return m, nil
	}

	n, err := strconv.Atoi(key)
	if err != nil {
		return m, nil
	}
	it, ok := m.current()
	if !ok || n < 1 || n > len(it.NextStages) {
		return m, nil
	}

	target := it.NextStages[n-1].Stage
	outcome, err := m.tracker.AdvanceStage(m.ctx, m.selectedID, target)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.status = outcome.Message(m.selectedID)
	return m, nil
}
