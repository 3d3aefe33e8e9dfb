// ABOUTME: Tabbed contact list view for the TUI
// ABOUTME: Handles tab switching, search, sorting and row selection
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/outreach/models"
	"github.com/harperreed/outreach/query"
)

var sortCycle = []query.SortKey{query.SortDate, query.SortName, query.SortStage, query.SortUpdated}

func tabLabel(tab query.Tab) string {
	switch tab {
	case query.TabAll:
		return "All"
	case query.TabPending:
		return "Pending"
	case query.TabReachout:
		return "Reach Out"
	case query.TabDeclined:
		return "Declined"
	}
	return models.Label(models.Stage(tab))
}

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("OUTREACH PIPELINE"))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Total %d • Pending %d • Reach out %d • Declined %d",
		m.stats.Total, m.stats.Pending, m.stats.ReachoutRequired, m.stats.Declined))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.searching || m.params.Search != "" {
		s.WriteString(m.search.View())
		s.WriteString("\n\n")
	}

	if m.result.Total == 0 {
		s.WriteString("No connections found.\n")
	} else {
		s.WriteString(m.renderTable())
		s.WriteString("\n")
		s.WriteString(fmt.Sprintf("Page %d of %d • %d connections • sort: %s %s",
			m.result.Page, m.result.Pages, m.result.Total, m.params.Sort, m.params.Order))
	}
	s.WriteString("\n")

	s.WriteString(m.renderStatus())
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for _, tab := range query.Tabs() {
		if tab == m.params.Tab {
			rendered = append(rendered, tabActiveStyle.Render(tabLabel(tab)))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tabLabel(tab)))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderTable() string {
	columns := []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Title", Width: 30},
		{Title: "Stage", Width: 18},
		{Title: "Date", Width: 12},
		{Title: "Follow Up", Width: 12},
	}

	var rows []table.Row
	for _, it := range m.result.Items {
		rec := it.Record
		followUp := shortDate(rec.FollowUpDate)
		if it.FollowUpDue {
			followUp += " !"
		}
		rows = append(rows, table.Row{
			rec.Name,
			rec.Title,
			it.StageLabel,
			rec.ActivityDate().Format("2006-01-02"),
			followUp,
		})
	}

	height := len(rows) + 1
	if height > m.height-12 && m.height > 14 {
		height = m.height - 12
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	t.SetCursor(m.selectedRow)

	return t.View()
}

func shortDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func (m Model) renderStatus() string {
	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}
	if m.status != "" {
		return statusStyle.Render(m.status) + "\n"
	}
	return ""
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch tabs",
		"←/→: Page",
		"Enter: Details",
		"/: Search",
		"s: Sort",
		"o: Order",
		"x: Delete",
		"D: Dashboard",
		"r: Refresh",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	m.err = nil

	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.result.Items)-1 {
			m.selectedRow++
		}
	case "tab":
		m.switchTab(1)
	case "shift+tab":
		m.switchTab(-1)
	case "right", "l", "pgdown":
		if m.params.Page < m.result.Pages {
			m.params.Page++
			m.selectedRow = 0
			m.reload(false)
		}
	case "left", "h", "pgup":
		if m.params.Page > 1 {
			m.params.Page--
			m.selectedRow = 0
			m.reload(false)
		}
	case "s":
		m.params.Sort = nextSort(m.params.Sort)
		m.params.Page = 1
		m.reload(false)
	case "o":
		if m.params.Order == query.Asc {
			m.params.Order = query.Desc
		} else {
			m.params.Order = query.Asc
		}
		m.reload(false)
	case "/":
		m.searching = true
		cmd := m.search.Focus()
		return m, cmd
	case "enter":
		if it, ok := m.selected(); ok {
			m.selectedID = it.Record.ProfileID
			m.viewMode = ViewDetail
		}
	case "x":
		if it, ok := m.selected(); ok {
			m.selectedID = it.Record.ProfileID
			m.viewMode = ViewConfirmDelete
		}
	case "D":
		m.viewMode = ViewDashboard
	case "r":
		m.reload(true)
	}

	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.params.Search = ""
		m.params.Page = 1
		m.reload(false)
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.params.Search {
		m.params.Search = m.search.Value()
		m.params.Page = 1
		m.selectedRow = 0
		m.reload(false)
	}
	return m, cmd
}

func (m *Model) switchTab(step int) {
	tabs := query.Tabs()
	idx := 0
	for i, tab := range tabs {
		if tab == m.params.Tab {
			idx = i
		}
	}
	idx = (idx + step + len(tabs)) % len(tabs)
	m.params.Tab = tabs[idx]
	m.params.Page = 1
	m.selectedRow = 0
	m.reload(false)
}

func nextSort(cur query.SortKey) query.SortKey {
	for i, k := range sortCycle {
		if k == cur {
			return sortCycle[(i+1)%len(sortCycle)]
		}
	}
	return sortCycle[0]
}
