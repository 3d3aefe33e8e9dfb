// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Interactive connections page with tabs, search, sorting, paging and stage actions
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/outreach/query"
	"github.com/harperreed/outreach/tracker"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewDashboard
	ViewConfirmDelete
)

// Model is the main bubbletea model
type Model struct {
	ctx      context.Context
	tracker  *tracker.Tracker
	viewMode ViewMode

	// List view state
	params      query.Params
	result      query.Result
	stats       query.Stats
	selectedRow int
	search      textinput.Model
	searching   bool

	// Detail and delete state
	selectedID string

	// Transient status line, e.g. the outcome of the last action
	status string

	// UI state
	width  int
	height int
	err    error
}

// NewModel creates a new TUI model showing the first page of all connections
func NewModel(ctx context.Context, tr *tracker.Tracker, pageSize int) Model {
	search := textinput.New()
	search.Placeholder = "search name or title"
	search.Prompt = "/ "
	search.CharLimit = 64

	m := Model{
		ctx:      ctx,
		tracker:  tr,
		viewMode: ViewList,
		params:   query.Params{PageSize: pageSize}.WithDefaults(),
		search:   search,
		width:    100,
		height:   30,
	}
	m.reload(true)
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewDashboard:
		return m.renderDashboardView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewDashboard:
		return m.handleDashboardKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

// reload re-runs the current query. fresh re-reads the store first so edits
// made by other collaborators show up.
func (m *Model) reload(fresh bool) {
	if fresh {
		if err := m.tracker.Refresh(m.ctx); err != nil {
			m.err = err
		}
	}

	snap := m.tracker.Snapshot()
	now := m.tracker.Now()
	res, err := query.Run(snap, m.params, now)
	if err != nil {
		m.err = err
		return
	}
	m.result = res
	m.params.Page = res.Page
	m.stats = query.ComputeStats(snap, now)

	if m.selectedRow >= len(res.Items) {
		m.selectedRow = len(res.Items) - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}
}

// selected returns the item under the cursor on the current page.
func (m Model) selected() (query.Item, bool) {
	if m.selectedRow < 0 || m.selectedRow >= len(m.result.Items) {
		return query.Item{}, false
	}
	return m.result.Items[m.selectedRow], true
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)
