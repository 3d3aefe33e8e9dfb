// ABOUTME: Filtered, sorted and paginated views over both record sets
// ABOUTME: Pure functions recomputed from the full snapshot on every call
package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/outreach/models"
)

const DefaultPageSize = 20

// Tab selects a stage group. Any stage name is also a valid tab.
type Tab string

const (
	TabAll      Tab = "all"
	TabPending  Tab = "pending"
	TabReachout Tab = "reachout"
	TabDeclined Tab = "declined"
)

type SortKey string

const (
	SortName    SortKey = "name"
	SortDate    SortKey = "date"
	SortStage   SortKey = "stage"
	SortUpdated SortKey = "updated"
)

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

var ErrInvalidParams = errors.New("invalid query parameters")

// Params are the UI's filter, sort and page selections.
type Params struct {
	Tab      Tab     `json:"tab"`
	Search   string  `json:"search,omitempty"`
	Sort     SortKey `json:"sort"`
	Order    Order   `json:"order"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

// WithDefaults fills empty fields: all tab, newest first, first page.
func (p Params) WithDefaults() Params {
	if p.Tab == "" {
		p.Tab = TabAll
	}
	if p.Sort == "" {
		p.Sort = SortDate
	}
	if p.Order == "" {
		p.Order = Desc
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	return p
}

// Validate rejects unknown tabs, sort keys and orders.
func (p Params) Validate() error {
	switch p.Tab {
	case TabAll, TabPending, TabReachout, TabDeclined:
	default:
		if !models.IsKnownStage(models.Stage(p.Tab)) {
			return fmt.Errorf("%w: unknown tab %q", ErrInvalidParams, p.Tab)
		}
	}
	switch p.Sort {
	case SortName, SortDate, SortStage, SortUpdated:
	default:
		return fmt.Errorf("%w: unknown sort %q", ErrInvalidParams, p.Sort)
	}
	if p.Order != Asc && p.Order != Desc {
		return fmt.Errorf("%w: unknown order %q", ErrInvalidParams, p.Order)
	}
	return nil
}

// Tabs lists every selectable tab in display order.
func Tabs() []Tab {
	return []Tab{
		TabAll, TabPending, TabReachout,
		Tab(models.StageConnected), Tab(models.StageFollowedUp), Tab(models.StageUpcomingChat),
		Tab(models.StageUpcomingOnboard), Tab(models.StageOnboarded), TabDeclined,
	}
}

// Item is one row of a result page.
type Item struct {
	Record      models.ContactRecord `json:"record"`
	Set         models.Set           `json:"set"`
	StageLabel  string               `json:"stageLabel"`
	NextStages  []models.StageInfo   `json:"nextStages"`
	FollowUpDue bool                 `json:"followUpDue"`
}

// Result is one page plus the size of the filtered set.
type Result struct {
	Items    []Item `json:"items"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	Pages    int    `json:"pages"`
	PageSize int    `json:"pageSize"`
}

// Run filters, sorts and paginates snap. Out-of-range pages clamp to the
// nearest valid page.
func Run(snap models.Snapshot, p Params, now time.Time) (Result, error) {
	p = p.WithDefaults()
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	rows := Filter(snap, p.Tab, p.Search, now)
	Sort(rows, p.Sort, p.Order)

	res := Result{Total: len(rows), PageSize: p.PageSize, Items: []Item{}}
	res.Pages = (res.Total + p.PageSize - 1) / p.PageSize
	res.Page = p.Page
	if res.Pages > 0 && res.Page > res.Pages {
		res.Page = res.Pages
	}
	if res.Pages == 0 {
		res.Page = 1
	}

	start := (res.Page - 1) * p.PageSize
	end := start + p.PageSize
	if end > len(rows) {
		end = len(rows)
	}
	for _, row := range rows[start:end] {
		res.Items = append(res.Items, NewItem(row, now))
	}
	return res, nil
}

// NewItem decorates a record with its label and action affordances.
func NewItem(row models.Located, now time.Time) Item {
	stage := row.Record.DisplayStage()
	next := models.AllowedNext(stage)
	infos := make([]models.StageInfo, 0, len(next))
	for _, s := range next {
		infos = append(infos, models.StageInfo{Stage: s, Label: models.Label(s), Color: models.Color(s)})
	}
	return Item{
		Record:      row.Record,
		Set:         row.Set,
		StageLabel:  models.Label(stage),
		NextStages:  infos,
		FollowUpDue: row.Record.FollowUpDue(now),
	}
}

// Filter applies the tab and the case-insensitive name/title search.
func Filter(snap models.Snapshot, tab Tab, search string, now time.Time) []models.Located {
	term := strings.ToLower(strings.TrimSpace(search))
	var out []models.Located
	for _, row := range snap.All() {
		if !inTab(row.Record, tab, now) {
			continue
		}
		if term != "" && !matches(row.Record, term) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func inTab(rec models.ContactRecord, tab Tab, now time.Time) bool {
	switch tab {
	case TabAll, "":
		return true
	case TabReachout:
		return rec.FollowUpDue(now)
	case TabDeclined:
		return models.IsDeclined(rec.DisplayStage())
	default:
		return rec.DisplayStage() == models.Stage(tab)
	}
}

func matches(rec models.ContactRecord, term string) bool {
	return strings.Contains(strings.ToLower(rec.Name), term) ||
		strings.Contains(strings.ToLower(rec.Title), term)
}

// Sort orders rows by key. Ties fall back to profile id so the result does
// not depend on map iteration order.
func Sort(rows []models.Located, key SortKey, order Order) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Record, rows[j].Record
		c := compare(a, b, key)
		if c == 0 {
			return a.ProfileID < b.ProfileID
		}
		if order == Asc {
			return c < 0
		}
		return c > 0
	})
}

func compare(a, b models.ContactRecord, key SortKey) int {
	switch key {
	case SortDate:
		return a.ActivityDate().Compare(b.ActivityDate())
	case SortStage:
		return models.StageOrder(a.DisplayStage()) - models.StageOrder(b.DisplayStage())
	case SortUpdated:
		return timeOf(a.LastUpdated).Compare(timeOf(b.LastUpdated))
	default:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}
}

func timeOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
