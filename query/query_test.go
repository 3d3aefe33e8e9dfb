// ABOUTME: Tests for the query/filter layer, stats and follow-up reminders
// ABOUTME: Builds snapshots in memory and checks tab, search, sort and paging
package query

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/outreach/models"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func at(t time.Time) *time.Time { return &t }

func fixture() models.Snapshot {
	snap := models.NewSnapshot()
	snap.Put(models.SetPending, models.ContactRecord{
		ProfileID: "p-ann", Name: "Ann", Title: "Founder", Stage: models.StagePending,
		DateSent: at(now.AddDate(0, 0, -2)),
	})
	snap.Put(models.SetTracked, models.ContactRecord{
		ProfileID: "t-bob", Name: "bob", Title: "Head of Growth", Stage: models.StageConnected,
		DateConnected: at(now.AddDate(0, 0, -20)), FollowUpDate: at(now.AddDate(0, 0, -1)),
		LastUpdated: at(now.AddDate(0, 0, -20)),
	})
	snap.Put(models.SetTracked, models.ContactRecord{
		ProfileID: "t-cat", Name: "Cat", Title: "CTO", Stage: models.StageConnected,
		DateConnected: at(now.AddDate(0, 0, -3)), FollowUpDate: at(now.AddDate(0, 0, 11)),
		LastUpdated: at(now.AddDate(0, 0, -3)),
	})
	snap.Put(models.SetTracked, models.ContactRecord{
		ProfileID: "t-dan", Name: "Dan", Stage: models.StageChatDeclined,
		DateConnected: at(now.AddDate(0, 0, -40)), LastUpdated: at(now.AddDate(0, 0, -1)),
	})
	snap.Put(models.SetTracked, models.ContactRecord{
		ProfileID: "t-eve", Name: "Eve", Title: "growth lead", Stage: models.StageOnboardDeclined,
		DateConnected: at(now.AddDate(0, 0, -30)),
	})
	snap.Put(models.SetTracked, models.ContactRecord{
		ProfileID: "t-fay", Name: "Fay", Stage: models.StageFollowedUp,
		DateConnected: at(now.AddDate(0, 0, -10)), FollowUpDate: at(now.AddDate(0, 0, 4)),
	})
	snap.Put(models.SetTracked, models.ContactRecord{
		ProfileID: "t-gus", Name: "Gus", Stage: models.StageConnected,
	})
	return snap
}

func ids(res Result) []string {
	out := make([]string, 0, len(res.Items))
	for _, it := range res.Items {
		out = append(out, it.Record.ProfileID)
	}
	return out
}

func TestReachoutTab(t *testing.T) {
	res, err := Run(fixture(), Params{Tab: TabReachout, Sort: SortName, Order: Asc}, now)
	require.NoError(t, err)

	assert.Equal(t, []string{"t-bob"}, ids(res))
	assert.True(t, res.Items[0].FollowUpDue)
}

func TestReachoutIncludesFollowUpExactlyNow(t *testing.T) {
	snap := fixture()
	rec := snap.Tracked["t-cat"]
	rec.FollowUpDate = at(now)
	snap.Tracked["t-cat"] = rec

	res, err := Run(snap, Params{Tab: TabReachout, Sort: SortName, Order: Asc}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"t-bob", "t-cat"}, ids(res))
}

func TestStageAndGroupTabs(t *testing.T) {
	snap := fixture()
	cases := map[Tab][]string{
		TabAll:                       {"p-ann", "t-bob", "t-cat", "t-dan", "t-eve", "t-fay", "t-gus"},
		TabPending:                   {"p-ann"},
		TabDeclined:                  {"t-dan", "t-eve"},
		Tab(models.StageConnected):   {"t-bob", "t-cat", "t-gus"},
		Tab(models.StageFollowedUp):  {"t-fay"},
		Tab(models.StageOnboarded):   {},
	}
	for tab, want := range cases {
		t.Run(string(tab), func(t *testing.T) {
			res, err := Run(snap, Params{Tab: tab, Sort: SortName, Order: Asc}, now)
			require.NoError(t, err)
			assert.Equal(t, want, ids(res))
			assert.Equal(t, len(want), res.Total)
		})
	}
}

func TestSearchMatchesNameOrTitleCaseInsensitive(t *testing.T) {
	res, err := Run(fixture(), Params{Search: "GROWTH", Sort: SortName, Order: Asc}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"t-bob", "t-eve"}, ids(res))

	res, err = Run(fixture(), Params{Search: "an", Sort: SortName, Order: Asc}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"p-ann", "t-dan"}, ids(res))
}

func TestSortByNameIgnoresCase(t *testing.T) {
	res, err := Run(fixture(), Params{Tab: Tab(models.StageConnected), Sort: SortName, Order: Desc}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"t-gus", "t-cat", "t-bob"}, ids(res))
}

func TestSortByDateFallsBackToDateSent(t *testing.T) {
	res, err := Run(fixture(), Params{Sort: SortDate, Order: Desc}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"p-ann", "t-cat", "t-fay", "t-bob", "t-eve", "t-dan", "t-gus"}, ids(res))
}

func TestSortByStageUsesPipelineOrder(t *testing.T) {
	res, err := Run(fixture(), Params{Sort: SortStage, Order: Asc}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"p-ann", "t-bob", "t-cat", "t-gus", "t-fay", "t-dan", "t-eve"}, ids(res))
}

func TestSortByUpdatedTiesBreakOnProfileID(t *testing.T) {
	res, err := Run(fixture(), Params{Sort: SortUpdated, Order: Asc}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"p-ann", "t-eve", "t-fay", "t-gus", "t-bob", "t-cat", "t-dan"}, ids(res))
}

func TestPagination(t *testing.T) {
	snap := models.NewSnapshot()
	for i := 0; i < 45; i++ {
		snap.Put(models.SetTracked, models.ContactRecord{
			ProfileID: fmt.Sprintf("id-%02d", i),
			Name:      fmt.Sprintf("Person %02d", i),
			Stage:     models.StageConnected,
		})
	}

	res, err := Run(snap, Params{Sort: SortName, Order: Asc}, now)
	require.NoError(t, err)
	assert.Equal(t, 45, res.Total)
	assert.Equal(t, 3, res.Pages)
	assert.Len(t, res.Items, DefaultPageSize)
	assert.Equal(t, "id-00", res.Items[0].Record.ProfileID)

	res, err = Run(snap, Params{Sort: SortName, Order: Asc, Page: 3}, now)
	require.NoError(t, err)
	assert.Len(t, res.Items, 5)
	assert.Equal(t, "id-40", res.Items[0].Record.ProfileID)

	res, err = Run(snap, Params{Sort: SortName, Order: Asc, Page: 99}, now)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Page)
}

func TestEmptyResult(t *testing.T) {
	res, err := Run(models.NewSnapshot(), Params{}, now)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, 0, res.Pages)
	assert.Equal(t, 1, res.Page)
	assert.NotNil(t, res.Items)
}

func TestInvalidParams(t *testing.T) {
	_, err := Run(fixture(), Params{Tab: "archived"}, now)
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = Run(fixture(), Params{Sort: "age"}, now)
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = Run(fixture(), Params{Order: "sideways"}, now)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestItemsCarryNextStages(t *testing.T) {
	snap := models.NewSnapshot()
	snap.Put(models.SetTracked, models.ContactRecord{ProfileID: "x", Name: "X", Stage: models.StageFollowedUp})
	snap.Put(models.SetTracked, models.ContactRecord{ProfileID: "y", Name: "Y", Stage: "legacy"})

	res, err := Run(snap, Params{Sort: SortName, Order: Asc}, now)
	require.NoError(t, err)

	x := res.Items[0]
	assert.Equal(t, "Followed Up", x.StageLabel)
	require.Len(t, x.NextStages, 2)
	assert.Equal(t, models.StageUpcomingChat, x.NextStages[0].Stage)
	assert.Equal(t, "Chat Declined", x.NextStages[1].Label)

	y := res.Items[1]
	assert.Equal(t, "Connected", y.StageLabel)
	assert.Equal(t, models.Stage("legacy"), y.Record.Stage)
	require.Len(t, y.NextStages, 1)
	assert.Equal(t, models.StageFollowedUp, y.NextStages[0].Stage)
}

func TestComputeStats(t *testing.T) {
	st := ComputeStats(fixture(), now)

	assert.Equal(t, 7, st.Total)
	assert.Equal(t, 1, st.Pending)
	assert.Equal(t, 1, st.ReachoutRequired)
	assert.Equal(t, 2, st.Declined)
	assert.Equal(t, 3, st.ByStage[models.StageConnected])
	assert.Equal(t, 0, st.ByStage[models.StageOnboarded])
	assert.Contains(t, st.ByStage, models.StageUpcomingOnboard)
}

func TestUnknownStageGroupsAsConnected(t *testing.T) {
	snap := fixture()
	snap.Put(models.SetTracked, models.ContactRecord{
		ProfileID: "t-hal", Name: "Hal", Stage: "archived",
		DateConnected: at(now.AddDate(0, 0, -5)),
	})

	res, err := Run(snap, Params{Tab: Tab(models.StageConnected), Sort: SortName, Order: Asc}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"t-bob", "t-cat", "t-gus", "t-hal"}, ids(res))

	res, err = Run(snap, Params{Sort: SortStage, Order: Asc}, now)
	require.NoError(t, err)
	assert.Equal(t, "p-ann", res.Items[0].Record.ProfileID)

	st := ComputeStats(snap, now)
	assert.Equal(t, 8, st.Total)
	assert.Equal(t, 4, st.ByStage[models.StageConnected])
	assert.NotContains(t, st.ByStage, models.Stage("archived"))
}

func TestUpcomingFollowUps(t *testing.T) {
	got := UpcomingFollowUps(fixture(), now, 0, 0)

	require.Len(t, got, 2)
	assert.Equal(t, "t-bob", got[0].ProfileID)
	assert.Equal(t, "t-fay", got[1].ProfileID)

	got = UpcomingFollowUps(fixture(), now, 30*24*time.Hour, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "t-bob", got[0].ProfileID)
}
