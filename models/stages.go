// ABOUTME: Pipeline stage graph definition
// ABOUTME: Static stage nodes, display metadata and advisory forward transitions
package models

// Stage is a node in the outreach pipeline.
type Stage string

const (
	StagePending         Stage = "pending"
	StageConnected       Stage = "connected"
	StageFollowedUp      Stage = "followedUp"
	StageUpcomingChat    Stage = "upcomingChat"
	StageChatDeclined    Stage = "chatDeclined"
	StageUpcomingOnboard Stage = "upcomingOnboard"
	StageOnboardDeclined Stage = "onboardDeclined"
	StageOnboarded       Stage = "onboarded"
)

// StageInfo is the display metadata and outgoing edges of one stage.
type StageInfo struct {
	Stage Stage   `json:"stage"`
	Label string  `json:"label"`
	Color string  `json:"color"`
	Next  []Stage `json:"next"`
}

// stageGraph is ordered; the order is the pipeline order used for sorting.
var stageGraph = []StageInfo{
	{Stage: StagePending, Label: "Pending", Color: "#fff3cd", Next: []Stage{StageConnected}},
	{Stage: StageConnected, Label: "Connected", Color: "#d4edda", Next: []Stage{StageFollowedUp}},
	{Stage: StageFollowedUp, Label: "Followed Up", Color: "#cce5ff", Next: []Stage{StageUpcomingChat, StageChatDeclined}},
	{Stage: StageUpcomingChat, Label: "Chat Booked", Color: "#b3d9ff", Next: []Stage{StageUpcomingOnboard, StageOnboardDeclined}},
	{Stage: StageChatDeclined, Label: "Chat Declined", Color: "#f8d7da"},
	{Stage: StageUpcomingOnboard, Label: "Potential Onboard", Color: "#d1ecf1", Next: []Stage{StageOnboarded, StageOnboardDeclined}},
	{Stage: StageOnboardDeclined, Label: "Onboard Declined", Color: "#f8d7da"},
	{Stage: StageOnboarded, Label: "Onboarded", Color: "#d4edda"},
}

var stageIndex = func() map[Stage]int {
	idx := make(map[Stage]int, len(stageGraph))
	for i, info := range stageGraph {
		idx[info.Stage] = i
	}
	return idx
}()

// Stages returns every stage in pipeline order.
func Stages() []Stage {
	out := make([]Stage, len(stageGraph))
	for i, info := range stageGraph {
		out[i] = info.Stage
	}
	return out
}

// StageGraph returns a copy of the full graph in pipeline order.
func StageGraph() []StageInfo {
	out := make([]StageInfo, len(stageGraph))
	for i, info := range stageGraph {
		info.Next = append([]Stage(nil), info.Next...)
		out[i] = info
	}
	return out
}

// IsKnownStage reports whether s is a node of the graph.
func IsKnownStage(s Stage) bool {
	_, ok := stageIndex[s]
	return ok
}

// AllowedNext returns the ordered forward stages of s. Unknown and terminal
// stages yield an empty slice.
func AllowedNext(s Stage) []Stage {
	i, ok := stageIndex[s]
	if !ok {
		return []Stage{}
	}
	return append([]Stage{}, stageGraph[i].Next...)
}

// Label returns the display label of s, or "" for an unknown stage.
func Label(s Stage) string {
	i, ok := stageIndex[s]
	if !ok {
		return ""
	}
	return stageGraph[i].Label
}

// Color returns the display color of s, or "" for an unknown stage.
func Color(s Stage) string {
	i, ok := stageIndex[s]
	if !ok {
		return ""
	}
	return stageGraph[i].Color
}

// IsTerminal is true iff s has no outgoing edges.
func IsTerminal(s Stage) bool {
	return len(AllowedNext(s)) == 0
}

// IsLegalTransition reports whether to is one of the edges leaving from.
func IsLegalTransition(from, to Stage) bool {
	for _, next := range AllowedNext(from) {
		if next == to {
			return true
		}
	}
	return false
}

// StageOrder is the position of s in the pipeline, -1 when unknown.
func StageOrder(s Stage) int {
	i, ok := stageIndex[s]
	if !ok {
		return -1
	}
	return i
}

// IsDeclined groups the two declined terminal stages.
func IsDeclined(s Stage) bool {
	return s == StageChatDeclined || s == StageOnboardDeclined
}
