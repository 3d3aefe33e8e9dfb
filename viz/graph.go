// ABOUTME: Pipeline stage graph generation
// ABOUTME: Renders the stage graph with per-stage record counts as GraphViz DOT
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/outreach/models"
)

// Graph is a rendered pipeline graph plus its shape.
type Graph struct {
	DOT       string
	NodeCount int
	EdgeCount int
}

// PipelineGraph draws every stage of the pipeline, labelled with the number
// of records currently in it, and an edge for every forward transition.
// A nil counts map draws the bare stage graph.
func PipelineGraph(ctx context.Context, counts map[models.Stage]int) (*Graph, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetLabel("Outreach Pipeline")
	graph.SetRankDir(cgraph.LRRank)

	stages := models.StageGraph()
	nodes := make(map[models.Stage]*cgraph.Node, len(stages))
	for _, info := range stages {
		node, err := graph.CreateNodeByName(string(info.Stage))
		if err != nil {
			return nil, fmt.Errorf("failed to create stage node: %w", err)
		}
		label := info.Label
		if counts != nil {
			label = fmt.Sprintf("%s (%d)", info.Label, counts[info.Stage])
		}
		node.SetLabel(label)
		node.SetShape("box")
		if models.IsTerminal(info.Stage) {
			node.SetStyle("filled,bold")
		} else {
			node.SetStyle("filled")
		}
		node.SetFillColor(info.Color)
		nodes[info.Stage] = node
	}

	edges := 0
	for _, info := range stages {
		for _, next := range info.Next {
			edge, err := graph.CreateEdgeByName(fmt.Sprintf("%s_%s", info.Stage, next), nodes[info.Stage], nodes[next])
			if err != nil {
				return nil, fmt.Errorf("failed to create edge: %w", err)
			}
			if models.IsDeclined(next) {
				edge.SetStyle("dashed")
			}
			edges++
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("failed to render graph: %w", err)
	}

	return &Graph{DOT: buf.String(), NodeCount: len(nodes), EdgeCount: edges}, nil
}
