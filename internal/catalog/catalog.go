// Package catalog holds the frozen, process-long building data: beacon
// anchors, zone shapes, per-floor original graphs, and priority exit target
// groups. It ships as embedded Go literals (spec §9 "ship as embedded
// immutable data") and additionally knows how to parse the legacy on-disk
// graph/targets file formats for compatibility (spec §6).
package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/navcore/navcore/internal/graph"
	"github.com/navcore/navcore/internal/model"
	"github.com/navcore/navcore/internal/planner"
	"github.com/navcore/navcore/internal/wire"
)

// Catalog is the immutable static building data for one deployment.
type Catalog struct {
	Anchors     []model.Anchor
	Zones       []model.Zone
	graphs      map[model.Floor]graph.OriginalGraph
	nodeOrder   map[model.Floor][]model.Point
	TargetGroups map[model.Floor][]planner.TargetGroup
}

// OriginalGraph returns the immutable original adjacency for floor, and the
// catalog's insertion order for its nodes (used for Nearest's tie-break).
func (c *Catalog) OriginalGraph(floor model.Floor) (graph.OriginalGraph, []model.Point) {
	return c.graphs[floor], c.nodeOrder[floor]
}

// OverrideGraph replaces floor's original graph and node order with one
// parsed from a legacy on-disk file (catalog.graph_files config), for
// deployments that still ship building data in that format instead of
// relying on the embedded default.
func (c *Catalog) OverrideGraph(floor model.Floor, og graph.OriginalGraph, order []model.Point) {
	c.graphs[floor] = og
	c.nodeOrder[floor] = order
}

// addLine adds a chain of consecutive points as a corridor: each consecutive
// pair becomes a symmetric edge. Used to build the embedded default graphs
// without spelling out every adjacency list entry by hand.
func addLine(og graph.OriginalGraph, order *[]model.Point, pts ...model.Point) {
	for _, p := range pts {
		if _, exists := og[p]; !exists {
			og[p] = nil
			*order = append(*order, p)
		}
	}
	for i := 0; i < len(pts)-1; i++ {
		a, b := pts[i], pts[i+1]
		if !containsPoint(og[a], b) {
			og[a] = append(og[a], b)
		}
		if !containsPoint(og[b], a) {
			og[b] = append(og[b], a)
		}
	}
}

func containsPoint(list []model.Point, p model.Point) bool {
	for _, q := range list {
		if q == p {
			return true
		}
	}
	return false
}

// Default builds the compiled-in catalog.
//
// Floor B1's corridor is a single branching tree: a horizontal main corridor
// from (-22,-19) to (18,-19), a vertical stairwell corridor from (18,-19) up
// to (18,17), and a short dead-end alcove off (-18,-19) at (-18,-15).
func Default() *Catalog {
	b1 := graph.OriginalGraph{}
	var b1Order []model.Point

	addLine(b1, &b1Order,
		model.Point{X: -22, Y: -19}, model.Point{X: -18, Y: -19}, model.Point{X: -14, Y: -19},
		model.Point{X: -10, Y: -19}, model.Point{X: -6, Y: -19}, model.Point{X: -2, Y: -19},
		model.Point{X: 2, Y: -19}, model.Point{X: 6, Y: -19}, model.Point{X: 10, Y: -19},
		model.Point{X: 14, Y: -19}, model.Point{X: 18, Y: -19},
	)
	addLine(b1, &b1Order,
		model.Point{X: 18, Y: -19}, model.Point{X: 18, Y: -15}, model.Point{X: 18, Y: -11},
		model.Point{X: 18, Y: -7}, model.Point{X: 18, Y: -3}, model.Point{X: 18, Y: 1},
		model.Point{X: 18, Y: 5}, model.Point{X: 18, Y: 9}, model.Point{X: 18, Y: 13},
		model.Point{X: 18, Y: 17},
	)
	addLine(b1, &b1Order, model.Point{X: -18, Y: -19}, model.Point{X: -18, Y: -15})

	b2 := graph.OriginalGraph{}
	var b2Order []model.Point
	addLine(b2, &b2Order, model.Point{X: 0, Y: 0}, model.Point{X: 10, Y: 0}, model.Point{X: 20, Y: 0})

	f1 := graph.OriginalGraph{}
	var f1Order []model.Point
	addLine(f1, &f1Order, model.Point{X: 0, Y: 0}, model.Point{X: 0, Y: 20}, model.Point{X: 0, Y: 40})

	f4 := graph.OriginalGraph{}
	var f4Order []model.Point
	addLine(f4, &f4Order, model.Point{X: 0, Y: 0}, model.Point{X: -10, Y: 0})

	zones := []model.Zone{
		{
			Name:  "b1-main-corridor",
			Floor: model.FloorB1,
			Shape: model.Shape{Rects: []model.Rectangle{{MinX: -24, MinY: -21, MaxX: 20, MaxY: -17}}},
			Node:  model.Point{X: -18, Y: -19},
		},
		{
			Name:  "b1-stairwell",
			Floor: model.FloorB1,
			Shape: model.Shape{Rects: []model.Rectangle{{MinX: 16, MinY: -21, MaxX: 20, MaxY: 19}}},
			Node:  model.Point{X: 18, Y: 13},
		},
	}

	targets := map[model.Floor][]planner.TargetGroup{
		model.FloorB1: {
			{Priority: 1, Targets: []model.Point{{X: 18, Y: 17}}},
			{Priority: 2, Targets: []model.Point{{X: -18, Y: -15}}},
		},
	}

	return &Catalog{
		Anchors: []model.Anchor{
			{ID: "bc-1", Position: model.Point{X: -20, Y: -19}, Floor: model.FloorB1},
			{ID: "bc-2", Position: model.Point{X: 0, Y: -19}, Floor: model.FloorB1},
			{ID: "bc-3", Position: model.Point{X: 18, Y: 0}, Floor: model.FloorB1},
		},
		Zones: zones,
		graphs: map[model.Floor]graph.OriginalGraph{
			model.FloorB1: b1,
			model.FloorB2: b2,
			model.Floor1F: f1,
			model.Floor4F: f4,
		},
		nodeOrder: map[model.Floor][]model.Point{
			model.FloorB1: b1Order,
			model.FloorB2: b2Order,
			model.Floor1F: f1Order,
			model.Floor4F: f4Order,
		},
		TargetGroups: targets,
	}
}

// LoadGraphFile parses the legacy on-disk graph format: a JSON object
// mapping "(x,y)" strings to arrays of "(x,y)" strings, both directions
// symmetric.
func LoadGraphFile(data []byte) (graph.OriginalGraph, []model.Point, error) {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("catalog: parse graph file: %w", err)
	}

	og := graph.OriginalGraph{}
	var order []model.Point
	for key, neighbors := range raw {
		node, err := wire.ParsePointString(key)
		if err != nil {
			return nil, nil, fmt.Errorf("catalog: graph file key: %w", err)
		}
		if _, exists := og[node]; !exists {
			order = append(order, node)
		}
		for _, n := range neighbors {
			np, err := wire.ParsePointString(n)
			if err != nil {
				return nil, nil, fmt.Errorf("catalog: graph file neighbor: %w", err)
			}
			og[node] = append(og[node], np)
		}
	}
	return og, order, nil
}

// LoadTargetsFile parses the legacy flat JSON-array targets file. The
// result is not merged into a Catalog; the in-catalog priority mapping
// remains the only source of exit targets.
func LoadTargetsFile(data []byte) ([]model.Point, error) {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("catalog: parse targets file: %w", err)
	}
	out := make([]model.Point, 0, len(raw))
	for _, s := range raw {
		p, err := wire.ParsePointString(s)
		if err != nil {
			return nil, fmt.Errorf("catalog: targets file entry: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}
