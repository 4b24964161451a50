// Package planner implements the priority-target path planner (spec §4.F):
// given a resolved position, find the closest reachable exit in the
// highest-priority group that has one. The ascending-then-first-win
// iteration is the same shape as the teacher's severity ladder (lowest
// threshold crossed determines the outcome), just over reachability instead
// of a score.
package planner

import (
	"math"

	"github.com/navcore/navcore/internal/geometry"
	"github.com/navcore/navcore/internal/graph"
	"github.com/navcore/navcore/internal/model"
)

// TargetGroup is one priority tier of candidate exits, evaluated together;
// lower Priority values are consulted first.
type TargetGroup struct {
	Priority int
	Targets  []model.Point
}

// Result is the full four-tuple spec §9's Open Question requires the
// planner to expose, not just start+path.
type Result struct {
	Start    model.Point
	Path     []model.Point
	Target   *model.Point
	Priority int // 0 if Target is nil
	Distance float64
}

// BestPath resolves (x, y) into a start node and searches the priority
// target groups in ascending order, returning the first group's nearest
// reachable candidate.
func BestPath(g *graph.Engine, zones []model.Zone, groups []TargetGroup, floor model.Floor, x, y float64) Result {
	point := model.Point{X: x, Y: y}
	start := resolveStart(g, zones, floor, point)

	for _, group := range groups {
		bestDist := math.Inf(1)
		var bestTarget model.Point
		var bestPath []model.Point
		found := false

		for _, target := range group.Targets {
			if !g.HasNode(floor, target) {
				continue
			}
			dist, path := g.BFS(floor, start, target)
			if math.IsInf(dist, 1) {
				continue
			}
			if dist < bestDist {
				bestDist, bestTarget, bestPath, found = dist, target, path, true
			}
		}

		if found {
			t := bestTarget
			return Result{
				Start:    start,
				Path:     bestPath,
				Target:   &t,
				Priority: group.Priority,
				Distance: bestDist,
			}
		}
	}

	return Result{Start: start, Path: []model.Point{start}, Target: nil}
}

// resolveStart classifies point into a zone (strict, falling back to
// non-strict) and uses its representative node if present in the current
// graph; otherwise snaps to the nearest graph node.
func resolveStart(g *graph.Engine, zones []model.Zone, floor model.Floor, point model.Point) model.Point {
	if name, ok, overlap := geometry.Classify(zones, floor, point, true); ok && !overlap {
		if node, ok := geometry.ZoneNode(zones, floor, name); ok && g.HasNode(floor, node) {
			return node
		}
	} else if name, ok, _ := geometry.Classify(zones, floor, point, false); ok {
		if node, ok := geometry.ZoneNode(zones, floor, name); ok && g.HasNode(floor, node) {
			return node
		}
	}
	if nearest, ok := g.Nearest(floor, point); ok {
		return nearest
	}
	return point
}
