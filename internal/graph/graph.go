// Package graph implements the floor graph engine (spec §4.E): a per-floor
// undirected adjacency graph with hazard-aware mutation, built on
// katalvlaran/lvlath's thread-safe core.Graph and its bfs package. It layers
// in the sticky fire-blocked status the underlying library has no notion
// of — once a node is fire-blocked it can never be restored within the
// process's lifetime, the same "monotonic, never decays" shape the
// teacher's escalation state machine uses for its terminal state.
package graph

import (
	"math"
	"sync"

	"github.com/katalvlaran/lvlath/bfs"
	"github.com/katalvlaran/lvlath/core"
	"github.com/navcore/navcore/internal/apierr"
	"github.com/navcore/navcore/internal/model"
)

// Status is a node's sticky hazard status. It only ever moves forward, from
// Active to FireBlocked, within one process lifetime.
type Status uint8

const (
	Active Status = iota
	FireBlocked
)

// OriginalGraph is the catalog's immutable per-floor adjacency list, keyed
// and valued by node identity (spec §3 "Original graph").
type OriginalGraph map[model.Point][]model.Point

// floorState holds everything the engine tracks for one floor, guarded by
// its own mutex so floors never contend with each other (spec §5's
// per-floor exclusive section).
type floorState struct {
	mu           sync.Mutex
	original     OriginalGraph
	nodeOrder    []model.Point // catalog insertion order, for tie-breaking
	current      *core.Graph
	fireBlocked  map[model.Point]Status
	recentFireTS float64
	loaded       bool
}

// Engine owns every floor's graph state. It is the single consolidated
// mutable-state value the orchestrator holds (spec §9 "Global mutable
// state"), as opposed to scattered package-level globals.
type Engine struct {
	mu     sync.Mutex // guards the floors map itself, not its entries
	floors map[model.Floor]*floorState
	load   func(model.Floor) (OriginalGraph, []model.Point)
}

// NewEngine builds an Engine that lazily materializes floor graphs via
// loadFn, the catalog's per-floor original-graph accessor. loadFn returns
// both the adjacency map and the catalog's node insertion order, since Go
// map iteration order can't be relied on for the tie-breaking spec §4.E
// requires of Nearest.
func NewEngine(loadFn func(model.Floor) (OriginalGraph, []model.Point)) *Engine {
	return &Engine{floors: make(map[model.Floor]*floorState), load: loadFn}
}

func (e *Engine) state(floor model.Floor) *floorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	fs, ok := e.floors[floor]
	if !ok {
		// No fire noted yet: -Inf keeps every delete outside the fire window.
		fs = &floorState{fireBlocked: make(map[model.Point]Status), recentFireTS: math.Inf(-1)}
		e.floors[floor] = fs
	}
	return fs
}

// Load materializes the current graph for floor from the original graph on
// first use. Idempotent on subsequent calls.
func (e *Engine) Load(floor model.Floor) {
	fs := e.state(floor)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	e.loadLocked(fs, floor)
}

func (e *Engine) loadLocked(fs *floorState, floor model.Floor) {
	if fs.loaded {
		return
	}
	fs.original, fs.nodeOrder = e.load(floor)
	fs.current = buildGraph(fs.original)
	fs.loaded = true
}

func buildGraph(og OriginalGraph) *core.Graph {
	g := core.NewGraph()
	for node := range og {
		_ = g.AddVertex(node.String())
	}
	for node, neighbors := range og {
		for _, nb := range neighbors {
			// HasEdge covers both directions since the graph is undirected;
			// AddEdge's own multi-edge guard would otherwise reject the
			// reciprocal insert from the neighbor's own adjacency list.
			if !g.HasEdge(node.String(), nb.String()) {
				_, _ = g.AddEdge(node.String(), nb.String(), 0)
			}
		}
	}
	return g
}

// Delete removes node and all its edges from floor's current graph. If a
// fire_alert landed on this floor within FireDeleteWindow seconds of now,
// the node is marked fire-blocked and can never be restored. Missing nodes
// are a no-op success, per spec §4.E.
func (e *Engine) Delete(floor model.Floor, node model.Point, now float64) {
	fs := e.state(floor)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	e.loadLocked(fs, floor)

	_ = fs.current.RemoveVertex(node.String())

	if now-fs.recentFireTS <= model.FireDeleteWindow {
		fs.fireBlocked[node] = FireBlocked
	}
}

// RestoreAll overwrites floor's current graph with a fresh copy of the
// original graph, then strips every fire-blocked node from it (both as a
// vertex and from every neighbor list — RemoveVertex already guarantees
// the latter). Returns the number of nodes excluded this way.
func (e *Engine) RestoreAll(floor model.Floor) int {
	fs := e.state(floor)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	e.loadLocked(fs, floor)

	fs.current = buildGraph(fs.original)
	excluded := 0
	for node, status := range fs.fireBlocked {
		if status != FireBlocked {
			continue
		}
		if fs.current.HasVertex(node.String()) {
			_ = fs.current.RemoveVertex(node.String())
			excluded++
		}
	}
	return excluded
}

// RestoreNode reintroduces node with its original neighbor list, but only
// edges to neighbors currently present in the graph. Fails with Blocked if
// the node is fire-blocked.
func (e *Engine) RestoreNode(floor model.Floor, node model.Point) error {
	fs := e.state(floor)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	e.loadLocked(fs, floor)

	if fs.fireBlocked[node] == FireBlocked {
		return apierr.New(apierr.Blocked, "node is fire-blocked").WithNode(node.String())
	}

	_ = fs.current.AddVertex(node.String())
	for _, nb := range fs.original[node] {
		if fs.current.HasVertex(nb.String()) {
			if !fs.current.HasEdge(node.String(), nb.String()) {
				_, _ = fs.current.AddEdge(node.String(), nb.String(), 0)
			}
		}
	}
	return nil
}

// FireBlockedCount returns the current number of sticky fire-blocked nodes
// on floor.
func (e *Engine) FireBlockedCount(floor model.Floor) int {
	fs := e.state(floor)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n := 0
	for _, status := range fs.fireBlocked {
		if status == FireBlocked {
			n++
		}
	}
	return n
}

// NoteFire stamps floor's recent-fire timestamp, opening the fire-delete
// stickiness window for FireDeleteWindow seconds from now.
func (e *Engine) NoteFire(floor model.Floor, now float64) {
	fs := e.state(floor)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.recentFireTS = now
}

// Nearest returns the current graph's vertex closest to point by squared
// Euclidean distance, ties broken by catalog insertion order.
func (e *Engine) Nearest(floor model.Floor, point model.Point) (model.Point, bool) {
	fs := e.state(floor)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	e.loadLocked(fs, floor)

	var best model.Point
	bestDist := -1.0
	found := false
	for _, node := range fs.nodeOrder {
		if !fs.current.HasVertex(node.String()) {
			continue
		}
		dx := node.X - point.X
		dy := node.Y - point.Y
		d := dx*dx + dy*dy
		if !found || d < bestDist {
			best, bestDist, found = node, d, true
		}
	}
	return best, found
}

// HasNode reports whether node currently exists in floor's graph.
func (e *Engine) HasNode(floor model.Floor, node model.Point) bool {
	fs := e.state(floor)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	e.loadLocked(fs, floor)
	return fs.current.HasVertex(node.String())
}

// BFS runs an unweighted shortest-path search from start to target on
// floor's current graph. Unreachable or missing-start both report
// (+Inf, nil), matching spec §4.E.
func (e *Engine) BFS(floor model.Floor, start, target model.Point) (float64, []model.Point) {
	fs := e.state(floor)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	e.loadLocked(fs, floor)

	if !fs.current.HasVertex(start.String()) {
		return math.Inf(1), nil
	}
	result, err := bfs.BFS(fs.current, start.String())
	if err != nil {
		return math.Inf(1), nil
	}
	ids, err := result.PathTo(target.String())
	if err != nil {
		return math.Inf(1), nil
	}
	path := make([]model.Point, 0, len(ids))
	for _, id := range ids {
		p, ok := parsePointKey(id, fs.original)
		if !ok {
			return math.Inf(1), nil
		}
		path = append(path, p)
	}
	return float64(len(path) - 1), path
}

// parsePointKey resolves a string vertex ID back to the model.Point that
// produced it, by scanning the original graph's keys — node identity lives
// as a value type and is only ever serialized at this boundary (spec §9).
func parsePointKey(id string, og OriginalGraph) (model.Point, bool) {
	for node := range og {
		if node.String() == id {
			return node, true
		}
	}
	return model.Point{}, false
}
