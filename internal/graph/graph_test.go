package graph

import (
	"testing"

	"github.com/navcore/navcore/internal/apierr"
	"github.com/navcore/navcore/internal/model"
)

func pt(x, y float64) model.Point { return model.Point{X: x, Y: y} }

// sampleOriginal builds a tiny symmetric graph with a node whose original
// neighbors mirror the seed scenario's shape: one node with three original
// neighbors.
func sampleOriginal() (OriginalGraph, []model.Point) {
	a := pt(-14, -19)
	b := pt(-18, -19)
	c := pt(-18, -15)
	d := pt(-22, -19)

	og := OriginalGraph{
		a: {b},
		b: {a, c, d},
		c: {b},
		d: {b},
	}
	order := []model.Point{a, b, c, d}
	return og, order
}

func newTestEngine() *Engine {
	og, order := sampleOriginal()
	return NewEngine(func(model.Floor) (OriginalGraph, []model.Point) {
		return og, order
	})
}

func TestDeleteWithinFireWindowIsSticky(t *testing.T) {
	e := newTestEngine()
	floor := model.FloorB1
	node := pt(-18, -19)

	e.NoteFire(floor, 100)
	e.Delete(floor, node, 102) // within FireDeleteWindow (5s)

	if e.HasNode(floor, node) {
		t.Fatal("expected node to be removed")
	}

	excluded := e.RestoreAll(floor)
	if excluded != 1 {
		t.Fatalf("expected exactly 1 fire-blocked exclusion, got %d", excluded)
	}
	if e.HasNode(floor, node) {
		t.Fatal("expected fire-blocked node to stay excluded after restore_all")
	}

	if err := e.RestoreNode(floor, node); !apierr.Is(err, apierr.Blocked) {
		t.Fatalf("expected Blocked error restoring a fire-blocked node, got %v", err)
	}
}

func TestDeleteWithoutFireIsRestorable(t *testing.T) {
	e := newTestEngine()
	floor := model.FloorB1
	node := pt(-18, -19)

	e.Delete(floor, node, 50) // no prior NoteFire

	if e.HasNode(floor, node) {
		t.Fatal("expected node to be removed")
	}

	excluded := e.RestoreAll(floor)
	if excluded != 0 {
		t.Fatalf("expected no fire-blocked exclusions, got %d", excluded)
	}
	if !e.HasNode(floor, node) {
		t.Fatal("expected non-fire delete to be reversed by restore_all")
	}

	neighbors := []model.Point{pt(-14, -19), pt(-18, -15), pt(-22, -19)}
	for _, nb := range neighbors {
		if !e.HasNode(floor, nb) {
			t.Fatalf("expected original neighbor %v to be present", nb)
		}
	}
}

func TestRestoreNodeOnlyReconnectsPresentNeighbors(t *testing.T) {
	e := newTestEngine()
	floor := model.FloorB1
	center := pt(-18, -19)
	neighborToRemove := pt(-14, -19)

	e.Delete(floor, center, 0)
	e.Delete(floor, neighborToRemove, 0)

	if err := e.RestoreNode(floor, center); err != nil {
		t.Fatalf("unexpected error restoring node: %v", err)
	}
	if !e.HasNode(floor, center) {
		t.Fatal("expected restored node to be present")
	}
	if e.HasNode(floor, neighborToRemove) {
		t.Fatal("expected the still-deleted neighbor to remain absent")
	}
}

func TestBFSUnreachableReturnsInfinity(t *testing.T) {
	e := newTestEngine()
	floor := model.FloorB1
	dist, path := e.BFS(floor, pt(-14, -19), pt(999, 999))
	if path != nil {
		t.Fatalf("expected nil path for unreachable target, got %v", path)
	}
	if dist <= 0 {
		t.Fatalf("expected +Inf distance, got %v", dist)
	}
}

func TestBFSFindsShortestPath(t *testing.T) {
	e := newTestEngine()
	floor := model.FloorB1
	dist, path := e.BFS(floor, pt(-14, -19), pt(-22, -19))
	if len(path) == 0 {
		t.Fatal("expected a reachable path")
	}
	if dist != float64(len(path)-1) {
		t.Fatalf("distance %v should equal edge count of path %v", dist, path)
	}
	if path[0] != pt(-14, -19) || path[len(path)-1] != pt(-22, -19) {
		t.Fatalf("unexpected path endpoints: %v", path)
	}
}
