package catalog

import (
	"testing"

	"github.com/navcore/navcore/internal/graph"
	"github.com/navcore/navcore/internal/model"
)

func TestDefaultB1BFSMatchesSeedScenario(t *testing.T) {
	cat := Default()
	e := graph.NewEngine(cat.OriginalGraph)

	start := model.Point{X: -22, Y: -19}
	target := model.Point{X: 18, Y: 17}

	dist, path := e.BFS(model.FloorB1, start, target)
	if len(path) == 0 {
		t.Fatal("expected a reachable path")
	}
	if dist < 14 {
		t.Fatalf("expected path length >= 14 edges, got %v", dist)
	}
	if path[1] != (model.Point{X: -18, Y: -19}) {
		t.Fatalf("expected first hop (-18,-19), got %v", path[1])
	}
	if path[len(path)-2] != (model.Point{X: 18, Y: 13}) {
		t.Fatalf("expected last-hop predecessor (18,13), got %v", path[len(path)-2])
	}
}

func TestDefaultB1FireDeleteScenario(t *testing.T) {
	cat := Default()
	e := graph.NewEngine(cat.OriginalGraph)
	node := model.Point{X: -18, Y: -19}

	e.NoteFire(model.FloorB1, 100)
	e.Delete(model.FloorB1, node, 102)
	e.RestoreAll(model.FloorB1)

	if e.HasNode(model.FloorB1, node) {
		t.Fatal("expected fire-blocked node to remain excluded after restore_all")
	}
}

func TestDefaultB1NonFireDeleteRestoresOriginalNeighbors(t *testing.T) {
	cat := Default()
	e := graph.NewEngine(cat.OriginalGraph)
	node := model.Point{X: -18, Y: -19}

	e.Delete(model.FloorB1, node, 50)
	e.RestoreAll(model.FloorB1)

	if !e.HasNode(model.FloorB1, node) {
		t.Fatal("expected non-fire delete to be reversed")
	}
	for _, nb := range []model.Point{{X: -14, Y: -19}, {X: -18, Y: -15}, {X: -22, Y: -19}} {
		if !e.HasNode(model.FloorB1, nb) {
			t.Fatalf("expected original neighbor %v restored", nb)
		}
	}
}
