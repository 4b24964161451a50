package geometry

import (
	"testing"

	"github.com/navcore/navcore/internal/model"
)

func rect(minX, minY, maxX, maxY float64) model.Shape {
	return model.Shape{Rects: []model.Rectangle{{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}}}
}

func TestContainsBoundaryInclusive(t *testing.T) {
	s := rect(0, 0, 10, 10)
	if !Contains(s, model.Point{X: 0, Y: 0}) {
		t.Fatal("expected corner to be contained")
	}
	if !Contains(s, model.Point{X: 10, Y: 10}) {
		t.Fatal("expected opposite corner to be contained")
	}
	if Contains(s, model.Point{X: 10.0001, Y: 5}) {
		t.Fatal("expected just-outside point to be excluded")
	}
}

func TestClassifyNonStrictFirstMatchWins(t *testing.T) {
	zones := []model.Zone{
		{Name: "lobby", Floor: model.Floor1F, Shape: rect(0, 0, 10, 10)},
		{Name: "lobby-annex", Floor: model.Floor1F, Shape: rect(5, 5, 15, 15)},
	}
	name, ok, overlap := Classify(zones, model.Floor1F, model.Point{X: 7, Y: 7}, false)
	if !ok || overlap {
		t.Fatalf("expected ok without overlap, got ok=%v overlap=%v", ok, overlap)
	}
	if name != "lobby" {
		t.Fatalf("expected first-inserted zone to win, got %q", name)
	}
}

func TestClassifyStrictReportsOverlap(t *testing.T) {
	zones := []model.Zone{
		{Name: "lobby", Floor: model.Floor1F, Shape: rect(0, 0, 10, 10)},
		{Name: "lobby-annex", Floor: model.Floor1F, Shape: rect(5, 5, 15, 15)},
	}
	_, ok, overlap := Classify(zones, model.Floor1F, model.Point{X: 7, Y: 7}, true)
	if ok || !overlap {
		t.Fatalf("expected overlap without ok, got ok=%v overlap=%v", ok, overlap)
	}
}

func TestClassifyNoMatch(t *testing.T) {
	zones := []model.Zone{{Name: "lobby", Floor: model.Floor1F, Shape: rect(0, 0, 10, 10)}}
	_, ok, overlap := Classify(zones, model.Floor1F, model.Point{X: 100, Y: 100}, true)
	if ok || overlap {
		t.Fatalf("expected no match, got ok=%v overlap=%v", ok, overlap)
	}
}

func TestClassifyWrongFloorExcluded(t *testing.T) {
	zones := []model.Zone{{Name: "lobby", Floor: model.FloorB1, Shape: rect(0, 0, 10, 10)}}
	_, ok, _ := Classify(zones, model.Floor1F, model.Point{X: 5, Y: 5}, false)
	if ok {
		t.Fatal("expected floor mismatch to exclude the zone")
	}
}
