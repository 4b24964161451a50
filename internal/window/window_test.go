package window

import (
	"math"
	"testing"

	"github.com/navcore/navcore/internal/model"
)

func threeBeaconBatch() model.Batch {
	nan := math.NaN()
	return model.Batch{Readings: []model.Reading{
		{BeaconID: "a", RSSI: -60, Filtered: -61, Distance: nan},
		{BeaconID: "b", RSSI: -65, Filtered: -64, Distance: nan},
		{BeaconID: "c", RSSI: -70, Filtered: -69, Distance: nan},
	}}
}

func TestReadyCountTriggeredNotTimeTriggered(t *testing.T) {
	w := New()
	for i := 0; i < 9; i++ {
		w.Push(threeBeaconBatch(), float64(i))
	}
	if _, ok := w.Ready(10); ok {
		t.Fatal("expected 9 batches to be insufficient")
	}

	w.Push(threeBeaconBatch(), 9)
	top3, ok := w.Ready(10)
	if !ok {
		t.Fatal("expected 10th batch to trigger readiness")
	}
	if top3[0].BeaconID == "" {
		t.Fatal("expected a populated top candidate")
	}

	w.Clear()
	if _, ok := w.Ready(10); ok {
		t.Fatal("expected cleared window to report not ready")
	}

	w.Push(threeBeaconBatch(), 10)
	if _, ok := w.Ready(10); ok {
		t.Fatal("expected single post-clear batch (11th overall) to not be ready")
	}
}

func TestReadyRanksByScoreDescending(t *testing.T) {
	w := New()
	nan := math.NaN()
	for i := 0; i < 10; i++ {
		w.Push(model.Batch{Readings: []model.Reading{
			{BeaconID: "low", RSSI: -90, Filtered: -90, Distance: nan},
			{BeaconID: "high", RSSI: -40, Filtered: -40, Distance: nan},
			{BeaconID: "mid", RSSI: -65, Filtered: -65, Distance: nan},
		}}, float64(i))
	}
	top3, ok := w.Ready(10)
	if !ok {
		t.Fatal("expected readiness")
	}
	if top3[0].BeaconID != "high" || top3[1].BeaconID != "mid" || top3[2].BeaconID != "low" {
		t.Fatalf("unexpected rank order: %+v", top3)
	}
}

func TestPruneDropsStaleEntries(t *testing.T) {
	w := New()
	w.Push(threeBeaconBatch(), 0)
	w.Prune(20, model.MaxWindowAgeSec)
	if _, ok := w.Ready(1); ok {
		t.Fatal("expected pruned window to have no candidates")
	}
}

func TestReadyIgnoresInvalidRSSI(t *testing.T) {
	w := New()
	nan := math.NaN()
	for i := 0; i < 10; i++ {
		w.Push(model.Batch{Readings: []model.Reading{
			{BeaconID: "a", RSSI: -100, Filtered: -100, Distance: nan}, // below RSSIMinValid (-99)
			{BeaconID: "b", RSSI: -50, Filtered: -50, Distance: nan},
			{BeaconID: "c", RSSI: -60, Filtered: -60, Distance: nan},
			{BeaconID: "d", RSSI: -70, Filtered: -70, Distance: nan},
		}}, float64(i))
	}
	top3, ok := w.Ready(10)
	if !ok {
		t.Fatal("expected readiness from the three valid beacons")
	}
	for _, s := range top3 {
		if s.BeaconID == "a" {
			t.Fatal("expected invalid-RSSI beacon to be excluded")
		}
	}
}
