// Package window implements the per-connection sample window (spec §4.D):
// a bounded, age-pruned buffer of inbound batches with count-triggered,
// not time-triggered, Top-3 readiness.
package window

import (
	"math"

	"github.com/navcore/navcore/internal/model"
)

// Top3Sample is one ranked beacon candidate returned by Ready.
type Top3Sample struct {
	BeaconID string
	Filtered float64 // NaN if no valid filtered samples were seen
	RSSI     float64 // NaN if no valid RSSI samples were seen
	Distance float64 // NaN if no client pre-computed distance was seen
	Count    int
}

type entry struct {
	ts       float64
	readings []model.Reading
}

// Window accumulates batches for exactly one connection. It is not
// goroutine-safe by design — each session owns its window exclusively
// (spec §5).
type Window struct {
	entries []entry
}

// New returns an empty Window.
func New() *Window {
	return &Window{}
}

// Push appends batch, stamped with now.
func (w *Window) Push(batch model.Batch, now float64) {
	w.entries = append(w.entries, entry{ts: now, readings: batch.Readings})
}

// Prune drops entries older than maxAge relative to now.
func (w *Window) Prune(now, maxAge float64) {
	kept := w.entries[:0]
	for _, e := range w.entries {
		if now-e.ts <= maxAge {
			kept = append(kept, e)
		}
	}
	w.entries = kept
}

// Clear atomically empties the window. Invoked exactly once after a
// successful Ready emission.
func (w *Window) Clear() {
	w.entries = nil
}

// Timestamps returns the Push timestamps of every batch currently held,
// oldest first. Callers that need this for diagnostics must read it before
// Clear, which drops it along with the readings.
func (w *Window) Timestamps() []float64 {
	ts := make([]float64, len(w.entries))
	for i, e := range w.entries {
		ts[i] = e.ts
	}
	return ts
}

type accum struct {
	sumFiltered   float64
	countFiltered int
	sumRSSI       float64
	countRSSI     int
	sumDistance   float64
	countDistance int
}

// Ready aggregates per-beacon statistics across the current window and
// returns the top three candidates by score, or ok=false if there are
// fewer than three candidates or any of the top three falls under
// minCount.
func (w *Window) Ready(minCount int) (top3 [3]Top3Sample, ok bool) {
	acc := make(map[string]*accum)
	order := make([]string, 0)

	for _, e := range w.entries {
		for _, r := range e.readings {
			a, exists := acc[r.BeaconID]
			if !exists {
				a = &accum{}
				acc[r.BeaconID] = a
				order = append(order, r.BeaconID)
			}
			if r.RSSI > model.RSSIMinValid {
				a.sumRSSI += r.RSSI
				a.countRSSI++
			}
			if !isNaN(r.Filtered) && r.Filtered > model.RSSIMinValid {
				a.sumFiltered += r.Filtered
				a.countFiltered++
			}
			if !isNaN(r.Distance) {
				a.sumDistance += r.Distance
				a.countDistance++
			}
		}
	}

	candidates := make([]Top3Sample, 0, len(order))
	for _, id := range order {
		a := acc[id]
		count := a.countFiltered
		if a.countRSSI > count {
			count = a.countRSSI
		}
		if count == 0 {
			continue
		}
		sample := Top3Sample{BeaconID: id, Count: count}
		if a.countFiltered > 0 {
			sample.Filtered = a.sumFiltered / float64(a.countFiltered)
		} else {
			sample.Filtered = math.NaN()
		}
		if a.countRSSI > 0 {
			sample.RSSI = a.sumRSSI / float64(a.countRSSI)
		} else {
			sample.RSSI = math.NaN()
		}
		if a.countDistance > 0 {
			sample.Distance = a.sumDistance / float64(a.countDistance)
		} else {
			sample.Distance = math.NaN()
		}
		candidates = append(candidates, sample)
	}

	if len(candidates) < 3 {
		return top3, false
	}

	sortByScoreDesc(candidates)

	for i := 0; i < 3; i++ {
		if candidates[i].Count < minCount {
			return top3, false
		}
	}

	copy(top3[:], candidates[:3])
	return top3, true
}

func score(s Top3Sample) float64 {
	if !isNaN(s.Filtered) {
		return s.Filtered
	}
	return s.RSSI
}

func sortByScoreDesc(c []Top3Sample) {
	// Small fixed-size insertion sort; the window rarely holds more than a
	// handful of distinct beacons per batch.
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && score(c[j]) > score(c[j-1]); j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}

func isNaN(f float64) bool { return math.IsNaN(f) }
