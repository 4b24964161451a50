// Package bench — pathlatency/main.go
//
// Positioning pipeline latency measurement tool.
//
// Measures the wall-clock time of one recompute step — trilateration
// solve plus zone classification plus priority-tiered path planning — as
// it runs inside internal/session on every count-triggered window, using
// the catalog's embedded B1 geometry and a fixed trio of anchor distances.
//
// Method:
//   1. Build the embedded default catalog and a fresh graph engine.
//   2. Repeat N times: time.Now() before, trilateration.Solve +
//      geometry.Classify + planner.BestPath, time.Since() after.
//   3. Bucket each latency into a microsecond histogram.
//   4. Results are written to a CSV file.
//
// Output CSV columns:
//   iteration, latency_us, method
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/navcore/navcore/internal/catalog"
	"github.com/navcore/navcore/internal/geometry"
	"github.com/navcore/navcore/internal/graph"
	"github.com/navcore/navcore/internal/model"
	"github.com/navcore/navcore/internal/planner"
	"github.com/navcore/navcore/internal/trilateration"
)

func main() {
	iterations := flag.Int("iterations", 10000, "Number of recompute steps to measure")
	outputFile := flag.String("output", "pathlatency_raw.csv", "Output CSV file path")
	p99Target := flag.Int("p99-target-us", 2000, "p99 latency target in microseconds; exceeding it fails the run")
	flag.Parse()

	cat := catalog.Default()
	eng := graph.NewEngine(cat.OriginalGraph)
	floor := model.FloorB1

	// Fixed sample set: the three B1 anchors with their exact distances to a
	// point inside the main corridor, so every circle pair intersects and
	// auto mode takes the direct solve.
	samples := [3]trilateration.Sample{
		{Anchor: cat.Anchors[0].Position, Dist: cat.Anchors[0].Position.Dist(model.Point{X: -10, Y: -17})},
		{Anchor: cat.Anchors[1].Position, Dist: cat.Anchors[1].Position.Dist(model.Point{X: -10, Y: -17})},
		{Anchor: cat.Anchors[2].Position, Dist: cat.Anchors[2].Position.Dist(model.Point{X: -10, Y: -17})},
	}
	groups := cat.TargetGroups[floor]

	f, err := os.Create(*outputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	_ = w.Write([]string{"iteration", "latency_us", "method"})

	var (
		directCount int
		p50Bucket   [10001]int // histogram buckets: 0-10000us
	)

	for i := 0; i < *iterations; i++ {
		start := time.Now()

		pos, method, _ := trilateration.Solve(samples, trilateration.Auto)
		areaName, ok, overlap := geometry.Classify(cat.Zones, floor, pos, true)
		if overlap || !ok {
			areaName, _, _ = geometry.Classify(cat.Zones, floor, pos, false)
		}
		_ = areaName
		_ = planner.BestPath(eng, cat.Zones, groups, floor, pos.X, pos.Y)

		latency := time.Since(start)
		if method == trilateration.MethodDirect {
			directCount++
		}

		latencyUs := int(latency.Microseconds())
		if latencyUs < len(p50Bucket) {
			p50Bucket[latencyUs]++
		}

		_ = w.Write([]string{
			strconv.Itoa(i),
			strconv.Itoa(latencyUs),
			method.String(),
		})
	}

	p50, p95, p99 := computePercentiles(p50Bucket[:], *iterations)

	fmt.Printf("Positioning Pipeline Latency Results (%d iterations)\n", *iterations)
	fmt.Printf("  Direct-mode solves: %d/%d (%.1f%%)\n", directCount, *iterations,
		float64(directCount)/float64(*iterations)*100)
	fmt.Printf("  p50: %dus\n", p50)
	fmt.Printf("  p95: %dus\n", p95)
	fmt.Printf("  p99: %dus\n", p99)
	fmt.Printf("  Output: %s\n", *outputFile)

	if p99 > *p99Target {
		fmt.Fprintf(os.Stderr, "FAIL: p99 %dus exceeds %dus target\n", p99, *p99Target)
		os.Exit(1)
	}
}

func computePercentiles(hist []int, total int) (p50, p95, p99 int) {
	targets := []struct {
		pct float64
		out *int
	}{
		{0.50, &p50},
		{0.95, &p95},
		{0.99, &p99},
	}
	cumulative := 0
	ti := 0
	for i, count := range hist {
		cumulative += count
		for ti < len(targets) && float64(cumulative) >= targets[ti].pct*float64(total) {
			*targets[ti].out = i
			ti++
		}
		if ti == len(targets) {
			break
		}
	}
	return
}
