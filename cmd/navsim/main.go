// Package main — cmd/navsim/main.go
//
// navsim: synthetic mobile-client simulator.
//
// Purpose: exercise a live navserver without real BLE hardware. navsim
// walks a fixed waypoint path, computes the true RSSI each configured
// anchor would observe at every step from the inverse of the path-loss
// formula, adds Gaussian jitter, and streams rssi_batch frames over a
// WebSocket connection at a fixed rate — the same role a phone's BLE scan
// loop plays against the real server.
//
// Usage:
//   navsim [flags]
//   navsim -addr ws://127.0.0.1:8765/ws -floor B1 -steps 200 -rate 5
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/navcore/navcore/internal/model"
)

func main() {
	addr := flag.String("addr", "ws://127.0.0.1:8765/ws", "navserver WebSocket URL")
	floor := flag.String("floor", "B1", "Floor token to report")
	steps := flag.Int("steps", 200, "Number of simulated scan steps")
	rate := flag.Float64("rate", 5.0, "Scans per second")
	jitter := flag.Float64("jitter", 2.0, "RSSI jitter standard deviation (dB)")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	waypoints := defaultPath()
	anchors := defaultAnchors()

	conn, _, err := websocket.DefaultDialer.Dial(*addr, http.Header{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: dial %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	period := time.Duration(float64(time.Second) / *rate)
	tick := time.NewTicker(period)
	defer tick.Stop()

	for i := 0; i < *steps; i++ {
		pos := waypoints[i%len(waypoints)]
		frame := buildBatch(*floor, pos, anchors, rng, *jitter)
		if err := conn.WriteJSON(frame); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: write frame %d: %v\n", i, err)
			os.Exit(1)
		}
		fmt.Printf("step=%d pos=(%.1f,%.1f)\n", i, pos.X, pos.Y)
		<-tick.C
	}
}

type batchWire struct {
	Kind     string         `json:"kind"`
	Floor    string         `json:"floor"`
	Readings []readingWire  `json:"readings"`
}

type readingWire struct {
	ID   string  `json:"id"`
	RSSI float64 `json:"rssi"`
}

// buildBatch computes the RSSI every anchor would observe at pos, applying
// the inverse of model.DistanceFromRSSI and adding Gaussian jitter — the
// same normal-jitter technique the dominance simulator uses for its
// anomaly-score sampling, adapted from a scalar signal to a per-anchor one.
func buildBatch(floor string, pos model.Point, anchors []model.Anchor, rng *rand.Rand, jitterStdDev float64) batchWire {
	readings := make([]readingWire, 0, len(anchors))
	for _, a := range anchors {
		if a.Floor != model.Floor(floor) {
			continue
		}
		dist := pos.Dist(a.Position)
		if dist < 0.1 {
			dist = 0.1
		}
		rssi := model.PathLossReferenceRSSI - model.PathLossExponent20*math.Log10(dist)
		rssi += rng.NormFloat64() * jitterStdDev
		readings = append(readings, readingWire{ID: a.ID, RSSI: rssi})
	}
	return batchWire{Kind: "rssi_batch", Floor: floor, Readings: readings}
}

// defaultAnchors mirrors the catalog's embedded B1 beacons, so navsim works
// against a navserver running with its default (unconfigured) catalog.
func defaultAnchors() []model.Anchor {
	return []model.Anchor{
		{ID: "bc-1", Position: model.Point{X: -20, Y: -19}, Floor: model.FloorB1},
		{ID: "bc-2", Position: model.Point{X: 0, Y: -19}, Floor: model.FloorB1},
		{ID: "bc-3", Position: model.Point{X: 18, Y: 0}, Floor: model.FloorB1},
	}
}

// defaultPath walks the B1 main corridor from one end to the stairwell and
// back, matching the catalog's embedded corridor geometry.
func defaultPath() []model.Point {
	return []model.Point{
		{X: -20, Y: -19}, {X: -14, Y: -19}, {X: -6, Y: -19}, {X: 2, Y: -19},
		{X: 10, Y: -19}, {X: 18, Y: -19}, {X: 18, Y: -7}, {X: 18, Y: 5}, {X: 18, Y: 13},
		{X: 18, Y: 5}, {X: 18, Y: -7}, {X: 18, Y: -19}, {X: 10, Y: -19}, {X: 2, Y: -19},
		{X: -6, Y: -19}, {X: -14, Y: -19},
	}
}
