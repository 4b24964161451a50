// Package wire defines the JSON message envelopes exchanged over the
// client↔server WebSocket connection (spec §6), including the legacy
// "(x,y)" point encoding inherited from the original implementation.
// Node identity lives as a model.Point value type everywhere else in this
// module; this package converts it to and from its wire forms (model.Point's
// String method supplies the "(x,y)" text form).
package wire

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/navcore/navcore/internal/model"
)

// Inbound is the generic envelope used to sniff the `kind` discriminant
// before decoding into a kind-specific struct.
type Inbound struct {
	Kind string `json:"kind"`
}

// ReadingWire is one beacon observation as it appears on the wire.
type ReadingWire struct {
	ID       string   `json:"id"`
	RSSI     *float64 `json:"rssi,omitempty"`
	Filtered *float64 `json:"filtered,omitempty"`
	Distance *float64 `json:"distance,omitempty"`
}

// RSSIBatch covers both `rssi_batch` and its `ble_readings` alias; List is
// populated instead of Readings for the latter.
type RSSIBatch struct {
	Kind     string        `json:"kind"`
	Floor    string        `json:"floor"`
	Readings []ReadingWire `json:"readings,omitempty"`
	List     []ReadingWire `json:"list,omitempty"`
}

// Samples returns whichever of Readings/List was populated.
func (b RSSIBatch) Samples() []ReadingWire {
	if len(b.Readings) > 0 {
		return b.Readings
	}
	return b.List
}

// FloorDetected is the `floor_detected` inbound message.
type FloorDetected struct {
	Kind  string `json:"kind"`
	Floor string `json:"floor"`
}

// NodeOp covers delete_node/remove_node/graph_delete, restore_node/
// graph_restore_node — anything carrying {floor, node}.
type NodeOp struct {
	Kind  string          `json:"kind"`
	Floor string          `json:"floor"`
	Node  json.RawMessage `json:"node"`
}

// RestoreGraph covers restore_graph/graph_restore — {floor}.
type RestoreGraph struct {
	Kind  string `json:"kind"`
	Floor string `json:"floor"`
}

// Hazard is the `hazard` inbound message.
type Hazard struct {
	Kind   string          `json:"kind"`
	Floor  string          `json:"floor"`
	Node   json.RawMessage `json:"node"`
	Active bool            `json:"active"`
}

// FireAlert is both the inbound (with optional image) and outbound
// (rebroadcast, image stripped, ts added) shape.
type FireAlert struct {
	Kind       string  `json:"kind"`
	Floor      string  `json:"floor"`
	Confidence float64 `json:"confidence"`
	Image      string  `json:"image,omitempty"`
	TS         string  `json:"ts,omitempty"`
}

// DebugInfo carries the diagnostic payload in a recompute envelope.
type DebugInfo struct {
	Top3          []Top3Wire `json:"top3"`
	TagXY         [2]float64 `json:"tag_xy"`
	RecentBatches []float64  `json:"recent_batches"`
}

// Top3Wire is one ranked beacon candidate on the wire.
type Top3Wire struct {
	ID       string  `json:"id"`
	Filtered float64 `json:"filtered"`
	RSSI     float64 `json:"rssi"`
	Count    int     `json:"count"`
}

// Recompute is the outbound broadcast envelope for a positioning update.
type Recompute struct {
	Kind        string      `json:"kind"`
	Floor       string      `json:"floor"`
	SnappedList [][2]float64 `json:"snapped_list"`
	BestPath    [][2]float64 `json:"best_path"`
	Note        string      `json:"note"`
	Method      string      `json:"method"`
	Area        *string     `json:"area"`
	Debug       DebugInfo   `json:"debug"`
}

// GraphAck acknowledges a node/graph mutation.
type GraphAck struct {
	Kind            string `json:"kind"`
	Op              string `json:"op"`
	Floor           string `json:"floor"`
	Node            [2]float64 `json:"node,omitempty"`
	FireRelated     bool   `json:"fire_related,omitempty"`
	OK              bool   `json:"ok"`
	BlockedExcluded int    `json:"blocked_excluded,omitempty"`
}

// HazardState broadcasts the full current hazard-node set for one floor.
type HazardState struct {
	Kind         string       `json:"kind"`
	Floor        string       `json:"floor"`
	HazardNodes  [][2]float64 `json:"hazard_nodes"`
}

// PointToWire converts a model.Point to its [x,y] wire array form.
func PointToWire(p model.Point) [2]float64 { return [2]float64{p.X, p.Y} }

// PointsToWire converts a slice of points.
func PointsToWire(ps []model.Point) [][2]float64 {
	out := make([][2]float64, len(ps))
	for i, p := range ps {
		out[i] = PointToWire(p)
	}
	return out
}

// ParseNode decodes a `node` field that may be either a `[x,y]` JSON array
// or the legacy `"(x,y)"` string form.
func ParseNode(raw json.RawMessage) (model.Point, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var xy [2]float64
		if err := json.Unmarshal(raw, &xy); err != nil {
			return model.Point{}, fmt.Errorf("wire: parse node array: %w", err)
		}
		return model.Point{X: xy[0], Y: xy[1]}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.Point{}, fmt.Errorf("wire: parse node string: %w", err)
	}
	return ParsePointString(s)
}

// ParsePointString parses the legacy "(x,y)" textual form.
func ParsePointString(s string) (model.Point, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return model.Point{}, fmt.Errorf("wire: malformed point %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.Point{}, fmt.Errorf("wire: malformed point x %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.Point{}, fmt.Errorf("wire: malformed point y %q: %w", s, err)
	}
	return model.Point{X: x, Y: y}, nil
}
