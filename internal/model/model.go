// Package model defines the shared value types of the positioning core:
// points, beacon anchors, readings, batches, rectangles, shapes, floors, and
// the protocol constants every other package imports instead of redefining.
package model

import (
	"fmt"
	"math"
	"strings"
)

// Point is a planar coordinate in the building's local coordinate system.
type Point struct {
	X float64
	Y float64
}

// String renders a Point in the legacy "(x,y)" form used on the wire and in
// catalog files.
func (p Point) String() string {
	return fmt.Sprintf("(%s,%s)", trimFloat(p.X), trimFloat(p.Y))
}

// trimFloat formats a float without a trailing ".0" noise when it's a whole
// number, matching the original catalog files' mixed int/float key style.
func trimFloat(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// Dist returns the Euclidean distance between two points.
func (p Point) Dist(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Anchor is a fixed beacon with a known position.
type Anchor struct {
	ID       string
	Position Point
	Floor    Floor
}

// Reading is one beacon observation inside an inbound batch.
type Reading struct {
	BeaconID string
	RSSI     float64
	Filtered float64 // filtered RSSI; NaN if not supplied
	Distance float64 // client pre-computed range; NaN if not supplied
}

// Batch is one inbound rssi_batch / ble_readings message payload.
type Batch struct {
	Readings []Reading
	At       float64 // client-reported unix seconds, or 0 to use arrival time
}

// Floor is one of the building's closed set of floors.
type Floor string

const (
	FloorB2 Floor = "B2"
	FloorB1 Floor = "B1"
	Floor1F Floor = "1F"
	Floor4F Floor = "4F"
)

// AllFloors lists the closed set of valid floors, in catalog order.
var AllFloors = []Floor{FloorB2, FloorB1, Floor1F, Floor4F}

// ParseFloor normalizes a floor token, accepting the F1/F4 aliases and any
// case, per spec §3/§6. Returns ok=false for anything outside the closed set.
func ParseFloor(raw string) (Floor, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "B2":
		return FloorB2, true
	case "B1":
		return FloorB1, true
	case "1F", "F1":
		return Floor1F, true
	case "4F", "F4":
		return Floor4F, true
	default:
		return "", false
	}
}

// Rectangle is an axis-aligned box, inclusive of its boundary.
type Rectangle struct {
	MinX, MinY, MaxX, MaxY float64
}

// Contains reports whether p lies within the rectangle's closed boundary.
func (r Rectangle) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Shape is a named zone boundary: a union of one or more rectangles,
// flattened at construction so Contains never recurses (spec §9).
type Shape struct {
	Rects []Rectangle
}

// Contains reports whether p lies in any constituent rectangle.
func (s Shape) Contains(p Point) bool {
	for _, r := range s.Rects {
		if r.Contains(p) {
			return true
		}
	}
	return false
}

// Zone is a named, floor-scoped area with a representative graph node.
type Zone struct {
	Name  string
	Floor Floor
	Shape Shape
	// Node is the representative floor-graph vertex for this zone, used when
	// the observed point doesn't already sit on a known node.
	Node Point
}

// Protocol constants, unchanged from spec §6.
const (
	CountTrigger     = 10
	MaxWindowAgeSec  = 10.0
	RSSIMinValid     = -99.0
	FireDeleteWindow = 5.0 // seconds
	// PathLossReferenceRSSI and PathLossExponent20 implement the fallback
	// distance formula d = 10 ^ ((PathLossReferenceRSSI - measured) / PathLossExponent20).
	PathLossReferenceRSSI = -86.0
	PathLossExponent20    = 20.0
)

// DistanceFromRSSI applies the path-loss fallback formula when a beacon
// reports RSSI but no precomputed distance.
func DistanceFromRSSI(rssi float64) float64 {
	return math.Pow(10, (PathLossReferenceRSSI-rssi)/PathLossExponent20)
}
