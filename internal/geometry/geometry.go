// Package geometry implements the shape engine (spec §4.B): point-in-shape
// containment and zone classification, including the strict-overlap retry
// behavior the session orchestrator relies on.
package geometry

import "github.com/navcore/navcore/internal/model"

// Contains reports whether point lies within shape.
func Contains(shape model.Shape, point model.Point) bool {
	return shape.Contains(point)
}

// Classify searches zones for those on floor whose shape contains point.
//
// In strict mode, more than one match reports overlap=true and ok=false;
// the caller is expected to retry non-strict. In non-strict mode the first
// match in catalog order wins and overlap is never set — per spec §4.B/§9,
// this retry is silent, no warning is logged anywhere in this package.
func Classify(zones []model.Zone, floor model.Floor, point model.Point, strict bool) (name string, ok bool, overlap bool) {
	matchName := ""
	matches := 0
	for _, z := range zones {
		if z.Floor != floor {
			continue
		}
		if !z.Shape.Contains(point) {
			continue
		}
		matches++
		if matches == 1 {
			matchName = z.Name
		}
		if !strict {
			return z.Name, true, false
		}
	}
	if matches == 0 {
		return "", false, false
	}
	if strict && matches > 1 {
		return "", false, true
	}
	return matchName, true, false
}

// ZoneNode returns the representative graph node for the named zone, if it
// exists on the given floor.
func ZoneNode(zones []model.Zone, floor model.Floor, name string) (model.Point, bool) {
	for _, z := range zones {
		if z.Floor == floor && z.Name == name {
			return z.Node, true
		}
	}
	return model.Point{}, false
}
