// Package apierr defines the closed set of error kinds this service
// distinguishes, and the propagation policy each one implies (spec §7):
// Infeasible and Overlap are recovered locally and never reach a caller
// outside their owning package; Unknown and Parse cause the offending
// message to be dropped with a logged warning; Blocked and NotFound surface
// to the client as part of a response envelope, never as a panic.
package apierr

import "fmt"

// Kind enumerates the error categories the service reasons about.
type Kind uint8

const (
	// Infeasible: a trilateration direct-mode solve had no valid geometry.
	Infeasible Kind = iota
	// Overlap: a strict zone classification matched more than one zone.
	Overlap
	// Unknown: an inbound message named a floor outside the closed floor set.
	Unknown
	// Parse: an inbound message failed to decode or validate.
	Parse
	// Blocked: a graph node is fire-blocked and cannot be restored.
	Blocked
	// NotFound: a requested floor, node, or session doesn't exist.
	NotFound
)

// String renders the kind for logging.
func (k Kind) String() string {
	switch k {
	case Infeasible:
		return "infeasible"
	case Overlap:
		return "overlap"
	case Unknown:
		return "unknown"
	case Parse:
		return "parse"
	case Blocked:
		return "blocked"
	case NotFound:
		return "not_found"
	default:
		return "unknown_kind"
	}
}

// Error is the structured error type for the kinds above, so call sites can
// branch on Kind without a type assertion per error. File and config parsing
// errors (catalog, config, wire) are plain wrapped fmt.Errorf values.
type Error struct {
	Kind  Kind
	Msg   string
	Floor string
	Node  string
}

func (e *Error) Error() string {
	if e.Floor == "" && e.Node == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s (floor=%s node=%s)", e.Kind, e.Msg, e.Floor, e.Node)
}

// New builds a bare Error of the given kind.
func New(k Kind, msg string) *Error {
	return &Error{Kind: k, Msg: msg}
}

// WithFloor attaches floor context and returns the same error for chaining.
func (e *Error) WithFloor(floor string) *Error {
	e.Floor = floor
	return e
}

// WithNode attaches node context and returns the same error for chaining.
func (e *Error) WithNode(node string) *Error {
	e.Node = node
	return e
}

// Is reports whether err is an *Error of kind k, for use with errors.Is-style
// call sites that only care about the category.
func Is(err error, k Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == k
}
