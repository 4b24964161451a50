package wire

import (
	"encoding/json"
	"testing"

	"github.com/navcore/navcore/internal/model"
)

func TestParseNodeArrayForm(t *testing.T) {
	p, err := ParseNode(json.RawMessage(`[1.5, -2]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != (model.Point{X: 1.5, Y: -2}) {
		t.Fatalf("unexpected point: %+v", p)
	}
}

func TestParseNodeStringForm(t *testing.T) {
	p, err := ParseNode(json.RawMessage(`"(-18,-19)"`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != (model.Point{X: -18, Y: -19}) {
		t.Fatalf("unexpected point: %+v", p)
	}
}

func TestParseNodeMalformedStringErrors(t *testing.T) {
	_, err := ParseNode(json.RawMessage(`"not-a-point"`))
	if err == nil {
		t.Fatal("expected an error for a malformed point string")
	}
}

func TestPointRoundTripsThroughString(t *testing.T) {
	p := model.Point{X: -18, Y: -19}
	back, err := ParsePointString(p.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back != p {
		t.Fatalf("round trip mismatch: %+v != %+v", back, p)
	}
}
