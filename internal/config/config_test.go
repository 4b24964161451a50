package config

import (
	"strings"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := Validate(&cfg); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestValidateCollectsMultipleErrors(t *testing.T) {
	cfg := Defaults()
	cfg.SchemaVersion = "2"
	cfg.NodeID = ""
	cfg.Transport.MaxConnections = 0

	err := Validate(&cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"schema_version", "node_id", "transport.max_connections"} {
		if !strings.Contains(err.Error(), field) {
			t.Fatalf("expected the error to report %s, got %v", field, err)
		}
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.Observability.LogLevel = "verbose"
	if err := Validate(&cfg); err == nil {
		t.Fatal("expected an error for an unrecognized log level")
	}
}
