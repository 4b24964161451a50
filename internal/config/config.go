// Package config provides configuration loading and validation for navcore.
//
// Configuration file: /etc/navcore/config.yaml (default)
// Schema version: 1
//
// Validation:
//   - All required fields must be present.
//   - Numeric ranges enforced (max connections, ping interval, window age,
//     count trigger, delete window).
//   - Invalid config on startup: the process refuses to start (fatal error).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Version, GitCommit, BuildTime are injected by the build via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Config is the root configuration structure for navcore.
// All fields have defaults; see Defaults() for values.
type Config struct {
	// SchemaVersion must be "1". Future versions will trigger migration.
	SchemaVersion string `yaml:"schema_version"`

	// NodeID is a unique identifier for this navcore instance, logged at
	// startup. Session IDs and metrics do not include it.
	NodeID string `yaml:"node_id"`

	// Transport configures the WebSocket listener.
	Transport TransportConfig `yaml:"transport"`

	// Catalog configures the static building data source.
	Catalog CatalogConfig `yaml:"catalog"`

	// Session configures per-connection window/solver behavior.
	Session SessionConfig `yaml:"session"`

	// Hazard configures fire-alert stickiness.
	Hazard HazardConfig `yaml:"hazard"`

	// Observability configures metrics and logging.
	Observability ObservabilityConfig `yaml:"observability"`
}

// TransportConfig holds WebSocket listener parameters.
type TransportConfig struct {
	// ListenAddr is the HOST:PORT the WebSocket server binds to.
	// Default: 0.0.0.0:8765.
	ListenAddr string `yaml:"listen_addr"`

	// MaxConnections caps simultaneous sessions. Default: 512.
	MaxConnections int `yaml:"max_connections"`

	// PingInterval is the configured transport-level keepalive period.
	// Default: 20s. It is validated at load; the listener and sessions do
	// not read it and send no pings.
	PingInterval time.Duration `yaml:"ping_interval"`

	// PongTimeout is the configured wait for a pong before dropping the
	// connection. Default: 20s. The listener and sessions do not read it;
	// no read deadline or pong handler is set on connections.
	PongTimeout time.Duration `yaml:"pong_timeout"`
}

// CatalogConfig holds the static building data source.
type CatalogConfig struct {
	// GraphFiles maps a floor token to a legacy on-disk graph file that
	// overrides the embedded default graph for that floor. Floors without
	// an entry use the compiled-in catalog. Default: empty.
	GraphFiles map[string]string `yaml:"graph_files"`

	// TargetsFile, if set, names a legacy flat-array targets file. It is
	// parsed at startup and a malformed file refuses to start; its points
	// are not used, and the in-catalog priority mapping stays authoritative.
	TargetsFile string `yaml:"targets_file"`
}

// SessionConfig holds per-connection window/solver parameters.
type SessionConfig struct {
	// CountTrigger is the number of batches that must accumulate per beacon
	// before top3_ready fires. Default: 10.
	CountTrigger int `yaml:"count_trigger"`

	// MaxWindowAge bounds sample staleness. Default: 10s.
	MaxWindowAge time.Duration `yaml:"max_window_age"`

	// RSSIMinValid is the configured validity floor for readings.
	// Default: -99. It is not passed to the sample window, which always
	// discards readings at or below model.RSSIMinValid (-99).
	RSSIMinValid float64 `yaml:"rssi_min_valid"`
}

// HazardConfig holds fire-alert stickiness parameters.
type HazardConfig struct {
	// DeleteWindow is the configured period after a fire_alert in which a
	// delete_node counts as fire-related (and therefore sticky). Default: 5s.
	// It is validated at load but not passed to the graph engine, which
	// always uses model.FireDeleteWindow (5s).
	DeleteWindow time.Duration `yaml:"delete_window"`
}

// ObservabilityConfig holds metrics and logging parameters.
type ObservabilityConfig struct {
	// MetricsAddr is the Prometheus metrics HTTP bind address.
	// Default: 127.0.0.1:9091.
	MetricsAddr string `yaml:"metrics_addr"`

	// LogLevel controls the minimum log level (debug, info, warn, error).
	// Default: info.
	LogLevel string `yaml:"log_level"`

	// LogFormat controls the log output format (json, console).
	// Default: json.
	LogFormat string `yaml:"log_format"`
}

// Defaults returns a Config populated with all default values.
func Defaults() Config {
	hostname, _ := os.Hostname()
	return Config{
		SchemaVersion: "1",
		NodeID:        hostname,
		Transport: TransportConfig{
			ListenAddr:     "0.0.0.0:8765",
			MaxConnections: 512,
			PingInterval:   20 * time.Second,
			PongTimeout:    20 * time.Second,
		},
		Catalog: CatalogConfig{},
		Session: SessionConfig{
			CountTrigger: 10,
			MaxWindowAge: 10 * time.Second,
			RSSIMinValid: -99,
		},
		Hazard: HazardConfig{
			DeleteWindow: 5 * time.Second,
		},
		Observability: ObservabilityConfig{
			MetricsAddr: "127.0.0.1:9091",
			LogLevel:    "info",
			LogFormat:   "json",
		},
	}
}

// Load reads and validates a config file from the given path.
// Returns the merged config (defaults overridden by file values).
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse %q: %w", path, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks all config fields for correctness, collecting every
// violation into one descriptive error rather than failing on the first.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.SchemaVersion != "1" {
		errs = append(errs, fmt.Sprintf("schema_version must be \"1\", got %q", cfg.SchemaVersion))
	}
	if cfg.NodeID == "" {
		errs = append(errs, "node_id must not be empty")
	}
	if cfg.Transport.ListenAddr == "" {
		errs = append(errs, "transport.listen_addr must not be empty")
	}
	if cfg.Transport.MaxConnections < 1 {
		errs = append(errs, fmt.Sprintf("transport.max_connections must be >= 1, got %d", cfg.Transport.MaxConnections))
	}
	if cfg.Transport.PingInterval < time.Second {
		errs = append(errs, fmt.Sprintf("transport.ping_interval must be >= 1s, got %s", cfg.Transport.PingInterval))
	}
	if cfg.Session.CountTrigger < 1 {
		errs = append(errs, fmt.Sprintf("session.count_trigger must be >= 1, got %d", cfg.Session.CountTrigger))
	}
	if cfg.Session.MaxWindowAge <= 0 {
		errs = append(errs, fmt.Sprintf("session.max_window_age must be > 0, got %s", cfg.Session.MaxWindowAge))
	}
	if cfg.Hazard.DeleteWindow <= 0 {
		errs = append(errs, fmt.Sprintf("hazard.delete_window must be > 0, got %s", cfg.Hazard.DeleteWindow))
	}
	if cfg.Observability.MetricsAddr == "" {
		errs = append(errs, "observability.metrics_addr must not be empty")
	}
	switch cfg.Observability.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("observability.log_level must be one of debug/info/warn/error, got %q", cfg.Observability.LogLevel))
	}
	switch cfg.Observability.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("observability.log_format must be json or console, got %q", cfg.Observability.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", joinStrings(errs, "\n  - "))
	}
	return nil
}

// joinStrings joins a slice of strings with a separator.
func joinStrings(ss []string, sep string) string {
	if len(ss) == 0 {
		return ""
	}
	result := ss[0]
	for _, s := range ss[1:] {
		result += sep + s
	}
	return result
}
