// Package main — cmd/navserver/main.go
//
// navserver entrypoint.
//
// Startup sequence:
//  1. Load and validate config from /etc/navcore/config.yaml.
//  2. Initialise structured logger (zap, JSON format).
//  3. Build the catalog (embedded default, or legacy graph/targets files
//     if configured) and the graph engine.
//  4. Start Prometheus metrics server.
//  5. Start the WebSocket listener, accepting connections into one
//     Session each.
//  6. Block on SIGINT/SIGTERM for graceful shutdown.
//
// Shutdown sequence (on SIGINT/SIGTERM):
//  1. Cancel root context (propagates to the metrics server and listener).
//  2. Close the listener (stops accepting new connections).
//  3. Flush logger.
//  4. Exit 0.
//
// On config validation failure: exit 1 immediately.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/navcore/navcore/internal/catalog"
	"github.com/navcore/navcore/internal/config"
	"github.com/navcore/navcore/internal/graph"
	"github.com/navcore/navcore/internal/model"
	"github.com/navcore/navcore/internal/observability"
	"github.com/navcore/navcore/internal/session"
	"github.com/navcore/navcore/internal/transport"
)

func main() {
	// ── Flags ─────────────────────────────────────────────────────────────────
	configPath := flag.String("config", "/etc/navcore/config.yaml", "Path to config.yaml")
	version := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("navserver %s (commit=%s built=%s)\n",
			config.Version, config.GitCommit, config.BuildTime)
		os.Exit(0)
	}

	// ── Step 1: Load config ───────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: config load failed: %v\n", err)
		os.Exit(1)
	}

	// ── Step 2: Initialise logger ─────────────────────────────────────────────
	log, err := buildLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("navserver starting",
		zap.String("version", config.Version),
		zap.String("commit", config.GitCommit),
		zap.String("built", config.BuildTime),
		zap.String("node_id", cfg.NodeID),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Step 3: Catalog + graph engine ────────────────────────────────────────
	cat, err := loadCatalog(cfg)
	if err != nil {
		log.Fatal("catalog load failed", zap.Error(err))
	}
	eng := graph.NewEngine(cat.OriginalGraph)
	log.Info("catalog loaded", zap.Int("anchors", len(cat.Anchors)), zap.Int("zones", len(cat.Zones)))

	// ── Step 4: Prometheus metrics ────────────────────────────────────────────
	metrics := observability.NewMetrics()
	go func() {
		if err := metrics.ServeMetrics(ctx, cfg.Observability.MetricsAddr); err != nil {
			log.Error("metrics server error", zap.Error(err))
		}
	}()
	log.Info("metrics server started", zap.String("addr", cfg.Observability.MetricsAddr))

	// ── Step 5: WebSocket listener ────────────────────────────────────────────
	hub := transport.NewHub(func(sessionID string, err error) {
		log.Debug("broadcast delivery failed", zap.String("session_id", sessionID), zap.Error(err))
		metrics.BroadcastFailuresTotal.Inc()
	})
	limits := session.Limits{
		CountTrigger:    cfg.Session.CountTrigger,
		MaxWindowAgeSec: cfg.Session.MaxWindowAge.Seconds(),
	}
	srv := newListener(cfg.Transport, hub, eng, cat, limits, log, metrics)

	go func() {
		log.Info("websocket listener started", zap.String("addr", cfg.Transport.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("websocket listener error", zap.Error(err))
		}
	}()

	// ── Step 6: Wait for shutdown signal ──────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", zap.String("signal", sig.String()))

	cancel()
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Warn("listener shutdown error", zap.Error(err))
	}

	log.Info("navserver shutdown complete")
}

// loadCatalog builds the embedded default catalog, then overlays any
// legacy on-disk graph files configured for compatibility. A configured
// targets file is read and parsed but does not change the catalog.
func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	cat := catalog.Default()
	for floorToken, path := range cfg.Catalog.GraphFiles {
		floor, ok := model.ParseFloor(floorToken)
		if !ok {
			return nil, fmt.Errorf("catalog.graph_files: unrecognized floor %q", floorToken)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read graph_files[%s]: %w", floorToken, err)
		}
		og, order, err := catalog.LoadGraphFile(data)
		if err != nil {
			return nil, fmt.Errorf("parse graph_files[%s]: %w", floorToken, err)
		}
		cat.OverrideGraph(floor, og, order)
	}
	if cfg.Catalog.TargetsFile != "" {
		data, err := os.ReadFile(cfg.Catalog.TargetsFile)
		if err != nil {
			return nil, fmt.Errorf("read targets_file: %w", err)
		}
		if _, err := catalog.LoadTargetsFile(data); err != nil {
			return nil, fmt.Errorf("parse targets_file: %w", err)
		}
		// The legacy flat file is only checked for validity; its points are
		// not used, and the in-catalog priority mapping stays authoritative.
	}
	return cat, nil
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// newListener builds the HTTP server that upgrades every request to a
// WebSocket and hands it to a fresh Session.
func newListener(tc config.TransportConfig, hub *transport.Hub, eng *graph.Engine, cat *catalog.Catalog, lim session.Limits, log *zap.Logger, mx *observability.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if hub.Count() >= tc.MaxConnections {
			http.Error(w, "connection limit reached", http.StatusServiceUnavailable)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug("websocket upgrade failed", zap.Error(err))
			return
		}
		sess := session.New(conn, hub, eng, cat, lim, log, mx)
		go sess.Serve()
	})
	return &http.Server{Addr: tc.ListenAddr, Handler: mux}
}

// buildLogger constructs a zap.Logger with the given level and format.
func buildLogger(level, format string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	return cfg.Build()
}
