// Package observability — metrics.go
//
// Prometheus metrics for navcore.
//
// Endpoint: GET /metrics on 127.0.0.1:9091 (configurable).
// Format: Prometheus text exposition format (OpenMetrics compatible).
// Bind: loopback only — no external exposure.
//
// Metric naming convention: navcore_<subsystem>_<name>_<unit>
//
// All metrics are registered on a dedicated prometheus.Registry (not the
// default global registry) to avoid collisions with other instrumented
// libraries in the same process.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metric descriptors for navcore.
type Metrics struct {
	registry *prometheus.Registry

	// ─── Sessions ─────────────────────────────────────────────────────────────

	// SessionsActive is the current number of connected client sessions.
	SessionsActive prometheus.Gauge

	// MessagesProcessedTotal counts inbound messages handled, by kind.
	MessagesProcessedTotal *prometheus.CounterVec

	// MessagesDroppedTotal counts inbound messages dropped, by reason
	// (unknown_kind, parse, unknown).
	MessagesDroppedTotal *prometheus.CounterVec

	// ─── Sample window ────────────────────────────────────────────────────────

	// WindowEmissionsTotal counts successful top3_ready emissions.
	WindowEmissionsTotal prometheus.Counter

	// ─── Solver ───────────────────────────────────────────────────────────────

	// SolverInvocationsTotal counts trilateration solves, by method used
	// (direct, least_squares).
	SolverInvocationsTotal *prometheus.CounterVec

	// SolverLatency records solver wall-clock latency.
	SolverLatency prometheus.Histogram

	// ─── Graph engine ─────────────────────────────────────────────────────────

	// GraphMutationsTotal counts graph mutations, by op (delete, restore_all,
	// restore_node).
	GraphMutationsTotal *prometheus.CounterVec

	// FireBlockedNodes is the current number of sticky fire-blocked nodes,
	// by floor.
	FireBlockedNodes *prometheus.GaugeVec

	// ─── Planner ──────────────────────────────────────────────────────────────

	// PathsPlannedTotal counts best_path invocations, by whether a target
	// was reachable.
	PathsPlannedTotal *prometheus.CounterVec

	// ─── Broadcast ────────────────────────────────────────────────────────────

	// BroadcastFailuresTotal counts per-recipient broadcast send failures.
	BroadcastFailuresTotal prometheus.Counter

	// ─── Process ──────────────────────────────────────────────────────────────

	// UptimeSeconds is the number of seconds since the process started.
	UptimeSeconds prometheus.Gauge

	startTime time.Time
}

// NewMetrics creates and registers all navcore Prometheus metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "navcore",
			Subsystem: "session",
			Name:      "active",
			Help:      "Current number of connected client sessions.",
		}),

		MessagesProcessedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navcore",
			Subsystem: "session",
			Name:      "messages_processed_total",
			Help:      "Total inbound messages handled, by kind.",
		}, []string{"kind"}),

		MessagesDroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navcore",
			Subsystem: "session",
			Name:      "messages_dropped_total",
			Help:      "Total inbound messages dropped, by reason.",
		}, []string{"reason"}),

		WindowEmissionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "navcore",
			Subsystem: "window",
			Name:      "emissions_total",
			Help:      "Total successful top3_ready emissions.",
		}),

		SolverInvocationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navcore",
			Subsystem: "solver",
			Name:      "invocations_total",
			Help:      "Total trilateration solves, by method used.",
		}, []string{"method"}),

		SolverLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "navcore",
			Subsystem: "solver",
			Name:      "latency_seconds",
			Help:      "Trilateration solver wall-clock latency.",
			Buckets:   prometheus.DefBuckets,
		}),

		GraphMutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navcore",
			Subsystem: "graph",
			Name:      "mutations_total",
			Help:      "Total graph mutations, by operation.",
		}, []string{"op"}),

		FireBlockedNodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "navcore",
			Subsystem: "graph",
			Name:      "fire_blocked_nodes",
			Help:      "Current number of sticky fire-blocked nodes, by floor.",
		}, []string{"floor"}),

		PathsPlannedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navcore",
			Subsystem: "planner",
			Name:      "paths_planned_total",
			Help:      "Total best_path invocations, by reachability.",
		}, []string{"reachable"}),

		BroadcastFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "navcore",
			Subsystem: "transport",
			Name:      "broadcast_failures_total",
			Help:      "Total per-recipient broadcast send failures.",
		}),

		UptimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "navcore",
			Subsystem: "process",
			Name:      "uptime_seconds",
			Help:      "Number of seconds since the process started.",
		}),
	}

	reg.MustRegister(
		m.SessionsActive,
		m.MessagesProcessedTotal,
		m.MessagesDroppedTotal,
		m.WindowEmissionsTotal,
		m.SolverInvocationsTotal,
		m.SolverLatency,
		m.GraphMutationsTotal,
		m.FireBlockedNodes,
		m.PathsPlannedTotal,
		m.BroadcastFailuresTotal,
		m.UptimeSeconds,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

// ServeMetrics starts the Prometheus HTTP metrics server on addr. Blocks
// until ctx is cancelled or the server fails.
func (m *Metrics) ServeMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go m.updateUptime(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server on %s: %w", addr, err)
	}
	return nil
}

func (m *Metrics) updateUptime(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.UptimeSeconds.Set(time.Since(m.startTime).Seconds())
		case <-ctx.Done():
			return
		}
	}
}
