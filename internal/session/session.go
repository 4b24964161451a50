// Package session implements the per-connection orchestrator (spec §4.G):
// one Session per accepted WebSocket connection, dispatching inbound
// messages into the window/solver/geometry/graph/planner packages and
// broadcasting results through the transport hub. Message handling within
// one session is strictly sequential — there is no interleaving between
// one connection's own messages.
package session

import (
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/navcore/navcore/internal/apierr"
	"github.com/navcore/navcore/internal/catalog"
	"github.com/navcore/navcore/internal/geometry"
	"github.com/navcore/navcore/internal/graph"
	"github.com/navcore/navcore/internal/model"
	"github.com/navcore/navcore/internal/observability"
	"github.com/navcore/navcore/internal/planner"
	"github.com/navcore/navcore/internal/transport"
	"github.com/navcore/navcore/internal/trilateration"
	"github.com/navcore/navcore/internal/wire"
	"github.com/navcore/navcore/internal/window"
)

// Limits bundles the configured protocol constants a Session enforces, so
// tests can exercise non-default values without touching package config.
type Limits struct {
	CountTrigger    int
	MaxWindowAgeSec float64
}

// Clock abstracts "now" as seconds, so tests can drive fixed timestamps
// instead of wall-clock time.
type Clock func() float64

// Session holds all per-connection state: its own window (not shared,
// spec §5), the last floor it reported, and per-floor hazard-node sets it
// has toggled.
type Session struct {
	ID   string
	conn *websocket.Conn
	hub  *transport.Hub
	eng  *graph.Engine
	cat  *catalog.Catalog
	log  *zap.Logger
	mx   *observability.Metrics
	lim  Limits
	now  Clock

	mu          sync.Mutex
	win         *window.Window
	lastFloor   model.Floor
	hazardNodes map[model.Floor]map[model.Point]bool
}

// New creates a Session for an accepted connection and registers it with
// hub under a fresh session ID.
func New(conn *websocket.Conn, hub *transport.Hub, eng *graph.Engine, cat *catalog.Catalog, lim Limits, log *zap.Logger, mx *observability.Metrics) *Session {
	id := uuid.NewString()
	s := &Session{
		ID:          id,
		conn:        conn,
		hub:         hub,
		eng:         eng,
		cat:         cat,
		log:         log.With(zap.String("session_id", id)),
		mx:          mx,
		lim:         lim,
		now:         func() float64 { return float64(time.Now().UnixNano()) / 1e9 },
		win:         window.New(),
		lastFloor:   model.FloorB1,
		hazardNodes: make(map[model.Floor]map[model.Point]bool),
	}
	hub.Register(id, conn)
	if mx != nil {
		mx.SessionsActive.Inc()
	}
	return s
}

// Close unregisters the session from the hub.
func (s *Session) Close() {
	s.hub.Unregister(s.ID)
	if s.mx != nil {
		s.mx.SessionsActive.Dec()
	}
}

// Serve reads messages from the connection until it closes or errors.
func (s *Session) Serve() {
	defer s.Close()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.Handle(data)
	}
}

// Handle dispatches one inbound JSON message. Exported so tests can drive
// it directly without a live WebSocket connection.
func (s *Session) Handle(data []byte) {
	var env wire.Inbound
	if err := json.Unmarshal(data, &env); err != nil {
		s.drop(apierr.Parse, "malformed envelope", err)
		return
	}
	if s.mx != nil {
		s.mx.MessagesProcessedTotal.WithLabelValues(env.Kind).Inc()
	}

	switch env.Kind {
	case "rssi_batch", "ble_readings":
		s.handleBatch(data)
	case "floor_detected":
		s.handleFloorDetected(data)
	case "fire_alert":
		s.handleFireAlert(data)
	case "delete_node", "remove_node", "graph_delete":
		s.handleDeleteNode(data)
	case "restore_node", "graph_restore_node":
		s.handleRestoreNode(data)
	case "restore_graph", "graph_restore":
		s.handleRestoreGraph(data)
	case "hazard":
		s.handleHazard(data)
	default:
		if s.mx != nil {
			s.mx.MessagesDroppedTotal.WithLabelValues("unknown_kind").Inc()
		}
		s.log.Debug("ignoring unrecognized message kind", zap.String("kind", env.Kind))
	}
}

func (s *Session) drop(kind apierr.Kind, msg string, err error) {
	if s.mx != nil {
		s.mx.MessagesDroppedTotal.WithLabelValues(kind.String()).Inc()
	}
	s.log.Warn("dropping inbound message", zap.String("reason", msg), zap.Error(err))
}

// ─── rssi_batch / ble_readings ──────────────────────────────────────────────

func (s *Session) handleBatch(data []byte) {
	var msg wire.RSSIBatch
	if err := json.Unmarshal(data, &msg); err != nil {
		s.drop(apierr.Parse, "rssi_batch decode", err)
		return
	}

	s.mu.Lock()
	if floor, ok := model.ParseFloor(msg.Floor); ok {
		s.lastFloor = floor
	}
	floor := s.lastFloor

	var batch model.Batch
	for _, r := range msg.Samples() {
		reading := model.Reading{BeaconID: r.ID, RSSI: math.NaN(), Filtered: math.NaN(), Distance: math.NaN()}
		if r.RSSI != nil {
			reading.RSSI = *r.RSSI
		}
		if r.Filtered != nil {
			reading.Filtered = *r.Filtered
		}
		if r.Distance != nil {
			reading.Distance = *r.Distance
		}
		batch.Readings = append(batch.Readings, reading)
	}

	now := s.now()
	s.win.Push(batch, now)
	s.win.Prune(now, s.lim.MaxWindowAgeSec)

	top3, ready := s.win.Ready(s.lim.CountTrigger)
	var batchTimestamps []float64
	if ready {
		batchTimestamps = s.win.Timestamps()
		s.win.Clear()
	}
	s.mu.Unlock()

	if !ready {
		return
	}
	if s.mx != nil {
		s.mx.WindowEmissionsTotal.Inc()
	}
	s.recompute(floor, top3, batchTimestamps)
}

func (s *Session) recompute(floor model.Floor, top3 [3]window.Top3Sample, batchTimestamps []float64) {
	var samples [3]trilateration.Sample
	for i, cand := range top3 {
		anchor, ok := s.findAnchor(floor, cand.BeaconID)
		if !ok {
			s.log.Debug("unknown beacon id in top3, skipping recompute",
				zap.String("beacon_id", cand.BeaconID))
			return
		}
		dist := cand.Distance
		if math.IsNaN(dist) {
			base := cand.Filtered
			if math.IsNaN(base) {
				base = cand.RSSI
			}
			dist = model.DistanceFromRSSI(base)
		}
		samples[i] = trilateration.Sample{Anchor: anchor.Position, Dist: dist}
	}

	start := time.Now()
	pos, method, _ := trilateration.Solve(samples, trilateration.Auto)
	if s.mx != nil {
		s.mx.SolverLatency.Observe(time.Since(start).Seconds())
		s.mx.SolverInvocationsTotal.WithLabelValues(method.String()).Inc()
	}

	areaName, ok, overlap := geometry.Classify(s.cat.Zones, floor, pos, true)
	if overlap || !ok {
		areaName, ok, _ = geometry.Classify(s.cat.Zones, floor, pos, false)
	}
	var area *string
	if ok {
		name := areaName
		area = &name
	}

	groups := s.cat.TargetGroups[floor]
	result := planner.BestPath(s.eng, s.cat.Zones, groups, floor, pos.X, pos.Y)

	if s.mx != nil {
		reachable := "false"
		if result.Target != nil {
			reachable = "true"
		}
		s.mx.PathsPlannedTotal.WithLabelValues(reachable).Inc()
	}

	s.broadcastRecompute(floor, pos, method, area, result, top3, batchTimestamps)
}

func (s *Session) findAnchor(floor model.Floor, beaconID string) (model.Anchor, bool) {
	for _, a := range s.cat.Anchors {
		if a.Floor == floor && a.ID == beaconID {
			return a, true
		}
	}
	return model.Anchor{}, false
}

func (s *Session) broadcastRecompute(floor model.Floor, pos model.Point, method trilateration.Method, area *string, result planner.Result, top3 [3]window.Top3Sample, batchTimestamps []float64) {
	out := wire.Recompute{
		Kind:        "recompute",
		Floor:       string(floor),
		SnappedList: [][2]float64{wire.PointToWire(result.Start)},
		BestPath:    wire.PointsToWire(result.Path),
		Note:        "live_update",
		Method:      method.String(),
		Area:        area,
		Debug: wire.DebugInfo{
			TagXY:         wire.PointToWire(pos),
			RecentBatches: batchTimestamps,
		},
	}
	for _, t := range top3 {
		out.Debug.Top3 = append(out.Debug.Top3, wire.Top3Wire{ID: t.BeaconID, Filtered: t.Filtered, RSSI: t.RSSI, Count: t.Count})
	}
	s.broadcast("marshal recompute envelope", out)
}

// ─── floor_detected ──────────────────────────────────────────────────────────

func (s *Session) handleFloorDetected(data []byte) {
	var msg wire.FloorDetected
	if err := json.Unmarshal(data, &msg); err != nil {
		s.drop(apierr.Parse, "floor_detected decode", err)
		return
	}
	floor, ok := model.ParseFloor(msg.Floor)
	if !ok {
		s.drop(apierr.Unknown, "floor_detected unrecognized floor", nil)
		return
	}
	s.mu.Lock()
	s.lastFloor = floor
	s.mu.Unlock()
}

// ─── fire_alert ──────────────────────────────────────────────────────────────

func (s *Session) handleFireAlert(data []byte) {
	var msg wire.FireAlert
	if err := json.Unmarshal(data, &msg); err != nil {
		s.drop(apierr.Parse, "fire_alert decode", err)
		return
	}
	floor, ok := model.ParseFloor(msg.Floor)
	if !ok {
		s.drop(apierr.Unknown, "fire_alert unrecognized floor", nil)
		return
	}

	s.eng.NoteFire(floor, s.now())

	out := wire.FireAlert{
		Kind:       "fire_alert",
		Floor:      string(floor),
		Confidence: msg.Confidence,
		TS:         time.Now().UTC().Format(time.RFC3339),
	}
	s.broadcast("marshal fire_alert rebroadcast", out)
}

// ─── delete_node / restore_node / restore_graph ─────────────────────────────

func (s *Session) handleDeleteNode(data []byte) {
	var msg wire.NodeOp
	if err := json.Unmarshal(data, &msg); err != nil {
		s.drop(apierr.Parse, "delete_node decode", err)
		return
	}
	floor, ok := model.ParseFloor(msg.Floor)
	if !ok {
		s.drop(apierr.Unknown, "delete_node unrecognized floor", nil)
		return
	}
	node, err := wire.ParseNode(msg.Node)
	if err != nil {
		s.drop(apierr.Parse, "delete_node node field", err)
		return
	}

	s.eng.Delete(floor, node, s.now())
	if s.mx != nil {
		s.mx.GraphMutationsTotal.WithLabelValues("delete").Inc()
		s.mx.FireBlockedNodes.WithLabelValues(string(floor)).Set(float64(s.eng.FireBlockedCount(floor)))
	}

	s.sendAck(wire.GraphAck{Kind: "graph_ack", Op: "delete_node", Floor: string(floor), Node: wire.PointToWire(node), OK: true})
	s.recomputeIfReady(floor)
}

func (s *Session) handleRestoreNode(data []byte) {
	var msg wire.NodeOp
	if err := json.Unmarshal(data, &msg); err != nil {
		s.drop(apierr.Parse, "restore_node decode", err)
		return
	}
	floor, ok := model.ParseFloor(msg.Floor)
	if !ok {
		s.drop(apierr.Unknown, "restore_node unrecognized floor", nil)
		return
	}
	node, err := wire.ParseNode(msg.Node)
	if err != nil {
		s.drop(apierr.Parse, "restore_node node field", err)
		return
	}

	restoreErr := s.eng.RestoreNode(floor, node)
	if s.mx != nil {
		s.mx.GraphMutationsTotal.WithLabelValues("restore_node").Inc()
	}

	ack := wire.GraphAck{
		Kind:  "graph_ack",
		Op:    "restore_node",
		Floor: string(floor),
		Node:  wire.PointToWire(node),
		OK:    restoreErr == nil,
	}
	if restoreErr != nil {
		ack.FireRelated = apierr.Is(restoreErr, apierr.Blocked)
	}
	s.sendAck(ack)
	s.recomputeIfReady(floor)
}

func (s *Session) handleRestoreGraph(data []byte) {
	var msg wire.RestoreGraph
	if err := json.Unmarshal(data, &msg); err != nil {
		s.drop(apierr.Parse, "restore_graph decode", err)
		return
	}
	floor, ok := model.ParseFloor(msg.Floor)
	if !ok {
		s.drop(apierr.Unknown, "restore_graph unrecognized floor", nil)
		return
	}

	excluded := s.eng.RestoreAll(floor)
	if s.mx != nil {
		s.mx.GraphMutationsTotal.WithLabelValues("restore_all").Inc()
		s.mx.FireBlockedNodes.WithLabelValues(string(floor)).Set(float64(s.eng.FireBlockedCount(floor)))
	}

	s.sendAck(wire.GraphAck{Kind: "graph_ack", Op: "restore_graph", Floor: string(floor), OK: true, BlockedExcluded: excluded})
	s.recomputeIfReady(floor)
}

func (s *Session) sendAck(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.log.Error("marshal graph_ack", zap.Error(err))
		return
	}
	s.hub.Send(s.ID, payload)
}

func (s *Session) broadcast(errCtx string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.log.Error(errCtx, zap.Error(err))
		return
	}
	s.hub.Broadcast(payload)
}

// recomputeIfReady re-runs the solve/plan/broadcast step from the current
// window contents without clearing it — a graph mutation's recompute is a
// side effect, not a fresh emission (spec §4.G).
func (s *Session) recomputeIfReady(floor model.Floor) {
	s.mu.Lock()
	top3, ready := s.win.Ready(s.lim.CountTrigger)
	var batchTimestamps []float64
	if ready {
		batchTimestamps = s.win.Timestamps()
	}
	s.mu.Unlock()
	if !ready {
		return
	}
	s.recompute(floor, top3, batchTimestamps)
}

// ─── hazard ──────────────────────────────────────────────────────────────────

func (s *Session) handleHazard(data []byte) {
	var msg wire.Hazard
	if err := json.Unmarshal(data, &msg); err != nil {
		s.drop(apierr.Parse, "hazard decode", err)
		return
	}
	floor, ok := model.ParseFloor(msg.Floor)
	if !ok {
		s.drop(apierr.Unknown, "hazard unrecognized floor", nil)
		return
	}
	node, err := wire.ParseNode(msg.Node)
	if err != nil {
		s.drop(apierr.Parse, "hazard node field", err)
		return
	}

	s.mu.Lock()
	set, exists := s.hazardNodes[floor]
	if !exists {
		set = make(map[model.Point]bool)
		s.hazardNodes[floor] = set
	}
	if msg.Active {
		set[node] = true
	} else {
		delete(set, node)
	}
	nodes := make([]model.Point, 0, len(set))
	for p := range set {
		nodes = append(nodes, p)
	}
	s.mu.Unlock()

	out := wire.HazardState{Kind: "hazard_state", Floor: string(floor), HazardNodes: wire.PointsToWire(nodes)}
	s.broadcast("marshal hazard_state", out)
}
