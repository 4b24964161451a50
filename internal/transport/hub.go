// Package transport holds the connected-client registry and broadcast
// fan-out for navcore's WebSocket listener.
//
// Each client connection gets a session ID (see internal/session). The Hub
// tracks the live set of connections so that graph mutations and hazard
// state can be broadcast to every connected client, not just the one that
// issued the mutating message.
package transport

import (
	"sync"

	"github.com/gorilla/websocket"
)

// conn wraps a *websocket.Conn with the write-side mutex gorilla's own docs
// require: at most one concurrent writer per connection. Register/Send/
// Broadcast all go through this wrapper so two goroutines (a session's own
// reply and another session's broadcast) never call WriteMessage at once.
type conn struct {
	ws sync.Mutex
	c  *websocket.Conn
}

func (w *conn) write(payload []byte) error {
	w.ws.Lock()
	defer w.ws.Unlock()
	return w.c.WriteMessage(websocket.TextMessage, payload)
}

// Hub is a thread-safe registry of connected WebSocket clients.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]*conn
	onFail func(sessionID string, err error)
}

// NewHub creates an empty Hub. onFail, if non-nil, is invoked for every
// per-recipient send failure during Broadcast; it must not block.
func NewHub(onFail func(sessionID string, err error)) *Hub {
	return &Hub{
		conns:  make(map[string]*conn),
		onFail: onFail,
	}
}

// Register adds a connection under sessionID, replacing any prior entry
// with the same ID.
func (h *Hub) Register(sessionID string, ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[sessionID] = &conn{c: ws}
}

// Unregister removes sessionID from the hub. Safe to call more than once.
func (h *Hub) Unregister(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, sessionID)
}

// Count returns the current number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Send writes payload as a single text message to sessionID, if connected.
// Returns false if the session is not registered.
func (h *Hub) Send(sessionID string, payload []byte) bool {
	h.mu.RLock()
	c, ok := h.conns[sessionID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	if err := c.write(payload); err != nil {
		if h.onFail != nil {
			h.onFail(sessionID, err)
		}
		return false
	}
	return true
}

// Broadcast writes payload to every registered connection. Per-recipient
// failures are reported through onFail and do not abort the fan-out; one
// unreachable client must never block delivery to the rest.
//
// The connection snapshot is taken under the read lock and then iterated
// without holding it, so a slow or blocked client cannot stall Register or
// Unregister on other sessions. Each write is still serialized per
// connection via conn.write, since a concurrent Send to the same session
// can race a Broadcast that reaches it too.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	snapshot := make(map[string]*conn, len(h.conns))
	for id, c := range h.conns {
		snapshot[id] = c
	}
	h.mu.RUnlock()

	for id, c := range snapshot {
		if err := c.write(payload); err != nil {
			if h.onFail != nil {
				h.onFail(id, err)
			}
		}
	}
}
