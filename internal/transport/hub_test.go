package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// wsPair starts an httptest server that upgrades every request and hands
// the server-side *websocket.Conn to onConn, then dials a client against it.
func wsPair(t *testing.T, onConn func(*websocket.Conn)) (*websocket.Conn, *httptest.Server) {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		onConn(conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, srv
}

func TestRegisterUnregisterCount(t *testing.T) {
	h := NewHub(nil)
	var serverConn *websocket.Conn
	var mu sync.Mutex
	client, _ := wsPair(t, func(c *websocket.Conn) {
		mu.Lock()
		serverConn = c
		mu.Unlock()
	})
	_ = client

	time.Sleep(50 * time.Millisecond) // let the upgrade goroutine run
	mu.Lock()
	conn := serverConn
	mu.Unlock()
	require.NotNil(t, conn)

	h.Register("s1", conn)
	require.Equal(t, 1, h.Count())
	h.Unregister("s1")
	require.Equal(t, 0, h.Count())
}

func TestSendDeliversToOneRecipient(t *testing.T) {
	h := NewHub(nil)
	recv := make(chan []byte, 1)
	var serverConn *websocket.Conn
	client, _ := wsPair(t, func(c *websocket.Conn) {
		serverConn = c
	})

	go func() {
		_, data, err := client.ReadMessage()
		if err == nil {
			recv <- data
		}
	}()

	time.Sleep(50 * time.Millisecond)
	h.Register("s1", serverConn)

	require.True(t, h.Send("s1", []byte("hello")))
	require.False(t, h.Send("unknown", []byte("hello")))

	select {
	case data := <-recv:
		require.Equal(t, "hello", string(data))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestBroadcastReachesAllRegisteredAndSurvivesOneFailure(t *testing.T) {
	var failed []string
	var mu sync.Mutex
	h := NewHub(func(sessionID string, err error) {
		mu.Lock()
		failed = append(failed, sessionID)
		mu.Unlock()
	})

	recvA := make(chan []byte, 1)
	var connA *websocket.Conn
	clientA, _ := wsPair(t, func(c *websocket.Conn) { connA = c })
	go func() {
		_, data, err := clientA.ReadMessage()
		if err == nil {
			recvA <- data
		}
	}()

	var connB *websocket.Conn
	clientB, _ := wsPair(t, func(c *websocket.Conn) { connB = c })

	time.Sleep(50 * time.Millisecond)
	h.Register("a", connA)
	h.Register("b", connB)

	// Close b's underlying connection before broadcasting, so its write fails
	// without blocking delivery to a.
	clientB.Close()
	connB.Close()
	time.Sleep(50 * time.Millisecond)

	h.Broadcast([]byte("update"))

	select {
	case data := <-recvA:
		require.Equal(t, "update", string(data))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast to reach the live recipient")
	}
}
