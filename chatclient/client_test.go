package chatclient

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsServer is a relay stand-in: it hands every upgraded connection to
// the test, which plays the server side by hand.
type wsServer struct {
	srv      *httptest.Server
	conns    chan *websocket.Conn
	requests atomic.Int32
	reject   atomic.Bool
}

func newWsServer(t *testing.T) *wsServer {
	t.Helper()
	s := &wsServer{conns: make(chan *websocket.Conn, 16)}
	up := websocket.Upgrader{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		if s.reject.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.conns <- conn
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *wsServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *wsServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-s.conns:
		t.Cleanup(func() { conn.Close() })
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("no connection arrived at the server")
		return nil
	}
}

func readJoin(t *testing.T, conn *websocket.Conn, roomID, userID int) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, "join", f.Type)
	assert.Equal(t, roomID, f.RoomID)
	assert.Equal(t, userID, f.UserID)
}

func waitEvent(t *testing.T, events <-chan Event, want EventKind) Event {
	t.Helper()
	select {
	case ev := <-events:
		require.Equal(t, want, ev.Kind)
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s event", want)
		return Event{}
	}
}

func assertNoEvent(t *testing.T, events <-chan Event, window time.Duration) {
	t.Helper()
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %s", ev.Kind)
	case <-time.After(window):
	}
}

func TestReconnectAfterUncleanCloseResendsJoin(t *testing.T) {
	s := newWsServer(t)
	m := NewManager(Options{
		URL:                  s.url(),
		ReconnectDelay:       50 * time.Millisecond,
		MaxReconnectAttempts: 2,
	})
	t.Cleanup(m.CloseAll)

	c := m.Connect(7, 3)

	// Four kill/redial cycles against a budget of two: every successful
	// open must reset the attempt counter or the later cycles would
	// never happen.
	for cycle := 0; cycle < 4; cycle++ {
		server := s.accept(t)
		readJoin(t, server, 7, 3)
		waitEvent(t, c.Events(), EventOpen)
		server.UnderlyingConn().Close() // no close handshake
	}
	server := s.accept(t)
	readJoin(t, server, 7, 3)
	waitEvent(t, c.Events(), EventOpen)

	assert.Equal(t, int32(5), s.requests.Load())
}

func TestReconnectBudgetIsBounded(t *testing.T) {
	s := newWsServer(t)
	s.reject.Store(true)
	m := NewManager(Options{
		URL:                  s.url(),
		ReconnectDelay:       30 * time.Millisecond,
		MaxReconnectAttempts: 2,
	})
	t.Cleanup(m.CloseAll)

	c := m.Connect(7, 3)

	waitEvent(t, c.Events(), EventDisconnected)
	// Initial dial plus two retries, then nothing more.
	assert.Equal(t, int32(3), s.requests.Load())
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(3), s.requests.Load())
	assert.False(t, c.Connected())
}

func TestCleanServerCloseDoesNotReconnect(t *testing.T) {
	s := newWsServer(t)
	m := NewManager(Options{
		URL:            s.url(),
		ReconnectDelay: 30 * time.Millisecond,
	})
	t.Cleanup(m.CloseAll)

	c := m.Connect(7, 3)
	server := s.accept(t)
	readJoin(t, server, 7, 3)
	waitEvent(t, c.Events(), EventOpen)

	deadline := time.Now().Add(time.Second)
	require.NoError(t, server.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "room closed"), deadline))

	require.Eventually(t, func() bool { return !c.Connected() },
		2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), s.requests.Load())
	assertNoEvent(t, c.Events(), 100*time.Millisecond)
}

func TestCloseCancelsPendingReconnect(t *testing.T) {
	s := newWsServer(t)
	s.reject.Store(true)
	m := NewManager(Options{
		URL:                  s.url(),
		ReconnectDelay:       200 * time.Millisecond,
		MaxReconnectAttempts: 5,
	})

	c := m.Connect(7, 3)
	require.Eventually(t, func() bool { return s.requests.Load() >= 1 },
		2*time.Second, 5*time.Millisecond)

	c.Close()
	c.Close() // second close is a no-op

	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, int32(1), s.requests.Load(), "reconnect timer should have been cancelled")
}

func TestManagerConnectReplacesExistingConn(t *testing.T) {
	s := newWsServer(t)
	m := NewManager(Options{URL: s.url(), ReconnectDelay: 30 * time.Millisecond})
	t.Cleanup(m.CloseAll)

	first := m.Connect(7, 3)
	firstServer := s.accept(t)
	readJoin(t, firstServer, 7, 3)
	waitEvent(t, first.Events(), EventOpen)

	second := m.Connect(7, 3)

	// The old connection is shut down with a normal closure, so its
	// server side sees a clean close rather than a dropped socket.
	firstServer.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := firstServer.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	secondServer := s.accept(t)
	readJoin(t, secondServer, 7, 3)
	waitEvent(t, second.Events(), EventOpen)
	assert.False(t, first.Connected())
	assert.True(t, second.Connected())
}

func TestManagerCloseIsIdempotent(t *testing.T) {
	s := newWsServer(t)
	m := NewManager(Options{URL: s.url()})

	m.Close(42) // never connected
	c := m.Connect(7, 3)
	server := s.accept(t)
	readJoin(t, server, 7, 3)
	waitEvent(t, c.Events(), EventOpen)

	m.Close(7)
	m.Close(7)
	assert.False(t, c.Connected())
}

func TestEventDelivery(t *testing.T) {
	s := newWsServer(t)
	m := NewManager(Options{URL: s.url(), ReconnectDelay: 30 * time.Millisecond})
	t.Cleanup(m.CloseAll)

	c := m.Connect(7, 3)
	server := s.accept(t)
	readJoin(t, server, 7, 3)
	waitEvent(t, c.Events(), EventOpen)

	require.NoError(t, server.WriteJSON(serverFrame{
		Type: "message",
		Message: &Message{
			ID: 1, RoomID: 7, UserID: 9, Type: "text",
			Content: "hello", CreatedAt: time.Now(),
		},
	}))
	require.NoError(t, server.WriteJSON(serverFrame{Type: "error", Reason: "message could not be saved"}))
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte("garbage")))
	require.NoError(t, server.WriteJSON(serverFrame{
		Type:    "message",
		Message: &Message{ID: 2, RoomID: 7, UserID: 9, Type: "text", Content: "still works"},
	}))

	ev := waitEvent(t, c.Events(), EventMessage)
	require.NotNil(t, ev.Message)
	assert.Equal(t, "hello", ev.Message.Content)

	ev = waitEvent(t, c.Events(), EventError)
	assert.Equal(t, "message could not be saved", ev.Reason)

	// The unparseable frame is dropped; the next message still arrives.
	ev = waitEvent(t, c.Events(), EventMessage)
	require.NotNil(t, ev.Message)
	assert.Equal(t, 2, ev.Message.ID)
}

func TestSendBeforeConnect(t *testing.T) {
	s := newWsServer(t)
	s.reject.Store(true)
	m := NewManager(Options{
		URL:                  s.url(),
		ReconnectDelay:       30 * time.Millisecond,
		MaxReconnectAttempts: 1,
	})
	t.Cleanup(m.CloseAll)

	c := m.Connect(7, 3)
	err := c.Send("text", "too early", "cid-1")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSendCarriesCorrelationID(t *testing.T) {
	s := newWsServer(t)
	m := NewManager(Options{URL: s.url()})
	t.Cleanup(m.CloseAll)

	c := m.Connect(7, 3)
	server := s.accept(t)
	readJoin(t, server, 7, 3)
	waitEvent(t, c.Events(), EventOpen)

	require.NoError(t, c.Send("text", "hello there", "cid-abc"))

	server.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f frame
	require.NoError(t, server.ReadJSON(&f))
	assert.Equal(t, "message", f.Type)
	assert.Equal(t, 7, f.RoomID)
	assert.Equal(t, 3, f.UserID)
	assert.Equal(t, "text", f.MessageType)
	assert.Equal(t, "hello there", f.Content)
	assert.Equal(t, "cid-abc", f.ClientID)
}
