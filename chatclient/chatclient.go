// Package chatclient is a Go client for the chat relay at /ws. It
// mirrors what the web frontend does: one logical connection per room
// with bounded reconnection, plus a deduplicating message feed with
// optimistic local echo.
package chatclient

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultReconnectDelay = 2 * time.Second
	defaultMaxReconnects  = 5
	defaultEventBuffer    = 64
)

var ErrNotConnected = errors.New("chatclient: not connected")

// Message mirrors the server's wire shape for a persisted message.
type Message struct {
	ID        int       `json:"id"`
	RoomID    int       `json:"roomId"`
	UserID    int       `json:"userId"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	ClientID  string    `json:"clientId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type frame struct {
	Type        string `json:"type"`
	RoomID      int    `json:"roomId,omitempty"`
	UserID      int    `json:"userId,omitempty"`
	MessageType string `json:"messageType,omitempty"`
	Content     string `json:"content,omitempty"`
	ClientID    string `json:"clientId,omitempty"`
}

type serverFrame struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

type EventKind string

const (
	// EventOpen fires once per successful (re)connect, after the join
	// frame has been sent.
	EventOpen EventKind = "open"

	// EventMessage carries a broadcast message from the room.
	EventMessage EventKind = "message"

	// EventError carries an error frame addressed to this connection.
	EventError EventKind = "error"

	// EventDisconnected fires when the reconnect budget is exhausted;
	// the connection is dead for good and the UI should say so.
	EventDisconnected EventKind = "disconnected"
)

type Event struct {
	Kind    EventKind
	Message *Message
	Reason  string
}

// Options configures a Manager. Zero fields fall back to defaults.
type Options struct {
	// URL of the websocket endpoint, e.g. ws://host/ws.
	URL string

	// Header is attached to the upgrade request (session cookie).
	Header http.Header

	// ReconnectDelay is the fixed wait between reconnect attempts.
	ReconnectDelay time.Duration

	// MaxReconnectAttempts bounds consecutive failed reconnects.
	MaxReconnectAttempts int

	EventBuffer int
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	if opts.MaxReconnectAttempts <= 0 {
		opts.MaxReconnectAttempts = defaultMaxReconnects
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = defaultEventBuffer
	}
	return opts
}

// Manager is the process-wide registry of logical connections, keyed
// by room id. At most one live Conn exists per room: connecting a room
// that already has one tears the old one down first.
type Manager struct {
	opts Options

	mu    sync.Mutex
	conns map[int]*Conn
}

func NewManager(opts Options) *Manager {
	return &Manager{
		opts:  opts.withDefaults(),
		conns: make(map[int]*Conn),
	}
}

// Connect creates the logical connection for a room and starts dialing
// in the background. Any previous connection for the room is closed.
func (m *Manager) Connect(roomID, userID int) *Conn {
	m.mu.Lock()
	if old := m.conns[roomID]; old != nil {
		old.Close()
	}
	c := newConn(m.opts, roomID, userID)
	m.conns[roomID] = c
	m.mu.Unlock()

	go c.dial()
	return c
}

// Close tears down the room's connection, if any. Safe to call any
// number of times.
func (m *Manager) Close(roomID int) {
	m.mu.Lock()
	c := m.conns[roomID]
	delete(m.conns, roomID)
	m.mu.Unlock()
	if c != nil {
		c.Close()
	}
}

// CloseAll tears down every connection (page navigation, shutdown).
func (m *Manager) CloseAll() {
	m.mu.Lock()
	conns := make([]*Conn, 0, len(m.conns))
	for _, c := range m.conns {
		conns = append(conns, c)
	}
	m.conns = make(map[int]*Conn)
	m.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}

// Conn is one logical room connection. The underlying socket may be
// replaced by reconnects; the Conn and its event channel live on.
type Conn struct {
	opts   Options
	roomID int
	userID int

	events chan Event

	mu       sync.Mutex
	ws       *websocket.Conn
	open     bool
	closed   bool
	attempts int
	timer    *time.Timer

	// writeMu serializes writes to the socket (join frame vs Send).
	writeMu sync.Mutex
}

func newConn(opts Options, roomID, userID int) *Conn {
	return &Conn{
		opts:   opts,
		roomID: roomID,
		userID: userID,
		events: make(chan Event, opts.EventBuffer),
	}
}

// Events is the inbound feed. Events are dropped (with a log line) if
// the consumer falls more than EventBuffer behind.
func (c *Conn) Events() <-chan Event {
	return c.events
}

func (c *Conn) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		log.Printf("chatclient: dropping event %s for room %d (consumer too slow)", ev.Kind, c.roomID)
	}
}

func (c *Conn) dial() {
	ws, resp, err := websocket.DefaultDialer.Dial(c.opts.URL, c.opts.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		if ws != nil {
			ws.Close()
		}
		return
	}
	if err != nil {
		c.mu.Unlock()
		log.Printf("chatclient: dial failed for room %d: %v", c.roomID, err)
		c.scheduleReconnect()
		return
	}
	c.ws = ws
	c.open = true
	c.attempts = 0 // a successful open resets the budget
	c.mu.Unlock()

	c.writeMu.Lock()
	err = ws.WriteJSON(frame{Type: "join", RoomID: c.roomID, UserID: c.userID})
	c.writeMu.Unlock()
	if err != nil {
		c.socketBroken(ws)
		return
	}

	c.emit(Event{Kind: EventOpen})
	c.readLoop(ws)
}

func (c *Conn) readLoop(ws *websocket.Conn) {
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.open = false
			c.ws = nil
			c.mu.Unlock()
			ws.Close()

			if closed {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				// Clean shutdown from the server: stay down.
				return
			}
			c.scheduleReconnect()
			return
		}

		var sf serverFrame
		if err := json.Unmarshal(raw, &sf); err != nil {
			log.Printf("chatclient: dropping unparseable frame in room %d: %v", c.roomID, err)
			continue
		}
		switch sf.Type {
		case "message":
			if sf.Message != nil {
				c.emit(Event{Kind: EventMessage, Message: sf.Message})
			}
		case "error":
			c.emit(Event{Kind: EventError, Reason: sf.Reason})
		}
	}
}

// socketBroken handles a write failure outside the read loop.
func (c *Conn) socketBroken(ws *websocket.Conn) {
	c.mu.Lock()
	closed := c.closed
	c.open = false
	c.ws = nil
	c.mu.Unlock()
	ws.Close()
	if !closed {
		c.scheduleReconnect()
	}
}

func (c *Conn) scheduleReconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.attempts >= c.opts.MaxReconnectAttempts {
		c.mu.Unlock()
		log.Printf("chatclient: room %d giving up after %d reconnect attempts", c.roomID, c.opts.MaxReconnectAttempts)
		c.emit(Event{Kind: EventDisconnected, Reason: "reconnect attempts exhausted"})
		return
	}
	c.attempts++
	log.Printf("chatclient: room %d reconnect attempt %d/%d in %s", c.roomID, c.attempts, c.opts.MaxReconnectAttempts, c.opts.ReconnectDelay)
	c.timer = time.AfterFunc(c.opts.ReconnectDelay, func() {
		c.dial()
	})
	c.mu.Unlock()
}

// Send transmits a message frame. clientID is the caller's correlation
// id (see Feed.AppendLocal); the server echoes it back unchanged.
func (c *Conn) Send(messageType, content, clientID string) error {
	c.mu.Lock()
	ws := c.ws
	open := c.open
	c.mu.Unlock()
	if !open || ws == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return ws.WriteJSON(frame{
		Type:        "message",
		RoomID:      c.roomID,
		UserID:      c.userID,
		MessageType: messageType,
		Content:     content,
		ClientID:    clientID,
	})
}

// Connected reports whether the underlying socket is currently open.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Close tears the connection down for good: any pending reconnect is
// cancelled and the socket is closed with the normal-closure code so
// the server unregisters it cleanly. Idempotent.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.open = false
	if c.timer != nil {
		c.timer.Stop()
	}
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()

	if ws != nil {
		deadline := time.Now().Add(time.Second)
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		ws.Close()
	}
}
