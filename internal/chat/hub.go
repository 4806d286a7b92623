package chat

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

const persistTimeout = 5 * time.Second

// MessageStore is what the hub needs from persistence: accept a
// message, assign its id and timestamp. Kept as an interface so hub
// tests can run against a fake.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *Message) (*Message, error)
}

// inbound pairs a parsed frame with the connection it arrived on.
type inbound struct {
	client *Client
	frame  Frame
}

// Hub routes frames between connections. All registry mutation happens
// on the Run goroutine; the channels are the only way in.
type Hub struct {
	registry *Registry
	store    MessageStore

	// Register requests from new connections.
	Register chan *Client

	// Unregister requests from dying connections.
	Unregister chan *Client

	// Parsed frames from client read pumps.
	frames chan inbound

	// Room occupancy queries, answered from the loop so callers never
	// touch the registry directly.
	sizeReqs chan sizeReq
}

type sizeReq struct {
	roomID int
	resp   chan int
}

func NewHub(registry *Registry, store MessageStore) *Hub {
	return &Hub{
		registry:   registry,
		store:      store,
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		frames:     make(chan inbound),
		sizeReqs:   make(chan sizeReq),
	}
}

// Run is the hub event loop. It is the only goroutine that touches the
// registry, so the registry needs no locking.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registry.Add(client)

		case client := <-h.Unregister:
			if h.registry.Remove(client) {
				close(client.send)
			}

		case in := <-h.frames:
			h.handleFrame(in.client, in.frame)

		case req := <-h.sizeReqs:
			req.resp <- len(h.registry.Members(req.roomID))
		}
	}
}

// RoomSize reports how many connections are currently joined to a
// room. The answer comes from the run loop, so it reflects every
// frame the hub has processed so far.
func (h *Hub) RoomSize(roomID int) int {
	resp := make(chan int, 1)
	h.sizeReqs <- sizeReq{roomID: roomID, resp: resp}
	return <-resp
}

func (h *Hub) handleFrame(c *Client, frame Frame) {
	switch frame.Type {
	case FrameJoin:
		// The session established at upgrade is authoritative; a frame
		// claiming someone else's user id is rejected.
		if frame.UserID != c.userID {
			h.sendError(c, "user id does not match session")
			return
		}
		h.registry.Tag(c, frame.RoomID, frame.UserID)
		log.Printf("user %d joined room %d", frame.UserID, frame.RoomID)

	case FrameMessage:
		if frame.UserID != c.userID {
			h.sendError(c, "user id does not match session")
			return
		}
		roomID, joined := h.registry.Room(c)
		if !joined {
			// Fail soft: a message before any join is dropped.
			log.Printf("dropping message from user %d: no room joined", c.userID)
			return
		}

		msgType := frame.MessageType
		if msgType == "" {
			msgType = "text"
		}
		msg := &Message{
			RoomID:   roomID,
			UserID:   c.userID,
			Type:     msgType,
			Content:  frame.Content,
			ClientID: frame.ClientID,
		}

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		saved, err := h.store.CreateMessage(ctx, msg)
		cancel()
		if err != nil {
			log.Printf("could not persist message in room %d: %v", roomID, err)
			h.sendError(c, "message could not be saved")
			return
		}

		h.broadcast(roomID, saved)

	default:
		log.Printf("dropping frame with unknown type %q", frame.Type)
	}
}

// broadcast fans the persisted message out to every connection in the
// room, the sender included. A client that cannot keep up (full send
// buffer) is evicted rather than allowed to stall the loop.
func (h *Hub) broadcast(roomID int, msg *Message) {
	data, err := json.Marshal(ServerFrame{Type: FrameMessage, Message: msg})
	if err != nil {
		log.Printf("could not marshal broadcast: %v", err)
		return
	}

	for _, c := range h.registry.Members(roomID) {
		select {
		case c.send <- data:
		default:
			log.Printf("evicting slow client (user %d) from room %d", c.userID, roomID)
			h.registry.Remove(c)
			close(c.send)
		}
	}
}

func (h *Hub) sendError(c *Client, reason string) {
	data, err := json.Marshal(ServerFrame{Type: FrameError, Reason: reason})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
