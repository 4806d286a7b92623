package chat

import "time"

// ---------------------------------------------
// Database & API Models
// ---------------------------------------------

type Room struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Topic       *string   `json:"topic"`
	ImageURL    *string   `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Message is a persisted chat message. ClientID is the sender's
// correlation id; it is echoed in the broadcast (never stored) so the
// sender can reconcile its optimistic local copy.
type Message struct {
	ID        int       `json:"id"`
	RoomID    int       `json:"roomId"`
	UserID    int       `json:"userId"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	ClientID  string    `json:"clientId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ---------------------------------------------
// Wire protocol (JSON text frames on /ws)
// ---------------------------------------------

const (
	FrameJoin    = "join"
	FrameMessage = "message"
	FrameError   = "error"
)

// Frame is what clients send us: either a join or a message.
type Frame struct {
	Type        string `json:"type"`
	RoomID      int    `json:"roomId,omitempty"`
	UserID      int    `json:"userId,omitempty"`
	MessageType string `json:"messageType,omitempty"`
	Content     string `json:"content,omitempty"`
	ClientID    string `json:"clientId,omitempty"`
}

// ServerFrame is what we send clients: a message echo or an error.
type ServerFrame struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}
