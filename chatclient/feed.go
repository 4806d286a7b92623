package chatclient

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is a message as the UI should render it.
type Entry struct {
	Message

	// Self marks messages authored by the feed's own user.
	Self bool

	// System marks client-synthesized notices ("X joined the room").
	System bool

	// Pending marks an optimistic local message whose server echo has
	// not arrived yet.
	Pending bool
}

// Feed maintains one room's visible message list: history hydration,
// inbound broadcasts, optimistic local sends and system notices all
// pass through a single dedup gate, so applying the same message twice
// renders it once.
//
// The optimistic-send path works on correlation ids: AppendLocal tags
// the local entry with a fresh client id, the same id travels on the
// outgoing frame, and the server's echo (which carries it back) is
// folded into the existing entry instead of appended.
type Feed struct {
	selfID int

	mu      sync.Mutex
	seen    map[string]struct{}
	pending map[string]int // client id -> index into entries
	entries []Entry
}

func NewFeed(selfUserID int) *Feed {
	return &Feed{
		selfID:  selfUserID,
		seen:    make(map[string]struct{}),
		pending: make(map[string]int),
	}
}

func serverKey(id int) string {
	return "srv:" + strconv.Itoa(id)
}

// Hydrate replaces the feed with a history page as served by
// GET /api/chat/rooms/{id}/messages: newest first. The page is
// reversed into chronological order and every id is seeded into the
// dedup set.
func (f *Feed) Hydrate(newestFirst []Message) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seen = make(map[string]struct{})
	f.pending = make(map[string]int)
	f.entries = f.entries[:0]

	for i := len(newestFirst) - 1; i >= 0; i-- {
		m := newestFirst[i]
		key := serverKey(m.ID)
		if _, dup := f.seen[key]; dup {
			continue
		}
		f.seen[key] = struct{}{}
		f.entries = append(f.entries, Entry{Message: m, Self: m.UserID == f.selfID})
	}
}

// Apply feeds one inbound broadcast through the gate. It reports
// whether the visible list changed (either a new entry or a reconciled
// optimistic one).
func (f *Feed) Apply(m Message) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Echo of our own optimistic send: fold into the pending entry.
	if m.ClientID != "" {
		if idx, ok := f.pending[m.ClientID]; ok {
			delete(f.pending, m.ClientID)
			f.seen[serverKey(m.ID)] = struct{}{}
			e := &f.entries[idx]
			e.ID = m.ID
			e.CreatedAt = m.CreatedAt
			e.Pending = false
			return true
		}
	}

	key := serverKey(m.ID)
	if _, dup := f.seen[key]; dup {
		return false
	}
	f.seen[key] = struct{}{}
	f.entries = append(f.entries, Entry{Message: m, Self: m.UserID == f.selfID})
	return true
}

// AppendLocal adds an optimistic entry for a message the user just
// submitted and returns the correlation id to put on the outgoing
// frame.
func (f *Feed) AppendLocal(roomID int, messageType, content string) string {
	clientID := uuid.NewString()

	f.mu.Lock()
	defer f.mu.Unlock()

	f.seen["loc:"+clientID] = struct{}{}
	f.entries = append(f.entries, Entry{
		Message: Message{
			RoomID:    roomID,
			UserID:    f.selfID,
			Type:      messageType,
			Content:   content,
			ClientID:  clientID,
			CreatedAt: time.Now(),
		},
		Self:    true,
		Pending: true,
	})
	f.pending[clientID] = len(f.entries) - 1
	return clientID
}

// AddSystem appends a client-synthesized notice. Its identity derives
// from the acting user and the timestamp, so the same notice within
// the same second is applied once.
func (f *Feed) AddSystem(userID int, text string, at time.Time) bool {
	key := fmt.Sprintf("sys:%d:%d", userID, at.Unix())

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, dup := f.seen[key]; dup {
		return false
	}
	f.seen[key] = struct{}{}
	f.entries = append(f.entries, Entry{
		Message: Message{Content: text, CreatedAt: at},
		System:  true,
	})
	return true
}

// Entries returns a snapshot of the visible list, oldest first.
func (f *Feed) Entries() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Entry, len(f.entries))
	copy(out, f.entries)
	return out
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
