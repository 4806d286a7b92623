package chat

// Registry tracks which connections belong to which room. It is an
// explicit object (not a package singleton) so tests can run isolated
// instances side by side.
//
// The registry is NOT safe for concurrent use: it is owned by the
// hub's run loop and must only be touched from there. That single
// point of mutation is what keeps it lock-free.
type Registry struct {
	clients map[*Client]roomTag
}

type roomTag struct {
	roomID int
	userID int
	joined bool
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[*Client]roomTag)}
}

// Add registers a freshly accepted connection with no room tag.
func (r *Registry) Add(c *Client) {
	r.clients[c] = roomTag{}
}

// Remove drops the connection. Reports whether it was present, so the
// hub can avoid double-closing the send channel.
func (r *Registry) Remove(c *Client) bool {
	if _, ok := r.clients[c]; !ok {
		return false
	}
	delete(r.clients, c)
	return true
}

// Tag records a join. A repeated join silently overwrites the previous
// tag: switching rooms is allowed and nobody is notified of the leave.
func (r *Registry) Tag(c *Client, roomID, userID int) {
	if _, ok := r.clients[c]; !ok {
		return
	}
	r.clients[c] = roomTag{roomID: roomID, userID: userID, joined: true}
}

// Room returns the room the connection has joined, if any.
func (r *Registry) Room(c *Client) (int, bool) {
	tag, ok := r.clients[c]
	if !ok || !tag.joined {
		return 0, false
	}
	return tag.roomID, true
}

// Members returns every connection currently tagged with roomID.
func (r *Registry) Members(roomID int) []*Client {
	var members []*Client
	for c, tag := range r.clients {
		if tag.joined && tag.roomID == roomID {
			members = append(members, c)
		}
	}
	return members
}

func (r *Registry) Len() int {
	return len(r.clients)
}
