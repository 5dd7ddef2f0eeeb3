package registry

import (
	"sync"

	"github.com/mindconnect/chat-service/internal/domain"
	"github.com/mindconnect/chat-service/internal/event"
)

// Sink is the send half of a client transport connection.
type Sink interface {
	Push(ev event.Event) error
}

// Connection is the ephemeral identity of one connected client. It is
// created on transport connect and destroyed on disconnect; the
// registry owns it for its lifetime.
type Connection struct {
	id   string
	user domain.User
	sink Sink

	mu    sync.Mutex
	rooms map[string]struct{}
}

func (c *Connection) ID() string        { return c.id }
func (c *Connection) User() domain.User { return c.user }

func (c *Connection) Push(ev event.Event) error { return c.sink.Push(ev) }

// MarkJoined records room membership on the connection. Called only by
// the room manager, which owns the membership decision.
func (c *Connection) MarkJoined(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[roomID] = struct{}{}
}

func (c *Connection) MarkLeft(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, roomID)
}

func (c *Connection) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		out = append(out, id)
	}
	return out
}

// Releaser drops every room membership held by a connection. Wired to
// the room manager after construction to keep the registry free of
// upward dependencies.
type Releaser interface {
	ReleaseAll(conn *Connection)
}

type Registry struct {
	mu       sync.RWMutex
	conns    map[string]*Connection
	releaser Releaser
}

func New() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

func (r *Registry) Bind(rel Releaser) { r.releaser = rel }

// Admit registers a connection with a pre-validated identity.
func (r *Registry) Admit(transportConnID string, user domain.User, sink Sink) *Connection {
	c := &Connection{
		id:    transportConnID,
		user:  user,
		sink:  sink,
		rooms: make(map[string]struct{}),
	}

	r.mu.Lock()
	r.conns[c.id] = c
	r.mu.Unlock()

	return c
}

// Remove drops the connection and releases all of its room
// memberships. Removing an unknown connection is a no-op.
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	c, ok := r.conns[connID]
	delete(r.conns, connID)
	r.mu.Unlock()

	if !ok {
		return
	}
	if r.releaser != nil {
		r.releaser.ReleaseAll(c)
	}
}

func (r *Registry) Lookup(connID string) (*Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[connID]
	if !ok {
		return nil, domain.ErrNotConnected
	}
	return c, nil
}
