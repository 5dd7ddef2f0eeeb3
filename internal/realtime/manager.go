package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/mindconnect/chat-service/internal/domain"
	"github.com/mindconnect/chat-service/internal/registry"
)

// RoomLoader reads room configuration (capacity, activity flag) from
// the durable store. Rooms themselves are created by moderator actions
// outside the realtime core.
type RoomLoader interface {
	Get(ctx context.Context, id string) (*domain.Room, error)
}

// SequenceSource reports the highest persisted sequence of a room, so a
// freshly started actor continues the monotonic counter instead of
// restarting it.
type SequenceSource interface {
	LastSequence(ctx context.Context, roomID string) (uint64, error)
}

// Manager maps rooms to their actors. Its own lock guards only the
// actor table; all room state lives inside the actors, so unrelated
// rooms never serialize on each other.
type Manager struct {
	rooms RoomLoader
	seqs  SequenceSource

	mu     sync.RWMutex
	actors map[string]*actor
}

func NewManager(rooms RoomLoader, seqs SequenceSource) *Manager {
	return &Manager{
		rooms:  rooms,
		seqs:   seqs,
		actors: make(map[string]*actor),
	}
}

// Join admits conn into roomID. Joining a room the connection is
// already in is a no-op success. The capacity check and the membership
// insert are a single actor command, so concurrent joins cannot both
// take the last slot. The activity flag is re-read on every join, so
// deactivating a room closes it to new joins even while its actor is
// live; existing members are unaffected.
func (m *Manager) Join(ctx context.Context, conn *registry.Connection, roomID string) error {
	room, err := m.rooms.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.IsActive {
		return domain.ErrRoomInactive
	}

	a, err := m.actor(ctx, room)
	if err != nil {
		return err
	}

	if err := a.join(conn); err != nil {
		if err == domain.ErrAlreadyMember {
			return nil
		}
		return err
	}
	return nil
}

// Leave removes conn from roomID and notifies the remaining members.
// Leaving a room the connection is not in is a no-op success.
func (m *Manager) Leave(conn *registry.Connection, roomID string) {
	if a := m.lookup(roomID); a != nil {
		a.leave(conn)
	}
}

// Members returns a point-in-time snapshot of the room's members.
func (m *Manager) Members(roomID string) []*registry.Connection {
	a := m.lookup(roomID)
	if a == nil {
		return nil
	}
	return a.snapshot()
}

// BeginSend assigns the next sequence for a send by connID. This is
// the single serialization point per room.
func (m *Manager) BeginSend(roomID, connID string) (uint64, error) {
	a := m.lookup(roomID)
	if a == nil {
		return 0, domain.ErrNotMember
	}
	return a.begin(connID)
}

// CompleteSend reports a persisted message for broadcast. Fan-out
// happens in assigned sequence order even when persistence completions
// arrive out of order.
func (m *Manager) CompleteSend(roomID string, seq uint64, msg *domain.Message) {
	if a := m.lookup(roomID); a != nil {
		a.complete(seq, msg)
	}
}

// AbortSend marks a send whose persistence failed. The sequence is
// never reused; remaining broadcasts flush past the gap.
func (m *Manager) AbortSend(roomID string, seq uint64) {
	if a := m.lookup(roomID); a != nil {
		a.complete(seq, nil)
	}
}

// ReleaseAll drops every membership held by conn. Invoked by the
// connection registry during disconnect cleanup; idempotent.
func (m *Manager) ReleaseAll(conn *registry.Connection) {
	for _, roomID := range conn.Rooms() {
		m.Leave(conn, roomID)
	}
}

// Close stops all room actors. Only used on shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.actors {
		a.stop()
	}
	m.actors = make(map[string]*actor)
}

func (m *Manager) lookup(roomID string) *actor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.actors[roomID]
}

// actor returns the live actor for room, spinning one up from the
// store on first use. Actors live until shutdown; the room table
// bounds their number.
func (m *Manager) actor(ctx context.Context, room *domain.Room) (*actor, error) {
	if a := m.lookup(room.ID); a != nil {
		return a, nil
	}

	last, err := m.seqs.LastSequence(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("last sequence for room %s: %w", room.ID, err)
	}

	fresh := newActor(room, last)

	m.mu.Lock()
	if cur, ok := m.actors[room.ID]; ok {
		// lost the creation race; the winner's counter is authoritative
		m.mu.Unlock()
		return cur, nil
	}
	m.actors[room.ID] = fresh
	m.mu.Unlock()

	fresh.start()
	return fresh, nil
}
