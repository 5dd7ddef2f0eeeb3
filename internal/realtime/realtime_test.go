package realtime

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mindconnect/chat-service/internal/crisis"
	"github.com/mindconnect/chat-service/internal/domain"
	"github.com/mindconnect/chat-service/internal/event"
	"github.com/mindconnect/chat-service/internal/registry"
)

// fakeSink records every event pushed to one connection.
type fakeSink struct {
	mu     sync.Mutex
	events []event.Event
}

func (s *fakeSink) Push(ev event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *fakeSink) all() []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]event.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *fakeSink) messageSeqs() []uint64 {
	var out []uint64
	for _, ev := range s.all() {
		if ev.Type == event.TypeMessage {
			out = append(out, ev.Payload.(event.MessageItem).Sequence)
		}
	}
	return out
}

func (s *fakeSink) presence() []event.PresencePayload {
	var out []event.PresencePayload
	for _, ev := range s.all() {
		if ev.Type == event.TypePresence {
			out = append(out, ev.Payload.(event.PresencePayload))
		}
	}
	return out
}

// fakeRoomLoader serves room config from memory.
type fakeRoomLoader struct {
	rooms map[string]*domain.Room
}

func (f *fakeRoomLoader) Get(_ context.Context, id string) (*domain.Room, error) {
	r, ok := f.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	cp := *r
	return &cp, nil
}

// fakeStore is an in-memory message store with failure and latency
// injection. It doubles as the SequenceSource and MessageReader.
type fakeStore struct {
	mu     sync.Mutex
	msgs   map[string][]domain.Message
	failOn func(msg *domain.Message) bool
	jitter time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{msgs: make(map[string][]domain.Message)}
}

func (s *fakeStore) Append(_ context.Context, msg *domain.Message) (*domain.Message, error) {
	if s.jitter > 0 {
		time.Sleep(time.Duration(rand.Int63n(int64(s.jitter))))
	}
	if s.failOn != nil && s.failOn(msg) {
		return nil, errors.New("injected append failure")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *msg
	s.msgs[msg.RoomID] = append(s.msgs[msg.RoomID], stored)
	return &stored, nil
}

func (s *fakeStore) LastSequence(_ context.Context, roomID string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last uint64
	for _, m := range s.msgs[roomID] {
		if m.Sequence > last {
			last = m.Sequence
		}
	}
	return last, nil
}

func (s *fakeStore) ReadRange(_ context.Context, roomID string, fromSeq uint64, limit int) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Message
	for _, m := range s.msgs[roomID] {
		if m.Sequence > fromSeq {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) sequences(roomID string) []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint64, 0, len(s.msgs[roomID]))
	for _, m := range s.msgs[roomID] {
		out = append(out, m.Sequence)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// fakeAlerter signals each crisis notification on a channel.
type fakeAlerter struct {
	calls chan string // message IDs
}

func newFakeAlerter() *fakeAlerter {
	return &fakeAlerter{calls: make(chan string, 16)}
}

func (a *fakeAlerter) NotifyCrisis(msg domain.Message, _ string) {
	a.calls <- msg.ID
}

type fixture struct {
	reg      *registry.Registry
	rooms    *Manager
	loader   *fakeRoomLoader
	store    *fakeStore
	alerts   *fakeAlerter
	pipeline *Pipeline
}

func newFixture(roomDefs ...*domain.Room) *fixture {
	loader := &fakeRoomLoader{rooms: make(map[string]*domain.Room)}
	for _, r := range roomDefs {
		loader.rooms[r.ID] = r
	}
	store := newFakeStore()
	rooms := NewManager(loader, store)
	reg := registry.New()
	reg.Bind(rooms)
	alerts := newFakeAlerter()
	return &fixture{
		reg:      reg,
		rooms:    rooms,
		loader:   loader,
		store:    store,
		alerts:   alerts,
		pipeline: NewPipeline(rooms, store, mustGate(), alerts),
	}
}

func (f *fixture) connect(userID string) (*registry.Connection, *fakeSink) {
	sink := &fakeSink{}
	conn := f.reg.Admit("conn-"+userID, domain.User{ID: userID, DisplayName: userID, Role: domain.RoleSeeker}, sink)
	return conn, sink
}

func activeRoom(id string, max int64) *domain.Room {
	return &domain.Room{
		ID:              id,
		Name:            "room " + id,
		MaxParticipants: max,
		IsActive:        true,
		CreatedAt:       time.Now(),
	}
}

func isSorted(seqs []uint64) bool {
	return sort.SliceIsSorted(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
}

func contentOfLen(n int) string {
	return strings.Repeat("x", n)
}

func mustGate() *crisis.Gate {
	gate, err := crisis.NewGate(crisis.DefaultPhrases)
	if err != nil {
		panic(err)
	}
	return gate
}
