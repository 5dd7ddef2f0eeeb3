package realtime

import (
	"log/slog"

	"github.com/mindconnect/chat-service/internal/domain"
	"github.com/mindconnect/chat-service/internal/event"
	"github.com/mindconnect/chat-service/internal/registry"
)

// actor owns all mutable state of one room: the membership set, the
// sequence counter and the pending-broadcast buffer. Every access goes
// through the cmds channel, so the run goroutine is the single writer
// and no lock is shared across rooms.
type actor struct {
	roomID string
	max    int64

	cmds chan func()
	done chan struct{}

	// owned by run()
	members   map[string]*registry.Connection
	nextSeq   uint64
	nextFlush uint64
	pending   map[uint64]*pendingSend
}

// pendingSend tracks one in-flight send between sequence assignment and
// persistence completion. msg == nil after completion means the append
// failed and the sequence stays as a gap.
type pendingSend struct {
	done bool
	msg  *domain.Message
}

func newActor(room *domain.Room, lastSeq uint64) *actor {
	return &actor{
		roomID:    room.ID,
		max:       room.MaxParticipants,
		cmds:      make(chan func()),
		done:      make(chan struct{}),
		members:   make(map[string]*registry.Connection),
		nextSeq:   lastSeq + 1,
		nextFlush: lastSeq + 1,
		pending:   make(map[uint64]*pendingSend),
	}
}

func (a *actor) start() { go a.run() }

func (a *actor) run() {
	for {
		select {
		case fn := <-a.cmds:
			fn()
		case <-a.done:
			return
		}
	}
}

func (a *actor) stop() {
	select {
	case <-a.done:
	default:
		close(a.done)
	}
}

// do runs fn on the actor goroutine and waits for it to finish. It
// reports false when the actor has stopped and fn never ran.
func (a *actor) do(fn func()) bool {
	doneCh := make(chan struct{})
	select {
	case a.cmds <- func() { fn(); close(doneCh) }:
		<-doneCh
		return true
	case <-a.done:
		return false
	}
}

func (a *actor) join(conn *registry.Connection) error {
	var err error
	ran := a.do(func() {
		if _, ok := a.members[conn.ID()]; ok {
			err = domain.ErrAlreadyMember
			return
		}
		if a.max > 0 && int64(len(a.members)) >= a.max {
			err = domain.ErrRoomFull
			return
		}
		a.members[conn.ID()] = conn
		conn.MarkJoined(a.roomID)
		// self-presence is not echoed back to the acting connection
		a.fanout(event.Presence(a.roomID, conn.User().ID, event.PresenceJoined), conn.ID())
	})
	if !ran {
		return domain.ErrRoomInactive
	}
	return err
}

func (a *actor) leave(conn *registry.Connection) bool {
	var removed bool
	a.do(func() {
		if _, ok := a.members[conn.ID()]; !ok {
			return
		}
		delete(a.members, conn.ID())
		conn.MarkLeft(a.roomID)
		removed = true
		a.fanout(event.Presence(a.roomID, conn.User().ID, event.PresenceLeft), conn.ID())
	})
	return removed
}

func (a *actor) snapshot() []*registry.Connection {
	var out []*registry.Connection
	a.do(func() {
		out = make([]*registry.Connection, 0, len(a.members))
		for _, c := range a.members {
			out = append(out, c)
		}
	})
	return out
}

// begin assigns the next sequence to a send by connID. Assignment
// happens before any I/O is issued; the caller must later call
// complete with the same sequence exactly once.
func (a *actor) begin(connID string) (uint64, error) {
	var (
		seq uint64
		err error
	)
	ran := a.do(func() {
		if _, ok := a.members[connID]; !ok {
			err = domain.ErrNotMember
			return
		}
		seq = a.nextSeq
		a.nextSeq++
		a.pending[seq] = &pendingSend{}
	})
	if !ran {
		return 0, domain.ErrRoomInactive
	}
	return seq, err
}

// complete records the persistence outcome for seq and flushes the
// pending buffer in assigned order. A nil msg marks a failed append;
// its sequence is skipped and never reused.
func (a *actor) complete(seq uint64, msg *domain.Message) {
	a.do(func() {
		slot, ok := a.pending[seq]
		if !ok {
			return
		}
		slot.done = true
		slot.msg = msg
		a.flush()
	})
}

// flush broadcasts completed sends strictly in sequence order, stopping
// at the first still-in-flight slot. Runs on the actor goroutine.
func (a *actor) flush() {
	for {
		slot, ok := a.pending[a.nextFlush]
		if !ok || !slot.done {
			return
		}
		if slot.msg != nil {
			// the sender receives its own message through the same path
			a.fanout(event.NewMessage(*slot.msg), "")
		}
		delete(a.pending, a.nextFlush)
		a.nextFlush++
	}
}

// fanout delivers ev to every member except exceptID. Best-effort:
// a failed push affects only that connection.
func (a *actor) fanout(ev event.Event, exceptID string) {
	for id, c := range a.members {
		if id == exceptID {
			continue
		}
		if err := c.Push(ev); err != nil {
			slog.Debug("fanout push failed", "room", a.roomID, "conn", id, "err", err)
		}
	}
}
