package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mindconnect/chat-service/internal/crisis"
	"github.com/mindconnect/chat-service/internal/domain"
	"github.com/mindconnect/chat-service/internal/registry"
)

const maxContentLength = 4000

var (
	ErrEmptyMessage   = errors.New("empty message")
	ErrMessageTooLong = errors.New("message too long")
)

// Store is the durable append half of the message store adapter.
type Store interface {
	Append(ctx context.Context, msg *domain.Message) (*domain.Message, error)
}

// Alerter is the crisis-alert side channel. Calls are fire-and-forget
// and must never block message delivery.
type Alerter interface {
	NotifyCrisis(msg domain.Message, userID string)
}

// Pipeline ingests send requests: membership check, crisis
// classification, sequence assignment, persist, then ordered fan-out.
type Pipeline struct {
	rooms  *Manager
	store  Store
	gate   *crisis.Gate
	alerts Alerter
}

func NewPipeline(rooms *Manager, store Store, gate *crisis.Gate, alerts Alerter) *Pipeline {
	return &Pipeline{
		rooms:  rooms,
		store:  store,
		gate:   gate,
		alerts: alerts,
	}
}

// Send persists and broadcasts one message. On a store failure the
// assigned sequence stays as a gap, nothing is broadcast and the caller
// gets ErrStoreUnavailable: every broadcast message is durably
// recorded. The pipeline does not retry; a re-send gets a new sequence.
func (p *Pipeline) Send(ctx context.Context, conn *registry.Connection, roomID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if len(content) > maxContentLength {
		return nil, ErrMessageTooLong
	}

	res := p.gate.Classify(content)

	// sequence assignment is the per-room serialization point and
	// precedes the persistence call
	seq, err := p.rooms.BeginSend(roomID, conn.ID())
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		SenderID:  conn.User().ID,
		Content:   content,
		Sequence:  seq,
		Kind:      res.Kind,
		Flagged:   res.Flagged,
		CreatedAt: time.Now().UTC(),
	}

	stored, err := p.store.Append(ctx, msg)
	if err != nil {
		p.rooms.AbortSend(roomID, seq)
		slog.Error("message append failed",
			"room", roomID, "seq", seq, "err", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	p.rooms.CompleteSend(roomID, stored.Sequence, stored)

	if stored.Flagged {
		// happens-after persistence; broadcast never waits on it
		go p.alerts.NotifyCrisis(*stored, conn.User().ID)
	}

	return stored, nil
}
