package event

import (
	"time"

	"github.com/mindconnect/chat-service/internal/domain"
)

// Push event types delivered to subscribed clients. Transports add
// their own request/reply frame types on top of these.
const (
	TypePresence = "presence"
	TypeMessage  = "message"
)

type PresenceKind string

const (
	PresenceJoined PresenceKind = "joined"
	PresenceLeft   PresenceKind = "left"
)

// Event is a single transport-agnostic frame pushed to a client.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type PresencePayload struct {
	RoomID string       `json:"room_id"`
	UserID string       `json:"user_id"`
	Event  PresenceKind `json:"event"`
}

type MessageItem struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	Sequence  uint64    `json:"sequence"`
	Kind      string    `json:"kind"`
	Flagged   bool      `json:"flagged"`
	CreatedAt time.Time `json:"created_at"`
}

func Presence(roomID, userID string, kind PresenceKind) Event {
	return Event{
		Type: TypePresence,
		Payload: PresencePayload{
			RoomID: roomID,
			UserID: userID,
			Event:  kind,
		},
	}
}

func NewMessage(m domain.Message) Event {
	return Event{Type: TypeMessage, Payload: Item(m)}
}

func Item(m domain.Message) MessageItem {
	return MessageItem{
		ID:        m.ID,
		RoomID:    m.RoomID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		Sequence:  m.Sequence,
		Kind:      string(m.Kind),
		Flagged:   m.Flagged,
		CreatedAt: m.CreatedAt,
	}
}
