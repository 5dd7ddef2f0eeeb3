package domain

import "time"

type MessageKind string

const (
	KindText   MessageKind = "text"
	KindSystem MessageKind = "system"
	KindCrisis MessageKind = "crisis"
)

// Message is immutable once persisted, except Flagged which may only
// transition false -> true.
type Message struct {
	ID        string      `db:"id"`
	RoomID    string      `db:"room_id"`
	SenderID  string      `db:"sender_id"`
	Content   string      `db:"content"`
	Sequence  uint64      `db:"sequence"`
	Kind      MessageKind `db:"kind"`
	Flagged   bool        `db:"flagged"`
	CreatedAt time.Time   `db:"created_at"`
}
