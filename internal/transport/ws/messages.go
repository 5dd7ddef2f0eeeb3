package ws

import (
	"encoding/json"

	"github.com/mindconnect/chat-service/internal/event"
)

// Client-to-server frame types. Server pushes reuse event.TypePresence
// and event.TypeMessage plus the reply types below.
const (
	TypeJoin    = "join"
	TypeLeave   = "leave"
	TypeSend    = "send"
	TypeHistory = "history"
)

const (
	TypeJoined    = "joined"
	TypeLeft      = "left"
	TypeDelivered = "delivered"
	TypeRejected  = "rejected"
)

// Frame is one inbound client message.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type JoinPayload struct {
	RoomID string `json:"room_id"`
}

type LeavePayload struct {
	RoomID string `json:"room_id"`
}

type SendPayload struct {
	RoomID  string `json:"room_id"`
	Content string `json:"content"`
}

type HistoryPayload struct {
	RoomID string `json:"room_id"`
	Cursor string `json:"cursor,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type RoomAckPayload struct {
	RoomID string `json:"room_id"`
}

type RejectedPayload struct {
	Op     string `json:"op"`
	RoomID string `json:"room_id,omitempty"`
	Reason string `json:"reason"`
}

type HistoryResultPayload struct {
	RoomID     string              `json:"room_id"`
	Items      []event.MessageItem `json:"items"`
	NextCursor string              `json:"next_cursor,omitempty"`
}
