package http

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateRoomRequest struct {
	Name            string `json:"name"`
	Topic           string `json:"topic"`
	MaxParticipants int64  `json:"max_participants"`
}

type RoomItem struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Topic           string    `json:"topic"`
	ModeratorID     *string   `json:"moderator_id,omitempty"`
	MaxParticipants int64     `json:"max_participants"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

type RoomsListResponse struct {
	Items      []RoomItem `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
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

type HistoryResponse struct {
	Items      []MessageItem `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type AssistantChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

type AssistantChatResponse struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
	IsCrisis       bool   `json:"is_crisis"`
}

type ConversationItem struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	CrisisDetected bool      `json:"crisis_detected"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ConversationsResponse struct {
	Items []ConversationItem `json:"items"`
}
