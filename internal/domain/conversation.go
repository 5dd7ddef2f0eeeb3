package domain

import "time"

type TurnRole string

const (
	TurnUser      TurnRole = "user"
	TurnAssistant TurnRole = "assistant"
)

type ConversationTurn struct {
	Role    TurnRole  `json:"role"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sent_at"`
}

// Conversation is a private channel between one user and the assistant.
// CrisisDetected is sticky: once true it stays true for the lifetime of
// the conversation.
type Conversation struct {
	ID             string             `db:"id"`
	UserID         string             `db:"user_id"`
	History        []ConversationTurn `db:"history"`
	CrisisDetected bool               `db:"crisis_detected"`
	CreatedAt      time.Time          `db:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at"`
}
