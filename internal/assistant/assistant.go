package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mindconnect/chat-service/internal/crisis"
	"github.com/mindconnect/chat-service/internal/domain"
)

var ErrEmptyMessage = errors.New("empty message")

// Responder produces the assistant's reply. Generation quality is out
// of scope here; only the crisis gate decision is.
type Responder interface {
	Reply(ctx context.Context, history []domain.ConversationTurn, userMessage string) (string, error)
}

// ConversationStore persists assistant conversations with a sticky
// crisis flag.
type ConversationStore interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	Get(ctx context.Context, id string) (*domain.Conversation, error)
	Update(ctx context.Context, conv *domain.Conversation) error
	ListByUser(ctx context.Context, userID string) ([]domain.Conversation, error)
	ListCrisis(ctx context.Context) ([]domain.Conversation, error)
}

type ChatResult struct {
	ConversationID string
	Reply          string
	IsCrisis       bool
}

// Service is the one-user AI conversation channel. Every user message
// passes through the crisis gate before the responder runs, so a
// responder outage can never drop a crisis detection.
type Service struct {
	store     ConversationStore
	gate      *crisis.Gate
	responder Responder
}

func NewService(store ConversationStore, gate *crisis.Gate, responder Responder) *Service {
	return &Service{
		store:     store,
		gate:      gate,
		responder: responder,
	}
}

// Chat appends a user turn and the assistant's reply to the
// conversation, creating it when conversationID is empty. The
// conversation's crisis flag never clears once raised.
func (s *Service) Chat(ctx context.Context, user domain.User, conversationID, text string) (*ChatResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	res := s.gate.Classify(text)

	conv, err := s.conversation(ctx, user, conversationID)
	if err != nil {
		return nil, err
	}

	var reply string
	if res.Flagged {
		// crisis resources replace the generated reply outright
		reply = crisisReply
		slog.Warn("assistant crisis detected", "user", user.ID, "conversation", conv.ID)
	} else {
		var rerr error
		reply, rerr = s.responder.Reply(ctx, conv.History, text)
		if rerr != nil {
			slog.Warn("assistant responder failed", "user", user.ID, "err", rerr)
			reply = fallbackReply
		}
	}

	now := time.Now().UTC()
	conv.History = append(conv.History,
		domain.ConversationTurn{Role: domain.TurnUser, Content: text, SentAt: now},
		domain.ConversationTurn{Role: domain.TurnAssistant, Content: reply, SentAt: now},
	)
	conv.CrisisDetected = conv.CrisisDetected || res.Flagged

	if conv.ID == "" {
		err = s.store.Create(ctx, conv)
	} else {
		err = s.store.Update(ctx, conv)
	}
	if err != nil {
		return nil, fmt.Errorf("save conversation: %w", err)
	}

	return &ChatResult{
		ConversationID: conv.ID,
		Reply:          reply,
		IsCrisis:       res.Flagged,
	}, nil
}

func (s *Service) conversation(ctx context.Context, user domain.User, id string) (*domain.Conversation, error) {
	if id == "" {
		return &domain.Conversation{UserID: user.ID}, nil
	}
	conv, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// a conversation is private to its owner
	if conv.UserID != user.ID {
		return nil, domain.ErrConversationNotFound
	}
	return conv, nil
}

func (s *Service) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	return s.store.ListByUser(ctx, userID)
}

// CrisisConversations lists flagged conversations for therapist
// follow-up. Role enforcement happens at the transport edge.
func (s *Service) CrisisConversations(ctx context.Context) ([]domain.Conversation, error) {
	return s.store.ListCrisis(ctx)
}
