package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mindconnect/chat-service/internal/crisis"
	"github.com/mindconnect/chat-service/internal/domain"
)

type memConvStore struct {
	convs map[string]*domain.Conversation
}

func newMemConvStore() *memConvStore {
	return &memConvStore{convs: make(map[string]*domain.Conversation)}
}

func (s *memConvStore) Create(_ context.Context, conv *domain.Conversation) error {
	conv.ID = uuid.NewString()
	cp := *conv
	s.convs[conv.ID] = &cp
	return nil
}

func (s *memConvStore) Get(_ context.Context, id string) (*domain.Conversation, error) {
	conv, ok := s.convs[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	cp := *conv
	return &cp, nil
}

func (s *memConvStore) Update(_ context.Context, conv *domain.Conversation) error {
	stored, ok := s.convs[conv.ID]
	if !ok {
		return domain.ErrConversationNotFound
	}
	cp := *conv
	// flag only ever rises
	cp.CrisisDetected = stored.CrisisDetected || conv.CrisisDetected
	s.convs[conv.ID] = &cp
	return nil
}

func (s *memConvStore) ListByUser(_ context.Context, userID string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	for _, c := range s.convs {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *memConvStore) ListCrisis(_ context.Context) ([]domain.Conversation, error) {
	var out []domain.Conversation
	for _, c := range s.convs {
		if c.CrisisDetected {
			out = append(out, *c)
		}
	}
	return out, nil
}

type scriptedResponder struct {
	reply string
	err   error
}

func (r scriptedResponder) Reply(context.Context, []domain.ConversationTurn, string) (string, error) {
	return r.reply, r.err
}

func newTestService(t *testing.T, r Responder) (*Service, *memConvStore) {
	t.Helper()
	gate, err := crisis.NewGate(crisis.DefaultPhrases)
	require.NoError(t, err)
	store := newMemConvStore()
	return NewService(store, gate, r), store
}

func TestChat_CreatesConversationAndAppendsTurns(t *testing.T) {
	svc, store := newTestService(t, scriptedResponder{reply: "I hear you."})
	ctx := context.Background()
	user := domain.User{ID: "u1", Role: domain.RoleSeeker}

	res, err := svc.Chat(ctx, user, "", "I feel anxious about work")
	require.NoError(t, err)
	require.NotEmpty(t, res.ConversationID)
	require.Equal(t, "I hear you.", res.Reply)
	require.False(t, res.IsCrisis)

	conv, err := store.Get(ctx, res.ConversationID)
	require.NoError(t, err)
	require.Len(t, conv.History, 2)
	require.Equal(t, domain.TurnUser, conv.History[0].Role)
	require.Equal(t, "I feel anxious about work", conv.History[0].Content)
	require.Equal(t, domain.TurnAssistant, conv.History[1].Role)

	// follow-up lands in the same conversation
	res2, err := svc.Chat(ctx, user, res.ConversationID, "thanks for listening")
	require.NoError(t, err)
	require.Equal(t, res.ConversationID, res2.ConversationID)

	conv, err = store.Get(ctx, res.ConversationID)
	require.NoError(t, err)
	require.Len(t, conv.History, 4)
}

func TestChat_CrisisFlagIsSticky(t *testing.T) {
	svc, store := newTestService(t, scriptedResponder{reply: "ok"})
	ctx := context.Background()
	user := domain.User{ID: "u1"}

	res, err := svc.Chat(ctx, user, "", "I want to end my life")
	require.NoError(t, err)
	require.True(t, res.IsCrisis)

	// a later calm message does not clear the conversation flag
	res2, err := svc.Chat(ctx, user, res.ConversationID, "I feel a bit better today")
	require.NoError(t, err)
	require.False(t, res2.IsCrisis)

	conv, err := store.Get(ctx, res.ConversationID)
	require.NoError(t, err)
	require.True(t, conv.CrisisDetected)

	flagged, err := svc.CrisisConversations(ctx)
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	require.Equal(t, res.ConversationID, flagged[0].ID)
}

func TestChat_CrisisReplyDoesNotDependOnResponder(t *testing.T) {
	svc, store := newTestService(t, scriptedResponder{err: errors.New("model down")})
	ctx := context.Background()

	res, err := svc.Chat(ctx, domain.User{ID: "u1"}, "", "I have a suicide plan")
	require.NoError(t, err)
	require.True(t, res.IsCrisis)
	require.Contains(t, res.Reply, "988")

	conv, err := store.Get(ctx, res.ConversationID)
	require.NoError(t, err)
	require.True(t, conv.CrisisDetected)
	require.Len(t, conv.History, 2)
}

func TestChat_ResponderFailureFallsBack(t *testing.T) {
	svc, _ := newTestService(t, scriptedResponder{err: errors.New("model down")})

	res, err := svc.Chat(context.Background(), domain.User{ID: "u1"}, "", "rough week at work")
	require.NoError(t, err)
	require.False(t, res.IsCrisis)
	require.Contains(t, res.Reply, "technical difficulties")
}

func TestChat_RejectsEmptyAndForeignConversations(t *testing.T) {
	svc, _ := newTestService(t, scriptedResponder{reply: "ok"})
	ctx := context.Background()

	_, err := svc.Chat(ctx, domain.User{ID: "u1"}, "", "   ")
	require.ErrorIs(t, err, ErrEmptyMessage)

	res, err := svc.Chat(ctx, domain.User{ID: "u1"}, "", "hello")
	require.NoError(t, err)

	// another user cannot read or extend it
	_, err = svc.Chat(ctx, domain.User{ID: "u2"}, res.ConversationID, "hello")
	require.ErrorIs(t, err, domain.ErrConversationNotFound)

	mine, err := svc.ListConversations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)

	theirs, err := svc.ListConversations(ctx, "u2")
	require.NoError(t, err)
	require.Empty(t, theirs)
}
