package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mindconnect/chat-service/internal/domain"
)

// ConversationRepository stores assistant conversations. History is a
// jsonb column; crisis_detected is sticky at the SQL level.
type ConversationRepository struct {
	db *pgxpool.Pool
}

func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	history, err := json.Marshal(conv.History)
	if err != nil {
		return err
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO ai_conversations (user_id, history, crisis_detected)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, conv.UserID, history, conv.CrisisDetected).
		Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
}

func (r *ConversationRepository) Get(ctx context.Context, id string) (*domain.Conversation, error) {
	var (
		c       domain.Conversation
		history []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, history, crisis_detected, created_at, updated_at
		FROM ai_conversations WHERE id=$1
	`, id).Scan(&c.ID, &c.UserID, &history, &c.CrisisDetected, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(history, &c.History); err != nil {
		return nil, err
	}
	return &c, nil
}

// Update replaces the history and raises crisis_detected. The OR keeps
// the flag monotone even if the caller passes false after a crisis.
func (r *ConversationRepository) Update(ctx context.Context, conv *domain.Conversation) error {
	history, err := json.Marshal(conv.History)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `
		UPDATE ai_conversations
		SET history=$1, crisis_detected = crisis_detected OR $2, updated_at = now()
		WHERE id=$3
	`, history, conv.CrisisDetected, conv.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

// ListByUser returns conversation summaries without history bodies.
func (r *ConversationRepository) ListByUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, crisis_detected, created_at, updated_at
		FROM ai_conversations
		WHERE user_id=$1
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.CrisisDetected, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListCrisis returns summaries of every conversation with a detected
// crisis, newest first. Used by the therapist dashboard.
func (r *ConversationRepository) ListCrisis(ctx context.Context) ([]domain.Conversation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, crisis_detected, created_at, updated_at
		FROM ai_conversations
		WHERE crisis_detected
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.CrisisDetected, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
