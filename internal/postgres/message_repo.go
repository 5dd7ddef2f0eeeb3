package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mindconnect/chat-service/internal/domain"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append durably stores a message. ID, sequence and created_at are
// assigned by the pipeline before the call; the (room_id, sequence)
// unique constraint backs the no-duplicates invariant.
func (r *MessageRepository) Append(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO messages (id, room_id, sender_id, content, sequence, kind, flagged, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, room_id, sender_id, content, sequence, kind, flagged, created_at
	`, msg.ID, msg.RoomID, msg.SenderID, msg.Content, msg.Sequence, msg.Kind, msg.Flagged, msg.CreatedAt)

	var m domain.Message
	if err := row.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Content, &m.Sequence, &m.Kind, &m.Flagged, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// ReadRange returns messages with sequence > fromSeq in ascending
// sequence order. Append-only storage makes the same range call
// repeatable.
func (r *MessageRepository) ReadRange(ctx context.Context, roomID string, fromSeq uint64, limit int) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, room_id, sender_id, content, sequence, kind, flagged, created_at
		FROM messages
		WHERE room_id = $1 AND sequence > $2
		ORDER BY sequence ASC
		LIMIT $3
	`, roomID, fromSeq, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Content, &m.Sequence, &m.Kind, &m.Flagged, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// LastSequence reports the highest persisted sequence for a room, 0
// for an empty room.
func (r *MessageRepository) LastSequence(ctx context.Context, roomID string) (uint64, error) {
	var last uint64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence), 0) FROM messages WHERE room_id=$1`,
		roomID).Scan(&last)
	return last, err
}

// Flag sets the flagged bit. The update only ever writes true, so the
// bit is monotone regardless of caller interleaving.
func (r *MessageRepository) Flag(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE messages SET flagged=true WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}
