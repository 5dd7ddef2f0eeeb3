package domain

import "time"

type Room struct {
	ID              string    `db:"id"`
	Name            string    `db:"name"`
	Topic           string    `db:"topic"`
	ModeratorID     *string   `db:"moderator_id"`
	MaxParticipants int64     `db:"max_participants"`
	IsActive        bool      `db:"is_active"`
	CreatedAt       time.Time `db:"created_at"`
}
