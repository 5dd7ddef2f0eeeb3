package alert

import (
	"log/slog"

	"github.com/mindconnect/chat-service/internal/domain"
)

// Notifier is the crisis-alert collaborator. Implementations must not
// block: the pipeline calls NotifyCrisis fire-and-forget after the
// message is persisted.
type Notifier interface {
	NotifyCrisis(msg domain.Message, userID string)
}

// LogNotifier is the default sink: a structured log line that an
// on-call alerting rule can match on.
type LogNotifier struct{}

func (LogNotifier) NotifyCrisis(msg domain.Message, userID string) {
	slog.Warn("crisis message detected",
		"message_id", msg.ID,
		"room", msg.RoomID,
		"user", userID,
		"at", msg.CreatedAt,
	)
}
