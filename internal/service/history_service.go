package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mindconnect/chat-service/internal/domain"
)

var ErrInvalidCursor = errors.New("invalid history cursor")

// MessageReader is the ordered-read half of the message store adapter.
type MessageReader interface {
	ReadRange(ctx context.Context, roomID string, fromSeq uint64, limit int) ([]domain.Message, error)
}

// HistoryService pages through a room's persisted messages in
// ascending sequence order. The cursor carries the last-seen sequence,
// so repeating a fetch returns the same page until new messages are
// appended.
type HistoryService struct {
	messages MessageReader
}

func NewHistoryService(messages MessageReader) *HistoryService {
	return &HistoryService{messages: messages}
}

func (s *HistoryService) Fetch(ctx context.Context, roomID, cursor string, limit int) ([]domain.Message, string, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	var fromSeq uint64
	if cursor != "" {
		cur, err := decodeHistoryCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		fromSeq = cur.Sequence
	}

	items, err := s.messages.ReadRange(ctx, roomID, fromSeq, limit)
	if err != nil {
		return nil, "", fmt.Errorf("read range: %w", err)
	}

	var next string
	if len(items) == limit {
		next = encodeHistoryCursor(historyCursor{Sequence: items[len(items)-1].Sequence})
	}
	return items, next, nil
}

type historyCursor struct {
	Sequence uint64 `json:"sequence"`
}

func encodeHistoryCursor(c historyCursor) string {
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

func decodeHistoryCursor(s string) (*historyCursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: decode base64: %v", ErrInvalidCursor, err)
	}
	var c historyCursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: decode json: %v", ErrInvalidCursor, err)
	}
	return &c, nil
}
