package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindconnect/chat-service/internal/domain"
)

type memReader struct {
	msgs []domain.Message
}

func (r *memReader) ReadRange(_ context.Context, roomID string, fromSeq uint64, limit int) ([]domain.Message, error) {
	var out []domain.Message
	for _, m := range r.msgs {
		if m.RoomID == roomID && m.Sequence > fromSeq {
			out = append(out, m)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func seededReader(roomID string, n int) *memReader {
	r := &memReader{}
	for i := 1; i <= n; i++ {
		r.msgs = append(r.msgs, domain.Message{
			ID:       fmt.Sprintf("m%d", i),
			RoomID:   roomID,
			Content:  fmt.Sprintf("message %d", i),
			Sequence: uint64(i),
			Kind:     domain.KindText,
		})
	}
	return r
}

func TestHistory_PagesAscendingBySequence(t *testing.T) {
	svc := NewHistoryService(seededReader("r1", 5))
	ctx := context.Background()

	page1, cursor1, err := svc.Fetch(ctx, "r1", "", 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.Equal(t, uint64(1), page1[0].Sequence)
	require.Equal(t, uint64(2), page1[1].Sequence)
	require.NotEmpty(t, cursor1)

	page2, cursor2, err := svc.Fetch(ctx, "r1", cursor1, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(3), page2[0].Sequence)
	require.Equal(t, uint64(4), page2[1].Sequence)

	page3, cursor3, err := svc.Fetch(ctx, "r1", cursor2, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	require.Equal(t, uint64(5), page3[0].Sequence)
	require.Empty(t, cursor3)
}

func TestHistory_RepeatableWithSameCursor(t *testing.T) {
	reader := seededReader("r1", 4)
	svc := NewHistoryService(reader)
	ctx := context.Background()

	first, cursor, err := svc.Fetch(ctx, "r1", "", 2)
	require.NoError(t, err)

	again, cursorAgain, err := svc.Fetch(ctx, "r1", "", 2)
	require.NoError(t, err)
	require.Equal(t, first, again)
	require.Equal(t, cursor, cursorAgain)

	// an append after the cursor does not disturb earlier pages
	reader.msgs = append(reader.msgs, domain.Message{
		ID: "m5", RoomID: "r1", Sequence: 5, Kind: domain.KindText,
	})
	repeat, _, err := svc.Fetch(ctx, "r1", "", 2)
	require.NoError(t, err)
	require.Equal(t, first, repeat)
}

func TestHistory_GapsAreSkippedNotInvented(t *testing.T) {
	reader := &memReader{msgs: []domain.Message{
		{ID: "m1", RoomID: "r1", Sequence: 1},
		{ID: "m3", RoomID: "r1", Sequence: 3}, // 2 failed persistence
	}}
	svc := NewHistoryService(reader)

	items, _, err := svc.Fetch(context.Background(), "r1", "", 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, uint64(1), items[0].Sequence)
	require.Equal(t, uint64(3), items[1].Sequence)
}

func TestHistory_LimitsAndCursorValidation(t *testing.T) {
	svc := NewHistoryService(seededReader("r1", 3))
	ctx := context.Background()

	_, _, err := svc.Fetch(ctx, "r1", "not-base64!!!", 10)
	require.ErrorIs(t, err, ErrInvalidCursor)

	// zero and oversized limits clamp instead of failing
	items, _, err := svc.Fetch(ctx, "r1", "", 0)
	require.NoError(t, err)
	require.Len(t, items, 3)

	_, _, err = svc.Fetch(ctx, "r1", "", 100000)
	require.NoError(t, err)
}
