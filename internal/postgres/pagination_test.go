package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCursor_RoundTrip(t *testing.T) {
	orig := Cursor{
		CreatedAt: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
		ID:        "9f4c2d10-0000-0000-0000-000000000001",
	}

	encoded, err := EncodeCursor(orig)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := DecodeCursor(encoded)
	require.NoError(t, err)
	require.True(t, orig.CreatedAt.Equal(decoded.CreatedAt))
	require.Equal(t, orig.ID, decoded.ID)
}

func TestCursor_EmptyMeansFirstPage(t *testing.T) {
	decoded, err := DecodeCursor("")
	require.NoError(t, err)
	require.Nil(t, decoded)
}

func TestCursor_RejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("!!not base64!!")
	require.ErrorIs(t, err, ErrInvalidCursor)

	// valid base64, invalid json
	_, err = DecodeCursor("bm90LWpzb24")
	require.ErrorIs(t, err, ErrInvalidCursor)
}
