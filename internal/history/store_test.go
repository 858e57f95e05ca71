package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(ctx, Entry{
		ReceiptID:   "5001",
		Fingerprint: "00042.SPL_1024_1700000000123",
		ItemCount:   3,
		Total:       27.00,
		Delivered:   true,
		RecordedAt:  base,
	}))
	require.NoError(t, s.Record(ctx, Entry{
		ReceiptID:   "5002",
		Fingerprint: "00043.SPL_900_1700000001000",
		ItemCount:   1,
		Total:       9.99,
		Delivered:   false,
		RecordedAt:  base.Add(time.Second),
	}))

	entries, err := s.List(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// newest first
	assert.Equal(t, "5002", entries[0].ReceiptID)
	assert.False(t, entries[0].Delivered)
	assert.Equal(t, "5001", entries[1].ReceiptID)
	assert.True(t, entries[1].Delivered)
	assert.Equal(t, 3, entries[1].ItemCount)
	assert.Equal(t, 27.00, entries[1].Total)
	assert.NotEmpty(t, entries[1].ID)
	assert.False(t, entries[1].RecordedAt.IsZero())
}

func TestList_Window(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, Entry{
			ReceiptID:  "r",
			ItemCount:  1,
			Total:      1,
			Delivered:  true,
			RecordedAt: base.AddDate(0, 0, i),
		}))
	}

	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 3)
	entries, err := s.List(ctx, &from, &to)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = s.List(ctx, &from, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestRecord_GeneratesIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Entry{ReceiptID: "a", Delivered: true}))
	require.NoError(t, s.Record(ctx, Entry{ReceiptID: "b", Delivered: true}))

	entries, err := s.List(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}
