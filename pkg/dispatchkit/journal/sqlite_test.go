package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_AppendAndList(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	r1 := NewRecord("rt-1", KindPanic, "first")
	r1.Activity = "main.Clicker"
	r1.Topic = "main.ClickEvent"
	r1.Domain = 0
	require.NoError(t, store.Append(ctx, r1))

	r2 := NewRecord("rt-1", KindUnmatchedSend, "second")
	require.NoError(t, store.Append(ctx, r2))

	t.Run("round-trips fields", func(t *testing.T) {
		records, err := store.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, records, 2)

		// Newest first
		assert.Equal(t, r2.ID, records[0].ID)

		got := records[1]
		assert.Equal(t, r1.ID, got.ID)
		assert.Equal(t, "rt-1", got.RuntimeID)
		assert.Equal(t, KindPanic, got.Kind)
		assert.Equal(t, "main.Clicker", got.Activity)
		assert.Equal(t, "main.ClickEvent", got.Topic)
		assert.Equal(t, 0, got.Domain)
		assert.Equal(t, "first", got.Detail)
		assert.False(t, got.OccurredAt.IsZero())
	})

	t.Run("respects limit", func(t *testing.T) {
		records, err := store.List(ctx, 1)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, r2.ID, records[0].ID)
	})

	t.Run("filters by kind", func(t *testing.T) {
		records, err := store.ListByKind(ctx, KindPanic, 0)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, r1.ID, records[0].ID)
	})

	t.Run("counts", func(t *testing.T) {
		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestSQLiteStore_AppendValidation(t *testing.T) {
	store := newTestSQLiteStore(t)

	err := store.Append(context.Background(), &Record{RuntimeID: "rt-1", Kind: KindError})
	assert.Error(t, err)
}

func TestSQLiteStore_Closed(t *testing.T) {
	store := newTestSQLiteStore(t)
	require.NoError(t, store.Close())

	ctx := context.Background()

	assert.ErrorIs(t, store.Append(ctx, NewRecord("rt-1", KindError, "late")), ErrStoreClosed)

	_, err := store.List(ctx, 0)
	assert.ErrorIs(t, err, ErrStoreClosed)

	_, err = store.Count(ctx)
	assert.ErrorIs(t, err, ErrStoreClosed)

	// Double close is fine
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "incidents.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Append(ctx, NewRecord("rt-1", KindPanic, "persisted")))
	require.NoError(t, store.Close())

	// Reopen and verify the record survived
	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "persisted", records[0].Detail)
}
