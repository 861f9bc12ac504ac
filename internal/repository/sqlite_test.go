package repository

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:", zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_SaveLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := Record{
		ID:        "game-1",
		Data:      bytes.Repeat([]byte("transform build upgrade "), 64),
		Checksum:  "abc123",
		Round:     3,
		Finished:  false,
		UpdatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Load(ctx, "game-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Data, got.Data)
	assert.Equal(t, rec.Checksum, got.Checksum)
	assert.Equal(t, rec.Round, got.Round)
	assert.False(t, got.Finished)
	assert.True(t, rec.UpdatedAt.Equal(got.UpdatedAt))
}

func TestSQLiteStore_SaveOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Record{ID: "g", Data: []byte("one"), Checksum: "1", Round: 1}))
	require.NoError(t, s.Save(ctx, Record{ID: "g", Data: []byte("two"), Checksum: "2", Round: 6, Finished: true}))

	got, err := s.Load(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got.Data)
	assert.Equal(t, "2", got.Checksum)
	assert.Equal(t, 6, got.Round)
	assert.True(t, got.Finished)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSQLiteStore_LoadMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Load(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteStore_ListAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	require.NoError(t, s.Save(ctx, Record{ID: "a", Data: []byte("a"), UpdatedAt: older}))
	require.NoError(t, s.Save(ctx, Record{ID: "b", Data: []byte("b"), UpdatedAt: newer}))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)

	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Delete(ctx, "a"))

	_, err = s.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.db")
	ctx := context.Background()

	s, err := OpenSQLite(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, Record{ID: "persisted", Data: []byte("log"), Checksum: "c"}))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, []byte("log"), got.Data)
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	_, err := OpenSQLite("", nil)
	assert.Error(t, err)
}

func TestCompressRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte{1, 2, 3, 4}, 1000)
	blob := compress(data)
	assert.Less(t, len(blob), len(data))

	got, err := decompress(blob)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = decompress([]byte("not zstd"))
	assert.Error(t, err)
}
