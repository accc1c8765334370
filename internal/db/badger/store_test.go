package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/estatesearch/internal/db"
)

func openMem(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SetGet(t *testing.T) {
	s := openMem(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "emb:1", []byte{1, 2, 3}))

	got, err := s.Get(ctx, "emb:1")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, got)
}

func TestStore_GetMissing(t *testing.T) {
	s := openMem(t)

	_, err := s.Get(context.Background(), "nope")
	require.ErrorIs(t, err, db.ErrKeyNotFound)
}

func TestStore_Overwrite(t *testing.T) {
	s := openMem(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("a")))
	require.NoError(t, s.Set(ctx, "k", []byte("b")))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "b", string(got))
}

func TestStore_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", []byte("persisted")))
	require.NoError(t, s.Close())

	s, err = Open(Config{Path: dir})
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "persisted", string(got))
	require.NoError(t, s.Ping(ctx))
}
