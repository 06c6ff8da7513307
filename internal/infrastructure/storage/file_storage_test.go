package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	store, err := NewFileStore(dir, zap.NewNop())
	require.NoError(t, err)

	_, ok, err := store.Load(ctx, "travelRequestDraft")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, "travelRequestDraft", []byte(`{"name":"Trip to Berlin"}`)))

	value, ok, err := store.Load(ctx, "travelRequestDraft")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"name":"Trip to Berlin"}`, string(value))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	require.NoError(t, store.Delete(ctx, "travelRequestDraft"))
	require.NoError(t, store.Delete(ctx, "travelRequestDraft"))
	_, ok, err = store.Load(ctx, "travelRequestDraft")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", "a/b", ".."} {
		err := store.Save(context.Background(), key, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestFileStore_CancelledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Save(ctx, "k", []byte("x")), context.Canceled)
}
