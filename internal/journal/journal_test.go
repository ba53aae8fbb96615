package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digibank/pkg/platform/sentinel"
)

func sampleIntent() PendingIntent {
	return PendingIntent{
		Key:           "0b7c4a5e-3a1f-4d7e-9a51-7c1f2d3e4b5a",
		FromAccountID: 1,
		PayeeID:       2,
		Amount:        "10.50",
		Currency:      "CAD",
		SavedAt:       time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty store reports not found", func(t *testing.T) {
		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("save then load round-trips", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sampleIntent()))
		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, sampleIntent().Key, got.Key)
		assert.Equal(t, sampleIntent().Amount, got.Amount)
		assert.Equal(t, sampleIntent().PayeeID, got.PayeeID)
		assert.True(t, sampleIntent().SavedAt.Equal(got.SavedAt))
	})

	t.Run("save replaces the previous intent", func(t *testing.T) {
		next := sampleIntent()
		next.Key = "second-key"
		require.NoError(t, store.Save(ctx, next))
		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "second-key", got.Key)
	})

	t.Run("clear empties the store and is idempotent", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx))
		require.NoError(t, store.Clear(ctx))
		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pending.json")
	exerciseStore(t, NewFile(path))
}

func TestFile_SurvivesNewInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pending.json")
	require.NoError(t, NewFile(path).Save(context.Background(), sampleIntent()))

	got, err := NewFile(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleIntent().Key, got.Key)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFile_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pending.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFile(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, sentinel.ErrNotFound)
}

func TestFile_ScopedPerOwner(t *testing.T) {
	ctx := context.Background()
	base := filepath.Join(t.TempDir(), "pending.json")

	alicePath := ScopedPath(base, "alice@example.com")
	bobPath := ScopedPath(base, "bob@example.com")
	assert.NotEqual(t, alicePath, bobPath)
	assert.Equal(t, alicePath, ScopedPath(base, " Alice@Example.com "))
	assert.Equal(t, ".json", filepath.Ext(alicePath))
	assert.Equal(t, base, ScopedPath(base, ""))

	require.NoError(t, NewFile(alicePath).Save(ctx, sampleIntent()))

	_, err := NewFile(bobPath).Load(ctx)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	got, err := NewFile(alicePath).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleIntent().Key, got.Key)
}
