package ratelimit_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/foresight/internal/ratelimit"
)

func TestFileStore(t *testing.T) {
	t.Run("should return an empty window when no file exists", func(t *testing.T) {
		store := ratelimit.NewFileStore(filepath.Join(t.TempDir(), "window.json"))

		stamps, err := store.Load()
		require.NoError(t, err)
		require.Empty(t, stamps)
	})

	t.Run("should round-trip saved timestamps", func(t *testing.T) {
		store := ratelimit.NewFileStore(filepath.Join(t.TempDir(), "state", "window.json"))

		now := time.Now()
		saved := []time.Time{now.Add(-2 * time.Second), now.Add(-time.Second), now}
		require.NoError(t, store.Save(saved))

		loaded, err := store.Load()
		require.NoError(t, err)
		require.Len(t, loaded, len(saved))
		for i := range saved {
			require.WithinDuration(t, saved[i], loaded[i], time.Millisecond)
		}
	})

	t.Run("should rewrite the file in full on save", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "window.json")
		store := ratelimit.NewFileStore(path)

		now := time.Now()
		require.NoError(t, store.Save([]time.Time{now, now, now}))
		require.NoError(t, store.Save([]time.Time{now}))

		loaded, err := store.Load()
		require.NoError(t, err)
		require.Len(t, loaded, 1)
	})

	t.Run("should fail on corrupt state", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "window.json")
		require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

		_, err := ratelimit.NewFileStore(path).Load()
		require.Error(t, err)
	})
}
