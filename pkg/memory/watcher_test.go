package memory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_InvalidatesOnExternalWrite(t *testing.T) {
	store, err := NewStore(t.TempDir(), 8, zerolog.Nop())
	require.NoError(t, err)

	watcher, err := NewWatcher(store, zerolog.Nop())
	require.NoError(t, err)
	defer watcher.Stop()

	// Warm the index cache
	files, err := store.List()
	require.NoError(t, err)
	require.Empty(t, files)

	external := filepath.Join(store.Dir(), "20260831_1200.json")
	require.NoError(t, os.WriteFile(external, []byte(`{"session_key":"x","messages":[]}`), 0644))

	assert.Eventually(t, func() bool {
		files, err := store.List()
		return err == nil && len(files) == 1
	}, 3*time.Second, 50*time.Millisecond)
}

func TestWatcher_IgnoresNonJSONFiles(t *testing.T) {
	store, err := NewStore(t.TempDir(), 8, zerolog.Nop())
	require.NoError(t, err)

	watcher, err := NewWatcher(store, zerolog.Nop())
	require.NoError(t, err)
	defer watcher.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "scratch.tmp"), []byte("x"), 0644))

	time.Sleep(time.Second)
	files, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}
