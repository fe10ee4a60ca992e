package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxFiles int) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir(), maxFiles, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func saveAt(t *testing.T, store *Store, createdAt time.Time, content string) string {
	t.Helper()

	path, err := store.Save(Snapshot{
		SessionKey: "sess",
		CreatedAt:  createdAt,
		Messages: []Record{
			{Role: "user", Content: content, Timestamp: createdAt},
		},
	})
	require.NoError(t, err)
	return path
}

func TestStore_SaveAndLoadLatest(t *testing.T) {
	store := newTestStore(t, 8)
	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	path := saveAt(t, store, base, "hello")
	assert.Equal(t, "20260831_1000.json", filepath.Base(path))

	snapshot, ok, err := store.LoadLatest()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sess", snapshot.SessionKey)
	require.Len(t, snapshot.Messages, 1)
	assert.Equal(t, "hello", snapshot.Messages[0].Content)
}

func TestStore_LoadByIndex(t *testing.T) {
	store := newTestStore(t, 8)
	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	saveAt(t, store, base, "oldest")
	saveAt(t, store, base.Add(time.Minute), "middle")
	saveAt(t, store, base.Add(2*time.Minute), "newest")

	tests := []struct {
		index int
		want  string
	}{
		{1, "newest"},
		{2, "middle"},
		{3, "oldest"},
	}

	for _, tt := range tests {
		snapshot, ok, err := store.LoadByIndex(tt.index)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, tt.want, snapshot.Messages[0].Content)
	}
}

func TestStore_LoadByIndex_OutOfRange(t *testing.T) {
	store := newTestStore(t, 8)
	saveAt(t, store, time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC), "only")

	_, ok, err := store.LoadByIndex(2)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = store.LoadByIndex(0)
	assert.Error(t, err)
}

func TestStore_LoadLatest_Empty(t *testing.T) {
	store := newTestStore(t, 8)

	_, ok, err := store.LoadLatest()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PrunesOldSnapshots(t *testing.T) {
	store := newTestStore(t, 3)
	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		saveAt(t, store, base.Add(time.Duration(i)*time.Minute), "msg")
	}

	files, err := store.List()
	require.NoError(t, err)
	require.Len(t, files, 3)

	// The oldest two were deleted
	assert.Equal(t, "20260831_1002.json", filepath.Base(files[0]))
	assert.Equal(t, "20260831_1004.json", filepath.Base(files[2]))
}

func TestStore_List_OldestFirst(t *testing.T) {
	store := newTestStore(t, 8)
	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	saveAt(t, store, base, "a")
	saveAt(t, store, base.Add(time.Minute), "b")

	files, err := store.List()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "20260831_1000.json", filepath.Base(files[0]))
	assert.Equal(t, "20260831_1001.json", filepath.Base(files[1]))
}

func TestStore_InvalidatePicksUpExternalChanges(t *testing.T) {
	store := newTestStore(t, 8)
	saveAt(t, store, time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC), "one")

	// Warm the index cache, then drop a file behind the store's back
	files, err := store.List()
	require.NoError(t, err)
	require.Len(t, files, 1)

	external := filepath.Join(store.Dir(), "20260831_1001.json")
	require.NoError(t, os.WriteFile(external, []byte(`{"session_key":"x","messages":[]}`), 0644))

	store.Invalidate()

	files, err = store.List()
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestStore_SaveFillsCreatedAt(t *testing.T) {
	store := newTestStore(t, 8)

	path, err := store.Save(Snapshot{SessionKey: "sess"})
	require.NoError(t, err)
	assert.True(t, len(filepath.Base(path)) > len(".json"))
}

func TestStore_Save_TrimsMessages(t *testing.T) {
	store := newTestStore(t, 8)
	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	snapshot := Snapshot{SessionKey: "sess", CreatedAt: base}
	for i := 0; i < DefaultMaxMessages+10; i++ {
		snapshot.Messages = append(snapshot.Messages, Record{
			Role:    "user",
			Content: fmt.Sprintf("message %d", i),
		})
	}

	_, err := store.Save(snapshot)
	require.NoError(t, err)

	loaded, ok, err := store.LoadLatest()
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, loaded.Messages, DefaultMaxMessages)
	assert.Equal(t, "message 10", loaded.Messages[0].Content)
	assert.Equal(t, fmt.Sprintf("message %d", DefaultMaxMessages+9), loaded.Messages[len(loaded.Messages)-1].Content)
}

func TestSnapshot_Context(t *testing.T) {
	snapshot := Snapshot{
		Messages: []Record{
			{Role: "user", Content: "what timezone am I in"},
			{Role: "assistant", Content: "UTC+7"},
		},
	}
	snapshot.SetPreference("language", "english")
	snapshot.SetPreference("format", "markdown")
	snapshot.SetFact("timezone", "UTC+7")

	got := snapshot.Context()
	assert.Contains(t, got, "User preferences: format=markdown, language=english")
	assert.Contains(t, got, "User facts: timezone=UTC+7")
	assert.Contains(t, got, "Recent conversation:\nuser: what timezone am I in\nassistant: UTC+7")
}

func TestSnapshot_Context_Empty(t *testing.T) {
	assert.Empty(t, Snapshot{}.Context())
}

func TestSnapshot_Context_RecentMessagesOnly(t *testing.T) {
	snapshot := Snapshot{}
	for i := 0; i < contextMessageCount+5; i++ {
		snapshot.Messages = append(snapshot.Messages, Record{
			Role:    "user",
			Content: fmt.Sprintf("message %d", i),
		})
	}

	got := snapshot.Context()
	assert.NotContains(t, got, "message 4\n")
	assert.Contains(t, got, "message 5")
	assert.Contains(t, got, fmt.Sprintf("message %d", contextMessageCount+4))
}
