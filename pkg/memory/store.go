package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultMaxFiles is the number of snapshots kept on disk.
const DefaultMaxFiles = 8

// DefaultMaxMessages caps the conversation length a snapshot keeps; older
// messages are dropped on save.
const DefaultMaxMessages = 40

// contextMessageCount is how many recent messages Context renders.
const contextMessageCount = 10

const snapshotTimeLayout = "20060102_1504"

// Record is a single conversation message inside a snapshot.
type Record struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is one persisted conversation, plus anything the assistant was
// asked to remember about the user across sessions.
type Snapshot struct {
	SessionKey  string                 `json:"session_key,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	Preferences map[string]interface{} `json:"preferences,omitempty"`
	Facts       map[string]interface{} `json:"facts,omitempty"`
	Messages    []Record               `json:"messages"`
}

// SetPreference records a remembered user preference.
func (s *Snapshot) SetPreference(key string, value interface{}) {
	if s.Preferences == nil {
		s.Preferences = map[string]interface{}{}
	}
	s.Preferences[key] = value
}

// SetFact records a remembered user fact.
func (s *Snapshot) SetFact(key string, value interface{}) {
	if s.Facts == nil {
		s.Facts = map[string]interface{}{}
	}
	s.Facts[key] = value
}

// Context renders the snapshot as a compact string for prompt injection:
// remembered preferences, remembered facts, and the most recent messages.
// An empty snapshot renders as "".
func (s Snapshot) Context() string {
	var parts []string
	if len(s.Preferences) > 0 {
		parts = append(parts, "User preferences: "+renderPairs(s.Preferences))
	}
	if len(s.Facts) > 0 {
		parts = append(parts, "User facts: "+renderPairs(s.Facts))
	}
	if len(s.Messages) > 0 {
		recent := s.Messages
		if len(recent) > contextMessageCount {
			recent = recent[len(recent)-contextMessageCount:]
		}
		lines := make([]string, 0, len(recent))
		for _, m := range recent {
			lines = append(lines, m.Role+": "+m.Content)
		}
		parts = append(parts, "Recent conversation:\n"+strings.Join(lines, "\n"))
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

func renderPairs(m map[string]interface{}) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return strings.Join(pairs, ", ")
}

// Store reads and writes conversation snapshots in a single directory.
type Store struct {
	dir      string
	maxFiles int
	logger   zerolog.Logger

	mu    sync.Mutex
	index []string // cached snapshot paths, oldest to newest
	dirty bool
}

// NewStore creates a snapshot store rooted at baseDir/memory, creating the
// directory if needed. maxFiles <= 0 selects DefaultMaxFiles.
func NewStore(baseDir string, maxFiles int, logger zerolog.Logger) (*Store, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}

	dir := filepath.Join(baseDir, "memory")
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return nil, fmt.Errorf("memory path exists but is not a directory: %s", dir)
		}
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create memory directory: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to stat memory directory: %w", err)
	}

	return &Store{
		dir:      dir,
		maxFiles: maxFiles,
		logger:   logger,
		dirty:    true,
	}, nil
}

// Dir returns the snapshot directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes a snapshot and prunes old files beyond the retention limit.
// It returns the path of the written file.
func (s *Store) Save(snapshot Snapshot) (string, error) {
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now()
	}
	if len(snapshot.Messages) > DefaultMaxMessages {
		snapshot.Messages = snapshot.Messages[len(snapshot.Messages)-DefaultMaxMessages:]
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, snapshot.CreatedAt.Format(snapshotTimeLayout)+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	s.dirty = true

	if err := s.pruneLocked(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to prune old memory snapshots")
	}

	return path, nil
}

// List returns snapshot paths ordered oldest to newest.
func (s *Store) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

// LoadLatest loads the most recent snapshot. ok is false when no snapshot exists.
func (s *Store) LoadLatest() (Snapshot, bool, error) {
	return s.LoadByIndex(1)
}

// LoadByIndex loads a snapshot by recency index: 1 is the most recent,
// 2 the second most recent, and so on.
func (s *Store) LoadByIndex(index int) (Snapshot, bool, error) {
	if index < 1 {
		return Snapshot{}, false, fmt.Errorf("index must be >= 1, got %d", index)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.listLocked()
	if err != nil {
		return Snapshot{}, false, err
	}
	if index > len(files) {
		return Snapshot{}, false, nil
	}

	path := files[len(files)-index]
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, false, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	return snapshot, true, nil
}

// Invalidate marks the cached file index stale. Called by the watcher when
// snapshots change on disk outside this process.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

func (s *Store) listLocked() ([]string, error) {
	if !s.dirty {
		out := make([]string, len(s.index))
		copy(out, s.index)
		return out, nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory directory: %w", err)
	}

	type fileInfo struct {
		path    string
		modTime time.Time
	}
	files := make([]fileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{
			path:    filepath.Join(s.dir, entry.Name()),
			modTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].path < files[j].path
		}
		return files[i].modTime.Before(files[j].modTime)
	})

	s.index = s.index[:0]
	for _, file := range files {
		s.index = append(s.index, file.path)
	}
	s.dirty = false

	out := make([]string, len(s.index))
	copy(out, s.index)
	return out, nil
}

func (s *Store) pruneLocked() error {
	files, err := s.listLocked()
	if err != nil {
		return err
	}
	if len(files) <= s.maxFiles {
		return nil
	}

	for _, path := range files[:len(files)-s.maxFiles] {
		if err := os.Remove(path); err != nil {
			s.logger.Warn().Str("file", path).Err(err).Msg("Failed to delete old memory snapshot")
			continue
		}
		s.logger.Info().Str("file", path).Msg("Deleted old memory snapshot")
		s.dirty = true
	}
	return nil
}
