package memory

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher invalidates a store's cached index when snapshot files change on
// disk outside this process.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger
	onDirty  func()
	debounce time.Duration
	timer    *time.Timer
	stopCh   chan struct{}
}

// NewWatcher creates a watcher over the store's snapshot directory.
func NewWatcher(store *Store, logger zerolog.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  watcher,
		logger:   logger,
		onDirty:  store.Invalidate,
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}

	if err := watcher.Add(store.Dir()); err != nil {
		watcher.Close()
		return nil, err
	}

	go w.run()

	return w, nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	return w.watcher.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if !strings.HasSuffix(strings.ToLower(event.Name), ".json") {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				w.logger.Debug().
					Str("file", filepath.Base(event.Name)).
					Str("op", event.Op.String()).
					Msg("Memory snapshot changed on disk")
				w.markDirty()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Memory watcher error")

		case <-w.stopCh:
			return
		}
	}
}

// markDirty debounces bursts of file events into a single invalidation.
func (w *Watcher) markDirty() {
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onDirty)
}
