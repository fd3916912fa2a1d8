package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"prepcoach/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to mirrored keys made by another process
type Watcher struct {
	mu sync.Mutex

	mirror *Mirror
	keys   []string

	lastModTime map[string]time.Time
	pending     map[string]bool

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	changeChan chan struct{}
	doneChan   chan struct{}

	onChange func(key string)
	logger   *errors.Logger

	running bool
}

// NewWatcher creates a watcher for the given keys. onChange is called once
// per changed key after the debounce delay settles.
func NewWatcher(mirror *Mirror, keys []string, debounceDelay time.Duration, onChange func(key string), logger *errors.Logger) *Watcher {
	if debounceDelay == 0 {
		debounceDelay = 250 * time.Millisecond
	}
	return &Watcher{
		mirror:        mirror,
		keys:          keys,
		lastModTime:   make(map[string]time.Time),
		pending:       make(map[string]bool),
		debounceDelay: debounceDelay,
		changeChan:    make(chan struct{}, 1),
		onChange:      onChange,
		logger:        logger,
	}
}

// Start begins watching the mirror directory. A stopped watcher may be
// started again.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("mirror watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory so atomic renames are seen
	if err := watcher.Add(w.mirror.Dir()); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", w.mirror.Dir(), err)
	}
	w.fsWatcher = watcher

	for _, key := range w.keys {
		if stat, err := os.Stat(w.mirror.Path(key)); err == nil {
			w.lastModTime[key] = stat.ModTime()
		}
	}

	w.stopChan = make(chan struct{})
	w.doneChan = make(chan struct{})
	w.running = true
	go w.watchLoop(watcher, w.stopChan, w.doneChan)

	w.logger.Info("Mirror watcher started",
		"dir", w.mirror.Dir(),
		"keys", w.keys,
		"debounce_delay", w.debounceDelay)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.running = false
	fsWatcher, done := w.fsWatcher, w.doneChan
	w.mu.Unlock()

	<-done

	if err := fsWatcher.Close(); err != nil {
		w.logger.LogError(err, "Failed to close file system watcher")
		return err
	}
	w.logger.Info("Mirror watcher stopped")
	return nil
}

// IsRunning returns whether the watcher is currently running
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) watchLoop(fsWatcher *fsnotify.Watcher, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			if key, ok := w.keyForEvent(event); ok {
				w.scheduleNotify(key)
			}

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.LogError(err, "File watcher error")

		case <-w.changeChan:
			for _, key := range w.drainPending() {
				if w.hasKeyChanged(key) {
					w.logger.Debug("Mirrored key changed", "key", key)
					w.onChange(key)
				}
			}

		case <-stop:
			return
		}
	}
}

// keyForEvent maps a file system event to a watched key
func (w *Watcher) keyForEvent(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return "", false
	}
	for _, key := range w.keys {
		if filepath.Base(event.Name) == filepath.Base(w.mirror.Path(key)) {
			return key, true
		}
	}
	return "", false
}

// scheduleNotify marks key as pending and restarts the debounce timer
func (w *Watcher) scheduleNotify(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[key] = true
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.changeChan <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) drainPending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	keys := make([]string, 0, len(w.pending))
	for _, key := range w.keys {
		if w.pending[key] {
			keys = append(keys, key)
		}
	}
	clear(w.pending)
	return keys
}

// hasKeyChanged compares the key's file against the last seen modification time
func (w *Watcher) hasKeyChanged(key string) bool {
	stat, err := os.Stat(w.mirror.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			if _, exists := w.lastModTime[key]; exists {
				delete(w.lastModTime, key)
				return true
			}
		}
		return false
	}

	lastMod, exists := w.lastModTime[key]
	if !exists || !stat.ModTime().Equal(lastMod) {
		w.lastModTime[key] = stat.ModTime()
		return true
	}
	return false
}
