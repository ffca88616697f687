package livesync

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"termblock/internal/logging"
)

var (
	ErrBridgeClosed      = errors.New("live-sync bridge closed")
	ErrDocumentIDMissing = errors.New("document id is required")
)

const DefaultDebounce = 50 * time.Millisecond

// ChangeFunc receives a watched document's trimmed file contents after a write.
type ChangeFunc func(documentID, content string)

type Options struct {
	OnChange ChangeFunc
	Logger   *logging.Logger
	// Debounce coalesces events per path. Zero uses DefaultDebounce, a negative
	// value delivers every event.
	Debounce time.Duration
}

// Bridge watches files on behalf of documents. It is safe for concurrent use.
type Bridge struct {
	mu       sync.RWMutex
	entries  *registry
	onChange ChangeFunc

	watcher  *fsnotify.Watcher
	debounce *debouncer
	logger   *logging.Logger
	closed   atomic.Bool
	done     chan struct{}
}

func New(opts Options) (*Bridge, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	debounce := opts.Debounce
	if debounce == 0 {
		debounce = DefaultDebounce
	}

	bridge := &Bridge{
		entries:  newRegistry(),
		onChange: opts.OnChange,
		watcher:  watcher,
		logger: logger.Component("livesync"),
		done: make(chan struct{}),
	}
	if debounce > 0 {
		bridge.debounce = newDebouncer(debounce)
	}

	go bridge.run()
	return bridge, nil
}

// SetChangeHandler replaces the change callback.
func (b *Bridge) SetChangeHandler(onChange ChangeFunc) {
	b.mu.Lock()
	b.onChange = onChange
	b.mu.Unlock()
}

// WatchFile notifies documentID whenever path is rewritten. A path already
// watched is reassigned to documentID.
func (b *Bridge) WatchFile(documentID, path string) error {
	if documentID == "" {
		return ErrDocumentIDMissing
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", path, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed.Load() {
		return ErrBridgeClosed
	}
	if b.entries.add(absPath, documentID) {
		dir := filepath.Dir(absPath)
		if err := b.watcher.Add(dir); err != nil {
			b.entries.rollback(absPath)
			b.logger.Warn("watch add failed", map[string]string{
				"path":  dir,
				"error": err.Error(),
			})
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		b.logger.Debug("directory watch added", map[string]string{"path": dir})
	}
	b.logger.Debug("file watched", map[string]string{
		"document_id": documentID,
		"path":        absPath,
	})
	return nil
}

// StopWatching removes the oldest watch entry held by documentID.
func (b *Bridge) StopWatching(documentID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	path, emptyDir, ok := b.entries.removeDocument(documentID)
	if !ok {
		return
	}
	if b.debounce != nil {
		b.debounce.cancel(path)
	}
	b.logger.Debug("file unwatched", map[string]string{
		"document_id": documentID,
		"path":        path,
	})
	if !emptyDir || b.closed.Load() {
		return
	}
	dir := filepath.Dir(path)
	if err := b.watcher.Remove(dir); err != nil {
		b.logger.Debug("watch remove failed", map[string]string{
			"path":  dir,
			"error": err.Error(),
		})
	}
}

// Watched returns a copy of the path → document table.
func (b *Bridge) Watched() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.entries.snapshot()
}

// Close stops the watcher and waits for the event loop to exit.
func (b *Bridge) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	if b.debounce != nil {
		b.debounce.stop()
	}
	err := b.watcher.Close()
	<-b.done
	return err
}

func (b *Bridge) run() {
	defer close(b.done)
	for {
		select {
		case event, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			b.handleEvent(event)
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			b.logger.Warn("watcher error", map[string]string{
				"error": err.Error(),
			})
		}
	}
}

// handleEvent treats writes and creations (including rename targets) as a
// rewrite of the file.
func (b *Bridge) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	path := filepath.Clean(event.Name)

	b.mu.RLock()
	_, watched := b.entries.lookup(path)
	b.mu.RUnlock()
	if !watched {
		return
	}

	if b.debounce != nil {
		b.debounce.schedule(path, b.deliver)
		return
	}
	b.deliver(path)
}

func (b *Bridge) deliver(path string) {
	if b.closed.Load() {
		return
	}

	b.mu.RLock()
	documentID, ok := b.entries.lookup(path)
	onChange := b.onChange
	b.mu.RUnlock()
	if !ok || onChange == nil {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		b.logger.Warn("watched file read failed", map[string]string{
			"document_id": documentID,
			"path":        path,
			"error":       err.Error(),
		})
		return
	}

	b.logger.Debug("document changed", map[string]string{
		"document_id": documentID,
		"bytes":       strconv.Itoa(len(data)),
	})
	onChange(documentID, strings.TrimSpace(string(data)))
}
