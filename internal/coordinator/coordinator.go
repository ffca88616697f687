// Package coordinator pairs the embedded editor with the live-sync bridge:
// opening a document for editing starts the editor and watches its file, and
// the editor's exit stops the watch.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"termblock/internal/buffer"
	"termblock/internal/editor"
	"termblock/internal/event"
	"termblock/internal/livesync"
	"termblock/internal/logging"
)

var ErrDocumentRequired = errors.New("document id is required")

const (
	defaultOutputHistory = 512
	outputWriteTimeout   = 2 * time.Second
)

// Editor is the subset of *editor.Manager the coordinator drives.
type Editor interface {
	Open(path string, line int) (string, error)
	Write(data []byte) error
	Resize(cols, rows uint16) error
	Size() (cols, rows uint16)
	IsRunning() bool
	SetHandlers(handlers editor.Handlers)
	Close() error
}

// Watcher is the subset of *livesync.Bridge the coordinator drives.
type Watcher interface {
	WatchFile(documentID, path string) error
	StopWatching(documentID string)
	SetChangeHandler(onChange livesync.ChangeFunc)
	Close() error
}

type Options struct {
	Editor        Editor
	Watcher       Watcher
	Logger        *logging.Logger
	OutputHistory int
}

type Coordinator struct {
	mu       sync.Mutex
	editor   Editor
	watcher  Watcher
	sessions map[string]string
	active   string
	activeID string

	// historyMu guards the replay ring and which session may write to it.
	// outputID is empty between a replacing open and the new session's first
	// chunk; retired sessions are dropped until their exit is reported.
	historyMu sync.Mutex
	history   *buffer.Ring[[]byte]
	outputID  string
	retired   map[string]struct{}

	events *event.Bus[Event]
	output *event.Bus[[]byte]
	logger *logging.Logger
	cancel context.CancelFunc
}

func New(opts Options) (*Coordinator, error) {
	if opts.Editor == nil {
		return nil, errors.New("editor is required")
	}
	if opts.Watcher == nil {
		return nil, errors.New("watcher is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	historySize := opts.OutputHistory
	if historySize <= 0 {
		historySize = defaultOutputHistory
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		editor:   opts.Editor,
		watcher:  opts.Watcher,
		sessions: make(map[string]string),
		history:  buffer.NewRing[[]byte](historySize),
		retired:  make(map[string]struct{}),
		logger: logger.Component("coordinator"),
		cancel: cancel,
	}
	c.events = event.NewBus[Event](ctx, event.BusOptions{
		Name:   "coordinator_events",
		Logger: logger,
	})
	c.output = event.NewBus[[]byte](ctx, event.BusOptions{
		Name:         "editor_output",
		BlockOnFull:  true,
		WriteTimeout: outputWriteTimeout,
		Logger:       logger,
	})

	c.editor.SetHandlers(editor.Handlers{
		OnData: c.handleOutput,
		OnExit: c.handleExit,
	})
	c.watcher.SetChangeHandler(c.handleChange)
	return c, nil
}

// OpenForEdit starts the editor on path for documentID and watches the file
// so saves are reported as document_changed events.
func (c *Coordinator) OpenForEdit(documentID, path string, line int) error {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return ErrDocumentRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.retireOutput()

	sessionID, err := c.editor.Open(path, line)
	if err != nil {
		failed := newEvent(EventEditorFailed, documentID)
		failed.Path = path
		failed.Error = err.Error()
		c.events.Publish(failed)
		return fmt.Errorf("open %s: %w", documentID, err)
	}

	c.claimOutput(sessionID)
	c.sessions[sessionID] = documentID
	c.active = documentID
	c.activeID = sessionID
	if err := c.watcher.WatchFile(documentID, path); err != nil {
		c.logger.Warn("document watch failed", map[string]string{
			"document_id": documentID,
			"path":        path,
			"error":       err.Error(),
		})
	}

	opened := newEvent(EventEditorOpened, documentID)
	opened.Path = path
	opened.Line = line
	c.events.Publish(opened)
	return nil
}

func (c *Coordinator) Write(data []byte) error {
	return c.editor.Write(data)
}

func (c *Coordinator) Resize(cols, rows uint16) error {
	return c.editor.Resize(cols, rows)
}

func (c *Coordinator) Size() (cols, rows uint16) {
	return c.editor.Size()
}

// CloseEditor terminates the running editor. The exit event follows once the
// session has been reaped.
func (c *Coordinator) CloseEditor() error {
	return c.editor.Close()
}

// Active reports the document being edited and whether its editor is running.
func (c *Coordinator) Active() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeID == "" {
		return "", false
	}
	return c.active, c.editor.IsRunning()
}

func (c *Coordinator) Events() *event.Bus[Event] {
	return c.events
}

func (c *Coordinator) Output() *event.Bus[[]byte] {
	return c.output
}

// RecentOutput returns the retained output of the current session, oldest first.
func (c *Coordinator) RecentOutput() [][]byte {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()
	return c.history.List()
}

// Close terminates the editor, stops the watcher and closes both buses.
func (c *Coordinator) Close() error {
	var errs []error
	if err := c.editor.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close editor: %w", err))
	}
	if err := c.watcher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close watcher: %w", err))
	}
	c.cancel()
	c.events.Close()
	c.output.Close()
	return errors.Join(errs...)
}

// retireOutput clears the replay ring and stops accepting output from the
// session being replaced, which may still print while it shuts down. The
// caller holds c.mu.
func (c *Coordinator) retireOutput() {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()
	if _, live := c.sessions[c.outputID]; live {
		c.retired[c.outputID] = struct{}{}
	}
	c.outputID = ""
	c.history.Clear()
}

func (c *Coordinator) claimOutput(sessionID string) {
	c.historyMu.Lock()
	c.outputID = sessionID
	c.historyMu.Unlock()
}

func (c *Coordinator) handleOutput(sessionID string, chunk []byte) {
	c.historyMu.Lock()
	if _, stale := c.retired[sessionID]; stale {
		c.historyMu.Unlock()
		return
	}
	if c.outputID == "" {
		c.outputID = sessionID
	}
	if c.outputID != sessionID {
		c.historyMu.Unlock()
		return
	}
	c.history.Add(chunk)
	c.historyMu.Unlock()
	c.output.Publish(chunk)
}

func (c *Coordinator) handleExit(info editor.ExitInfo) {
	c.mu.Lock()
	documentID, ok := c.sessions[info.SessionID]
	delete(c.sessions, info.SessionID)
	c.historyMu.Lock()
	delete(c.retired, info.SessionID)
	c.historyMu.Unlock()
	stillServed := false
	for _, other := range c.sessions {
		if other == documentID {
			stillServed = true
			break
		}
	}
	if c.activeID == info.SessionID {
		c.activeID = ""
		c.active = ""
	}
	c.mu.Unlock()

	if !ok {
		c.logger.Warn("exit for unknown session", map[string]string{
			"session_id": info.SessionID,
		})
		return
	}
	if !stillServed {
		c.watcher.StopWatching(documentID)
	}

	exited := newEvent(EventEditorExited, documentID)
	exited.Path = info.Path
	exited.CursorLine = info.CursorLine
	c.events.Publish(exited)
}

func (c *Coordinator) handleChange(documentID, content string) {
	changed := newEvent(EventDocumentChanged, documentID)
	changed.Content = content
	c.events.Publish(changed)
}
