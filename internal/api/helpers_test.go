package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"termblock/internal/coordinator"
	"termblock/internal/editor"
	"termblock/internal/event"
	"termblock/internal/logging"
)

type openCall struct {
	DocumentID string
	Path       string
	Line       int
}

type fakeService struct {
	mu       sync.Mutex
	events   *event.Bus[coordinator.Event]
	output   *event.Bus[[]byte]
	recent   [][]byte
	opened   []openCall
	openErr  error
	closeErr error
	writeErr error
	writes   int
	closed   int
	active   string
	running  bool
	cols     uint16
	rows     uint16
	written  chan []byte
	resized  chan [2]uint16
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return &fakeService{
		events:  event.NewBus[coordinator.Event](ctx, event.BusOptions{Name: "test_events"}),
		output:  event.NewBus[[]byte](ctx, event.BusOptions{Name: "test_output"}),
		cols:    editor.DefaultCols,
		rows:    editor.DefaultRows,
		written: make(chan []byte, 16),
		resized: make(chan [2]uint16, 16),
	}
}

func (f *fakeService) OpenForEdit(documentID, path string, line int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = append(f.opened, openCall{DocumentID: documentID, Path: path, Line: line})
	f.active = documentID
	f.running = true
	return nil
}

func (f *fakeService) CloseEditor() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closeErr != nil {
		return f.closeErr
	}
	f.closed++
	f.running = false
	return nil
}

func (f *fakeService) Active() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, f.running
}

func (f *fakeService) Size() (uint16, uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cols, f.rows
}

func (f *fakeService) Write(data []byte) error {
	f.mu.Lock()
	f.writes++
	running, writeErr := f.running, f.writeErr
	f.mu.Unlock()
	if writeErr != nil {
		return writeErr
	}
	if !running {
		return editor.ErrNoActiveSession
	}
	f.written <- append([]byte(nil), data...)
	return nil
}

func (f *fakeService) Resize(cols, rows uint16) error {
	f.mu.Lock()
	f.cols, f.rows = cols, rows
	f.mu.Unlock()
	f.resized <- [2]uint16{cols, rows}
	return nil
}

func (f *fakeService) RecentOutput() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.recent...)
}

func (f *fakeService) Output() *event.Bus[[]byte] {
	return f.output
}

func (f *fakeService) Events() *event.Bus[coordinator.Event] {
	return f.events
}

func (f *fakeService) setRunning(documentID string) {
	f.mu.Lock()
	f.active = documentID
	f.running = true
	f.mu.Unlock()
}

func (f *fakeService) openCalls() []openCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]openCall(nil), f.opened...)
}

func (f *fakeService) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *fakeService) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newTestServer(t *testing.T, service EditorService, opts Options) *httptest.Server {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = logging.NewDiscardLogger()
	}
	mux := http.NewServeMux()
	RegisterRoutes(mux, service, opts)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func waitForCount(t *testing.T, count func() int, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if count() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for count %d", want)
}
