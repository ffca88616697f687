package editor

import (
	"errors"
	"io"
	"os/exec"
	"sync"
	"testing"
	"time"
)

type fakePty struct {
	reader *io.PipeReader
	writer *io.PipeWriter

	mu     sync.Mutex
	writes [][]byte
	sizes  [][2]uint16
	closed bool
}

func newFakePty() *fakePty {
	reader, writer := io.Pipe()
	return &fakePty{reader: reader, writer: writer}
}

func (p *fakePty) Read(data []byte) (int, error) {
	return p.reader.Read(data)
}

func (p *fakePty) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	p.writes = append(p.writes, append([]byte(nil), data...))
	return len(data), nil
}

func (p *fakePty) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	_ = p.reader.Close()
	return p.writer.Close()
}

func (p *fakePty) Resize(cols, rows uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sizes = append(p.sizes, [2]uint16{cols, rows})
	return nil
}

// emit plays output from the editor; it blocks until the reader consumes it.
func (p *fakePty) emit(data string) error {
	_, err := p.writer.Write([]byte(data))
	return err
}

// exit simulates the editor process going away.
func (p *fakePty) exit() {
	_ = p.writer.Close()
}

func (p *fakePty) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePty) recordedWrites() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.writes...)
}

func (p *fakePty) recordedSizes() [][2]uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][2]uint16(nil), p.sizes...)
}

type fakeFactory struct {
	mu       sync.Mutex
	ptys     []*fakePty
	requests []StartRequest
	startErr error
	onStart  func(req StartRequest, previous []*fakePty)
}

func (f *fakeFactory) Start(req StartRequest) (Pty, *exec.Cmd, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.onStart != nil {
		f.onStart(req, append([]*fakePty(nil), f.ptys...))
	}
	f.requests = append(f.requests, req)
	if f.startErr != nil {
		return nil, nil, f.startErr
	}
	pty := newFakePty()
	f.ptys = append(f.ptys, pty)
	return pty, nil, nil
}

func (f *fakeFactory) pty(index int) *fakePty {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ptys[index]
}

func (f *fakeFactory) request(index int) StartRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[index]
}

var errFakeStart = errors.New("fake start failed")

func newTestManager(t *testing.T, factory PtyFactory, handlers Handlers) *Manager {
	t.Helper()
	manager := NewManager(ManagerOptions{
		Command:       "/usr/bin/nvim",
		PtyFactory:    factory,
		Handlers:      handlers,
		CursorDir:     t.TempDir(),
		SkipShellPath: true,
	})
	t.Cleanup(func() {
		_ = manager.Close()
	})
	return manager
}

func waitForExit(t *testing.T, exits <-chan ExitInfo) ExitInfo {
	t.Helper()
	select {
	case info := <-exits:
		return info
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for editor exit")
	}
	return ExitInfo{}
}

func waitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return condition()
}
