package editor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"termblock/internal/logging"
)

var (
	ErrNoActiveSession = errors.New("no active editor session")
	ErrInvalidSize     = errors.New("terminal size must be non-zero")
)

const (
	DefaultCols uint16 = 80
	DefaultRows uint16 = 24

	readBufferSize     = 4096
	defaultKillTimeout = 2 * time.Second
	cursorFilePrefix   = "termblock-cursor-"
)

// ExitInfo describes a finished editor session.
type ExitInfo struct {
	SessionID  string
	Path       string
	CursorLine int
}

// Handlers receive session output and exit notifications. Both are called from
// the session's reader goroutine; OnData chunks are owned by the receiver and
// tagged with the ID of the session that produced them.
type Handlers struct {
	OnData func(sessionID string, chunk []byte)
	OnExit func(ExitInfo)
}

type ManagerOptions struct {
	// Command is the editor name or path, optionally followed by arguments
	// placed before the file ("nvim -u NONE"). Defaults to DefaultCommand().
	Command string
	// Shell is the login shell asked for the user's PATH. Defaults to DefaultShell().
	Shell string
	// FallbackDirs are probed before the built-in directories when Command is
	// not on the host PATH.
	FallbackDirs     []string
	CursorDir        string
	Cols             uint16
	Rows             uint16
	PtyFactory       PtyFactory
	ArgsBuilder      ArgsBuilder
	Handlers         Handlers
	Logger           *logging.Logger
	KillTimeout      time.Duration
	ShellPathTimeout time.Duration
	SkipShellPath    bool
}

// Manager runs at most one embedded editor session at a time. It is safe for
// concurrent use; mu guards the current session, the pending size and the
// handlers.
type Manager struct {
	mu          sync.Mutex
	current     *session
	cols        uint16
	rows        uint16
	handlers    Handlers
	command     string
	commandArgs []string
	shellPath   string
	cursorDir   string
	factory     PtyFactory
	argsBuilder ArgsBuilder
	logger      *logging.Logger
	killTimeout time.Duration
}

type session struct {
	id         string
	path       string
	cursorFile string
	pty        Pty
	cmd        *exec.Cmd
	handlers   Handlers

	waitOnce  sync.Once
	waitErr   error
	closeOnce sync.Once
	closeErr  error
}

// wait reaps the editor process once; concurrent callers block until it is done.
func (s *session) wait() error {
	s.waitOnce.Do(func() {
		if s.cmd != nil && s.cmd.Process != nil {
			s.waitErr = s.cmd.Wait()
		}
	})
	return s.waitErr
}

func (s *session) closePty() error {
	s.closeOnce.Do(func() {
		if s.pty == nil {
			return
		}
		if err := s.pty.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			s.closeErr = err
		}
	})
	return s.closeErr
}

func NewManager(opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	logger = logger.Component("editor")

	command := opts.Command
	if command == "" {
		command = DefaultCommand()
	}
	name, commandArgs := SplitCommand(command)
	resolved := ResolveCommand(name, opts.FallbackDirs)

	shell := opts.Shell
	if shell == "" {
		shell = DefaultShell()
	}
	shellPath := ""
	if !opts.SkipShellPath {
		shellPath = ResolveShellPath(context.Background(), shell, opts.ShellPathTimeout)
	}

	cursorDir := opts.CursorDir
	if cursorDir == "" {
		cursorDir = os.TempDir()
	}

	factory := opts.PtyFactory
	if factory == nil {
		factory = DefaultPtyFactory()
	}

	argsBuilder := opts.ArgsBuilder
	if argsBuilder == nil {
		argsBuilder = VimArgs
	}

	killTimeout := opts.KillTimeout
	if killTimeout <= 0 {
		killTimeout = defaultKillTimeout
	}

	cols, rows := opts.Cols, opts.Rows
	if cols == 0 || rows == 0 {
		cols, rows = DefaultCols, DefaultRows
	}

	logger.Info("editor resolved", map[string]string{
		"command":          resolved,
		"command_args":     strings.Join(commandArgs, " "),
		"shell":            shell,
		"shell_path_found": strconv.FormatBool(shellPath != ""),
	})

	return &Manager{
		cols:        cols,
		rows:        rows,
		handlers:    opts.Handlers,
		command:     resolved,
		commandArgs: commandArgs,
		shellPath:   shellPath,
		cursorDir:   cursorDir,
		factory:     factory,
		argsBuilder: argsBuilder,
		logger:      logger,
		killTimeout: killTimeout,
	}
}

// SetHandlers replaces the callbacks used by sessions opened afterwards.
func (m *Manager) SetHandlers(handlers Handlers) {
	m.mu.Lock()
	m.handlers = handlers
	m.mu.Unlock()
}

// Command returns the resolved editor binary.
func (m *Manager) Command() string {
	return m.command
}

// OpenFile starts the editor on path, terminating any running session first.
// lineNumber > 0 positions the cursor on that line.
func (m *Manager) OpenFile(path string, lineNumber int) error {
	_, err := m.Open(path, lineNumber)
	return err
}

// Open is OpenFile that also returns the new session's ID.
func (m *Manager) Open(path string, lineNumber int) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if previous := m.current; previous != nil {
		m.current = nil
		if err := m.terminate(previous); err != nil {
			m.logger.Warn("editor terminate failed", map[string]string{
				"session_id": previous.id,
				"error":      err.Error(),
			})
		}
	}

	id := uuid.NewString()
	cursorFile := filepath.Join(m.cursorDir, cursorFilePrefix+id)
	if err := removeCursorFile(cursorFile); err != nil {
		m.logger.Warn("stale cursor file not removed", map[string]string{
			"path":  cursorFile,
			"error": err.Error(),
		})
	}

	args := append([]string(nil), m.commandArgs...)
	args = append(args, m.argsBuilder(absPath, lineNumber, cursorFile)...)
	req := StartRequest{
		Command:    m.command,
		Args:       args,
		Env:        buildEnv(os.Environ(), m.shellPath),
		Dir:        workingDir(absPath),
		Cols:       m.cols,
		Rows:       m.rows,
		CursorFile: cursorFile,
	}
	ptyHandle, cmd, err := m.factory.Start(req)
	if err != nil {
		m.logger.Error("editor start failed", map[string]string{
			"command": m.command,
			"path":    absPath,
			"error":   err.Error(),
		})
		return "", fmt.Errorf("start editor %q: %w", m.command, err)
	}

	current := &session{
		id:         id,
		path:       absPath,
		cursorFile: cursorFile,
		pty:        ptyHandle,
		cmd:        cmd,
		handlers:   m.handlers,
	}
	m.current = current
	m.logger.Info("editor started", map[string]string{
		"session_id": id,
		"path":       absPath,
		"line":       strconv.Itoa(lineNumber),
		"cols":       strconv.Itoa(int(m.cols)),
		"rows":       strconv.Itoa(int(m.rows)),
	})

	go m.readLoop(current)
	return id, nil
}

// Write forwards keystroke bytes to the running editor in call order.
func (m *Manager) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ErrNoActiveSession
	}
	if len(data) == 0 {
		return nil
	}
	if _, err := m.current.pty.Write(data); err != nil {
		m.logger.Warn("pty write failed", map[string]string{
			"session_id": m.current.id,
			"error":      err.Error(),
		})
		return fmt.Errorf("write pty: %w", err)
	}
	return nil
}

// Resize records the size for the next session and applies it to the running
// one, if any. Having no session is not an error.
func (m *Manager) Resize(cols, rows uint16) error {
	if cols == 0 || rows == 0 {
		return ErrInvalidSize
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cols, m.rows = cols, rows
	if m.current == nil {
		return nil
	}
	if err := m.current.pty.Resize(cols, rows); err != nil {
		m.logger.Warn("pty resize failed", map[string]string{
			"session_id": m.current.id,
			"error":      err.Error(),
		})
		return fmt.Errorf("resize pty: %w", err)
	}
	return nil
}

// Size returns the size the next session starts with.
func (m *Manager) Size() (cols, rows uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cols, m.rows
}

func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// SessionID returns the running session's ID, or "" when idle.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.id
}

// Close terminates the running session, if any. The exit handler still fires
// from the session's reader goroutine.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous := m.current
	if previous == nil {
		return nil
	}
	m.current = nil
	return m.terminate(previous)
}

func (m *Manager) terminate(s *session) error {
	var errs []error
	if err := terminateProcessTree(s.cmd, s.wait, m.killTimeout); err != nil {
		errs = append(errs, err)
	}
	if err := s.closePty(); err != nil {
		errs = append(errs, fmt.Errorf("close pty: %w", err))
	}
	return errors.Join(errs...)
}

// workingDir starts the editor next to the file. A parent that does not exist
// yet leaves the host's working directory in place; the editor creates the
// buffer and the directory is only needed on save.
func workingDir(path string) string {
	dir := filepath.Dir(path)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return ""
	}
	return dir
}

func (m *Manager) readLoop(s *session) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := s.pty.Read(buf)
		if n > 0 && s.handlers.OnData != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.handlers.OnData(s.id, chunk)
		}
		if err != nil {
			m.logger.Debug("pty read ended", map[string]string{
				"session_id": s.id,
				"error":      err.Error(),
			})
			break
		}
	}

	if err := s.wait(); err != nil && !isExpectedProcessExit(err) {
		m.logger.Warn("editor wait failed", map[string]string{
			"session_id": s.id,
			"error":      err.Error(),
		})
	}
	_ = s.closePty()

	line := readCursorLine(s.cursorFile)
	if err := removeCursorFile(s.cursorFile); err != nil {
		m.logger.Warn("cursor file not removed", map[string]string{
			"path":  s.cursorFile,
			"error": err.Error(),
		})
	}

	m.mu.Lock()
	if m.current == s {
		m.current = nil
	}
	m.mu.Unlock()

	m.logger.Info("editor exited", map[string]string{
		"session_id":  s.id,
		"cursor_line": strconv.Itoa(line),
	})
	if s.handlers.OnExit != nil {
		s.handlers.OnExit(ExitInfo{SessionID: s.id, Path: s.path, CursorLine: line})
	}
}
