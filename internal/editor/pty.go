package editor

import "os/exec"

// Pty is the host side of a pseudo-terminal.
type Pty interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	Resize(cols, rows uint16) error
}

// StartRequest describes one editor process launch.
type StartRequest struct {
	Command    string
	Args       []string
	Env        []string
	Dir        string
	Cols       uint16
	Rows       uint16
	CursorFile string
}

// PtyFactory starts a process attached to a new pty. The returned *exec.Cmd may
// be nil for factories that do not spawn a real process.
type PtyFactory interface {
	Start(req StartRequest) (Pty, *exec.Cmd, error)
}

type defaultPtyFactory struct{}

func (defaultPtyFactory) Start(req StartRequest) (Pty, *exec.Cmd, error) {
	return startPty(req)
}

func DefaultPtyFactory() PtyFactory {
	return defaultPtyFactory{}
}
