//go:build !windows

package editor

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
)

type filePty struct {
	file *os.File
}

func (p *filePty) Read(data []byte) (int, error) {
	return p.file.Read(data)
}

func (p *filePty) Write(data []byte) (int, error) {
	return p.file.Write(data)
}

func (p *filePty) Close() error {
	return p.file.Close()
}

func (p *filePty) Resize(cols, rows uint16) error {
	return pty.Setsize(p.file, &pty.Winsize{Cols: cols, Rows: rows})
}

// startPty launches req on a new pty. pty.StartWithSize puts the child in its
// own session, so its pid doubles as the process group id.
func startPty(req StartRequest) (Pty, *exec.Cmd, error) {
	cmd := exec.Command(req.Command, req.Args...)
	cmd.Env = req.Env
	cmd.Dir = req.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{}
	setPtyDeathSignal(cmd.SysProcAttr)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: req.Cols, Rows: req.Rows})
	if err != nil {
		return nil, nil, err
	}
	return &filePty{file: ptmx}, cmd, nil
}
