//go:build windows

package editor

import (
	"errors"
	"os/exec"
)

var errPtyUnsupported = errors.New("embedded editor requires a unix pty")

func startPty(StartRequest) (Pty, *exec.Cmd, error) {
	return nil, nil, errPtyUnsupported
}
