//go:build windows

package editor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

func terminateProcessTree(cmd *exec.Cmd, wait func() error, _ time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	var errs []error
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		errs = append(errs, fmt.Errorf("kill process: %w", err))
	}
	if err := wait(); err != nil && !isExpectedProcessExit(err) {
		errs = append(errs, fmt.Errorf("wait process: %w", err))
	}
	return errors.Join(errs...)
}

func isExpectedProcessExit(err error) bool {
	if err == nil || errors.Is(err, os.ErrProcessDone) {
		return true
	}
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
