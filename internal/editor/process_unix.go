//go:build !windows

package editor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// terminateProcessTree sends SIGTERM to the editor's process group, waits up to
// timeout, then escalates to SIGKILL. wait must reap cmd and be safe to call
// from several goroutines.
func terminateProcessTree(cmd *exec.Cmd, wait func() error, timeout time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	pid := cmd.Process.Pid

	var errs []error
	if err := signalProcessGroup(pid, syscall.SIGTERM); err != nil && !isProcessGone(err) {
		errs = append(errs, fmt.Errorf("signal group: %w", err))
	}

	exited, waitErr := waitForProcessExit(wait, timeout)
	if waitErr != nil && !isExpectedProcessExit(waitErr) {
		errs = append(errs, fmt.Errorf("wait process: %w", waitErr))
	}

	if !exited {
		if err := signalProcessGroup(pid, syscall.SIGKILL); err != nil && !isProcessGone(err) {
			errs = append(errs, fmt.Errorf("kill group: %w", err))
		}
		if err := wait(); err != nil && !isExpectedProcessExit(err) {
			errs = append(errs, fmt.Errorf("wait process: %w", err))
		}
	}

	return errors.Join(errs...)
}

func signalProcessGroup(pid int, sig syscall.Signal) error {
	if pid <= 0 {
		return nil
	}
	if err := syscall.Kill(-pid, sig); err == nil || !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return syscall.Kill(pid, sig)
}

func waitForProcessExit(wait func() error, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		return true, wait()
	}

	done := make(chan error, 1)
	go func() {
		done <- wait()
	}()

	select {
	case err := <-done:
		return true, err
	case <-time.After(timeout):
		return false, nil
	}
}

func isProcessGone(err error) bool {
	return errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH)
}

// isExpectedProcessExit treats any exit status as normal: an editor torn down
// by our own signal reports a signaled or non-zero status.
func isExpectedProcessExit(err error) bool {
	if err == nil || errors.Is(err, os.ErrProcessDone) {
		return true
	}
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
