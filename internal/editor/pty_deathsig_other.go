//go:build !linux && !windows

package editor

import "syscall"

func setPtyDeathSignal(*syscall.SysProcAttr) {}
