package editor

import (
	"os"
	"runtime"
	"strings"
)

// DefaultEditorCommand is used when neither the configuration nor $EDITOR name one.
const DefaultEditorCommand = "nvim"

// DefaultCommand returns $EDITOR, falling back to DefaultEditorCommand.
func DefaultCommand() string {
	if editor := strings.TrimSpace(os.Getenv("EDITOR")); editor != "" {
		return editor
	}
	return DefaultEditorCommand
}

func DefaultShell() string {
	if runtime.GOOS == "windows" {
		if shell := os.Getenv("ComSpec"); shell != "" {
			return shell
		}
		return "cmd.exe"
	}

	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}

	return "/bin/bash"
}
