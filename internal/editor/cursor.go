package editor

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// readCursorLine returns the line recorded by the editor's exit hook, or 0 when
// the file is missing or does not hold a positive integer.
func readCursorLine(path string) int {
	if path == "" {
		return 0
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	return parseCursorLine(string(data))
}

func parseCursorLine(raw string) int {
	line, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || line < 0 {
		return 0
	}
	return line
}

func removeCursorFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
