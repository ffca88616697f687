package editor

import (
	"strconv"
	"strings"
)

// ArgsBuilder returns the editor arguments for opening path at line, arranging
// for the editor to write its final cursor line to cursorFile before it exits.
type ArgsBuilder func(path string, line int, cursorFile string) []string

// VimArgs builds a vim/neovim invocation. A VimLeavePre autocommand records the
// cursor line so it can be restored in the host.
func VimArgs(path string, line int, cursorFile string) []string {
	args := make([]string, 0, 5)
	if line > 0 {
		args = append(args, "+"+strconv.Itoa(line))
	}
	if cursorFile != "" {
		hook := "autocmd VimLeavePre * call writefile([line('.')], " + vimQuote(cursorFile) + ")"
		args = append(args, "-c", hook)
	}
	return append(args, "--", path)
}

func vimQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
