package editor

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

const shellPathMarker = "__TERMBLOCK_PATH__"

const defaultShellPathTimeout = 3 * time.Second

// ResolveShellPath asks the user's login shell for its fully initialized PATH.
// Any failure yields "", which means the host PATH is used unchanged.
func ResolveShellPath(ctx context.Context, shell string, timeout time.Duration) string {
	if runtime.GOOS == "windows" || strings.TrimSpace(shell) == "" {
		return ""
	}
	if timeout <= 0 {
		timeout = defaultShellPathTimeout
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	script := "printf '" + shellPathMarker + "%s" + shellPathMarker + "' \"$PATH\""
	cmd := exec.CommandContext(ctx, shell, "-l", "-i", "-c", script)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil && stdout.Len() == 0 {
		return ""
	}
	return extractShellPath(stdout.String())
}

// extractShellPath pulls the marked PATH out of output that may also contain
// banner text printed by interactive shell startup files.
func extractShellPath(output string) string {
	start := strings.Index(output, shellPathMarker)
	if start < 0 {
		return ""
	}
	rest := output[start+len(shellPathMarker):]
	end := strings.Index(rest, shellPathMarker)
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}
