package editor

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Hosts launched from a desktop session often inherit a minimal PATH, so the
// usual package-manager and user bin directories are probed as a fallback.
var commonBinDirs = []string{
	"/opt/homebrew/bin",
	"/usr/local/bin",
	"/home/linuxbrew/.linuxbrew/bin",
	"~/.local/bin",
	"~/bin",
	"~/.cargo/bin",
	"~/.nix-profile/bin",
	"/nix/var/nix/profiles/default/bin",
	"/snap/bin",
	"/usr/bin",
	"/bin",
}

// ResolveCommand finds the editor binary. Absolute paths are returned as-is.
// Otherwise the host PATH is searched, then extraDirs, then commonBinDirs. When
// nothing matches the bare name is returned so the failure surfaces when the
// editor is started.
func ResolveCommand(name string, extraDirs []string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	if found, err := exec.LookPath(name); err == nil {
		if abs, absErr := filepath.Abs(found); absErr == nil {
			return abs
		}
		return found
	}

	home, _ := os.UserHomeDir()
	dirs := make([]string, 0, len(extraDirs)+len(commonBinDirs))
	dirs = append(dirs, extraDirs...)
	dirs = append(dirs, commonBinDirs...)
	for _, dir := range dirs {
		dir = expandHome(dir, home)
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		return candidate
	}
	return name
}

// SplitCommand separates an $EDITOR-style value such as "nvim -u NONE" into the
// binary and its leading arguments. Fields are split on whitespace without
// shell quoting; a value naming an existing file is kept whole so paths with
// spaces still work.
func SplitCommand(command string) (string, []string) {
	command = strings.TrimSpace(command)
	if info, err := os.Stat(command); err == nil && !info.IsDir() {
		return command, nil
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

func expandHome(dir, home string) string {
	if dir == "~" {
		return home
	}
	if len(dir) > 1 && dir[0] == '~' && (dir[1] == '/' || dir[1] == filepath.Separator) {
		if home == "" {
			return ""
		}
		return filepath.Join(home, dir[2:])
	}
	return dir
}
