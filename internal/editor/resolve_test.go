package editor

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestResolveCommandKeepsAbsolutePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-editor")
	if got := ResolveCommand(path, nil); got != path {
		t.Fatalf("expected %q unchanged, got %q", path, got)
	}
}

func TestResolveCommandProbesFallbackDirs(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fallback dirs are unix paths")
	}
	dir := t.TempDir()
	name := "termblock-test-editor"
	binary := filepath.Join(dir, name)
	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write binary: %v", err)
	}

	if got := ResolveCommand(name, []string{filepath.Join(dir, "empty"), dir}); got != binary {
		t.Fatalf("expected %q, got %q", binary, got)
	}
}

func TestResolveCommandSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	name := "termblock-test-dir-editor"
	if err := os.Mkdir(filepath.Join(dir, name), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if got := ResolveCommand(name, []string{dir}); got != name {
		t.Fatalf("expected bare name for directory match, got %q", got)
	}
}

func TestResolveCommandFallsBackToBareName(t *testing.T) {
	name := "termblock-editor-that-does-not-exist"
	if got := ResolveCommand(name, nil); got != name {
		t.Fatalf("expected bare name, got %q", got)
	}
}

func TestExpandHome(t *testing.T) {
	if got := expandHome("~/.local/bin", "/home/ada"); got != filepath.Join("/home/ada", ".local/bin") {
		t.Fatalf("unexpected expansion %q", got)
	}
	if got := expandHome("~/bin", ""); got != "" {
		t.Fatalf("expected empty without home, got %q", got)
	}
	if got := expandHome("/usr/bin", "/home/ada"); got != "/usr/bin" {
		t.Fatalf("expected absolute dir unchanged, got %q", got)
	}
}

func TestExtractShellPath(t *testing.T) {
	output := "welcome banner\n" + shellPathMarker + "/opt/bin:/usr/bin" + shellPathMarker + "\nbye"
	if got := extractShellPath(output); got != "/opt/bin:/usr/bin" {
		t.Fatalf("unexpected PATH %q", got)
	}
	if got := extractShellPath("no markers here"); got != "" {
		t.Fatalf("expected empty PATH, got %q", got)
	}
	if got := extractShellPath(shellPathMarker + "/usr/bin"); got != "" {
		t.Fatalf("expected empty PATH for unterminated marker, got %q", got)
	}
}

func TestResolveShellPathFallsBackToEmpty(t *testing.T) {
	if got := ResolveShellPath(context.Background(), filepath.Join(t.TempDir(), "no-shell"), 0); got != "" {
		t.Fatalf("expected empty PATH for missing shell, got %q", got)
	}
	if got := ResolveShellPath(context.Background(), "", 0); got != "" {
		t.Fatalf("expected empty PATH for empty shell, got %q", got)
	}
}

func TestBuildEnvOverridesPathAndTerminal(t *testing.T) {
	base := []string{"PATH=/usr/bin", "HOME=/home/ada", "TERM=dumb"}

	env := buildEnv(base, "/opt/homebrew/bin:/usr/bin")
	joined := strings.Join(env, "\n")
	if strings.Contains(joined, "PATH=/usr/bin\n") || strings.Contains(joined, "TERM=dumb") {
		t.Fatalf("expected originals replaced, got %v", env)
	}
	for _, want := range []string{"HOME=/home/ada", "PATH=/opt/homebrew/bin:/usr/bin", "TERM=xterm-256color", "COLORTERM=truecolor"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in %v", want, env)
		}
	}
}

func TestBuildEnvKeepsHostPathWithoutShellPath(t *testing.T) {
	env := buildEnv([]string{"PATH=/usr/bin"}, "")
	if env[0] != "PATH=/usr/bin" {
		t.Fatalf("expected host PATH kept, got %v", env)
	}
}

func TestVimArgs(t *testing.T) {
	args := VimArgs("/notes/a.md", 5, "/tmp/cursor")
	want := []string{"+5", "-c", "autocmd VimLeavePre * call writefile([line('.')], '/tmp/cursor')", "--", "/notes/a.md"}
	if strings.Join(args, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected args %q", args)
	}

	args = VimArgs("/notes/a.md", 0, "/tmp/it's")
	if args[0] != "-c" {
		t.Fatalf("expected no line arg for line 0, got %q", args)
	}
	if !strings.Contains(args[1], "'/tmp/it''s'") {
		t.Fatalf("expected quoted cursor path, got %q", args[1])
	}
}

func TestParseCursorLine(t *testing.T) {
	cases := map[string]int{
		"12\n": 12,
		" 3 ":  3,
		"":     0,
		"abc":  0,
		"-1":   0,
	}
	for raw, want := range cases {
		if got := parseCursorLine(raw); got != want {
			t.Fatalf("parseCursorLine(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestSplitCommand(t *testing.T) {
	cases := []struct {
		raw  string
		name string
		args []string
	}{
		{raw: "nvim", name: "nvim"},
		{raw: "  nvim -u NONE ", name: "nvim", args: []string{"-u", "NONE"}},
		{raw: "vim -p", name: "vim", args: []string{"-p"}},
		{raw: "   "},
	}
	for _, tc := range cases {
		name, args := SplitCommand(tc.raw)
		if name != tc.name || strings.Join(args, " ") != strings.Join(tc.args, " ") {
			t.Fatalf("SplitCommand(%q) = %q %v; want %q %v", tc.raw, name, args, tc.name, tc.args)
		}
	}
}

func TestSplitCommandKeepsExistingPathWithSpaces(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "My Editors")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	binary := filepath.Join(dir, "vim")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	name, args := SplitCommand(binary)
	if name != binary || len(args) != 0 {
		t.Fatalf("expected %q kept whole, got %q %v", binary, name, args)
	}
}
