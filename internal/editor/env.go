package editor

import "strings"

// buildEnv copies base, swapping PATH for shellPath when one was resolved and
// forcing terminal capabilities the embedded renderer supports.
func buildEnv(base []string, shellPath string) []string {
	overrides := map[string]string{
		"TERM":      "xterm-256color",
		"COLORTERM": "truecolor",
	}
	if shellPath != "" {
		overrides["PATH"] = shellPath
	}

	env := make([]string, 0, len(base)+len(overrides))
	for _, entry := range base {
		key, _, _ := strings.Cut(entry, "=")
		if _, replaced := overrides[key]; replaced {
			continue
		}
		env = append(env, entry)
	}
	for _, key := range []string{"PATH", "TERM", "COLORTERM"} {
		if value, ok := overrides[key]; ok {
			env = append(env, key+"="+value)
		}
	}
	return env
}
