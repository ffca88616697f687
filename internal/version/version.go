// Package version carries build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X termblock/internal/version.Version=0.3.1"
package version

import "strings"

var (
	Version   = "dev"
	GitCommit = ""
	Built     = ""
)

type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	Built     string `json:"built,omitempty"`
}

func Get() Info {
	label := strings.TrimSpace(Version)
	if label == "" {
		label = "dev"
	}
	return Info{
		Version:   label,
		GitCommit: strings.TrimSpace(GitCommit),
		Built:     strings.TrimSpace(Built),
	}
}

// String renders "version (commit, built)", omitting empty parts.
func (i Info) String() string {
	details := make([]string, 0, 2)
	if i.GitCommit != "" {
		details = append(details, i.GitCommit)
	}
	if i.Built != "" {
		details = append(details, i.Built)
	}
	if len(details) == 0 {
		return i.Version
	}
	return i.Version + " (" + strings.Join(details, ", ") + ")"
}
