package logging

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

var levelRanks = map[Level]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Valid reports whether l is one of the four known levels.
func (l Level) Valid() bool {
	_, ok := levelRanks[l]
	return ok
}

// AtLeast reports whether l is as severe as floor. An empty floor admits every
// level; unknown levels rank as info.
func (l Level) AtLeast(floor Level) bool {
	if floor == "" {
		return true
	}
	return l.rank() >= floor.rank()
}

func (l Level) rank() int {
	if rank, ok := levelRanks[l]; ok {
		return rank
	}
	return levelRanks[LevelInfo]
}

// ParseLevel accepts the level names case-insensitively, plus "warn".
func ParseLevel(value string) (Level, bool) {
	level := Level(strings.ToLower(strings.TrimSpace(value)))
	if level == "warn" {
		return LevelWarning, true
	}
	if !level.Valid() {
		return "", false
	}
	return level, true
}

// LogEntry is one record; /api/logs serves these as JSON.
type LogEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	Level     Level             `json:"level"`
	Message   string            `json:"message"`
	Context   map[string]string `json:"context,omitempty"`
}

// String renders the entry as a logfmt line with fields in key order.
func (e LogEntry) String() string {
	var builder strings.Builder
	builder.WriteString("time=")
	builder.WriteString(e.Timestamp.Format(time.RFC3339Nano))
	builder.WriteString(" level=")
	builder.WriteString(string(e.Level))
	builder.WriteString(" msg=")
	builder.WriteString(strconv.Quote(e.Message))

	keys := make([]string, 0, len(e.Context))
	for key := range e.Context {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		builder.WriteByte(' ')
		builder.WriteString(key)
		builder.WriteByte('=')
		builder.WriteString(strconv.Quote(e.Context[key]))
	}
	return builder.String()
}
