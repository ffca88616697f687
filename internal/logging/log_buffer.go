package logging

import (
	"sync"

	"termblock/internal/buffer"
)

// LogBuffer retains the most recent entries so the host can show them without
// tailing stdout.
type LogBuffer struct {
	mu      sync.Mutex
	entries *buffer.Ring[LogEntry]
}

func NewLogBuffer(size int) *LogBuffer {
	return &LogBuffer{
		entries: buffer.NewRing[LogEntry](size),
	}
}

func (b *LogBuffer) Add(entry LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.entries == nil {
		return
	}
	b.entries.Add(entry)
}

func (b *LogBuffer) List() []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.entries.List()
}

// Since returns the retained entries at or above minLevel.
func (b *LogBuffer) Since(minLevel Level) []LogEntry {
	entries := b.List()
	filtered := entries[:0]
	for _, entry := range entries {
		if entry.Level.AtLeast(minLevel) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}
