// Package logging provides the leveled, field-based logger shared by every
// termblock component. Entries go to a text stream and to a ring buffer that
// the API serves back to the host.
package logging

import (
	"io"
	"maps"
	"os"
	"sync"
	"time"
)

const DefaultBufferSize = 1000

const (
	categoryField = "termblock.category"
	sourceField   = "termblock.source"
)

// Logger writes leveled entries with string fields. Loggers derived through
// With or Component share the buffer and output. A nil *Logger discards
// everything.
type Logger struct {
	buffer   *LogBuffer
	out      *lockedWriter
	minLevel Level
	fields   map[string]string
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) writeLine(line string) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	_, _ = io.WriteString(lw.w, line+"\n")
}

func NewLogger(buffer *LogBuffer, minLevel Level) *Logger {
	return NewLoggerWithOutput(buffer, minLevel, os.Stderr)
}

// NewLoggerWithOutput logs to output and buffer. A nil buffer gets a fresh one
// of DefaultBufferSize; a nil output only buffers.
func NewLoggerWithOutput(buffer *LogBuffer, minLevel Level, output io.Writer) *Logger {
	if buffer == nil {
		buffer = NewLogBuffer(DefaultBufferSize)
	}
	if !minLevel.Valid() {
		minLevel = LevelInfo
	}
	logger := &Logger{buffer: buffer, minLevel: minLevel}
	if output != nil {
		logger.out = &lockedWriter{w: output}
	}
	return logger
}

// NewDiscardLogger is the default for components constructed without a logger.
func NewDiscardLogger() *Logger {
	return NewLoggerWithOutput(NewLogBuffer(DefaultBufferSize), LevelInfo, nil)
}

func (l *Logger) Buffer() *LogBuffer {
	if l == nil {
		return nil
	}
	return l.buffer
}

func (l *Logger) With(fields map[string]string) *Logger {
	if l == nil {
		return nil
	}
	derived := *l
	derived.fields = mergeFields(l.fields, fields)
	return &derived
}

// Component tags every entry with the backend component that produced it.
func (l *Logger) Component(name string) *Logger {
	return l.With(map[string]string{
		categoryField: name,
		sourceField:   "backend",
	})
}

func (l *Logger) Debug(message string, fields map[string]string) {
	l.log(LevelDebug, message, fields)
}

func (l *Logger) Info(message string, fields map[string]string) {
	l.log(LevelInfo, message, fields)
}

func (l *Logger) Warn(message string, fields map[string]string) {
	l.log(LevelWarning, message, fields)
}

func (l *Logger) Error(message string, fields map[string]string) {
	l.log(LevelError, message, fields)
}

func (l *Logger) Enabled(level Level) bool {
	return l != nil && level.AtLeast(l.minLevel)
}

func (l *Logger) log(level Level, message string, fields map[string]string) {
	if !l.Enabled(level) {
		return
	}
	entry := LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
		Context:   mergeFields(l.fields, fields),
	}
	l.buffer.Add(entry)
	if l.out != nil {
		l.out.writeLine(entry.String())
	}
}

func mergeFields(base, extra map[string]string) map[string]string {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	merged := make(map[string]string, len(base)+len(extra))
	maps.Copy(merged, base)
	maps.Copy(merged, extra)
	return merged
}
