package api

import (
	"termblock/internal/coordinator"
	"termblock/internal/event"
)

// EditorService is the editing surface the transport exposes. It is
// implemented by *coordinator.Coordinator.
type EditorService interface {
	OpenForEdit(documentID, path string, line int) error
	CloseEditor() error
	Active() (documentID string, running bool)
	Size() (cols, rows uint16)
	Write(data []byte) error
	Resize(cols, rows uint16) error
	RecentOutput() [][]byte
	Output() *event.Bus[[]byte]
	Events() *event.Bus[coordinator.Event]
}
