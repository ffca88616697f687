package coordinator

import "time"

const (
	EventDocumentChanged = "document_changed"
	EventEditorOpened    = "editor_opened"
	EventEditorExited    = "editor_exited"
	EventEditorFailed    = "editor_failed"
)

// Event is published on the coordinator's event bus and sent to socket
// clients as JSON.
type Event struct {
	EventType  string    `json:"type"`
	DocumentID string    `json:"document_id"`
	Path       string    `json:"path,omitempty"`
	Line       int       `json:"line,omitempty"`
	Content    string    `json:"content,omitempty"`
	CursorLine int       `json:"cursor_line"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newEvent(eventType, documentID string) Event {
	return Event{
		EventType:  eventType,
		DocumentID: documentID,
		OccurredAt: time.Now().UTC(),
	}
}

func (e Event) Type() string {
	return e.EventType
}
