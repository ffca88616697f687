package api

import (
	"testing"
	"time"

	"termblock/internal/coordinator"
)

func TestEventsSocketStreamsCoordinatorEvents(t *testing.T) {
	service := newFakeService(t)
	srv := newTestServer(t, service, Options{})

	conn := dialWS(t, wsURL(srv, "/ws/events"), nil)
	waitForCount(t, service.events.SubscriberCount, 1)

	service.events.Publish(coordinator.Event{
		EventType:  coordinator.EventDocumentChanged,
		DocumentID: "doc-1",
		Content:    "# Title",
		OccurredAt: time.Now().UTC(),
	})

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	var payload map[string]any
	if err := conn.ReadJSON(&payload); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if payload["type"] != coordinator.EventDocumentChanged || payload["document_id"] != "doc-1" || payload["content"] != "# Title" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestEventFilter(t *testing.T) {
	filter := newEventFilter(streamedEventTypes)
	for eventType := range streamedEventTypes {
		if !filter.Allows(eventType) {
			t.Fatalf("expected %q allowed by default", eventType)
		}
	}

	filter.Set([]string{coordinator.EventEditorExited, "unknown"}, streamedEventTypes)
	if !filter.Allows(coordinator.EventEditorExited) {
		t.Fatalf("expected editor_exited allowed")
	}
	if filter.Allows(coordinator.EventDocumentChanged) {
		t.Fatalf("expected document_changed filtered out")
	}
	if filter.Allows("unknown") {
		t.Fatalf("unknown types must never be allowed")
	}

	var nilFilter *eventFilter
	if !nilFilter.Allows("anything") {
		t.Fatalf("nil filter allows everything")
	}
}
