package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"termblock/internal/coordinator"
	"termblock/internal/logging"

	"github.com/gorilla/websocket"
)

// EventsHandler streams coordinator events as JSON text frames. Clients may
// narrow the stream by sending {"subscribe": ["document_changed", ...]}.
type EventsHandler struct {
	Service        EditorService
	Logger         *logging.Logger
	AuthToken      string
	AllowedOrigins []string
}

type eventSubscribeMessage struct {
	Subscribe []string `json:"subscribe"`
}

var streamedEventTypes = map[string]struct{}{
	coordinator.EventDocumentChanged: {},
	coordinator.EventEditorOpened:    {},
	coordinator.EventEditorExited:    {},
	coordinator.EventEditorFailed:    {},
}

type eventFilter struct {
	mutex sync.RWMutex
	types map[string]struct{}
}

func newEventFilter(allowed map[string]struct{}) *eventFilter {
	types := make(map[string]struct{}, len(allowed))
	for eventType := range allowed {
		types[eventType] = struct{}{}
	}
	return &eventFilter{types: types}
}

func (filter *eventFilter) Allows(eventType string) bool {
	if filter == nil {
		return true
	}
	filter.mutex.RLock()
	defer filter.mutex.RUnlock()
	_, ok := filter.types[eventType]
	return ok
}

func (filter *eventFilter) Set(subscriptions []string, allowed map[string]struct{}) {
	if filter == nil {
		return
	}
	types := make(map[string]struct{})
	for _, eventType := range subscriptions {
		if _, ok := allowed[eventType]; ok {
			types[eventType] = struct{}{}
		}
	}
	filter.mutex.Lock()
	filter.types = types
	filter.mutex.Unlock()
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireWSToken(w, r, h.AuthToken, h.Logger) {
		return
	}
	if h.Service == nil {
		writeWSError(w, r, nil, h.Logger, wsError{
			Status:  http.StatusServiceUnavailable,
			Message: "event stream unavailable",
		})
		return
	}

	conn, err := upgradeWebSocket(w, r, h.AllowedOrigins)
	if err != nil {
		logWSError(h.Logger, r, wsError{
			Status:  http.StatusBadRequest,
			Message: "websocket upgrade failed",
			Err:     err,
		})
		return
	}
	defer conn.Close()

	filter := newEventFilter(streamedEventTypes)
	events, cancel := h.Service.Events().SubscribeFiltered(func(evt coordinator.Event) bool {
		_, ok := streamedEventTypes[evt.Type()]
		return ok
	})
	defer cancel()

	writer, err := startWSWriteLoop(wsStreamConfig[coordinator.Event]{
		Conn:   conn,
		Output: events,
		BuildPayload: func(evt coordinator.Event) (any, bool) {
			return evt, filter.Allows(evt.Type())
		},
	})
	if err != nil {
		writeWSError(w, r, conn, h.Logger, wsError{
			Status:       http.StatusInternalServerError,
			Message:      "event stream unavailable",
			Err:          err,
			SendEnvelope: true,
		})
		return
	}
	defer writer.Stop()

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		var payload eventSubscribeMessage
		if err := json.Unmarshal(msg, &payload); err != nil {
			continue
		}
		filter.Set(payload.Subscribe, streamedEventTypes)
	}
}
