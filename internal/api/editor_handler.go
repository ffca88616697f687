package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"termblock/internal/editor"
	"termblock/internal/logging"

	"github.com/gorilla/websocket"
)

// EditorHandler attaches a websocket client to the embedded editor: output is
// sent as binary frames, and binary or text frames from the client are typed
// into the editor.
type EditorHandler struct {
	Service        EditorService
	Logger         *logging.Logger
	AuthToken      string
	AllowedOrigins []string
}

// controlMessage is JSON-encoded in text frames to carry resize updates.
type controlMessage struct {
	Type string `json:"type"`
	Cols uint16 `json:"cols"`
	Rows uint16 `json:"rows"`
}

func (h *EditorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireWSToken(w, r, h.AuthToken, h.Logger) {
		return
	}
	if h.Service == nil {
		writeWSError(w, r, nil, h.Logger, wsError{
			Status:  http.StatusServiceUnavailable,
			Message: "editor unavailable",
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

	output, cancel := h.Service.Output().Subscribe()
	defer cancel()

	writer, err := startWSWriteLoop(wsStreamConfig[[]byte]{
		Conn:         conn,
		Output:       output,
		WritePayload: writeBinaryPayload,
		PreWrite: func(conn *websocket.Conn) error {
			for _, chunk := range h.Service.RecentOutput() {
				if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
					return err
				}
			}
			return nil
		},
	})
	if err != nil {
		logWSError(h.Logger, r, wsError{
			Status:  http.StatusInternalServerError,
			Message: "editor replay failed",
			Err:     err,
		})
		return
	}
	defer writer.Stop()

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		switch msgType {
		case websocket.TextMessage:
			if control, ok := parseControlMessage(msg); ok {
				if err := h.Service.Resize(control.Cols, control.Rows); err != nil && h.Logger != nil {
					h.Logger.Warn("editor resize failed", map[string]string{
						"error": err.Error(),
					})
				}
				continue
			}
			if !h.forward(w, r, conn, writer, msg) {
				return
			}
		case websocket.BinaryMessage:
			if !h.forward(w, r, conn, writer, msg) {
				return
			}
		}
	}
}

// forward types msg into the editor. Keystrokes with no running editor are
// dropped; any other failure closes the socket.
func (h *EditorHandler) forward(w http.ResponseWriter, r *http.Request, conn *websocket.Conn, writer *wsWriteLoop, msg []byte) bool {
	err := h.Service.Write(msg)
	if err == nil {
		return true
	}
	if errors.Is(err, editor.ErrNoActiveSession) {
		return true
	}
	writer.Stop()
	<-writer.Finished()
	writeWSError(w, r, conn, h.Logger, wsError{
		Status:       http.StatusInternalServerError,
		Message:      "editor write failed",
		Err:          err,
		SendEnvelope: true,
	})
	return false
}

func parseControlMessage(data []byte) (controlMessage, bool) {
	var msg controlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return controlMessage{}, false
	}

	if msg.Type != "resize" {
		return msg, false
	}
	if msg.Cols == 0 || msg.Rows == 0 {
		return msg, false
	}

	return msg, true
}
