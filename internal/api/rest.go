package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"termblock/internal/coordinator"
	"termblock/internal/logging"
)

type RestHandler struct {
	Service EditorService
	Logger  *logging.Logger
}

type editRequest struct {
	DocumentID string `json:"document_id"`
	Path       string `json:"path"`
	Line       int    `json:"line"`
}

type editStatus struct {
	DocumentID string `json:"document_id"`
	Running    bool   `json:"running"`
	Cols       uint16 `json:"cols"`
	Rows       uint16 `json:"rows"`
}

func (h *RestHandler) requireService() *apiError {
	if h.Service == nil {
		return &apiError{Status: http.StatusServiceUnavailable, Message: "editor unavailable"}
	}
	return nil
}

func (h *RestHandler) handleEdit(w http.ResponseWriter, r *http.Request) *apiError {
	if err := h.requireService(); err != nil {
		return err
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.status())
		return nil
	case http.MethodPost:
		return h.openForEdit(w, r)
	default:
		return methodNotAllowed(w, "GET, POST")
	}
}

func (h *RestHandler) openForEdit(w http.ResponseWriter, r *http.Request) *apiError {
	if r.Body == nil {
		return &apiError{Status: http.StatusBadRequest, Message: "invalid request body"}
	}
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mediaType != "application/json" {
		return &apiError{Status: http.StatusUnsupportedMediaType, Message: "content type must be application/json"}
	}

	var request editRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		return &apiError{Status: http.StatusBadRequest, Message: "invalid request body"}
	}

	request.DocumentID = strings.TrimSpace(request.DocumentID)
	if request.DocumentID == "" {
		return &apiError{Status: http.StatusBadRequest, Message: "missing document id"}
	}
	if strings.TrimSpace(request.Path) == "" {
		return &apiError{Status: http.StatusBadRequest, Message: "missing path", DocumentID: request.DocumentID}
	}
	if request.Line < 0 {
		return &apiError{Status: http.StatusBadRequest, Message: "line must not be negative", DocumentID: request.DocumentID}
	}

	if err := h.Service.OpenForEdit(request.DocumentID, request.Path, request.Line); err != nil {
		if errors.Is(err, coordinator.ErrDocumentRequired) {
			return &apiError{Status: http.StatusBadRequest, Message: "missing document id"}
		}
		if h.Logger != nil {
			h.Logger.Error("editor open failed", map[string]string{
				"document_id": request.DocumentID,
				"path":        request.Path,
				"error":       err.Error(),
			})
		}
		return &apiError{
			Status:     http.StatusInternalServerError,
			Message:    "editor could not be opened",
			DocumentID: request.DocumentID,
		}
	}

	writeJSON(w, http.StatusAccepted, h.status())
	return nil
}

func (h *RestHandler) handleEditClose(w http.ResponseWriter, r *http.Request) *apiError {
	if err := h.requireService(); err != nil {
		return err
	}
	if r.Method != http.MethodPost {
		return methodNotAllowed(w, "POST")
	}
	documentID, _ := h.Service.Active()
	if err := h.Service.CloseEditor(); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("editor close failed", map[string]string{
				"document_id": documentID,
				"error":       err.Error(),
			})
		}
		return &apiError{Status: http.StatusInternalServerError, Message: "editor could not be closed", DocumentID: documentID}
	}
	writeJSON(w, http.StatusAccepted, h.status())
	return nil
}

func (h *RestHandler) handleLogs(w http.ResponseWriter, r *http.Request) *apiError {
	if h.Logger == nil || h.Logger.Buffer() == nil {
		return &apiError{Status: http.StatusInternalServerError, Message: "log buffer unavailable"}
	}
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, "GET")
	}

	entries := h.Logger.Buffer().List()
	if rawLevel := strings.TrimSpace(r.URL.Query().Get("level")); rawLevel != "" {
		level, ok := logging.ParseLevel(rawLevel)
		if !ok {
			return &apiError{Status: http.StatusBadRequest, Message: "invalid log level"}
		}
		entries = h.Logger.Buffer().Since(level)
	}
	writeJSON(w, http.StatusOK, entries)
	return nil
}

func (h *RestHandler) status() editStatus {
	documentID, running := h.Service.Active()
	cols, rows := h.Service.Size()
	return editStatus{
		DocumentID: documentID,
		Running:    running,
		Cols:       cols,
		Rows:       rows,
	}
}
