package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/tonehaven/studiogen/internal/interfaces"
)

// BackendHandler exposes backend availability and the mode preference
type BackendHandler struct {
	selector interfaces.BackendSelector
	logger   arbor.ILogger
}

func NewBackendHandler(selector interfaces.BackendSelector, logger arbor.ILogger) *BackendHandler {
	return &BackendHandler{
		selector: selector,
		logger:   logger,
	}
}

// StatusHandler handles GET /api/backend/status. The response reflects a live
// health probe, so it may change between calls without any mode change.
func (h *BackendHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	status, err := h.selector.Status(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to resolve backend status: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, status)
}

// ModeHandler handles PUT /api/backend/mode
func (h *BackendHandler) ModeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "PUT") {
		return
	}

	var body struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	settings, err := h.selector.SetMode(r.Context(), body.Mode)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, settings)
}
