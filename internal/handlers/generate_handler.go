package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/tonehaven/studiogen/internal/interfaces"
	"github.com/tonehaven/studiogen/internal/models"
)

// GenerateHandler serves the immediate generation path: the request is run
// synchronously through the orchestrator and all results are returned in one
// response. Long-running local studio artifacts come back as "processing"
// with their notebook id; callers needing completion tracking should use the
// queue path instead.
type GenerateHandler struct {
	orchestrator interfaces.Orchestrator
	logger       arbor.ILogger
}

func NewGenerateHandler(orchestrator interfaces.Orchestrator, logger arbor.ILogger) *GenerateHandler {
	return &GenerateHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// GenerateHandler handles POST /api/generate
func (h *GenerateHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var request models.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	results, err := h.orchestrator.GenerateContent(r.Context(), &request, nil)
	if err != nil {
		if strings.Contains(err.Error(), "invalid generation request") {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Backend resolution failures are availability problems, not client
		// mistakes
		h.logger.Warn().Err(err).Msg("Generation request failed")
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}
