package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/tonehaven/studiogen/internal/common"
	"github.com/tonehaven/studiogen/internal/interfaces"
	"github.com/tonehaven/studiogen/internal/models"
	"github.com/tonehaven/studiogen/internal/processor"
)

// QueueHandler serves the deferred generation path: submissions become
// persisted queue items drained by the processor, either in-process (triggered
// through this handler) or by the standalone worker sharing the store.
type QueueHandler struct {
	queue     interfaces.QueueStorage
	processor *processor.Processor
	logger    arbor.ILogger
}

func NewQueueHandler(queue interfaces.QueueStorage, proc *processor.Processor, logger arbor.ILogger) *QueueHandler {
	return &QueueHandler{
		queue:     queue,
		processor: proc,
		logger:    logger,
	}
}

// EnqueueHandler handles POST /api/queue. One queue item is created per
// requested output type, plus one for the question; all share a batch id.
func (h *QueueHandler) EnqueueHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var request models.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	if err := request.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	request.Normalize()

	batchID := common.NewBatchID()
	now := time.Now()
	items := make([]*models.QueueItem, 0, len(request.Outputs)+1)

	for _, contentType := range request.Outputs {
		items = append(items, &models.QueueItem{
			ID:            common.NewItemID(),
			BatchID:       batchID,
			ContentType:   contentType,
			Title:         request.Title,
			SourceContent: request.SourceContent,
			Language:      request.Language,
			Status:        models.ItemStatusPending,
			CreatedAt:     now,
		})
	}
	if request.Question != "" {
		items = append(items, &models.QueueItem{
			ID:            common.NewItemID(),
			BatchID:       batchID,
			ContentType:   models.ContentTypeQuestion,
			Title:         request.Title,
			SourceContent: request.SourceContent,
			Prompt:        request.Question,
			Language:      request.Language,
			Status:        models.ItemStatusPending,
			CreatedAt:     now,
		})
	}

	for _, item := range items {
		if err := h.queue.SaveItem(r.Context(), item); err != nil {
			h.logger.Error().Err(err).Str("batch_id", batchID).Msg("Failed to enqueue item")
			WriteError(w, http.StatusInternalServerError, "Failed to enqueue: "+err.Error())
			return
		}
	}

	h.logger.Info().
		Str("batch_id", batchID).
		Int("items", len(items)).
		Msg("Generation batch enqueued")

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"batch_id": batchID,
		"items":    items,
	})
}

// ListHandler handles GET /api/queue with an optional status filter
func (h *QueueHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	status := models.ItemStatus(r.URL.Query().Get("status"))
	items, err := h.queue.ListItems(r.Context(), status)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list queue: "+err.Error())
		return
	}

	pending, _ := h.queue.CountByStatus(r.Context(), models.ItemStatusPending)
	processing, _ := h.queue.CountByStatus(r.Context(), models.ItemStatusProcessing)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":      items,
		"count":      len(items),
		"pending":    pending,
		"processing": processing,
	})
}

// BatchHandler handles GET /api/queue/batch/{id}
func (h *QueueHandler) BatchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	batchID := strings.TrimPrefix(r.URL.Path, "/api/queue/batch/")
	if batchID == "" || strings.Contains(batchID, "/") {
		WriteError(w, http.StatusBadRequest, "Batch id is required")
		return
	}

	items, err := h.queue.ListBatch(r.Context(), batchID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to load batch: "+err.Error())
		return
	}
	if len(items) == 0 {
		WriteError(w, http.StatusNotFound, "Batch not found: "+batchID)
		return
	}

	batch := &models.Batch{BatchID: batchID, Items: items}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"batch_id": batch.BatchID,
		"items":    batch.Items,
		"done":     batch.Done(),
	})
}

// ProcessHandler handles POST /api/queue/process. The cycle runs in the
// background; its outcome is observed through queue item state.
func (h *QueueHandler) ProcessHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	go func() {
		if err := h.processor.RunOnce(context.Background()); err != nil {
			h.logger.Error().Err(err).Msg("Queue processing cycle failed")
		}
	}()

	WriteStarted(w, "Queue processing cycle started")
}
