package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/tonehaven/studiogen/internal/common"
	"github.com/tonehaven/studiogen/internal/interfaces"
	"github.com/tonehaven/studiogen/internal/models"
)

type fakeOrchestrator struct {
	results []models.GenerationResult
	err     error
}

func (f *fakeOrchestrator) GenerateContent(ctx context.Context, request *models.GenerationRequest, onProgress interfaces.ProgressFunc) ([]models.GenerationResult, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generation request: %w", err)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeSelector struct {
	status   *models.BackendStatus
	settings *models.BackendSettings
}

func (f *fakeSelector) Status(ctx context.Context) (*models.BackendStatus, error) {
	return f.status, nil
}

func (f *fakeSelector) Mode(ctx context.Context) (*models.BackendSettings, error) {
	return f.settings, nil
}

func (f *fakeSelector) SetMode(ctx context.Context, mode string) (*models.BackendSettings, error) {
	backendMode := common.BackendMode(mode)
	switch backendMode {
	case common.BackendModeLocal, common.BackendModeCloud, common.BackendModeAuto:
	default:
		return nil, fmt.Errorf("invalid backend mode %q", mode)
	}
	f.settings = &models.BackendSettings{Mode: backendMode, UpdatedAt: time.Now()}
	return f.settings, nil
}

// memQueue is a minimal in-memory QueueStorage for handler tests
type memQueue struct {
	items map[string]*models.QueueItem
}

func newMemQueue() *memQueue {
	return &memQueue{items: make(map[string]*models.QueueItem)}
}

func (q *memQueue) SaveItem(ctx context.Context, item *models.QueueItem) error {
	q.items[item.ID] = item
	return nil
}

func (q *memQueue) GetItem(ctx context.Context, id string) (*models.QueueItem, error) {
	item, ok := q.items[id]
	if !ok {
		return nil, fmt.Errorf("queue item not found: %s", id)
	}
	return item, nil
}

func (q *memQueue) ListBatch(ctx context.Context, batchID string) ([]*models.QueueItem, error) {
	var result []*models.QueueItem
	for _, item := range q.items {
		if item.BatchID == batchID {
			result = append(result, item)
		}
	}
	return result, nil
}

func (q *memQueue) ListItems(ctx context.Context, status models.ItemStatus) ([]*models.QueueItem, error) {
	var result []*models.QueueItem
	for _, item := range q.items {
		if status == "" || item.Status == status {
			result = append(result, item)
		}
	}
	return result, nil
}

func (q *memQueue) PendingItems(ctx context.Context, limit int) ([]*models.QueueItem, error) {
	return q.ListItems(ctx, models.ItemStatusPending)
}

func (q *memQueue) StaleProcessing(ctx context.Context, olderThan time.Duration) ([]*models.QueueItem, error) {
	return nil, nil
}

func (q *memQueue) UpdateStatus(ctx context.Context, id string, status models.ItemStatus, errorMessage string) error {
	item, err := q.GetItem(ctx, id)
	if err != nil {
		return err
	}
	item.Status = status
	item.ErrorMessage = errorMessage
	return nil
}

func (q *memQueue) UpdateProgress(ctx context.Context, id string, percent int) error { return nil }
func (q *memQueue) SetTaskID(ctx context.Context, id, taskID string) error           { return nil }

func (q *memQueue) FinalizeCompleted(ctx context.Context, id, contentURL, answer string) error {
	return q.UpdateStatus(ctx, id, models.ItemStatusCompleted, "")
}

func (q *memQueue) CountByStatus(ctx context.Context, status models.ItemStatus) (int, error) {
	items, _ := q.ListItems(ctx, status)
	return len(items), nil
}

func requestBody(t *testing.T) string {
	t.Helper()
	return `{"title": "Breathing basics", "source_content": "Diaphragmatic breathing.", "outputs": ["podcast"], "question": "What drives airflow?"}`
}

func TestGenerateHandlerReturnsResults(t *testing.T) {
	orchestrator := &fakeOrchestrator{results: []models.GenerationResult{
		{Type: models.ContentTypePodcast, Status: models.GenerationCompleted, Script: "Dana: Hi."},
	}}
	h := NewGenerateHandler(orchestrator, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/generate", strings.NewReader(requestBody(t)))
	rec := httptest.NewRecorder()
	h.GenerateHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Results []models.GenerationResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	assert.Equal(t, models.GenerationCompleted, body.Results[0].Status)
}

func TestGenerateHandlerRejectsInvalidBody(t *testing.T) {
	h := NewGenerateHandler(&fakeOrchestrator{}, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/generate", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.GenerateHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateHandlerValidationError(t *testing.T) {
	h := NewGenerateHandler(&fakeOrchestrator{}, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/generate", strings.NewReader(`{"title": "x"}`))
	rec := httptest.NewRecorder()
	h.GenerateHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateHandlerNoBackend(t *testing.T) {
	orchestrator := &fakeOrchestrator{err: fmt.Errorf("no backend available: local server unreachable and no Gemini API key configured (mode is \"auto\")")}
	h := NewGenerateHandler(orchestrator, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/generate", strings.NewReader(requestBody(t)))
	rec := httptest.NewRecorder()
	h.GenerateHandler(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGenerateHandlerRequiresPost(t *testing.T) {
	h := NewGenerateHandler(&fakeOrchestrator{}, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/generate", nil)
	rec := httptest.NewRecorder()
	h.GenerateHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestEnqueueCreatesOneItemPerOutput(t *testing.T) {
	queue := newMemQueue()
	h := NewQueueHandler(queue, nil, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/queue", strings.NewReader(requestBody(t)))
	rec := httptest.NewRecorder()
	h.EnqueueHandler(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var body struct {
		BatchID string              `json:"batch_id"`
		Items   []*models.QueueItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
	assert.NotEmpty(t, body.BatchID)

	types := map[models.ContentType]bool{}
	for _, item := range body.Items {
		types[item.ContentType] = true
		assert.Equal(t, models.ItemStatusPending, item.Status)
		assert.Equal(t, body.BatchID, item.BatchID)
		assert.Equal(t, "he", item.Language)
	}
	assert.True(t, types[models.ContentTypePodcast])
	assert.True(t, types[models.ContentTypeQuestion])
	assert.Len(t, queue.items, 2)
}

func TestEnqueueRejectsEmptyRequest(t *testing.T) {
	h := NewQueueHandler(newMemQueue(), nil, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/queue", strings.NewReader(`{"title": "x", "source_content": "y"}`))
	rec := httptest.NewRecorder()
	h.EnqueueHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListHandlerFiltersAndCounts(t *testing.T) {
	queue := newMemQueue()
	queue.items["item_1"] = &models.QueueItem{ID: "item_1", Status: models.ItemStatusPending}
	queue.items["item_2"] = &models.QueueItem{ID: "item_2", Status: models.ItemStatusCompleted}
	h := NewQueueHandler(queue, nil, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/queue?status=pending", nil)
	rec := httptest.NewRecorder()
	h.ListHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count   int `json:"count"`
		Pending int `json:"pending"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, 1, body.Pending)
}

func TestBatchHandlerNotFound(t *testing.T) {
	h := NewQueueHandler(newMemQueue(), nil, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/queue/batch/batch_missing", nil)
	rec := httptest.NewRecorder()
	h.BatchHandler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBackendStatusHandler(t *testing.T) {
	selector := &fakeSelector{status: &models.BackendStatus{
		Mode:           common.BackendModeAuto,
		CloudAvailable: true,
		ActiveBackend:  models.BackendCloud,
	}}
	h := NewBackendHandler(selector, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/backend/status", nil)
	rec := httptest.NewRecorder()
	h.StatusHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var status models.BackendStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, models.BackendCloud, status.ActiveBackend)
}

func TestBackendModeHandler(t *testing.T) {
	selector := &fakeSelector{settings: &models.BackendSettings{Mode: common.BackendModeAuto}}
	h := NewBackendHandler(selector, arbor.NewLogger())

	req := httptest.NewRequest("PUT", "/api/backend/mode", strings.NewReader(`{"mode": "local"}`))
	rec := httptest.NewRecorder()
	h.ModeHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest("PUT", "/api/backend/mode", strings.NewReader(`{"mode": "bogus"}`))
	rec = httptest.NewRecorder()
	h.ModeHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
