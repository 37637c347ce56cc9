package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
	"github.com/tonehaven/studiogen/internal/interfaces"
	"github.com/tonehaven/studiogen/internal/models"
)

// QueueStorage implements the QueueStorage interface for Badger.
// Marking an item processing before work starts is the coordination mechanism
// between the web process and a standalone worker sharing this store. The
// claim is advisory: there is no compare-and-set, so two processors racing on
// the same pending batch is a known limitation.
type QueueStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewQueueStorage creates a new QueueStorage instance
func NewQueueStorage(db *BadgerDB, logger arbor.ILogger) interfaces.QueueStorage {
	return &QueueStorage{
		db:     db,
		logger: logger,
	}
}

func (s *QueueStorage) SaveItem(ctx context.Context, item *models.QueueItem) error {
	if item.ID == "" {
		return fmt.Errorf("queue item ID is required")
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	item.UpdatedAt = time.Now()

	s.logger.Trace().
		Str("item_id", item.ID).
		Str("batch_id", item.BatchID).
		Str("status", string(item.Status)).
		Msg("BadgerDB: SaveItem")

	// Dereference to ensure consistent type with Find operations; BadgerHold
	// uses the type name for the key prefix.
	if err := s.db.Store().Upsert(item.ID, *item); err != nil {
		s.logger.Error().Err(err).Str("item_id", item.ID).Msg("BadgerDB: Failed to upsert queue item")
		return fmt.Errorf("failed to save queue item: %w", err)
	}
	return nil
}

func (s *QueueStorage) GetItem(ctx context.Context, id string) (*models.QueueItem, error) {
	var item models.QueueItem
	if err := s.db.Store().Get(id, &item); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("queue item not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get queue item: %w", err)
	}
	return &item, nil
}

func (s *QueueStorage) ListBatch(ctx context.Context, batchID string) ([]*models.QueueItem, error) {
	var items []models.QueueItem
	if err := s.db.Store().Find(&items, badgerhold.Where("BatchID").Eq(batchID).Index("BatchID")); err != nil {
		return nil, fmt.Errorf("failed to list batch %s: %w", batchID, err)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	result := make([]*models.QueueItem, len(items))
	for i := range items {
		result[i] = &items[i]
	}
	return result, nil
}

func (s *QueueStorage) ListItems(ctx context.Context, status models.ItemStatus) ([]*models.QueueItem, error) {
	// Fetch all and filter in memory; the queue stays small enough that index
	// gymnastics are not worth it here.
	var items []models.QueueItem
	if err := s.db.Store().Find(&items, nil); err != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", err)
	}

	var result []*models.QueueItem
	for i := range items {
		if status != "" && items[i].Status != status {
			continue
		}
		result = append(result, &items[i])
	}

	// Newest first
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (s *QueueStorage) PendingItems(ctx context.Context, limit int) ([]*models.QueueItem, error) {
	var items []models.QueueItem
	if err := s.db.Store().Find(&items, badgerhold.Where("Status").Eq(models.ItemStatusPending).Index("Status")); err != nil {
		return nil, fmt.Errorf("failed to find pending items: %w", err)
	}

	// Oldest first so batches drain in submission order
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	result := make([]*models.QueueItem, len(items))
	for i := range items {
		result[i] = &items[i]
	}
	return result, nil
}

func (s *QueueStorage) StaleProcessing(ctx context.Context, olderThan time.Duration) ([]*models.QueueItem, error) {
	threshold := time.Now().Add(-olderThan)

	var items []models.QueueItem
	if err := s.db.Store().Find(&items, badgerhold.Where("Status").Eq(models.ItemStatusProcessing).Index("Status")); err != nil {
		return nil, fmt.Errorf("failed to find processing items: %w", err)
	}

	// Filter staleness in memory; time comparisons in badgerhold queries are
	// more trouble than they are worth.
	var result []*models.QueueItem
	for i := range items {
		if items[i].UpdatedAt.Before(threshold) {
			result = append(result, &items[i])
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.Before(result[j].UpdatedAt)
	})

	return result, nil
}

func (s *QueueStorage) UpdateStatus(ctx context.Context, id string, status models.ItemStatus, errorMessage string) error {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}

	s.logger.Trace().
		Str("item_id", id).
		Str("old_status", string(item.Status)).
		Str("new_status", string(status)).
		Msg("BadgerDB: UpdateStatus")

	item.Status = status
	item.UpdatedAt = time.Now()
	if errorMessage != "" {
		item.ErrorMessage = errorMessage
	}
	if status == models.ItemStatusCompleted {
		item.ProgressPercent = 100
	}

	if err := s.db.Store().Upsert(item.ID, *item); err != nil {
		return fmt.Errorf("failed to update queue item status: %w", err)
	}
	return nil
}

func (s *QueueStorage) UpdateProgress(ctx context.Context, id string, percent int) error {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}

	// Progress is a heuristic ramp and must never move backwards
	if percent <= item.ProgressPercent {
		item.UpdatedAt = time.Now()
		return s.db.Store().Upsert(item.ID, *item)
	}
	if percent > 100 {
		percent = 100
	}

	item.ProgressPercent = percent
	item.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(item.ID, *item); err != nil {
		return fmt.Errorf("failed to update queue item progress: %w", err)
	}
	return nil
}

func (s *QueueStorage) SetTaskID(ctx context.Context, id, taskID string) error {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}

	item.TaskID = taskID
	item.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(item.ID, *item); err != nil {
		return fmt.Errorf("failed to set task id: %w", err)
	}
	return nil
}

func (s *QueueStorage) FinalizeCompleted(ctx context.Context, id, contentURL, answer string) error {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}

	item.Status = models.ItemStatusCompleted
	item.ProgressPercent = 100
	if contentURL != "" {
		item.ContentURL = contentURL
	}
	if answer != "" {
		item.Answer = answer
	}
	item.ErrorMessage = ""
	item.UpdatedAt = time.Now()

	s.logger.Trace().
		Str("item_id", id).
		Str("content_url", contentURL).
		Msg("BadgerDB: FinalizeCompleted")

	if err := s.db.Store().Upsert(item.ID, *item); err != nil {
		return fmt.Errorf("failed to finalize queue item: %w", err)
	}
	return nil
}

func (s *QueueStorage) CountByStatus(ctx context.Context, status models.ItemStatus) (int, error) {
	count, err := s.db.Store().Count(&models.QueueItem{}, badgerhold.Where("Status").Eq(status).Index("Status"))
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
