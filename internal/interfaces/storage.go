package interfaces

import (
	"context"
	"time"

	"github.com/tonehaven/studiogen/internal/models"
)

// QueueStorage persists queue items. Items are created by the submission path
// and mutated only by the queue processor; the core never deletes them.
type QueueStorage interface {
	// SaveItem inserts or replaces an item, bumping UpdatedAt.
	SaveItem(ctx context.Context, item *models.QueueItem) error

	// GetItem returns one item by id.
	GetItem(ctx context.Context, id string) (*models.QueueItem, error)

	// ListBatch returns all items sharing a batch id, oldest first.
	ListBatch(ctx context.Context, batchID string) ([]*models.QueueItem, error)

	// ListItems returns all items, newest first, optionally filtered by status.
	ListItems(ctx context.Context, status models.ItemStatus) ([]*models.QueueItem, error)

	// PendingItems returns up to limit pending items ordered by creation time.
	PendingItems(ctx context.Context, limit int) ([]*models.QueueItem, error)

	// StaleProcessing returns processing items untouched for longer than the
	// staleness window.
	StaleProcessing(ctx context.Context, olderThan time.Duration) ([]*models.QueueItem, error)

	// UpdateStatus transitions an item, recording an error message for failed
	// transitions.
	UpdateStatus(ctx context.Context, id string, status models.ItemStatus, errorMessage string) error

	// UpdateProgress records the heuristic progress percentage. Progress never
	// decreases.
	UpdateProgress(ctx context.Context, id string, percent int) error

	// SetTaskID records the backend-assigned task id once known.
	SetTaskID(ctx context.Context, id, taskID string) error

	// FinalizeCompleted marks an item completed with its content URL or answer.
	FinalizeCompleted(ctx context.Context, id, contentURL, answer string) error

	// CountByStatus returns the number of items in the given status.
	CountByStatus(ctx context.Context, status models.ItemStatus) (int, error)
}

// SettingsStorage persists the user's backend preference across restarts
type SettingsStorage interface {
	// LoadBackendSettings returns the stored settings, or nil when none were
	// ever saved.
	LoadBackendSettings(ctx context.Context) (*models.BackendSettings, error)

	// SaveBackendSettings replaces the stored settings.
	SaveBackendSettings(ctx context.Context, settings *models.BackendSettings) error
}

// StorageManager owns the database connection and hands out typed stores
type StorageManager interface {
	QueueStorage() QueueStorage
	SettingsStorage() SettingsStorage
	Close() error
}
