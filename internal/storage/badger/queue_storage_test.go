package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
	"github.com/tonehaven/studiogen/internal/models"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	options := badgerhold.DefaultOptions
	options.Dir = t.TempDir()
	options.ValueDir = options.Dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store, logger: arbor.NewLogger()}
}

func TestQueueItemLifecycle(t *testing.T) {
	db := newTestDB(t)
	storage := NewQueueStorage(db, arbor.NewLogger())
	ctx := context.Background()

	item := &models.QueueItem{
		ID:            "item-1",
		BatchID:       "batch-1",
		ContentType:   models.ContentTypePodcast,
		Title:         "Breathing basics",
		SourceContent: "Diaphragmatic breathing supports sustained phrases.",
		Status:        models.ItemStatusPending,
	}
	require.NoError(t, storage.SaveItem(ctx, item))

	got, err := storage.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusPending, got.Status)
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, storage.UpdateStatus(ctx, "item-1", models.ItemStatusProcessing, ""))
	require.NoError(t, storage.SetTaskID(ctx, "item-1", "nb-42"))
	require.NoError(t, storage.UpdateProgress(ctx, "item-1", 40))

	got, err = storage.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusProcessing, got.Status)
	assert.Equal(t, "nb-42", got.TaskID)
	assert.Equal(t, 40, got.ProgressPercent)

	require.NoError(t, storage.FinalizeCompleted(ctx, "item-1", "https://notebooklm/audio/nb-42", ""))

	got, err = storage.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusCompleted, got.Status)
	assert.Equal(t, 100, got.ProgressPercent)
	assert.Equal(t, "https://notebooklm/audio/nb-42", got.ContentURL)
}

func TestProgressNeverDecreases(t *testing.T) {
	db := newTestDB(t)
	storage := NewQueueStorage(db, arbor.NewLogger())
	ctx := context.Background()

	item := &models.QueueItem{
		ID:      "item-1",
		BatchID: "batch-1",
		Status:  models.ItemStatusProcessing,
	}
	require.NoError(t, storage.SaveItem(ctx, item))

	require.NoError(t, storage.UpdateProgress(ctx, "item-1", 60))
	require.NoError(t, storage.UpdateProgress(ctx, "item-1", 30))

	got, err := storage.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, 60, got.ProgressPercent)
}

func TestPendingItemsOrderAndLimit(t *testing.T) {
	db := newTestDB(t)
	storage := NewQueueStorage(db, arbor.NewLogger())
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	ids := []string{"item-c", "item-a", "item-b"}
	for i, id := range ids {
		item := &models.QueueItem{
			ID:        id,
			BatchID:   "batch-1",
			Status:    models.ItemStatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, storage.SaveItem(ctx, item))
	}
	// A processing item must not appear in the pending drain
	require.NoError(t, storage.SaveItem(ctx, &models.QueueItem{
		ID: "item-x", BatchID: "batch-2", Status: models.ItemStatusProcessing,
	}))

	pending, err := storage.PendingItems(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "item-c", pending[0].ID)
	assert.Equal(t, "item-a", pending[1].ID)
}

func TestStaleProcessing(t *testing.T) {
	db := newTestDB(t)
	storage := NewQueueStorage(db, arbor.NewLogger())
	ctx := context.Background()

	stale := models.QueueItem{
		ID:        "item-stale",
		BatchID:   "batch-1",
		Status:    models.ItemStatusProcessing,
		CreatedAt: time.Now().Add(-time.Hour),
		UpdatedAt: time.Now().Add(-30 * time.Minute),
	}
	// Bypass SaveItem so UpdatedAt is not bumped to now
	require.NoError(t, db.Store().Upsert(stale.ID, stale))

	require.NoError(t, storage.SaveItem(ctx, &models.QueueItem{
		ID: "item-fresh", BatchID: "batch-1", Status: models.ItemStatusProcessing,
	}))
	require.NoError(t, storage.SaveItem(ctx, &models.QueueItem{
		ID: "item-pending", BatchID: "batch-1", Status: models.ItemStatusPending,
	}))

	got, err := storage.StaleProcessing(ctx, 10*time.Minute)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "item-stale", got[0].ID)
}

func TestListBatchAndCounts(t *testing.T) {
	db := newTestDB(t)
	storage := NewQueueStorage(db, arbor.NewLogger())
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	require.NoError(t, storage.SaveItem(ctx, &models.QueueItem{
		ID: "item-1", BatchID: "batch-1", ContentType: models.ContentTypePodcast,
		Status: models.ItemStatusPending, CreatedAt: base,
	}))
	require.NoError(t, storage.SaveItem(ctx, &models.QueueItem{
		ID: "item-2", BatchID: "batch-1", ContentType: models.ContentTypeQuestion,
		Status: models.ItemStatusCompleted, CreatedAt: base.Add(time.Second),
	}))
	require.NoError(t, storage.SaveItem(ctx, &models.QueueItem{
		ID: "item-3", BatchID: "batch-2", ContentType: models.ContentTypeSlides,
		Status: models.ItemStatusPending, CreatedAt: base.Add(2 * time.Second),
	}))

	batch, err := storage.ListBatch(ctx, "batch-1")
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "item-1", batch[0].ID)
	assert.Equal(t, "item-2", batch[1].ID)

	pendingCount, err := storage.CountByStatus(ctx, models.ItemStatusPending)
	require.NoError(t, err)
	assert.Equal(t, 2, pendingCount)
}

func TestSettingsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	storage := NewSettingsStorage(db, arbor.NewLogger())
	ctx := context.Background()

	loaded, err := storage.LoadBackendSettings(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	settings := &models.BackendSettings{
		Mode:          "cloud",
		LocalEndpoint: "http://localhost:3456/mcp",
	}
	require.NoError(t, storage.SaveBackendSettings(ctx, settings))

	loaded, err = storage.LoadBackendSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.EqualValues(t, "cloud", loaded.Mode)
	assert.False(t, loaded.UpdatedAt.IsZero())
}
