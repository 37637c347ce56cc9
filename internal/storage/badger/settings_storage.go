package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
	"github.com/tonehaven/studiogen/internal/interfaces"
	"github.com/tonehaven/studiogen/internal/models"
)

// backendSettingsKey is the fixed key for the single settings record
const backendSettingsKey = "backend_settings"

// settingsRecord wraps BackendSettings for storage under a fixed key
type settingsRecord struct {
	Key      string `badgerhold:"key"`
	Settings models.BackendSettings
}

// SettingsStorage implements the SettingsStorage interface for Badger
type SettingsStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSettingsStorage creates a new SettingsStorage instance
func NewSettingsStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SettingsStorage {
	return &SettingsStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SettingsStorage) LoadBackendSettings(ctx context.Context) (*models.BackendSettings, error) {
	var record settingsRecord
	if err := s.db.Store().Get(backendSettingsKey, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load backend settings: %w", err)
	}
	return &record.Settings, nil
}

func (s *SettingsStorage) SaveBackendSettings(ctx context.Context, settings *models.BackendSettings) error {
	if settings == nil {
		return fmt.Errorf("settings cannot be nil")
	}
	settings.UpdatedAt = time.Now()

	record := settingsRecord{
		Key:      backendSettingsKey,
		Settings: *settings,
	}

	s.logger.Debug().
		Str("mode", string(settings.Mode)).
		Msg("Persisting backend settings")

	if err := s.db.Store().Upsert(backendSettingsKey, record); err != nil {
		return fmt.Errorf("failed to save backend settings: %w", err)
	}
	return nil
}
