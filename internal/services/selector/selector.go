package selector

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/tonehaven/studiogen/internal/common"
	"github.com/tonehaven/studiogen/internal/interfaces"
	"github.com/tonehaven/studiogen/internal/models"
)

// Service resolves which backend handles a generation request. The mode
// preference persists across restarts; availability is probed fresh on every
// status check because the local server can be started or stopped at any time.
type Service struct {
	config   *common.Config
	logger   arbor.ILogger
	notebook interfaces.NotebookService
	cloud    interfaces.CloudService
	settings interfaces.SettingsStorage
}

// NewService creates a backend selector
func NewService(config *common.Config, notebook interfaces.NotebookService, cloud interfaces.CloudService, settings interfaces.SettingsStorage, logger arbor.ILogger) *Service {
	return &Service{
		config:   config,
		logger:   logger,
		notebook: notebook,
		cloud:    cloud,
		settings: settings,
	}
}

// Mode returns the persisted backend preference, falling back to static
// configuration when the user never saved one.
func (s *Service) Mode(ctx context.Context) (*models.BackendSettings, error) {
	stored, err := s.settings.LoadBackendSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load backend settings: %w", err)
	}
	if stored == nil {
		return models.DefaultBackendSettings(s.config), nil
	}
	return stored, nil
}

// SetMode validates and persists a new backend mode preference
func (s *Service) SetMode(ctx context.Context, mode string) (*models.BackendSettings, error) {
	backendMode := common.BackendMode(mode)
	switch backendMode {
	case common.BackendModeLocal, common.BackendModeCloud, common.BackendModeAuto:
	default:
		return nil, fmt.Errorf("invalid backend mode %q: must be local, cloud, or auto", mode)
	}

	settings, err := s.Mode(ctx)
	if err != nil {
		return nil, err
	}

	settings.Mode = backendMode
	settings.UpdatedAt = time.Now()

	if err := s.settings.SaveBackendSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to persist backend mode: %w", err)
	}

	s.logger.Info().Str("mode", mode).Msg("Backend mode updated")
	return settings, nil
}

// Status probes both backends and resolves the active one for the current
// mode. Local availability is a live health probe; cloud availability is a
// credential check with no network call.
func (s *Service) Status(ctx context.Context) (*models.BackendStatus, error) {
	settings, err := s.Mode(ctx)
	if err != nil {
		return nil, err
	}

	status := &models.BackendStatus{
		Mode:           settings.Mode,
		CloudAvailable: s.cloud.Configured(),
	}

	if healthErr := s.notebook.HealthCheck(ctx); healthErr == nil {
		status.LocalAvailable = true
	} else {
		s.logger.Debug().Err(healthErr).Msg("Local backend health probe failed")
	}

	status.ActiveBackend = resolve(settings.Mode, status.LocalAvailable, status.CloudAvailable)
	return status, nil
}

// resolve applies the mode policy. Fixed modes never fall back: an unhealthy
// local server in "local" mode resolves to no backend, not to cloud.
func resolve(mode common.BackendMode, localUp, cloudUp bool) models.BackendKind {
	switch mode {
	case common.BackendModeLocal:
		if localUp {
			return models.BackendLocal
		}
	case common.BackendModeCloud:
		if cloudUp {
			return models.BackendCloud
		}
	case common.BackendModeAuto:
		if localUp {
			return models.BackendLocal
		}
		if cloudUp {
			return models.BackendCloud
		}
	}
	return models.BackendNone
}
