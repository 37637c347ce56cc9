package models

import (
	"time"

	"github.com/tonehaven/studiogen/internal/common"
)

// BackendSettings is the persisted, user-configurable backend preference.
// Loaded once at startup from the settings store, mutable at runtime, and
// re-read by the selector on every status check.
type BackendSettings struct {
	Mode          common.BackendMode `json:"mode"`
	LocalEndpoint string             `json:"local_endpoint"`
	HealthURL     string             `json:"health_url"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// DefaultBackendSettings derives settings from static configuration, used
// until a user has saved an explicit preference.
func DefaultBackendSettings(config *common.Config) *BackendSettings {
	return &BackendSettings{
		Mode:          config.Backend.Mode,
		LocalEndpoint: config.Notebook.Endpoint,
		HealthURL:     config.Notebook.HealthURL,
	}
}
