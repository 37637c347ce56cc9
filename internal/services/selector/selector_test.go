package selector

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/tonehaven/studiogen/internal/common"
	"github.com/tonehaven/studiogen/internal/interfaces"
	"github.com/tonehaven/studiogen/internal/models"
)

type fakeNotebook struct {
	interfaces.NotebookService
	healthErr error
}

func (f *fakeNotebook) HealthCheck(ctx context.Context) error { return f.healthErr }

type fakeCloud struct {
	interfaces.CloudService
	configured bool
}

func (f *fakeCloud) Configured() bool { return f.configured }

type fakeSettings struct {
	stored  *models.BackendSettings
	loadErr error
	saveErr error
}

func (f *fakeSettings) LoadBackendSettings(ctx context.Context) (*models.BackendSettings, error) {
	return f.stored, f.loadErr
}

func (f *fakeSettings) SaveBackendSettings(ctx context.Context, settings *models.BackendSettings) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.stored = settings
	return nil
}

func newTestSelector(localUp, cloudUp bool, settings *fakeSettings) *Service {
	config := common.NewDefaultConfig()
	var healthErr error
	if !localUp {
		healthErr = fmt.Errorf("connection refused")
	}
	return NewService(config, &fakeNotebook{healthErr: healthErr}, &fakeCloud{configured: cloudUp}, settings, arbor.NewLogger())
}

func TestModeDefaultsWhenNeverSaved(t *testing.T) {
	s := newTestSelector(true, true, &fakeSettings{})

	settings, err := s.Mode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, common.BackendModeAuto, settings.Mode)
	assert.NotEmpty(t, settings.LocalEndpoint)
}

func TestSetModePersists(t *testing.T) {
	store := &fakeSettings{}
	s := newTestSelector(true, true, store)

	settings, err := s.SetMode(context.Background(), "cloud")
	require.NoError(t, err)
	assert.Equal(t, common.BackendModeCloud, settings.Mode)
	assert.False(t, settings.UpdatedAt.IsZero())

	reloaded, err := s.Mode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, common.BackendModeCloud, reloaded.Mode)
}

func TestSetModeRejectsUnknownMode(t *testing.T) {
	store := &fakeSettings{}
	s := newTestSelector(true, true, store)

	_, err := s.SetMode(context.Background(), "hybrid")
	require.Error(t, err)
	assert.Nil(t, store.stored)
}

func TestStatusResolution(t *testing.T) {
	tests := []struct {
		name    string
		mode    common.BackendMode
		localUp bool
		cloudUp bool
		want    models.BackendKind
	}{
		{"auto prefers local", common.BackendModeAuto, true, true, models.BackendLocal},
		{"auto falls back to cloud", common.BackendModeAuto, false, true, models.BackendCloud},
		{"auto with nothing available", common.BackendModeAuto, false, false, models.BackendNone},
		{"local mode never falls back", common.BackendModeLocal, false, true, models.BackendNone},
		{"local mode healthy", common.BackendModeLocal, true, false, models.BackendLocal},
		{"cloud mode ignores local", common.BackendModeCloud, true, true, models.BackendCloud},
		{"cloud mode unconfigured", common.BackendModeCloud, true, false, models.BackendNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeSettings{stored: &models.BackendSettings{Mode: tt.mode}}
			s := newTestSelector(tt.localUp, tt.cloudUp, store)

			status, err := s.Status(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.mode, status.Mode)
			assert.Equal(t, tt.localUp, status.LocalAvailable)
			assert.Equal(t, tt.cloudUp, status.CloudAvailable)
			assert.Equal(t, tt.want, status.ActiveBackend)
		})
	}
}

func TestStatusPropagatesSettingsError(t *testing.T) {
	store := &fakeSettings{loadErr: fmt.Errorf("store closed")}
	s := newTestSelector(true, true, store)

	_, err := s.Status(context.Background())
	assert.Error(t, err)
}
