package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/datacat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/datacat/internal/core/domain"
)

func TestSettingsService_Defaults(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore())

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)
	assert.Equal(t, ":memory:", svc.Path())
}

func TestSettingsService_NilStore(t *testing.T) {
	svc := NewSettingsService(nil)

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)
	assert.Empty(t, svc.Path())
}

func TestSettingsService_ReadsValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("log.level", "DEBUG")
	_ = store.Set("log.json", true)
	_ = store.Set("plugins.default", []string{"log", "memorise"})
	_ = store.Set("store.backend", "memory")
	_ = store.Set("store.dir", "/var/lib/datacat")
	_ = store.Set("throttle.rate", 0.5)
	_ = store.Set("throttle.burst", 3)
	_ = store.Set("deadline.timeout", "1500ms")
	_ = store.Set("watch", true)

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Equal(t, "debug", settings.Log.Level)
	assert.True(t, settings.Log.JSON)
	assert.Equal(t, []string{"log", "memorise"}, settings.Plugins.Default)
	assert.Equal(t, domain.StoreMemory, settings.Store.Backend)
	assert.Equal(t, "/var/lib/datacat", settings.Store.Dir)
	assert.InDelta(t, 0.5, settings.Throttle.Rate, 0.0001)
	assert.Equal(t, 3, settings.Throttle.Burst)
	assert.Equal(t, 1500*time.Millisecond, settings.Deadline.Timeout)
	assert.True(t, settings.Watch)
}

func TestSettingsService_ZeroRateDisablesThrottle(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("throttle.rate", 0.0)

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Zero(t, settings.Throttle.Rate)
}

func TestSettingsService_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"log level", "log.level", "loud"},
		{"store backend", "store.backend", "postgres"},
		{"deadline", "deadline.timeout", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			_ = store.Set(tt.key, tt.value)

			_, err := NewSettingsService(store).Get()

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
