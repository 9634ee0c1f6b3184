package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStoreBackend_IsValid(t *testing.T) {
	tests := []struct {
		backend StoreBackend
		valid   bool
	}{
		{StoreSQLite, true},
		{StoreMemory, true},
		{"", false},
		{"postgres", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.backend.IsValid())
		})
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, "info", s.Log.Level)
	assert.False(t, s.Log.JSON)
	assert.Equal(t, StoreSQLite, s.Store.Backend)
	assert.InDelta(t, 10.0, s.Throttle.Rate, 0.001)
	assert.Equal(t, 1, s.Throttle.Burst)
	assert.Equal(t, 30*time.Second, s.Deadline.Timeout)
	assert.Empty(t, s.Plugins.Default)
	assert.False(t, s.Watch)
}
