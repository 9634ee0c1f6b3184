package services

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
	"github.com/custodia-labs/datacat/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyLogLevel        = "log.level"
	keyLogJSON         = "log.json"
	keyPluginsDefault  = "plugins.default"
	keyStoreBackend    = "store.backend"
	keyStoreDir        = "store.dir"
	keyThrottleRate    = "throttle.rate"
	keyThrottleBurst   = "throttle.burst"
	keyDeadlineTimeout = "deadline.timeout"
	keyWatch           = "watch"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// SettingsService reads runtime settings from a config store.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
// A nil store yields the defaults.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current settings, falling back to defaults for unset keys.
func (s *SettingsService) Get() (domain.Settings, error) {
	settings := domain.DefaultSettings()
	if s.configStore == nil {
		return settings, nil
	}

	if level := s.getString(keyLogLevel, settings.Log.Level); level != "" {
		level = strings.ToLower(level)
		if !slices.Contains(logLevels, level) {
			return domain.Settings{}, fmt.Errorf("%w: log level %q", domain.ErrInvalidInput, level)
		}
		settings.Log.Level = level
	}
	settings.Log.JSON = s.getBool(keyLogJSON, settings.Log.JSON)
	settings.Plugins.Default = s.configStore.GetStringSlice(keyPluginsDefault)

	backend := domain.StoreBackend(s.getString(keyStoreBackend, string(settings.Store.Backend)))
	if !backend.IsValid() {
		return domain.Settings{}, fmt.Errorf("%w: store backend %q", domain.ErrInvalidInput, backend)
	}
	settings.Store.Backend = backend
	settings.Store.Dir = s.configStore.GetString(keyStoreDir)

	if _, ok := s.configStore.Get(keyThrottleRate); ok {
		settings.Throttle.Rate = s.configStore.GetFloat(keyThrottleRate)
	}
	if _, ok := s.configStore.Get(keyThrottleBurst); ok {
		settings.Throttle.Burst = s.configStore.GetInt(keyThrottleBurst)
	}

	if raw := s.configStore.GetString(keyDeadlineTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return domain.Settings{}, fmt.Errorf("%w: deadline timeout %q", domain.ErrInvalidInput, raw)
		}
		settings.Deadline.Timeout = d
	}

	settings.Watch = s.getBool(keyWatch, settings.Watch)
	return settings, nil
}

// Path returns where the settings were read from.
func (s *SettingsService) Path() string {
	if s.configStore == nil {
		return ""
	}
	return s.configStore.Path()
}

func (s *SettingsService) getString(key, def string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return def
}

func (s *SettingsService) getBool(key string, def bool) bool {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	return s.configStore.GetBool(key)
}
