package driving

import "github.com/custodia-labs/datacat/internal/core/domain"

// SettingsService exposes the effective runtime settings.
type SettingsService interface {
	// Get returns the settings, with defaults for anything unset.
	Get() (domain.Settings, error)

	// Path returns the configuration file the settings came from.
	Path() string
}
