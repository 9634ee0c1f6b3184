package domain

import "time"

// Settings holds the runtime configuration of datacat.
type Settings struct {
	Log      LogSettings
	Plugins  PluginSettings
	Store    StoreSettings
	Throttle ThrottleSettings
	Deadline DeadlineSettings

	// Watch reloads catalog files when they change on disk.
	Watch bool
}

// LogSettings configures the logger.
type LogSettings struct {
	// Level is one of debug, info, warn, error.
	Level string
	// JSON switches from console to JSON output.
	JSON bool
}

// PluginSettings configures which extensions apply by default.
type PluginSettings struct {
	// Default is appended to every catalog's own plugin list.
	Default []string
}

// StoreBackend selects where the catalog stack is persisted.
type StoreBackend string

const (
	// StoreSQLite persists the stack in a SQLite database.
	StoreSQLite StoreBackend = "sqlite"
	// StoreMemory keeps the stack for the lifetime of the process only.
	StoreMemory StoreBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	return b == StoreSQLite || b == StoreMemory
}

// StoreSettings configures stack persistence.
type StoreSettings struct {
	Backend StoreBackend
	// Dir holds the database; defaults to ~/.datacat/data.
	Dir string
}

// ThrottleSettings configures the throttle extension.
type ThrottleSettings struct {
	// Rate is the sustained number of advised loads per second.
	Rate float64
	// Burst is the bucket size.
	Burst int
}

// DeadlineSettings configures the deadline extension.
type DeadlineSettings struct {
	// Timeout bounds each advised storage, load and write action.
	Timeout time.Duration
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Log:      LogSettings{Level: "info"},
		Store:    StoreSettings{Backend: StoreSQLite},
		Throttle: ThrottleSettings{Rate: 10, Burst: 1},
		Deadline: DeadlineSettings{Timeout: 30 * time.Second},
	}
}

// StackEntry is one persisted layer of the catalog stack.
type StackEntry struct {
	// Position is 0 for the top of the stack.
	Position int
	// Path is the catalog file.
	Path string
	// UUID and Name are recorded for display when the file is missing.
	UUID string
	Name string
}
