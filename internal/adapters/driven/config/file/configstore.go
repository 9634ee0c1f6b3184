package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/custodia-labs/datacat/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

const (
	// FileName is the configuration file inside the config directory.
	FileName = "config.yaml"
	// EnvPrefix marks environment variables that override the file.
	// DATACAT_LOG__LEVEL=debug sets log.level.
	EnvPrefix = "DATACAT_"
	// SchemaVersion is the only schema_version this build accepts.
	SchemaVersion = "v1"
)

// ConfigStore reads configuration from a YAML file with environment overrides.
// A missing file is not an error; defaults and the environment still apply.
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	k    *koanf.Koanf
}

// NewConfigStore creates a config store reading configDir/config.yaml.
// If configDir is empty, defaults to ~/.datacat.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".datacat")
	}

	store := &ConfigStore{
		path: filepath.Join(configDir, FileName),
		k:    koanf.New("."),
	}
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

// Load re-reads the file and the environment. On error the previous
// configuration is kept.
func (s *ConfigStore) Load() error {
	k := koanf.New(".")
	if err := k.Load(file.Provider(s.path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading config %s: %w", s.path, err)
	}
	if v := k.String("schema_version"); v != "" && v != SchemaVersion {
		return fmt.Errorf("unsupported config schema_version %q (want %q)", v, SchemaVersion)
	}
	if err := k.Load(env.Provider(EnvPrefix, "__", envKey), nil); err != nil {
		return fmt.Errorf("loading environment: %w", err)
	}
	applyDefaults(k)

	s.mu.Lock()
	s.k = k
	s.mu.Unlock()
	return nil
}

// envKey maps DATACAT_THROTTLE__RATE to throttle__rate; the provider then
// splits on the double underscore.
func envKey(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
}

func applyDefaults(k *koanf.Koanf) {
	defaults := map[string]any{
		"log.level":        "info",
		"log.json":         false,
		"store.backend":    "sqlite",
		"throttle.rate":    10.0,
		"throttle.burst":   1,
		"deadline.timeout": "30s",
		"watch":            false,
	}
	for key, v := range defaults {
		if !k.Exists(key) {
			_ = k.Set(key, v)
		}
	}
}

func (s *ConfigStore) konf() *koanf.Koanf {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.k
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	k := s.konf()
	if !k.Exists(key) {
		return nil, false
	}
	return k.Get(key), true
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	return s.konf().String(key)
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	return s.konf().Int(key)
}

// GetFloat retrieves a float configuration value.
func (s *ConfigStore) GetFloat(key string) float64 {
	return s.konf().Float64(key)
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	return s.konf().Bool(key)
}

// GetStringSlice retrieves a string slice configuration value.
// A comma-separated string, as set from the environment, is split.
func (s *ConfigStore) GetStringSlice(key string) []string {
	k := s.konf()
	if !k.Exists(key) {
		return nil
	}
	if str, ok := k.Get(key).(string); ok {
		var out []string
		for _, part := range strings.Split(str, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return k.Strings(key)
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.path
}
