package memory

import (
	"strings"
	"sync"

	"github.com/custodia-labs/datacat/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is an in-memory driven.ConfigStore.
//
// Values may be set under a full dotted key ("log.level") or as a nested
// map under a prefix ("log" => {"level": ...}); Get resolves both, the way
// the file store does after parsing YAML.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates a config store seeded with values.
func NewConfigStore(seed ...map[string]any) *ConfigStore {
	s := &ConfigStore{values: make(map[string]any)}
	for _, m := range seed {
		for k, v := range m {
			s.values[k] = v
		}
	}
	return s
}

// Set stores a configuration value.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v, true
	}
	// Walk nested maps from the longest stored prefix.
	parts := strings.Split(key, ".")
	for i := len(parts) - 1; i > 0; i-- {
		v, ok := s.values[strings.Join(parts[:i], ".")]
		if !ok {
			continue
		}
		for _, p := range parts[i:] {
			m, isMap := v.(map[string]any)
			if !isMap {
				return nil, false
			}
			if v, ok = m[p]; !ok {
				return nil, false
			}
		}
		return v, true
	}
	return nil, false
}

func lookup[T any](s *ConfigStore, key string, conv func(any) (T, bool)) T {
	var zero T
	v, ok := s.Get(key)
	if !ok {
		return zero
	}
	if out, ok := conv(v); ok {
		return out
	}
	return zero
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// GetString returns "" for missing or non-string values.
func (s *ConfigStore) GetString(key string) string {
	return lookup(s, key, func(v any) (string, bool) {
		str, ok := v.(string)
		return str, ok
	})
}

// GetInt truncates floats; other types give 0.
func (s *ConfigStore) GetInt(key string) int {
	return lookup(s, key, func(v any) (int, bool) {
		if n, ok := v.(int); ok {
			return n, true
		}
		f, ok := asFloat(v)
		return int(f), ok
	})
}

// GetFloat accepts any numeric value.
func (s *ConfigStore) GetFloat(key string) float64 {
	return lookup(s, key, asFloat)
}

// GetBool returns false for missing or non-boolean values.
func (s *ConfigStore) GetBool(key string) bool {
	return lookup(s, key, func(v any) (bool, bool) {
		b, ok := v.(bool)
		return b, ok
	})
}

// GetStringSlice accepts []string, []any (non-strings are skipped) and
// comma-separated strings.
func (s *ConfigStore) GetStringSlice(key string) []string {
	return lookup(s, key, func(v any) ([]string, bool) {
		switch l := v.(type) {
		case []string:
			return l, true
		case string:
			var out []string
			for _, item := range strings.Split(l, ",") {
				if item = strings.TrimSpace(item); item != "" {
					out = append(out, item)
				}
			}
			return out, true
		case []any:
			out := make([]string, 0, len(l))
			for _, item := range l {
				if str, ok := item.(string); ok {
					out = append(out, str)
				}
			}
			return out, true
		}
		return nil, false
	})
}

// Load is a no-op; there is nothing to re-read.
func (s *ConfigStore) Load() error { return nil }

// Path returns ":memory:".
func (s *ConfigStore) Path() string { return ":memory:" }
