package domain

import (
	"fmt"
	"strconv"
)

// TransformerKind distinguishes the three transformer roles.
type TransformerKind string

const (
	// KindStorage provides raw access to where data lives.
	KindStorage TransformerKind = "storage"
	// KindLoader turns a storage handle into information.
	KindLoader TransformerKind = "loader"
	// KindWriter puts information back through a storage handle.
	KindWriter TransformerKind = "writer"
)

// AllTransformerKinds returns the kinds in catalog order.
func AllTransformerKinds() []TransformerKind {
	return []TransformerKind{KindStorage, KindLoader, KindWriter}
}

// ParseTransformerKind converts a catalog section key to a kind.
func ParseTransformerKind(s string) (TransformerKind, error) {
	switch TransformerKind(s) {
	case KindStorage, KindLoader, KindWriter:
		return TransformerKind(s), nil
	default:
		return "", fmt.Errorf("%w: transformer kind %q", ErrInvalidInput, s)
	}
}

// DefaultPriority applies to transformers that do not declare one.
// Lower values are tried first.
const DefaultPriority = 1

// Transformer is one storage, loader or writer attached to a dataset.
type Transformer struct {
	// Kind is the transformer role.
	Kind TransformerKind

	// Driver selects the implementation, e.g. "filesystem" or "json".
	Driver string

	// Types lists the output types (storage, loader) or accepted value
	// types (writer). Empty means the driver decides.
	Types []TypeTag

	// Priority orders transformers of one kind; lower runs first.
	Priority int

	// Parameters holds every other key from the transformer spec.
	Parameters map[string]any

	dataset *Dataset
}

// NewTransformer creates a transformer with the default priority.
func NewTransformer(kind TransformerKind, driver string) *Transformer {
	return &Transformer{
		Kind:       kind,
		Driver:     driver,
		Priority:   DefaultPriority,
		Parameters: make(map[string]any),
	}
}

// Dataset returns the owning dataset, or nil if detached.
func (t *Transformer) Dataset() *Dataset {
	return t.dataset
}

// Label identifies the transformer within its dataset, e.g. "loader[1]:json".
func (t *Transformer) Label() string {
	if t.dataset == nil {
		return string(t.Kind) + ":" + t.Driver
	}
	idx := t.dataset.indexOf(t)
	return string(t.Kind) + "[" + strconv.Itoa(idx) + "]:" + t.Driver
}

// Param returns a raw parameter value.
func (t *Transformer) Param(key string) (any, bool) {
	v, ok := t.Parameters[key]
	return v, ok
}

// StringParam returns a string parameter, or "" if absent or not a string.
func (t *Transformer) StringParam(key string) string {
	v, ok := t.Parameters[key].(string)
	if !ok {
		return ""
	}
	return v
}

// IntParam returns an integer parameter.
// Handles the int, int64 and float64 forms produced by TOML/YAML/JSON decoding.
func (t *Transformer) IntParam(key string) (int, bool) {
	switch v := t.Parameters[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// BoolParam returns a boolean parameter, defaulting to def.
func (t *Transformer) BoolParam(key string, def bool) bool {
	v, ok := t.Parameters[key].(bool)
	if !ok {
		return def
	}
	return v
}

// Clone returns a detached copy with its own parameter map.
func (t *Transformer) Clone() *Transformer {
	c := &Transformer{
		Kind:       t.Kind,
		Driver:     t.Driver,
		Types:      append([]TypeTag(nil), t.Types...),
		Priority:   t.Priority,
		Parameters: make(map[string]any, len(t.Parameters)),
	}
	for k, v := range t.Parameters {
		c.Parameters[k] = v
	}
	return c
}
