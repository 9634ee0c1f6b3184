package domain

import (
	"path/filepath"
	"slices"
	"sync"
)

// FormatVersion is the catalog format version this build reads and writes.
const FormatVersion = 0

// Top-level catalog keys. A dataset may not use any of these as its name.
const (
	KeyVersion = "data_config_version"
	KeyName    = "name"
	KeyUUID    = "uuid"
	KeyPlugins = "plugins"
	KeyConfig  = "config"
)

var reservedKeys = []string{KeyVersion, KeyName, KeyUUID, KeyPlugins, KeyConfig}

// ReservedKeys returns the built-in reserved top-level keys.
func ReservedKeys() []string {
	return slices.Clone(reservedKeys)
}

// IsReservedKey reports whether key is a built-in top-level catalog key.
func IsReservedKey(key string) bool {
	return slices.Contains(reservedKeys, key)
}

// Catalog is an ordered collection of datasets plus collection configuration.
type Catalog struct {
	// Name is the human-readable collection name.
	Name string

	// UUID is the stable identifier.
	UUID string

	// Version is the format version the catalog was read with.
	Version int

	// Plugins lists the extensions whose advice applies to this catalog.
	Plugins []string

	// Config is the free-form [config] section.
	Config map[string]any

	// Path is the file the catalog was read from; empty if built in code.
	Path string

	mu       sync.RWMutex
	datasets []*Dataset
	reserved func(key string) bool
}

// NewCatalog creates an empty catalog.
func NewCatalog(name, uuid string) *Catalog {
	return &Catalog{
		Name:    name,
		UUID:    uuid,
		Version: FormatVersion,
		Config:  make(map[string]any),
	}
}

// Datasets returns a copy of the datasets in declaration order.
func (c *Catalog) Datasets() []*Dataset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.datasets)
}

// SetReservedCheck installs an extra test for reserved keys, on top of
// the built-in ones. AddDataset rejects names it reports as reserved.
func (c *Catalog) SetReservedCheck(fn func(key string) bool) {
	c.mu.Lock()
	c.reserved = fn
	c.mu.Unlock()
}

// AddDataset attaches d to the catalog.
func (c *Catalog) AddDataset(d *Dataset) error {
	c.mu.Lock()
	if IsReservedKey(d.Name) || (c.reserved != nil && c.reserved(d.Name)) {
		c.mu.Unlock()
		return &ReservedNameError{Name: d.Name}
	}
	c.datasets = append(c.datasets, d)
	c.mu.Unlock()
	d.attach(c)
	return nil
}

// RemoveDataset detaches d. It reports whether d was attached.
func (c *Catalog) RemoveDataset(d *Dataset) bool {
	c.mu.Lock()
	idx := slices.Index(c.datasets, d)
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	c.datasets = slices.Delete(c.datasets, idx, idx+1)
	c.mu.Unlock()
	d.attach(nil)
	return true
}

// DatasetsNamed returns every dataset with the given name or UUID.
func (c *Catalog) DatasetsNamed(nameOrUUID string) []*Dataset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*Dataset
	for _, d := range c.datasets {
		if d.Name == nameOrUUID || d.UUID == nameOrUUID {
			out = append(out, d)
		}
	}
	return out
}

// Dir returns the directory relative paths in the catalog resolve against.
func (c *Catalog) Dir() string {
	if c.Path == "" {
		return "."
	}
	return filepath.Dir(c.Path)
}

// ConfigValue looks up a nested value in the [config] section.
func (c *Catalog) ConfigValue(path ...string) (any, bool) {
	var cur any = c.Config
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Matches reports whether ref names this catalog by name or UUID.
func (c *Catalog) Matches(ref string) bool {
	return c.Name == ref || c.UUID == ref
}
