package services

import (
	"sort"
	"sync"

	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
	"github.com/custodia-labs/datacat/internal/core/ports/driving"
)

// Ensure Drivers implements the interface.
var _ driven.DriverLookup = (*Drivers)(nil)

// Drivers maps driver tags to implementations, one table per transformer kind.
type Drivers struct {
	mu       sync.RWMutex
	storages map[string]driven.StorageDriver
	loaders  map[string]driven.LoaderDriver
	writers  map[string]driven.WriterDriver
}

// NewDrivers creates an empty driver registry.
func NewDrivers() *Drivers {
	return &Drivers{
		storages: make(map[string]driven.StorageDriver),
		loaders:  make(map[string]driven.LoaderDriver),
		writers:  make(map[string]driven.WriterDriver),
	}
}

// RegisterStorage adds a storage driver, replacing one with the same name.
func (d *Drivers) RegisterStorage(s driven.StorageDriver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.storages[s.Name()] = s
}

// RegisterLoader adds a loader driver, replacing one with the same name.
func (d *Drivers) RegisterLoader(l driven.LoaderDriver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaders[l.Name()] = l
}

// RegisterWriter adds a writer driver, replacing one with the same name.
func (d *Drivers) RegisterWriter(w driven.WriterDriver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writers[w.Name()] = w
}

// Storage returns the named storage driver.
func (d *Drivers) Storage(name string) (driven.StorageDriver, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.storages[name]
	if !ok {
		return nil, &domain.UnknownDriverError{Kind: domain.KindStorage, Driver: name}
	}
	return s, nil
}

// Loader returns the named loader driver.
func (d *Drivers) Loader(name string) (driven.LoaderDriver, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	l, ok := d.loaders[name]
	if !ok {
		return nil, &domain.UnknownDriverError{Kind: domain.KindLoader, Driver: name}
	}
	return l, nil
}

// Writer returns the named writer driver.
func (d *Drivers) Writer(name string) (driven.WriterDriver, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	w, ok := d.writers[name]
	if !ok {
		return nil, &domain.UnknownDriverError{Kind: domain.KindWriter, Driver: name}
	}
	return w, nil
}

// Has reports whether a driver of kind is registered under name.
func (d *Drivers) Has(kind domain.TransformerKind, name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	switch kind {
	case domain.KindStorage:
		_, ok := d.storages[name]
		return ok
	case domain.KindLoader:
		_, ok := d.loaders[name]
		return ok
	case domain.KindWriter:
		_, ok := d.writers[name]
		return ok
	default:
		return false
	}
}

// List describes every registered driver, by kind then name.
func (d *Drivers) List() []driving.DriverInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []driving.DriverInfo
	for _, name := range sortedKeys(d.storages) {
		s := d.storages[name]
		out = append(out, driving.DriverInfo{
			Kind:   string(domain.KindStorage),
			Name:   name,
			Output: tagStrings(s.OutputTypes()),
		})
	}
	for _, name := range sortedKeys(d.loaders) {
		l := d.loaders[name]
		out = append(out, driving.DriverInfo{
			Kind:   string(domain.KindLoader),
			Name:   name,
			Input:  tagStrings(l.InputTypes()),
			Output: tagStrings(l.OutputTypes()),
		})
	}
	for _, name := range sortedKeys(d.writers) {
		w := d.writers[name]
		out = append(out, driving.DriverInfo{
			Kind:   string(domain.KindWriter),
			Name:   name,
			Input:  tagStrings(w.ValueTypes()),
			Output: tagStrings(w.HandleTypes()),
		})
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func tagStrings(tags []domain.TypeTag) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.String()
	}
	return out
}
