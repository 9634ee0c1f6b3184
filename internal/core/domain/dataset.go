package domain

import (
	"fmt"
	"reflect"
	"sync"
)

// Dataset is a named entity whose data is reachable through its transformers.
// Names are not required to be unique within a catalog; UUIDs are.
type Dataset struct {
	// Name is the catalog key the dataset was declared under.
	Name string

	// UUID is the stable identifier.
	UUID string

	// Properties holds every non-transformer key, e.g. "description".
	Properties map[string]any

	mu       sync.RWMutex
	storages []*Transformer
	loaders  []*Transformer
	writers  []*Transformer
	catalog  *Catalog
}

// NewDataset creates an empty dataset.
func NewDataset(name, uuid string) *Dataset {
	return &Dataset{
		Name:       name,
		UUID:       uuid,
		Properties: make(map[string]any),
	}
}

// Catalog returns the owning catalog, or nil if detached.
func (d *Dataset) Catalog() *Catalog {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.catalog
}

// Storages returns a copy of the storage transformers in declaration order.
func (d *Dataset) Storages() []*Transformer { return d.Transformers(KindStorage) }

// Loaders returns a copy of the loader transformers in declaration order.
func (d *Dataset) Loaders() []*Transformer { return d.Transformers(KindLoader) }

// Writers returns a copy of the writer transformers in declaration order.
func (d *Dataset) Writers() []*Transformer { return d.Transformers(KindWriter) }

// Transformers returns a copy of the transformers of one kind.
func (d *Dataset) Transformers(kind TransformerKind) []*Transformer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	src := *d.slot(kind)
	out := make([]*Transformer, len(src))
	copy(out, src)
	return out
}

// AddTransformer attaches t to the dataset.
func (d *Dataset) AddTransformer(t *Transformer) error {
	if t == nil || t.Driver == "" {
		return fmt.Errorf("%w: transformer needs a driver", ErrInvalidInput)
	}
	if _, err := ParseTransformerKind(string(t.Kind)); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	slot := d.slot(t.Kind)
	*slot = append(*slot, t)
	t.dataset = d
	return nil
}

// RemoveTransformer detaches t. It reports whether t was attached.
func (d *Dataset) RemoveTransformer(t *Transformer) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	slot := d.slot(t.Kind)
	for i, cur := range *slot {
		if cur == t {
			*slot = append((*slot)[:i:i], (*slot)[i+1:]...)
			t.dataset = nil
			return true
		}
	}
	return false
}

// Matches reports whether every key in props equals the dataset's property
// of the same name. The key "uuid" matches the dataset UUID.
func (d *Dataset) Matches(props map[string]any) bool {
	for k, want := range props {
		if k == "uuid" {
			if s, ok := want.(string); !ok || s != d.UUID {
				return false
			}
			continue
		}
		got, ok := d.Properties[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func (d *Dataset) slot(kind TransformerKind) *[]*Transformer {
	switch kind {
	case KindStorage:
		return &d.storages
	case KindLoader:
		return &d.loaders
	default:
		return &d.writers
	}
}

func (d *Dataset) indexOf(t *Transformer) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for i, cur := range *d.slot(t.Kind) {
		if cur == t {
			return i
		}
	}
	return -1
}

func (d *Dataset) attach(c *Catalog) {
	d.mu.Lock()
	d.catalog = c
	d.mu.Unlock()
}
