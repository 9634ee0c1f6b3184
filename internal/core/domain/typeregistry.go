package domain

import (
	"io"
	"reflect"
	"sort"
	"sync"
)

// FilePath is a filesystem location handed from a storage to a loader.
// It is a distinct type so a path never satisfies core.string.
type FilePath string

// TypeRegistry binds type tags to runtime types.
// Bound tags compare by Go assignability, unbound tags by equality.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[TypeTag]reflect.Type
}

// NewTypeRegistry creates a registry with the core and io tags bound.
func NewTypeRegistry() *TypeRegistry {
	r := &TypeRegistry{types: make(map[TypeTag]reflect.Type)}
	r.Bind(TagString, reflect.TypeFor[string]())
	r.Bind(TagBytes, reflect.TypeFor[[]byte]())
	r.Bind(TagLines, reflect.TypeFor[[]string]())
	r.Bind(TagValue, reflect.TypeFor[any]())
	r.Bind(TagReader, reflect.TypeFor[io.Reader]())
	r.Bind(TagWriter, reflect.TypeFor[io.Writer]())
	r.Bind(TagPath, reflect.TypeFor[FilePath]())
	return r
}

// Bind associates tag with a runtime type, replacing any previous binding.
func (r *TypeRegistry) Bind(tag TypeTag, typ reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[tag] = typ
}

// Lookup returns the runtime type bound to tag.
func (r *TypeRegistry) Lookup(tag TypeTag) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	typ, ok := r.types[tag]
	return typ, ok
}

// Tags returns every bound tag in canonical order.
func (r *TypeRegistry) Tags() []TypeTag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]TypeTag, 0, len(r.types))
	for t := range r.types {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].String() < tags[j].String() })
	return tags
}

// Satisfies reports whether a value tagged a can be used where b is wanted.
func (r *TypeRegistry) Satisfies(a, b TypeTag) bool {
	if a == b {
		return true
	}
	ta, okA := r.Lookup(a)
	tb, okB := r.Lookup(b)
	if !okA || !okB {
		return false
	}
	return ta.AssignableTo(tb)
}

// SatisfiesAny reports whether a satisfies at least one of wanted.
func (r *TypeRegistry) SatisfiesAny(a TypeTag, wanted []TypeTag) bool {
	for _, w := range wanted {
		if r.Satisfies(a, w) {
			return true
		}
	}
	return false
}

// Accepts reports whether value may be passed where tag is wanted.
// Unbound tags never accept an untagged value.
func (r *TypeRegistry) Accepts(value any, tag TypeTag) bool {
	typ, ok := r.Lookup(tag)
	if !ok {
		return false
	}
	if value == nil {
		switch typ.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return true
		default:
			return false
		}
	}
	return reflect.TypeOf(value).AssignableTo(typ)
}
