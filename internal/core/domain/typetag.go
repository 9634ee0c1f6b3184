package domain

import (
	"strings"
)

// TypeTag names a data shape without requiring the underlying Go type.
// The canonical text form is "namespace.name".
type TypeTag struct {
	Namespace string
	Name      string
}

// Built-in type tags shared by the bundled drivers.
var (
	TagString       = TypeTag{"core", "string"}
	TagBytes        = TypeTag{"core", "bytes"}
	TagLines        = TypeTag{"core", "lines"}
	TagValue        = TypeTag{"core", "value"}
	TagReader       = TypeTag{"io", "reader"}
	TagWriter       = TypeTag{"io", "writer"}
	TagPath         = TypeTag{"io", "path"}
	TagSQLDB        = TypeTag{"sql", "db"}
	TagRows         = TypeTag{"table", "rows"}
	TagJSONValue    = TypeTag{"json", "value"}
	TagTOMLDocument = TypeTag{"toml", "document"}
	TagYAMLDocument = TypeTag{"yaml", "document"}
)

// ParseTypeTag parses "namespace.name".
func ParseTypeTag(s string) (TypeTag, error) {
	ns, name, ok := strings.Cut(s, ".")
	if !ok || !validSegment(ns) || !validSegment(name) {
		return TypeTag{}, &MalformedTagError{Input: s}
	}
	return TypeTag{Namespace: ns, Name: name}, nil
}

// MustParseTypeTag is like ParseTypeTag but panics on malformed input.
// Intended for package-level tag literals.
func MustParseTypeTag(s string) TypeTag {
	t, err := ParseTypeTag(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTypeTags parses each string, stopping at the first malformed one.
func ParseTypeTags(ss []string) ([]TypeTag, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	tags := make([]TypeTag, 0, len(ss))
	for _, s := range ss {
		t, err := ParseTypeTag(s)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}

// String renders the canonical form.
func (t TypeTag) String() string {
	return t.Namespace + "." + t.Name
}

// IsZero reports whether t is the zero tag.
func (t TypeTag) IsZero() bool {
	return t.Namespace == "" && t.Name == ""
}

// Satisfies is the unbound compatibility relation: structural equality.
// Use TypeRegistry.Satisfies once tags are bound to runtime types.
func (t TypeTag) Satisfies(other TypeTag) bool {
	return t == other
}

// MarshalText implements encoding.TextMarshaler.
func (t TypeTag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TypeTag) UnmarshalText(b []byte) error {
	parsed, err := ParseTypeTag(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func validSegment(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && (r == '-' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return true
}
