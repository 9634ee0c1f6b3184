package domain

import (
	"fmt"
	"strings"
)

// Identifier refers to a dataset on the catalog stack.
// Text form: [catalog:]dataset[::namespace.name]
type Identifier struct {
	// Catalog restricts lookup to one catalog (name or UUID). Optional.
	Catalog string

	// Dataset is a dataset name or UUID.
	Dataset string

	// Type is the requested type; zero when unspecified.
	Type TypeTag
}

// ParseIdentifier parses the text form of an identifier.
func ParseIdentifier(s string) (Identifier, error) {
	var id Identifier
	rest := strings.TrimSpace(s)
	if head, tag, ok := strings.Cut(rest, "::"); ok {
		t, err := ParseTypeTag(tag)
		if err != nil {
			return Identifier{}, err
		}
		id.Type = t
		rest = head
	}
	if cat, ds, ok := strings.Cut(rest, ":"); ok {
		id.Catalog = cat
		rest = ds
	}
	if rest == "" {
		return Identifier{}, fmt.Errorf("%w: identifier %q has no dataset", ErrInvalidInput, s)
	}
	id.Dataset = rest
	return id, nil
}

// String renders the identifier; it is the inverse of ParseIdentifier.
func (i Identifier) String() string {
	var b strings.Builder
	if i.Catalog != "" {
		b.WriteString(i.Catalog)
		b.WriteByte(':')
	}
	b.WriteString(i.Dataset)
	if !i.Type.IsZero() {
		b.WriteString("::")
		b.WriteString(i.Type.String())
	}
	return b.String()
}
