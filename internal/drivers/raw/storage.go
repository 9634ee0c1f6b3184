// Package raw provides the "raw" storage driver, which serves the value
// written inline in the catalog under the "value" parameter.
package raw

import (
	"context"
	"fmt"

	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
)

// Ensure Storage implements the interface.
var _ driven.StorageDriver = (*Storage)(nil)

// Storage serves inline values. It is read-only.
type Storage struct{}

// New creates a raw storage driver.
func New() *Storage {
	return &Storage{}
}

// Name returns the driver tag.
func (s *Storage) Name() string { return "raw" }

// OutputTypes returns the handle types.
func (s *Storage) OutputTypes() []domain.TypeTag {
	return []domain.TypeTag{domain.TagValue, domain.TagString, domain.TagBytes}
}

// Open returns the inline value. Without a "value" parameter the storage
// is unavailable and yields a nil handle.
func (s *Storage) Open(_ context.Context, st *domain.Transformer, as domain.TypeTag, write bool) (any, error) {
	if write {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotWritable, st.Label())
	}
	v, ok := st.Param("value")
	if !ok {
		return nil, nil
	}

	switch as {
	case domain.TagValue, domain.TypeTag{}:
		return v, nil
	case domain.TagString:
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		default:
			return fmt.Sprint(x), nil
		}
	case domain.TagBytes:
		switch x := v.(type) {
		case string:
			return []byte(x), nil
		case []byte:
			return x, nil
		default:
			return []byte(fmt.Sprint(x)), nil
		}
	default:
		return nil, fmt.Errorf("%w: raw cannot open as %s", domain.ErrInvalidInput, as)
	}
}
