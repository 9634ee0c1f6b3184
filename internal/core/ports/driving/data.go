package driving

import (
	"context"

	"github.com/custodia-labs/datacat/internal/core/domain"
)

// StoreOptions tunes a store operation.
type StoreOptions struct {
	// Writer selects a writer explicitly instead of choosing by value type.
	Writer *domain.Transformer

	// Type declares the value's type tag when the value's Go type is not
	// enough, e.g. a map that should be written as toml.document.
	Type domain.TypeTag
}

// DataService reads and writes datasets through their transformers.
type DataService interface {
	// Realize loads dataset as target by searching storage/loader pairs.
	Realize(ctx context.Context, dataset *domain.Dataset, target domain.TypeTag) (any, error)

	// Store writes value to dataset through a writer and a writable storage.
	Store(ctx context.Context, dataset *domain.Dataset, value any, opts StoreOptions) error

	// Find parses identifier text, with advice, and looks it up on the stack.
	Find(ctx context.Context, ident string) (*domain.Dataset, error)

	// Read resolves identifier text and realizes it. The identifier's type
	// wins over as when both are given.
	Read(ctx context.Context, ident string, as domain.TypeTag) (any, error)

	// Open resolves identifier text and opens its first storage able to
	// produce as, without a loader.
	Open(ctx context.Context, ident string, as domain.TypeTag) (any, error)

	// Write resolves identifier text and stores value.
	Write(ctx context.Context, ident string, value any, opts StoreOptions) error
}
