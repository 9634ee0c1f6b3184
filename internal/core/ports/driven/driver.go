package driven

import (
	"context"

	"github.com/custodia-labs/datacat/internal/core/domain"
)

// StorageDriver gives raw access to where a dataset's data lives.
type StorageDriver interface {
	// Name returns the driver tag used in catalog specs, e.g. "filesystem".
	Name() string

	// OutputTypes returns the handle types Open can produce, most
	// specific first. Used when a storage declares no types of its own.
	OutputTypes() []domain.TypeTag

	// Open returns a handle of type as. With write set the handle is
	// opened for writing. Handles implementing io.Closer are closed by
	// the caller once used.
	Open(ctx context.Context, storage *domain.Transformer, as domain.TypeTag, write bool) (any, error)
}

// LoaderDriver turns a storage handle into information.
type LoaderDriver interface {
	// Name returns the driver tag used in catalog specs, e.g. "json".
	Name() string

	// InputTypes returns the handle types Load consumes, in preference order.
	InputTypes() []domain.TypeTag

	// OutputTypes returns the types Load can produce.
	// Empty means the loader decides at load time.
	OutputTypes() []domain.TypeTag

	// Load reads handle and produces a value of type as, or declines.
	// Declining is not an error: resolution moves on to the next candidate.
	Load(ctx context.Context, loader *domain.Transformer, handle any, as domain.TypeTag) (domain.LoadResult, error)
}

// WriterDriver puts information back through a storage handle.
type WriterDriver interface {
	// Name returns the driver tag used in catalog specs.
	Name() string

	// ValueTypes returns the value types the writer accepts.
	ValueTypes() []domain.TypeTag

	// HandleTypes returns the storage handle types the writer writes to.
	HandleTypes() []domain.TypeTag

	// Write serialises value into handle.
	Write(ctx context.Context, writer *domain.Transformer, handle any, value any) error
}

// DriverLookup resolves driver tags to implementations.
type DriverLookup interface {
	Storage(name string) (StorageDriver, error)
	Loader(name string) (LoaderDriver, error)
	Writer(name string) (WriterDriver, error)
}

// WritableStorage is implemented by storage drivers that accept writes.
type WritableStorage interface {
	StorageDriver

	// WriteTypes returns the handle types Open produces when write is set.
	WriteTypes() []domain.TypeTag
}
