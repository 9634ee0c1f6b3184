package driving

import (
	"context"

	"github.com/custodia-labs/datacat/internal/core/domain"
)

// StackService manages the process-wide catalog stack.
// References to catalogs (ref) are a catalog name or UUID.
type StackService interface {
	// Load reads a catalog file and pushes it on top of the stack.
	Load(ctx context.Context, path string) (*domain.Catalog, error)

	// Push puts a built catalog on top. A catalog whose UUID is already
	// on the stack is moved to the top instead.
	Push(ctx context.Context, catalog *domain.Catalog) error

	// Pop removes and returns the top catalog.
	Pop(ctx context.Context) (*domain.Catalog, error)

	// Promote moves a catalog to the top of the stack.
	Promote(ctx context.Context, ref string) error

	// Demote moves a catalog one position down the stack.
	Demote(ctx context.Context, ref string) error

	// Remove takes a catalog off the stack wherever it is.
	Remove(ctx context.Context, ref string) error

	// Replace swaps the catalog with the same UUID in place.
	Replace(ctx context.Context, catalog *domain.Catalog) error

	// Reload re-reads the catalog file at path and replaces it on the stack.
	Reload(ctx context.Context, path string) error

	// Catalogs returns the stack, top first.
	Catalogs() []*domain.Catalog

	// Catalog returns one catalog on the stack.
	Catalog(ref string) (*domain.Catalog, error)

	// Find resolves an identifier to a dataset, scanning top to bottom.
	// props disambiguates same-named datasets within a catalog.
	Find(ctx context.Context, ident domain.Identifier, props map[string]any) (*domain.Dataset, error)

	// AddDataset builds a dataset from a spec table, adds it to a catalog
	// (the top one when ref is empty) and saves that catalog.
	AddDataset(ctx context.Context, ref, name string, spec map[string]any) (*domain.Dataset, error)

	// RemoveDataset takes a dataset out of its catalog and saves the catalog.
	RemoveDataset(ctx context.Context, dataset *domain.Dataset) error

	// RemoveTransformer takes a transformer out of its dataset and saves
	// the owning catalog.
	RemoveTransformer(ctx context.Context, t *domain.Transformer) error

	// Save writes a catalog back to its file.
	Save(ctx context.Context, catalog *domain.Catalog) error

	// Restore reloads the persisted stack.
	Restore(ctx context.Context) error
}
