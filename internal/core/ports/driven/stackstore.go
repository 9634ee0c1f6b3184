package driven

import (
	"context"

	"github.com/custodia-labs/datacat/internal/core/domain"
)

// StackStore persists which catalog files are on the stack, top first, so
// the stack survives between invocations.
type StackStore interface {
	// Save replaces the stored stack.
	Save(ctx context.Context, entries []domain.StackEntry) error

	// Load returns the stored stack ordered by position.
	Load(ctx context.Context) ([]domain.StackEntry, error)

	// Close releases resources.
	Close() error
}
