package extensions

import (
	"context"
	"time"

	"github.com/custodia-labs/datacat/internal/core/advice"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
)

// Ensure Deadline implements the interface.
var _ driven.Extension = (*Deadline)(nil)

// Deadline bounds every storage open, load and write by a timeout.
type Deadline struct {
	timeout time.Duration
}

// NewDeadline creates the "deadline" plugin. A non-positive timeout
// leaves actions unbounded.
func NewDeadline(timeout time.Duration) *Deadline {
	return &Deadline{timeout: timeout}
}

// Name returns "deadline".
func (d *Deadline) Name() string { return "deadline" }

// Hooks returns the hook wrapping the action in a timeout.
func (d *Deadline) Hooks() []advice.Hook {
	return []advice.Hook{
		advice.NewHook(PriorityDeadline, d.bound, advice.On(transformerSites...)),
	}
}

func (d *Deadline) bound(_ context.Context, in advice.Advised) (advice.Advised, error) {
	action := in.Action
	if d.timeout <= 0 || action == nil {
		return in, nil
	}
	return in.WithAction(func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()
		return action(ctx, args, kwargs)
	}), nil
}
