package extensions

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/datacat/internal/core/advice"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
)

// Ensure Throttle implements the interface.
var _ driven.Extension = (*Throttle)(nil)

// Throttle rate-limits storage opens, loads and writes with one token
// bucket shared by every catalog using the plugin.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle creates the "throttle" plugin allowing perSecond calls with
// the given burst. A non-positive rate disables limiting.
func NewThrottle(perSecond float64, burst int) *Throttle {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttle{limiter: rate.NewLimiter(limit, burst)}
}

// Name returns "throttle".
func (t *Throttle) Name() string { return "throttle" }

// Hooks returns the waiting hook.
func (t *Throttle) Hooks() []advice.Hook {
	return []advice.Hook{
		advice.NewHook(PriorityThrottle, t.wait, advice.On(transformerSites...)),
	}
}

func (t *Throttle) wait(ctx context.Context, in advice.Advised) (advice.Advised, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return in, fmt.Errorf("throttled %s: %w", subject(in), err)
	}
	return in, nil
}
