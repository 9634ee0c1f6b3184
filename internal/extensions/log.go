package extensions

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/custodia-labs/datacat/internal/core/advice"
	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
	"github.com/custodia-labs/datacat/internal/logger"
)

// Ensure Log implements the interface.
var _ driven.Extension = (*Log)(nil)

// Log traces every advised call through the verbose logger.
type Log struct{}

// NewLog creates the "log" plugin.
func NewLog() *Log { return &Log{} }

// Name returns "log".
func (l *Log) Name() string { return "log" }

// Hooks returns one outermost hook per site.
func (l *Log) Hooks() []advice.Hook {
	var hooks []advice.Hook
	for _, site := range advice.AllSites() {
		hooks = append(hooks, advice.NewHook(PriorityLog, l.trace(site), advice.On(site)))
	}
	return hooks
}

func (l *Log) trace(site advice.Site) advice.Transform {
	return func(_ context.Context, in advice.Advised) (advice.Advised, error) {
		what := subject(in)
		start := time.Now()
		logger.Event(zerolog.DebugLevel).Str("site", string(site)).Str("subject", what).Msg("call")
		return in.Then(func(_ context.Context, res any) (any, error) {
			logger.Event(zerolog.DebugLevel).
				Str("site", string(site)).
				Str("subject", what).
				Str("result", describe(res)).
				Dur("took", time.Since(start)).
				Msg("done")
			return res, nil
		}), nil
	}
}

func describe(res any) string {
	if r, ok := res.(domain.LoadResult); ok {
		if r.Declined() {
			return "declined"
		}
		v, _ := r.Value()
		return fmt.Sprintf("%T", v)
	}
	return fmt.Sprintf("%T", res)
}
