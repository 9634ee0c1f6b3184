package extensions

import (
	"context"
	"io"
	"sync"

	"github.com/custodia-labs/datacat/internal/core/advice"
	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
	"github.com/custodia-labs/datacat/internal/logger"
)

// Ensure Memorise implements the interface.
var _ driven.Extension = (*Memorise)(nil)

// Memorise caches produced load results per dataset, loader and requested
// type. On a hit the loader does not run. Readers and closers are never
// cached: they belong to the caller that received them. Cached values are shared between
// callers and must not be mutated.
type Memorise struct {
	mu    sync.RWMutex
	cache map[memoKey]domain.LoadResult
}

type memoKey struct {
	dataset string
	loader  *domain.Transformer
	as      domain.TypeTag
}

// NewMemorise creates the "memorise" plugin.
func NewMemorise() *Memorise {
	return &Memorise{cache: make(map[memoKey]domain.LoadResult)}
}

// Name returns "memorise".
func (m *Memorise) Name() string { return "memorise" }

// Hooks returns the innermost load hook.
func (m *Memorise) Hooks() []advice.Hook {
	on := advice.On(advice.SiteLoad).Where(advice.ArgIs[*domain.Transformer](0))
	return []advice.Hook{advice.NewHook(PriorityMemorise, m.remember, on)}
}

// Forget drops every cached result.
func (m *Memorise) Forget() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[memoKey]domain.LoadResult)
}

// Len returns the number of cached results.
func (m *Memorise) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cache)
}

func (m *Memorise) remember(_ context.Context, in advice.Advised) (advice.Advised, error) {
	loader := in.Arg(0).(*domain.Transformer)
	as, _ := in.Arg(2).(domain.TypeTag)
	key := memoKey{loader: loader, as: as}
	if ds := loader.Dataset(); ds != nil {
		key.dataset = ds.UUID
	}

	m.mu.RLock()
	hit, ok := m.cache[key]
	m.mu.RUnlock()
	if ok {
		logger.Debug("memorise: hit for %s", subject(in))
		return in.WithAction(func(context.Context, []any, map[string]any) (any, error) {
			return hit, nil
		}), nil
	}

	return in.Then(func(_ context.Context, res any) (any, error) {
		r, ok := res.(domain.LoadResult)
		if !ok || r.Declined() {
			return res, nil
		}
		if v, _ := r.Value(); isHandle(v) {
			return res, nil
		}
		m.mu.Lock()
		m.cache[key] = r
		m.mu.Unlock()
		return res, nil
	}), nil
}

func isHandle(v any) bool {
	switch v.(type) {
	case io.Reader, io.Writer, io.Closer:
		return true
	}
	return false
}
