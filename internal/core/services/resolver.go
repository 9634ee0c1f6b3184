package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"sort"

	"github.com/custodia-labs/datacat/internal/core/advice"
	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driving"
	"github.com/custodia-labs/datacat/internal/logger"
)

// Ensure DataService implements the interface.
var _ driving.DataService = (*DataService)(nil)

// DataService realizes and stores datasets through their transformers.
// It holds no mutable state of its own and is safe for concurrent use.
type DataService struct {
	rt    *Runtime
	stack driving.StackService
}

// NewDataService creates a data service. stack is used to resolve
// identifier text for Read, Open and Write.
func NewDataService(rt *Runtime, stack driving.StackService) *DataService {
	return &DataService{rt: rt, stack: stack}
}

// candidate is one storage/loader pair. via is the handle type requested
// from the storage and as the type requested from the loader.
type candidate struct {
	storage    *domain.Transformer
	storageIdx int
	loader     *domain.Transformer
	loaderIdx  int
	via        domain.TypeTag
	as         domain.TypeTag
}

// Realize searches the dataset's storage/loader pairs for one producing
// target. Pairs are tried by loader priority, storage priority, loader
// declaration order, then storage declaration order. A loader that
// declines moves the search on to the next pair; any produced value,
// zero values included, ends it. A zero target accepts any loader.
func (s *DataService) Realize(ctx context.Context, dataset *domain.Dataset, target domain.TypeTag) (any, error) {
	if dataset == nil {
		return nil, fmt.Errorf("%w: no dataset", domain.ErrInvalidInput)
	}
	chain := s.rt.ChainFor(dataset.Catalog())
	candidates, unknown := s.candidates(dataset, target)
	logger.Debug("realize %s as %s: %d candidates", dataset.Name, target, len(candidates))

	var attempted []domain.Attempt
	for _, c := range candidates {
		attempted = append(attempted, domain.Attempt{Storage: c.storage.Label(), Transformer: c.loader.Label()})

		handle, err := s.openStorage(ctx, chain, c.storage, c.via, false)
		if err != nil {
			return nil, err
		}
		if handle == nil {
			logger.Debug("%s unavailable as %s", c.storage.Label(), c.via)
			continue
		}

		res, err := s.load(ctx, chain, c.loader, handle, c.as)
		if err != nil {
			release(handle)
			return nil, err
		}
		if res.Declined() {
			logger.Debug("%s declined %s", c.loader.Label(), c.storage.Label())
			release(handle)
			continue
		}
		v, _ := res.Value()
		if !s.produces(v, target) {
			logger.Debug("%s produced %T, not %s", c.loader.Label(), v, target)
			if !sameValue(v, handle) {
				release(v)
			}
			release(handle)
			continue
		}
		if !sameValue(v, handle) {
			release(handle)
		}
		logger.Debug("realized %s via %s -> %s", dataset.Name, c.storage.Label(), c.loader.Label())
		return v, nil
	}

	notFound := &domain.NoSatisfyingTransformerError{
		Dataset:   dataset.Name,
		Target:    target,
		Attempted: attempted,
	}
	if unknown != nil {
		return nil, errors.Join(notFound, unknown)
	}
	return nil, notFound
}

// produces reports whether v may be returned for target. Only bound tags
// are checked; an unbound or zero target takes any value.
func (s *DataService) produces(v any, target domain.TypeTag) bool {
	if target.IsZero() {
		return true
	}
	types := s.rt.Types()
	if _, bound := types.Lookup(target); !bound {
		return true
	}
	return types.Accepts(v, target)
}

// candidates enumerates the type-compatible pairs in resolution order.
// Transformers with unregistered drivers are left out; the returned error
// joins their UnknownDriverErrors.
func (s *DataService) candidates(dataset *domain.Dataset, target domain.TypeTag) ([]candidate, error) {
	types := s.rt.Types()
	drivers := s.rt.DriverRegistry()
	var unknown []error

	type storageInfo struct {
		t       *domain.Transformer
		outputs []domain.TypeTag
	}
	var storages []storageInfo
	for _, st := range dataset.Storages() {
		sdrv, err := drivers.Storage(st.Driver)
		if err != nil {
			unknown = append(unknown, err)
			storages = append(storages, storageInfo{})
			continue
		}
		storages = append(storages, storageInfo{t: st, outputs: effective(st.Types, sdrv.OutputTypes())})
	}

	var out []candidate
	for li, l := range dataset.Loaders() {
		ldrv, err := drivers.Loader(l.Driver)
		if err != nil {
			unknown = append(unknown, err)
			continue
		}
		outputs := effective(l.Types, ldrv.OutputTypes())
		as, ok := loaderTarget(types, outputs, target)
		if !ok {
			continue
		}
		// A loader typed on neither side hands the storage handle through,
		// so the handle itself must be of the target type.
		passthrough := len(outputs) == 0 && len(ldrv.InputTypes()) == 0 && !target.IsZero()
		for si, st := range storages {
			if st.t == nil {
				continue
			}
			var via domain.TypeTag
			if passthrough {
				via, ok = storageTarget(types, st.outputs, target)
			} else {
				via, ok = intermediate(types, st.outputs, ldrv.InputTypes())
			}
			if !ok {
				continue
			}
			out = append(out, candidate{
				storage: st.t, storageIdx: si,
				loader: l, loaderIdx: li,
				via: via, as: as,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.loader.Priority != b.loader.Priority {
			return a.loader.Priority < b.loader.Priority
		}
		if a.storage.Priority != b.storage.Priority {
			return a.storage.Priority < b.storage.Priority
		}
		if a.loaderIdx != b.loaderIdx {
			return a.loaderIdx < b.loaderIdx
		}
		return a.storageIdx < b.storageIdx
	})
	return out, errors.Join(unknown...)
}

// effective returns the declared types, or the driver's when none are declared.
func effective(declared, driver []domain.TypeTag) []domain.TypeTag {
	if len(declared) > 0 {
		return declared
	}
	return driver
}

// loaderTarget decides whether a loader with outputs can produce target and
// which type to ask it for. Empty outputs mean the loader decides at load time.
func loaderTarget(types *domain.TypeRegistry, outputs []domain.TypeTag, target domain.TypeTag) (domain.TypeTag, bool) {
	if target.IsZero() {
		if len(outputs) > 0 {
			return outputs[0], true
		}
		return domain.TypeTag{}, true
	}
	if len(outputs) == 0 {
		return target, true
	}
	for _, o := range outputs {
		if types.Satisfies(o, target) {
			return target, true
		}
	}
	return domain.TypeTag{}, false
}

// intermediate picks the storage output to hand the loader: the first
// storage output satisfying the loader's most preferred input type.
// A loader without input types takes the storage's first output; a
// storage without output types is assumed to produce what is asked of it.
func intermediate(types *domain.TypeRegistry, outputs, inputs []domain.TypeTag) (domain.TypeTag, bool) {
	if len(inputs) == 0 {
		if len(outputs) == 0 {
			return domain.TypeTag{}, true
		}
		return outputs[0], true
	}
	if len(outputs) == 0 {
		return inputs[0], true
	}
	for _, in := range inputs {
		for _, o := range outputs {
			if types.Satisfies(o, in) {
				return o, true
			}
		}
	}
	return domain.TypeTag{}, false
}

// openStorage opens st through the storage site.
func (s *DataService) openStorage(ctx context.Context, chain *advice.Chain, st *domain.Transformer, as domain.TypeTag, write bool) (any, error) {
	return chain.Invoke(ctx, advice.Call{
		Site:   advice.SiteStorage,
		Args:   []any{st, as},
		Kwargs: map[string]any{"write": write},
		Action: func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
			st, as, err := transformerArgs(args)
			if err != nil {
				return nil, err
			}
			drv, err := s.rt.DriverRegistry().Storage(st.Driver)
			if err != nil {
				return nil, err
			}
			w, _ := kwargs["write"].(bool)
			return drv.Open(ctx, st, as, w)
		},
	})
}

// load runs a loader through the load site. Advice may post-process the
// domain.LoadResult; any other value it leaves behind counts as produced.
func (s *DataService) load(ctx context.Context, chain *advice.Chain, l *domain.Transformer, handle any, as domain.TypeTag) (domain.LoadResult, error) {
	out, err := chain.Invoke(ctx, advice.Call{
		Site: advice.SiteLoad,
		Args: []any{l, handle, as},
		Action: func(ctx context.Context, args []any, _ map[string]any) (any, error) {
			if len(args) < 3 {
				return nil, fmt.Errorf("%w: load wants (loader, handle, as)", domain.ErrInvalidInput)
			}
			l, as, err := transformerArgs([]any{args[0], args[2]})
			if err != nil {
				return nil, err
			}
			drv, err := s.rt.DriverRegistry().Loader(l.Driver)
			if err != nil {
				return nil, err
			}
			return drv.Load(ctx, l, args[1], as)
		},
	})
	if err != nil {
		return domain.LoadResult{}, err
	}
	if res, ok := out.(domain.LoadResult); ok {
		return res, nil
	}
	return domain.Produced(out), nil
}

func transformerArgs(args []any) (*domain.Transformer, domain.TypeTag, error) {
	if len(args) < 2 {
		return nil, domain.TypeTag{}, fmt.Errorf("%w: want (transformer, type)", domain.ErrInvalidInput)
	}
	t, ok := args[0].(*domain.Transformer)
	if !ok || t == nil {
		return nil, domain.TypeTag{}, fmt.Errorf("%w: want a transformer, got %T", domain.ErrInvalidInput, args[0])
	}
	as, _ := args[1].(domain.TypeTag)
	return t, as, nil
}

// Open resolves ident and opens the first storage, by priority, able to
// produce as. The caller owns the returned handle.
func (s *DataService) Open(ctx context.Context, ident string, as domain.TypeTag) (any, error) {
	ds, id, err := s.find(ctx, ident)
	if err != nil {
		return nil, err
	}
	if !id.Type.IsZero() {
		as = id.Type
	}
	chain := s.rt.ChainFor(ds.Catalog())
	types := s.rt.Types()

	var attempted []domain.Attempt
	for _, st := range byPriority(ds.Storages()) {
		drv, err := s.rt.DriverRegistry().Storage(st.Driver)
		if err != nil {
			logger.Warn("%v", err)
			continue
		}
		via, ok := storageTarget(types, effective(st.Types, drv.OutputTypes()), as)
		if !ok {
			continue
		}
		attempted = append(attempted, domain.Attempt{Storage: st.Label()})
		handle, err := s.openStorage(ctx, chain, st, via, false)
		if err != nil {
			return nil, err
		}
		if handle != nil {
			return handle, nil
		}
	}
	return nil, &domain.NoSatisfyingTransformerError{Dataset: ds.Name, Target: as, Attempted: attempted}
}

// storageTarget picks the storage output to request for as, preferring an
// exact match.
func storageTarget(types *domain.TypeRegistry, outputs []domain.TypeTag, as domain.TypeTag) (domain.TypeTag, bool) {
	if as.IsZero() {
		if len(outputs) == 0 {
			return domain.TypeTag{}, true
		}
		return outputs[0], true
	}
	if len(outputs) == 0 || slices.Contains(outputs, as) {
		return as, true
	}
	for _, o := range outputs {
		if types.Satisfies(o, as) {
			return o, true
		}
	}
	return domain.TypeTag{}, false
}

// Find parses ident through the parse-identifier site and looks it up on
// the stack.
func (s *DataService) Find(ctx context.Context, ident string) (*domain.Dataset, error) {
	ds, _, err := s.find(ctx, ident)
	return ds, err
}

// Read resolves ident and realizes it. A type in the identifier wins over as.
func (s *DataService) Read(ctx context.Context, ident string, as domain.TypeTag) (any, error) {
	ds, id, err := s.find(ctx, ident)
	if err != nil {
		return nil, err
	}
	if !id.Type.IsZero() {
		as = id.Type
	}
	return s.Realize(ctx, ds, as)
}

// Write resolves ident and stores value.
func (s *DataService) Write(ctx context.Context, ident string, value any, opts driving.StoreOptions) error {
	ds, id, err := s.find(ctx, ident)
	if err != nil {
		return err
	}
	if opts.Type.IsZero() {
		opts.Type = id.Type
	}
	return s.Store(ctx, ds, value, opts)
}

func (s *DataService) find(ctx context.Context, ident string) (*domain.Dataset, domain.Identifier, error) {
	if s.stack == nil {
		return nil, domain.Identifier{}, fmt.Errorf("stack service not configured")
	}
	id, err := s.rt.ParseIdentifier(ctx, nil, ident)
	if err != nil {
		return nil, domain.Identifier{}, err
	}
	ds, err := s.stack.Find(ctx, id, nil)
	if err != nil {
		return nil, domain.Identifier{}, err
	}
	return ds, id, nil
}

// byPriority returns ts ordered by ascending priority, ties in declaration order.
func byPriority(ts []*domain.Transformer) []*domain.Transformer {
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].Priority < ts[j].Priority })
	return ts
}

// release closes a handle that implements io.Closer, logging failures.
func release(handle any) {
	if err := closeHandle(handle); err != nil {
		logger.Warn("closing handle: %v", err)
	}
}

func closeHandle(handle any) error {
	c, ok := handle.(io.Closer)
	if !ok {
		return nil
	}
	return c.Close()
}

// sameValue reports whether a and b are the same comparable value.
func sameValue(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() || va.Type() != vb.Type() {
		return false
	}
	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	return va.Equal(vb)
}
