package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/datacat/internal/core/advice"
	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
	"github.com/custodia-labs/datacat/internal/core/ports/driving"
	"github.com/custodia-labs/datacat/internal/logger"
)

// Store writes value to dataset. The writer is opts.Writer, or the first by
// priority whose accepted types admit the value (or opts.Type). The storage
// is the first by priority that can open a handle the writer writes to.
// Writers never decline: the first error is returned.
func (s *DataService) Store(ctx context.Context, dataset *domain.Dataset, value any, opts driving.StoreOptions) error {
	if dataset == nil {
		return fmt.Errorf("%w: no dataset", domain.ErrInvalidInput)
	}
	chain := s.rt.ChainFor(dataset.Catalog())

	writer, wdrv, attempted, err := s.selectWriter(dataset, value, opts)
	if err != nil {
		return err
	}
	if writer == nil {
		return &domain.NoSatisfyingTransformerError{Dataset: dataset.Name, Target: opts.Type, Attempted: attempted}
	}

	attempted = nil
	handleTypes := wdrv.HandleTypes()
	for _, st := range byPriority(dataset.Storages()) {
		sdrv, err := s.rt.DriverRegistry().Storage(st.Driver)
		if err != nil {
			logger.Warn("%v", err)
			continue
		}
		ws, ok := sdrv.(driven.WritableStorage)
		if !ok {
			continue
		}
		via, ok := intermediate(s.rt.Types(), ws.WriteTypes(), handleTypes)
		if !ok {
			continue
		}
		attempted = append(attempted, domain.Attempt{Storage: st.Label(), Transformer: writer.Label()})

		handle, err := s.openStorage(ctx, chain, st, via, true)
		if err != nil {
			return err
		}
		if handle == nil {
			return fmt.Errorf("%w: %s opened no handle", domain.ErrNotWritable, st.Label())
		}
		werr := s.write(ctx, chain, writer, handle, value)
		cerr := closeHandle(handle)
		if werr != nil {
			return werr
		}
		if cerr != nil {
			return fmt.Errorf("close %s: %w", st.Label(), cerr)
		}
		logger.Debug("stored %s via %s -> %s", dataset.Name, writer.Label(), st.Label())
		return nil
	}
	return &domain.NoSatisfyingTransformerError{Dataset: dataset.Name, Target: opts.Type, Attempted: attempted}
}

func (s *DataService) selectWriter(dataset *domain.Dataset, value any, opts driving.StoreOptions) (*domain.Transformer, driven.WriterDriver, []domain.Attempt, error) {
	drivers := s.rt.DriverRegistry()
	if opts.Writer != nil {
		wdrv, err := drivers.Writer(opts.Writer.Driver)
		if err != nil {
			return nil, nil, nil, err
		}
		return opts.Writer, wdrv, nil, nil
	}

	var attempted []domain.Attempt
	var unknown []error
	for _, w := range byPriority(dataset.Writers()) {
		wdrv, err := drivers.Writer(w.Driver)
		if err != nil {
			unknown = append(unknown, err)
			continue
		}
		attempted = append(attempted, domain.Attempt{Transformer: w.Label()})
		if s.admits(effective(w.Types, wdrv.ValueTypes()), value, opts.Type) {
			return w, wdrv, attempted, nil
		}
	}
	if len(unknown) > 0 {
		notFound := &domain.NoSatisfyingTransformerError{Dataset: dataset.Name, Target: opts.Type, Attempted: attempted}
		return nil, nil, nil, errors.Join(append([]error{notFound}, unknown...)...)
	}
	return nil, nil, attempted, nil
}

// admits reports whether a writer accepting types takes value. An explicit
// hint is compared by tag; otherwise the value's Go type is checked.
func (s *DataService) admits(types []domain.TypeTag, value any, hint domain.TypeTag) bool {
	if len(types) == 0 {
		return true
	}
	reg := s.rt.Types()
	for _, t := range types {
		if !hint.IsZero() {
			if reg.Satisfies(hint, t) {
				return true
			}
			continue
		}
		if reg.Accepts(value, t) {
			return true
		}
	}
	return false
}

func (s *DataService) write(ctx context.Context, chain *advice.Chain, w *domain.Transformer, handle, value any) error {
	_, err := chain.Invoke(ctx, advice.Call{
		Site: advice.SiteWrite,
		Args: []any{w, handle, value},
		Action: func(ctx context.Context, args []any, _ map[string]any) (any, error) {
			if len(args) < 3 {
				return nil, fmt.Errorf("%w: write wants (writer, handle, value)", domain.ErrInvalidInput)
			}
			w, ok := args[0].(*domain.Transformer)
			if !ok || w == nil {
				return nil, fmt.Errorf("%w: want a writer, got %T", domain.ErrInvalidInput, args[0])
			}
			drv, err := s.rt.DriverRegistry().Writer(w.Driver)
			if err != nil {
				return nil, err
			}
			return nil, drv.Write(ctx, w, args[1], args[2])
		},
	})
	return err
}
