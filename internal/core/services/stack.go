package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
	"github.com/custodia-labs/datacat/internal/core/ports/driving"
	"github.com/custodia-labs/datacat/internal/logger"
)

// Ensure StackService implements the interface.
var _ driving.StackService = (*StackService)(nil)

// StackService manages the catalog stack held by a Runtime.
type StackService struct {
	rt     *Runtime
	store  driven.StackStore
	codecs map[string]driven.SpecCodec
}

// NewStackService creates a stack service. store may be nil, in which case
// the stack is not persisted.
func NewStackService(rt *Runtime, store driven.StackStore, codecs ...driven.SpecCodec) *StackService {
	s := &StackService{
		rt:     rt,
		store:  store,
		codecs: make(map[string]driven.SpecCodec),
	}
	for _, c := range codecs {
		for _, ext := range c.Extensions() {
			s.codecs[strings.ToLower(ext)] = c
		}
	}
	return s
}

func (s *StackService) codecFor(path string) (driven.SpecCodec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	c, ok := s.codecs[ext]
	if !ok {
		return nil, fmt.Errorf("%w: no catalog codec for %q files", domain.ErrInvalidInput, ext)
	}
	return c, nil
}

// readCatalog decodes and builds the catalog at path without touching the stack.
func (s *StackService) readCatalog(ctx context.Context, path string) (*domain.Catalog, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	codec, err := s.codecFor(abs)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	spec, err := codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrInvalidInput, abs, err)
	}
	return s.rt.BuildCatalog(ctx, spec, abs)
}

// Load reads a catalog file and pushes it on top of the stack.
func (s *StackService) Load(ctx context.Context, path string) (*domain.Catalog, error) {
	logger.Section("Load Catalog")
	cat, err := s.readCatalog(ctx, path)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded catalog %q (%s) with %d datasets", cat.Name, cat.UUID, len(cat.Datasets()))
	if err := s.Push(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

// Push puts catalog on top. A catalog with the same UUID is taken off first.
func (s *StackService) Push(ctx context.Context, catalog *domain.Catalog) error {
	if catalog == nil {
		return domain.ErrInvalidInput
	}
	catalog.SetReservedCheck(s.rt.IsReserved)
	return s.mutate(ctx, func(stack []*domain.Catalog) ([]*domain.Catalog, error) {
		stack = slices.DeleteFunc(stack, func(c *domain.Catalog) bool { return c.UUID == catalog.UUID })
		return slices.Insert(stack, 0, catalog), nil
	})
}

// Pop removes and returns the top catalog.
func (s *StackService) Pop(ctx context.Context) (*domain.Catalog, error) {
	var popped *domain.Catalog
	err := s.mutate(ctx, func(stack []*domain.Catalog) ([]*domain.Catalog, error) {
		if len(stack) == 0 {
			return nil, domain.ErrEmptyStack
		}
		popped = stack[0]
		return stack[1:], nil
	})
	if err != nil {
		return nil, err
	}
	return popped, nil
}

// Promote moves the referenced catalog to the top of the stack. The
// relative order of every other catalog is unchanged.
func (s *StackService) Promote(ctx context.Context, ref string) error {
	return s.mutate(ctx, func(stack []*domain.Catalog) ([]*domain.Catalog, error) {
		idx, err := indexOf(stack, ref)
		if err != nil {
			return nil, err
		}
		cat := stack[idx]
		stack = slices.Delete(stack, idx, idx+1)
		return slices.Insert(stack, 0, cat), nil
	})
}

// Demote swaps the referenced catalog with the one below it. Demoting the
// bottom catalog is a no-op.
func (s *StackService) Demote(ctx context.Context, ref string) error {
	return s.mutate(ctx, func(stack []*domain.Catalog) ([]*domain.Catalog, error) {
		idx, err := indexOf(stack, ref)
		if err != nil {
			return nil, err
		}
		if idx < len(stack)-1 {
			stack[idx], stack[idx+1] = stack[idx+1], stack[idx]
		}
		return stack, nil
	})
}

// Remove takes the referenced catalog off the stack.
func (s *StackService) Remove(ctx context.Context, ref string) error {
	return s.mutate(ctx, func(stack []*domain.Catalog) ([]*domain.Catalog, error) {
		idx, err := indexOf(stack, ref)
		if err != nil {
			return nil, err
		}
		return slices.Delete(stack, idx, idx+1), nil
	})
}

// Replace swaps the catalog with the same UUID in place.
func (s *StackService) Replace(ctx context.Context, catalog *domain.Catalog) error {
	if catalog == nil {
		return domain.ErrInvalidInput
	}
	return s.mutate(ctx, func(stack []*domain.Catalog) ([]*domain.Catalog, error) {
		idx := slices.IndexFunc(stack, func(c *domain.Catalog) bool { return c.UUID == catalog.UUID })
		if idx < 0 {
			return nil, fmt.Errorf("%w: catalog %s", domain.ErrNotFound, catalog.UUID)
		}
		stack[idx] = catalog
		return stack, nil
	})
}

// Reload re-reads the catalog file at path and swaps it in at the position
// of the catalog loaded from the same file.
func (s *StackService) Reload(ctx context.Context, path string) error {
	cat, err := s.readCatalog(ctx, path)
	if err != nil {
		return err
	}
	err = s.mutate(ctx, func(stack []*domain.Catalog) ([]*domain.Catalog, error) {
		idx := slices.IndexFunc(stack, func(c *domain.Catalog) bool { return c.Path == cat.Path })
		if idx < 0 {
			return nil, fmt.Errorf("%w: no catalog loaded from %s", domain.ErrNotFound, cat.Path)
		}
		stack[idx] = cat
		return stack, nil
	})
	if err != nil {
		return err
	}
	logger.Info("reloaded catalog %q from %s", cat.Name, cat.Path)
	return nil
}

// Catalogs returns the stack, top first.
func (s *StackService) Catalogs() []*domain.Catalog {
	return s.rt.Catalogs()
}

// Catalog returns the topmost catalog matching ref.
func (s *StackService) Catalog(ref string) (*domain.Catalog, error) {
	stack := s.rt.Catalogs()
	idx, err := indexOf(stack, ref)
	if err != nil {
		return nil, err
	}
	return stack[idx], nil
}

// Find resolves ident to a dataset. Catalogs are scanned top to bottom and
// the first catalog holding exactly one match wins. Several matches within
// one catalog after filtering by props is an error.
func (s *StackService) Find(_ context.Context, ident domain.Identifier, props map[string]any) (*domain.Dataset, error) {
	for _, cat := range s.rt.Catalogs() {
		if ident.Catalog != "" && !cat.Matches(ident.Catalog) {
			continue
		}
		var matches []*domain.Dataset
		for _, ds := range cat.DatasetsNamed(ident.Dataset) {
			if ds.Matches(props) {
				matches = append(matches, ds)
			}
		}
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			ids := make([]string, len(matches))
			for i, m := range matches {
				ids[i] = m.UUID
			}
			return nil, &domain.AmbiguousIdentifierError{
				Identifier: ident.String(),
				Catalog:    cat.Name,
				Matches:    ids,
			}
		}
	}
	return nil, fmt.Errorf("%w: dataset %s", domain.ErrNotFound, ident)
}

// Save writes catalog back to the file it was loaded from.
func (s *StackService) Save(ctx context.Context, catalog *domain.Catalog) error {
	if catalog == nil || catalog.Path == "" {
		return fmt.Errorf("%w: catalog has no file", domain.ErrInvalidInput)
	}
	codec, err := s.codecFor(catalog.Path)
	if err != nil {
		return err
	}
	spec, err := s.rt.CatalogSpec(ctx, catalog)
	if err != nil {
		return err
	}
	data, err := codec.Encode(spec)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := os.WriteFile(catalog.Path, data, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	logger.Info("saved catalog %q to %s", catalog.Name, catalog.Path)
	return nil
}

// AddDataset builds a dataset from spec, attaches it to the catalog named by
// ref (the top catalog when ref is empty) and writes the catalog back to
// its file. A catalog without a file is only changed in memory.
func (s *StackService) AddDataset(ctx context.Context, ref, name string, spec map[string]any) (*domain.Dataset, error) {
	cat, err := s.target(ref)
	if err != nil {
		return nil, err
	}
	ds, err := s.rt.BuildDataset(ctx, cat, name, spec)
	if err != nil {
		return nil, err
	}
	if err := cat.AddDataset(ds); err != nil {
		return nil, err
	}
	if err := s.writeBack(ctx, cat); err != nil {
		cat.RemoveDataset(ds)
		return nil, err
	}
	logger.Info("added dataset %q to catalog %q", ds.Name, cat.Name)
	return ds, nil
}

// RemoveDataset detaches dataset from its catalog and writes the catalog
// back to its file.
func (s *StackService) RemoveDataset(ctx context.Context, dataset *domain.Dataset) error {
	if dataset == nil {
		return domain.ErrInvalidInput
	}
	cat := dataset.Catalog()
	if cat == nil || !cat.RemoveDataset(dataset) {
		return fmt.Errorf("%w: dataset %s is not in a catalog", domain.ErrNotFound, dataset.Name)
	}
	if err := s.writeBack(ctx, cat); err != nil {
		return err
	}
	logger.Info("removed dataset %q from catalog %q", dataset.Name, cat.Name)
	return nil
}

// RemoveTransformer detaches t from its dataset and writes the owning
// catalog back to its file.
func (s *StackService) RemoveTransformer(ctx context.Context, t *domain.Transformer) error {
	if t == nil {
		return domain.ErrInvalidInput
	}
	ds := t.Dataset()
	if ds == nil {
		return fmt.Errorf("%w: transformer %s is not attached", domain.ErrNotFound, t.Driver)
	}
	label := t.Label()
	if !ds.RemoveTransformer(t) {
		return fmt.Errorf("%w: transformer %s", domain.ErrNotFound, label)
	}
	if cat := ds.Catalog(); cat != nil {
		if err := s.writeBack(ctx, cat); err != nil {
			return err
		}
	}
	logger.Info("removed %s from dataset %q", label, ds.Name)
	return nil
}

func (s *StackService) target(ref string) (*domain.Catalog, error) {
	if ref != "" {
		return s.Catalog(ref)
	}
	stack := s.rt.Catalogs()
	if len(stack) == 0 {
		return nil, domain.ErrEmptyStack
	}
	return stack[0], nil
}

func (s *StackService) writeBack(ctx context.Context, cat *domain.Catalog) error {
	if cat.Path == "" {
		return nil
	}
	return s.Save(ctx, cat)
}

// Restore loads the persisted stack. Files that no longer exist or fail to
// build are skipped with a warning.
func (s *StackService) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	entries, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load stack: %w", err)
	}

	var loaded []*domain.Catalog
	for _, e := range entries {
		cat, err := s.readCatalog(ctx, e.Path)
		if err != nil {
			logger.Warn("skipping catalog %s: %v", e.Path, err)
			continue
		}
		loaded = append(loaded, cat)
	}
	return s.rt.mutateStack(func([]*domain.Catalog) ([]*domain.Catalog, error) {
		return loaded, nil
	})
}

// mutate applies fn under the runtime's writer lock and saves the result
// before it is published, so saves land in mutation order. A failed save
// leaves the stack unchanged.
func (s *StackService) mutate(ctx context.Context, fn func(stack []*domain.Catalog) ([]*domain.Catalog, error)) error {
	return s.rt.mutateStack(func(stack []*domain.Catalog) ([]*domain.Catalog, error) {
		next, err := fn(stack)
		if err != nil {
			return nil, err
		}
		if err := s.persist(ctx, next); err != nil {
			return nil, err
		}
		return next, nil
	})
}

func (s *StackService) persist(ctx context.Context, stack []*domain.Catalog) error {
	if s.store == nil {
		return nil
	}
	var entries []domain.StackEntry
	for _, c := range stack {
		if c.Path == "" {
			continue
		}
		entries = append(entries, domain.StackEntry{
			Position: len(entries),
			Path:     c.Path,
			UUID:     c.UUID,
			Name:     c.Name,
		})
	}
	if err := s.store.Save(ctx, entries); err != nil {
		return fmt.Errorf("save stack: %w", err)
	}
	return nil
}

func indexOf(stack []*domain.Catalog, ref string) (int, error) {
	if len(stack) == 0 {
		return -1, domain.ErrEmptyStack
	}
	idx := slices.IndexFunc(stack, func(c *domain.Catalog) bool { return c.Matches(ref) })
	if idx < 0 {
		return -1, fmt.Errorf("%w: catalog %q", domain.ErrNotFound, ref)
	}
	return idx, nil
}
