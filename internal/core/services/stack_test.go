package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/datacat/internal/adapters/driven/spec"
	"github.com/custodia-labs/datacat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/datacat/internal/core/domain"
)

// writeCatalog writes a TOML catalog with one "iris" dataset per value.
func writeCatalog(t *testing.T, dir, name, uuid string, values ...string) string {
	t.Helper()
	body := fmt.Sprintf("data_config_version = 0\nname = %q\nuuid = %q\n", name, uuid)
	for i, v := range values {
		body += fmt.Sprintf("\n[[iris]]\nuuid = \"%s-iris-%d\"\nversion = %d\n\n  [[iris.storage]]\n  driver = \"mem\"\n  value = %q\n\n  [[iris.loader]]\n  driver = \"upper\"\n", uuid, i, i+1, v)
	}
	path := filepath.Join(dir, "Data.toml")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newTestStack(t *testing.T) (*StackService, *Runtime, *memory.StackStore) {
	t.Helper()
	rt, _ := newTestRuntime(t)
	store := memory.NewStackStore()
	return NewStackService(rt, store, spec.DefaultCodecs()...), rt, store
}

func names(cats []*domain.Catalog) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = c.Name
	}
	return out
}

func pushNamed(t *testing.T, s *StackService, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, s.Push(context.Background(), domain.NewCatalog(n, "uuid-"+n)))
	}
}

func TestStackService_Load(t *testing.T) {
	s, _, store := newTestStack(t)
	ctx := context.Background()
	root := t.TempDir()

	a, err := s.Load(ctx, writeCatalog(t, filepath.Join(root, "a"), "a", "u-a", "one"))
	require.NoError(t, err)
	assert.Equal(t, "a", a.Name)
	_, err = s.Load(ctx, writeCatalog(t, filepath.Join(root, "b"), "b", "u-b", "two"))
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a"}, names(s.Catalogs()))

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "u-b", entries[0].UUID)
	assert.Equal(t, 0, entries[0].Position)
	assert.Equal(t, filepath.Join(root, "a", "Data.toml"), entries[1].Path)
}

func TestStackService_Load_Errors(t *testing.T) {
	s, _, _ := newTestStack(t)
	ctx := context.Background()
	dir := t.TempDir()

	_, err := s.Load(ctx, filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(bad, []byte("{}"), 0o644))
	_, err = s.Load(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	broken := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(broken, []byte("name = "), 0o644))
	_, err = s.Load(ctx, broken)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Empty(t, s.Catalogs())
}

func TestStackService_Load_YAML(t *testing.T) {
	s, _, _ := newTestStack(t)
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := "data_config_version: 0\nname: y\niris:\n  storage:\n    driver: mem\n    value: hi\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cat, err := s.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "y", cat.Name)
	assert.Len(t, cat.Datasets(), 1)
}

func TestStackService_PushSameUUIDReplaces(t *testing.T) {
	s, _, _ := newTestStack(t)
	ctx := context.Background()
	pushNamed(t, s, "a", "b")

	again := domain.NewCatalog("a2", "uuid-a")
	require.NoError(t, s.Push(ctx, again))
	assert.Equal(t, []string{"a2", "b"}, names(s.Catalogs()))

	assert.ErrorIs(t, s.Push(ctx, nil), domain.ErrInvalidInput)
}

func TestStackService_PushedCatalogHonoursReservedKeys(t *testing.T) {
	s, rt, _ := newTestStack(t)
	rt.ReserveKey("meta")
	cat := domain.NewCatalog("a", "uuid-a")
	require.NoError(t, s.Push(context.Background(), cat))

	assert.ErrorIs(t, cat.AddDataset(domain.NewDataset("meta", "d-1")), domain.ErrReservedName)
}

func TestStackService_Pop(t *testing.T) {
	s, _, _ := newTestStack(t)
	ctx := context.Background()

	_, err := s.Pop(ctx)
	assert.ErrorIs(t, err, domain.ErrEmptyStack)

	pushNamed(t, s, "a", "b")
	top, err := s.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", top.Name)
	assert.Equal(t, []string{"a"}, names(s.Catalogs()))
}

// Promote moves a catalog straight to the top rather than one step up, and
// Demote swaps one step down rather than sending the catalog to the bottom.

func TestStackService_Promote(t *testing.T) {
	s, _, _ := newTestStack(t)
	ctx := context.Background()
	pushNamed(t, s, "c", "b", "a")
	require.Equal(t, []string{"a", "b", "c"}, names(s.Catalogs()))

	// c jumps over both a and b.
	require.NoError(t, s.Promote(ctx, "c"))
	assert.Equal(t, []string{"c", "a", "b"}, names(s.Catalogs()))

	require.NoError(t, s.Promote(ctx, "c"))
	assert.Equal(t, []string{"c", "a", "b"}, names(s.Catalogs()))

	assert.ErrorIs(t, s.Promote(ctx, "zzz"), domain.ErrNotFound)
}

func TestStackService_Demote(t *testing.T) {
	s, _, _ := newTestStack(t)
	ctx := context.Background()
	pushNamed(t, s, "c", "b", "a")

	// a ends up above c, not at the bottom.
	require.NoError(t, s.Demote(ctx, "a"))
	assert.Equal(t, []string{"b", "a", "c"}, names(s.Catalogs()))

	require.NoError(t, s.Demote(ctx, "uuid-c"))
	assert.Equal(t, []string{"b", "a", "c"}, names(s.Catalogs()))
}

func TestStackService_EmptyStackErrors(t *testing.T) {
	s, _, _ := newTestStack(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.Promote(ctx, "a"), domain.ErrEmptyStack)
	assert.ErrorIs(t, s.Demote(ctx, "a"), domain.ErrEmptyStack)
	assert.ErrorIs(t, s.Remove(ctx, "a"), domain.ErrEmptyStack)
	_, err := s.Catalog("a")
	assert.ErrorIs(t, err, domain.ErrEmptyStack)
}

func TestStackService_RemoveAndReplace(t *testing.T) {
	s, _, _ := newTestStack(t)
	ctx := context.Background()
	pushNamed(t, s, "b", "a")

	require.NoError(t, s.Replace(ctx, domain.NewCatalog("b2", "uuid-b")))
	assert.Equal(t, []string{"a", "b2"}, names(s.Catalogs()))
	assert.ErrorIs(t, s.Replace(ctx, domain.NewCatalog("x", "uuid-x")), domain.ErrNotFound)

	require.NoError(t, s.Remove(ctx, "a"))
	assert.Equal(t, []string{"b2"}, names(s.Catalogs()))

	cat, err := s.Catalog("uuid-b")
	require.NoError(t, err)
	assert.Equal(t, "b2", cat.Name)
}

func TestStackService_Find(t *testing.T) {
	s, _, _ := newTestStack(t)
	ctx := context.Background()
	root := t.TempDir()

	_, err := s.Load(ctx, writeCatalog(t, filepath.Join(root, "low"), "low", "u-low", "low"))
	require.NoError(t, err)
	_, err = s.Load(ctx, writeCatalog(t, filepath.Join(root, "high"), "high", "u-high", "high"))
	require.NoError(t, err)

	ds, err := s.Find(ctx, domain.Identifier{Dataset: "iris"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "high", ds.Catalog().Name)

	ds, err = s.Find(ctx, domain.Identifier{Catalog: "low", Dataset: "iris"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "low", ds.Catalog().Name)

	ds, err = s.Find(ctx, domain.Identifier{Dataset: "u-low-iris-0"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "low", ds.Catalog().Name)

	_, err = s.Find(ctx, domain.Identifier{Dataset: "nope"}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.Find(ctx, domain.Identifier{Catalog: "nope", Dataset: "iris"}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStackService_Find_FollowsStackOrder(t *testing.T) {
	s, _, _ := newTestStack(t)
	ctx := context.Background()
	root := t.TempDir()
	iris := domain.Identifier{Dataset: "iris"}

	_, err := s.Load(ctx, writeCatalog(t, filepath.Join(root, "c"), "c", "u-c", "from-c"))
	require.NoError(t, err)
	ds, err := s.Find(ctx, iris, nil)
	require.NoError(t, err)
	assert.Equal(t, "u-c-iris-0", ds.UUID)

	_, err = s.Load(ctx, writeCatalog(t, filepath.Join(root, "c2"), "c2", "u-c2", "from-c2"))
	require.NoError(t, err)
	ds, err = s.Find(ctx, iris, nil)
	require.NoError(t, err)
	assert.Equal(t, "u-c2-iris-0", ds.UUID)

	require.NoError(t, s.Demote(ctx, "c2"))
	ds, err = s.Find(ctx, iris, nil)
	require.NoError(t, err)
	assert.Equal(t, "u-c-iris-0", ds.UUID)
}

func TestStackService_Find_Ambiguous(t *testing.T) {
	s, _, _ := newTestStack(t)
	ctx := context.Background()
	_, err := s.Load(ctx, writeCatalog(t, t.TempDir(), "multi", "u-m", "first", "second"))
	require.NoError(t, err)

	_, err = s.Find(ctx, domain.Identifier{Dataset: "iris"}, nil)
	require.ErrorIs(t, err, domain.ErrAmbiguousIdentifier)
	var amb *domain.AmbiguousIdentifierError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, []string{"u-m-iris-0", "u-m-iris-1"}, amb.Matches)

	ds, err := s.Find(ctx, domain.Identifier{Dataset: "iris"}, map[string]any{"version": int64(2)})
	require.NoError(t, err)
	assert.Equal(t, "u-m-iris-1", ds.UUID)

	ds, err = s.Find(ctx, domain.Identifier{Dataset: "iris"}, map[string]any{"uuid": "u-m-iris-0"})
	require.NoError(t, err)
	assert.Equal(t, "u-m-iris-0", ds.UUID)
}

func TestStackService_Find_ShadowingSkipsEmptyMatch(t *testing.T) {
	s, _, _ := newTestStack(t)
	ctx := context.Background()
	root := t.TempDir()

	_, err := s.Load(ctx, writeCatalog(t, filepath.Join(root, "low"), "low", "u-low", "a", "b"))
	require.NoError(t, err)
	_, err = s.Load(ctx, writeCatalog(t, filepath.Join(root, "high"), "high", "u-high", "c"))
	require.NoError(t, err)

	ds, err := s.Find(ctx, domain.Identifier{Dataset: "iris"}, map[string]any{"version": int64(2)})
	require.NoError(t, err)
	assert.Equal(t, "u-low-iris-1", ds.UUID)
}

func TestStackService_Reload(t *testing.T) {
	s, _, _ := newTestStack(t)
	ctx := context.Background()
	root := t.TempDir()

	path := writeCatalog(t, filepath.Join(root, "a"), "a", "u-a", "one")
	_, err := s.Load(ctx, path)
	require.NoError(t, err)
	pushNamed(t, s, "top")

	writeCatalog(t, filepath.Join(root, "a"), "a-renamed", "u-a", "one", "two")
	require.NoError(t, s.Reload(ctx, path))

	cats := s.Catalogs()
	assert.Equal(t, []string{"top", "a-renamed"}, names(cats))
	assert.Len(t, cats[1].Datasets(), 2)

	other := writeCatalog(t, filepath.Join(root, "b"), "b", "u-b", "x")
	assert.ErrorIs(t, s.Reload(ctx, other), domain.ErrNotFound)
}

func TestStackService_Save(t *testing.T) {
	s, _, _ := newTestStack(t)
	ctx := context.Background()

	path := writeCatalog(t, t.TempDir(), "a", "u-a", "one")
	cat, err := s.Load(ctx, path)
	require.NoError(t, err)
	cat.Datasets()[0].Properties["description"] = "updated"

	require.NoError(t, s.Save(ctx, cat))

	reloaded, err := s.readCatalog(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "u-a", reloaded.UUID)
	assert.Equal(t, "updated", reloaded.Datasets()[0].Properties["description"])
	assert.Equal(t, "one", reloaded.Datasets()[0].Storages()[0].StringParam("value"))

	assert.ErrorIs(t, s.Save(ctx, domain.NewCatalog("mem", "u-mem")), domain.ErrInvalidInput)
}

func TestStackService_Restore(t *testing.T) {
	s, _, store := newTestStack(t)
	ctx := context.Background()
	root := t.TempDir()

	_, err := s.Load(ctx, writeCatalog(t, filepath.Join(root, "a"), "a", "u-a", "one"))
	require.NoError(t, err)
	gone := writeCatalog(t, filepath.Join(root, "gone"), "gone", "u-gone", "x")
	_, err = s.Load(ctx, gone)
	require.NoError(t, err)
	_, err = s.Load(ctx, writeCatalog(t, filepath.Join(root, "b"), "b", "u-b", "two"))
	require.NoError(t, err)
	require.NoError(t, os.Remove(gone))

	rt2, _ := newTestRuntime(t)
	restored := NewStackService(rt2, store, spec.DefaultCodecs()...)
	require.NoError(t, restored.Restore(ctx))
	assert.Equal(t, []string{"b", "a"}, names(restored.Catalogs()))
}

func TestStackService_RestoreWithoutStore(t *testing.T) {
	rt, _ := newTestRuntime(t)
	s := NewStackService(rt, nil)
	assert.NoError(t, s.Restore(context.Background()))
	assert.Empty(t, s.Catalogs())
}

// recordingStackStore keeps every saved stack.
type recordingStackStore struct {
	mu    sync.Mutex
	saves [][]domain.StackEntry
	err   error
}

func (r *recordingStackStore) Save(_ context.Context, entries []domain.StackEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saves = append(r.saves, entries)
	return nil
}

func (r *recordingStackStore) Load(context.Context) ([]domain.StackEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saves) == 0 {
		return nil, nil
	}
	return r.saves[len(r.saves)-1], nil
}

func (r *recordingStackStore) Close() error { return nil }

func fileCatalog(name string) *domain.Catalog {
	cat := domain.NewCatalog(name, "uuid-"+name)
	cat.Path = "/catalogs/" + name + "/Data.toml"
	return cat
}

func TestStackService_ConcurrentMutationsSaveFinalOrder(t *testing.T) {
	rt, _ := newTestRuntime(t)
	store := &recordingStackStore{}
	s := NewStackService(rt, store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
		wg.Add(1)
		go func(cat *domain.Catalog) {
			defer wg.Done()
			assert.NoError(t, s.Push(ctx, cat))
			assert.NoError(t, s.Promote(ctx, cat.Name))
		}(fileCatalog(n))
	}
	wg.Wait()

	saved, err := store.Load(ctx)
	require.NoError(t, err)
	final := s.Catalogs()
	require.Len(t, saved, len(final))
	for i, c := range final {
		assert.Equal(t, c.UUID, saved[i].UUID)
		assert.Equal(t, i, saved[i].Position)
	}
	assert.Len(t, store.saves, 12)
}

func TestStackService_FailedSaveLeavesStackUnchanged(t *testing.T) {
	rt, _ := newTestRuntime(t)
	store := &recordingStackStore{}
	s := NewStackService(rt, store)
	ctx := context.Background()

	require.NoError(t, s.Push(ctx, fileCatalog("a")))
	store.err = errors.New("disk full")

	err := s.Push(ctx, fileCatalog("b"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save stack")
	assert.Equal(t, []string{"a"}, names(s.Catalogs()))
}

func TestStackService_AddDataset(t *testing.T) {
	s, _, _ := newTestStack(t)
	ctx := context.Background()

	_, err := s.AddDataset(ctx, "", "iris", nil)
	assert.ErrorIs(t, err, domain.ErrEmptyStack)

	path := writeCatalog(t, t.TempDir(), "a", "u-a", "one")
	_, err = s.Load(ctx, path)
	require.NoError(t, err)
	pushNamed(t, s, "top")

	ds, err := s.AddDataset(ctx, "a", "petals", map[string]any{
		"description": "added later",
		"storage":     map[string]any{"driver": "mem", "value": "p"},
		"loader":      []any{map[string]any{"driver": "upper"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "a", ds.Catalog().Name)

	reloaded, err := s.readCatalog(ctx, path)
	require.NoError(t, err)
	got := reloaded.DatasetsNamed("petals")
	require.Len(t, got, 1)
	assert.Equal(t, "added later", got[0].Properties["description"])
	assert.Equal(t, "upper", got[0].Loaders()[0].Driver)

	top, err := s.AddDataset(ctx, "", "scratch", nil)
	require.NoError(t, err)
	assert.Equal(t, "top", top.Catalog().Name)

	_, err = s.AddDataset(ctx, "a", domain.KeyConfig, nil)
	assert.ErrorIs(t, err, domain.ErrReservedName)
}

func TestStackService_AddDataset_FailedSaveRollsBack(t *testing.T) {
	s, _, _ := newTestStack(t)
	ctx := context.Background()
	cat := domain.NewCatalog("a", "u-a")
	cat.Path = filepath.Join(t.TempDir(), "missing-dir", "Data.toml")
	require.NoError(t, s.Push(ctx, cat))

	_, err := s.AddDataset(ctx, "a", "iris", nil)
	require.Error(t, err)
	assert.Empty(t, cat.Datasets())
}

func TestStackService_RemoveDatasetAndTransformer(t *testing.T) {
	s, _, _ := newTestStack(t)
	ctx := context.Background()
	path := writeCatalog(t, t.TempDir(), "a", "u-a", "one", "two")
	cat, err := s.Load(ctx, path)
	require.NoError(t, err)

	first := cat.Datasets()[0]
	require.NoError(t, s.RemoveDataset(ctx, first))
	assert.ErrorIs(t, s.RemoveDataset(ctx, first), domain.ErrNotFound)
	assert.ErrorIs(t, s.RemoveDataset(ctx, nil), domain.ErrInvalidInput)

	second := cat.Datasets()[0]
	loader := second.Loaders()[0]
	require.NoError(t, s.RemoveTransformer(ctx, loader))
	assert.ErrorIs(t, s.RemoveTransformer(ctx, loader), domain.ErrNotFound)

	reloaded, err := s.readCatalog(ctx, path)
	require.NoError(t, err)
	require.Len(t, reloaded.Datasets(), 1)
	assert.Equal(t, "u-a-iris-1", reloaded.Datasets()[0].UUID)
	assert.Empty(t, reloaded.Datasets()[0].Loaders())
	assert.Len(t, reloaded.Datasets()[0].Storages(), 1)
}
