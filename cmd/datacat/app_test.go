package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/datacat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/logger"
)

const catalog = `data_config_version = 0
name = "demo"
uuid = "cat-demo"

[[note]]
uuid = "ds-note"

  [[note.storage]]
  driver = "filesystem"
  path = "note.txt"

  [[note.loader]]
  driver = "text"
`

func writeDemo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.txt"), []byte("first"), 0o644))
	path := filepath.Join(dir, "Data.toml")
	require.NoError(t, os.WriteFile(path, []byte(catalog), 0o644))
	return path
}

func resetLogger(t *testing.T) {
	t.Cleanup(func() {
		logger.SetVerbose(false)
		logger.SetJSON(false)
		_ = logger.SetLevel("debug")
	})
}

func TestNewApp_MemoryBackend(t *testing.T) {
	resetLogger(t)
	cfg := memory.NewConfigStore()
	_ = cfg.Set("store.backend", "memory")
	_ = cfg.Set("plugins.default", []string{"memorise"})

	a, err := newAppWithConfig(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	svc := a.services()
	assert.NotNil(t, svc.Stack)
	assert.NotNil(t, svc.Data)
	assert.NotNil(t, svc.Registry)
	assert.NotNil(t, svc.Settings)
	assert.NotNil(t, svc.Metrics)
	assert.Len(t, a.runtime.Plugins(), 6)
	assert.NotEmpty(t, a.runtime.Drivers())

	ctx := context.Background()
	_, err = a.stack.Load(ctx, writeDemo(t))
	require.NoError(t, err)
	v, err := a.data.Read(ctx, "note", domain.TypeTag{})
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestNewApp_SQLiteRestoresStack(t *testing.T) {
	resetLogger(t)
	ctx := context.Background()
	cfg := memory.NewConfigStore()
	_ = cfg.Set("store.dir", t.TempDir())
	path := writeDemo(t)

	a, err := newAppWithConfig(ctx, cfg)
	require.NoError(t, err)
	_, err = a.stack.Load(ctx, path)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := newAppWithConfig(ctx, cfg)
	require.NoError(t, err)
	defer b.Close()

	cats := b.stack.Catalogs()
	require.Len(t, cats, 1)
	assert.Equal(t, "demo", cats[0].Name)
	assert.Equal(t, path, cats[0].Path)
}

func TestNewApp_InvalidSettings(t *testing.T) {
	resetLogger(t)
	cfg := memory.NewConfigStore()
	_ = cfg.Set("store.backend", "postgres")

	_, err := newAppWithConfig(context.Background(), cfg)

	assert.Error(t, err)
}

func TestNewApp_DebugLevelEnablesVerbose(t *testing.T) {
	resetLogger(t)
	cfg := memory.NewConfigStore()
	_ = cfg.Set("store.backend", "memory")
	_ = cfg.Set("log.level", "debug")

	a, err := newAppWithConfig(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.True(t, logger.IsVerbose())
}

func TestNewApp_WatchReloadsRestoredCatalogs(t *testing.T) {
	resetLogger(t)
	ctx := context.Background()
	cfg := memory.NewConfigStore()
	_ = cfg.Set("store.dir", t.TempDir())
	path := writeDemo(t)

	seed, err := newAppWithConfig(ctx, cfg)
	require.NoError(t, err)
	_, err = seed.stack.Load(ctx, path)
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	_ = cfg.Set("watch", true)
	a, err := newAppWithConfig(ctx, cfg)
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.watcher)
	assert.True(t, a.watcher.Watching(path))

	updated := catalog + "\n[[extra]]\nuuid = \"ds-extra\"\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	assert.Eventually(t, func() bool {
		cats := a.stack.Catalogs()
		return len(cats) == 1 && len(cats[0].Datasets()) == 2
	}, 5*time.Second, 20*time.Millisecond)
}

func TestNewApp_ConfigDir(t *testing.T) {
	resetLogger(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("schema_version: v1\nstore:\n  backend: memory\n"), 0o600))

	a, err := newApp(context.Background(), dir)
	require.NoError(t, err)
	defer a.Close()

	settings, err := a.settings.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.StoreMemory, settings.Store.Backend)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), a.settings.Path())
}
