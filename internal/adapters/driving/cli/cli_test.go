package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/datacat/internal/adapters/driven/spec"
	"github.com/custodia-labs/datacat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/services"
	"github.com/custodia-labs/datacat/internal/drivers"
	"github.com/custodia-labs/datacat/internal/extensions"
)

const exampleCatalog = `data_config_version = 0
name = "examples"
uuid = "cat-examples"
plugins = ["log", "metrics"]

[[greeting]]
uuid = "ds-greeting"
description = "A friendly line"

  [[greeting.storage]]
  driver = "filesystem"
  path = "greeting.txt"

  [[greeting.loader]]
  driver = "text"

  [[greeting.writer]]
  driver = "text"

[[settings]]
uuid = "ds-settings"

  [[settings.storage]]
  driver = "filesystem"
  path = "settings.json"

  [[settings.loader]]
  driver = "json"

  [[settings.writer]]
  driver = "json"
`

// testEnv is a fully wired set of services over an in-memory stack store.
type testEnv struct {
	dir     string
	catalog string
	stack   *services.StackService
	config  *memory.ConfigStore
}

func setupTestServices(t *testing.T) *testEnv {
	t.Helper()

	types := domain.NewTypeRegistry()
	drivers.BindTypes(types)
	registry := services.NewDrivers()
	rt := services.NewRuntime(types, registry)
	drivers.RegisterPackages(rt)
	drivers.RegisterDefaults(registry, rt)

	set := extensions.NewSet(extensions.Options{})
	require.NoError(t, set.Register(rt))

	stack := services.NewStackService(rt, memory.NewStackStore(), spec.DefaultCodecs()...)
	config := memory.NewConfigStore()
	SetServices(Services{
		Stack:    stack,
		Data:     services.NewDataService(rt, stack),
		Registry: rt,
		Settings: services.NewSettingsService(config),
		Metrics:  set.Metrics.Handler(),
	})

	dir := t.TempDir()
	path := filepath.Join(dir, "Data.toml")
	require.NoError(t, os.WriteFile(path, []byte(exampleCatalog), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greeting.txt"), []byte("hello\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte(`{"mode":"fast"}`), 0o644))

	t.Cleanup(func() {
		SetServices(Services{})
		_ = rt.Close()
	})
	return &testEnv{dir: dir, catalog: path, stack: stack, config: config}
}

// run executes the root command with args and returns its combined output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runWithInput(t, "", args...)
}

func runWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	resetFlags(rootCmd)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
