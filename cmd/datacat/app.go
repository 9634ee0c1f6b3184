package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/datacat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/datacat/internal/adapters/driven/spec"
	"github.com/custodia-labs/datacat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/datacat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/datacat/internal/adapters/driving/cli"
	"github.com/custodia-labs/datacat/internal/adapters/driving/watch"
	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
	"github.com/custodia-labs/datacat/internal/core/services"
	"github.com/custodia-labs/datacat/internal/drivers"
	"github.com/custodia-labs/datacat/internal/extensions"
	"github.com/custodia-labs/datacat/internal/logger"
)

// app owns everything built at startup.
type app struct {
	settings   *services.SettingsService
	runtime    *services.Runtime
	stack      *services.StackService
	data       *services.DataService
	plugins    *extensions.Set
	stackStore driven.StackStore
	watcher    *watch.Watcher
	stopWatch  context.CancelFunc
}

// newApp reads configuration from configDir (default ~/.datacat), wires the
// runtime and restores the persisted catalog stack.
func newApp(ctx context.Context, configDir string) (*app, error) {
	cfg, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, err
	}
	return newAppWithConfig(ctx, cfg)
}

func newAppWithConfig(ctx context.Context, cfg driven.ConfigStore) (*app, error) {
	a := &app{settings: services.NewSettingsService(cfg)}
	settings, err := a.settings.Get()
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	if err := configureLogging(settings.Log); err != nil {
		return nil, err
	}

	types := domain.NewTypeRegistry()
	drivers.BindTypes(types)
	registry := services.NewDrivers()
	a.runtime = services.NewRuntime(types, registry)
	drivers.RegisterPackages(a.runtime)
	drivers.RegisterDefaults(registry, a.runtime)

	a.plugins = extensions.NewSet(extensions.Options{
		ThrottleRate:  settings.Throttle.Rate,
		ThrottleBurst: settings.Throttle.Burst,
		Deadline:      settings.Deadline.Timeout,
	})
	if err := a.plugins.Register(a.runtime); err != nil {
		return nil, fmt.Errorf("register plugins: %w", err)
	}
	a.runtime.SetDefaultPlugins(settings.Plugins.Default)

	switch settings.Store.Backend {
	case domain.StoreMemory:
		a.stackStore = memory.NewStackStore()
	default:
		store, err := sqlite.NewStore(settings.Store.Dir)
		if err != nil {
			return nil, fmt.Errorf("open stack store: %w", err)
		}
		a.stackStore = store
	}

	a.stack = services.NewStackService(a.runtime, a.stackStore, spec.DefaultCodecs()...)
	a.data = services.NewDataService(a.runtime, a.stack)
	if err := a.stack.Restore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	if settings.Watch {
		if err := a.startWatching(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func configureLogging(s domain.LogSettings) error {
	if err := logger.SetLevel(s.Level); err != nil {
		return err
	}
	logger.SetJSON(s.JSON)
	if s.Level == "debug" {
		logger.SetVerbose(true)
	}
	return nil
}

// startWatching reloads restored catalogs in the background while the
// process runs.
func (a *app) startWatching(ctx context.Context) error {
	w, err := watch.New(a.stack)
	if err != nil {
		return err
	}
	for _, cat := range a.stack.Catalogs() {
		if cat.Path == "" {
			continue
		}
		if err := w.Add(cat.Path); err != nil {
			_ = w.Close()
			return err
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	a.watcher = w
	a.stopWatch = cancel
	go func() { _ = w.Run(ctx) }()
	return nil
}

func (a *app) services() cli.Services {
	return cli.Services{
		Stack:    a.stack,
		Data:     a.data,
		Registry: a.runtime,
		Settings: a.settings,
		Metrics:  a.plugins.Metrics.Handler(),
	}
}

// Close releases the watcher, the runtime and the stack store.
func (a *app) Close() error {
	var errs []error
	if a.stopWatch != nil {
		a.stopWatch()
		errs = append(errs, a.watcher.Close())
	}
	if a.runtime != nil {
		errs = append(errs, a.runtime.Close())
	}
	if a.stackStore != nil {
		errs = append(errs, a.stackStore.Close())
	}
	return errors.Join(errs...)
}
