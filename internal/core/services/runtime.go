package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/datacat/internal/core/advice"
	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
	"github.com/custodia-labs/datacat/internal/core/ports/driving"
	"github.com/custodia-labs/datacat/internal/logger"
)

// Ensure Runtime implements the interfaces.
var (
	_ driven.PackageTable     = (*Runtime)(nil)
	_ driving.RegistryService = (*Runtime)(nil)
)

// Runtime is the process-wide state shared by every service: the catalog
// stack, registered extensions and their amalgamated advice, the package
// table and the reserved key table.
//
// Mutations serialise on one mutex and publish immutable snapshots, so
// readers (resolution, lookups) never take a lock.
type Runtime struct {
	types   *domain.TypeRegistry
	drivers *Drivers

	mu         sync.Mutex
	stack      atomic.Pointer[[]*domain.Catalog]
	extensions atomic.Pointer[extensionTable]
	packages   atomic.Pointer[map[string]any]
	reserved   atomic.Pointer[map[string]bool]
	defaults   atomic.Pointer[[]string]

	chains sync.Map // plugin set key -> *cachedChain
	closed atomic.Bool
}

type extensionTable struct {
	generation uint64
	order      []string
	hooks      map[string][]advice.Hook
}

type cachedChain struct {
	generation uint64
	chain      *advice.Chain
}

// NewRuntime creates a runtime over a type registry and driver registry.
func NewRuntime(types *domain.TypeRegistry, drivers *Drivers) *Runtime {
	if types == nil {
		types = domain.NewTypeRegistry()
	}
	if drivers == nil {
		drivers = NewDrivers()
	}
	r := &Runtime{types: types, drivers: drivers}

	empty := []*domain.Catalog{}
	r.stack.Store(&empty)
	r.extensions.Store(&extensionTable{hooks: map[string][]advice.Hook{}})
	pkgs := map[string]any{}
	r.packages.Store(&pkgs)
	reserved := map[string]bool{}
	for _, k := range domain.ReservedKeys() {
		reserved[k] = true
	}
	r.reserved.Store(&reserved)
	r.defaults.Store(&[]string{})
	return r
}

// Types returns the type registry.
func (r *Runtime) Types() *domain.TypeRegistry { return r.types }

// DriverRegistry returns the driver registry.
func (r *Runtime) DriverRegistry() *Drivers { return r.drivers }

// Close tears the runtime down. The stack is emptied and cached chains are
// dropped; closing twice is a no-op.
func (r *Runtime) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	empty := []*domain.Catalog{}
	r.stack.Store(&empty)
	r.chains.Clear()
	return nil
}

// SetDefaultPlugins sets the extensions applied to every catalog in
// addition to its own plugin list.
func (r *Runtime) SetDefaultPlugins(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	names = slices.Clone(names)
	r.defaults.Store(&names)
	r.chains.Clear()
}

// RegisterExtension makes an extension available to catalogs that list it.
// Registering a name again replaces the previous hooks.
func (r *Runtime) RegisterExtension(ext driven.Extension) error {
	name := ext.Name()
	if name == "" {
		return fmt.Errorf("%w: extension needs a name", domain.ErrInvalidInput)
	}
	hooks := ext.Hooks()
	attributed := make([]advice.Hook, len(hooks))
	for i, h := range hooks {
		attributed[i] = h.WithSource(name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.extensions.Load()
	next := &extensionTable{
		generation: cur.generation + 1,
		order:      slices.Clone(cur.order),
		hooks:      make(map[string][]advice.Hook, len(cur.hooks)+1),
	}
	for k, v := range cur.hooks {
		next.hooks[k] = v
	}
	if _, exists := next.hooks[name]; !exists {
		next.order = append(next.order, name)
	}
	next.hooks[name] = attributed
	r.extensions.Store(next)
	r.chains.Clear()

	logger.Debug("registered extension %s (%d hooks)", name, len(attributed))
	return nil
}

// Plugins lists registered extensions in registration order.
func (r *Runtime) Plugins() []driving.PluginInfo {
	table := r.extensions.Load()
	out := make([]driving.PluginInfo, 0, len(table.order))
	for _, name := range table.order {
		out = append(out, driving.PluginInfo{Name: name, Hooks: len(table.hooks[name])})
	}
	return out
}

// Drivers lists registered drivers.
func (r *Runtime) Drivers() []driving.DriverInfo {
	return r.drivers.List()
}

// pluginSet is the ordered, de-duplicated extension list for a catalog:
// the runtime defaults followed by the catalog's own plugins.
func (r *Runtime) pluginSet(plugins []string) []string {
	defaults := *r.defaults.Load()
	set := make([]string, 0, len(defaults)+len(plugins))
	for _, p := range slices.Concat(defaults, plugins) {
		if !slices.Contains(set, p) {
			set = append(set, p)
		}
	}
	return set
}

// chainFor returns the amalgamated advice for a plugin list. Chains are
// cached per plugin set and rebuilt when the extension table changes.
func (r *Runtime) chainFor(plugins []string) *advice.Chain {
	table := r.extensions.Load()
	set := r.pluginSet(plugins)
	key := strings.Join(set, "\x00")

	if v, ok := r.chains.Load(key); ok {
		cached := v.(*cachedChain)
		if cached.generation == table.generation {
			return cached.chain
		}
	}

	var hooks []advice.Hook
	for _, name := range set {
		h, ok := table.hooks[name]
		if !ok {
			logger.Warn("plugin %q is not registered; skipping", name)
			continue
		}
		hooks = append(hooks, h...)
	}
	chain := advice.Amalgamate(hooks...)
	r.chains.Store(key, &cachedChain{generation: table.generation, chain: chain})
	return chain
}

// ChainFor returns the advice applying to a catalog. A nil catalog gets
// only the default plugins.
func (r *Runtime) ChainFor(cat *domain.Catalog) *advice.Chain {
	if cat == nil {
		return r.chainFor(nil)
	}
	return r.chainFor(cat.Plugins)
}

// invoke runs an advised call with the catalog's chain.
func (r *Runtime) invoke(ctx context.Context, cat *domain.Catalog, call advice.Call) (any, error) {
	return r.ChainFor(cat).Invoke(ctx, call)
}

// AddPackage registers value under owner/name.
func (r *Runtime) AddPackage(owner, name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := *r.packages.Load()
	next := make(map[string]any, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	next[packageKey(owner, name)] = value
	r.packages.Store(&next)
}

// UsePackage returns the value registered under owner/name.
func (r *Runtime) UsePackage(owner, name string) (any, error) {
	v, ok := (*r.packages.Load())[packageKey(owner, name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrPackageUnregistered, owner, name)
	}
	return v, nil
}

func packageKey(owner, name string) string {
	return owner + "/" + name
}

// ReserveKey adds a top-level catalog key that datasets may not be named after.
func (r *Runtime) ReserveKey(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := *r.reserved.Load()
	next := make(map[string]bool, len(cur)+1)
	for k := range cur {
		next[k] = true
	}
	next[key] = true
	r.reserved.Store(&next)
}

// IsReserved reports whether key is a reserved top-level catalog key.
func (r *Runtime) IsReserved(key string) bool {
	return (*r.reserved.Load())[key]
}

// Catalogs returns the stack, top first.
func (r *Runtime) Catalogs() []*domain.Catalog {
	return slices.Clone(*r.stack.Load())
}

// mutateStack applies fn to a copy of the stack and publishes the result.
// fn runs with the writer lock held.
func (r *Runtime) mutateStack(fn func(stack []*domain.Catalog) ([]*domain.Catalog, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, err := fn(slices.Clone(*r.stack.Load()))
	if err != nil {
		return err
	}
	r.stack.Store(&next)
	return nil
}
