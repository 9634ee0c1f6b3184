package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/custodia-labs/datacat/internal/core/advice"
	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/logger"
)

// Entity kinds passed as the first fromspec argument. Transformers use
// their domain.TransformerKind.
const (
	EntityCatalog = "catalog"
	EntityDataset = "dataset"
)

// Transformer spec keys.
const (
	keyDriver   = "driver"
	keyType     = "type"
	keyPriority = "priority"
)

// BuildCatalog builds a catalog from a decoded spec dictionary. Every
// entity is built through the fromspec site and then passed through the
// identity site, with the advice of the plugins the spec lists.
func (r *Runtime) BuildCatalog(ctx context.Context, spec map[string]any, path string) (*domain.Catalog, error) {
	plugins, err := stringList(spec[domain.KeyPlugins])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, domain.KeyPlugins, err)
	}
	chain := r.chainFor(plugins)
	name, _ := spec[domain.KeyName].(string)
	if name == "" && path != "" {
		name = filepath.Base(filepath.Dir(path))
	}

	built, err := r.fromSpec(ctx, chain, EntityCatalog, nil, name, spec, func(ctx context.Context, name string, spec map[string]any) (any, error) {
		return r.catalogFromSpec(ctx, chain, name, spec, path)
	})
	if err != nil {
		return nil, err
	}
	cat, ok := built.(*domain.Catalog)
	if !ok {
		return nil, fmt.Errorf("%w: fromspec produced %T, want catalog", domain.ErrInvalidInput, built)
	}
	return cat, nil
}

type buildFunc func(ctx context.Context, name string, spec map[string]any) (any, error)

// fromSpec runs build through the fromspec site, then the identity site.
func (r *Runtime) fromSpec(ctx context.Context, chain *advice.Chain, kind string, parent any, name string, spec map[string]any, build buildFunc) (any, error) {
	built, err := chain.Invoke(ctx, advice.Call{
		Site: advice.SiteFromSpec,
		Args: []any{kind, parent, name, spec},
		Action: func(ctx context.Context, args []any, _ map[string]any) (any, error) {
			n, s, err := specArgs(args)
			if err != nil {
				return nil, err
			}
			return build(ctx, n, s)
		},
	})
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, advice.Call{
		Site: advice.SiteIdentity,
		Args: []any{built},
		Action: func(_ context.Context, args []any, _ map[string]any) (any, error) {
			if len(args) == 0 {
				return nil, fmt.Errorf("%w: identity called without an entity", domain.ErrInvalidInput)
			}
			return args[0], nil
		},
	})
}

func specArgs(args []any) (string, map[string]any, error) {
	if len(args) < 4 {
		return "", nil, fmt.Errorf("%w: fromspec wants (kind, parent, name, spec)", domain.ErrInvalidInput)
	}
	name, _ := args[2].(string)
	spec, ok := args[3].(map[string]any)
	if !ok && args[3] != nil {
		return "", nil, fmt.Errorf("%w: spec is %T, want a table", domain.ErrInvalidInput, args[3])
	}
	if spec == nil {
		spec = map[string]any{}
	}
	return name, spec, nil
}

func (r *Runtime) catalogFromSpec(ctx context.Context, chain *advice.Chain, name string, spec map[string]any, path string) (*domain.Catalog, error) {
	rawVersion, ok := spec[domain.KeyVersion]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrInvalidInput, domain.KeyVersion)
	}
	version, ok := toInt(rawVersion)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, domain.KeyVersion)
	}
	if version != domain.FormatVersion {
		return nil, fmt.Errorf("%w: %d (supported: %d)", domain.ErrUnsupportedVersion, version, domain.FormatVersion)
	}

	id, _ := spec[domain.KeyUUID].(string)
	if id == "" {
		id = uuid.NewString()
	}
	cat := domain.NewCatalog(name, id)
	cat.Path = path
	cat.SetReservedCheck(r.IsReserved)
	plugins, err := stringList(spec[domain.KeyPlugins])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, domain.KeyPlugins, err)
	}
	cat.Plugins = plugins
	if cfg, ok := spec[domain.KeyConfig].(map[string]any); ok {
		cat.Config = cfg
	}

	names := make([]string, 0, len(spec))
	for key := range spec {
		if !r.IsReserved(key) {
			names = append(names, key)
		}
	}
	sort.Strings(names)

	for _, dsName := range names {
		instances, err := specList(spec[dsName])
		if err != nil {
			return nil, fmt.Errorf("%w: dataset %q: %v", domain.ErrInvalidInput, dsName, err)
		}
		for _, inst := range instances {
			ds, err := r.buildDataset(ctx, chain, cat, dsName, inst)
			if err != nil {
				return nil, err
			}
			if err := cat.AddDataset(ds); err != nil {
				return nil, err
			}
		}
	}
	return cat, nil
}

// BuildDataset builds one dataset for cat from a spec table, with the
// advice of cat's plugins. The dataset is not attached to cat.
func (r *Runtime) BuildDataset(ctx context.Context, cat *domain.Catalog, name string, spec map[string]any) (*domain.Dataset, error) {
	if cat == nil {
		return nil, fmt.Errorf("%w: dataset needs a catalog", domain.ErrInvalidInput)
	}
	return r.buildDataset(ctx, r.ChainFor(cat), cat, name, spec)
}

func (r *Runtime) buildDataset(ctx context.Context, chain *advice.Chain, cat *domain.Catalog, name string, spec map[string]any) (*domain.Dataset, error) {
	built, err := r.fromSpec(ctx, chain, EntityDataset, cat, name, spec, func(ctx context.Context, name string, spec map[string]any) (any, error) {
		return r.datasetFromSpec(ctx, chain, name, spec)
	})
	if err != nil {
		return nil, err
	}
	ds, ok := built.(*domain.Dataset)
	if !ok {
		return nil, fmt.Errorf("%w: fromspec produced %T, want dataset", domain.ErrInvalidInput, built)
	}
	return ds, nil
}

func (r *Runtime) datasetFromSpec(ctx context.Context, chain *advice.Chain, name string, spec map[string]any) (*domain.Dataset, error) {
	if r.IsReserved(name) {
		return nil, &domain.ReservedNameError{Name: name}
	}
	id, _ := spec[domain.KeyUUID].(string)
	if id == "" {
		id = uuid.NewString()
	}
	ds := domain.NewDataset(name, id)

	for key, v := range spec {
		if key == domain.KeyUUID {
			continue
		}
		if _, err := domain.ParseTransformerKind(key); err == nil {
			continue
		}
		ds.Properties[key] = v
	}

	for _, kind := range domain.AllTransformerKinds() {
		tspecs, err := specList(spec[string(kind)])
		if err != nil {
			return nil, fmt.Errorf("%w: dataset %q %s: %v", domain.ErrInvalidInput, name, kind, err)
		}
		for _, ts := range tspecs {
			driver, _ := ts[keyDriver].(string)
			built, err := r.fromSpec(ctx, chain, string(kind), ds, driver, ts, func(_ context.Context, _ string, spec map[string]any) (any, error) {
				return r.transformerFromSpec(kind, spec)
			})
			if err != nil {
				return nil, err
			}
			t, ok := built.(*domain.Transformer)
			if !ok {
				return nil, fmt.Errorf("%w: fromspec produced %T, want %s", domain.ErrInvalidInput, built, kind)
			}
			if err := ds.AddTransformer(t); err != nil {
				return nil, err
			}
		}
	}
	return ds, nil
}

func (r *Runtime) transformerFromSpec(kind domain.TransformerKind, spec map[string]any) (*domain.Transformer, error) {
	driver, ok := spec[keyDriver].(string)
	if !ok || driver == "" {
		return nil, fmt.Errorf("%w: %s needs a driver", domain.ErrInvalidInput, kind)
	}
	t := domain.NewTransformer(kind, driver)

	if raw, ok := spec[keyType]; ok {
		names, err := stringList(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %q type: %v", domain.ErrInvalidInput, kind, driver, err)
		}
		tags, err := domain.ParseTypeTags(names)
		if err != nil {
			return nil, err
		}
		t.Types = tags
	}
	if raw, ok := spec[keyPriority]; ok {
		p, ok := toInt(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %s %q priority must be an integer", domain.ErrInvalidInput, kind, driver)
		}
		t.Priority = p
	}
	for k, v := range spec {
		switch k {
		case keyDriver, keyType, keyPriority:
		default:
			t.Parameters[k] = v
		}
	}

	if !r.drivers.Has(kind, driver) {
		logger.Warn("no %s driver %q registered; it will be skipped during resolution", kind, driver)
	}
	return t, nil
}

// CatalogSpec renders a catalog back into a spec dictionary through the
// tospec site. Datasets sharing a name become one array.
func (r *Runtime) CatalogSpec(ctx context.Context, cat *domain.Catalog) (map[string]any, error) {
	chain := r.ChainFor(cat)
	return r.toSpec(ctx, chain, cat, func(ctx context.Context) (map[string]any, error) {
		spec := map[string]any{
			domain.KeyVersion: cat.Version,
			domain.KeyName:    cat.Name,
			domain.KeyUUID:    cat.UUID,
		}
		if len(cat.Plugins) > 0 {
			spec[domain.KeyPlugins] = append([]string(nil), cat.Plugins...)
		}
		if len(cat.Config) > 0 {
			spec[domain.KeyConfig] = cat.Config
		}
		for _, ds := range cat.Datasets() {
			dsSpec, err := r.datasetSpec(ctx, chain, ds)
			if err != nil {
				return nil, err
			}
			list, _ := spec[ds.Name].([]any)
			spec[ds.Name] = append(list, dsSpec)
		}
		return spec, nil
	})
}

func (r *Runtime) datasetSpec(ctx context.Context, chain *advice.Chain, ds *domain.Dataset) (map[string]any, error) {
	return r.toSpec(ctx, chain, ds, func(ctx context.Context) (map[string]any, error) {
		spec := map[string]any{domain.KeyUUID: ds.UUID}
		for k, v := range ds.Properties {
			spec[k] = v
		}
		for _, kind := range domain.AllTransformerKinds() {
			ts := ds.Transformers(kind)
			if len(ts) == 0 {
				continue
			}
			list := make([]any, 0, len(ts))
			for _, t := range ts {
				tSpec, err := r.toSpec(ctx, chain, t, func(context.Context) (map[string]any, error) {
					return transformerSpec(t), nil
				})
				if err != nil {
					return nil, err
				}
				list = append(list, tSpec)
			}
			spec[string(kind)] = list
		}
		return spec, nil
	})
}

func transformerSpec(t *domain.Transformer) map[string]any {
	spec := make(map[string]any, len(t.Parameters)+3)
	for k, v := range t.Parameters {
		spec[k] = v
	}
	spec[keyDriver] = t.Driver
	switch len(t.Types) {
	case 0:
	case 1:
		spec[keyType] = t.Types[0].String()
	default:
		spec[keyType] = tagStrings(t.Types)
	}
	if t.Priority != domain.DefaultPriority {
		spec[keyPriority] = t.Priority
	}
	return spec
}

func (r *Runtime) toSpec(ctx context.Context, chain *advice.Chain, entity any, render func(context.Context) (map[string]any, error)) (map[string]any, error) {
	out, err := chain.Invoke(ctx, advice.Call{
		Site: advice.SiteToSpec,
		Args: []any{entity},
		Action: func(ctx context.Context, _ []any, _ map[string]any) (any, error) {
			return render(ctx)
		},
	})
	if err != nil {
		return nil, err
	}
	spec, ok := out.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: tospec produced %T, want a table", domain.ErrInvalidInput, out)
	}
	return spec, nil
}

// ParseIdentifier parses identifier text through the parse-identifier site,
// using the advice of cat (nil: the top of the stack).
func (r *Runtime) ParseIdentifier(ctx context.Context, cat *domain.Catalog, text string) (domain.Identifier, error) {
	if cat == nil {
		cat = r.top()
	}
	out, err := r.invoke(ctx, cat, advice.Call{
		Site: advice.SiteParseIdentifier,
		Args: []any{text},
		Action: func(_ context.Context, args []any, _ map[string]any) (any, error) {
			s, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("%w: identifier text is %T", domain.ErrInvalidInput, args[0])
			}
			return domain.ParseIdentifier(s)
		},
	})
	if err != nil {
		return domain.Identifier{}, err
	}
	id, ok := out.(domain.Identifier)
	if !ok {
		return domain.Identifier{}, fmt.Errorf("%w: parse-identifier produced %T", domain.ErrInvalidInput, out)
	}
	return id, nil
}

// RenderIdentifier renders an identifier through the render-identifier site.
func (r *Runtime) RenderIdentifier(ctx context.Context, cat *domain.Catalog, id domain.Identifier) (string, error) {
	if cat == nil {
		cat = r.top()
	}
	out, err := r.invoke(ctx, cat, advice.Call{
		Site: advice.SiteRenderIdentifier,
		Args: []any{id},
		Action: func(_ context.Context, args []any, _ map[string]any) (any, error) {
			i, ok := args[0].(domain.Identifier)
			if !ok {
				return nil, fmt.Errorf("%w: identifier is %T", domain.ErrInvalidInput, args[0])
			}
			return i.String(), nil
		},
	})
	if err != nil {
		return "", err
	}
	s, ok := out.(string)
	if !ok {
		return "", fmt.Errorf("%w: render-identifier produced %T", domain.ErrInvalidInput, out)
	}
	return s, nil
}

func (r *Runtime) top() *domain.Catalog {
	stack := *r.stack.Load()
	if len(stack) == 0 {
		return nil
	}
	return stack[0]
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// stringList accepts a string, a []string or a []any of strings.
func stringList(v any) ([]string, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{s}, nil
	case []string:
		return append([]string(nil), s...), nil
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected strings, got %T", item)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a string or list, got %T", v)
	}
}

// specList accepts a table or an array of tables.
func specList(v any) ([]map[string]any, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return []map[string]any{s}, nil
	case []map[string]any:
		return s, nil
	case []any:
		out := make([]map[string]any, 0, len(s))
		for _, item := range s {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("expected tables, got %T", item)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a table or array of tables, got %T", v)
	}
}
