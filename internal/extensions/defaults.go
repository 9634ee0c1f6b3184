package extensions

import (
	"context"

	"github.com/custodia-labs/datacat/internal/core/advice"
	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
)

// Ensure Defaults implements the interface.
var _ driven.Extension = (*Defaults)(nil)

// Defaults fills transformer parameters from the catalog's
// [config.defaults.<kind>.<driver>] tables. Keys the transformer sets
// itself are left alone.
//
//	[config.defaults.loader.csv]
//	delimiter = ";"
type Defaults struct{}

// NewDefaults creates the "defaults" plugin.
func NewDefaults() *Defaults { return &Defaults{} }

// Name returns "defaults".
func (d *Defaults) Name() string { return "defaults" }

// Hooks returns the catalog fromspec hook.
func (d *Defaults) Hooks() []advice.Hook {
	on := advice.On(advice.SiteFromSpec).Where(func(c advice.Call) bool {
		return c.Arg(0) == "catalog"
	})
	return []advice.Hook{advice.NewHook(PriorityDefaults, d.fill, on)}
}

// fill rewrites the whole catalog spec; transformer fromspec calls do not
// see the catalog's [config].
func (d *Defaults) fill(_ context.Context, in advice.Advised) (advice.Advised, error) {
	spec, ok := in.Arg(3).(map[string]any)
	if !ok {
		return in, nil
	}
	defaults := table(table(spec[domain.KeyConfig])["defaults"])
	if len(defaults) == 0 {
		return in, nil
	}

	out := make(map[string]any, len(spec))
	for key, v := range spec {
		if domain.IsReservedKey(key) {
			out[key] = v
			continue
		}
		out[key] = mapTables(v, func(ds map[string]any) map[string]any {
			return fillDataset(ds, defaults)
		})
	}
	args := append([]any(nil), in.Args...)
	args[3] = out
	return in.WithArgs(args...), nil
}

func fillDataset(ds, defaults map[string]any) map[string]any {
	out := make(map[string]any, len(ds))
	for k, v := range ds {
		out[k] = v
	}
	for _, kind := range domain.AllTransformerKinds() {
		byDriver := table(defaults[string(kind)])
		raw, ok := ds[string(kind)]
		if !ok || len(byDriver) == 0 {
			continue
		}
		out[string(kind)] = mapTables(raw, func(t map[string]any) map[string]any {
			driver, _ := t["driver"].(string)
			extra := table(byDriver[driver])
			if len(extra) == 0 {
				return t
			}
			merged := make(map[string]any, len(t)+len(extra))
			for k, v := range extra {
				merged[k] = v
			}
			for k, v := range t {
				merged[k] = v
			}
			return merged
		})
	}
	return out
}

// mapTables applies fn to a table or to every table in an array, leaving
// other values untouched.
func mapTables(v any, fn func(map[string]any) map[string]any) any {
	switch x := v.(type) {
	case map[string]any:
		return fn(x)
	case []map[string]any:
		out := make([]map[string]any, len(x))
		for i, m := range x {
			out[i] = fn(m)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			if m, ok := item.(map[string]any); ok {
				out[i] = fn(m)
				continue
			}
			out[i] = item
		}
		return out
	default:
		return v
	}
}

func table(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
