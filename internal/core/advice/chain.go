package advice

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Chain is an ordered, immutable list of hooks. It is safe for concurrent
// use and Invoke may be re-entered from inside an action or a hook.
type Chain struct {
	hooks   []Hook
	sources []string
}

// Amalgamate orders hooks by ascending priority. Hooks with equal priority
// keep their registration order, so the result is deterministic.
func Amalgamate(hooks ...Hook) *Chain {
	sorted := slices.Clone(hooks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	var sources []string
	for _, h := range hooks {
		if h.Source != "" && !slices.Contains(sources, h.Source) {
			sources = append(sources, h.Source)
		}
	}
	return &Chain{hooks: sorted, sources: sources}
}

// Hooks returns the hooks in application order.
func (c *Chain) Hooks() []Hook {
	if c == nil {
		return nil
	}
	return slices.Clone(c.hooks)
}

// Sources returns the contributing extensions in registration order.
func (c *Chain) Sources() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.sources)
}

// Len returns the number of hooks.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.hooks)
}

// Invoke runs call through the chain. Outer (lower priority) hooks see the
// call first; the final action then runs and its raw result is piped
// through the composed continuation. A nil chain runs the action directly.
func (c *Chain) Invoke(ctx context.Context, call Call) (any, error) {
	if call.Action == nil {
		return nil, fmt.Errorf("advice: %s call has no action", call.Site)
	}
	cur := Advised{
		Action: call.Action,
		Args:   call.Args,
		Kwargs: call.Kwargs,
	}
	if cur.Kwargs == nil {
		cur.Kwargs = map[string]any{}
	}

	if c != nil {
		for _, h := range c.hooks {
			if h.Transform == nil {
				continue
			}
			view := Call{Site: call.Site, Action: cur.Action, Args: cur.Args, Kwargs: cur.Kwargs}
			if !h.Applicability.Applies(view) {
				continue
			}
			next, err := apply(ctx, h, cur)
			if err != nil {
				return nil, &Failure{HookSource: h.Source, Site: call.Site, Cause: err}
			}
			cur = next
		}
	}

	result, err := cur.Action(ctx, cur.Args, cur.Kwargs)
	if err != nil {
		return nil, err
	}
	out, err := cur.Post.Apply(ctx, result)
	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			f.Site = call.Site
		}
		return nil, err
	}
	return out, nil
}

func apply(ctx context.Context, h Hook, in Advised) (out Advised, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	in.source = h.Source
	out, err = h.Transform(ctx, in)
	if err != nil {
		return Advised{}, err
	}
	if out.Action == nil {
		return Advised{}, errors.New("hook returned no action")
	}
	if out.Kwargs == nil {
		out.Kwargs = map[string]any{}
	}
	out.Post.stamp(in.Post, h.Source)
	out.source = ""
	return out, nil
}
