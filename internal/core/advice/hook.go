package advice

import (
	"context"
	"slices"
)

// Action is the advisable operation itself.
type Action func(ctx context.Context, args []any, kwargs map[string]any) (any, error)

// Call is one invocation of an advisable site.
type Call struct {
	Site   Site
	Action Action
	Args   []any
	Kwargs map[string]any
}

// Arg returns the i-th argument, or nil when out of range.
func (c Call) Arg(i int) any {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// Advised is what flows through a hook: the continuation so far, the
// action, and its arguments. A nil Kwargs is accepted and treated as empty.
type Advised struct {
	Post   *Post
	Action Action
	Args   []any
	Kwargs map[string]any

	source string
}

// Then composes extra on the right of the current continuation
// (post ∘ extra): extra sees the result before every outer hook does.
func (a Advised) Then(extra PostFunc) Advised {
	a.Post = &Post{fn: extra, source: a.source, next: a.Post}
	return a
}

// Arg returns the i-th argument, or nil when out of range.
func (a Advised) Arg(i int) any {
	if i < 0 || i >= len(a.Args) {
		return nil
	}
	return a.Args[i]
}

// WithArgs returns a copy with the arguments replaced.
func (a Advised) WithArgs(args ...any) Advised {
	a.Args = args
	return a
}

// WithAction returns a copy with the action replaced.
func (a Advised) WithAction(action Action) Advised {
	a.Action = action
	return a
}

// Transform rewrites an advised call.
type Transform func(ctx context.Context, in Advised) (Advised, error)

// Applicability restricts a hook to some calls. The zero value applies to
// every site.
type Applicability struct {
	Sites []Site
	Match func(Call) bool
}

// AnySite applies to every call.
func AnySite() Applicability {
	return Applicability{}
}

// On applies to the given sites only.
func On(sites ...Site) Applicability {
	return Applicability{Sites: sites}
}

// Where narrows the applicability with a predicate over the call.
func (a Applicability) Where(match func(Call) bool) Applicability {
	prev := a.Match
	a.Match = func(c Call) bool {
		if prev != nil && !prev(c) {
			return false
		}
		return match(c)
	}
	return a
}

// Applies reports whether a hook with this applicability handles c.
func (a Applicability) Applies(c Call) bool {
	if len(a.Sites) > 0 && !slices.Contains(a.Sites, c.Site) {
		return false
	}
	return a.Match == nil || a.Match(c)
}

// ArgIs matches calls whose i-th argument has dynamic type T.
func ArgIs[T any](i int) func(Call) bool {
	return func(c Call) bool {
		_, ok := c.Arg(i).(T)
		return ok
	}
}

// Hook is a prioritised interceptor. Hooks are plain values and are never
// mutated after construction.
type Hook struct {
	Priority      int
	Source        string
	Applicability Applicability
	Transform     Transform
}

// NewHook builds a hook. It has no side effects.
func NewHook(priority int, transform Transform, on Applicability) Hook {
	return Hook{
		Priority:      priority,
		Applicability: on,
		Transform:     transform,
	}
}

// WithSource returns a copy attributed to the named extension.
func (h Hook) WithSource(source string) Hook {
	h.Source = source
	return h
}
