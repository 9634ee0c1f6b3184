package advice

import "context"

// PostFunc post-processes the result of an advised action.
type PostFunc func(ctx context.Context, result any) (any, error)

// Post is an immutable continuation applied to an action's raw result.
// The nil *Post is the identity. A Post only grows through Advised.Then,
// which composes on the right, so it is impossible to place new
// post-processing outside the post-processing it was handed.
type Post struct {
	fn     PostFunc
	source string
	next   *Post
}

// Len returns the number of composed functions.
func (p *Post) Len() int {
	n := 0
	for ; p != nil; p = p.next {
		n++
	}
	return n
}

// Apply runs the continuation: the most recently composed function first.
func (p *Post) Apply(ctx context.Context, result any) (any, error) {
	var err error
	for n := p; n != nil; n = n.next {
		result, err = n.fn(ctx, result)
		if err != nil {
			return nil, &Failure{HookSource: n.source, Cause: err}
		}
	}
	return result, nil
}

// stamp attributes freshly composed nodes to a hook.
// Nodes reachable from stop were created by outer hooks and are left alone.
func (p *Post) stamp(stop *Post, source string) {
	for n := p; n != nil && n != stop; n = n.next {
		if n.source == "" {
			n.source = source
		}
	}
}
