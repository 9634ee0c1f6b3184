// Package advice implements around-advice for datacat's advisable calls.
//
// A Hook wraps one call: it may rewrite the action and its arguments on
// the way in and attach post-processing for the way out. Hooks are
// folded into an immutable Chain ordered by priority, lower first, so the
// lowest-priority hook is the outermost wrapper.
//
//	input=(action args kwargs)
//	      │                 ┌ post=identity
//	    ╭─┼── hook #1 ──────┼─╮
//	    ╭─┼── hook #2 ──────┼─╮
//	      ▼                 ▼
//	action(args; kwargs) ─▶ post ─▶ result
//
// Post-processing is a persistent linked continuation that can only grow by
// Advised.Then, which composes on the right (post ∘ extra). An outer hook's
// post-processing therefore always runs after an inner hook's.
package advice
