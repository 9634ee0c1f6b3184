package domain

// LoadResult is what a loader returns: either a produced value or a
// decline. A declined load is a soft failure and resolution moves on to the
// next candidate. A produced zero value is still a result.
type LoadResult struct {
	value    any
	produced bool
}

// Produced wraps a loaded value.
func Produced(v any) LoadResult {
	return LoadResult{value: v, produced: true}
}

// Decline signals that the loader cannot handle this input.
func Decline() LoadResult {
	return LoadResult{}
}

// Declined reports whether the loader declined.
func (r LoadResult) Declined() bool {
	return !r.produced
}

// Value returns the produced value and whether there was one.
func (r LoadResult) Value() (any, bool) {
	return r.value, r.produced
}

// Map applies fn to a produced value. Declines pass through untouched.
func (r LoadResult) Map(fn func(any) any) LoadResult {
	if !r.produced {
		return r
	}
	return Produced(fn(r.value))
}
