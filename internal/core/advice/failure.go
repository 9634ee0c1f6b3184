package advice

import (
	"fmt"

	"github.com/custodia-labs/datacat/internal/core/domain"
)

// Failure is returned when a hook, or a continuation a hook attached,
// fails. The chain is aborted and the action's result, if any, is dropped.
type Failure struct {
	// HookSource names the extension the failing hook came from.
	HookSource string

	// Site is the call site being advised. Empty for continuation failures
	// surfaced directly from Post.Apply.
	Site Site

	// Cause is the underlying error.
	Cause error
}

func (f *Failure) Error() string {
	source := f.HookSource
	if source == "" {
		source = "anonymous"
	}
	if f.Site == "" {
		return fmt.Sprintf("advice failure in hook %q: %v", source, f.Cause)
	}
	return fmt.Sprintf("advice failure in hook %q at %s: %v", source, f.Site, f.Cause)
}

func (f *Failure) Unwrap() error { return f.Cause }

// Is matches domain.ErrAdviceFailure.
func (f *Failure) Is(target error) bool { return target == domain.ErrAdviceFailure }
