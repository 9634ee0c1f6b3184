package extensions

import (
	"time"

	"github.com/custodia-labs/datacat/internal/core/ports/driven"
)

// Options configures the built-in plugins.
type Options struct {
	// ThrottleRate is the allowed storage/load/write calls per second.
	ThrottleRate float64
	// ThrottleBurst is the token bucket size.
	ThrottleBurst int
	// Deadline bounds each storage/load/write call.
	Deadline time.Duration
}

// Registrar accepts extensions; services.Runtime implements it.
type Registrar interface {
	RegisterExtension(ext driven.Extension) error
}

// Set holds one instance of every built-in plugin.
type Set struct {
	Log      *Log
	Metrics  *Metrics
	Throttle *Throttle
	Deadline *Deadline
	Defaults *Defaults
	Memorise *Memorise
}

// NewSet creates the built-in plugins.
func NewSet(opts Options) *Set {
	return &Set{
		Log:      NewLog(),
		Metrics:  NewMetrics(),
		Throttle: NewThrottle(opts.ThrottleRate, opts.ThrottleBurst),
		Deadline: NewDeadline(opts.Deadline),
		Defaults: NewDefaults(),
		Memorise: NewMemorise(),
	}
}

// All returns the plugins in registration order.
func (s *Set) All() []driven.Extension {
	return []driven.Extension{s.Log, s.Metrics, s.Throttle, s.Deadline, s.Defaults, s.Memorise}
}

// Register registers every plugin with r.
func (s *Set) Register(r Registrar) error {
	for _, ext := range s.All() {
		if err := r.RegisterExtension(ext); err != nil {
			return err
		}
	}
	return nil
}
