package extensions

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/datacat/internal/core/advice"
	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
)

// Ensure Metrics implements the interface.
var _ driven.Extension = (*Metrics)(nil)

// Call outcomes recorded by the metrics plugin.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeDeclined = "declined"
)

// Metrics counts and times advised actions in a Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	Calls    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Loads    *prometheus.CounterVec
}

// NewMetrics creates the "metrics" plugin with its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "datacat",
				Name:      "advised_calls_total",
				Help:      "Advised actions run, by site and outcome",
			},
			[]string{"site", "outcome"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "datacat",
				Name:      "advised_call_duration_seconds",
				Help:      "Advised action duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"site"},
		),
		Loads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "datacat",
				Name:      "loads_total",
				Help:      "Loader runs by dataset and outcome",
			},
			[]string{"dataset", "outcome"},
		),
	}
}

// Name returns "metrics".
func (m *Metrics) Name() string { return "metrics" }

// Registry returns the registry the metrics are recorded in.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns one hook per site wrapping the action.
func (m *Metrics) Hooks() []advice.Hook {
	var hooks []advice.Hook
	for _, site := range advice.AllSites() {
		hooks = append(hooks, advice.NewHook(PriorityMetrics, m.measure(site), advice.On(site)))
	}
	return hooks
}

func (m *Metrics) measure(site advice.Site) advice.Transform {
	return func(_ context.Context, in advice.Advised) (advice.Advised, error) {
		action := in.Action
		if action == nil {
			return in, nil
		}
		dataset := datasetOf(in)
		return in.WithAction(func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
			start := time.Now()
			res, err := action(ctx, args, kwargs)
			m.Duration.WithLabelValues(string(site)).Observe(time.Since(start).Seconds())

			outcome := OutcomeOK
			if err != nil {
				outcome = OutcomeError
			} else if r, ok := res.(domain.LoadResult); ok && r.Declined() {
				outcome = OutcomeDeclined
			}
			m.Calls.WithLabelValues(string(site), outcome).Inc()
			if site == advice.SiteLoad {
				m.Loads.WithLabelValues(dataset, outcome).Inc()
			}
			return res, err
		}), nil
	}
}
