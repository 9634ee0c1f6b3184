package extensions

import (
	"fmt"

	"github.com/custodia-labs/datacat/internal/core/advice"
	"github.com/custodia-labs/datacat/internal/core/domain"
)

// Hook priorities of the built-in plugins. Lower runs first.
const (
	PriorityLog      = -100
	PriorityMetrics  = -90
	PriorityDefaults = -50
	PriorityThrottle = -20
	PriorityDeadline = -10
	PriorityMemorise = 100
)

// transformerSites are the sites whose first argument is a transformer.
var transformerSites = []advice.Site{advice.SiteStorage, advice.SiteLoad, advice.SiteWrite}

// subject describes what a call is about, for logs and metric labels.
func subject(in advice.Advised) string {
	switch v := in.Arg(0).(type) {
	case *domain.Transformer:
		if ds := v.Dataset(); ds != nil {
			return ds.Name + "/" + v.Label()
		}
		return v.Label()
	case *domain.Catalog:
		return "catalog " + v.Name
	case *domain.Dataset:
		return "dataset " + v.Name
	case string:
		if name, ok := in.Arg(2).(string); ok && name != "" {
			return v + " " + name
		}
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// datasetOf returns the dataset name behind a transformer-site call.
func datasetOf(in advice.Advised) string {
	if t, ok := in.Arg(0).(*domain.Transformer); ok {
		if ds := t.Dataset(); ds != nil {
			return ds.Name
		}
	}
	return ""
}
