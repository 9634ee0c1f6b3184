package driven

import "github.com/custodia-labs/datacat/internal/core/advice"

// Extension contributes advice hooks. A catalog activates extensions by
// listing their names under "plugins".
type Extension interface {
	// Name returns the identifier catalogs use to request the extension.
	Name() string

	// Hooks returns the extension's hooks. Called once per registration.
	Hooks() []advice.Hook
}
