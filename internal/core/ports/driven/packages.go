package driven

// PackageTable holds optional dependencies registered by owners (drivers or
// extensions) and looked up by name at use time.
type PackageTable interface {
	// AddPackage registers value under owner/name, replacing any previous one.
	AddPackage(owner, name string, value any)

	// UsePackage returns the value registered under owner/name.
	// Returns domain.ErrPackageUnregistered if nothing was added.
	UsePackage(owner, name string) (any, error)
}
