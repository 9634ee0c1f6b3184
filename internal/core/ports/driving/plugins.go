package driving

// PluginInfo describes a registered extension.
type PluginInfo struct {
	Name  string
	Hooks int
}

// DriverInfo describes a registered driver.
type DriverInfo struct {
	Kind   string
	Name   string
	Input  []string
	Output []string
}

// RegistryService reports what the runtime knows about.
type RegistryService interface {
	// Plugins lists registered extensions by name.
	Plugins() []PluginInfo

	// Drivers lists registered drivers grouped by kind.
	Drivers() []DriverInfo
}
