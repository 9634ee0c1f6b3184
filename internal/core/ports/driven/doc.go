// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - StorageDriver, LoaderDriver, WriterDriver: transformer implementations
//   - DriverLookup: name to driver resolution
//   - SpecCodec: catalog file encoding (TOML, YAML)
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - StackStore: stack persistence. Without it the stack lives for one process.
//   - ConfigStore: runtime configuration. Without it defaults apply.
//   - Extension: advice contributed by plugins.
//
// # Import Rules
//
//   - Can Import: domain and advice packages only
//   - Cannot Import: Any adapter, driver, or extension package
package driven
