// Package driving defines the interfaces the CLI and REPL call into:
// stack management, dataset reads and writes, plugin listing and settings.
//
// Implementations live in internal/core/services.
package driving
