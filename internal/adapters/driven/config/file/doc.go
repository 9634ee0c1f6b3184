// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: YAML configuration with DATACAT_ environment overrides
package file
