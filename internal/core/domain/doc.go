// Package domain defines the core catalog entities for datacat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - TypeTag: A serialisable name for a data shape
//   - Catalog: An ordered collection of datasets
//   - Dataset: A named entity reachable through transformers
//   - Transformer: A storage, loader or writer bound to a driver
//   - Identifier: A textual reference to a dataset on the stack
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
