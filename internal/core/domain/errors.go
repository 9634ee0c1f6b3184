package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent catalog and resolution failures.
// These are distinct from driver I/O errors, which propagate unchanged.
var (
	// ErrNotFound indicates a requested catalog or dataset does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedTag indicates a string is not of the form namespace.name.
	ErrMalformedTag = errors.New("malformed type tag")

	// ErrAdviceFailure indicates an advice hook failed and aborted its chain.
	ErrAdviceFailure = errors.New("advice failure")

	// ErrNoSatisfyingTransformer indicates every storage/loader (or writer)
	// candidate for a dataset was exhausted.
	ErrNoSatisfyingTransformer = errors.New("no satisfying transformer")

	// ErrAmbiguousIdentifier indicates an identifier matched several datasets.
	ErrAmbiguousIdentifier = errors.New("ambiguous identifier")

	// ErrReservedName indicates a dataset was named after a reserved catalog key.
	ErrReservedName = errors.New("reserved name conflict")

	// ErrUnknownDriver indicates a transformer references an unregistered driver.
	ErrUnknownDriver = errors.New("unknown driver")

	// ErrUnsupportedVersion indicates an unsupported catalog format version.
	ErrUnsupportedVersion = errors.New("unsupported catalog version")

	// ErrEmptyStack indicates an operation needed at least one catalog.
	ErrEmptyStack = errors.New("catalog stack is empty")

	// ErrPackageUnregistered indicates a package was used before being added.
	ErrPackageUnregistered = errors.New("package not registered")

	// ErrNotWritable indicates a storage cannot be opened for writing.
	ErrNotWritable = errors.New("storage not writable")
)

// MalformedTagError reports the offending type tag text.
type MalformedTagError struct {
	Input string
}

func (e *MalformedTagError) Error() string {
	return fmt.Sprintf("%s: %q (want namespace.name)", ErrMalformedTag, e.Input)
}

// Is reports whether target is ErrMalformedTag.
func (e *MalformedTagError) Is(target error) bool { return target == ErrMalformedTag }

// Attempt is one storage paired with the loader (or writer) tried with it.
// Either side is empty when resolution failed before pairing.
type Attempt struct {
	Storage     string
	Transformer string
}

func (a Attempt) String() string {
	switch {
	case a.Storage == "":
		return a.Transformer
	case a.Transformer == "":
		return a.Storage
	default:
		return a.Storage + " -> " + a.Transformer
	}
}

// NoSatisfyingTransformerError lists every candidate chain that was tried.
type NoSatisfyingTransformerError struct {
	Dataset   string
	Target    TypeTag
	Attempted []Attempt
}

func (e *NoSatisfyingTransformerError) Error() string {
	if len(e.Attempted) == 0 {
		return fmt.Sprintf("%s: dataset %q as %s (no candidates)", ErrNoSatisfyingTransformer, e.Dataset, e.Target)
	}
	parts := make([]string, len(e.Attempted))
	for i, a := range e.Attempted {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s: dataset %q as %s (attempted: %s)",
		ErrNoSatisfyingTransformer, e.Dataset, e.Target, strings.Join(parts, ", "))
}

// Is reports whether target is ErrNoSatisfyingTransformer.
func (e *NoSatisfyingTransformerError) Is(target error) bool {
	return target == ErrNoSatisfyingTransformer
}

// AmbiguousIdentifierError names the datasets an identifier could refer to.
type AmbiguousIdentifierError struct {
	Identifier string
	Catalog    string
	Matches    []string
}

func (e *AmbiguousIdentifierError) Error() string {
	return fmt.Sprintf("%s: %q matches %d datasets in catalog %q (%s)",
		ErrAmbiguousIdentifier, e.Identifier, len(e.Matches), e.Catalog, strings.Join(e.Matches, ", "))
}

// Is reports whether target is ErrAmbiguousIdentifier.
func (e *AmbiguousIdentifierError) Is(target error) bool { return target == ErrAmbiguousIdentifier }

// ReservedNameError reports a dataset named after a reserved key.
type ReservedNameError struct {
	Name string
}

func (e *ReservedNameError) Error() string {
	return fmt.Sprintf("%s: dataset may not be named %q", ErrReservedName, e.Name)
}

// Is reports whether target is ErrReservedName.
func (e *ReservedNameError) Is(target error) bool { return target == ErrReservedName }

// UnknownDriverError names the missing driver and its transformer kind.
type UnknownDriverError struct {
	Kind   TransformerKind
	Driver string
}

func (e *UnknownDriverError) Error() string {
	return fmt.Sprintf("%s: no %s driver %q registered", ErrUnknownDriver, e.Kind, e.Driver)
}

// Is reports whether target is ErrUnknownDriver.
func (e *UnknownDriverError) Is(target error) bool { return target == ErrUnknownDriver }
