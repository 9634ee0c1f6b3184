// Package handle reads the storage handles loaders receive.
package handle

import (
	"fmt"
	"io"
	"os"

	"github.com/custodia-labs/datacat/internal/core/domain"
)

// TextInputs are the handle types Bytes can read, in preference order.
func TextInputs() []domain.TypeTag {
	return []domain.TypeTag{domain.TagReader, domain.TagBytes, domain.TagString, domain.TagPath}
}

// Bytes reads a handle fully. Readers are drained but not closed.
func Bytes(h any) ([]byte, error) {
	switch v := h.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case domain.FilePath:
		return os.ReadFile(string(v))
	case io.Reader:
		return io.ReadAll(v)
	default:
		return nil, fmt.Errorf("%w: cannot read handle of type %T", domain.ErrInvalidInput, h)
	}
}

// Writer asserts an io.Writer handle.
func Writer(h any) (io.Writer, error) {
	w, ok := h.(io.Writer)
	if !ok {
		return nil, fmt.Errorf("%w: handle %T is not a writer", domain.ErrInvalidInput, h)
	}
	return w, nil
}
