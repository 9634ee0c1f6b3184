package text

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
	"github.com/custodia-labs/datacat/internal/drivers/handle"
)

// Ensure Writer implements the interface.
var _ driven.WriterDriver = (*Writer)(nil)

// Writer writes strings, bytes or lines.
type Writer struct{}

// NewWriter creates a text writer.
func NewWriter() *Writer { return &Writer{} }

// Name returns the driver tag.
func (w *Writer) Name() string { return "text" }

// ValueTypes returns the accepted value types.
func (w *Writer) ValueTypes() []domain.TypeTag {
	return []domain.TypeTag{domain.TagString, domain.TagBytes, domain.TagLines}
}

// HandleTypes returns io.writer.
func (w *Writer) HandleTypes() []domain.TypeTag {
	return []domain.TypeTag{domain.TagWriter}
}

// Write writes value verbatim; lines are joined with newlines and end with one.
func (w *Writer) Write(_ context.Context, _ *domain.Transformer, h any, value any) error {
	out, err := handle.Writer(h)
	if err != nil {
		return err
	}
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	case []string:
		if len(v) > 0 {
			data = []byte(strings.Join(v, "\n") + "\n")
		}
	default:
		return fmt.Errorf("%w: text writer cannot write %T", domain.ErrInvalidInput, value)
	}
	_, err = out.Write(data)
	return err
}
