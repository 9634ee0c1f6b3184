// Package yamlfmt provides the "yaml" loader and writer.
package yamlfmt

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
	"github.com/custodia-labs/datacat/internal/drivers/handle"
)

// Ensure the drivers implement the interfaces.
var (
	_ driven.LoaderDriver = (*Loader)(nil)
	_ driven.WriterDriver = (*Writer)(nil)
)

// Loader decodes YAML documents.
type Loader struct{}

// NewLoader creates a YAML loader.
func NewLoader() *Loader { return &Loader{} }

// Name returns the driver tag.
func (l *Loader) Name() string { return "yaml" }

// InputTypes returns the readable handle types.
func (l *Loader) InputTypes() []domain.TypeTag { return handle.TextInputs() }

// OutputTypes returns yaml.document and core.value.
func (l *Loader) OutputTypes() []domain.TypeTag {
	return []domain.TypeTag{domain.TagYAMLDocument, domain.TagValue}
}

// Load decodes the first document in the handle, declining invalid YAML.
// An empty document produces nil.
func (l *Loader) Load(_ context.Context, _ *domain.Transformer, h any, _ domain.TypeTag) (domain.LoadResult, error) {
	b, err := handle.Bytes(h)
	if err != nil {
		return domain.LoadResult{}, err
	}
	var v any
	if err := yaml.Unmarshal(b, &v); err != nil {
		return domain.Decline(), nil
	}
	return domain.Produced(v), nil
}

// Writer encodes values as YAML.
type Writer struct{}

// NewWriter creates a YAML writer.
func NewWriter() *Writer { return &Writer{} }

// Name returns the driver tag.
func (w *Writer) Name() string { return "yaml" }

// ValueTypes returns yaml.document and core.value.
func (w *Writer) ValueTypes() []domain.TypeTag {
	return []domain.TypeTag{domain.TagYAMLDocument, domain.TagValue}
}

// HandleTypes returns io.writer.
func (w *Writer) HandleTypes() []domain.TypeTag { return []domain.TypeTag{domain.TagWriter} }

// Write encodes value with a two-space indent.
func (w *Writer) Write(_ context.Context, _ *domain.Transformer, h any, value any) error {
	out, err := handle.Writer(h)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("%w: yaml: %v", domain.ErrInvalidInput, err)
	}
	return enc.Close()
}
