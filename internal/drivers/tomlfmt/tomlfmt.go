// Package tomlfmt provides the "toml" loader and writer.
package tomlfmt

import (
	"context"
	"fmt"
	"reflect"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
	"github.com/custodia-labs/datacat/internal/drivers/handle"
)

// Ensure the drivers implement the interfaces.
var (
	_ driven.LoaderDriver = (*Loader)(nil)
	_ driven.WriterDriver = (*Writer)(nil)
)

// Loader decodes TOML documents into map[string]any.
type Loader struct{}

// NewLoader creates a TOML loader.
func NewLoader() *Loader { return &Loader{} }

// Name returns the driver tag.
func (l *Loader) Name() string { return "toml" }

// InputTypes returns the readable handle types.
func (l *Loader) InputTypes() []domain.TypeTag { return handle.TextInputs() }

// OutputTypes returns toml.document and core.value.
func (l *Loader) OutputTypes() []domain.TypeTag {
	return []domain.TypeTag{domain.TagTOMLDocument, domain.TagValue}
}

// Load decodes the handle, declining input that is not valid TOML.
func (l *Loader) Load(_ context.Context, _ *domain.Transformer, h any, _ domain.TypeTag) (domain.LoadResult, error) {
	b, err := handle.Bytes(h)
	if err != nil {
		return domain.LoadResult{}, err
	}
	doc := map[string]any{}
	if err := toml.Unmarshal(b, &doc); err != nil {
		return domain.Decline(), nil
	}
	return domain.Produced(doc), nil
}

// Writer encodes tables as TOML.
type Writer struct{}

// NewWriter creates a TOML writer.
func NewWriter() *Writer { return &Writer{} }

// Name returns the driver tag.
func (w *Writer) Name() string { return "toml" }

// ValueTypes returns toml.document and core.value.
func (w *Writer) ValueTypes() []domain.TypeTag {
	return []domain.TypeTag{domain.TagTOMLDocument, domain.TagValue}
}

// HandleTypes returns io.writer.
func (w *Writer) HandleTypes() []domain.TypeTag { return []domain.TypeTag{domain.TagWriter} }

// Write encodes value, which must be a table (map or struct).
func (w *Writer) Write(_ context.Context, _ *domain.Transformer, h any, value any) error {
	out, err := handle.Writer(h)
	if err != nil {
		return err
	}
	if !isTable(value) {
		return fmt.Errorf("%w: toml needs a map or struct, got %T", domain.ErrInvalidInput, value)
	}
	enc := toml.NewEncoder(out)
	enc.SetIndentTables(true)
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("%w: toml: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func isTable(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Map || rv.Kind() == reflect.Struct
}
