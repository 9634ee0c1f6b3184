// Package jsonfmt provides the "json" loader and writer.
package jsonfmt

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
	"github.com/custodia-labs/datacat/internal/drivers/handle"
)

// Ensure the drivers implement the interfaces.
var (
	_ driven.LoaderDriver = (*Loader)(nil)
	_ driven.WriterDriver = (*Writer)(nil)
)

// Loader decodes JSON documents.
type Loader struct{}

// NewLoader creates a JSON loader.
func NewLoader() *Loader { return &Loader{} }

// Name returns the driver tag.
func (l *Loader) Name() string { return "json" }

// InputTypes returns the readable handle types.
func (l *Loader) InputTypes() []domain.TypeTag { return handle.TextInputs() }

// OutputTypes returns json.value and core.value.
func (l *Loader) OutputTypes() []domain.TypeTag {
	return []domain.TypeTag{domain.TagJSONValue, domain.TagValue}
}

// Load decodes the handle. Input that is not valid JSON is declined so a
// lower-priority loader can try. With "numbers" = "exact", numbers decode
// as json.Number instead of float64.
func (l *Loader) Load(_ context.Context, t *domain.Transformer, h any, _ domain.TypeTag) (domain.LoadResult, error) {
	b, err := handle.Bytes(h)
	if err != nil {
		return domain.LoadResult{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	if t != nil && t.StringParam("numbers") == "exact" {
		dec.UseNumber()
	}
	var v any
	if err := dec.Decode(&v); err != nil {
		return domain.Decline(), nil
	}
	if dec.More() {
		return domain.Decline(), nil
	}
	return domain.Produced(v), nil
}

// Writer encodes values as JSON.
type Writer struct{}

// NewWriter creates a JSON writer.
func NewWriter() *Writer { return &Writer{} }

// Name returns the driver tag.
func (w *Writer) Name() string { return "json" }

// ValueTypes returns core.value: anything encoding/json can marshal.
func (w *Writer) ValueTypes() []domain.TypeTag { return []domain.TypeTag{domain.TagValue} }

// HandleTypes returns io.writer.
func (w *Writer) HandleTypes() []domain.TypeTag { return []domain.TypeTag{domain.TagWriter} }

// Write encodes value. The "indent" parameter sets the indent width
// (default 2, 0 for compact output).
func (w *Writer) Write(_ context.Context, t *domain.Transformer, h any, value any) error {
	out, err := handle.Writer(h)
	if err != nil {
		return err
	}
	indent := 2
	if t != nil {
		if n, ok := t.IntParam("indent"); ok && n >= 0 {
			indent = n
		}
	}
	enc := json.NewEncoder(out)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	return enc.Encode(value)
}
