// Package text provides the plain-text drivers: the "passthrough", "text"
// and "lines" loaders and the "text" writer.
package text

import (
	"bufio"
	"bytes"
	"context"

	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
	"github.com/custodia-labs/datacat/internal/drivers/handle"
)

// Ensure loaders implement the interface.
var (
	_ driven.LoaderDriver = (*Passthrough)(nil)
	_ driven.LoaderDriver = (*Loader)(nil)
	_ driven.LoaderDriver = (*LinesLoader)(nil)
)

// Passthrough returns the storage handle unchanged.
type Passthrough struct{}

// NewPassthrough creates a passthrough loader.
func NewPassthrough() *Passthrough { return &Passthrough{} }

// Name returns the driver tag.
func (p *Passthrough) Name() string { return "passthrough" }

// InputTypes is empty: any handle is accepted.
func (p *Passthrough) InputTypes() []domain.TypeTag { return nil }

// OutputTypes is empty: the output is whatever the storage produced.
func (p *Passthrough) OutputTypes() []domain.TypeTag { return nil }

// Load produces the handle itself.
func (p *Passthrough) Load(_ context.Context, _ *domain.Transformer, h any, _ domain.TypeTag) (domain.LoadResult, error) {
	return domain.Produced(h), nil
}

// Loader reads a handle into a string.
type Loader struct{}

// NewLoader creates a text loader.
func NewLoader() *Loader { return &Loader{} }

// Name returns the driver tag.
func (l *Loader) Name() string { return "text" }

// InputTypes returns the readable handle types.
func (l *Loader) InputTypes() []domain.TypeTag { return handle.TextInputs() }

// OutputTypes returns core.string.
func (l *Loader) OutputTypes() []domain.TypeTag { return []domain.TypeTag{domain.TagString} }

// Load reads the whole handle. An empty file produces the empty string.
func (l *Loader) Load(_ context.Context, _ *domain.Transformer, h any, _ domain.TypeTag) (domain.LoadResult, error) {
	b, err := handle.Bytes(h)
	if err != nil {
		return domain.LoadResult{}, err
	}
	return domain.Produced(string(b)), nil
}

// LinesLoader reads a handle into lines.
type LinesLoader struct{}

// NewLinesLoader creates a lines loader.
func NewLinesLoader() *LinesLoader { return &LinesLoader{} }

// Name returns the driver tag.
func (l *LinesLoader) Name() string { return "lines" }

// InputTypes returns the readable handle types.
func (l *LinesLoader) InputTypes() []domain.TypeTag { return handle.TextInputs() }

// OutputTypes returns core.lines.
func (l *LinesLoader) OutputTypes() []domain.TypeTag { return []domain.TypeTag{domain.TagLines} }

// Load splits the handle on newlines. Line endings are stripped and a
// trailing newline does not produce an empty last line. The "skip"
// parameter drops leading lines, e.g. a header.
func (l *LinesLoader) Load(_ context.Context, t *domain.Transformer, h any, _ domain.TypeTag) (domain.LoadResult, error) {
	b, err := handle.Bytes(h)
	if err != nil {
		return domain.LoadResult{}, err
	}
	skip, _ := t.IntParam("skip")

	lines := []string{}
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64*1024), len(b)+1)
	for sc.Scan() {
		if skip > 0 {
			skip--
			continue
		}
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return domain.LoadResult{}, err
	}
	return domain.Produced(lines), nil
}
