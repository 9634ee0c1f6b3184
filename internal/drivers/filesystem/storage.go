// Package filesystem provides the "filesystem" storage driver: a file on
// local disk, located by the "path" parameter. Relative paths resolve
// against the directory of the catalog file.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
)

// Ensure Storage implements the interfaces.
var (
	_ driven.StorageDriver   = (*Storage)(nil)
	_ driven.WritableStorage = (*Storage)(nil)
)

// Storage opens files.
type Storage struct{}

// New creates a filesystem storage driver.
func New() *Storage {
	return &Storage{}
}

// Name returns the driver tag.
func (s *Storage) Name() string { return "filesystem" }

// OutputTypes returns the read handle types.
func (s *Storage) OutputTypes() []domain.TypeTag {
	return []domain.TypeTag{domain.TagPath, domain.TagReader, domain.TagBytes, domain.TagString}
}

// WriteTypes returns the write handle types.
func (s *Storage) WriteTypes() []domain.TypeTag {
	return []domain.TypeTag{domain.TagWriter}
}

// Open returns a handle on the file. A missing file yields a nil handle,
// which resolution treats as unavailable. Writing truncates the file and
// creates missing parent directories.
func (s *Storage) Open(_ context.Context, st *domain.Transformer, as domain.TypeTag, write bool) (any, error) {
	path, err := Resolve(st)
	if err != nil {
		return nil, err
	}

	if write {
		if !as.IsZero() && as != domain.TagWriter {
			return nil, fmt.Errorf("%w: filesystem writes %s, not %s", domain.ErrNotWritable, domain.TagWriter, as)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
		return os.Create(path)
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}

	switch as {
	case domain.TagPath, domain.TypeTag{}:
		return domain.FilePath(path), nil
	case domain.TagReader:
		return os.Open(path)
	case domain.TagBytes:
		return os.ReadFile(path)
	case domain.TagString:
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return nil, fmt.Errorf("%w: filesystem cannot open as %s", domain.ErrInvalidInput, as)
	}
}

// Resolve returns the absolute path a filesystem transformer refers to.
func Resolve(st *domain.Transformer) (string, error) {
	path := st.StringParam("path")
	if path == "" {
		return "", fmt.Errorf("%w: %s needs a path", domain.ErrInvalidInput, st.Label())
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	dir := "."
	if ds := st.Dataset(); ds != nil {
		if cat := ds.Catalog(); cat != nil {
			dir = cat.Dir()
		}
	}
	return filepath.Abs(filepath.Join(dir, path))
}
