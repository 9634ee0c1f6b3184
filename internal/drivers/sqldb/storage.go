package sqldb

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
)

// Ensure Storage implements the interfaces.
var (
	_ driven.StorageDriver   = (*Storage)(nil)
	_ driven.WritableStorage = (*Storage)(nil)
)

// Storage opens database connections. Parameters: "engine" (default
// sqlite) and "dsn". A relative SQLite file name resolves against the
// catalog directory.
type Storage struct {
	packages driven.PackageTable
}

// NewStorage creates a sql storage driver resolving engines in packages.
func NewStorage(packages driven.PackageTable) *Storage {
	return &Storage{packages: packages}
}

// Name returns the driver tag.
func (s *Storage) Name() string { return "sql" }

// OutputTypes returns sql.db.
func (s *Storage) OutputTypes() []domain.TypeTag { return []domain.TypeTag{domain.TagSQLDB} }

// WriteTypes returns sql.db.
func (s *Storage) WriteTypes() []domain.TypeTag { return []domain.TypeTag{domain.TagSQLDB} }

// Open connects to the database. The returned *sql.DB is closed by the
// caller once the load or write is done.
func (s *Storage) Open(ctx context.Context, st *domain.Transformer, as domain.TypeTag, _ bool) (any, error) {
	if !as.IsZero() && as != domain.TagSQLDB {
		return nil, fmt.Errorf("%w: sql cannot open as %s", domain.ErrInvalidInput, as)
	}
	engine := st.StringParam("engine")
	if engine == "" {
		engine = DefaultEngine
	}
	dsn := st.StringParam("dsn")
	if dsn == "" {
		return nil, fmt.Errorf("%w: %s needs a dsn", domain.ErrInvalidInput, st.Label())
	}
	if engine == DefaultEngine {
		dsn = resolveFile(st, dsn)
	}

	pkg, err := s.packages.UsePackage(PackageOwner, engine)
	if err != nil {
		return nil, err
	}
	open, ok := pkg.(Opener)
	if !ok {
		return nil, fmt.Errorf("%w: package %s/%s is %T, not an opener", domain.ErrInvalidInput, PackageOwner, engine, pkg)
	}
	return open(ctx, dsn)
}

func resolveFile(st *domain.Transformer, dsn string) string {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") || filepath.IsAbs(dsn) {
		return dsn
	}
	if ds := st.Dataset(); ds != nil {
		if cat := ds.Catalog(); cat != nil {
			return filepath.Join(cat.Dir(), dsn)
		}
	}
	return dsn
}
