// Package sqldb provides the "sql" storage, loader and writer drivers.
// Database engines are looked up by name in the package table under the
// "sql" owner, so engines beyond the bundled SQLite one can be added
// without touching the drivers.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/custodia-labs/datacat/internal/core/ports/driven"
)

// PackageOwner is the package table owner engines are registered under.
const PackageOwner = "sql"

// DefaultEngine is used when a storage names no engine.
const DefaultEngine = "sqlite"

// Opener connects to a database.
type Opener func(ctx context.Context, dsn string) (*sql.DB, error)

// RegisterSQLite adds the bundled SQLite engine to the package table.
func RegisterSQLite(packages driven.PackageTable) {
	packages.AddPackage(PackageOwner, DefaultEngine, Opener(openSQLite))
}

func openSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}
