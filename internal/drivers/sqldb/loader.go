package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.LoaderDriver = (*Loader)(nil)

// Loader runs the "query" parameter and returns every row.
type Loader struct{}

// NewLoader creates a sql loader.
func NewLoader() *Loader { return &Loader{} }

// Name returns the driver tag.
func (l *Loader) Name() string { return "sql" }

// InputTypes returns sql.db.
func (l *Loader) InputTypes() []domain.TypeTag { return []domain.TypeTag{domain.TagSQLDB} }

// OutputTypes returns table.rows.
func (l *Loader) OutputTypes() []domain.TypeTag { return []domain.TypeTag{domain.TagRows} }

// Load runs the query. Optional "args" are bound positionally.
func (l *Loader) Load(ctx context.Context, t *domain.Transformer, h any, _ domain.TypeTag) (domain.LoadResult, error) {
	db, ok := h.(*sql.DB)
	if !ok {
		return domain.LoadResult{}, fmt.Errorf("%w: sql loader needs *sql.DB, got %T", domain.ErrInvalidInput, h)
	}
	query := t.StringParam("query")
	if query == "" {
		return domain.LoadResult{}, fmt.Errorf("%w: %s needs a query", domain.ErrInvalidInput, t.Label())
	}
	var args []any
	if v, ok := t.Param("args"); ok {
		args, _ = v.([]any)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.LoadResult{}, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return domain.LoadResult{}, err
	}
	return domain.Produced(out), nil
}

func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := []map[string]any{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
