package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.WriterDriver = (*Writer)(nil)

// Writer inserts rows into the "table" parameter. With "mode" = "replace"
// existing rows are deleted first. Everything runs in one transaction.
type Writer struct{}

// NewWriter creates a sql writer.
func NewWriter() *Writer { return &Writer{} }

// Name returns the driver tag.
func (w *Writer) Name() string { return "sql" }

// ValueTypes returns table.rows.
func (w *Writer) ValueTypes() []domain.TypeTag { return []domain.TypeTag{domain.TagRows} }

// HandleTypes returns sql.db.
func (w *Writer) HandleTypes() []domain.TypeTag { return []domain.TypeTag{domain.TagSQLDB} }

// Write inserts value's rows. Columns are the union of row keys.
func (w *Writer) Write(ctx context.Context, t *domain.Transformer, h any, value any) error {
	db, ok := h.(*sql.DB)
	if !ok {
		return fmt.Errorf("%w: sql writer needs *sql.DB, got %T", domain.ErrInvalidInput, h)
	}
	rows, ok := value.([]map[string]any)
	if !ok {
		return fmt.Errorf("%w: sql writer needs []map[string]any, got %T", domain.ErrInvalidInput, value)
	}
	table := t.StringParam("table")
	if table == "" {
		return fmt.Errorf("%w: %s needs a table", domain.ErrInvalidInput, t.Label())
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if t.StringParam("mode") == "replace" {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+quote(table)); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	cols := columns(rows)
	if len(cols) > 0 {
		quoted := make([]string, len(cols))
		for i, c := range cols {
			quoted[i] = quote(c)
		}
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			quote(table), strings.Join(quoted, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")))
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			args := make([]any, len(cols))
			for i, c := range cols {
				args[i] = row[c]
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert into %s: %w", table, err)
			}
		}
	}
	return tx.Commit()
}

func columns(rows []map[string]any) []string {
	seen := map[string]bool{}
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
