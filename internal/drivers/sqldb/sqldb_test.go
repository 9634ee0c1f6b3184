package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/datacat/internal/core/domain"
)

type packageTable map[string]any

func (p packageTable) AddPackage(owner, name string, value any) { p[owner+"/"+name] = value }

func (p packageTable) UsePackage(owner, name string) (any, error) {
	v, ok := p[owner+"/"+name]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrPackageUnregistered, owner, name)
	}
	return v, nil
}

func newStorage(t *testing.T, dir, dsn string) *domain.Transformer {
	t.Helper()
	cat := domain.NewCatalog("test", "c-1")
	cat.Path = filepath.Join(dir, "Data.toml")
	ds := domain.NewDataset("ds", "d-1")
	require.NoError(t, cat.AddDataset(ds))
	st := domain.NewTransformer(domain.KindStorage, "sql")
	st.Parameters["dsn"] = dsn
	require.NoError(t, ds.AddTransformer(st))
	return st
}

func openDB(t *testing.T, st *domain.Transformer) *sql.DB {
	t.Helper()
	tbl := packageTable{}
	RegisterSQLite(tbl)
	h, err := NewStorage(tbl).Open(context.Background(), st, domain.TagSQLDB, false)
	require.NoError(t, err)
	db, ok := h.(*sql.DB)
	require.True(t, ok)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStorage_Metadata(t *testing.T) {
	s := NewStorage(packageTable{})
	assert.Equal(t, "sql", s.Name())
	assert.Equal(t, []domain.TypeTag{domain.TagSQLDB}, s.OutputTypes())
	assert.Equal(t, []domain.TypeTag{domain.TagSQLDB}, s.WriteTypes())
}

func TestStorage_RelativeDSNResolvesAgainstCatalog(t *testing.T) {
	dir := t.TempDir()
	st := newStorage(t, dir, "data.db")
	assert.Equal(t, filepath.Join(dir, "data.db"), resolveFile(st, "data.db"))
	assert.Equal(t, ":memory:", resolveFile(st, ":memory:"))
	assert.Equal(t, "file:x.db?mode=ro", resolveFile(st, "file:x.db?mode=ro"))
}

func TestStorage_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st := newStorage(t, dir, "")
	_, err := NewStorage(packageTable{}).Open(ctx, st, domain.TagSQLDB, false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	st = newStorage(t, dir, "x.db")
	st.Parameters["engine"] = "postgres"
	_, err = NewStorage(packageTable{}).Open(ctx, st, domain.TagSQLDB, false)
	assert.ErrorIs(t, err, domain.ErrPackageUnregistered)

	tbl := packageTable{}
	tbl.AddPackage(PackageOwner, "postgres", "not an opener")
	_, err = NewStorage(tbl).Open(ctx, st, domain.TagSQLDB, false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewStorage(tbl).Open(ctx, st, domain.TagString, false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWriteThenLoad(t *testing.T) {
	ctx := context.Background()
	st := newStorage(t, t.TempDir(), "data.db")
	db := openDB(t, st)
	_, err := db.ExecContext(ctx, `CREATE TABLE people (name TEXT, age INTEGER)`)
	require.NoError(t, err)

	w := domain.NewTransformer(domain.KindWriter, "sql")
	w.Parameters["table"] = "people"
	rows := []map[string]any{{"name": "ada", "age": 36}, {"name": "alan", "age": 41}}
	require.NoError(t, NewWriter().Write(ctx, w, db, rows))

	l := domain.NewTransformer(domain.KindLoader, "sql")
	l.Parameters["query"] = "SELECT name, age FROM people WHERE age > ? ORDER BY name"
	l.Parameters["args"] = []any{30}
	res, err := NewLoader().Load(ctx, l, db, domain.TagRows)
	require.NoError(t, err)
	v, ok := res.Value()
	require.True(t, ok)
	assert.Equal(t, []map[string]any{
		{"name": "ada", "age": int64(36)},
		{"name": "alan", "age": int64(41)},
	}, v)
}

func TestWriter_ReplaceMode(t *testing.T) {
	ctx := context.Background()
	db := openDB(t, newStorage(t, t.TempDir(), "data.db"))
	_, err := db.ExecContext(ctx, `CREATE TABLE t (v TEXT)`)
	require.NoError(t, err)

	w := domain.NewTransformer(domain.KindWriter, "sql")
	w.Parameters["table"] = "t"
	require.NoError(t, NewWriter().Write(ctx, w, db, []map[string]any{{"v": "old"}}))
	w.Parameters["mode"] = "replace"
	require.NoError(t, NewWriter().Write(ctx, w, db, []map[string]any{{"v": "new"}}))

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM t`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestWriter_FailedInsertRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openDB(t, newStorage(t, t.TempDir(), "data.db"))
	_, err := db.ExecContext(ctx, `CREATE TABLE t (v TEXT NOT NULL)`)
	require.NoError(t, err)

	w := domain.NewTransformer(domain.KindWriter, "sql")
	w.Parameters["table"] = "t"
	err = NewWriter().Write(ctx, w, db, []map[string]any{{"v": "ok"}, {"v": nil}})
	require.Error(t, err)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM t`).Scan(&n))
	assert.Zero(t, n)
}

func TestLoader_Errors(t *testing.T) {
	ctx := context.Background()
	l := domain.NewTransformer(domain.KindLoader, "sql")

	_, err := NewLoader().Load(ctx, l, "not a db", domain.TagRows)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	db := openDB(t, newStorage(t, t.TempDir(), "data.db"))
	_, err = NewLoader().Load(ctx, l, db, domain.TagRows)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"a""b"`, quote(`a"b`))
	assert.Equal(t, []string{"a", "b", "c"}, columns([]map[string]any{{"b": 1}, {"c": 1, "a": 2}}))
}
