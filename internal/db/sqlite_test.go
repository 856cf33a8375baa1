package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sqliteFixture = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY,
	email VARCHAR(120) NOT NULL UNIQUE,
	balance NUMERIC(10, 2),
	created_at DATETIME
);
CREATE TABLE orders (
	id INTEGER PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id),
	total REAL
);
CREATE INDEX idx_orders_user ON orders (user_id DESC);
CREATE VIEW big_orders AS SELECT * FROM orders WHERE total > 100;
`

func openSQLiteFixture(t *testing.T) Conn {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shop.db")

	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = raw.Exec(sqliteFixture)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	src, err := OpenSQLite(ctx, path, 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	c, err := src.Conn(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func str(t *testing.T, r Row, label string) string {
	t.Helper()
	s, _ := r.String(label)
	return s
}

func TestSQLiteTablesAndColumns(t *testing.T) {
	ctx := context.Background()
	meta := openSQLiteFixture(t).MetaData()

	cats, err := meta.Catalogs(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, SQLiteCatalog, str(t, cats[0], LabelTableCat))

	tables, err := meta.Tables(ctx, SQLiteCatalog, "", "", []string{TableTypeTable, TableTypeView})
	require.NoError(t, err)
	require.Len(t, tables, 3)
	assert.Equal(t, "big_orders", str(t, tables[0], LabelTableName))
	assert.Equal(t, "VIEW", str(t, tables[0], LabelTableType))
	assert.Equal(t, "orders", str(t, tables[1], LabelTableName))
	assert.Equal(t, "TABLE", str(t, tables[1], LabelTableType))

	onlyTables, err := meta.Tables(ctx, SQLiteCatalog, "", "", []string{TableTypeTable})
	require.NoError(t, err)
	assert.Len(t, onlyTables, 2)

	cols, err := meta.Columns(ctx, SQLiteCatalog, "", "users")
	require.NoError(t, err)
	require.Len(t, cols, 4)

	id := cols[0]
	assert.Equal(t, "id", str(t, id, LabelColumnName))
	assert.Equal(t, "INTEGER", str(t, id, LabelTypeName))
	assert.Equal(t, "YES", str(t, id, LabelIsAutoincrement))
	assert.Equal(t, 1, mustInt(t, id, LabelOrdinalPosition))

	email := cols[1]
	assert.Equal(t, "VARCHAR", str(t, email, LabelTypeName))
	assert.Equal(t, 120, mustInt(t, email, LabelColumnSize))
	assert.Equal(t, 0, mustInt(t, email, LabelNullable))
	assert.Equal(t, "NO", str(t, email, LabelIsAutoincrement))

	balance := cols[2]
	assert.Equal(t, "NUMERIC", str(t, balance, LabelTypeName))
	assert.Equal(t, 10, mustInt(t, balance, LabelColumnSize))
	assert.Equal(t, 2, mustInt(t, balance, LabelDecimalDigits))
	assert.Equal(t, 1, mustInt(t, balance, LabelNullable))
}

func TestSQLiteKeysAndIndexes(t *testing.T) {
	ctx := context.Background()
	meta := openSQLiteFixture(t).MetaData()

	pks, err := meta.PrimaryKeys(ctx, SQLiteCatalog, "", "users")
	require.NoError(t, err)
	require.Len(t, pks, 1)
	assert.Equal(t, "id", str(t, pks[0], LabelColumnName))
	assert.Equal(t, 1, mustInt(t, pks[0], LabelKeySeq))

	idx, err := meta.IndexInfo(ctx, SQLiteCatalog, "", "users", false, true)
	require.NoError(t, err)
	require.Len(t, idx, 1, "unique constraint index only; the rowid key has none")
	assert.Equal(t, "email", str(t, idx[0], LabelColumnName))
	assert.Equal(t, 0, mustInt(t, idx[0], LabelNonUnique))

	idx, err = meta.IndexInfo(ctx, SQLiteCatalog, "", "orders", false, true)
	require.NoError(t, err)
	require.Len(t, idx, 1)
	assert.Equal(t, "idx_orders_user", str(t, idx[0], LabelIndexName))
	assert.Equal(t, "D", str(t, idx[0], LabelAscOrDesc))
	assert.Equal(t, 1, mustInt(t, idx[0], LabelNonUnique))

	idx, err = meta.IndexInfo(ctx, SQLiteCatalog, "", "orders", true, true)
	require.NoError(t, err)
	assert.Empty(t, idx)

	fks, err := meta.ImportedKeys(ctx, SQLiteCatalog, "", "orders")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	fk := fks[0]
	assert.Equal(t, "fk_orders_0", str(t, fk, LabelFKName))
	assert.Equal(t, "user_id", str(t, fk, LabelFKColumnName))
	assert.Equal(t, "users", str(t, fk, LabelPKTableName))
	assert.Equal(t, "id", str(t, fk, LabelPKColumnName))
	assert.Equal(t, 1, mustInt(t, fk, LabelKeySeq))
	assert.False(t, fk.Has("ID"))
}

func TestSQLiteTransaction(t *testing.T) {
	ctx := context.Background()
	c := openSQLiteFixture(t)

	tx, err := c.Begin(ctx)
	require.NoError(t, err)
	res, err := tx.Exec(ctx, "INSERT INTO users (email) VALUES (?)", []any{"ada@example.com"}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)
	assert.Equal(t, []any{int64(1)}, res.GeneratedKeys)

	res, err = tx.Exec(ctx, "INSERT INTO users (email) VALUES (?) RETURNING id, email", []any{"bob@example.com"}, true)
	require.NoError(t, err)
	require.Len(t, res.GeneratedKeys, 2)
	assert.EqualValues(t, 2, res.GeneratedKeys[0])
	require.NoError(t, tx.Commit(ctx))

	rows, err := c.Query(ctx, "SELECT COUNT(*) AS n FROM users")
	require.NoError(t, err)
	assert.Equal(t, 2, mustInt(t, rows[0], "N"))

	tx, err = c.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, "INSERT INTO orders (user_id, total) VALUES (?, ?)", []any{999, 5.0}, false)
	require.Error(t, err, "foreign keys are enforced")
	require.NoError(t, tx.Rollback(ctx))
}
