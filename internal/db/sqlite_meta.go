package db

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tordrt/dbmeta/internal/sqltypes"
)

// SQLiteCatalog is the name SQLite gives the primary database of a
// connection. It is reported as the only catalog.
const SQLiteCatalog = "main"

// sqliteMeta reads table metadata through the PRAGMA table-valued functions.
type sqliteMeta struct {
	q queryer
}

// SQLiteTypes is the type set SQLite reports. SQLite has no type dictionary
// and accepts any declared type name, so these are the common affinities.
var SQLiteTypes = []struct {
	Name string
	Code sqltypes.Code
}{
	{"INTEGER", sqltypes.Integer},
	{"INT", sqltypes.Integer},
	{"BIGINT", sqltypes.BigInt},
	{"SMALLINT", sqltypes.SmallInt},
	{"TINYINT", sqltypes.TinyInt},
	{"BOOLEAN", sqltypes.Boolean},
	{"REAL", sqltypes.Real},
	{"DOUBLE", sqltypes.Double},
	{"FLOAT", sqltypes.Float},
	{"NUMERIC", sqltypes.Numeric},
	{"DECIMAL", sqltypes.Decimal},
	{"TEXT", sqltypes.VarChar},
	{"VARCHAR", sqltypes.VarChar},
	{"CHAR", sqltypes.Char},
	{"CLOB", sqltypes.Clob},
	{"BLOB", sqltypes.Blob},
	{"DATE", sqltypes.Date},
	{"DATETIME", sqltypes.Timestamp},
	{"TIMESTAMP", sqltypes.Timestamp},
}

var sqliteDeclared = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9_ ]*?)\s*(?:\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\))?\s*$`)

// parseDeclaredType splits a declared column type such as "VARCHAR(20)" or
// "NUMERIC(10, 2)" into its name, size and scale.
func parseDeclaredType(declared string) (name string, size, scale int) {
	m := sqliteDeclared.FindStringSubmatch(declared)
	if m == nil {
		return strings.ToUpper(strings.TrimSpace(declared)), 0, 0
	}
	name = strings.ToUpper(m[1])
	if m[2] != "" {
		size, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" {
		scale, _ = strconv.Atoi(m[3])
	}
	return name, size, scale
}

func sqliteTypeCode(typeName string) sqltypes.Code {
	for _, t := range SQLiteTypes {
		if t.Name == typeName {
			return t.Code
		}
	}
	// Type affinity rules, in SQLite's own order.
	switch {
	case strings.Contains(typeName, "INT"):
		return sqltypes.Integer
	case strings.Contains(typeName, "CHAR"), strings.Contains(typeName, "TEXT"):
		return sqltypes.VarChar
	case strings.Contains(typeName, "BLOB"), typeName == "":
		return sqltypes.Blob
	case strings.Contains(typeName, "REAL"), strings.Contains(typeName, "FLOA"), strings.Contains(typeName, "DOUB"):
		return sqltypes.Double
	}
	return sqltypes.Numeric
}

func (m *sqliteMeta) TypeInfo(context.Context) ([]Row, error) {
	rows := make([]Row, 0, len(SQLiteTypes))
	for _, t := range SQLiteTypes {
		rows = append(rows, Row{LabelTypeName: t.Name, LabelDataType: int(t.Code)})
	}
	return rows, nil
}

func (m *sqliteMeta) Schemas(context.Context) ([]Row, error) {
	return nil, nil
}

func (m *sqliteMeta) Catalogs(context.Context) ([]Row, error) {
	return []Row{{LabelTableCat: SQLiteCatalog}}, nil
}

func (m *sqliteMeta) Tables(ctx context.Context, _, _, tablePattern string, types []string) ([]Row, error) {
	query := `
		SELECT
			'main' AS TABLE_CAT,
			NULL AS TABLE_SCHEM,
			name AS TABLE_NAME,
			UPPER(type) AS TABLE_TYPE
		FROM sqlite_master
		WHERE type IN ('table', 'view')
			AND name NOT LIKE 'sqlite_%'
			AND (? = '' OR name LIKE ?)
		ORDER BY name
	`

	rows, err := m.q.query(ctx, query, tablePattern, tablePattern)
	if err != nil {
		return nil, err
	}
	return filterTableTypes(rows, types), nil
}

func (m *sqliteMeta) Columns(ctx context.Context, _, _, table string) ([]Row, error) {
	query := `
		SELECT
			cid,
			name AS COLUMN_NAME,
			type AS DECLARED_TYPE,
			"notnull" AS NOT_NULL,
			pk
		FROM pragma_table_info(?)
		ORDER BY cid
	`

	rows, err := m.q.query(ctx, query, table)
	if err != nil {
		return nil, err
	}

	pkCount := 0
	for _, r := range rows {
		if pk, err := r.Int("PK"); err == nil && pk > 0 {
			pkCount++
		}
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		cid, err := r.Int("CID")
		if err != nil {
			return nil, err
		}
		notNull, err := r.Int("NOT_NULL")
		if err != nil {
			return nil, err
		}
		pk, err := r.Int("PK")
		if err != nil {
			return nil, err
		}
		declared, _ := r.String("DECLARED_TYPE")
		name, size, scale := parseDeclaredType(declared)
		colName, _ := r.String(LabelColumnName)

		nullable := 1
		if notNull != 0 {
			nullable = 0
		}
		// A lone INTEGER PRIMARY KEY column aliases the rowid.
		autoIncrement := "NO"
		if pk > 0 && pkCount == 1 && name == "INTEGER" {
			autoIncrement = "YES"
		}

		out = append(out, Row{
			LabelTableCat:        SQLiteCatalog,
			LabelTableName:       table,
			LabelColumnName:      colName,
			LabelTypeName:        name,
			LabelDataType:        int(sqliteTypeCode(name)),
			LabelColumnSize:      size,
			LabelDecimalDigits:   scale,
			LabelNullable:        nullable,
			LabelOrdinalPosition: cid + 1,
			LabelIsAutoincrement: autoIncrement,
			LabelIsGenerated:     "NO",
		})
	}
	return out, nil
}

func (m *sqliteMeta) IndexInfo(ctx context.Context, _, _, table string, unique, _ bool) ([]Row, error) {
	// Indexes backing the primary key are reported through PrimaryKeys.
	query := `
		SELECT
			'main' AS TABLE_CAT,
			? AS TABLE_NAME,
			CASE WHEN il."unique" = 1 THEN 0 ELSE 1 END AS NON_UNIQUE,
			il.name AS INDEX_NAME,
			ii.seqno + 1 AS ORDINAL_POSITION,
			ii.name AS COLUMN_NAME,
			CASE WHEN ii."desc" = 1 THEN 'D' ELSE 'A' END AS ASC_OR_DESC
		FROM pragma_index_list(?) AS il
		JOIN pragma_index_xinfo(il.name) AS ii
		WHERE ii.key = 1
			AND il.origin <> 'pk'
			AND (? = 0 OR il."unique" = 1)
		ORDER BY il.name, ii.seqno
	`

	onlyUnique := 0
	if unique {
		onlyUnique = 1
	}
	return m.q.query(ctx, query, table, table, onlyUnique)
}

func (m *sqliteMeta) PrimaryKeys(ctx context.Context, _, _, table string) ([]Row, error) {
	query := `
		SELECT
			'main' AS TABLE_CAT,
			? AS TABLE_NAME,
			name AS COLUMN_NAME,
			pk AS KEY_SEQ
		FROM pragma_table_info(?)
		WHERE pk > 0
		ORDER BY pk
	`
	return m.q.query(ctx, query, table, table)
}

func (m *sqliteMeta) ImportedKeys(ctx context.Context, _, _, table string) ([]Row, error) {
	query := `
		SELECT
			id,
			seq + 1 AS KEY_SEQ,
			"table" AS PKTABLE_NAME,
			"from" AS FKCOLUMN_NAME,
			"to" AS PKCOLUMN_NAME
		FROM pragma_foreign_key_list(?)
		ORDER BY id, seq
	`

	rows, err := m.q.query(ctx, query, table)
	if err != nil {
		return nil, err
	}

	// SQLite keys are anonymous; name them after the table and key id.
	for _, r := range rows {
		id, err := r.Int("ID")
		if err != nil {
			return nil, err
		}
		r[LabelFKName] = fmt.Sprintf("fk_%s_%d", table, id)
		r[LabelPKTableCat] = SQLiteCatalog
		r[LabelPKTableSchem] = nil
		delete(r, "ID")
	}
	return rows, nil
}
