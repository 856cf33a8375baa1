package db

import (
	"context"
	"strings"

	"github.com/tordrt/dbmeta/internal/sqltypes"
)

// postgresMeta reads the PostgreSQL system catalogs. It serves both the pgx
// and the lib/pq backed sources since the queries only use $n placeholders.
type postgresMeta struct {
	q queryer
}

var postgresTypeCodes = map[string]sqltypes.Code{
	"int2":        sqltypes.SmallInt,
	"int4":        sqltypes.Integer,
	"int8":        sqltypes.BigInt,
	"oid":         sqltypes.BigInt,
	"serial":      sqltypes.Integer,
	"bigserial":   sqltypes.BigInt,
	"float4":      sqltypes.Real,
	"float8":      sqltypes.Double,
	"money":       sqltypes.Double,
	"numeric":     sqltypes.Numeric,
	"bool":        sqltypes.Boolean,
	"bit":         sqltypes.Bit,
	"char":        sqltypes.Char,
	"bpchar":      sqltypes.Char,
	"varchar":     sqltypes.VarChar,
	"text":        sqltypes.VarChar,
	"name":        sqltypes.VarChar,
	"citext":      sqltypes.VarChar,
	"date":        sqltypes.Date,
	"time":        sqltypes.Time,
	"timetz":      sqltypes.Time,
	"timestamp":   sqltypes.Timestamp,
	"timestamptz": sqltypes.Timestamp,
	"bytea":       sqltypes.Binary,
	"xml":         sqltypes.SQLXML,
	"refcursor":   sqltypes.RefCursor,
}

func postgresTypeCode(typeName string) sqltypes.Code {
	name := strings.ToLower(typeName)
	if c, ok := postgresTypeCodes[name]; ok {
		return c
	}
	if strings.HasPrefix(name, "_") {
		return sqltypes.Array
	}
	return sqltypes.Other
}

func withPostgresCodes(rows []Row) []Row {
	for _, r := range rows {
		name, _ := r.String(LabelTypeName)
		r[LabelDataType] = int(postgresTypeCode(name))
	}
	return rows
}

func (m *postgresMeta) TypeInfo(ctx context.Context) ([]Row, error) {
	query := `
		SELECT t.typname AS "TYPE_NAME"
		FROM pg_catalog.pg_type t
		JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
		WHERE t.typtype IN ('b', 'e', 'd')
			AND n.nspname NOT IN ('information_schema')
		ORDER BY t.typname
	`

	rows, err := m.q.query(ctx, query)
	if err != nil {
		return nil, err
	}
	return withPostgresCodes(rows), nil
}

func (m *postgresMeta) Schemas(ctx context.Context) ([]Row, error) {
	query := `
		SELECT nspname AS "TABLE_SCHEM", current_database() AS "TABLE_CATALOG"
		FROM pg_catalog.pg_namespace
		WHERE nspname NOT LIKE 'pg_toast%' AND nspname NOT LIKE 'pg_temp%'
		ORDER BY nspname
	`
	return m.q.query(ctx, query)
}

// Catalogs yields nothing: a PostgreSQL connection is bound to one database,
// which is not a schema of its own.
func (m *postgresMeta) Catalogs(context.Context) ([]Row, error) {
	return nil, nil
}

func (m *postgresMeta) Tables(ctx context.Context, _, schemaPattern, tablePattern string, types []string) ([]Row, error) {
	query := `
		SELECT
			current_database() AS "TABLE_CAT",
			n.nspname AS "TABLE_SCHEM",
			c.relname AS "TABLE_NAME",
			CASE WHEN c.relkind IN ('v', 'm') THEN 'VIEW' ELSE 'TABLE' END AS "TABLE_TYPE"
		FROM pg_catalog.pg_class c
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind IN ('r', 'p', 'v', 'm')
			AND ($1::text = '' OR n.nspname LIKE $1)
			AND ($2::text = '' OR c.relname LIKE $2)
		ORDER BY n.nspname, c.relname
	`

	rows, err := m.q.query(ctx, query, schemaPattern, tablePattern)
	if err != nil {
		return nil, err
	}
	return filterTableTypes(rows, types), nil
}

func (m *postgresMeta) Columns(ctx context.Context, _, schemaPattern, table string) ([]Row, error) {
	query := `
		SELECT
			c.table_catalog AS "TABLE_CAT",
			c.table_schema AS "TABLE_SCHEM",
			c.table_name AS "TABLE_NAME",
			c.column_name AS "COLUMN_NAME",
			c.udt_name AS "TYPE_NAME",
			COALESCE(c.character_maximum_length, c.numeric_precision, c.datetime_precision, 0)::int AS "COLUMN_SIZE",
			COALESCE(c.numeric_scale, 0)::int AS "DECIMAL_DIGITS",
			CASE WHEN c.is_nullable = 'YES' THEN 1 ELSE 0 END AS "NULLABLE",
			c.ordinal_position::int AS "ORDINAL_POSITION",
			CASE WHEN c.column_default LIKE 'nextval(%' OR c.is_identity = 'YES' THEN 'YES' ELSE 'NO' END AS "IS_AUTOINCREMENT",
			CASE WHEN c.is_generated = 'ALWAYS' THEN 'YES' ELSE 'NO' END AS "IS_GENERATEDCOLUMN"
		FROM information_schema.columns c
		WHERE ($1::text = '' OR c.table_schema LIKE $1)
			AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := m.q.query(ctx, query, schemaPattern, table)
	if err != nil {
		return nil, err
	}
	return withPostgresCodes(rows), nil
}

func (m *postgresMeta) IndexInfo(ctx context.Context, _, schemaName, table string, unique, _ bool) ([]Row, error) {
	query := `
		SELECT
			n.nspname AS "TABLE_SCHEM",
			t.relname AS "TABLE_NAME",
			NOT ix.indisunique AS "NON_UNIQUE",
			i.relname AS "INDEX_NAME",
			k.ord::int AS "ORDINAL_POSITION",
			a.attname AS "COLUMN_NAME",
			CASE WHEN (ix.indoption[k.ord - 1] & 1) = 1 THEN 'D' ELSE 'A' END AS "ASC_OR_DESC"
		FROM pg_catalog.pg_index ix
		JOIN pg_catalog.pg_class t ON t.oid = ix.indrelid
		JOIN pg_catalog.pg_class i ON i.oid = ix.indexrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
		CROSS JOIN LATERAL unnest(ix.indkey::int2[]) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_catalog.pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		WHERE ($1::text = '' OR n.nspname = $1)
			AND t.relname = $2
			AND (NOT $3::bool OR ix.indisunique)
		ORDER BY 3, 4, 5
	`
	return m.q.query(ctx, query, schemaName, table, unique)
}

func (m *postgresMeta) PrimaryKeys(ctx context.Context, _, schemaName, table string) ([]Row, error) {
	query := `
		SELECT
			tc.table_schema AS "TABLE_SCHEM",
			tc.table_name AS "TABLE_NAME",
			kcu.column_name AS "COLUMN_NAME",
			kcu.ordinal_position::int AS "KEY_SEQ",
			tc.constraint_name AS "PK_NAME"
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND ($1::text = '' OR tc.table_schema = $1)
			AND tc.table_name = $2
		ORDER BY kcu.column_name
	`
	return m.q.query(ctx, query, schemaName, table)
}

func (m *postgresMeta) ImportedKeys(ctx context.Context, _, schemaName, table string) ([]Row, error) {
	query := `
		SELECT
			current_database() AS "PKTABLE_CAT",
			pn.nspname AS "PKTABLE_SCHEM",
			pc.relname AS "PKTABLE_NAME",
			pa.attname AS "PKCOLUMN_NAME",
			fn.nspname AS "FKTABLE_SCHEM",
			fc.relname AS "FKTABLE_NAME",
			fa.attname AS "FKCOLUMN_NAME",
			k.ord::int AS "KEY_SEQ",
			con.conname AS "FK_NAME"
		FROM pg_catalog.pg_constraint con
		JOIN pg_catalog.pg_class fc ON fc.oid = con.conrelid
		JOIN pg_catalog.pg_namespace fn ON fn.oid = fc.relnamespace
		JOIN pg_catalog.pg_class pc ON pc.oid = con.confrelid
		JOIN pg_catalog.pg_namespace pn ON pn.oid = pc.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(fk_attnum, pk_attnum, ord)
		JOIN pg_catalog.pg_attribute fa ON fa.attrelid = fc.oid AND fa.attnum = k.fk_attnum
		JOIN pg_catalog.pg_attribute pa ON pa.attrelid = pc.oid AND pa.attnum = k.pk_attnum
		WHERE con.contype = 'f'
			AND ($1::text = '' OR fn.nspname = $1)
			AND fc.relname = $2
		ORDER BY pn.nspname, pc.relname, k.ord
	`
	return m.q.query(ctx, query, schemaName, table)
}

// filterTableTypes keeps rows whose TABLE_TYPE is in types; an empty list
// keeps everything.
func filterTableTypes(rows []Row, types []string) []Row {
	if len(types) == 0 {
		return rows
	}
	keep := make(map[string]bool, len(types))
	for _, t := range types {
		keep[strings.ToUpper(t)] = true
	}
	out := rows[:0]
	for _, r := range rows {
		t, _ := r.String(LabelTableType)
		if keep[strings.ToUpper(t)] {
			out = append(out, r)
		}
	}
	return out
}
