package db

import (
	"context"
	"strings"

	"github.com/tordrt/dbmeta/internal/sqltypes"
)

// mysqlMeta reads information_schema the way MySQL drivers report metadata:
// databases are catalogs and there are no schemas.
type mysqlMeta struct {
	q               queryer
	defaultDatabase string
}

// mysqlTypes is the type catalog reported for MySQL, which has no queryable
// type dictionary.
var mysqlTypes = []struct {
	name string
	code sqltypes.Code
}{
	{"BIT", sqltypes.Bit},
	{"BOOL", sqltypes.Bit},
	{"TINYINT", sqltypes.TinyInt},
	{"TINYINT UNSIGNED", sqltypes.TinyInt},
	{"BIGINT", sqltypes.BigInt},
	{"BIGINT UNSIGNED", sqltypes.BigInt},
	{"LONG VARBINARY", sqltypes.LongVarBinary},
	{"MEDIUMBLOB", sqltypes.LongVarBinary},
	{"LONGBLOB", sqltypes.LongVarBinary},
	{"BLOB", sqltypes.LongVarBinary},
	{"TINYBLOB", sqltypes.LongVarBinary},
	{"VARBINARY", sqltypes.VarBinary},
	{"BINARY", sqltypes.Binary},
	{"LONG VARCHAR", sqltypes.LongVarChar},
	{"MEDIUMTEXT", sqltypes.LongVarChar},
	{"LONGTEXT", sqltypes.LongVarChar},
	{"TEXT", sqltypes.LongVarChar},
	{"TINYTEXT", sqltypes.LongVarChar},
	{"CHAR", sqltypes.Char},
	{"ENUM", sqltypes.Char},
	{"SET", sqltypes.Char},
	{"NUMERIC", sqltypes.Decimal},
	{"DECIMAL", sqltypes.Decimal},
	{"INTEGER", sqltypes.Integer},
	{"INTEGER UNSIGNED", sqltypes.Integer},
	{"INT", sqltypes.Integer},
	{"INT UNSIGNED", sqltypes.Integer},
	{"MEDIUMINT", sqltypes.Integer},
	{"MEDIUMINT UNSIGNED", sqltypes.Integer},
	{"SMALLINT", sqltypes.SmallInt},
	{"SMALLINT UNSIGNED", sqltypes.SmallInt},
	{"FLOAT", sqltypes.Real},
	{"DOUBLE", sqltypes.Double},
	{"DOUBLE PRECISION", sqltypes.Double},
	{"REAL", sqltypes.Double},
	{"VARCHAR", sqltypes.VarChar},
	{"DATE", sqltypes.Date},
	{"YEAR", sqltypes.Date},
	{"TIME", sqltypes.Time},
	{"DATETIME", sqltypes.Timestamp},
	{"TIMESTAMP", sqltypes.Timestamp},
	{"JSON", sqltypes.LongVarChar},
	{"GEOMETRY", sqltypes.Binary},
}

func mysqlTypeCode(typeName string) sqltypes.Code {
	name := strings.ToUpper(typeName)
	for _, t := range mysqlTypes {
		if t.name == name {
			return t.code
		}
	}
	return sqltypes.Other
}

func (m *mysqlMeta) TypeInfo(context.Context) ([]Row, error) {
	rows := make([]Row, 0, len(mysqlTypes))
	for _, t := range mysqlTypes {
		rows = append(rows, Row{LabelTypeName: t.name, LabelDataType: int(t.code)})
	}
	return rows, nil
}

func (m *mysqlMeta) Schemas(context.Context) ([]Row, error) {
	return nil, nil
}

func (m *mysqlMeta) Catalogs(ctx context.Context) ([]Row, error) {
	query := `
		SELECT schema_name AS TABLE_CAT
		FROM information_schema.schemata
		ORDER BY schema_name
	`
	return m.q.query(ctx, query)
}

// database picks the database a call is about: the catalog argument, then
// the schema argument, then the DSN's database.
func (m *mysqlMeta) database(catalog, schemaName string) string {
	switch {
	case catalog != "":
		return catalog
	case schemaName != "":
		return schemaName
	}
	return m.defaultDatabase
}

func (m *mysqlMeta) Tables(ctx context.Context, catalog, schemaPattern, tablePattern string, types []string) ([]Row, error) {
	query := `
		SELECT
			table_schema AS TABLE_CAT,
			NULL AS TABLE_SCHEM,
			table_name AS TABLE_NAME,
			CASE WHEN table_type = 'VIEW' THEN 'VIEW' ELSE 'TABLE' END AS TABLE_TYPE
		FROM information_schema.tables
		WHERE table_schema = ?
			AND (? = '' OR table_name LIKE ?)
		ORDER BY table_name
	`

	rows, err := m.q.query(ctx, query, m.database(catalog, schemaPattern), tablePattern, tablePattern)
	if err != nil {
		return nil, err
	}
	return filterTableTypes(rows, types), nil
}

func (m *mysqlMeta) Columns(ctx context.Context, catalog, schemaPattern, table string) ([]Row, error) {
	query := `
		SELECT
			c.table_schema AS TABLE_CAT,
			c.table_name AS TABLE_NAME,
			c.column_name AS COLUMN_NAME,
			CASE WHEN c.column_type LIKE '%unsigned%'
				THEN CONCAT(UPPER(c.data_type), ' UNSIGNED')
				ELSE UPPER(c.data_type) END AS TYPE_NAME,
			CAST(COALESCE(c.character_maximum_length, c.numeric_precision, c.datetime_precision, 0) AS SIGNED) AS COLUMN_SIZE,
			CAST(COALESCE(c.numeric_scale, 0) AS SIGNED) AS DECIMAL_DIGITS,
			CASE WHEN c.is_nullable = 'YES' THEN 1 ELSE 0 END AS NULLABLE,
			c.ordinal_position AS ORDINAL_POSITION,
			CASE WHEN c.extra LIKE '%auto_increment%' THEN 'YES' ELSE 'NO' END AS IS_AUTOINCREMENT,
			CASE WHEN c.extra LIKE '%GENERATED%' THEN 'YES' ELSE 'NO' END AS IS_GENERATEDCOLUMN
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position
	`

	rows, err := m.q.query(ctx, query, m.database(catalog, schemaPattern), table)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		name, _ := r.String(LabelTypeName)
		r[LabelDataType] = int(mysqlTypeCode(name))
	}
	return rows, nil
}

func (m *mysqlMeta) IndexInfo(ctx context.Context, catalog, schemaName, table string, unique, _ bool) ([]Row, error) {
	query := `
		SELECT
			s.table_schema AS TABLE_CAT,
			s.table_name AS TABLE_NAME,
			s.non_unique AS NON_UNIQUE,
			s.index_name AS INDEX_NAME,
			s.seq_in_index AS ORDINAL_POSITION,
			s.column_name AS COLUMN_NAME,
			s.collation AS ASC_OR_DESC
		FROM information_schema.statistics s
		WHERE s.table_schema = ? AND s.table_name = ?
			AND (? = 0 OR s.non_unique = 0)
		ORDER BY s.non_unique, s.index_name, s.seq_in_index
	`

	onlyUnique := 0
	if unique {
		onlyUnique = 1
	}
	return m.q.query(ctx, query, m.database(catalog, schemaName), table, onlyUnique)
}

func (m *mysqlMeta) PrimaryKeys(ctx context.Context, catalog, schemaName, table string) ([]Row, error) {
	query := `
		SELECT
			s.table_schema AS TABLE_CAT,
			s.table_name AS TABLE_NAME,
			s.column_name AS COLUMN_NAME,
			s.seq_in_index AS KEY_SEQ,
			s.index_name AS PK_NAME
		FROM information_schema.statistics s
		WHERE s.table_schema = ? AND s.table_name = ?
			AND s.index_name = 'PRIMARY'
		ORDER BY s.column_name
	`
	return m.q.query(ctx, query, m.database(catalog, schemaName), table)
}

func (m *mysqlMeta) ImportedKeys(ctx context.Context, catalog, schemaName, table string) ([]Row, error) {
	query := `
		SELECT
			kcu.referenced_table_schema AS PKTABLE_CAT,
			NULL AS PKTABLE_SCHEM,
			kcu.referenced_table_name AS PKTABLE_NAME,
			kcu.referenced_column_name AS PKCOLUMN_NAME,
			kcu.table_schema AS FKTABLE_CAT,
			kcu.table_name AS FKTABLE_NAME,
			kcu.column_name AS FKCOLUMN_NAME,
			kcu.ordinal_position AS KEY_SEQ,
			kcu.constraint_name AS FK_NAME
		FROM information_schema.key_column_usage kcu
		WHERE kcu.table_schema = ?
			AND kcu.table_name = ?
			AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.referenced_table_name, kcu.ordinal_position
	`
	return m.q.query(ctx, query, m.database(catalog, schemaName), table)
}
