package db

import (
	"context"
	"strings"

	"github.com/tordrt/dbmeta/internal/sqltypes"
)

// oracleMeta reads the ALL_* dictionary views. Oracle has schemas (users)
// but no catalogs, and its schema rows carry no catalog column.
type oracleMeta struct {
	q queryer
}

// OracleTypes is the type set reported for Oracle.
var OracleTypes = []struct {
	Name string
	Code sqltypes.Code
}{
	{"NUMBER", sqltypes.Numeric},
	{"FLOAT", sqltypes.Float},
	{"BINARY_FLOAT", sqltypes.Real},
	{"BINARY_DOUBLE", sqltypes.Double},
	{"CHAR", sqltypes.Char},
	{"NCHAR", sqltypes.NChar},
	{"VARCHAR2", sqltypes.VarChar},
	{"NVARCHAR2", sqltypes.NVarChar},
	{"LONG", sqltypes.LongVarChar},
	{"RAW", sqltypes.VarBinary},
	{"LONG RAW", sqltypes.LongVarBinary},
	{"DATE", sqltypes.Timestamp},
	{"TIMESTAMP", sqltypes.Timestamp},
	{"TIMESTAMP WITH TIME ZONE", sqltypes.TimestampWithTimezone},
	{"TIMESTAMP WITH LOCAL TIME ZONE", sqltypes.Timestamp},
	{"CLOB", sqltypes.Clob},
	{"NCLOB", sqltypes.NClob},
	{"BLOB", sqltypes.Blob},
	{"ROWID", sqltypes.RowID},
	{"XMLTYPE", sqltypes.SQLXML},
}

// oracleTypeName drops the precision Oracle embeds in some type names, so
// "TIMESTAMP(6) WITH TIME ZONE" reads as "TIMESTAMP WITH TIME ZONE".
func oracleTypeName(raw string) string {
	name := strings.ToUpper(raw)
	for {
		open := strings.IndexByte(name, '(')
		if open < 0 {
			break
		}
		end := strings.IndexByte(name[open:], ')')
		if end < 0 {
			break
		}
		name = name[:open] + name[open+end+1:]
	}
	return strings.Join(strings.Fields(name), " ")
}

func oracleTypeCode(typeName string) sqltypes.Code {
	for _, t := range OracleTypes {
		if t.Name == typeName {
			return t.Code
		}
	}
	return sqltypes.Other
}

func (m *oracleMeta) TypeInfo(context.Context) ([]Row, error) {
	rows := make([]Row, 0, len(OracleTypes))
	for _, t := range OracleTypes {
		rows = append(rows, Row{LabelTypeName: t.Name, LabelDataType: int(t.Code)})
	}
	return rows, nil
}

func (m *oracleMeta) Schemas(ctx context.Context) ([]Row, error) {
	query := `
		SELECT USERNAME AS TABLE_SCHEM
		FROM ALL_USERS
		ORDER BY USERNAME`
	return m.q.query(ctx, query)
}

func (m *oracleMeta) Catalogs(context.Context) ([]Row, error) {
	return nil, nil
}

func (m *oracleMeta) Tables(ctx context.Context, _, schemaPattern, tablePattern string, types []string) ([]Row, error) {
	query := `
		SELECT NULL AS TABLE_CAT, OWNER AS TABLE_SCHEM, TABLE_NAME, 'TABLE' AS TABLE_TYPE
		FROM ALL_TABLES
		WHERE OWNER LIKE :1 AND TABLE_NAME LIKE :2
		UNION ALL
		SELECT NULL, OWNER, VIEW_NAME, 'VIEW'
		FROM ALL_VIEWS
		WHERE OWNER LIKE :3 AND VIEW_NAME LIKE :4
		ORDER BY 2, 3`

	schemaLike, tableLike := likeAll(schemaPattern), likeAll(tablePattern)
	rows, err := m.q.query(ctx, query, schemaLike, tableLike, schemaLike, tableLike)
	if err != nil {
		return nil, err
	}
	return filterTableTypes(rows, types), nil
}

func (m *oracleMeta) Columns(ctx context.Context, _, schemaPattern, table string) ([]Row, error) {
	query := `
		SELECT
			OWNER AS TABLE_SCHEM,
			TABLE_NAME,
			COLUMN_NAME,
			DATA_TYPE AS TYPE_NAME,
			NVL(DATA_PRECISION, CASE WHEN DATA_TYPE = 'NUMBER' THEN 0 ELSE CHAR_LENGTH END) AS COLUMN_SIZE,
			NVL(DATA_SCALE, 0) AS DECIMAL_DIGITS,
			CASE WHEN NULLABLE = 'Y' THEN 1 ELSE 0 END AS NULLABLE,
			COLUMN_ID AS ORDINAL_POSITION,
			IDENTITY_COLUMN AS IS_AUTOINCREMENT,
			VIRTUAL_COLUMN AS IS_GENERATEDCOLUMN
		FROM ALL_TAB_COLS
		WHERE OWNER LIKE :1 AND TABLE_NAME = :2 AND HIDDEN_COLUMN = 'NO'
		ORDER BY COLUMN_ID`

	rows, err := m.q.query(ctx, query, likeAll(schemaPattern), table)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		raw, _ := r.String(LabelTypeName)
		name := oracleTypeName(raw)
		r[LabelTypeName] = name
		r[LabelDataType] = int(oracleTypeCode(name))
	}
	return rows, nil
}

// IndexInfo reports a leading statistics row with no index name, followed by
// one row per indexed column.
func (m *oracleMeta) IndexInfo(ctx context.Context, _, schemaName, table string, unique, _ bool) ([]Row, error) {
	query := `
		SELECT
			t.OWNER AS TABLE_SCHEM, t.TABLE_NAME, 0 AS NON_UNIQUE,
			NULL AS INDEX_NAME, 0 AS ORDINAL_POSITION, NULL AS COLUMN_NAME,
			NULL AS ASC_OR_DESC, 0 AS SORT_KEY
		FROM ALL_TABLES t
		WHERE t.OWNER = :1 AND t.TABLE_NAME = :2
		UNION ALL
		SELECT
			i.TABLE_OWNER, i.TABLE_NAME,
			CASE WHEN i.UNIQUENESS = 'UNIQUE' THEN 0 ELSE 1 END,
			i.INDEX_NAME, c.COLUMN_POSITION, c.COLUMN_NAME,
			CASE WHEN c.DESCEND = 'DESC' THEN 'D' ELSE 'A' END, 1
		FROM ALL_INDEXES i
		JOIN ALL_IND_COLUMNS c ON c.INDEX_OWNER = i.OWNER AND c.INDEX_NAME = i.INDEX_NAME
		WHERE i.TABLE_OWNER = :3 AND i.TABLE_NAME = :4
			AND (:5 = 0 OR i.UNIQUENESS = 'UNIQUE')
		ORDER BY 8, 3, 4, 5`

	onlyUnique := 0
	if unique {
		onlyUnique = 1
	}
	rows, err := m.q.query(ctx, query, schemaName, table, schemaName, table, onlyUnique)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		delete(r, "SORT_KEY")
	}
	return rows, nil
}

func (m *oracleMeta) PrimaryKeys(ctx context.Context, _, schemaName, table string) ([]Row, error) {
	query := `
		SELECT
			c.OWNER AS TABLE_SCHEM,
			c.TABLE_NAME,
			cc.COLUMN_NAME,
			cc.POSITION AS KEY_SEQ,
			c.CONSTRAINT_NAME AS PK_NAME
		FROM ALL_CONSTRAINTS c
		JOIN ALL_CONS_COLUMNS cc ON cc.OWNER = c.OWNER AND cc.CONSTRAINT_NAME = c.CONSTRAINT_NAME
		WHERE c.CONSTRAINT_TYPE = 'P' AND c.OWNER = :1 AND c.TABLE_NAME = :2
		ORDER BY cc.COLUMN_NAME`
	return m.q.query(ctx, query, schemaName, table)
}

func (m *oracleMeta) ImportedKeys(ctx context.Context, _, schemaName, table string) ([]Row, error) {
	query := `
		SELECT
			NULL AS PKTABLE_CAT,
			pk.OWNER AS PKTABLE_SCHEM,
			pk.TABLE_NAME AS PKTABLE_NAME,
			pkc.COLUMN_NAME AS PKCOLUMN_NAME,
			fk.OWNER AS FKTABLE_SCHEM,
			fk.TABLE_NAME AS FKTABLE_NAME,
			fkc.COLUMN_NAME AS FKCOLUMN_NAME,
			fkc.POSITION AS KEY_SEQ,
			fk.CONSTRAINT_NAME AS FK_NAME
		FROM ALL_CONSTRAINTS fk
		JOIN ALL_CONS_COLUMNS fkc ON fkc.OWNER = fk.OWNER AND fkc.CONSTRAINT_NAME = fk.CONSTRAINT_NAME
		JOIN ALL_CONSTRAINTS pk ON pk.OWNER = fk.R_OWNER AND pk.CONSTRAINT_NAME = fk.R_CONSTRAINT_NAME
		JOIN ALL_CONS_COLUMNS pkc ON pkc.OWNER = pk.OWNER AND pkc.CONSTRAINT_NAME = pk.CONSTRAINT_NAME
			AND pkc.POSITION = fkc.POSITION
		WHERE fk.CONSTRAINT_TYPE = 'R' AND fk.OWNER = :1 AND fk.TABLE_NAME = :2
		ORDER BY pk.OWNER, pk.TABLE_NAME, fkc.POSITION`
	return m.q.query(ctx, query, schemaName, table)
}

// likeAll turns an empty pattern into a LIKE pattern matching everything.
func likeAll(pattern string) string {
	if pattern == "" {
		return "%"
	}
	return pattern
}
