package dbms

import (
	"github.com/tordrt/dbmeta/internal/db"
	"github.com/tordrt/dbmeta/internal/schema"
	"github.com/tordrt/dbmeta/internal/typemap"
)

// Built-in vendor names.
const (
	PostgreSQL  = "postgres"
	CockroachDB = "cockroach"
	MySQL       = "mysql"
	MariaDB     = "mariadb"
	SQLite      = "sqlite"
	Oracle      = "oracle"
)

func builtins() []*Type {
	return []*Type{
		postgresType(PostgreSQL, OpenPostgres),
		cockroachType(),
		mysqlType(MySQL),
		mysqlType(MariaDB),
		sqliteType(),
		oracleType(),
	}
}

var postgresExtras = map[string]typemap.Type{
	"INT2":        typemap.Int16,
	"INT4":        typemap.Int32,
	"INT8":        typemap.Int64,
	"SERIAL":      typemap.Int32,
	"BIGSERIAL":   typemap.Int64,
	"FLOAT4":      typemap.Float32,
	"FLOAT8":      typemap.Float64,
	"BPCHAR":      typemap.String,
	"NAME":        typemap.String,
	"CITEXT":      typemap.String,
	"TIMESTAMPTZ": typemap.Timestamp,
	"TIMETZ":      typemap.Time,
	"BYTEA":       typemap.Bytes,
	"JSONB":       typemap.JSON,
}

func postgresType(name string, open OpenFunc) *Type {
	c := typemap.MustNewCatalog(postgresExtras)
	mustAddRule(c, typemap.BitRule("bit"))

	return &Type{
		Name: name,
		Naming: Naming{
			Exclusions: []string{"information_schema", "pg_catalog"},
			Enclosure:  `"`,
			Quote:      "'",
		},
		Catalog: c,
		Open:    open,
	}
}

func cockroachType() *Type {
	t := postgresType(CockroachDB, OpenCockroach)
	t.Naming.Exclusions = append(t.Naming.Exclusions, "crdb_internal", "pg_extension")
	// INT is 64 bits wide in CockroachDB.
	if err := t.Catalog.Put("INT", typemap.Int64); err != nil {
		panic(err)
	}
	if err := t.Catalog.Put("STRING", typemap.String); err != nil {
		panic(err)
	}
	return t
}

var mysqlExtras = map[string]typemap.Type{
	"MEDIUMINT":  typemap.Int32,
	"DATETIME":   typemap.Timestamp,
	"YEAR":       typemap.Int16,
	"TINYTEXT":   typemap.String,
	"MEDIUMTEXT": typemap.String,
	"LONGTEXT":   typemap.String,
	"TINYBLOB":   typemap.Blob,
	"MEDIUMBLOB": typemap.Blob,
	"LONGBLOB":   typemap.Blob,
	"ENUM":       typemap.String,
	"SET":        typemap.String,
	"GEOMETRY":   typemap.Bytes,
}

// mysqlType describes MySQL and MariaDB, where databases are catalogs and
// metadata calls take the database through the catalog argument.
func mysqlType(name string) *Type {
	c := typemap.MustNewCatalog(mysqlExtras)
	mustAddRule(c, typemap.BitRule("BIT"))
	mustAddRule(c, typemap.UnsignedRule())

	return &Type{
		Name: name,
		Naming: Naming{
			Exclusions: []string{"information_schema", "mysql", "performance_schema", "sys"},
			Enclosure:  "`",
			Quote:      "'",
		},
		SchemaNameColumn: db.LabelTableCat,
		CatalogLookup:    func(_ Call, s *schema.Schema) string { return s.Name },
		SchemaLookup:     func(Call, *schema.Schema) string { return "" },
		Catalog:          c,
		Open:             OpenMySQL,
	}
}

func sqliteType() *Type {
	c := typemap.MustNewCatalog(map[string]typemap.Type{
		"DATETIME": typemap.Timestamp,
	})

	entries := make([]typemap.Entry, 0, len(db.SQLiteTypes))
	for _, t := range db.SQLiteTypes {
		entries = append(entries, typemap.Entry{Name: t.Name, Code: t.Code})
	}

	return &Type{
		Name: SQLite,
		Naming: Naming{
			Enclosure: `"`,
			Quote:     "'",
		},
		DataTypes:        entries,
		SchemaNameColumn: db.LabelTableCat,
		CatalogLookup:    func(_ Call, s *schema.Schema) string { return s.Name },
		SchemaLookup:     func(Call, *schema.Schema) string { return "" },
		Catalog:          c,
		Open:             OpenSQLite,
	}
}

var oracleExtras = map[string]typemap.Type{
	"NUMBER":                         typemap.Decimal,
	"VARCHAR2":                       typemap.String,
	"NVARCHAR2":                      typemap.String,
	"LONG":                           typemap.String,
	"RAW":                            typemap.Bytes,
	"LONG RAW":                       typemap.Bytes,
	"BINARY_FLOAT":                   typemap.Float32,
	"BINARY_DOUBLE":                  typemap.Float64,
	"DATE":                           typemap.Timestamp,
	"TIMESTAMP WITH LOCAL TIME ZONE": typemap.Timestamp,
	"XMLTYPE":                        typemap.String,
}

func oracleType() *Type {
	c := typemap.MustNewCatalog(oracleExtras)
	mustAddRule(c, typemap.NumberScaleRule("NUMBER"))

	entries := make([]typemap.Entry, 0, len(db.OracleTypes))
	for _, t := range db.OracleTypes {
		entries = append(entries, typemap.Entry{Name: t.Name, Code: t.Code})
	}

	return &Type{
		Name: Oracle,
		Naming: Naming{
			Exclusions: []string{
				"ANONYMOUS", "APPQOSSYS", "AUDSYS", "CTXSYS", "DBSFWUSER", "DBSNMP",
				"DVSYS", "GGSYS", "GSMADMIN_INTERNAL", "LBACSYS", "MDSYS", "OJVMSYS",
				"OLAPSYS", "ORDDATA", "ORDSYS", "OUTLN", "SYS", "SYSTEM", "WMSYS", "XDB",
			},
			Enclosure: `"`,
			Quote:     "'",
		},
		DataTypes: entries,
		Catalog:   c,
		Open:      OpenOracle,
	}
}

func mustAddRule(c *typemap.Catalog, r typemap.Rule) {
	if err := c.AddRule(r); err != nil {
		panic(err)
	}
}
