// Package sqltypes holds the vendor-neutral SQL type codes reported in the
// DATA_TYPE column of metadata result sets. The numbering follows the JDBC
// java.sql.Types constants so codes reported by any driver line up.
package sqltypes

import "strings"

// Code is a vendor-neutral SQL type code.
type Code int

const (
	Bit                   Code = -7
	TinyInt               Code = -6
	SmallInt              Code = 5
	Integer               Code = 4
	BigInt                Code = -5
	Float                 Code = 6
	Real                  Code = 7
	Double                Code = 8
	Numeric               Code = 2
	Decimal               Code = 3
	Char                  Code = 1
	VarChar               Code = 12
	LongVarChar           Code = -1
	Date                  Code = 91
	Time                  Code = 92
	Timestamp             Code = 93
	Binary                Code = -2
	VarBinary             Code = -3
	LongVarBinary         Code = -4
	Null                  Code = 0
	Other                 Code = 1111
	JavaObject            Code = 2000
	Distinct              Code = 2001
	Struct                Code = 2002
	Array                 Code = 2003
	Blob                  Code = 2004
	Clob                  Code = 2005
	Ref                   Code = 2006
	DataLink              Code = 70
	Boolean               Code = 16
	RowID                 Code = -8
	NChar                 Code = -15
	NVarChar              Code = -9
	LongNVarChar          Code = -16
	NClob                 Code = 2011
	SQLXML                Code = 2009
	RefCursor             Code = 2012
	TimeWithTimezone      Code = 2013
	TimestampWithTimezone Code = 2014
)

var names = map[Code]string{
	Bit:                   "BIT",
	TinyInt:               "TINYINT",
	SmallInt:              "SMALLINT",
	Integer:               "INTEGER",
	BigInt:                "BIGINT",
	Float:                 "FLOAT",
	Real:                  "REAL",
	Double:                "DOUBLE",
	Numeric:               "NUMERIC",
	Decimal:               "DECIMAL",
	Char:                  "CHAR",
	VarChar:               "VARCHAR",
	LongVarChar:           "LONGVARCHAR",
	Date:                  "DATE",
	Time:                  "TIME",
	Timestamp:             "TIMESTAMP",
	Binary:                "BINARY",
	VarBinary:             "VARBINARY",
	LongVarBinary:         "LONGVARBINARY",
	Null:                  "NULL",
	Other:                 "OTHER",
	JavaObject:            "JAVA_OBJECT",
	Distinct:              "DISTINCT",
	Struct:                "STRUCT",
	Array:                 "ARRAY",
	Blob:                  "BLOB",
	Clob:                  "CLOB",
	Ref:                   "REF",
	DataLink:              "DATALINK",
	Boolean:               "BOOLEAN",
	RowID:                 "ROWID",
	NChar:                 "NCHAR",
	NVarChar:              "NVARCHAR",
	LongNVarChar:          "LONGNVARCHAR",
	NClob:                 "NCLOB",
	SQLXML:                "SQLXML",
	RefCursor:             "REF_CURSOR",
	TimeWithTimezone:      "TIME_WITH_TIMEZONE",
	TimestampWithTimezone: "TIMESTAMP_WITH_TIMEZONE",
}

var codes = func() map[string]Code {
	m := make(map[string]Code, len(names))
	for c, n := range names {
		m[n] = c
	}
	return m
}()

// Name returns the canonical type name for c, or false if c is not a known code.
func (c Code) Name() (string, bool) {
	n, ok := names[c]
	return n, ok
}

// String implements fmt.Stringer.
func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "UNKNOWN"
}

// Lookup returns the code for a canonical type name. The match is case-insensitive.
func Lookup(name string) (Code, bool) {
	c, ok := codes[strings.ToUpper(strings.TrimSpace(name))]
	return c, ok
}

// Nullability codes reported in the NULLABLE column.
const (
	NoNulls         = 0
	Nullable        = 1
	NullableUnknown = 2
)
