// Package typemap resolves vendor column type names onto the closed set of
// canonical types used by the code generators.
package typemap

// Type is a canonical type identifier.
type Type string

const (
	String    Type = "string"
	Decimal   Type = "decimal"
	Int8      Type = "int8"
	Int16     Type = "int16"
	Int32     Type = "int32"
	Int64     Type = "int64"
	BigInt    Type = "bigint"
	Float32   Type = "float32"
	Float64   Type = "float64"
	Bool      Type = "bool"
	Date      Type = "date"
	Time      Type = "time"
	Timestamp Type = "timestamp"
	Bytes     Type = "bytes"
	Clob      Type = "clob"
	Blob      Type = "blob"
	UUID      Type = "uuid"
	JSON      Type = "json"
	Array     Type = "array"
	// Object is the opaque fallback for types nothing could resolve.
	Object Type = "object"
)

// StandardTypes lists every canonical type. Mappings may only target these.
var StandardTypes = []Type{
	String, Decimal, Int8, Int16, Int32, Int64, BigInt, Float32, Float64,
	Bool, Date, Time, Timestamp, Bytes, Clob, Blob, UUID, JSON, Array, Object,
}

var standard = func() map[Type]bool {
	m := make(map[Type]bool, len(StandardTypes))
	for _, t := range StandardTypes {
		m[t] = true
	}
	return m
}()

// IsStandard reports whether t is one of StandardTypes.
func IsStandard(t Type) bool {
	return standard[t]
}

// ColumnInfo is the part of a column's metadata the resolver inspects.
type ColumnInfo struct {
	TypeName      string
	DataType      int
	ColumnSize    int
	DecimalDigits int
}
