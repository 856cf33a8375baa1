package typemap

import "github.com/tordrt/dbmeta/internal/sqltypes"

// Source names the layer that produced a resolution.
type Source string

const (
	FromRule    Source = "rule"
	FromCatalog Source = "catalog"
	FromMapping Source = "mapping"
	FromCode    Source = "code"
)

// Resolution is the outcome of Resolve.
type Resolution struct {
	Type   Type
	Source Source
	// Rule is the name of the deciding rule when Source is FromRule.
	Rule string
}

// Resolve maps a column onto a canonical type. The first layer to answer
// wins:
//
//  1. override rules, in registration order
//  2. the catalog (ad hoc overrides, then baseline)
//  3. the discovered mapping, by vendor type name
//  4. the discovered mapping, by the canonical name of the SQL type code
//
// Resolve returns false when nothing matched; the caller falls back to Object.
// Resolving seals the catalog against further rule registration.
func (c *Catalog) Resolve(m *Mapping, col ColumnInfo) (Resolution, bool) {
	for _, r := range c.seal() {
		if t, ok := r.Apply(col); ok {
			return Resolution{Type: t, Source: FromRule, Rule: r.Name}, true
		}
	}
	if t, ok := c.Get(col.TypeName); ok {
		return Resolution{Type: t, Source: FromCatalog}, true
	}
	if t, ok := m.Lookup(col.TypeName); ok {
		return Resolution{Type: t, Source: FromMapping}, true
	}
	if name, ok := sqltypes.Code(col.DataType).Name(); ok {
		if t, ok := m.Lookup(name); ok {
			return Resolution{Type: t, Source: FromCode}, true
		}
	}
	return Resolution{Type: Object}, false
}

// BitRule maps single-bit BIT columns to Bool and BIT columns wider than 31
// bits to Int64, leaving other widths to the catalog.
func BitRule(typeName string) Rule {
	return Rule{
		Name: "bit-width",
		Apply: func(col ColumnInfo) (Type, bool) {
			if normalize(col.TypeName) != normalize(typeName) {
				return "", false
			}
			switch {
			case col.ColumnSize <= 1:
				return Bool, true
			case col.ColumnSize > 31:
				return Int64, true
			}
			return "", false
		},
	}
}

// UnsignedRule widens unsigned integer columns one step so their full range
// fits, e.g. "INT UNSIGNED" becomes Int64.
func UnsignedRule() Rule {
	widen := map[string]Type{
		"TINYINT UNSIGNED":   Int16,
		"SMALLINT UNSIGNED":  Int32,
		"MEDIUMINT UNSIGNED": Int32,
		"INT UNSIGNED":       Int64,
		"INTEGER UNSIGNED":   Int64,
		"BIGINT UNSIGNED":    BigInt,
	}
	return Rule{
		Name: "unsigned-width",
		Apply: func(col ColumnInfo) (Type, bool) {
			t, ok := widen[normalize(col.TypeName)]
			return t, ok
		},
	}
}

// NumberScaleRule narrows exact numeric columns declared without a
// fractional part onto integer types, as Oracle reports integers as
// NUMBER(p,0).
func NumberScaleRule(typeName string) Rule {
	return Rule{
		Name: "number-scale",
		Apply: func(col ColumnInfo) (Type, bool) {
			if normalize(col.TypeName) != normalize(typeName) || col.DecimalDigits != 0 || col.ColumnSize <= 0 {
				return "", false
			}
			switch {
			case col.ColumnSize <= 9:
				return Int32, true
			case col.ColumnSize <= 18:
				return Int64, true
			}
			return BigInt, true
		},
	}
}
