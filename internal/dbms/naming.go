package dbms

import "strings"

// Naming is a vendor's naming convention: which schema names are system
// schemas never worth discovering, and how identifiers and literal values are
// written in SQL text.
type Naming struct {
	// Exclusions holds schema or catalog names skipped by discovery. They
	// are compared case-insensitively.
	Exclusions []string
	// Enclosure surrounds identifiers, e.g. a backtick or a double quote.
	Enclosure string
	// Quote surrounds literal values.
	Quote string
}

// Excluded reports whether name is one of the convention's system schemas.
func (n Naming) Excluded(name string) bool {
	for _, e := range n.Exclusions {
		if strings.EqualFold(e, name) {
			return true
		}
	}
	return false
}

// Enclose writes ident as an enclosed identifier, doubling any enclosure
// character inside it.
func (n Naming) Enclose(ident string) string {
	if n.Enclosure == "" {
		return ident
	}
	return n.Enclosure + strings.ReplaceAll(ident, n.Enclosure, n.Enclosure+n.Enclosure) + n.Enclosure
}

// QuoteValue writes v as a quoted literal.
func (n Naming) QuoteValue(v string) string {
	q := n.Quote
	if q == "" {
		q = "'"
	}
	return q + strings.ReplaceAll(v, q, q+q) + q
}

// FullName composes the qualified name of a table. An empty schema name
// yields just the enclosed table name.
func (n Naming) FullName(schemaName, table string) string {
	if schemaName == "" {
		return n.Enclose(table)
	}
	return n.Enclose(schemaName) + "." + n.Enclose(table)
}
