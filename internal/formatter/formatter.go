// Package formatter renders a discovered project for humans and tools.
package formatter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tordrt/dbmeta/internal/schema"
)

const (
	formatMarkdown = "markdown"
	formatText     = "text"
	formatYAML     = "yaml"
)

// Formats lists the accepted output format names.
var Formats = []string{formatText, formatMarkdown, formatYAML}

// Formatter writes a project in one output format.
type Formatter interface {
	Format(p *schema.Project) error
}

// New returns the single-stream formatter for format.
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case formatText:
		return NewTextFormatter(w), nil
	case formatMarkdown:
		return NewMarkdownFormatter(w), nil
	case formatYAML:
		return NewYAMLFormatter(w), nil
	}
	return nil, fmt.Errorf("unknown format %q (supported: %s)", format, strings.Join(Formats, ", "))
}

// tableRef is a table together with the name of its schema.
type tableRef struct {
	schema string
	table  *schema.Table
}

func (r tableRef) qualified() string {
	return r.schema + "." + r.table.Name
}

// allTables lists every table of p sorted by schema then table name.
func allTables(p *schema.Project) []tableRef {
	var refs []tableRef
	for _, d := range p.Dbmses {
		for _, s := range d.Schemas {
			for _, t := range s.Tables {
				refs = append(refs, tableRef{schema: s.Name, table: t})
			}
		}
	}
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].schema != refs[j].schema {
			return refs[i].schema < refs[j].schema
		}
		return refs[i].table.Name < refs[j].table.Name
	})
	return refs
}

func primaryKeyNames(t *schema.Table) []string {
	pks := append([]*schema.PrimaryKeyColumn(nil), t.PrimaryKeyColumns...)
	sort.SliceStable(pks, func(i, j int) bool { return pks[i].OrdinalPosition < pks[j].OrdinalPosition })
	names := make([]string, len(pks))
	for i, pk := range pks {
		names[i] = pk.Name
	}
	return names
}

func isPrimaryKey(t *schema.Table, column string) bool {
	for _, pk := range t.PrimaryKeyColumns {
		if pk.Name == column {
			return true
		}
	}
	return false
}

// columnType renders the canonical type followed by the vendor type it was
// resolved from, e.g. "decimal [NUMERIC(10,2)]".
func columnType(c *schema.Column) string {
	s := c.DatabaseType
	if c.TypeName != "" {
		vendor := c.TypeName
		switch {
		case c.ColumnSize > 0 && c.DecimalDigits > 0:
			vendor = fmt.Sprintf("%s(%d,%d)", vendor, c.ColumnSize, c.DecimalDigits)
		case c.ColumnSize > 0:
			vendor = fmt.Sprintf("%s(%d)", vendor, c.ColumnSize)
		}
		s += " [" + vendor + "]"
	}
	if len(c.EnumConstants) > 0 {
		s += fmt.Sprintf(" (%s)", strings.Join(c.EnumConstants, "|"))
	}
	return s
}

func indexColumns(idx *schema.Index) string {
	parts := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		parts[i] = c.Name
		if c.OrderType == schema.OrderDesc {
			parts[i] += " DESC"
		}
	}
	return strings.Join(parts, ", ")
}

// foreignKeyTarget renders the local and referenced columns of fk.
func foreignKeyTarget(fk *schema.ForeignKey) (local, target string) {
	var from, to []string
	table := ""
	for _, c := range fk.Columns {
		from = append(from, c.Name)
		to = append(to, c.ForeignColumnName)
		table = c.ForeignTableName
		if c.ForeignSchemaName != "" {
			table = c.ForeignSchemaName + "." + c.ForeignTableName
		}
	}
	return strings.Join(from, ", "), fmt.Sprintf("%s(%s)", table, strings.Join(to, ", "))
}

// incomingKey is a foreign key of another table pointing at a table.
type incomingKey struct {
	from tableRef
	fk   *schema.ForeignKey
}

func incomingKeys(all []tableRef, target tableRef) []incomingKey {
	var in []incomingKey
	for _, ref := range all {
		for _, fk := range ref.table.ForeignKeys {
			if len(fk.Columns) == 0 {
				continue
			}
			c := fk.Columns[0]
			schemaName := c.ForeignSchemaName
			if schemaName == "" {
				schemaName = ref.schema
			}
			if c.ForeignTableName == target.table.Name && schemaName == target.schema {
				in = append(in, incomingKey{from: ref, fk: fk})
			}
		}
	}
	return in
}
