package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/dbmeta/internal/schema"
)

// TextFormatter formats a project as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the project in compact text format
func (f *TextFormatter) Format(p *schema.Project) error {
	for i, d := range p.Dbmses {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer)
		}
		_, _ = fmt.Fprintf(f.writer, "DBMS %s (%s)\n", d.ID, d.TypeName)
		for _, s := range d.Schemas {
			_, _ = fmt.Fprintf(f.writer, "\nSCHEMA %s\n", s.Name)
			for _, t := range s.Tables {
				_, _ = fmt.Fprintln(f.writer) // Blank line between tables
				f.FormatTable(t)
			}
		}
	}
	return nil
}

// FormatTable writes a single table (exported for use by multifile formatter)
func (f *TextFormatter) FormatTable(table *schema.Table) {
	kind := "TABLE"
	if table.View {
		kind = "VIEW"
	}
	pkStr := ""
	if pks := primaryKeyNames(table); len(pks) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(pks, ", "))
	}
	_, _ = fmt.Fprintf(f.writer, "%s %s%s\n", kind, table.Name, pkStr)

	for _, col := range table.Columns {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", f.formatColumn(col))
	}

	if len(table.ForeignKeys) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  FOREIGN KEYS:")
		for _, fk := range table.ForeignKeys {
			local, target := foreignKeyTarget(fk)
			_, _ = fmt.Fprintf(f.writer, "    %s (%s) → %s\n", fk.Name, local, target)
		}
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  INDEXES:")
		for _, idx := range table.Indexes {
			unique := ""
			if idx.Unique {
				unique = " UNIQUE"
			}
			_, _ = fmt.Fprintf(f.writer, "    %s (%s)%s\n", idx.Name, indexColumns(idx), unique)
		}
	}
}

func (f *TextFormatter) formatColumn(col *schema.Column) string {
	parts := []string{col.Name + ":", columnType(col)}

	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if col.AutoIncrement {
		parts = append(parts, "AUTO_INCREMENT")
	}

	return strings.Join(parts, " ")
}
