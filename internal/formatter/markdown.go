package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/dbmeta/internal/schema"
)

// MarkdownFormatter formats a project as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the project in markdown format
func (f *MarkdownFormatter) Format(p *schema.Project) error {
	title := p.Name
	if title == "" {
		title = p.ID
	}
	_, _ = fmt.Fprintf(f.writer, "# %s\n\n", title)

	for _, d := range p.Dbmses {
		_, _ = fmt.Fprintf(f.writer, "## %s (%s)\n\n", d.ID, d.TypeName)
		for _, s := range d.Schemas {
			_, _ = fmt.Fprintf(f.writer, "### Schema %s\n\n", s.Name)
			for _, t := range s.Tables {
				f.FormatTable(t, "####")
			}
		}
	}
	return nil
}

// FormatTable formats a single table under a heading of the given level
// (exported for use by multifile formatter)
func (f *MarkdownFormatter) FormatTable(table *schema.Table, heading string) {
	title := table.Name
	if table.View {
		title += " (view)"
	}
	_, _ = fmt.Fprintf(f.writer, "%s %s\n\n", heading, title)

	for _, col := range table.Columns {
		constraintStr := f.formatConstraints(table, col)
		if constraintStr != "" {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", col.Name, columnType(col), constraintStr)
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", col.Name, columnType(col))
		}
	}
	_, _ = fmt.Fprintln(f.writer)

	if len(table.ForeignKeys) > 0 {
		_, _ = fmt.Fprintf(f.writer, "%s# References\n\n", heading)
		for _, fk := range table.ForeignKeys {
			local, target := foreignKeyTarget(fk)
			_, _ = fmt.Fprintf(f.writer, "- %s → %s (`%s`)\n", local, target, fk.Name)
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintf(f.writer, "%s# Idx\n\n", heading)
		for _, idx := range table.Indexes {
			if idx.Unique {
				_, _ = fmt.Fprintf(f.writer, "- %s on (%s), unique\n", idx.Name, indexColumns(idx))
			} else {
				_, _ = fmt.Fprintf(f.writer, "- %s on (%s)\n", idx.Name, indexColumns(idx))
			}
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}

func (f *MarkdownFormatter) formatConstraints(table *schema.Table, col *schema.Column) string {
	var constraints []string

	if isPrimaryKey(table, col.Name) {
		constraints = append(constraints, "PK")
	}
	if !col.Nullable {
		constraints = append(constraints, "NOT NULL")
	}
	if col.AutoIncrement {
		constraints = append(constraints, "AUTO_INCREMENT")
	}

	return strings.Join(constraints, ", ")
}
