package formatter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tordrt/dbmeta/internal/schema"
)

// MultiFileFormatter writes a project to multiple files in a directory: an
// overview plus one file per table named <schema>.<table>.
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // "text" or "markdown"
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string) (*MultiFileFormatter, error) {
	if format != formatText && format != formatMarkdown {
		return nil, fmt.Errorf("multi-file output supports text and markdown, not %q", format)
	}
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
	}, nil
}

// Format writes the project to multiple files
func (f *MultiFileFormatter) Format(p *schema.Project) error {
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tables := allTables(p)
	if err := f.writeOverview(tables); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, ref := range tables {
		if err := f.writeTableFile(ref, tables); err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", ref.qualified(), err)
		}
	}

	return nil
}

func (f *MultiFileFormatter) create(name string, write func(io.Writer)) (err error) {
	file, err := os.Create(filepath.Join(f.OutputDir, name+f.getFileExtension()))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	write(file)
	return nil
}

func (f *MultiFileFormatter) writeOverview(tables []tableRef) error {
	return f.create("_overview", func(w io.Writer) {
		if f.OutputFormat == formatMarkdown {
			_, _ = fmt.Fprintf(w, "# Schema Overview\n\n")
			_, _ = fmt.Fprintf(w, "Each table has a corresponding file: `<schema>.<table>%s`\n\n", f.getFileExtension())
			_, _ = fmt.Fprintf(w, "## Tables\n\n")
		} else {
			_, _ = fmt.Fprintf(w, "SCHEMA OVERVIEW\n")
			_, _ = fmt.Fprintf(w, "Each table has a file: <schema>.<table>%s\n\n", f.getFileExtension())
		}

		for _, ref := range tables {
			if f.OutputFormat == formatMarkdown {
				_, _ = fmt.Fprintf(w, "- **%s**", ref.qualified())
			} else {
				_, _ = fmt.Fprintf(w, "%s", ref.qualified())
			}
			if targets := referencedTables(ref.table); len(targets) > 0 {
				_, _ = fmt.Fprintf(w, " (references: %s)", strings.Join(targets, ", "))
			}
			_, _ = fmt.Fprintln(w)
		}
	})
}

func referencedTables(t *schema.Table) []string {
	var targets []string
	seen := make(map[string]bool)
	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) == 0 {
			continue
		}
		name := fk.Columns[0].ForeignTableName
		if !seen[name] {
			seen[name] = true
			targets = append(targets, name)
		}
	}
	return targets
}

// writeTableFile writes a single table to its own file, followed by the keys
// of other tables that reference it.
func (f *MultiFileFormatter) writeTableFile(ref tableRef, all []tableRef) error {
	return f.create(ref.qualified(), func(w io.Writer) {
		incoming := incomingKeys(all, ref)

		if f.OutputFormat == formatMarkdown {
			NewMarkdownFormatter(w).FormatTable(ref.table, "##")
			if len(incoming) > 0 {
				_, _ = fmt.Fprintf(w, "### Referenced by\n\n")
				for _, in := range incoming {
					local, target := foreignKeyTarget(in.fk)
					_, _ = fmt.Fprintf(w, "- %s(%s) → %s\n", in.from.qualified(), local, target)
				}
				_, _ = fmt.Fprintln(w)
			}
			return
		}

		NewTextFormatter(w).FormatTable(ref.table)
		if len(incoming) > 0 {
			_, _ = fmt.Fprintln(w)
			_, _ = fmt.Fprintln(w, "  REFERENCED BY:")
			for _, in := range incoming {
				local, _ := foreignKeyTarget(in.fk)
				_, _ = fmt.Fprintf(w, "    %s(%s)\n", in.from.qualified(), local)
			}
		}
	})
}

func (f *MultiFileFormatter) getFileExtension() string {
	if f.OutputFormat == formatMarkdown {
		return ".md"
	}
	return ".txt"
}
