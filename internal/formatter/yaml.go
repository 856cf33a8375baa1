package formatter

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/dbmeta/internal/schema"
)

// YAMLFormatter writes the project tree in the configuration file's layout,
// so the output can be pasted under a config's project key.
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a new yaml formatter
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

// Format writes the project as yaml
func (f *YAMLFormatter) Format(p *schema.Project) error {
	enc := yaml.NewEncoder(f.writer)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return err
	}
	return enc.Close()
}
