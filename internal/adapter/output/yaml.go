package output

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats reports as YAML documents.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// Format writes each report as its own YAML document.
func (f *YAMLFormatter) Format(w io.Writer, reports []Report) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	for _, r := range reports {
		if err := encoder.Encode(r); err != nil {
			return err
		}
	}
	return encoder.Close()
}
