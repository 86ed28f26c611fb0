package card

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed templates/*.xml
var EmbeddedTemplates embed.FS

// GetEmbedded returns a bundled card by name.
func GetEmbedded(name string) (*Card, error) {
	data, err := EmbeddedTemplates.ReadFile("templates/" + name + ".xml")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCard, name)
	}

	c, err := ParseString(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse bundled card %s: %w", name, err)
	}
	return c, nil
}

// ListEmbedded returns the names of all bundled cards.
func ListEmbedded() []string {
	entries, err := EmbeddedTemplates.ReadDir("templates")
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".xml") {
			names = append(names, strings.TrimSuffix(entry.Name(), ".xml"))
		}
	}
	return names
}
