package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize/english"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/hovercard/internal/card"
)

// WriteCards lists catalog cards in the given format.
func WriteCards(w io.Writer, format FormatType, cards []*card.Card) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cards)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(cards); err != nil {
			return err
		}
		return encoder.Close()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTITLE\tSIZE\tFIELDS")
	for _, c := range cards {
		names := make([]string, len(c.Fields))
		for i, f := range c.Fields {
			names[i] = f.Name
			if f.Required {
				names[i] += "*"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%s: %s\n", c.Name, c.Title, c.Width, c.Height,
			english.Plural(len(names), "field", ""), strings.Join(names, ","))
	}
	return tw.Flush()
}

// WriteNames lists card names only, as reported by a remote service.
func WriteNames(w io.Writer, format FormatType, names []string) error {
	if names == nil {
		names = []string{}
	}
	switch format {
	case FormatJSON:
		return json.NewEncoder(w).Encode(names)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(names); err != nil {
			return err
		}
		return encoder.Close()
	}

	for _, n := range names {
		if _, err := fmt.Fprintln(w, n); err != nil {
			return err
		}
	}
	return nil
}
