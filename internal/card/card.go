// Package card describes the hover cards shown for each kind of writing
// (apology letter, essay, speech, ...). Cards are XML templates that declare
// the popover footprint and the form fields the popover presents.
package card

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jmylchreest/hovercard/internal/placement"
)

// Minimum popover footprint a card may declare.
const (
	MinWidth  = 10
	MinHeight = 3
)

// ErrUnknownCard is returned when a card name is not in the catalog.
var ErrUnknownCard = errors.New("unknown card")

// FieldKind identifies the input type of a form field.
type FieldKind string

const (
	FieldKindText     FieldKind = "text"
	FieldKindTextarea FieldKind = "textarea"
	FieldKindSelect   FieldKind = "select"
	FieldKindDate     FieldKind = "date"
	FieldKindNumber   FieldKind = "number"
)

// ValidFieldKinds maps kind names to field kinds.
var ValidFieldKinds = map[string]FieldKind{
	"text":     FieldKindText,
	"textarea": FieldKindTextarea,
	"select":   FieldKindSelect,
	"date":     FieldKindDate,
	"number":   FieldKindNumber,
}

// Field is one form input on a card.
type Field struct {
	Name     string    `json:"name" yaml:"name"`
	Label    string    `json:"label" yaml:"label"`
	Kind     FieldKind `json:"kind" yaml:"kind"`
	Options  []string  `json:"options,omitempty" yaml:"options,omitempty"`
	Required bool      `json:"required,omitempty" yaml:"required,omitempty"`
}

// Card is a parsed hover-card template.
type Card struct {
	Name        string  `json:"name" yaml:"name"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Width       int     `json:"width" yaml:"width"`
	Height      int     `json:"height" yaml:"height"`
	Fields      []Field `json:"fields" yaml:"fields"`
}

// Size returns the popover footprint declared by the card.
func (c *Card) Size() placement.Size {
	return placement.Size{Width: c.Width, Height: c.Height}
}

// RequiredFields returns the names of fields marked required.
func (c *Card) RequiredFields() []string {
	var names []string
	for _, f := range c.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Parse reads a card template from r.
func Parse(r io.Reader) (*Card, error) {
	decoder := xml.NewDecoder(r)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return nil, errors.New("no <card> element found")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read template: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local != "card" {
			return nil, fmt.Errorf("unexpected root element: %s", se.Name.Local)
		}

		c, err := parseCardAttrs(se)
		if err != nil {
			return nil, err
		}
		if err := parseChildren(decoder, c); err != nil {
			return nil, fmt.Errorf("card %s: %w", c.Name, err)
		}
		return c, nil
	}
}

func parseCardAttrs(se xml.StartElement) (*Card, error) {
	c := &Card{}
	for _, attr := range se.Attr {
		switch attr.Name.Local {
		case "name":
			c.Name = strings.TrimSpace(attr.Value)
		case "title":
			c.Title = strings.TrimSpace(attr.Value)
		case "width":
			v, err := parseCellValue(attr.Value)
			if err != nil {
				return nil, fmt.Errorf("invalid width %q: %w", attr.Value, err)
			}
			c.Width = v
		case "height":
			v, err := parseCellValue(attr.Value)
			if err != nil {
				return nil, fmt.Errorf("invalid height %q: %w", attr.Value, err)
			}
			c.Height = v
		}
	}

	if c.Name == "" {
		return nil, errors.New("card is missing a name")
	}
	if c.Title == "" {
		c.Title = c.Name
	}
	if c.Width < MinWidth || c.Height < MinHeight {
		return nil, fmt.Errorf("card %s: size %dx%d is below minimum %dx%d",
			c.Name, c.Width, c.Height, MinWidth, MinHeight)
	}
	return c, nil
}

// parseCellValue parses a size such as "40" or "40px".
func parseCellValue(s string) (int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "px")
	return strconv.Atoi(s)
}

func parseChildren(decoder *xml.Decoder, c *Card) error {
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return errors.New("unexpected end of template")
		}
		if err != nil {
			return fmt.Errorf("failed to read element: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch strings.ToLower(t.Name.Local) {
			case "description":
				var text string
				if err := decoder.DecodeElement(&text, &t); err != nil {
					return fmt.Errorf("failed to read description: %w", err)
				}
				c.Description = strings.Join(strings.Fields(text), " ")
			case "field":
				f, err := parseField(t)
				if err != nil {
					return err
				}
				if err := decoder.Skip(); err != nil {
					return fmt.Errorf("failed to read field %s: %w", f.Name, err)
				}
				c.Fields = append(c.Fields, f)
			default:
				return fmt.Errorf("unknown element type: %s", t.Name.Local)
			}

		case xml.EndElement:
			return nil
		}
	}
}

func parseField(se xml.StartElement) (Field, error) {
	f := Field{Kind: FieldKindText}
	for _, attr := range se.Attr {
		switch attr.Name.Local {
		case "name":
			f.Name = strings.TrimSpace(attr.Value)
		case "label":
			f.Label = strings.TrimSpace(attr.Value)
		case "kind":
			kind, ok := ValidFieldKinds[strings.ToLower(strings.TrimSpace(attr.Value))]
			if !ok {
				return Field{}, fmt.Errorf("unknown field kind: %s", attr.Value)
			}
			f.Kind = kind
		case "options":
			for _, opt := range strings.Split(attr.Value, ",") {
				if opt = strings.TrimSpace(opt); opt != "" {
					f.Options = append(f.Options, opt)
				}
			}
		case "required":
			f.Required = attr.Value == "true" || attr.Value == "required"
		}
	}

	if f.Name == "" {
		return Field{}, errors.New("field is missing a name")
	}
	if f.Label == "" {
		f.Label = f.Name
	}
	if f.Kind == FieldKindSelect && len(f.Options) == 0 {
		return Field{}, fmt.Errorf("select field %s has no options", f.Name)
	}
	return f, nil
}

// ParseString parses a card template from a string.
func ParseString(s string) (*Card, error) {
	return Parse(strings.NewReader(s))
}

// LoadFile parses a card template from disk.
func LoadFile(path string) (*Card, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}
