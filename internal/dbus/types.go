package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/hovercard/internal/placement"
)

const (
	// Interface is the placement service interface name.
	Interface = "io.github.jmylchreest.Hovercard1"
	// Path is the placement service object path.
	Path = "/io/github/jmylchreest/Hovercard"
	// DefaultBusName is the bus name claimed when none is configured.
	DefaultBusName = "io.github.jmylchreest.Hovercard"

	// ErrorUnknownCard is returned by PlaceCard for names missing from the catalog.
	ErrorUnknownCard = Interface + ".Error.UnknownCard"
	// ErrorInvalidArgs is returned for negative sizes.
	ErrorInvalidArgs = Interface + ".Error.InvalidArgs"
)

// Rect is the wire form of a trigger rectangle: (iiii) left, top, width, height.
type Rect struct {
	Left   int32
	Top    int32
	Width  int32
	Height int32
}

// Size is the wire form of a viewport or popover size: (ii) width, height.
type Size struct {
	Width  int32
	Height int32
}

// RectFrom converts an engine rectangle to its wire form.
func RectFrom(r placement.Rect) Rect {
	return Rect{Left: int32(r.Left), Top: int32(r.Top), Width: int32(r.Width), Height: int32(r.Height)}
}

// SizeFrom converts an engine size to its wire form.
func SizeFrom(s placement.Size) Size {
	return Size{Width: int32(s.Width), Height: int32(s.Height)}
}

// Placement returns the engine rectangle.
func (r Rect) Placement() placement.Rect {
	return placement.NewRect(int(r.Left), int(r.Top), int(r.Width), int(r.Height))
}

// Placement returns the engine size.
func (s Size) Placement() placement.Size {
	return placement.Size{Width: int(s.Width), Height: int(s.Height)}
}

func (r Rect) validate() error {
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("trigger size must not be negative: %dx%d", r.Width, r.Height)
	}
	return nil
}

func (s Size) validate(what string) error {
	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("%s size must not be negative: %dx%d", what, s.Width, s.Height)
	}
	return nil
}

// optionsFromBody parses the OptionsChanged signal body (gap, margin, priority).
func optionsFromBody(body []interface{}) (placement.Options, error) {
	if len(body) < 3 {
		return placement.Options{}, fmt.Errorf("malformed OptionsChanged signal: %d args", len(body))
	}

	gap, ok := body[0].(int32)
	if !ok {
		return placement.Options{}, fmt.Errorf("invalid gap type %T", body[0])
	}
	margin, ok := body[1].(int32)
	if !ok {
		return placement.Options{}, fmt.Errorf("invalid margin type %T", body[1])
	}
	names, ok := body[2].([]string)
	if !ok {
		return placement.Options{}, fmt.Errorf("invalid priority type %T", body[2])
	}

	priority, err := placement.ParsePriority(names)
	if err != nil {
		return placement.Options{}, err
	}

	return placement.Options{Gap: int(gap), Margin: int(margin), Priority: priority}, nil
}

// priorityNames returns the wire form of a priority list.
func priorityNames(p []placement.Side) []string {
	if len(p) == 0 {
		p = placement.DefaultPriority()
	}
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = s.String()
	}
	return names
}

func invalidArgs(err error) *dbus.Error {
	return dbus.NewError(ErrorInvalidArgs, []interface{}{err.Error()})
}
