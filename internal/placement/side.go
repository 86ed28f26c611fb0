package placement

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSide is returned when a side name is not recognised.
var ErrInvalidSide = errors.New("invalid side")

// Side is the edge of the trigger a popover is anchored to.
type Side string

const (
	SideRight  Side = "right"
	SideLeft   Side = "left"
	SideTop    Side = "top"
	SideBottom Side = "bottom"
)

// ValidSides returns all sides in default priority order.
func ValidSides() []Side {
	return []Side{SideRight, SideLeft, SideTop, SideBottom}
}

// DefaultPriority returns the default side order: right, left, top, bottom.
func DefaultPriority() []Side {
	return ValidSides()
}

// Valid reports whether s is one of the four sides.
func (s Side) Valid() bool {
	switch s {
	case SideRight, SideLeft, SideTop, SideBottom:
		return true
	default:
		return false
	}
}

func (s Side) String() string {
	return string(s)
}

// ParseSide parses a side name, case-insensitively.
func ParseSide(name string) (Side, error) {
	s := Side(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", fmt.Errorf("%w %q, must be one of: %v", ErrInvalidSide, name, ValidSides())
	}
	return s, nil
}

// ParsePriority parses an ordered list of side names.
func ParsePriority(names []string) ([]Side, error) {
	sides := make([]Side, 0, len(names))
	for _, name := range names {
		s, err := ParseSide(name)
		if err != nil {
			return nil, err
		}
		sides = append(sides, s)
	}
	return sides, nil
}

// FormatPriority renders a priority list as a comma separated string.
func FormatPriority(sides []Side) string {
	parts := make([]string, len(sides))
	for i, s := range sides {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}
