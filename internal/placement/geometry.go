package placement

// Rect is an axis-aligned rectangle in viewport coordinates.
// Right and Bottom are exclusive edges: Right = Left + Width.
type Rect struct {
	Top    int `json:"top" yaml:"top"`
	Left   int `json:"left" yaml:"left"`
	Right  int `json:"right" yaml:"right"`
	Bottom int `json:"bottom" yaml:"bottom"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// NewRect builds a Rect from its top-left corner and dimensions.
func NewRect(left, top, width, height int) Rect {
	return Rect{
		Top:    top,
		Left:   left,
		Right:  left + width,
		Bottom: top + height,
		Width:  width,
		Height: height,
	}
}

// FromEdges builds a Rect from its four edges.
func FromEdges(top, left, right, bottom int) Rect {
	return Rect{
		Top:    top,
		Left:   left,
		Right:  right,
		Bottom: bottom,
		Width:  right - left,
		Height: bottom - top,
	}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersects reports whether r and other overlap.
func (r Rect) Intersects(other Rect) bool {
	return r.Left < other.Right && other.Left < r.Right &&
		r.Top < other.Bottom && other.Top < r.Bottom
}

// Size is a width/height pair.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Viewport is the visible window area. It is read fresh for every
// computation and never cached.
type Viewport = Size

// Space holds the room available on each side of a trigger, already reduced
// by the gap. Values may be negative.
type Space struct {
	Right  int `json:"right" yaml:"right"`
	Left   int `json:"left" yaml:"left"`
	Top    int `json:"top" yaml:"top"`
	Bottom int `json:"bottom" yaml:"bottom"`
}

// Available measures the room around trigger inside viewport.
func Available(trigger Rect, viewport Viewport, gap int) Space {
	return Space{
		Right:  viewport.Width - trigger.Right - gap,
		Left:   trigger.Left - gap,
		Top:    trigger.Top - gap,
		Bottom: viewport.Height - trigger.Bottom - gap,
	}
}

// Clamp constrains v to [lo, hi]. When the range is empty (lo > hi), which
// happens when the popover plus margins is larger than the viewport, lo wins:
// the popover is pinned to the top/left margin and overflows the far edge.
func Clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
