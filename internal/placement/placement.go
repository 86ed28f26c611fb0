package placement

// Default spacing, in the caller's units (pixels for a browser-like host,
// cells for a terminal).
const (
	DefaultGap    = 8
	DefaultMargin = 8
)

// Options tunes a placement computation.
type Options struct {
	Gap      int    // Space between trigger and popover on the anchored side
	Margin   int    // Minimum distance between popover and viewport edges
	Priority []Side // Sides to try, in order (empty = DefaultPriority)
}

// DefaultOptions returns gap 8, margin 8 and the default priority.
func DefaultOptions() Options {
	return Options{
		Gap:      DefaultGap,
		Margin:   DefaultMargin,
		Priority: DefaultPriority(),
	}
}

// sides returns the usable priority list. Unknown entries are skipped and an
// empty result falls back to the default order.
func (o Options) sides() []Side {
	sides := make([]Side, 0, len(o.Priority))
	for _, s := range o.Priority {
		if s.Valid() {
			sides = append(sides, s)
		}
	}
	if len(sides) == 0 {
		return DefaultPriority()
	}
	return sides
}

// Result is where the popover's top-left corner goes.
type Result struct {
	Top       int  `json:"top" yaml:"top"`
	Left      int  `json:"left" yaml:"left"`
	Placement Side `json:"placement" yaml:"placement"`
	// Clamped is set when no side had room and the first priority side was
	// used anyway.
	Clamped bool `json:"clamped" yaml:"clamped"`
	// Shifted is set when the final clamp moved the popover away from its
	// natural anchor.
	Shifted bool `json:"shifted" yaml:"shifted"`
}

// Rect returns the area the popover covers when drawn at the result.
func (r Result) Rect(popover Size) Rect {
	return NewRect(r.Left, r.Top, popover.Width, popover.Height)
}

// Fits reports whether popover fits on side given the available space.
func Fits(space Space, side Side, popover Size) bool {
	switch side {
	case SideRight:
		return space.Right >= popover.Width
	case SideLeft:
		return space.Left >= popover.Width
	case SideTop:
		return space.Top >= popover.Height
	case SideBottom:
		return space.Bottom >= popover.Height
	default:
		return false
	}
}

// Anchor returns the unclamped top-left corner for popover on side.
// Beside the trigger the popover is top-aligned with it; above or below it is
// left-aligned.
func Anchor(trigger Rect, popover Size, side Side, gap int) (top, left int) {
	switch side {
	case SideLeft:
		return trigger.Top, trigger.Left - popover.Width - gap
	case SideTop:
		return trigger.Top - popover.Height - gap, trigger.Left
	case SideBottom:
		return trigger.Bottom + gap, trigger.Left
	default:
		return trigger.Top, trigger.Right + gap
	}
}

// Compute places a popover of the given size next to trigger.
//
// Sides are tried in priority order and the first one with enough room wins.
// If none fits, the first priority side is used and Clamped is set. The
// resulting corner is then always clamped into
// [margin, viewport-size-margin] on both axes. Compute is pure and never
// fails.
func Compute(trigger Rect, viewport Viewport, popover Size, opts Options) Result {
	sides := opts.sides()
	space := Available(trigger, viewport, opts.Gap)

	res := Result{Placement: sides[0], Clamped: true}
	for _, side := range sides {
		if Fits(space, side, popover) {
			res.Placement = side
			res.Clamped = false
			break
		}
	}

	top, left := Anchor(trigger, popover, res.Placement, opts.Gap)
	res.Left = Clamp(left, opts.Margin, viewport.Width-popover.Width-opts.Margin)
	res.Top = Clamp(top, opts.Margin, viewport.Height-popover.Height-opts.Margin)
	res.Shifted = res.Left != left || res.Top != top

	return res
}
