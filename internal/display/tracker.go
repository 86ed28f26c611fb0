package display

import (
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/hovercard/internal/events"
	"github.com/jmylchreest/hovercard/internal/placement"
)

// Handle identifies a trigger element.
type Handle string

func (h Handle) String() string {
	return string(h)
}

// GeometryProvider reports the current on-screen bounds of a trigger.
// It returns false when the trigger is not laid out (unmounted, scrolled
// out of its container), in which case no placement is computed.
type GeometryProvider interface {
	BoundingRect(h Handle) (placement.Rect, bool)
}

// ViewportProvider reports the current visible window size.
type ViewportProvider interface {
	Viewport() placement.Viewport
}

// State is the subscription state of a Tracker.
type State int

const (
	// StateIdle means the popover is hidden: no subscriptions, no computation.
	StateIdle State = iota
	// StateActive means the popover is visible and follows scroll and resize.
	StateActive
)

// String returns the state name.
func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "idle"
}

// ChangeCallback is called after each successful placement computation.
type ChangeCallback func(h Handle, res placement.Result)

// TrackerOptions configures a Tracker.
type TrackerOptions struct {
	Handle   Handle
	Geometry GeometryProvider
	Viewport ViewportProvider
	Bus      *events.Bus
	Size     placement.Size
	Options  placement.Options
	OnChange ChangeCallback
	Logger   *slog.Logger
}

// Tracker keeps one popover positioned next to its trigger while visible.
//
// Showing the popover subscribes to scroll (capture phase) and resize events
// and computes a placement immediately; every event recomputes from a freshly
// read trigger rectangle. Hiding releases both subscriptions before
// returning. Nothing carries over between show/hide cycles.
type Tracker struct {
	mu sync.Mutex

	handle   Handle
	geometry GeometryProvider
	viewport ViewportProvider
	bus      *events.Bus
	size     placement.Size
	opts     placement.Options
	onChange ChangeCallback
	logger   *slog.Logger

	state        State
	session      ulid.ULID
	subs         []*events.Subscription
	result       placement.Result
	hasResult    bool
	computations int
	computedAt   time.Time
}

// NewTracker creates an idle tracker.
func NewTracker(opts TrackerOptions) *Tracker {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}

	return &Tracker{
		handle:   opts.Handle,
		geometry: opts.Geometry,
		viewport: opts.Viewport,
		bus:      opts.Bus,
		size:     opts.Size,
		opts:     opts.Options,
		onChange: opts.OnChange,
		logger:   logger.With("handle", string(opts.Handle)),
	}
}

// Handle returns the trigger this tracker positions against.
func (t *Tracker) Handle() Handle {
	return t.handle
}

// SetVisible moves the tracker between Idle and Active.
// Repeating the current visibility is a no-op.
func (t *Tracker) SetVisible(visible bool) {
	if visible {
		t.activate()
		return
	}
	t.deactivate()
}

func (t *Tracker) activate() {
	t.mu.Lock()
	if t.state == StateActive {
		t.mu.Unlock()
		return
	}

	t.state = StateActive
	t.session = ulid.Make()
	t.subs = []*events.Subscription{
		t.bus.Subscribe(events.KindScroll, t.handleEvent, events.WithCapture()),
		t.bus.Subscribe(events.KindResize, t.handleEvent),
	}
	t.logger.Debug("popover shown", "session", t.session.String())
	t.mu.Unlock()

	t.Recompute()
}

func (t *Tracker) deactivate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateIdle {
		return
	}

	for _, sub := range t.subs {
		sub.Close()
	}
	t.subs = nil
	t.state = StateIdle
	t.hasResult = false
	t.result = placement.Result{}
	t.logger.Debug("popover hidden", "session", t.session.String(), "computations", t.computations)
}

// handleEvent runs on the publisher's goroutine.
func (t *Tracker) handleEvent(ev events.Event) {
	t.logger.Debug("recompute on event", "kind", ev.Kind.String(), "target", ev.Target)
	t.Recompute()
}

// Recompute reads the trigger and viewport again and updates the placement.
// It does nothing while idle or when the trigger has no bounds. A zero-sized
// trigger counts as not laid out.
func (t *Tracker) Recompute() {
	t.mu.Lock()
	if t.state != StateActive {
		t.mu.Unlock()
		return
	}

	trigger, ok := t.geometry.BoundingRect(t.handle)
	if !ok || trigger.Empty() {
		t.logger.Debug("trigger not laid out, skipping placement")
		t.mu.Unlock()
		return
	}

	res := placement.Compute(trigger, t.viewport.Viewport(), t.size, t.opts)
	t.result = res
	t.hasResult = true
	t.computations++
	t.computedAt = time.Now()
	cb := t.onChange
	t.mu.Unlock()

	if cb != nil {
		cb(t.handle, res)
	}
}

// SetOptions replaces the placement options and recomputes when active.
func (t *Tracker) SetOptions(opts placement.Options) {
	t.mu.Lock()
	t.opts = opts
	t.mu.Unlock()
	t.Recompute()
}

// SetPopoverSize replaces the popover footprint and recomputes when active.
func (t *Tracker) SetPopoverSize(size placement.Size) {
	t.mu.Lock()
	t.size = size
	t.mu.Unlock()
	t.Recompute()
}

// Size returns the popover footprint.
func (t *Tracker) Size() placement.Size {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size
}

// Result returns the latest placement. The second value is false while idle
// or before the trigger could be measured.
func (t *Tracker) Result() (placement.Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.hasResult
}

// State returns the current subscription state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// SessionID returns the ULID of the current (or last) activation.
func (t *Tracker) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == (ulid.ULID{}) {
		return ""
	}
	return t.session.String()
}

// Computations returns how many placements have been computed in total.
func (t *Tracker) Computations() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.computations
}

// ComputedAt returns when the last placement was computed.
func (t *Tracker) ComputedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.computedAt
}
