package display

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/jmylchreest/hovercard/internal/events"
	"github.com/jmylchreest/hovercard/internal/placement"
)

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Geometry GeometryProvider
	Viewport ViewportProvider
	Bus      *events.Bus
	Options  placement.Options
	OnChange ChangeCallback
	Logger   *slog.Logger
}

// Manager owns one Tracker per trigger for a front end.
// Trackers are independent: several popovers may be visible at once and each
// keeps its own subscriptions.
type Manager struct {
	mu       sync.RWMutex
	trackers map[Handle]*Tracker

	geometry GeometryProvider
	viewport ViewportProvider
	bus      *events.Bus
	opts     placement.Options
	onChange ChangeCallback
	logger   *slog.Logger
}

// NewManager creates a manager with no registered triggers.
func NewManager(opts ManagerOptions) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}

	return &Manager{
		trackers: make(map[Handle]*Tracker),
		geometry: opts.Geometry,
		viewport: opts.Viewport,
		bus:      opts.Bus,
		opts:     opts.Options,
		onChange: opts.OnChange,
		logger:   opts.Logger,
	}
}

// Bus returns the event bus trackers subscribe to.
func (m *Manager) Bus() *events.Bus {
	return m.bus
}

// Register adds a trigger whose popover has the given size.
// Registering an existing handle updates its size.
func (m *Manager) Register(h Handle, size placement.Size) *Tracker {
	m.mu.Lock()
	if t, ok := m.trackers[h]; ok {
		m.mu.Unlock()
		t.SetPopoverSize(size)
		return t
	}

	t := NewTracker(TrackerOptions{
		Handle:   h,
		Geometry: m.geometry,
		Viewport: m.viewport,
		Bus:      m.bus,
		Size:     size,
		Options:  m.opts,
		OnChange: m.onChange,
		Logger:   m.logger,
	})
	m.trackers[h] = t
	m.mu.Unlock()

	return t
}

// Tracker returns the tracker for h, if registered.
func (m *Manager) Tracker(h Handle) (*Tracker, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trackers[h]
	return t, ok
}

// Show makes the popover for h visible.
func (m *Manager) Show(h Handle) error {
	t, ok := m.Tracker(h)
	if !ok {
		return fmt.Errorf("unknown trigger %q", h)
	}
	t.SetVisible(true)
	return nil
}

// Hide hides the popover for h. Unknown handles are ignored.
func (m *Manager) Hide(h Handle) {
	if t, ok := m.Tracker(h); ok {
		t.SetVisible(false)
	}
}

// HideAll hides every popover.
func (m *Manager) HideAll() {
	for _, t := range m.all() {
		t.SetVisible(false)
	}
}

// Visible returns the handles of visible popovers, sorted.
func (m *Manager) Visible() []Handle {
	var handles []Handle
	for _, t := range m.all() {
		if t.State() == StateActive {
			handles = append(handles, t.Handle())
		}
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles
}

// Reconfigure applies new placement options to every tracker.
// Visible popovers are recomputed immediately.
func (m *Manager) Reconfigure(opts placement.Options) {
	m.mu.Lock()
	m.opts = opts
	m.mu.Unlock()

	for _, t := range m.all() {
		t.SetOptions(opts)
	}
	m.logger.Debug("placement options updated",
		"gap", opts.Gap,
		"margin", opts.Margin,
		"priority", placement.FormatPriority(opts.Priority),
	)
}

// Options returns the current placement options.
func (m *Manager) Options() placement.Options {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opts
}

func (m *Manager) all() []*Tracker {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Tracker, 0, len(m.trackers))
	for _, t := range m.trackers {
		out = append(out, t)
	}
	return out
}
