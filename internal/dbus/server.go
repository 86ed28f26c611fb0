package dbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/hovercard/internal/card"
	"github.com/jmylchreest/hovercard/internal/placement"
)

// CardSource resolves card names to popover footprints.
type CardSource interface {
	Get(name string) (*card.Card, error)
	Names() []string
}

// ServerOptions configures a PlacementServer.
type ServerOptions struct {
	BusName string
	Cards   CardSource
	Options placement.Options
	Logger  *slog.Logger
}

// PlacementServer implements the io.github.jmylchreest.Hovercard1 interface.
type PlacementServer struct {
	conn    *dbus.Conn
	logger  *slog.Logger
	busName string
	cards   CardSource

	calls atomic.Uint64

	mu      sync.RWMutex
	opts    placement.Options
	running bool
}

// NewPlacementServer creates a server that is not yet on the bus.
func NewPlacementServer(opts ServerOptions) *PlacementServer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BusName == "" {
		opts.BusName = DefaultBusName
	}
	return &PlacementServer{
		logger:  opts.Logger,
		busName: opts.BusName,
		cards:   opts.Cards,
		opts:    opts.Options,
	}
}

// introspectableInterface is the standard interface name for introspection data.
const introspectableInterface = "org.freedesktop.DBus.Introspectable"

// busConn is the part of *dbus.Conn used to publish the service.
type busConn interface {
	Export(v interface{}, path dbus.ObjectPath, iface string) error
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)
}

// Start connects to the session bus, exports the service and claims the bus name.
func (s *PlacementServer) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := s.publish(conn); err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus placement server started", "interface", Interface, "path", Path, "bus_name", s.busName)
	return nil
}

// publish exports the object and its introspection data, then claims the
// bus name. On failure nothing stays exported on the shared connection.
func (s *PlacementServer) publish(conn busConn) (err error) {
	if err := conn.Export(s, Path, Interface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}
	defer func() {
		if err != nil {
			unexport(conn)
		}
	}()

	node := &introspect.Node{
		Name: Path,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: placementMethods(),
				Signals: placementSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), Path, introspectableInterface); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(s.busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", s.busName)
	}
	return nil
}

func unexport(conn busConn) {
	_ = conn.Export(nil, Path, Interface)
	_ = conn.Export(nil, Path, introspectableInterface)
}

// Stop releases the bus name. The shared session connection stays open.
func (s *PlacementServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(s.busName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		unexport(s.conn)
	}

	s.logger.Info("D-Bus placement server stopped", "calls", s.calls.Load())
	return nil
}

// Running reports whether the server owns its bus name.
func (s *PlacementServer) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Options returns the placement options used for every call.
func (s *PlacementServer) Options() placement.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// SetOptions replaces the placement options and emits OptionsChanged.
func (s *PlacementServer) SetOptions(opts placement.Options) {
	s.mu.Lock()
	s.opts = opts
	connected := s.conn != nil
	s.mu.Unlock()

	s.logger.Debug("placement options updated",
		"gap", opts.Gap,
		"margin", opts.Margin,
		"priority", placement.FormatPriority(opts.Priority),
	)

	if !connected {
		return
	}
	if err := s.EmitOptionsChanged(opts); err != nil {
		s.logger.Warn("failed to emit OptionsChanged signal", "error", err)
	}
}

// Place computes a placement for an explicit popover size.
// D-Bus method: Place((iiii)(ii)(ii)) -> (i, i, s, b, b)
func (s *PlacementServer) Place(trigger Rect, viewport Size, popover Size) (int32, int32, string, bool, bool, *dbus.Error) {
	s.calls.Add(1)

	if err := validateArgs(trigger, viewport, popover); err != nil {
		s.logger.Debug("Place rejected", "error", err)
		return 0, 0, "", false, false, invalidArgs(err)
	}

	res := s.compute(trigger, viewport, popover.Placement())
	return int32(res.Top), int32(res.Left), res.Placement.String(), res.Clamped, res.Shifted, nil
}

// PlaceCard computes a placement using a catalog card's footprint.
// D-Bus method: PlaceCard((iiii)(ii)s) -> (i, i, s, b, b)
func (s *PlacementServer) PlaceCard(trigger Rect, viewport Size, name string) (int32, int32, string, bool, bool, *dbus.Error) {
	s.calls.Add(1)

	if err := validateArgs(trigger, viewport, Size{}); err != nil {
		s.logger.Debug("PlaceCard rejected", "error", err)
		return 0, 0, "", false, false, invalidArgs(err)
	}

	c, err := s.lookup(name)
	if err != nil {
		s.logger.Debug("PlaceCard rejected", "card", name, "error", err)
		if errors.Is(err, card.ErrUnknownCard) {
			return 0, 0, "", false, false, dbus.NewError(ErrorUnknownCard, []interface{}{err.Error()})
		}
		return 0, 0, "", false, false, dbus.MakeFailedError(err)
	}

	res := s.compute(trigger, viewport, c.Size())
	return int32(res.Top), int32(res.Left), res.Placement.String(), res.Clamped, res.Shifted, nil
}

// Cards lists the catalog card names.
// D-Bus method: Cards() -> as
func (s *PlacementServer) Cards() ([]string, *dbus.Error) {
	s.logger.Debug("Cards called")
	if s.cards == nil {
		return []string{}, nil
	}
	return s.cards.Names(), nil
}

// GetOptions returns the active placement options.
// D-Bus method: GetOptions() -> (i, i, as)
func (s *PlacementServer) GetOptions() (int32, int32, []string, *dbus.Error) {
	opts := s.Options()
	return int32(opts.Gap), int32(opts.Margin), priorityNames(opts.Priority), nil
}

func (s *PlacementServer) compute(trigger Rect, viewport Size, popover placement.Size) placement.Result {
	res := placement.Compute(trigger.Placement(), viewport.Placement(), popover, s.Options())
	s.logger.Debug("placement computed",
		"trigger", trigger,
		"viewport", viewport,
		"popover", popover,
		"side", res.Placement.String(),
		"clamped", res.Clamped,
		"shifted", res.Shifted,
	)
	return res
}

func (s *PlacementServer) lookup(name string) (*card.Card, error) {
	if s.cards == nil {
		return nil, fmt.Errorf("%w: %s", card.ErrUnknownCard, name)
	}
	return s.cards.Get(name)
}

func validateArgs(trigger Rect, viewport, popover Size) error {
	if err := trigger.validate(); err != nil {
		return err
	}
	if err := viewport.validate("viewport"); err != nil {
		return err
	}
	return popover.validate("popover")
}

func placementMethods() []introspect.Method {
	result := []introspect.Arg{
		{Name: "top", Type: "i", Direction: "out"},
		{Name: "left", Type: "i", Direction: "out"},
		{Name: "side", Type: "s", Direction: "out"},
		{Name: "clamped", Type: "b", Direction: "out"},
		{Name: "shifted", Type: "b", Direction: "out"},
	}

	return []introspect.Method{
		{
			Name: "Place",
			Args: append([]introspect.Arg{
				{Name: "trigger", Type: "(iiii)", Direction: "in"},
				{Name: "viewport", Type: "(ii)", Direction: "in"},
				{Name: "popover", Type: "(ii)", Direction: "in"},
			}, result...),
		},
		{
			Name: "PlaceCard",
			Args: append([]introspect.Arg{
				{Name: "trigger", Type: "(iiii)", Direction: "in"},
				{Name: "viewport", Type: "(ii)", Direction: "in"},
				{Name: "card", Type: "s", Direction: "in"},
			}, result...),
		},
		{
			Name: "Cards",
			Args: []introspect.Arg{
				{Name: "names", Type: "as", Direction: "out"},
			},
		},
		{
			Name: "GetOptions",
			Args: []introspect.Arg{
				{Name: "gap", Type: "i", Direction: "out"},
				{Name: "margin", Type: "i", Direction: "out"},
				{Name: "priority", Type: "as", Direction: "out"},
			},
		},
	}
}

func placementSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "OptionsChanged",
			Args: []introspect.Arg{
				{Name: "gap", Type: "i"},
				{Name: "margin", Type: "i"},
				{Name: "priority", Type: "as"},
			},
		},
	}
}
