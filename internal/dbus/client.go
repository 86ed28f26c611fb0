package dbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/hovercard/internal/card"
	"github.com/jmylchreest/hovercard/internal/placement"
)

// Client calls a running placement service.
type Client struct {
	conn    *dbus.Conn
	obj     dbus.BusObject
	logger  *slog.Logger
	busName string
}

// NewClient opens a private session bus connection to the service at busName.
func NewClient(busName string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if busName == "" {
		busName = DefaultBusName
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	return &Client{
		conn:    conn,
		obj:     conn.Object(busName, Path),
		logger:  logger,
		busName: busName,
	}, nil
}

// Place asks the service for a placement with an explicit popover size.
func (c *Client) Place(ctx context.Context, trigger placement.Rect, viewport placement.Viewport, popover placement.Size) (placement.Result, error) {
	call := c.obj.CallWithContext(ctx, Interface+".Place", 0, RectFrom(trigger), SizeFrom(viewport), SizeFrom(popover))
	return storeResult(call)
}

// PlaceCard asks the service for a placement using a catalog card.
// An unknown card yields an error wrapping card.ErrUnknownCard.
func (c *Client) PlaceCard(ctx context.Context, trigger placement.Rect, viewport placement.Viewport, name string) (placement.Result, error) {
	call := c.obj.CallWithContext(ctx, Interface+".PlaceCard", 0, RectFrom(trigger), SizeFrom(viewport), name)
	return storeResult(call)
}

// Cards lists the service's catalog.
func (c *Client) Cards(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.obj.CallWithContext(ctx, Interface+".Cards", 0).Store(&names); err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return names, nil
}

// Options fetches the service's active placement options.
func (c *Client) Options(ctx context.Context) (placement.Options, error) {
	var gap, margin int32
	var names []string
	if err := c.obj.CallWithContext(ctx, Interface+".GetOptions", 0).Store(&gap, &margin, &names); err != nil {
		return placement.Options{}, fmt.Errorf("failed to get options: %w", err)
	}
	return optionsFromBody([]interface{}{gap, margin, names})
}

// WatchOptions calls fn for every OptionsChanged signal until ctx is done.
func (c *Client) WatchOptions(ctx context.Context, fn func(placement.Options)) error {
	matches := []dbus.MatchOption{
		dbus.WithMatchObjectPath(Path),
		dbus.WithMatchInterface(Interface),
		dbus.WithMatchMember("OptionsChanged"),
	}
	if err := c.conn.AddMatchSignal(matches...); err != nil {
		return fmt.Errorf("failed to add match rule: %w", err)
	}
	defer func() {
		if err := c.conn.RemoveMatchSignal(matches...); err != nil {
			c.logger.Debug("failed to remove match rule", "error", err)
		}
	}()

	ch := make(chan *dbus.Signal, 16)
	c.conn.Signal(ch)
	defer c.conn.RemoveSignal(ch)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig, ok := <-ch:
			if !ok {
				return nil
			}
			if sig.Name != Interface+".OptionsChanged" {
				continue
			}
			opts, err := optionsFromBody(sig.Body)
			if err != nil {
				c.logger.Warn("ignoring malformed OptionsChanged signal", "error", err)
				continue
			}
			fn(opts)
		}
	}
}

// Close closes the private connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func storeResult(call *dbus.Call) (placement.Result, error) {
	var (
		top, left        int32
		side             string
		clamped, shifted bool
	)
	if err := call.Store(&top, &left, &side, &clamped, &shifted); err != nil {
		return placement.Result{}, remoteError(err)
	}

	s, err := placement.ParseSide(side)
	if err != nil {
		return placement.Result{}, fmt.Errorf("service returned invalid side: %w", err)
	}

	return placement.Result{
		Top:       int(top),
		Left:      int(left),
		Placement: s,
		Clamped:   clamped,
		Shifted:   shifted,
	}, nil
}

// remoteError maps service error names back to package sentinels.
func remoteError(err error) error {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) && dbusErr.Name == ErrorUnknownCard {
		return fmt.Errorf("placement service: %w", card.ErrUnknownCard)
	}
	return fmt.Errorf("placement call failed: %w", err)
}
