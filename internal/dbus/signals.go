package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/hovercard/internal/placement"
)

// EmitOptionsChanged emits the OptionsChanged signal.
func (s *PlacementServer) EmitOptionsChanged(opts placement.Options) error {
	conn := s.Connection()
	if conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := conn.Emit(Path, Interface+".OptionsChanged",
		int32(opts.Gap), int32(opts.Margin), priorityNames(opts.Priority))
	if err != nil {
		return fmt.Errorf("failed to emit OptionsChanged signal: %w", err)
	}

	s.logger.Debug("emitted OptionsChanged signal", "gap", opts.Gap, "margin", opts.Margin)
	return nil
}

// Connection returns the underlying D-Bus connection, nil before Start.
func (s *PlacementServer) Connection() *dbus.Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}
