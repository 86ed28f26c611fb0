// Package dbus exposes the placement engine on the session bus.
//
// The service answers Place and PlaceCard calls with a computed position,
// lists the card catalog, and announces option changes with the
// OptionsChanged signal so clients can cache the active configuration.
// Client is the calling side used by the CLI.
package dbus
