// Package display keeps popovers positioned next to their triggers.
// A Tracker follows one trigger while its popover is visible; a Manager owns
// the trackers of a whole front end.
package display
