// Package placement computes where a floating panel should be drawn next to
// the element that triggered it, keeping the panel inside the viewport.
package placement
