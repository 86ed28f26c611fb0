// Package output provides output formatters for placement reports.
package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/hovercard/internal/placement"
)

// Report is one placement computation together with its inputs.
type Report struct {
	Card     string             `json:"card,omitempty" yaml:"card,omitempty"`
	Trigger  placement.Rect     `json:"trigger" yaml:"trigger"`
	Viewport placement.Viewport `json:"viewport" yaml:"viewport"`
	Popover  placement.Size     `json:"popover" yaml:"popover"`
	Gap      int                `json:"gap" yaml:"gap"`
	Margin   int                `json:"margin" yaml:"margin"`
	Priority []placement.Side   `json:"priority" yaml:"priority"`
	Space    placement.Space    `json:"space" yaml:"space"`
	Result   placement.Result   `json:"result" yaml:"result"`
	// Bounds is the area the popover covers at Result.
	Bounds placement.Rect `json:"bounds" yaml:"bounds"`
	// Overlaps is set when the popover covers part of the trigger, which
	// only happens after clamping.
	Overlaps bool `json:"overlaps" yaml:"overlaps"`
}

// NewReport runs the placement engine and records its inputs.
func NewReport(trigger placement.Rect, viewport placement.Viewport, popover placement.Size, opts placement.Options) Report {
	priority := opts.Priority
	if len(priority) == 0 {
		priority = placement.DefaultPriority()
	}
	r := Report{
		Trigger:  trigger,
		Viewport: viewport,
		Popover:  popover,
		Gap:      opts.Gap,
		Margin:   opts.Margin,
		Priority: priority,
		Space:    placement.Available(trigger, viewport, opts.Gap),
	}
	r.SetResult(placement.Compute(trigger, viewport, popover, opts))
	return r
}

// SetResult records a placement result and the area it covers.
func (r *Report) SetResult(res placement.Result) {
	r.Result = res
	r.Bounds = res.Rect(r.Popover)
	r.Overlaps = r.Bounds.Intersects(r.Trigger)
}

// Formatter formats placement reports.
type Formatter interface {
	// Format writes formatted reports to the writer.
	Format(w io.Writer, reports []Report) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatPlain FormatType = "plain"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (FormatType, error) {
	switch FormatType(name) {
	case FormatJSON, FormatYAML, FormatPlain:
		return FormatType(name), nil
	default:
		return "", fmt.Errorf("unknown output format %q, must be one of: plain, json, yaml", name)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template  string // Custom template for plain format
	ShowSpace bool   // Include per-side available space in plain output
}

// DefaultFormatterOptions returns sensible defaults for plain output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowSpace: true,
	}
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}
