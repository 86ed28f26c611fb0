package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
)

// PlainFormatter formats reports as plain text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
// An unparsable custom template falls back to the default layout.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes reports as plain text, separated by blank lines.
func (f *PlainFormatter) Format(w io.Writer, reports []Report) error {
	for i := range reports {
		if i > 0 && f.template == nil {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := f.formatReport(w, &reports[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) formatReport(w io.Writer, r *Report) error {
	if f.template != nil {
		if err := f.template.Execute(w, r); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	var sb strings.Builder

	if r.Card != "" {
		sb.WriteString(fmt.Sprintf("card:      %s\n", r.Card))
	}
	sb.WriteString(fmt.Sprintf("placement: %s (clamped: %s, shifted: %s)\n",
		r.Result.Placement, yesNo(r.Result.Clamped), yesNo(r.Result.Shifted)))
	sb.WriteString(fmt.Sprintf("position:  top=%d left=%d", r.Result.Top, r.Result.Left))
	if r.Overlaps {
		sb.WriteString(" (covers trigger)")
	}
	sb.WriteString("\n")
	if f.opts.ShowSpace {
		sb.WriteString(fmt.Sprintf("space:     right=%d left=%d top=%d bottom=%d\n",
			r.Space.Right, r.Space.Left, r.Space.Top, r.Space.Bottom))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"yesno": yesNo,
		"upper": strings.ToUpper,
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
