package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize/english"

	"github.com/jmylchreest/hovercard/internal/card"
)

// placeOverlay draws fg over bg with its top-left corner at cell (x, y).
// Rows of fg that fall outside bg are dropped; short bg rows are padded.
func placeOverlay(x, y int, fg, bg string) string {
	bgLines := strings.Split(bg, "\n")
	fgLines := strings.Split(fg, "\n")

	for i, fl := range fgLines {
		row := y + i
		if row < 0 || row >= len(bgLines) {
			continue
		}

		bl := bgLines[row]
		if w := ansi.StringWidth(bl); w < x {
			bl += strings.Repeat(" ", x-w)
		}

		left := ansi.Truncate(bl, x, "")
		right := ansi.TruncateLeft(bl, x+ansi.StringWidth(fl), "")
		bgLines[row] = left + fl + right
	}

	return strings.Join(bgLines, "\n")
}

var (
	popoverStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12"))

	popoverTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("12"))

	popoverLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("8"))
)

// renderPopover draws a card's popover at exactly its declared size.
func renderPopover(c *card.Card, pinned bool) string {
	innerW := max(1, c.Width-2)
	innerH := max(1, c.Height-2)

	title := c.Title
	if title == "" {
		title = c.Name
	}
	if pinned {
		title += " [pinned]"
	}

	lines := []string{popoverTitleStyle.Render(ansi.Truncate(title, innerW, "…"))}

	if c.Description != "" {
		lines = append(lines, "")
		wrapped := lipgloss.NewStyle().Width(innerW).Render(c.Description)
		lines = append(lines, strings.Split(wrapped, "\n")...)
	}

	if len(c.Fields) > 0 {
		lines = append(lines, "", popoverLabelStyle.Render("Fields"))
		for _, f := range c.Fields {
			label := f.Label
			if label == "" {
				label = f.Name
			}
			if f.Required {
				label += "*"
			}
			lines = append(lines, fmt.Sprintf("• %s %s", label, popoverLabelStyle.Render("("+string(f.Kind)+")")))
		}
		if required := c.RequiredFields(); len(required) > 0 {
			lines = append(lines, popoverLabelStyle.Render("* "+english.Plural(len(required), "required field", "")))
		}
	}

	if len(lines) > innerH {
		lines = append(lines[:innerH-1], popoverLabelStyle.Render("…"))
	}
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, innerW, "…")
	}

	style := popoverStyle.Width(innerW).Height(innerH).MaxHeight(c.Height)
	if pinned {
		style = style.BorderForeground(lipgloss.Color("13"))
	}
	return style.Render(strings.Join(lines, "\n"))
}
