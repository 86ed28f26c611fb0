package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jmylchreest/hovercard/internal/card"
	"github.com/jmylchreest/hovercard/internal/display"
	"github.com/jmylchreest/hovercard/internal/placement"
)

// Grid layout constants, in terminal cells.
const (
	headerRows  = 1
	footerRows  = 2
	gridPadding = 1
	tileGapX    = 2
	tileGapY    = 1
)

// ScrollTarget is the event target reported when the card grid scrolls.
const ScrollTarget = "grid"

// grid lays cards out as tiles and answers geometry queries for trackers.
// Coordinates are cells relative to the top-left corner of the terminal.
type grid struct {
	cards []*card.Card
	index map[display.Handle]int

	width  int
	height int
	tileW  int
	tileH  int
	scroll int // first visible tile row
}

func newGrid(cards []*card.Card, tileW, tileH int) *grid {
	g := &grid{
		cards: cards,
		index: make(map[display.Handle]int, len(cards)),
		tileW: tileW,
		tileH: tileH,
	}
	for i, c := range cards {
		g.index[handleFor(c)] = i
	}
	return g
}

func handleFor(c *card.Card) display.Handle {
	return display.Handle(c.Name)
}

func (g *grid) resize(width, height int) {
	g.width = width
	g.height = height
	g.clampScroll()
}

func (g *grid) setTile(width, height int) bool {
	if width == g.tileW && height == g.tileH {
		return false
	}
	g.tileW = width
	g.tileH = height
	g.clampScroll()
	return true
}

// Viewport implements display.ViewportProvider. The footer is not part of it.
func (g *grid) Viewport() placement.Viewport {
	return placement.Viewport{Width: g.width, Height: max(0, g.height-footerRows)}
}

// BoundingRect implements display.GeometryProvider. Tiles scrolled out of
// the grid area are reported as not laid out.
func (g *grid) BoundingRect(h display.Handle) (placement.Rect, bool) {
	i, ok := g.index[h]
	if !ok {
		return placement.Rect{}, false
	}
	r := g.tileRect(i)
	if r.Top < headerRows || r.Bottom > g.Viewport().Height {
		return placement.Rect{}, false
	}
	return r, true
}

func (g *grid) cols() int {
	n := (g.width - gridPadding + tileGapX) / (g.tileW + tileGapX)
	return max(1, n)
}

func (g *grid) rows() int {
	cols := g.cols()
	return (len(g.cards) + cols - 1) / cols
}

func (g *grid) visibleRows() int {
	area := g.Viewport().Height - headerRows
	return max(1, (area+tileGapY)/(g.tileH+tileGapY))
}

func (g *grid) maxScroll() int {
	return max(0, g.rows()-g.visibleRows())
}

func (g *grid) clampScroll() bool {
	s := min(max(g.scroll, 0), g.maxScroll())
	if s == g.scroll {
		return false
	}
	g.scroll = s
	return true
}

// scrollBy moves the grid by delta rows and reports whether it moved.
func (g *grid) scrollBy(delta int) bool {
	old := g.scroll
	g.scroll += delta
	g.clampScroll()
	return g.scroll != old
}

// ensureVisible scrolls so the row holding card i is on screen.
func (g *grid) ensureVisible(i int) bool {
	row := i / g.cols()
	old := g.scroll
	switch {
	case row < g.scroll:
		g.scroll = row
	case row >= g.scroll+g.visibleRows():
		g.scroll = row - g.visibleRows() + 1
	}
	g.clampScroll()
	return g.scroll != old
}

func (g *grid) tileRect(i int) placement.Rect {
	cols := g.cols()
	row, col := i/cols, i%cols
	left := gridPadding + col*(g.tileW+tileGapX)
	top := headerRows + (row-g.scroll)*(g.tileH+tileGapY)
	return placement.NewRect(left, top, g.tileW, g.tileH)
}

// at returns the card under the cell (x, y).
func (g *grid) at(x, y int) (int, bool) {
	for i, c := range g.cards {
		r, ok := g.BoundingRect(handleFor(c))
		if !ok {
			continue
		}
		if x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom {
			return i, true
		}
	}
	return 0, false
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	tileStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8"))
)

// render draws the visible tiles into exactly Viewport().Height lines.
func (g *grid) render(focus int, shown map[display.Handle]bool) string {
	vp := g.Viewport()
	lines := make([]string, 0, vp.Height)

	header := " Hovercards"
	if g.rows() > g.visibleRows() {
		header += lipgloss.NewStyle().Foreground(lipgloss.Color("8")).
			Render(fmt.Sprintf(" (rows %d-%d of %d)", g.scroll+1, min(g.rows(), g.scroll+g.visibleRows()), g.rows()))
	}
	lines = append(lines, headerStyle.Render(ansi.Truncate(header, vp.Width, "…")))

	cols := g.cols()
	spacer := strings.Repeat(" ", tileGapX)
	pad := strings.Repeat(" ", gridPadding)

	for row := g.scroll; row < g.scroll+g.visibleRows() && row < g.rows(); row++ {
		if row > g.scroll {
			for range tileGapY {
				lines = append(lines, "")
			}
		}

		var tiles []string
		for col := 0; col < cols; col++ {
			i := row*cols + col
			if i >= len(g.cards) {
				break
			}
			if col > 0 {
				tiles = append(tiles, spacer)
			}
			tiles = append(tiles, g.renderTile(i, i == focus, shown[handleFor(g.cards[i])]))
		}
		for _, line := range strings.Split(lipgloss.JoinHorizontal(lipgloss.Top, tiles...), "\n") {
			lines = append(lines, pad+line)
		}
	}

	for len(lines) < vp.Height {
		lines = append(lines, "")
	}
	return strings.Join(lines[:vp.Height], "\n")
}

func (g *grid) renderTile(i int, focused, shown bool) string {
	c := g.cards[i]
	inner := max(1, g.tileW-2)

	style := tileStyle.Width(inner).Height(max(1, g.tileH-2))
	switch {
	case focused:
		style = style.BorderForeground(lipgloss.Color("12")).Bold(true)
	case shown:
		style = style.BorderForeground(lipgloss.Color("10"))
	}

	title := c.Title
	if title == "" {
		title = c.Name
	}
	return style.Render(ansi.Truncate(title, inner, "…"))
}
