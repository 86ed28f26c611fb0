// Package tui provides the BubbleTea-based terminal user interface.
//
// Cards are drawn as tiles in a scrollable grid. The tile under focus (or
// under the mouse) shows its popover, positioned by a display.Tracker that
// follows grid scrolls and terminal resizes.
package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/hovercard/internal/card"
	"github.com/jmylchreest/hovercard/internal/config"
	"github.com/jmylchreest/hovercard/internal/display"
	"github.com/jmylchreest/hovercard/internal/events"
	"github.com/jmylchreest/hovercard/internal/placement"
)

// Mode represents the current UI mode.
type Mode int

const (
	ModeGrid Mode = iota
	ModeHelp
)

// Options configures a Model.
type Options struct {
	Config *config.Config
	Cards  []*card.Card
	Logger *slog.Logger
}

// Model is the main TUI model.
type Model struct {
	cfg    *config.Config
	logger *slog.Logger

	mode Mode

	grid    *grid
	bus     *events.Bus
	manager *display.Manager
	pinned  map[display.Handle]bool

	keys KeyMap
	help help.Model

	focus  int
	width  int
	height int
	ready  bool

	statusMsg string
	statusErr bool
}

// ConfigReloadedMsg carries a configuration loaded by the file watcher.
type ConfigReloadedMsg struct {
	Config *config.Config
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type tickMsg time.Time

// New creates a new TUI model. Every card gets a tracker; none is visible
// until the first WindowSizeMsg.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	g := newGrid(opts.Cards, cfg.TUI.TileWidth, cfg.TUI.TileHeight)
	bus := events.NewBus()

	m := Model{
		cfg:    cfg,
		logger: logger,
		mode:   ModeGrid,
		grid:   g,
		bus:    bus,
		pinned: make(map[display.Handle]bool),
		keys:   DefaultKeyMap(),
		help:   help.New(),
	}

	popts, err := cfg.TUI.Placement.Options()
	if err != nil {
		popts = placement.Options{Gap: config.DefaultTUIGap, Margin: config.DefaultTUIMargin}
		m.statusMsg = "Invalid placement config: " + err.Error()
		m.statusErr = true
	}

	m.manager = display.NewManager(display.ManagerOptions{
		Geometry: g,
		Viewport: g,
		Bus:      bus,
		Options:  popts,
		Logger:   logger,
	})
	for _, c := range opts.Cards {
		m.manager.Register(handleFor(c), c.Size())
	}

	return m
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		first := !m.ready
		m.ready = true

		m.grid.resize(msg.Width, msg.Height)
		m.grid.ensureVisible(m.focus)
		m.bus.Publish(events.Event{Kind: events.KindResize})

		if first && len(m.grid.cards) > 0 {
			m.show(m.focus)
		}
		return m, nil

	case ConfigReloadedMsg:
		return m.applyConfig(msg.Config)

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case tickMsg:
		return m, tick()
	}

	return m, nil
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.manager.HideAll()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeGrid
		} else {
			m.mode = ModeHelp
		}
		return m, nil
	}

	if m.mode == ModeHelp {
		if key.Matches(msg, m.keys.HideAll) {
			m.mode = ModeGrid
		}
		return m, nil
	}

	if len(m.grid.cards) == 0 {
		return m, nil
	}

	cols := m.grid.cols()
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveFocus(m.focus - cols)
	case key.Matches(msg, m.keys.Down):
		m.moveFocus(m.focus + cols)
	case key.Matches(msg, m.keys.Left):
		m.moveFocus(m.focus - 1)
	case key.Matches(msg, m.keys.Right):
		m.moveFocus(m.focus + 1)
	case key.Matches(msg, m.keys.Home):
		m.moveFocus(0)
	case key.Matches(msg, m.keys.End):
		m.moveFocus(len(m.grid.cards) - 1)
	case key.Matches(msg, m.keys.PageUp):
		m.scroll(-m.grid.visibleRows())
	case key.Matches(msg, m.keys.PageDown):
		m.scroll(m.grid.visibleRows())

	case key.Matches(msg, m.keys.Toggle):
		h := m.focusHandle()
		if t, ok := m.manager.Tracker(h); ok && t.State() == display.StateActive {
			delete(m.pinned, h)
			m.manager.Hide(h)
		} else {
			m.show(m.focus)
		}

	case key.Matches(msg, m.keys.Pin):
		h := m.focusHandle()
		if m.pinned[h] {
			delete(m.pinned, h)
			return m, setStatus("Unpinned "+h.String(), false)
		}
		m.pinned[h] = true
		m.show(m.focus)
		return m, setStatus("Pinned "+h.String(), false)

	case key.Matches(msg, m.keys.HideAll):
		m.pinned = make(map[display.Handle]bool)
		m.manager.HideAll()
	}

	return m, nil
}

// handleMouse treats pointer motion over a tile as hovering it.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.mode != ModeGrid || !m.cfg.TUI.Mouse {
		return m, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.scroll(-1)
		return m, nil
	case tea.MouseButtonWheelDown:
		m.scroll(1)
		return m, nil
	}

	i, ok := m.grid.at(msg.X, msg.Y)
	if !ok {
		return m, nil
	}

	switch {
	case msg.Action == tea.MouseActionMotion:
		m.moveFocus(i)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.moveFocus(i)
		h := m.focusHandle()
		if m.pinned[h] {
			delete(m.pinned, h)
		} else {
			m.pinned[h] = true
		}
	}
	return m, nil
}

func (m Model) applyConfig(cfg *config.Config) (tea.Model, tea.Cmd) {
	if cfg == nil {
		return m, nil
	}

	opts, err := cfg.TUI.Placement.Options()
	if err != nil {
		return m, setStatus("Config reload failed: "+err.Error(), true)
	}

	wasMouse := m.cfg.TUI.Mouse
	*m.cfg = *cfg
	m.manager.Reconfigure(opts)

	if m.grid.setTile(cfg.TUI.TileWidth, cfg.TUI.TileHeight) {
		m.grid.ensureVisible(m.focus)
		m.bus.Publish(events.Event{Kind: events.KindResize})
	}

	m.logger.Debug("tui config reloaded", "gap", opts.Gap, "margin", opts.Margin, "mouse", cfg.TUI.Mouse)
	status := setStatus("Configuration reloaded", false)
	switch {
	case cfg.TUI.Mouse && !wasMouse:
		return m, tea.Batch(status, tea.EnableMouseAllMotion)
	case !cfg.TUI.Mouse && wasMouse:
		return m, tea.Batch(status, tea.DisableMouse)
	}
	return m, status
}

func setStatus(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// moveFocus hovers card i. The previous card's popover is hidden unless pinned.
func (m *Model) moveFocus(i int) {
	i = min(max(i, 0), len(m.grid.cards)-1)
	if i == m.focus {
		return
	}

	prev := m.focusHandle()
	m.focus = i

	if m.grid.ensureVisible(i) {
		m.publishScroll()
	}
	if !m.pinned[prev] {
		m.manager.Hide(prev)
	}
	m.show(i)
}

func (m *Model) scroll(rows int) {
	if m.grid.scrollBy(rows) {
		m.publishScroll()
	}
}

func (m *Model) publishScroll() {
	m.bus.Publish(events.Event{Kind: events.KindScroll, Target: ScrollTarget})
}

func (m *Model) show(i int) {
	h := handleFor(m.grid.cards[i])
	if err := m.manager.Show(h); err != nil {
		m.logger.Warn("failed to show popover", "error", err)
		return
	}
	if t, ok := m.manager.Tracker(h); ok {
		m.logger.Debug("popover visible",
			"card", h.String(),
			"session", t.SessionID(),
			"computations", t.Computations(),
		)
	}
}

func (m Model) focusHandle() display.Handle {
	if len(m.grid.cards) == 0 {
		return ""
	}
	return handleFor(m.grid.cards[m.focus])
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.mode == ModeHelp {
		return m.viewHelp()
	}

	visible := m.manager.Visible()
	shown := make(map[display.Handle]bool, len(visible))
	for _, h := range visible {
		shown[h] = true
	}

	s := m.grid.render(m.focus, shown)

	// The focused popover is drawn last so it stays on top.
	focused := m.focusHandle()
	for _, h := range visible {
		if h != focused {
			s = m.overlayPopover(s, h)
		}
	}
	if shown[focused] {
		s = m.overlayPopover(s, focused)
	}

	s += "\n" + m.statusLine()
	if m.cfg.TUI.ShowHelp {
		s += "\n" + m.help.View(m.keys)
	}
	return s
}

func (m Model) overlayPopover(bg string, h display.Handle) string {
	t, ok := m.manager.Tracker(h)
	if !ok {
		return bg
	}
	res, ok := t.Result()
	if !ok {
		return bg
	}
	if _, laidOut := m.grid.BoundingRect(h); !laidOut {
		return bg
	}
	c := m.grid.cards[m.grid.index[h]]
	return placeOverlay(res.Left, res.Top, renderPopover(c, m.pinned[h]), bg)
}

func (m Model) statusLine() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	if m.statusMsg != "" {
		if m.statusErr {
			style = style.Foreground(lipgloss.Color("9"))
		}
		return style.Render(ansi.Truncate(m.statusMsg, m.width, "…"))
	}
	if len(m.grid.cards) == 0 {
		return style.Render("No cards")
	}

	h := m.focusHandle()
	parts := []string{h.String()}

	t, _ := m.manager.Tracker(h)
	res, ok := t.Result()
	switch {
	case t.State() != display.StateActive:
		parts = append(parts, "hidden")
	case !ok:
		parts = append(parts, "not laid out")
	default:
		parts = append(parts, fmt.Sprintf("%s at %d,%d", res.Placement, res.Left, res.Top))
		if res.Clamped {
			parts = append(parts, "clamped")
		}
		if res.Shifted {
			parts = append(parts, "shifted")
		}
		parts = append(parts, "placed "+humanize.Time(t.ComputedAt()))
	}

	if n := len(m.manager.Visible()); n > 1 {
		parts = append(parts, fmt.Sprintf("%d open", n))
	}

	return style.Render(ansi.Truncate(strings.Join(parts, " · "), m.width, "…"))
}

func (m Model) viewHelp() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	s := titleStyle.Render("Keyboard Shortcuts") + "\n\n"
	s += m.help.FullHelpView(m.keys.FullHelp()) + "\n\n"
	if m.cfg.TUI.Mouse {
		s += "Moving the mouse over a card hovers it; click pins.\n\n"
	}
	s += lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(
		"Press ? or esc to return")
	return s
}
