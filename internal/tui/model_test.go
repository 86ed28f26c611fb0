package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hovercard/internal/config"
	"github.com/jmylchreest/hovercard/internal/display"
	"github.com/jmylchreest/hovercard/internal/events"
	"github.com/jmylchreest/hovercard/internal/placement"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	m := New(Options{Config: config.DefaultConfig(), Cards: testCards(20)})
	return update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func tracker(t *testing.T, m Model, h display.Handle) *display.Tracker {
	t.Helper()
	tr, ok := m.manager.Tracker(h)
	require.True(t, ok)
	return tr
}

func TestModel_NotReadyBeforeResize(t *testing.T) {
	m := New(Options{Cards: testCards(3)})
	assert.Equal(t, "Initializing...", m.View())
	assert.Empty(t, m.manager.Visible())
	assert.Equal(t, 0, m.bus.Listeners(events.KindScroll))
}

func TestModel_FirstResizeHoversFocusedCard(t *testing.T) {
	m := newTestModel(t)

	assert.True(t, m.ready)
	assert.Equal(t, []display.Handle{"card-00"}, m.manager.Visible())
	assert.Equal(t, 1, m.bus.Listeners(events.KindScroll))
	assert.Equal(t, 1, m.bus.Listeners(events.KindResize))

	res, ok := tracker(t, m, "card-00").Result()
	require.True(t, ok)
	assert.Equal(t, placement.Result{Top: 1, Left: 26, Placement: placement.SideRight}, res)
}

func TestModel_MoveFocusHidesPrevious(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})

	assert.Equal(t, 1, m.focus)
	assert.Equal(t, display.StateIdle, tracker(t, m, "card-00").State())
	assert.Equal(t, display.StateActive, tracker(t, m, "card-01").State())
	assert.Equal(t, 1, m.bus.Listeners(events.KindScroll))
	assert.Equal(t, 1, m.bus.Listeners(events.KindResize))
}

func TestModel_FocusClampsAtEdges(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.focus)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 3, m.focus)
}

func TestModel_PinKeepsPopoverOpen(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, runes("p"))
	assert.True(t, m.pinned["card-00"])

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})

	assert.Equal(t, []display.Handle{"card-00", "card-01"}, m.manager.Visible())
	assert.Equal(t, 2, m.bus.Listeners(events.KindScroll))
	assert.Equal(t, 2, m.bus.Listeners(events.KindResize))

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.manager.Visible())
	assert.Empty(t, m.pinned)
	assert.Equal(t, 0, m.bus.Listeners(events.KindScroll))
	assert.Equal(t, 0, m.bus.Listeners(events.KindResize))
}

func TestModel_ToggleFocusedPopover(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, display.StateIdle, tracker(t, m, "card-00").State())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, display.StateActive, tracker(t, m, "card-00").State())
}

func TestModel_FocusOffScreenScrollsGrid(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, runes("p"))
	first := tracker(t, m, "card-00")
	before := first.Computations()

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnd})

	assert.Equal(t, 19, m.focus)
	assert.Equal(t, 2, m.grid.scroll)

	// The pinned card scrolled out, so its placement was not recomputed.
	assert.Equal(t, display.StateActive, first.State())
	assert.Equal(t, before, first.Computations())

	res, ok := tracker(t, m, "card-19").Result()
	require.True(t, ok)
	assert.Equal(t, placement.SideTop, res.Placement)
	assert.False(t, res.Clamped)
}

func TestModel_PageDownPublishesScroll(t *testing.T) {
	m := newTestModel(t)
	tr := tracker(t, m, "card-00")
	before := tr.Computations()

	var seen []events.Event
	sub := m.bus.Subscribe(events.KindScroll, func(ev events.Event) {
		seen = append(seen, ev)
	}, events.WithCapture())
	defer sub.Close()

	m = update(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	require.Len(t, seen, 1)
	assert.Equal(t, ScrollTarget, seen[0].Target)
	assert.Equal(t, 2, m.grid.scroll)
	assert.Equal(t, before, tr.Computations())

	// Already at the bottom: no scroll, no event.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Len(t, seen, 1)
}

func TestModel_ResizeRecomputes(t *testing.T) {
	m := newTestModel(t)
	tr := tracker(t, m, "card-00")
	before := tr.Computations()

	m = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 24})

	assert.Equal(t, before+1, tr.Computations())
	res, ok := tr.Result()
	require.True(t, ok)
	assert.Equal(t, placement.SideBottom, res.Placement)
	assert.Equal(t, 1, m.bus.Listeners(events.KindResize))
}

func TestModel_MouseHover(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, tea.MouseMsg{X: 30, Y: 2, Action: tea.MouseActionMotion, Button: tea.MouseButtonNone})
	assert.Equal(t, 1, m.focus)
	assert.Equal(t, []display.Handle{"card-01"}, m.manager.Visible())

	m = update(t, m, tea.MouseMsg{X: 30, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.True(t, m.pinned["card-01"])

	m = update(t, m, tea.MouseMsg{X: 30, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	assert.Equal(t, 1, m.grid.scroll)
}

func TestModel_ConfigReload(t *testing.T) {
	m := newTestModel(t)

	cfg := config.DefaultConfig()
	cfg.TUI.Placement.Gap = 3
	next, cmd := m.Update(ConfigReloadedMsg{Config: cfg})
	m = next.(Model)
	require.NotNil(t, cmd)

	assert.Equal(t, 3, m.manager.Options().Gap)
	res, ok := tracker(t, m, "card-00").Result()
	require.True(t, ok)
	assert.Equal(t, 28, res.Left)

	bad := config.DefaultConfig()
	bad.TUI.Placement.Priority = []string{"sideways"}
	next, cmd = m.Update(ConfigReloadedMsg{Config: bad})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, 3, m.manager.Options().Gap)

	msg, ok := cmd().(statusMsg)
	require.True(t, ok)
	assert.True(t, msg.isErr)
}

// batchMsgs runs cmd and flattens a batch into its messages.
func batchMsgs(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var msgs []tea.Msg
	for _, c := range batch {
		if c != nil {
			msgs = append(msgs, c())
		}
	}
	return msgs
}

func TestModel_ConfigReloadTogglesMouse(t *testing.T) {
	m := newTestModel(t)
	require.True(t, m.cfg.TUI.Mouse)

	off := config.DefaultConfig()
	off.TUI.Mouse = false
	next, cmd := m.Update(ConfigReloadedMsg{Config: off})
	m = next.(Model)
	assert.Contains(t, batchMsgs(t, cmd), tea.DisableMouse())

	// Motion is ignored while the mouse is off.
	focus := m.focus
	m = update(t, m, tea.MouseMsg{X: 30, Y: 2, Action: tea.MouseActionMotion, Button: tea.MouseButtonNone})
	assert.Equal(t, focus, m.focus)

	on := config.DefaultConfig()
	next, cmd = m.Update(ConfigReloadedMsg{Config: on})
	m = next.(Model)
	assert.Contains(t, batchMsgs(t, cmd), tea.EnableMouseAllMotion())

	// Reloading without a change leaves the terminal mode alone.
	_, cmd = m.Update(ConfigReloadedMsg{Config: config.DefaultConfig()})
	msgs := batchMsgs(t, cmd)
	require.Len(t, msgs, 1)
	assert.IsType(t, statusMsg{}, msgs[0])
}

func TestModel_QuitReleasesSubscriptions(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, runes("p"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, 0, m.bus.Listeners(events.KindScroll))
	assert.Equal(t, 0, m.bus.Listeners(events.KindResize))
}

func TestModel_View(t *testing.T) {
	m := newTestModel(t)

	out := m.View()
	assert.Contains(t, out, "Card 0")
	assert.Contains(t, out, "card-00 · right at 26,1")
	assert.Contains(t, out, "A short description")

	m = update(t, m, runes("?"))
	assert.Equal(t, ModeHelp, m.mode)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeGrid, m.mode)
}
