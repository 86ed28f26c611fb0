package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hovercard/internal/events"
	"github.com/jmylchreest/hovercard/internal/placement"
)

func newTestManager(screen *fakeScreen) *Manager {
	return NewManager(ManagerOptions{
		Geometry: screen,
		Viewport: screen,
		Options:  placement.DefaultOptions(),
	})
}

func TestManager_IndependentPopovers(t *testing.T) {
	screen := newFakeScreen(placement.Viewport{Width: 1280, Height: 800})
	screen.set("left-card", placement.FromEdges(100, 20, 80, 130))
	screen.set("right-card", placement.FromEdges(100, 1200, 1260, 130))

	m := newTestManager(screen)
	size := placement.Size{Width: 320, Height: 400}
	m.Register("left-card", size)
	m.Register("right-card", size)

	require.NoError(t, m.Show("left-card"))
	require.NoError(t, m.Show("right-card"))
	assert.Equal(t, []Handle{"left-card", "right-card"}, m.Visible())
	assert.Equal(t, 2, m.Bus().Listeners(events.KindScroll))
	assert.Equal(t, 2, m.Bus().Listeners(events.KindResize))

	left, _ := m.Tracker("left-card")
	right, _ := m.Tracker("right-card")
	lres, _ := left.Result()
	rres, _ := right.Result()
	assert.Equal(t, placement.SideRight, lres.Placement)
	assert.Equal(t, placement.SideLeft, rres.Placement)

	m.Hide("left-card")
	assert.Equal(t, []Handle{"right-card"}, m.Visible())
	assert.Equal(t, 1, m.Bus().Listeners(events.KindScroll))

	m.HideAll()
	assert.Empty(t, m.Visible())
	assert.Equal(t, 0, m.Bus().Listeners(events.KindScroll))
	assert.Equal(t, 0, m.Bus().Listeners(events.KindResize))
}

func TestManager_ShowUnknown(t *testing.T) {
	m := newTestManager(newFakeScreen(placement.Viewport{Width: 80, Height: 24}))
	assert.Error(t, m.Show("missing"))
	m.Hide("missing")
}

func TestManager_RegisterTwiceUpdatesSize(t *testing.T) {
	m := newTestManager(newFakeScreen(placement.Viewport{Width: 80, Height: 24}))
	a := m.Register("essay", placement.Size{Width: 10, Height: 5})
	b := m.Register("essay", placement.Size{Width: 20, Height: 6})

	assert.Same(t, a, b)
	assert.Equal(t, placement.Size{Width: 20, Height: 6}, b.Size())
}

func TestManager_Reconfigure(t *testing.T) {
	screen := newFakeScreen(placement.Viewport{Width: 1280, Height: 800})
	screen.set("essay", placement.FromEdges(100, 700, 760, 130))
	m := newTestManager(screen)
	m.Register("essay", placement.Size{Width: 320, Height: 400})
	require.NoError(t, m.Show("essay"))

	opts := placement.Options{Gap: 2, Margin: 0, Priority: []placement.Side{placement.SideLeft}}
	m.Reconfigure(opts)

	assert.Equal(t, opts, m.Options())
	tr, _ := m.Tracker("essay")
	res, _ := tr.Result()
	assert.Equal(t, placement.SideLeft, res.Placement)
	assert.Equal(t, 700-320-2, res.Left)
}
