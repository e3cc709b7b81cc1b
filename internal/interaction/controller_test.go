package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/kgviz/internal/graph"
	"github.com/msalah0e/kgviz/internal/layout"
	"github.com/msalah0e/kgviz/internal/viewport"
)

type fakeSim struct {
	pos     map[string]viewport.Point
	pinned  map[string]bool
	alpha   float64
	reheats int
}

func newFakeSim(pos map[string]viewport.Point) *fakeSim {
	return &fakeSim{pos: pos, pinned: map[string]bool{}}
}

func (f *fakeSim) Pin(id string, x, y float64) bool {
	if _, ok := f.pos[id]; !ok {
		return false
	}
	f.pos[id] = viewport.Point{X: x, Y: y}
	f.pinned[id] = true
	return true
}

func (f *fakeSim) Unpin(id string) bool {
	if !f.pinned[id] {
		return false
	}
	delete(f.pinned, id)
	return true
}

func (f *fakeSim) Reheat(alpha float64) {
	f.reheats++
	if alpha > f.alpha {
		f.alpha = alpha
	}
}

func (f *fakeSim) Running() bool { return f.alpha > 0.001 }

func (f *fakeSim) Position(id string) (float64, float64, bool) {
	p, ok := f.pos[id]
	return p.X, p.Y, ok
}

// a - b - c in a row, d off on its own.
func fixture(t *testing.T) (*Controller, *fakeSim, *viewport.Transform) {
	t.Helper()
	m, err := graph.Build(
		[]graph.Node{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"}, {ID: "d", Name: "D"}},
		[]graph.Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "c"}},
	)
	require.NoError(t, err)
	sim := newFakeSim(map[string]viewport.Point{
		"a": {X: 100, Y: 100},
		"b": {X: 200, Y: 100},
		"c": {X: 300, Y: 100},
		"d": {X: 500, Y: 500},
	})
	view := viewport.New(0.1, 4)
	return New(m, sim, view, DefaultOptions()), sim, view
}

func TestHitTest(t *testing.T) {
	c, _, view := fixture(t)

	id, ok := c.HitTest(viewport.Point{X: 105, Y: 95})
	require.True(t, ok)
	assert.Equal(t, "a", id)

	_, ok = c.HitTest(viewport.Point{X: 150, Y: 100})
	assert.False(t, ok)

	// zoomed in, screen point maps back through the transform
	view.ZoomBy(2, viewport.Point{})
	id, ok = c.HitTest(viewport.Point{X: 400, Y: 200})
	require.True(t, ok)
	assert.Equal(t, "b", id)
}

func TestHitTestSkipsHiddenNodes(t *testing.T) {
	c, _, _ := fixture(t)
	c.SetVisible(func(id string) bool { return id != "a" })
	_, ok := c.HitTest(viewport.Point{X: 100, Y: 100})
	assert.False(t, ok)
}

func TestDragLifecycle(t *testing.T) {
	c, sim, _ := fixture(t)

	require.True(t, c.BeginDrag("b", viewport.Point{X: 210, Y: 110}))
	assert.Equal(t, Dragging, c.NodeState("b"))
	assert.Equal(t, Idle, c.NodeState("a"))
	assert.True(t, sim.pinned["b"])
	assert.Equal(t, viewport.Point{X: 210, Y: 110}, sim.pos["b"])
	assert.Equal(t, 0.3, sim.alpha)

	c.DragTo(viewport.Point{X: 250, Y: 160})
	assert.Equal(t, viewport.Point{X: 250, Y: 160}, sim.pos["b"])

	c.EndDrag()
	assert.Equal(t, Idle, c.NodeState("b"))
	assert.False(t, sim.pinned["b"])
	_, dragging := c.Dragged()
	assert.False(t, dragging)
}

func TestDragUsesModelCoordinates(t *testing.T) {
	c, sim, view := fixture(t)
	view.PanBy(50, 0)
	view.ZoomBy(2, viewport.Point{})

	c.BeginDrag("a", viewport.Point{X: 300, Y: 200})
	want := view.ToModel(viewport.Point{X: 300, Y: 200})
	assert.Equal(t, want, sim.pos["a"])
}

func TestDragReheatsCooledSimulation(t *testing.T) {
	c, sim, _ := fixture(t)
	c.BeginDrag("a", viewport.Point{X: 100, Y: 100})
	sim.alpha = 0
	c.DragTo(viewport.Point{X: 120, Y: 100})
	assert.True(t, sim.Running())
}

func TestUnknownNodeIsNoop(t *testing.T) {
	c, sim, _ := fixture(t)
	assert.False(t, c.BeginDrag("zzz", viewport.Point{}))
	assert.Zero(t, sim.reheats)
	assert.False(t, c.Select("zzz"))
	c.Hover("zzz")
	assert.Empty(t, c.Hovered())
	assert.Equal(t, Idle, c.NodeState("zzz"))
}

func TestClickSelectsAndCanvasClickClears(t *testing.T) {
	c, sim, _ := fixture(t)

	c.PointerDown(viewport.Point{X: 300, Y: 100})
	c.PointerUp(viewport.Point{X: 301, Y: 101})
	sel, ok := c.Selected()
	require.True(t, ok)
	assert.Equal(t, "c", sel)
	assert.False(t, sim.pinned["c"])

	c.PointerDown(viewport.Point{X: 700, Y: 50})
	c.PointerUp(viewport.Point{X: 700, Y: 50})
	_, ok = c.Selected()
	assert.False(t, ok)
}

func TestDragIsNotAClick(t *testing.T) {
	c, sim, _ := fixture(t)
	c.PointerDown(viewport.Point{X: 100, Y: 100})
	c.PointerMove(viewport.Point{X: 160, Y: 140})
	c.PointerUp(viewport.Point{X: 160, Y: 140})

	_, ok := c.Selected()
	assert.False(t, ok)
	assert.Equal(t, viewport.Point{X: 160, Y: 140}, sim.pos["a"])
	assert.False(t, sim.pinned["a"])
}

func TestCanvasDragPans(t *testing.T) {
	c, _, view := fixture(t)
	c.Select("a")

	c.PointerDown(viewport.Point{X: 700, Y: 50})
	assert.True(t, c.Panning())
	c.PointerMove(viewport.Point{X: 720, Y: 40})
	c.PointerMove(viewport.Point{X: 730, Y: 80})
	c.PointerUp(viewport.Point{X: 730, Y: 80})

	x, y := view.Translation()
	assert.Equal(t, 30.0, x)
	assert.Equal(t, 30.0, y)
	assert.False(t, c.Panning())

	sel, _ := c.Selected()
	assert.Equal(t, "a", sel, "a pan must not clear the selection")
}

func TestWheelZoomsAroundPointer(t *testing.T) {
	c, _, view := fixture(t)
	anchor := viewport.Point{X: 400, Y: 300}
	under := view.ToModel(anchor)

	c.Wheel(-1, anchor)
	assert.InDelta(t, 1.1, view.Scale(), 1e-12)
	got := view.ToScreen(under)
	assert.InDelta(t, anchor.X, got.X, 1e-9)
	assert.InDelta(t, anchor.Y, got.Y, 1e-9)

	c.Wheel(1, anchor)
	assert.InDelta(t, 1.0, view.Scale(), 1e-12)

	c.Wheel(0, anchor)
	assert.InDelta(t, 1.0, view.Scale(), 1e-12)
}

func TestHoverEmphasis(t *testing.T) {
	c, _, _ := fixture(t)
	assert.Equal(t, Normal, c.NodeEmphasis("a"))
	assert.Equal(t, Normal, c.EdgeEmphasis(0))

	c.PointerMove(viewport.Point{X: 100, Y: 100})
	require.Equal(t, "a", c.Hovered())

	assert.Equal(t, Emphasized, c.NodeEmphasis("a"))
	assert.Equal(t, Emphasized, c.NodeEmphasis("b"))
	assert.Equal(t, Deemphasized, c.NodeEmphasis("c"))
	assert.Equal(t, Deemphasized, c.NodeEmphasis("d"))
	assert.Equal(t, Emphasized, c.EdgeEmphasis(0))
	assert.Equal(t, Deemphasized, c.EdgeEmphasis(1))

	assert.Equal(t, 1.0, c.NodeOpacity("b"))
	assert.Equal(t, NodeDimmed, c.NodeOpacity("d"))
	assert.Equal(t, 1.0, c.EdgeOpacity(0))
	assert.Equal(t, EdgeDimmed, c.EdgeOpacity(1))

	c.PointerMove(viewport.Point{X: 700, Y: 700})
	assert.Empty(t, c.Hovered())
	assert.Equal(t, EdgeResting, c.EdgeOpacity(1))
	assert.Equal(t, 1.0, c.NodeOpacity("d"))

	c.Hover("b")
	c.PointerLeave()
	assert.Empty(t, c.Hovered())
}

func TestHiddenHoverIsDropped(t *testing.T) {
	c, _, _ := fixture(t)
	c.Hover("a")
	c.SetVisible(func(id string) bool { return id != "a" })
	assert.Empty(t, c.Hovered())
}

func TestPointerLeaveEndsDrag(t *testing.T) {
	c, sim, _ := fixture(t)
	c.PointerDown(viewport.Point{X: 200, Y: 100})
	c.PointerLeave()
	assert.False(t, sim.pinned["b"])
	_, ok := c.Selected()
	assert.False(t, ok)
}

func TestRebindKeepsSurvivors(t *testing.T) {
	c, _, _ := fixture(t)
	c.Select("a")
	c.Hover("d")
	c.BeginDrag("b", viewport.Point{X: 200, Y: 100})

	m, err := graph.Build([]graph.Node{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}, nil)
	require.NoError(t, err)
	sim := newFakeSim(map[string]viewport.Point{"a": {}, "b": {}})
	c.Rebind(m, sim)

	sel, _ := c.Selected()
	assert.Equal(t, "a", sel)
	assert.Empty(t, c.Hovered())
	assert.Equal(t, Dragging, c.NodeState("b"))
	assert.True(t, sim.pinned["b"])

	empty := graph.Empty()
	c.Rebind(empty, newFakeSim(map[string]viewport.Point{}))
	_, ok := c.Selected()
	assert.False(t, ok)
	_, ok = c.Dragged()
	assert.False(t, ok)
}

func TestDrivesRealSimulation(t *testing.T) {
	m, err := graph.Build(
		[]graph.Node{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}},
		[]graph.Edge{{Source: "a", Target: "b"}},
	)
	require.NoError(t, err)
	sim := layout.New(m, layout.Defaults())
	sim.Run(1000)
	require.False(t, sim.Running())

	view := viewport.New(0.1, 4)
	c := New(m, sim, view, DefaultOptions())
	x, y, _ := sim.Position("a")

	c.PointerDown(view.ToScreen(viewport.Point{X: x, Y: y}))
	assert.True(t, sim.Running())
	c.PointerMove(viewport.Point{X: 50, Y: 50})
	for i := 0; i < 10; i++ {
		sim.Tick()
	}
	px, py, _ := sim.Position("a")
	assert.Equal(t, 50.0, px)
	assert.Equal(t, 50.0, py)

	c.PointerUp(viewport.Point{X: 50, Y: 50})
	assert.False(t, sim.IsPinned("a"))
}
