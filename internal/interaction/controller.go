// Package interaction turns pointer input into drag, pan, zoom, hover and
// selection state. It owns no rendering; the renderer queries it.
package interaction

import (
	"math"

	"github.com/msalah0e/kgviz/internal/graph"
	"github.com/msalah0e/kgviz/internal/viewport"
)

// NodeState is the per-node drag state.
type NodeState int

const (
	Idle NodeState = iota
	Dragging
)

func (s NodeState) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Emphasis is how hover affects a node or edge.
type Emphasis int

const (
	// Normal means nothing is hovered.
	Normal Emphasis = iota
	Emphasized
	Deemphasized
)

// Simulation is the part of the layout the controller drives.
type Simulation interface {
	Pin(id string, x, y float64) bool
	Unpin(id string) bool
	Reheat(alpha float64)
	Running() bool
	Position(id string) (x, y float64, ok bool)
}

// Options tunes pointer handling.
type Options struct {
	// HitRadius is the node radius in model units.
	HitRadius float64
	// ClickTolerance is how far (screen pixels) a pointer may travel
	// between down and up and still count as a click.
	ClickTolerance float64
	ReheatAlpha    float64
	// WheelStep is the zoom factor of one wheel notch.
	WheelStep float64
}

// DefaultOptions returns the stock pointer settings.
func DefaultOptions() Options {
	return Options{HitRadius: 20, ClickTolerance: 3, ReheatAlpha: 0.3, WheelStep: 1.1}
}

type gesture struct {
	nodeID string // empty for a canvas pan
	down   viewport.Point
	last   viewport.Point
	moved  bool
}

// Controller is the interaction state machine. Like the simulation it is
// driven from a single goroutine.
type Controller struct {
	model   *graph.Model
	sim     Simulation
	view    *viewport.Transform
	visible func(id string) bool
	opts    Options

	gesture  *gesture
	hovered  string
	selected string
}

// New returns a controller with every node visible.
func New(m *graph.Model, sim Simulation, view *viewport.Transform, opts Options) *Controller {
	d := DefaultOptions()
	if opts.HitRadius <= 0 {
		opts.HitRadius = d.HitRadius
	}
	if opts.ClickTolerance < 0 {
		opts.ClickTolerance = d.ClickTolerance
	}
	if opts.ReheatAlpha <= 0 {
		opts.ReheatAlpha = d.ReheatAlpha
	}
	if opts.WheelStep <= 1 {
		opts.WheelStep = d.WheelStep
	}
	return &Controller{
		model:   m,
		sim:     sim,
		view:    view,
		visible: func(string) bool { return true },
		opts:    opts,
	}
}

// Rebind points the controller at a replacement model and simulation.
// Drag, hover and selection survive only if their node still exists; a
// surviving drag is re-pinned in the new simulation.
func (c *Controller) Rebind(m *graph.Model, sim Simulation) {
	c.model = m
	c.sim = sim
	if c.hovered != "" && !m.Has(c.hovered) {
		c.hovered = ""
	}
	if c.selected != "" && !m.Has(c.selected) {
		c.selected = ""
	}
	if g := c.gesture; g != nil && g.nodeID != "" {
		if !m.Has(g.nodeID) {
			c.gesture = nil
			return
		}
		p := c.view.ToModel(g.last)
		sim.Pin(g.nodeID, p.X, p.Y)
		sim.Reheat(c.opts.ReheatAlpha)
	}
}

// SetVisible installs the filter predicate used for hit testing. A hovered
// node that becomes hidden loses its hover.
func (c *Controller) SetVisible(visible func(id string) bool) {
	if visible == nil {
		visible = func(string) bool { return true }
	}
	c.visible = visible
	if c.hovered != "" && !visible(c.hovered) {
		c.hovered = ""
	}
}

// ─── Hit testing ───

// HitTest returns the topmost visible node under a screen point. Later
// nodes are drawn on top, so the search runs back to front.
func (c *Controller) HitTest(p viewport.Point) (string, bool) {
	mp := c.view.ToModel(p)
	r2 := c.opts.HitRadius * c.opts.HitRadius
	nodes := c.model.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		id := nodes[i].ID
		if !c.visible(id) {
			continue
		}
		x, y, ok := c.sim.Position(id)
		if !ok {
			continue
		}
		dx, dy := x-mp.X, y-mp.Y
		if dx*dx+dy*dy <= r2 {
			return id, true
		}
	}
	return "", false
}

// ─── Pointer events ───

// PointerDown starts a node drag when a visible node is under the pointer
// and a canvas pan otherwise.
func (c *Controller) PointerDown(p viewport.Point) {
	if c.gesture != nil {
		c.PointerUp(c.gesture.last)
	}
	if id, ok := c.HitTest(p); ok {
		c.BeginDrag(id, p)
		return
	}
	c.gesture = &gesture{down: p, last: p}
}

// PointerMove continues a drag or pan and refreshes hover.
func (c *Controller) PointerMove(p viewport.Point) {
	if g := c.gesture; g != nil {
		if g.nodeID != "" {
			c.DragTo(p)
		} else {
			c.view.PanBy(p.X-g.last.X, p.Y-g.last.Y)
			c.track(p)
		}
	}
	if id, ok := c.HitTest(p); ok {
		c.hovered = id
	} else if c.gesture == nil || c.gesture.nodeID == "" {
		c.hovered = ""
	}
}

// PointerUp ends the current gesture. A gesture that never moved past the
// click tolerance is a click: on a node it selects it, on the canvas it
// clears the selection.
func (c *Controller) PointerUp(p viewport.Point) {
	g := c.gesture
	if g == nil {
		return
	}
	c.track(p)
	id, moved := g.nodeID, g.moved
	if id != "" {
		c.EndDrag()
	}
	c.gesture = nil

	if moved {
		return
	}
	if id != "" {
		c.Select(id)
	} else {
		c.ClearSelection()
	}
}

// PointerLeave drops hover; an active gesture is ended where it was.
func (c *Controller) PointerLeave() {
	if g := c.gesture; g != nil {
		g.moved = true
		c.PointerUp(g.last)
	}
	c.hovered = ""
}

// Wheel zooms around the pointer: negative delta zooms in.
func (c *Controller) Wheel(delta float64, p viewport.Point) {
	switch {
	case delta < 0:
		c.view.ZoomBy(c.opts.WheelStep, p)
	case delta > 0:
		c.view.ZoomBy(1/c.opts.WheelStep, p)
	}
}

func (c *Controller) track(p viewport.Point) {
	g := c.gesture
	if g == nil {
		return
	}
	g.last = p
	if math.Hypot(p.X-g.down.X, p.Y-g.down.Y) > c.opts.ClickTolerance {
		g.moved = true
	}
}

// ─── Drag ───

// BeginDrag moves id from Idle to Dragging: the node is pinned at the
// pointer's model position and the simulation is reheated. Unknown ids
// are ignored.
func (c *Controller) BeginDrag(id string, p viewport.Point) bool {
	if !c.model.Has(id) {
		return false
	}
	if c.gesture != nil && c.gesture.nodeID != "" {
		c.EndDrag()
	}
	mp := c.view.ToModel(p)
	if !c.sim.Pin(id, mp.X, mp.Y) {
		return false
	}
	c.sim.Reheat(c.opts.ReheatAlpha)
	c.gesture = &gesture{nodeID: id, down: p, last: p}
	return true
}

// DragTo moves the pin of the dragged node. A simulation that has already
// cooled is re-armed so neighbours follow.
func (c *Controller) DragTo(p viewport.Point) {
	g := c.gesture
	if g == nil || g.nodeID == "" {
		return
	}
	c.track(p)
	mp := c.view.ToModel(p)
	c.sim.Pin(g.nodeID, mp.X, mp.Y)
	if !c.sim.Running() {
		c.sim.Reheat(c.opts.ReheatAlpha)
	}
}

// EndDrag moves the dragged node back to Idle and releases its pin.
func (c *Controller) EndDrag() {
	g := c.gesture
	if g == nil || g.nodeID == "" {
		return
	}
	c.sim.Unpin(g.nodeID)
	g.nodeID = ""
	g.moved = true
	c.gesture = nil
}

// Dragged returns the node being dragged, if any.
func (c *Controller) Dragged() (string, bool) {
	if c.gesture == nil || c.gesture.nodeID == "" {
		return "", false
	}
	return c.gesture.nodeID, true
}

// Panning reports whether a canvas pan is in progress.
func (c *Controller) Panning() bool {
	return c.gesture != nil && c.gesture.nodeID == ""
}

// NodeState returns the drag state of id.
func (c *Controller) NodeState(id string) NodeState {
	if d, ok := c.Dragged(); ok && d == id {
		return Dragging
	}
	return Idle
}

// ─── Hover ───

// Hover marks id as hovered. Unknown or hidden ids clear the hover.
func (c *Controller) Hover(id string) {
	if !c.model.Has(id) || !c.visible(id) {
		c.hovered = ""
		return
	}
	c.hovered = id
}

// Hovered returns the hovered node id or "".
func (c *Controller) Hovered() string { return c.hovered }

// NodeEmphasis is Emphasized for the hovered node and its direct
// neighbours, Deemphasized for everything else, and Normal with no hover.
func (c *Controller) NodeEmphasis(id string) Emphasis {
	if c.hovered == "" {
		return Normal
	}
	if id == c.hovered || c.model.IsNeighbor(c.hovered, id) {
		return Emphasized
	}
	return Deemphasized
}

// EdgeEmphasis is Emphasized for edges touching the hovered node.
func (c *Controller) EdgeEmphasis(i int) Emphasis {
	if c.hovered == "" {
		return Normal
	}
	edges := c.model.Edges()
	if i < 0 || i >= len(edges) {
		return Deemphasized
	}
	if e := edges[i]; e.Source == c.hovered || e.Target == c.hovered {
		return Emphasized
	}
	return Deemphasized
}

// Opacities used for hover emphasis.
const (
	NodeDimmed  = 0.3
	EdgeResting = 0.6
	EdgeDimmed  = 0.1
	fullyOpaque = 1.0
)

// NodeOpacity maps NodeEmphasis to an opacity multiplier.
func (c *Controller) NodeOpacity(id string) float64 {
	if c.NodeEmphasis(id) == Deemphasized {
		return NodeDimmed
	}
	return fullyOpaque
}

// EdgeOpacity maps EdgeEmphasis to an opacity multiplier.
func (c *Controller) EdgeOpacity(i int) float64 {
	switch c.EdgeEmphasis(i) {
	case Emphasized:
		return fullyOpaque
	case Deemphasized:
		return EdgeDimmed
	}
	return EdgeResting
}

// ─── Selection ───

// Select makes id the single selected node. Unknown ids are ignored.
func (c *Controller) Select(id string) bool {
	if !c.model.Has(id) {
		return false
	}
	c.selected = id
	return true
}

// ClearSelection deselects.
func (c *Controller) ClearSelection() { c.selected = "" }

// Selected returns the selected node id.
func (c *Controller) Selected() (string, bool) {
	return c.selected, c.selected != ""
}
