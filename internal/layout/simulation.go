package layout

import (
	"math"
	"math/rand"

	"github.com/msalah0e/kgviz/internal/graph"
)

// Simulation lays out one graph model. It is not safe for concurrent use;
// the owner calls Tick from its frame loop and mutates pins between ticks.
type Simulation struct {
	model   *graph.Model
	opts    Options
	state   State
	forces  []Force
	running bool
	ticks   int
}

// New seeds a simulation for m at full energy (alpha 1).
func New(m *graph.Model, o Options) *Simulation {
	return NewFrom(m, o, nil)
}

// NewFrom seeds a simulation for m. Nodes whose ids also exist in prev keep
// their position and velocity, and the simulation starts at the reheat
// alpha instead of full energy so a refreshed graph does not explode.
func NewFrom(m *graph.Model, o Options, prev *Simulation) *Simulation {
	o = o.Normalize()
	s := &Simulation{
		model: m,
		opts:  o,
		state: State{Bodies: make([]Body, m.Len()), Alpha: 1},
	}
	place(s.state.Bodies, o.Width/2, o.Height/2)

	if prev != nil {
		carried := 0
		for i, n := range m.Nodes() {
			j, ok := prev.model.Index(n.ID)
			if !ok {
				continue
			}
			pb := prev.state.Bodies[j]
			s.state.Bodies[i] = Body{X: pb.X, Y: pb.Y, VX: pb.VX, VY: pb.VY}
			carried++
		}
		if carried > 0 {
			s.state.Alpha = o.ReheatAlpha
		}
	}

	r := rand.New(rand.NewSource(o.Seed))
	links := make([][2]int, 0, len(m.Edges()))
	for _, e := range m.Edges() {
		si, _ := m.Index(e.Source)
		ti, _ := m.Index(e.Target)
		links = append(links, [2]int{si, ti})
	}
	s.forces = []Force{
		newLinkForce(links, m.Len(), o.LinkDistance, r),
		newChargeForce(o, r),
		&centerForce{cx: o.Width / 2, cy: o.Height / 2, strength: o.CenterStrength},
		newCollideForce(o.CollisionRadius(), o.CollisionStrength, r),
	}
	s.running = m.Len() > 0
	return s
}

// Tick advances one step if the simulation is running and reports whether
// it is still running afterwards. Ticking stops once alpha falls below
// AlphaMin.
func (s *Simulation) Tick() bool {
	if !s.running {
		return false
	}
	Step(&s.state, s.forces, s.opts)
	s.ticks++
	if s.state.Alpha < s.opts.AlphaMin {
		s.running = false
	}
	return s.running
}

// Run ticks until the simulation stops or maxTicks is reached and returns
// the number of ticks taken.
func (s *Simulation) Run(maxTicks int) int {
	n := 0
	for n < maxTicks && s.Tick() {
		n++
	}
	return n
}

// Running reports whether further ticks will move anything.
func (s *Simulation) Running() bool { return s.running }

// Stop halts ticking without touching alpha.
func (s *Simulation) Stop() { s.running = false }

// Alpha returns the current energy.
func (s *Simulation) Alpha() float64 { return s.state.Alpha }

// Ticks returns the number of ticks applied so far.
func (s *Simulation) Ticks() int { return s.ticks }

// Options returns the normalized options.
func (s *Simulation) Options() Options { return s.opts }

// Model returns the graph being laid out.
func (s *Simulation) Model() *graph.Model { return s.model }

// Bodies exposes the kinetic state indexed like Model().Nodes(). Callers
// must treat it as read-only.
func (s *Simulation) Bodies() []Body { return s.state.Bodies }

// Reheat raises alpha to at least the given value and re-arms ticking.
// It never cools a hotter simulation.
func (s *Simulation) Reheat(alpha float64) {
	if math.IsNaN(alpha) {
		return
	}
	alpha = math.Max(0, math.Min(1, alpha))
	if alpha > s.state.Alpha {
		s.state.Alpha = alpha
	}
	s.running = s.model.Len() > 0 && s.state.Alpha >= s.opts.AlphaMin
}

// Pin fixes a node at (x, y) until Unpin. Unknown ids are ignored.
func (s *Simulation) Pin(id string, x, y float64) bool {
	i, ok := s.model.Index(id)
	if !ok || math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	b := &s.state.Bodies[i]
	b.Pinned = true
	b.FX, b.FY = x, y
	b.X, b.Y = x, y
	b.VX, b.VY = 0, 0
	return true
}

// Unpin returns a node to simulation control.
func (s *Simulation) Unpin(id string) bool {
	i, ok := s.model.Index(id)
	if !ok {
		return false
	}
	s.state.Bodies[i].Pinned = false
	return true
}

// IsPinned reports whether id is pinned.
func (s *Simulation) IsPinned(id string) bool {
	i, ok := s.model.Index(id)
	return ok && s.state.Bodies[i].Pinned
}

// Position returns the model-space position of id.
func (s *Simulation) Position(id string) (x, y float64, ok bool) {
	i, ok := s.model.Index(id)
	if !ok {
		return 0, 0, false
	}
	b := s.state.Bodies[i]
	return b.X, b.Y, true
}
