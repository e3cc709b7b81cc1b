package layout

import "math"

// Body is the kinetic state of one node. Bodies are indexed by the node's
// arena index in the graph model.
type Body struct {
	X, Y   float64
	VX, VY float64

	// Pinned bodies are held at (FX, FY) and skipped by integration.
	Pinned bool
	FX, FY float64
}

// State is everything a tick reads and writes.
type State struct {
	Bodies []Body
	Alpha  float64
}

const (
	initialRadius = 10.0
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// place seeds bodies on a phyllotaxis spiral around (cx, cy). Placement is
// deterministic, so fixed input always produces the same layout.
func place(bodies []Body, cx, cy float64) {
	for i := range bodies {
		r := initialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * initialAngle
		bodies[i] = Body{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
}

// Force mutates body velocities for one tick at the given alpha.
type Force interface {
	Apply(s *State, alpha float64)
}

// Step advances s by one tick: alpha decays, every force adds to the
// velocities, then positions integrate with semi-implicit Euler. Pinned
// bodies snap to their pin with zero velocity.
func Step(s *State, forces []Force, o Options) {
	s.Alpha *= 1 - o.AlphaDecay

	for _, f := range forces {
		f.Apply(s, s.Alpha)
	}

	keep := 1 - o.VelocityDecay
	for i := range s.Bodies {
		b := &s.Bodies[i]
		if b.Pinned {
			b.X, b.Y = b.FX, b.FY
			b.VX, b.VY = 0, 0
			continue
		}
		b.VX *= keep
		b.VY *= keep
		b.X += b.VX
		b.Y += b.VY
	}
}
