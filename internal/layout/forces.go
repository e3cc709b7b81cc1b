package layout

import (
	"math"
	"math/rand"

	"github.com/msalah0e/kgviz/internal/parallel"
)

const minDistance2 = 1.0

// jiggle returns a tiny non-zero offset used to separate coincident points.
func jiggle(r *rand.Rand) float64 {
	return (r.Float64() - 0.5) * 1e-6
}

// ─── Link ───

// linkForce pulls the endpoints of each edge toward LinkDistance. Strength
// is 1/min(degree) so hubs are not torn apart; the correction is split
// between the endpoints in proportion to their degree.
type linkForce struct {
	source, target []int
	strength       []float64
	bias           []float64
	distance       float64
	rand           *rand.Rand
}

func newLinkForce(links [][2]int, n int, distance float64, r *rand.Rand) *linkForce {
	count := make([]int, n)
	for _, l := range links {
		count[l[0]]++
		count[l[1]]++
	}
	f := &linkForce{distance: distance, rand: r}
	for _, l := range links {
		s, t := l[0], l[1]
		if s == t {
			continue
		}
		f.source = append(f.source, s)
		f.target = append(f.target, t)
		f.strength = append(f.strength, 1/float64(min(count[s], count[t])))
		f.bias = append(f.bias, float64(count[s])/float64(count[s]+count[t]))
	}
	return f
}

func (f *linkForce) Apply(s *State, alpha float64) {
	for i := range f.source {
		src, dst := &s.Bodies[f.source[i]], &s.Bodies[f.target[i]]
		x := dst.X + dst.VX - src.X - src.VX
		y := dst.Y + dst.VY - src.Y - src.VY
		if x == 0 {
			x = jiggle(f.rand)
		}
		if y == 0 {
			y = jiggle(f.rand)
		}
		l := math.Sqrt(x*x + y*y)
		l = (l - f.distance) / l * alpha * f.strength[i]
		x *= l
		y *= l
		b := f.bias[i]
		dst.VX -= x * b
		dst.VY -= y * b
		src.VX += x * (1 - b)
		src.VY += y * (1 - b)
	}
}

// ─── Charge ───

// chargeForce makes every pair of nodes repel. Small graphs use the exact
// pairwise sum, larger ones a Barnes-Hut walk over a quadtree; very large
// ones run the walk on several goroutines that only read positions and
// write their own velocity deltas, applied afterwards in one pass.
type chargeForce struct {
	strength     float64
	theta2       float64
	bhThreshold  int
	parThreshold int
	concurrency  int
	rand         *rand.Rand

	dvx, dvy []float64
}

func newChargeForce(o Options, r *rand.Rand) *chargeForce {
	return &chargeForce{
		strength:     o.ChargeStrength,
		theta2:       o.Theta * o.Theta,
		bhThreshold:  o.BarnesHutThreshold,
		parThreshold: o.ParallelThreshold,
		concurrency:  o.Concurrency,
		rand:         r,
	}
}

func (f *chargeForce) Apply(s *State, alpha float64) {
	n := len(s.Bodies)
	if n < 2 {
		return
	}
	if n <= f.bhThreshold {
		f.exact(s, alpha)
		return
	}

	if cap(f.dvx) < n {
		f.dvx = make([]float64, n)
		f.dvy = make([]float64, n)
	}
	f.dvx, f.dvy = f.dvx[:n], f.dvy[:n]

	tree := newQuadtree(s.Bodies)
	walk := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			f.dvx[i], f.dvy[i] = f.approximate(tree, tree.root, i, alpha)
		}
	}
	if n > f.parThreshold {
		parallel.Chunks(n, f.concurrency, walk)
	} else {
		walk(0, n)
	}

	for i := range s.Bodies {
		s.Bodies[i].VX += f.dvx[i]
		s.Bodies[i].VY += f.dvy[i]
	}
}

func (f *chargeForce) exact(s *State, alpha float64) {
	b := s.Bodies
	for i := 0; i < len(b); i++ {
		for j := i + 1; j < len(b); j++ {
			x := b[j].X - b[i].X
			y := b[j].Y - b[i].Y
			if x == 0 {
				x = jiggle(f.rand)
			}
			if y == 0 {
				y = jiggle(f.rand)
			}
			l := x*x + y*y
			if l < minDistance2 {
				l = math.Sqrt(minDistance2 * l)
			}
			w := f.strength * alpha / l
			b[i].VX += x * w
			b[i].VY += y * w
			b[j].VX -= x * w
			b[j].VY -= y * w
		}
	}
}

// approximate returns the velocity change of body i from every body under
// q. It only reads the tree, so concurrent calls are safe.
func (f *chargeForce) approximate(t *quadtree, q *quad, i int, alpha float64) (dvx, dvy float64) {
	if q == nil || q.count == 0 {
		return 0, 0
	}
	px, py := t.xs[i], t.ys[i]
	x, y := q.cx-px, q.cy-py
	w := q.x1 - q.x0
	l := x*x + y*y

	if w*w/f.theta2 < l {
		if l < minDistance2 {
			l = math.Sqrt(minDistance2 * l)
		}
		k := f.strength * float64(q.count) * alpha / l
		return x * k, y * k
	}

	if !q.leaf {
		for _, c := range q.children {
			cx, cy := f.approximate(t, c, i, alpha)
			dvx += cx
			dvy += cy
		}
		return dvx, dvy
	}

	for _, p := range q.points {
		if p == i {
			continue
		}
		x, y := t.xs[p]-px, t.ys[p]-py
		if x == 0 {
			x = pairJiggle(i, p)
		}
		if y == 0 {
			y = pairJiggle(p, i)
		}
		l := x*x + y*y
		if l < minDistance2 {
			l = math.Sqrt(minDistance2 * l)
		}
		k := f.strength * alpha / l
		dvx += x * k
		dvy += y * k
	}
	return dvx, dvy
}

// pairJiggle is a deterministic stand-in for jiggle on the concurrent path,
// where a shared rand.Rand cannot be used.
func pairJiggle(a, b int) float64 {
	h := uint32(a)*2654435761 ^ uint32(b)*40503
	return (float64(h%1000)/1000 - 0.5 + 1e-3) * 1e-6
}

// ─── Center ───

// centerForce shifts unpinned bodies so their centroid moves a fraction of
// the way toward (cx, cy). It adjusts positions, not velocities.
type centerForce struct {
	cx, cy   float64
	strength float64
}

func (f *centerForce) Apply(s *State, _ float64) {
	var sx, sy float64
	n := 0
	for _, b := range s.Bodies {
		if b.Pinned {
			continue
		}
		sx += b.X
		sy += b.Y
		n++
	}
	if n == 0 {
		return
	}
	dx := (sx/float64(n) - f.cx) * f.strength
	dy := (sy/float64(n) - f.cy) * f.strength
	for i := range s.Bodies {
		if s.Bodies[i].Pinned {
			continue
		}
		s.Bodies[i].X -= dx
		s.Bodies[i].Y -= dy
	}
}

// ─── Collision ───

// collideForce keeps bodies at least 2*radius apart. Candidates come from a
// uniform grid with cells of one diameter, so only the 3x3 neighbourhood of
// each body is examined.
type collideForce struct {
	radius   float64
	strength float64
	rand     *rand.Rand

	cells map[[2]int][]int
}

func newCollideForce(radius, strength float64, r *rand.Rand) *collideForce {
	return &collideForce{radius: radius, strength: strength, rand: r, cells: make(map[[2]int][]int)}
}

func (f *collideForce) cell(x, y float64) [2]int {
	size := 2 * f.radius
	return [2]int{int(math.Floor(x / size)), int(math.Floor(y / size))}
}

func (f *collideForce) Apply(s *State, _ float64) {
	clear(f.cells)
	b := s.Bodies
	for i := range b {
		k := f.cell(b[i].X+b[i].VX, b[i].Y+b[i].VY)
		f.cells[k] = append(f.cells[k], i)
	}

	rr := 2 * f.radius
	for i := range b {
		xi, yi := b[i].X+b[i].VX, b[i].Y+b[i].VY
		c := f.cell(xi, yi)
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for _, j := range f.cells[[2]int{c[0] + dx, c[1] + dy}] {
					if j <= i {
						continue
					}
					x := xi - b[j].X - b[j].VX
					y := yi - b[j].Y - b[j].VY
					l := x*x + y*y
					if l >= rr*rr {
						continue
					}
					if x == 0 {
						x = jiggle(f.rand)
						l += x * x
					}
					if y == 0 {
						y = jiggle(f.rand)
						l += y * y
					}
					l = math.Sqrt(l)
					l = (rr - l) / l * f.strength
					x *= l
					y *= l
					// equal radii: the overlap is split evenly
					b[i].VX += x * 0.5
					b[i].VY += y * 0.5
					b[j].VX -= x * 0.5
					b[j].VY -= y * 0.5
				}
			}
		}
	}
}
