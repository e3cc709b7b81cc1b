package layout

// quadtree partitions body positions for the Barnes-Hut charge
// approximation. Leaves hold one point, or several when they coincide or
// the depth limit is reached. Aggregates (count, centroid) are filled in by
// accumulate after all inserts.
type quadtree struct {
	root *quad
	xs   []float64
	ys   []float64
}

type quad struct {
	x0, y0, x1, y1 float64
	children       [4]*quad
	points         []int
	leaf           bool

	count  int
	cx, cy float64
}

const maxQuadDepth = 32

func newQuadtree(bodies []Body) *quadtree {
	t := &quadtree{
		xs: make([]float64, len(bodies)),
		ys: make([]float64, len(bodies)),
	}
	if len(bodies) == 0 {
		return t
	}

	x0, y0 := bodies[0].X, bodies[0].Y
	x1, y1 := x0, y0
	for i, b := range bodies {
		t.xs[i], t.ys[i] = b.X, b.Y
		x0, x1 = min(x0, b.X), max(x1, b.X)
		y0, y1 = min(y0, b.Y), max(y1, b.Y)
	}
	// square extent so child cells stay square
	side := max(x1-x0, y1-y0, 1)
	t.root = &quad{x0: x0, y0: y0, x1: x0 + side, y1: y0 + side, leaf: true}

	for i := range bodies {
		t.insert(t.root, i, 0)
	}
	t.accumulate(t.root)
	return t
}

func (t *quadtree) insert(q *quad, i, depth int) {
	for {
		if q.leaf {
			if len(q.points) == 0 || depth >= maxQuadDepth || t.coincident(q.points[0], i) {
				q.points = append(q.points, i)
				return
			}
			// split and push the existing points down
			existing := q.points
			q.points = nil
			q.leaf = false
			for _, p := range existing {
				t.child(q, p).points = append(t.child(q, p).points, p)
			}
		}
		q = t.child(q, i)
		depth++
	}
}

func (t *quadtree) coincident(a, b int) bool {
	return t.xs[a] == t.xs[b] && t.ys[a] == t.ys[b]
}

// child returns (creating if needed) the quadrant of q that holds point i.
func (t *quadtree) child(q *quad, i int) *quad {
	mx, my := (q.x0+q.x1)/2, (q.y0+q.y1)/2
	idx := 0
	if t.xs[i] >= mx {
		idx |= 1
	}
	if t.ys[i] >= my {
		idx |= 2
	}
	if q.children[idx] == nil {
		c := &quad{leaf: true}
		if idx&1 == 0 {
			c.x0, c.x1 = q.x0, mx
		} else {
			c.x0, c.x1 = mx, q.x1
		}
		if idx&2 == 0 {
			c.y0, c.y1 = q.y0, my
		} else {
			c.y0, c.y1 = my, q.y1
		}
		q.children[idx] = c
	}
	return q.children[idx]
}

func (t *quadtree) accumulate(q *quad) {
	if q.leaf {
		q.count = len(q.points)
		for _, p := range q.points {
			q.cx += t.xs[p]
			q.cy += t.ys[p]
		}
		if q.count > 0 {
			q.cx /= float64(q.count)
			q.cy /= float64(q.count)
		}
		return
	}
	for _, c := range q.children {
		if c == nil {
			continue
		}
		t.accumulate(c)
		q.count += c.count
		q.cx += c.cx * float64(c.count)
		q.cy += c.cy * float64(c.count)
	}
	if q.count > 0 {
		q.cx /= float64(q.count)
		q.cy /= float64(q.count)
	}
}
