package layout

// Options configures the force simulation. Zero values are replaced by
// the defaults in Defaults() via Normalize.
type Options struct {
	// Width and Height define the canvas; the centering force pulls toward
	// (Width/2, Height/2).
	Width  float64
	Height float64

	// LinkDistance is the rest length of every edge spring.
	LinkDistance float64

	// ChargeStrength is negative for repulsion.
	ChargeStrength float64

	// Theta is the Barnes-Hut opening criterion.
	Theta float64

	// CenterStrength is the fraction of the centroid offset removed per tick.
	CenterStrength float64

	NodeRadius        float64
	CollisionPadding  float64
	CollisionStrength float64

	AlphaDecay    float64
	AlphaMin      float64
	ReheatAlpha   float64
	VelocityDecay float64

	// Graphs with more nodes than BarnesHutThreshold use the quadtree
	// approximation for the charge force.
	BarnesHutThreshold int

	// Graphs with more nodes than ParallelThreshold compute the charge
	// force on Concurrency goroutines.
	ParallelThreshold int
	Concurrency       int

	// Seed feeds the jiggle source used to separate coincident nodes.
	Seed int64
}

// Defaults returns the stock simulation parameters.
func Defaults() Options {
	return Options{
		Width:              800,
		Height:             600,
		LinkDistance:       100,
		ChargeStrength:     -300,
		Theta:              0.9,
		CenterStrength:     0.1,
		NodeRadius:         20,
		CollisionPadding:   10,
		CollisionStrength:  1,
		AlphaDecay:         0.0228,
		AlphaMin:           0.001,
		ReheatAlpha:        0.3,
		VelocityDecay:      0.4,
		BarnesHutThreshold: 200,
		ParallelThreshold:  2000,
		Concurrency:        4,
		Seed:               1,
	}
}

// Normalize fills unset or out-of-range fields with defaults.
func (o Options) Normalize() Options {
	d := Defaults()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.LinkDistance <= 0 {
		o.LinkDistance = d.LinkDistance
	}
	if o.ChargeStrength == 0 {
		o.ChargeStrength = d.ChargeStrength
	}
	if o.Theta <= 0 {
		o.Theta = d.Theta
	}
	if o.CenterStrength < 0 || o.CenterStrength > 1 {
		o.CenterStrength = d.CenterStrength
	}
	if o.NodeRadius <= 0 {
		o.NodeRadius = d.NodeRadius
	}
	if o.CollisionPadding < 0 {
		o.CollisionPadding = d.CollisionPadding
	}
	if o.CollisionStrength <= 0 || o.CollisionStrength > 1 {
		o.CollisionStrength = d.CollisionStrength
	}
	if o.AlphaDecay <= 0 || o.AlphaDecay >= 1 {
		o.AlphaDecay = d.AlphaDecay
	}
	if o.AlphaMin <= 0 || o.AlphaMin >= 1 {
		o.AlphaMin = d.AlphaMin
	}
	if o.ReheatAlpha <= 0 || o.ReheatAlpha > 1 {
		o.ReheatAlpha = d.ReheatAlpha
	}
	if o.VelocityDecay <= 0 || o.VelocityDecay >= 1 {
		o.VelocityDecay = d.VelocityDecay
	}
	if o.BarnesHutThreshold <= 0 {
		o.BarnesHutThreshold = d.BarnesHutThreshold
	}
	if o.ParallelThreshold <= 0 {
		o.ParallelThreshold = d.ParallelThreshold
	}
	if o.Concurrency < 1 {
		o.Concurrency = d.Concurrency
	}
	return o
}

// CollisionRadius is the radius each node keeps clear around itself.
func (o Options) CollisionRadius() float64 {
	return o.NodeRadius + o.CollisionPadding
}

// MaxTicks is an upper bound on the number of ticks needed to cool from
// alpha a to below AlphaMin.
func (o Options) MaxTicks(a float64) int {
	n := 0
	for a >= o.AlphaMin {
		a *= 1 - o.AlphaDecay
		n++
	}
	return n
}
