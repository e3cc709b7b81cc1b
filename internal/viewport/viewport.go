package viewport

import "math"

// Point is a 2D coordinate in either model or screen space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

const (
	DefaultMinScale = 0.1
	DefaultMaxScale = 4.0
)

// Transform maps model space to screen space: screen = model*scale + t.
// The zero value is not usable; call New.
type Transform struct {
	scale    float64
	tx, ty   float64
	minScale float64
	maxScale float64
}

// New returns an identity transform whose scale is bounded to
// [minScale, maxScale]. Invalid bounds fall back to [0.1, 4].
func New(minScale, maxScale float64) *Transform {
	if !(minScale > 0) || math.IsInf(minScale, 0) {
		minScale = DefaultMinScale
	}
	if !(maxScale >= minScale) || math.IsInf(maxScale, 0) {
		maxScale = math.Max(DefaultMaxScale, minScale)
	}
	t := &Transform{minScale: minScale, maxScale: maxScale}
	t.Reset()
	return t
}

// Reset restores the identity transform.
func (t *Transform) Reset() {
	t.scale = t.clamp(1)
	t.tx, t.ty = 0, 0
}

// Scale returns the current zoom factor.
func (t *Transform) Scale() float64 { return t.scale }

// Translation returns the current offset.
func (t *Transform) Translation() (float64, float64) { return t.tx, t.ty }

// Bounds returns the scale limits.
func (t *Transform) Bounds() (float64, float64) { return t.minScale, t.maxScale }

// ZoomBy multiplies the scale by factor, clamped to the bounds, keeping
// the model point under anchor fixed on screen. A factor <= 0 clamps to
// the minimum scale; NaN or infinite input is ignored.
func (t *Transform) ZoomBy(factor float64, anchor Point) {
	if math.IsNaN(factor) || math.IsInf(factor, 0) || !finite(anchor) {
		return
	}
	m := t.ToModel(anchor)
	t.scale = t.clamp(t.scale * factor)
	t.tx = anchor.X - m.X*t.scale
	t.ty = anchor.Y - m.Y*t.scale
}

// PanBy shifts the view by a screen-space delta. The canvas is unbounded.
func (t *Transform) PanBy(dx, dy float64) {
	if !finite(Point{dx, dy}) {
		return
	}
	t.tx += dx
	t.ty += dy
}

// ToScreen maps a model point to screen space.
func (t *Transform) ToScreen(p Point) Point {
	return Point{X: p.X*t.scale + t.tx, Y: p.Y*t.scale + t.ty}
}

// ToModel maps a screen point to model space; it inverts ToScreen.
func (t *Transform) ToModel(p Point) Point {
	return Point{X: (p.X - t.tx) / t.scale, Y: (p.Y - t.ty) / t.scale}
}

// Snapshot is a copyable view of the transform, e.g. for frames.
type Snapshot struct {
	Scale float64 `json:"k"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Snapshot returns the current transform values.
func (t *Transform) Snapshot() Snapshot {
	return Snapshot{Scale: t.scale, X: t.tx, Y: t.ty}
}

func (t *Transform) clamp(k float64) float64 {
	return math.Max(t.minScale, math.Min(t.maxScale, k))
}

func finite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
