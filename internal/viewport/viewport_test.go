package viewport

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsIdentity(t *testing.T) {
	v := New(0.1, 4)
	assert.Equal(t, 1.0, v.Scale())
	x, y := v.Translation()
	assert.Zero(t, x)
	assert.Zero(t, y)

	p := Point{12.5, -3}
	assert.Equal(t, p, v.ToScreen(p))
}

func TestNewFixesBadBounds(t *testing.T) {
	v := New(0, -1)
	lo, hi := v.Bounds()
	assert.Equal(t, DefaultMinScale, lo)
	assert.Equal(t, DefaultMaxScale, hi)
}

func TestInvertibility(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	v := New(0.1, 4)
	for i := 0; i < 200; i++ {
		v.ZoomBy(0.5+r.Float64()*1.5, Point{r.Float64() * 800, r.Float64() * 600})
		v.PanBy(r.Float64()*100-50, r.Float64()*100-50)

		p := Point{r.Float64()*2000 - 1000, r.Float64()*2000 - 1000}
		back := v.ToModel(v.ToScreen(p))
		require.InDelta(t, p.X, back.X, 1e-9)
		require.InDelta(t, p.Y, back.Y, 1e-9)
	}
}

func TestZoomClamped(t *testing.T) {
	v := New(0.1, 4)
	for i := 0; i < 50; i++ {
		v.ZoomBy(1.5, Point{400, 300})
		require.LessOrEqual(t, v.Scale(), 4.0)
	}
	assert.Equal(t, 4.0, v.Scale())

	for i := 0; i < 100; i++ {
		v.ZoomBy(0.7, Point{10, 10})
		require.GreaterOrEqual(t, v.Scale(), 0.1)
	}
	assert.Equal(t, 0.1, v.Scale())
}

func TestZoomMisuseIsClamped(t *testing.T) {
	v := New(0.1, 4)
	v.ZoomBy(0, Point{0, 0})
	assert.Equal(t, 0.1, v.Scale())

	v.Reset()
	v.ZoomBy(-3, Point{100, 100})
	assert.Equal(t, 0.1, v.Scale())

	v.Reset()
	v.ZoomBy(math.NaN(), Point{100, 100})
	v.ZoomBy(math.Inf(1), Point{100, 100})
	v.ZoomBy(2, Point{math.NaN(), 0})
	v.PanBy(math.Inf(-1), 0)
	assert.Equal(t, 1.0, v.Scale())
	x, y := v.Translation()
	assert.Zero(t, x)
	assert.Zero(t, y)
}

func TestZoomKeepsAnchorFixed(t *testing.T) {
	v := New(0.1, 4)
	v.PanBy(30, -20)
	anchor := Point{400, 300}
	under := v.ToModel(anchor)

	v.ZoomBy(2, anchor)
	got := v.ToScreen(under)
	assert.InDelta(t, anchor.X, got.X, 1e-9)
	assert.InDelta(t, anchor.Y, got.Y, 1e-9)
}

func TestZoomRoundTrip(t *testing.T) {
	v := New(0.1, 4)
	anchor := Point{400, 300}

	v.ZoomBy(2, anchor)
	assert.Equal(t, 2.0, v.Scale())
	v.ZoomBy(0.5, anchor)

	assert.InDelta(t, 1.0, v.Scale(), 1e-12)
	x, y := v.Translation()
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)
}

func TestPanUnbounded(t *testing.T) {
	v := New(0.1, 4)
	v.PanBy(1e7, -1e7)
	x, y := v.Translation()
	assert.Equal(t, 1e7, x)
	assert.Equal(t, -1e7, y)

	v.Reset()
	assert.Equal(t, Snapshot{Scale: 1}, v.Snapshot())
}
