package engine

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/msalah0e/kgviz/internal/graph"
	"github.com/msalah0e/kgviz/internal/layout"
)

const scenarioJSON = `{
  "nodes": [
    {"id": "a", "name": "AI"},
    {"id": "b", "name": "ML", "type": "Concept"}
  ],
  "edges": [{"source": "a", "target": "b", "relationship": "relatedTo"}]
}`

type countingRecorder struct {
	ticks, ok, failed int
	nodes, edges      int
}

func (r *countingRecorder) Tick(time.Duration, float64) { r.ticks++ }
func (r *countingRecorder) Visible(n, e int)             { r.nodes, r.edges = n, e }
func (r *countingRecorder) Load(ok bool) {
	if ok {
		r.ok++
	} else {
		r.failed++
	}
}

func newEngine(t *testing.T) (*Engine, *observer.ObservedLogs, *countingRecorder) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	rec := &countingRecorder{}
	return New(DefaultOptions(), zap.New(core), rec), logs, rec
}

func load(t *testing.T, e *Engine, doc string) {
	t.Helper()
	require.NoError(t, e.LoadSnapshot(strings.NewReader(doc), graph.FormatJSON))
}

func TestNewEngineIsEmpty(t *testing.T) {
	e, _, _ := newEngine(t)
	assert.True(t, e.Model().IsEmpty())
	assert.False(t, e.Tick())
	f := e.Frame()
	assert.True(t, f.Scene.Empty)
	assert.Equal(t, uint64(1), f.Seq)
}

func TestLoadScenario(t *testing.T) {
	e, logs, rec := newEngine(t)
	load(t, e, scenarioJSON)

	assert.Equal(t, 2, e.Model().Len())
	assert.True(t, e.Simulation().Running())
	assert.Equal(t, 1, rec.ok)
	assert.Equal(t, 2, rec.nodes)
	assert.Equal(t, 1, logs.FilterMessage("graph loaded").Len())

	e.SetSearchTerm("ml")
	assert.Equal(t, []string{"b"}, e.Visible().NodeIDs())
	assert.Empty(t, e.Visible().Edges)
	assert.Equal(t, 1, rec.nodes)
	assert.Equal(t, 0, rec.edges)
}

func TestDanglingLoadKeepsPreviousModel(t *testing.T) {
	e, logs, rec := newEngine(t)
	load(t, e, scenarioJSON)
	before := e.Model()

	err := e.LoadSnapshot(strings.NewReader(`{
	  "nodes": [{"id": "a", "name": "AI"}],
	  "edges": [{"source": "a", "target": "z"}]
	}`), graph.FormatJSON)
	require.ErrorIs(t, err, graph.ErrDanglingEdge)

	assert.Same(t, before, e.Model())
	assert.ErrorIs(t, e.LastError(), graph.ErrDanglingEdge)
	assert.Equal(t, 1, rec.failed)
	assert.Contains(t, e.Frame().Error, "z")

	entries := logs.FilterMessage("graph load failed; keeping previous graph").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "DanglingEdge", entries[0].ContextMap()["kind"])

	load(t, e, scenarioJSON)
	assert.NoError(t, e.LastError())
}

func TestEmptyLoadWarns(t *testing.T) {
	e, logs, _ := newEngine(t)
	load(t, e, `{"nodes": [], "edges": []}`)
	assert.True(t, e.Frame().Scene.Empty)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestFilterChangeLeavesSimulationAlone(t *testing.T) {
	e, _, _ := newEngine(t)
	load(t, e, scenarioJSON)
	for i := 0; i < 20; i++ {
		e.Tick()
	}
	alpha := e.Simulation().Alpha()
	bodies := append([]layout.Body(nil), e.Simulation().Bodies()...)
	running := e.Simulation().Running()

	e.SetSearchTerm("zzz")
	e.SetTypeFilter([]string{"Concept"})
	e.SetTypeFilter(nil)
	e.SetSearchTerm("")

	assert.Equal(t, alpha, e.Simulation().Alpha())
	assert.Equal(t, bodies, e.Simulation().Bodies())
	assert.Equal(t, running, e.Simulation().Running())
}

func TestTypeFilterAndsWithSearch(t *testing.T) {
	e, _, _ := newEngine(t)
	load(t, e, scenarioJSON)

	e.SetTypeFilter([]string{"Concept"})
	assert.Equal(t, []string{"b"}, e.Visible().NodeIDs())
	e.SetSearchTerm("AI")
	assert.Empty(t, e.Visible().NodeIDs())
	assert.Equal(t, []string{"Concept"}, e.Frame().Types)
}

func TestZoomAndReset(t *testing.T) {
	e, _, _ := newEngine(t)
	load(t, e, scenarioJSON)
	e.RunToConvergence(1000)
	require.False(t, e.Simulation().Running())

	e.ZoomIn()
	assert.InDelta(t, 1.5, e.Viewport().Scale(), 1e-12)
	e.ZoomOut()
	assert.InDelta(t, 1.05, e.Viewport().Scale(), 1e-12)
	e.ZoomOut()
	assert.InDelta(t, 0.735, e.Viewport().Scale(), 1e-12)
	for i := 0; i < 20; i++ {
		e.ZoomOut()
	}
	assert.Equal(t, 0.1, e.Viewport().Scale())

	e.ResetView()
	assert.Equal(t, 1.0, e.Viewport().Scale())
	assert.True(t, e.Simulation().Running(), "reset view reheats")
}

func TestReloadKeepsViewport(t *testing.T) {
	e, _, _ := newEngine(t)
	load(t, e, scenarioJSON)

	e.ZoomIn()
	e.Viewport().PanBy(40, -25)
	scale := e.Viewport().Scale()
	tx, ty := e.Viewport().Translation()

	load(t, e, `{"nodes": [{"id": "a", "name": "AI"}, {"id": "c", "name": "Graphs"}], "edges": []}`)
	assert.Equal(t, scale, e.Viewport().Scale())
	gx, gy := e.Viewport().Translation()
	assert.Equal(t, tx, gx)
	assert.Equal(t, ty, gy)

	err := e.LoadSnapshot(strings.NewReader(`{"nodes": [{"id": "a"}]}`), graph.FormatJSON)
	require.Error(t, err)
	assert.Equal(t, scale, e.Viewport().Scale())
	gx, gy = e.Viewport().Translation()
	assert.Equal(t, tx, gx)
	assert.Equal(t, ty, gy)
}

func TestSelectNode(t *testing.T) {
	e, _, _ := newEngine(t)
	load(t, e, scenarioJSON)

	require.NoError(t, e.SelectNode("b"))
	f := e.Frame()
	require.NotNil(t, f.Scene.Selected)
	assert.Equal(t, "ML", f.Scene.Selected.Name)

	require.Error(t, e.SelectNode("nope"))
	sel, _ := e.Controller().Selected()
	assert.Equal(t, "b", sel)

	require.NoError(t, e.SelectNode(""))
	assert.Nil(t, e.Frame().Scene.Selected)
}

func TestReloadCarriesPositions(t *testing.T) {
	e, _, _ := newEngine(t)
	load(t, e, scenarioJSON)
	e.RunToConvergence(1000)
	ax, ay, _ := e.Simulation().Position("a")

	load(t, e, `{"nodes": [{"id": "a", "name": "AI"}, {"id": "c", "name": "New"}], "edges": []}`)
	x, y, ok := e.Simulation().Position("a")
	require.True(t, ok)
	assert.Equal(t, ax, x)
	assert.Equal(t, ay, y)
	assert.Equal(t, 0.3, e.Simulation().Alpha())
}

func TestRunToConvergence(t *testing.T) {
	e, _, rec := newEngine(t)
	load(t, e, scenarioJSON)
	n := e.RunToConvergence(1000)
	assert.Greater(t, n, 250)
	assert.Less(t, n, 400)
	assert.False(t, e.Simulation().Running())
	assert.Equal(t, n+1, rec.ticks)
}

func TestExportImage(t *testing.T) {
	e, _, _ := newEngine(t)
	load(t, e, scenarioJSON)
	e.RunToConvergence(500)

	var buf bytes.Buffer
	require.NoError(t, e.ExportImage(&buf))
	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, ">AI</text>")
	assert.Contains(t, out, ">relatedTo</text>")
}

func TestLoopAppliesCommandsAndPublishes(t *testing.T) {
	e, _, _ := newEngine(t)
	e.opts.FrameInterval = time.Millisecond
	load(t, e, scenarioJSON)

	var mu sync.Mutex
	var frames []Frame
	publish := func(f Frame) {
		mu.Lock()
		frames = append(frames, f)
		mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmds := make(chan Command)
	done := make(chan error, 1)
	go func() { done <- e.Loop(ctx, cmds, publish) }()

	cmds <- func(e *Engine) { e.SetSearchTerm("ml") }

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(frames) > 2 && frames[len(frames)-1].Search == "ml"
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(frames); i++ {
		assert.Greater(t, frames[i].Seq, frames[i-1].Seq)
	}
}
