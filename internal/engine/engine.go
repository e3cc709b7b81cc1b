// Package engine ties the graph model, simulation, viewport, filter and
// interaction state together behind one command API. An Engine is owned
// by a single goroutine; see Loop.
package engine

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/msalah0e/kgviz/internal/filter"
	"github.com/msalah0e/kgviz/internal/graph"
	"github.com/msalah0e/kgviz/internal/interaction"
	"github.com/msalah0e/kgviz/internal/layout"
	"github.com/msalah0e/kgviz/internal/logging"
	"github.com/msalah0e/kgviz/internal/render"
	"github.com/msalah0e/kgviz/internal/viewport"
)

// Recorder receives engine measurements. *metrics.Collector implements it.
type Recorder interface {
	Tick(d time.Duration, alpha float64)
	Visible(nodes, edges int)
	Load(ok bool)
}

type nopRecorder struct{}

func (nopRecorder) Tick(time.Duration, float64) {}
func (nopRecorder) Visible(int, int)            {}
func (nopRecorder) Load(bool)                   {}

// Options configures an engine.
type Options struct {
	Layout      layout.Options
	Interaction interaction.Options
	MinScale    float64
	MaxScale    float64
	// ZoomStep is the factor applied by ZoomIn.
	ZoomStep float64
	// ZoomOutStep is the factor applied by ZoomOut, in (0, 1).
	ZoomOutStep float64
	// FrameInterval paces Loop.
	FrameInterval time.Duration
}

// DefaultOptions returns the stock engine settings.
func DefaultOptions() Options {
	return Options{
		Layout:        layout.Defaults(),
		Interaction:   interaction.DefaultOptions(),
		MinScale:      viewport.DefaultMinScale,
		MaxScale:      viewport.DefaultMaxScale,
		ZoomStep:      1.5,
		ZoomOutStep:   0.7,
		FrameInterval: 16 * time.Millisecond,
	}
}

// Frame is one published render state.
type Frame struct {
	Seq     uint64       `json:"seq"`
	Alpha   float64      `json:"alpha"`
	Running bool         `json:"running"`
	Search  string       `json:"search"`
	Types   []string     `json:"types"`
	Error   string       `json:"error,omitempty"`
	Scene   render.Scene `json:"scene"`
}

// Engine is the visualization facade.
type Engine struct {
	opts Options
	log  *zap.Logger
	rec  Recorder

	model    *graph.Model
	sim      *layout.Simulation
	view     *viewport.Transform
	ctrl     *interaction.Controller
	criteria filter.Criteria
	visible  filter.Result
	lastErr  error
	seq      uint64
}

// New returns an engine holding the empty graph. log and rec may be nil.
func New(opts Options, log *zap.Logger, rec Recorder) *Engine {
	d := DefaultOptions()
	if opts.ZoomStep <= 1 {
		opts.ZoomStep = d.ZoomStep
	}
	if opts.ZoomOutStep <= 0 || opts.ZoomOutStep >= 1 {
		opts.ZoomOutStep = d.ZoomOutStep
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = d.FrameInterval
	}
	opts.Layout = opts.Layout.Normalize()
	if opts.Interaction.ReheatAlpha <= 0 {
		opts.Interaction.ReheatAlpha = opts.Layout.ReheatAlpha
	}
	if opts.Interaction.HitRadius <= 0 {
		opts.Interaction.HitRadius = opts.Layout.NodeRadius
	}
	if rec == nil {
		rec = nopRecorder{}
	}

	e := &Engine{
		opts:  opts,
		log:   logging.OrNop(log),
		rec:   rec,
		model: graph.Empty(),
		view:  viewport.New(opts.MinScale, opts.MaxScale),
	}
	e.sim = layout.New(e.model, opts.Layout)
	e.ctrl = interaction.New(e.model, e.sim, e.view, opts.Interaction)
	e.refilter()
	return e
}

// ─── Loading ───

// Load replaces the model. Surviving node ids keep their positions; the
// old simulation is stopped.
func (e *Engine) Load(m *graph.Model) {
	if m == nil {
		m = graph.Empty()
	}
	prev := e.sim
	prev.Stop()
	e.model = m
	e.sim = layout.NewFrom(m, e.opts.Layout, prev)
	e.ctrl.Rebind(m, e.sim)
	e.lastErr = nil
	e.refilter()
	e.rec.Load(true)

	if m.IsEmpty() {
		e.log.Warn("graph has no nodes")
		return
	}
	st := m.Stats()
	e.log.Info("graph loaded",
		zap.Int("nodes", st.Nodes),
		zap.Int("edges", st.Edges),
		zap.Int("types", st.Types),
	)
}

// LoadSnapshot decodes and loads a snapshot. On failure the previous
// model stays in place and the error is recorded.
func (e *Engine) LoadSnapshot(r io.Reader, format graph.Format) error {
	m, err := graph.Load(r, format)
	if err != nil {
		e.Fail(err)
		return err
	}
	e.Load(m)
	return nil
}

// Fail records a load failure without touching the current model.
func (e *Engine) Fail(err error) {
	if err == nil {
		return
	}
	e.lastErr = err
	e.rec.Load(false)

	fields := []zap.Field{zap.Error(err)}
	var ve *graph.ValidationError
	if errors.As(err, &ve) {
		fields = append(fields, zap.String("kind", ve.Kind.String()))
	}
	e.log.Error("graph load failed; keeping previous graph", fields...)
}

// LastError returns the most recent load failure, cleared by a
// successful Load.
func (e *Engine) LastError() error { return e.lastErr }

// ─── Simulation ───

// Tick advances the simulation one step and reports whether it is still
// running.
func (e *Engine) Tick() bool {
	if !e.sim.Running() {
		return false
	}
	start := time.Now()
	running := e.sim.Tick()
	e.rec.Tick(time.Since(start), e.sim.Alpha())
	return running
}

// RunToConvergence ticks until the simulation stops or maxTicks is hit
// and returns the ticks taken.
func (e *Engine) RunToConvergence(maxTicks int) int {
	n := 0
	for n < maxTicks && e.Tick() {
		n++
	}
	if e.sim.Running() {
		e.log.Debug("simulation did not converge",
			zap.Int("ticks", n),
			zap.Float64("alpha", e.sim.Alpha()),
		)
	}
	return n
}

// ─── Commands ───

func (e *Engine) center() viewport.Point {
	return viewport.Point{X: e.opts.Layout.Width / 2, Y: e.opts.Layout.Height / 2}
}

// ZoomIn zooms by ZoomStep around the canvas center.
func (e *Engine) ZoomIn() { e.view.ZoomBy(e.opts.ZoomStep, e.center()) }

// ZoomOut zooms by ZoomOutStep around the canvas center.
func (e *Engine) ZoomOut() { e.view.ZoomBy(e.opts.ZoomOutStep, e.center()) }

// ResetView restores the identity transform and reheats the layout.
func (e *Engine) ResetView() {
	e.view.Reset()
	e.sim.Reheat(e.opts.Layout.ReheatAlpha)
}

// SetSearchTerm changes the search term. The simulation is not touched.
func (e *Engine) SetSearchTerm(term string) {
	e.criteria.Term = strings.TrimSpace(term)
	e.refilter()
}

// SetTypeFilter restricts visible nodes to types; an empty list clears
// the restriction.
func (e *Engine) SetTypeFilter(types []string) {
	e.criteria = filter.NewCriteria(e.criteria.Term, types...)
	e.refilter()
}

// SelectNode selects id, or clears the selection when id is empty.
// Unknown ids report an error and leave the selection alone.
func (e *Engine) SelectNode(id string) error {
	if id == "" {
		e.ctrl.ClearSelection()
		return nil
	}
	if !e.ctrl.Select(id) {
		return fmt.Errorf("select %q: node not found", id)
	}
	return nil
}

// ExportImage writes the current scene as SVG.
func (e *Engine) ExportImage(w io.Writer) error {
	return render.WriteSVG(w, e.Scene())
}

func (e *Engine) refilter() {
	e.visible = filter.Apply(e.model, e.criteria)
	e.ctrl.SetVisible(e.visible.NodeVisible)
	e.rec.Visible(len(e.visible.Nodes), len(e.visible.Edges))
}

// ─── Output ───

// Scene builds the drawable state of the current frame.
func (e *Engine) Scene() render.Scene {
	return render.Build(render.Input{
		Model:      e.model,
		Positions:  e.sim,
		View:       e.view,
		Visible:    e.visible,
		Emphasis:   e.ctrl,
		Width:      e.opts.Layout.Width,
		Height:     e.opts.Layout.Height,
		NodeRadius: e.opts.Layout.NodeRadius,
	})
}

// Frame numbers and returns the current state.
func (e *Engine) Frame() Frame {
	e.seq++
	f := Frame{
		Seq:     e.seq,
		Alpha:   e.sim.Alpha(),
		Running: e.sim.Running(),
		Search:  e.criteria.Term,
		Types:   e.criteria.TypeList(),
		Scene:   e.Scene(),
	}
	if e.lastErr != nil {
		f.Error = e.lastErr.Error()
	}
	return f
}

// ─── Accessors ───

func (e *Engine) Model() *graph.Model                 { return e.model }
func (e *Engine) Simulation() *layout.Simulation      { return e.sim }
func (e *Engine) Viewport() *viewport.Transform       { return e.view }
func (e *Engine) Controller() *interaction.Controller { return e.ctrl }
func (e *Engine) Criteria() filter.Criteria           { return e.criteria }
func (e *Engine) Visible() filter.Result              { return e.visible }
func (e *Engine) Options() Options                    { return e.opts }
