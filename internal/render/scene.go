// Package render turns graph, layout, viewport, filter and interaction
// state into drawable primitives, and writes them out as SVG.
package render

import (
	"sort"

	"github.com/msalah0e/kgviz/internal/filter"
	"github.com/msalah0e/kgviz/internal/graph"
	"github.com/msalah0e/kgviz/internal/viewport"
)

// Circle is a node in screen space.
type Circle struct {
	ID          string  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	R           float64 `json:"r"`
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	Opacity     float64 `json:"opacity"`
	Label       string  `json:"label"`
	LabelY      float64 `json:"labelY"`
	Selected    bool    `json:"selected,omitempty"`
}

// Line is an edge in screen space with its relationship label at the
// midpoint.
type Line struct {
	Index   int     `json:"index"`
	X1      float64 `json:"x1"`
	Y1      float64 `json:"y1"`
	X2      float64 `json:"x2"`
	Y2      float64 `json:"y2"`
	Opacity float64 `json:"opacity"`
	Label   string  `json:"label,omitempty"`
	LabelX  float64 `json:"labelX"`
	LabelY  float64 `json:"labelY"`
}

// Property is one key/value row of the detail panel.
type Property struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Detail describes the selected node.
type Detail struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	Description string     `json:"description,omitempty"`
	Properties  []Property `json:"properties,omitempty"`
	Degree      int        `json:"degree"`
}

// Scene is everything needed to draw one frame. Edges come before nodes
// so nodes paint on top.
type Scene struct {
	Width     float64           `json:"width"`
	Height    float64           `json:"height"`
	Transform viewport.Snapshot `json:"transform"`
	Edges     []Line            `json:"edges"`
	Nodes     []Circle          `json:"nodes"`
	Legend    []LegendEntry     `json:"legend"`
	Stats     graph.Stats       `json:"stats"`
	Selected  *Detail           `json:"selected,omitempty"`
	Empty     bool              `json:"empty"`
}

// Positions looks up a node's model-space position.
type Positions interface {
	Position(id string) (x, y float64, ok bool)
}

// Emphasis supplies hover opacities and the current selection.
type Emphasis interface {
	NodeOpacity(id string) float64
	EdgeOpacity(i int) float64
	Selected() (string, bool)
}

// Input gathers the state a scene is built from. Emphasis may be nil.
type Input struct {
	Model      *graph.Model
	Positions  Positions
	View       *viewport.Transform
	Visible    filter.Result
	Emphasis   Emphasis
	Width      float64
	Height     float64
	NodeRadius float64
}

const (
	edgeColor      = "#999999"
	restingStroke  = "#FFFFFF"
	selectedStroke = "#1F2937"
	labelOffset    = 14
)

// Build lays out one frame. Hidden nodes and edges are skipped.
func Build(in Input) Scene {
	view := in.View
	if view == nil {
		view = viewport.New(viewport.DefaultMinScale, viewport.DefaultMaxScale)
	}
	radius := in.NodeRadius
	if radius <= 0 {
		radius = 20
	}
	k := view.Scale()

	sc := Scene{
		Width:     in.Width,
		Height:    in.Height,
		Transform: view.Snapshot(),
		Legend:    Legend(in.Model.NodeTypes()),
		Stats:     in.Model.Stats(),
		Empty:     in.Model.IsEmpty(),
	}

	selected := ""
	if in.Emphasis != nil {
		selected, _ = in.Emphasis.Selected()
	}

	screen := func(id string) (viewport.Point, bool) {
		x, y, ok := in.Positions.Position(id)
		if !ok {
			return viewport.Point{}, false
		}
		return view.ToScreen(viewport.Point{X: x, Y: y}), true
	}

	edges := in.Model.Edges()
	sc.Edges = make([]Line, 0, len(in.Visible.Edges))
	for _, i := range in.Visible.Edges {
		e := edges[i]
		a, okA := screen(e.Source)
		b, okB := screen(e.Target)
		if !okA || !okB {
			continue
		}
		l := Line{
			Index:   i,
			X1:      a.X,
			Y1:      a.Y,
			X2:      b.X,
			Y2:      b.Y,
			Opacity: 0.6,
			Label:   e.Relationship,
			LabelX:  (a.X + b.X) / 2,
			LabelY:  (a.Y + b.Y) / 2,
		}
		if in.Emphasis != nil {
			l.Opacity = in.Emphasis.EdgeOpacity(i)
		}
		sc.Edges = append(sc.Edges, l)
	}

	sc.Nodes = make([]Circle, 0, len(in.Visible.Nodes))
	for _, n := range in.Model.Nodes() {
		if !in.Visible.NodeVisible(n.ID) {
			continue
		}
		p, ok := screen(n.ID)
		if !ok {
			continue
		}
		c := Circle{
			ID:          n.ID,
			X:           p.X,
			Y:           p.Y,
			R:           radius * k,
			Fill:        ColorFor(n.Type),
			Stroke:      restingStroke,
			StrokeWidth: 2,
			Opacity:     1,
			Label:       Truncate(n.Name, LabelRunes),
			LabelY:      p.Y + radius*k + labelOffset,
		}
		if in.Emphasis != nil {
			c.Opacity = in.Emphasis.NodeOpacity(n.ID)
		}
		if n.ID == selected {
			c.Selected = true
			c.Stroke = selectedStroke
			c.StrokeWidth = 3
		}
		sc.Nodes = append(sc.Nodes, c)
	}

	if selected != "" {
		if d, ok := DetailFor(in.Model, selected); ok {
			sc.Selected = &d
		}
	}
	return sc
}

// DetailFor builds the detail panel of a node. Properties are sorted by
// key and list values are joined with ", ".
func DetailFor(m *graph.Model, id string) (Detail, bool) {
	n, ok := m.Node(id)
	if !ok {
		return Detail{}, false
	}
	d := Detail{
		ID:          n.ID,
		Name:        n.Name,
		Type:        n.Type,
		Description: n.Description,
		Degree:      m.Degree(id),
	}
	keys := make([]string, 0, len(n.Properties))
	for k := range n.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.Properties = append(d.Properties, Property{Key: k, Value: graph.PropertyString(n.Properties[k])})
	}
	return d, true
}
