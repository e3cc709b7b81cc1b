package graph

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DefaultType is assigned to nodes whose snapshot entry carries no type.
const DefaultType = "Unknown"

// Node is a single entity in a graph snapshot.
type Node struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Description string         `json:"description,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// Edge is a directed relationship between two nodes, referenced by id.
type Edge struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	Relationship string `json:"relationship"`
}

// Neighbor is one entry of the adjacency index.
type Neighbor struct {
	ID   string
	Edge int // index into Model.Edges()
}

// Model is an immutable graph snapshot with a derived adjacency index.
// Nodes and edges live in flat slices; all cross references are ids or
// slice indices.
type Model struct {
	nodes     []Node
	edges     []Edge
	index     map[string]int
	adjacency map[string][]Neighbor
	types     []string
}

// Stats holds summary counts for the stats panel.
type Stats struct {
	Nodes          int     `json:"nodes"`
	Edges          int     `json:"edges"`
	Types          int     `json:"types"`
	AvgConnections float64 `json:"avg_connections"`
}

// Empty returns a model with no nodes or edges.
func Empty() *Model {
	m, _ := Build(nil, nil)
	return m
}

// ─── Construction ───

// Build validates nodes and edges and returns the model. Duplicate ids
// fail with ErrDuplicateNodeID, edges whose endpoints are not in the node
// set fail with ErrDanglingEdge. Nothing is silently dropped.
func Build(nodes []Node, edges []Edge) (*Model, error) {
	m := &Model{
		nodes:     make([]Node, 0, len(nodes)),
		edges:     make([]Edge, 0, len(edges)),
		index:     make(map[string]int, len(nodes)),
		adjacency: make(map[string][]Neighbor, len(nodes)),
	}

	for i, n := range nodes {
		if strings.TrimSpace(n.ID) == "" {
			return nil, malformed(fmt.Sprintf("node %d: id is required", i))
		}
		if strings.TrimSpace(n.Name) == "" {
			return nil, malformed(fmt.Sprintf("node %q: name is required", n.ID))
		}
		if _, dup := m.index[n.ID]; dup {
			return nil, &ValidationError{Kind: DuplicateNodeID, NodeID: n.ID}
		}
		if err := checkProperties(n.ID, n.Properties); err != nil {
			return nil, err
		}
		if n.Type == "" {
			n.Type = DefaultType
		}
		m.index[n.ID] = len(m.nodes)
		m.nodes = append(m.nodes, n)
	}

	for i, e := range edges {
		if _, ok := m.index[e.Source]; !ok {
			return nil, &ValidationError{Kind: DanglingEdge, EdgeIndex: i, NodeID: e.Source}
		}
		if _, ok := m.index[e.Target]; !ok {
			return nil, &ValidationError{Kind: DanglingEdge, EdgeIndex: i, NodeID: e.Target}
		}
		idx := len(m.edges)
		m.edges = append(m.edges, e)
		m.adjacency[e.Source] = append(m.adjacency[e.Source], Neighbor{ID: e.Target, Edge: idx})
		if e.Target != e.Source {
			m.adjacency[e.Target] = append(m.adjacency[e.Target], Neighbor{ID: e.Source, Edge: idx})
		}
	}

	seen := make(map[string]bool)
	for _, n := range m.nodes {
		if !seen[n.Type] {
			seen[n.Type] = true
			m.types = append(m.types, n.Type)
		}
	}
	sort.Strings(m.types)

	return m, nil
}

func checkProperties(nodeID string, props map[string]any) error {
	for key, v := range props {
		if isScalar(v) {
			continue
		}
		list, ok := v.([]any)
		if !ok {
			return malformed(fmt.Sprintf("node %q: property %q is not a scalar or list", nodeID, key))
		}
		for _, item := range list {
			if !isScalar(item) {
				return malformed(fmt.Sprintf("node %q: property %q holds a nested value", nodeID, key))
			}
		}
	}
	return nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, int, int64, float64, float32, uint64:
		return true
	}
	return false
}

// ─── Query ───

// Len returns the number of nodes.
func (m *Model) Len() int { return len(m.nodes) }

// IsEmpty reports whether the snapshot had no nodes.
func (m *Model) IsEmpty() bool { return len(m.nodes) == 0 }

// Nodes returns the nodes in snapshot order. The slice must not be modified.
func (m *Model) Nodes() []Node { return m.nodes }

// Edges returns the edges in snapshot order. The slice must not be modified.
func (m *Model) Edges() []Edge { return m.edges }

// Index returns the arena index of a node id.
func (m *Model) Index(id string) (int, bool) {
	i, ok := m.index[id]
	return i, ok
}

// Has reports whether id is a node of this model.
func (m *Model) Has(id string) bool {
	_, ok := m.index[id]
	return ok
}

// Node returns the node with the given id.
func (m *Model) Node(id string) (Node, bool) {
	i, ok := m.index[id]
	if !ok {
		return Node{}, false
	}
	return m.nodes[i], true
}

// NeighborsOf returns the direct neighbours of id in both edge directions,
// each paired with the connecting edge. Unknown ids have no neighbours.
func (m *Model) NeighborsOf(id string) []Neighbor {
	return m.adjacency[id]
}

// IsNeighbor reports whether a and b share an edge.
func (m *Model) IsNeighbor(a, b string) bool {
	for _, n := range m.adjacency[a] {
		if n.ID == b {
			return true
		}
	}
	return false
}

// NodeTypes returns the sorted set of node types present in the model.
func (m *Model) NodeTypes() []string {
	return m.types
}

// Degree returns the number of edges touching id.
func (m *Model) Degree(id string) int {
	return len(m.adjacency[id])
}

// Stats returns summary statistics.
func (m *Model) Stats() Stats {
	s := Stats{
		Nodes: len(m.nodes),
		Edges: len(m.edges),
		Types: len(m.types),
	}
	if s.Edges > 0 && s.Nodes > 0 {
		s.AvgConnections = math.Round(float64(s.Edges)/float64(s.Nodes)*10) / 10
	}
	return s
}

// PropertyString renders a property value for display; lists are joined
// with ", ".
func PropertyString(v any) string {
	list, ok := v.([]any)
	if !ok {
		return fmt.Sprint(v)
	}
	parts := make([]string, 0, len(list))
	for _, item := range list {
		parts = append(parts, fmt.Sprint(item))
	}
	return strings.Join(parts, ", ")
}
