// Package filter computes the visible subset of a graph for a search term
// and a set of allowed node types.
package filter

import (
	"sort"
	"strings"

	"github.com/msalah0e/kgviz/internal/graph"
)

// Criteria are the user's filter inputs. An empty Term matches every node;
// an empty Types set places no type restriction.
type Criteria struct {
	Term  string
	Types map[string]bool
}

// NewCriteria builds criteria from a term and a list of types.
func NewCriteria(term string, types ...string) Criteria {
	c := Criteria{Term: term}
	if len(types) > 0 {
		c.Types = make(map[string]bool, len(types))
		for _, t := range types {
			if t = strings.TrimSpace(t); t != "" {
				c.Types[t] = true
			}
		}
	}
	return c
}

// IsZero reports whether the criteria filter nothing out.
func (c Criteria) IsZero() bool {
	return strings.TrimSpace(c.Term) == "" && len(c.Types) == 0
}

// TypeList returns the allowed types sorted.
func (c Criteria) TypeList() []string {
	out := make([]string, 0, len(c.Types))
	for t := range c.Types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Result is the visible subset. Edges are indices into the model's edge
// slice, in model order.
type Result struct {
	Nodes map[string]bool
	Edges []int
}

// NodeVisible reports whether id passed the filter.
func (r Result) NodeVisible(id string) bool { return r.Nodes[id] }

// EdgeVisible reports whether edge index i passed the filter.
func (r Result) EdgeVisible(i int) bool {
	j := sort.SearchInts(r.Edges, i)
	return j < len(r.Edges) && r.Edges[j] == i
}

// NodeIDs returns the visible node ids sorted.
func (r Result) NodeIDs() []string {
	out := make([]string, 0, len(r.Nodes))
	for id := range r.Nodes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Apply returns the nodes matching both the term (case-insensitive
// substring of name or description) and the type set, and the edges whose
// endpoints are both visible. It is a pure function of its inputs.
func Apply(m *graph.Model, c Criteria) Result {
	term := strings.ToLower(strings.TrimSpace(c.Term))
	res := Result{Nodes: make(map[string]bool, m.Len())}

	for _, n := range m.Nodes() {
		if len(c.Types) > 0 && !c.Types[n.Type] {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(n.Name), term) &&
			!strings.Contains(strings.ToLower(n.Description), term) {
			continue
		}
		res.Nodes[n.ID] = true
	}

	res.Edges = make([]int, 0, len(m.Edges()))
	for i, e := range m.Edges() {
		if res.Nodes[e.Source] && res.Nodes[e.Target] {
			res.Edges = append(res.Edges, i)
		}
	}
	return res
}
