package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Format is the wire encoding of a snapshot.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the snapshot format from a file extension.
// Anything that is not .yaml/.yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// FormatFromContentType picks the snapshot format from an HTTP content type.
func FormatFromContentType(ct string) Format {
	ct = strings.ToLower(ct)
	if strings.Contains(ct, "yaml") {
		return FormatYAML
	}
	return FormatJSON
}

// Snapshot is the logical schema produced by the graph API.
type Snapshot struct {
	Nodes []SnapshotNode `json:"nodes" yaml:"nodes" validate:"dive"`
	Edges []SnapshotEdge `json:"edges" yaml:"edges" validate:"dive"`
}

// SnapshotNode is one node entry of a snapshot.
type SnapshotNode struct {
	ID          string         `json:"id" yaml:"id" validate:"required"`
	Name        string         `json:"name" yaml:"name" validate:"required"`
	Type        string         `json:"type,omitempty" yaml:"type,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Properties  map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// SnapshotEdge is one edge entry of a snapshot. Relationship wins over Type
// when both are present. Endpoints are checked by Build, so a missing one
// is a dangling edge.
type SnapshotEdge struct {
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	Relationship string `json:"relationship,omitempty" yaml:"relationship,omitempty"`
	Type         string `json:"type,omitempty" yaml:"type,omitempty"`
}

var validate = validator.New()

// DecodeSnapshot reads a snapshot in the given format.
func DecodeSnapshot(r io.Reader, format Format) (*Snapshot, error) {
	var s Snapshot
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&s); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("snapshot parse: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&s); err != nil {
			return nil, fmt.Errorf("snapshot parse: %w", err)
		}
	}
	return &s, nil
}

// Model validates the snapshot and builds a graph model from it.
func (s *Snapshot) Model() (*Model, error) {
	if err := validate.Struct(s); err != nil {
		return nil, formatValidationError(err)
	}

	nodes := make([]Node, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		nodes = append(nodes, Node{
			ID:          n.ID,
			Name:        n.Name,
			Type:        n.Type,
			Description: n.Description,
			Properties:  n.Properties,
		})
	}

	edges := make([]Edge, 0, len(s.Edges))
	for _, e := range s.Edges {
		rel := e.Relationship
		if rel == "" {
			rel = e.Type
		}
		edges = append(edges, Edge{Source: e.Source, Target: e.Target, Relationship: rel})
	}

	return Build(nodes, edges)
}

// Load decodes and builds in one step.
func Load(r io.Reader, format Format) (*Model, error) {
	s, err := DecodeSnapshot(r, format)
	if err != nil {
		return nil, err
	}
	return s.Model()
}

// FromModel converts a model back to its snapshot form.
func FromModel(m *Model) *Snapshot {
	s := &Snapshot{
		Nodes: make([]SnapshotNode, 0, m.Len()),
		Edges: make([]SnapshotEdge, 0, len(m.Edges())),
	}
	for _, n := range m.Nodes() {
		s.Nodes = append(s.Nodes, SnapshotNode{
			ID:          n.ID,
			Name:        n.Name,
			Type:        n.Type,
			Description: n.Description,
			Properties:  n.Properties,
		})
	}
	for _, e := range m.Edges() {
		s.Edges = append(s.Edges, SnapshotEdge{Source: e.Source, Target: e.Target, Relationship: e.Relationship})
	}
	return s
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return malformed(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Snapshot.")
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return malformed(strings.Join(msgs, "; "))
}
