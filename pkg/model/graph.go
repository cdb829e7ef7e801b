package model

import (
	"reflect"

	"github.com/ritzau/qconvert/pkg/conversion"
	"github.com/ritzau/qconvert/pkg/graph"
)

// Graph is a JSON snapshot of a conversion graph for the inspection server
// and the CLI's JSON output.
type Graph struct {
	Nodes map[string]*Node `json:"nodes"`
	Edges []*Edge          `json:"edges"`
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make(map[string]*Node),
		Edges: make([]*Edge, 0),
	}
}

// Node is one alias.
type Node struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Type     NodeType       `json:"type"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Edge is one conversion.
type Edge struct {
	Source   string         `json:"source"`
	Target   string         `json:"target"`
	Type     EdgeType       `json:"type"`
	Weight   float64        `json:"weight"`
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// AddNode adds a node to the graph. If a node with the same ID exists, it updates it.
func (g *Graph) AddNode(node *Node) {
	if node.Metadata == nil {
		node.Metadata = make(map[string]any)
	}
	g.Nodes[node.ID] = node
}

// AddEdge adds an edge to the graph.
func (g *Graph) AddEdge(edge *Edge) {
	if edge.Metadata == nil {
		edge.Metadata = make(map[string]any)
	}
	g.Edges = append(g.Edges, edge)
}

// TypeLookup reports the native Go type registered for an alias.
// *registry.Registry implements it.
type TypeLookup interface {
	NativeType(alias conversion.Alias) (reflect.Type, bool)
}

// FromConversionGraph snapshots cg. When types is non-nil, nodes with a
// registered native type are marked registered and carry the type name.
func FromConversionGraph(cg *graph.ConversionGraph, types TypeLookup) *Graph {
	g := NewGraph()

	for _, alias := range cg.Nodes() {
		node := &Node{ID: string(alias), Label: string(alias), Type: NodeTypeAlias}
		if types != nil {
			if typ, ok := types.NativeType(alias); ok {
				node.Type = NodeTypeRegistered
				node.Metadata = map[string]any{"native_type": typ.String()}
			}
		}
		g.AddNode(node)
	}

	for _, c := range cg.Edges() {
		g.AddEdge(NewEdge(c))
	}
	return g
}

// NewEdge converts one conversion.
func NewEdge(c conversion.Conversion) *Edge {
	return &Edge{
		Source: string(c.Source),
		Target: string(c.Target),
		Type:   EdgeTypeConversion,
		Weight: c.Weight,
		Name:   c.Name,
	}
}
