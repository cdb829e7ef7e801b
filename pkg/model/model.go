// Package model holds the JSON shapes shared by the inspection server and
// the command line tool.
package model

import (
	"github.com/ritzau/qconvert/pkg/conversion"
	"github.com/ritzau/qconvert/pkg/cycles"
)

// NodeType distinguishes aliases with a registered Go type from aliases that
// exist only in the graph.
type NodeType string

const (
	NodeTypeAlias      NodeType = "alias"
	NodeTypeRegistered NodeType = "registered"
)

// EdgeType represents the kind of edge
type EdgeType string

const (
	EdgeTypeConversion EdgeType = "conversion"
)

// Path is a resolved conversion path.
type Path struct {
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	MaxDepth int      `json:"max_depth"` // -1 for unbounded
	Aliases  []string `json:"aliases"`   // Source first, target last
	Steps    []*Edge  `json:"steps"`
	Weight   float64  `json:"weight"`
	Hops     int      `json:"hops"`
}

// NewPath describes p as a route from source to target.
func NewPath(source, target conversion.Alias, maxDepth int, p conversion.Path) *Path {
	out := &Path{
		Source:   string(source),
		Target:   string(target),
		MaxDepth: maxDepth,
		Aliases:  []string{string(source)},
		Steps:    make([]*Edge, 0, len(p)),
		Weight:   p.Weight(),
		Hops:     len(p),
	}
	for _, c := range p {
		out.Aliases = append(out.Aliases, string(c.Target))
		out.Steps = append(out.Steps, NewEdge(c))
	}
	return out
}

// RoundTrip is a group of aliases that can all be converted into each other.
type RoundTrip struct {
	Aliases []string `json:"aliases"`
}

// NewRoundTrips converts detected round trips.
func NewRoundTrips(trips []cycles.RoundTrip) []RoundTrip {
	out := make([]RoundTrip, 0, len(trips))
	for _, rt := range trips {
		aliases := make([]string, len(rt.Aliases))
		for i, a := range rt.Aliases {
			aliases[i] = string(a)
		}
		out = append(out, RoundTrip{Aliases: aliases})
	}
	return out
}

// TranspileResult is the response of a transpile request.
type TranspileResult struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	Path    *Path  `json:"path"`
	Program any    `json:"program"`
}

// Error is the JSON error body. Reachable lists aliases reachable from the
// source when no path was found.
type Error struct {
	Error     string   `json:"error"`
	Kind      string   `json:"kind"`
	Reachable []string `json:"reachable,omitempty"`
}
