package graph

import (
	"fmt"

	"gonum.org/v1/gonum/graph/encoding/dot"
)

// DOT renders the graph in Graphviz format. Edges are labelled with their
// weight.
func (cg *ConversionGraph) DOT(name string) ([]byte, error) {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	out, err := dot.Marshal(cg.graph, name, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conversion graph: %w", err)
	}
	return out, nil
}
