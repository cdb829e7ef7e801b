package graph

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/ritzau/qconvert/pkg/conversion"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/simple"
)

// Unbounded disables the hop limit in path queries.
const Unbounded = -1

// aliasNode is the gonum node for one alias.
type aliasNode struct {
	id    int64
	alias conversion.Alias
}

func (n aliasNode) ID() int64 { return n.id }

// DOTID names the node in Graphviz output.
func (n aliasNode) DOTID() string { return string(n.alias) }

// conversionEdge mirrors a Conversion in the gonum graph.
type conversionEdge struct {
	from, to gonum.Node
	weight   float64
}

func (e conversionEdge) From() gonum.Node { return e.from }
func (e conversionEdge) To() gonum.Node   { return e.to }
func (e conversionEdge) Weight() float64  { return e.weight }

func (e conversionEdge) ReversedEdge() gonum.Edge {
	return conversionEdge{from: e.to, to: e.from, weight: e.weight}
}

// Attributes labels the edge with its weight in Graphviz output.
func (e conversionEdge) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "label", Value: fmt.Sprintf("%g", e.weight)}}
}

type pathKey struct {
	source   conversion.Alias
	target   conversion.Alias
	maxDepth int
}

// ConversionGraph is the directed graph of program representations (nodes)
// and the conversions between them (edges).
//
// It is safe for concurrent use. Queries share a read lock; AddConversion,
// RemoveConversion and AddNode take the write lock.
type ConversionGraph struct {
	mu      sync.RWMutex
	graph   *simple.WeightedDirectedGraph
	ids     map[conversion.Alias]int64
	aliases map[int64]conversion.Alias
	adj     map[conversion.Alias]map[conversion.Alias]conversion.Conversion
	nextID  int64

	cacheMu sync.Mutex
	cache   map[pathKey]conversion.Path
}

// Empty creates a graph with no nodes.
func Empty() *ConversionGraph {
	return &ConversionGraph{
		graph:   simple.NewWeightedDirectedGraph(0, math.Inf(1)),
		ids:     make(map[conversion.Alias]int64),
		aliases: make(map[int64]conversion.Alias),
		adj:     make(map[conversion.Alias]map[conversion.Alias]conversion.Conversion),
		cache:   make(map[pathKey]conversion.Path),
	}
}

// New creates a graph from the given conversions. Two conversions with the
// same ordered pair are an error.
func New(conversions ...conversion.Conversion) (*ConversionGraph, error) {
	cg := Empty()
	for _, c := range conversions {
		if err := cg.AddConversion(c, false); err != nil {
			return nil, err
		}
	}
	return cg, nil
}

// MustNew is like New but panics on error.
func MustNew(conversions ...conversion.Conversion) *ConversionGraph {
	cg, err := New(conversions...)
	if err != nil {
		panic(err)
	}
	return cg
}

// addNodeLocked registers an alias if it is not present yet. Caller holds mu.
func (cg *ConversionGraph) addNodeLocked(alias conversion.Alias) int64 {
	if id, exists := cg.ids[alias]; exists {
		return id
	}

	id := cg.nextID
	cg.ids[alias] = id
	cg.aliases[id] = alias
	cg.graph.AddNode(aliasNode{id: id, alias: alias})
	cg.nextID++

	return id
}

// AddNode adds an isolated alias. Adding an existing alias is a no-op.
func (cg *ConversionGraph) AddNode(alias conversion.Alias) error {
	if alias == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConversion, conversion.ErrEmptyAlias)
	}

	cg.mu.Lock()
	defer cg.mu.Unlock()

	if _, exists := cg.ids[alias]; !exists {
		cg.addNodeLocked(alias)
		cg.invalidate()
	}
	return nil
}

// HasNode reports whether alias is a node of the graph.
func (cg *ConversionGraph) HasNode(alias conversion.Alias) bool {
	cg.mu.RLock()
	defer cg.mu.RUnlock()
	_, exists := cg.ids[alias]
	return exists
}

// AddConversion inserts an edge. If an edge for the same ordered pair exists
// it is replaced when overwrite is set, otherwise a *DuplicateEdgeError is
// returned and the graph is unchanged.
func (cg *ConversionGraph) AddConversion(c conversion.Conversion, overwrite bool) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidConversion, c.Key(), err)
	}

	cg.mu.Lock()
	defer cg.mu.Unlock()

	if _, exists := cg.adj[c.Source][c.Target]; exists && !overwrite {
		return &DuplicateEdgeError{Source: c.Source, Target: c.Target}
	}

	fromID := cg.addNodeLocked(c.Source)
	toID := cg.addNodeLocked(c.Target)

	if cg.adj[c.Source] == nil {
		cg.adj[c.Source] = make(map[conversion.Alias]conversion.Conversion)
	}
	cg.adj[c.Source][c.Target] = c

	// SetWeightedEdge replaces any existing edge between the pair
	cg.graph.SetWeightedEdge(conversionEdge{
		from:   cg.graph.Node(fromID),
		to:     cg.graph.Node(toID),
		weight: c.Weight,
	})

	cg.invalidate()
	return nil
}

// RemoveConversion deletes the edge from source to target. Both aliases stay
// in the node set. Removing an absent edge returns an *EdgeNotFoundError.
func (cg *ConversionGraph) RemoveConversion(source, target conversion.Alias) error {
	cg.mu.Lock()
	defer cg.mu.Unlock()

	if _, exists := cg.adj[source][target]; !exists {
		return &EdgeNotFoundError{Source: source, Target: target}
	}

	delete(cg.adj[source], target)
	if len(cg.adj[source]) == 0 {
		delete(cg.adj, source)
	}
	cg.graph.RemoveEdge(cg.ids[source], cg.ids[target])

	cg.invalidate()
	return nil
}

// HasEdge reports whether a direct conversion from source to target exists.
func (cg *ConversionGraph) HasEdge(source, target conversion.Alias) bool {
	cg.mu.RLock()
	defer cg.mu.RUnlock()
	_, exists := cg.adj[source][target]
	return exists
}

// Edge returns the direct conversion from source to target.
func (cg *ConversionGraph) Edge(source, target conversion.Alias) (conversion.Conversion, bool) {
	cg.mu.RLock()
	defer cg.mu.RUnlock()
	c, exists := cg.adj[source][target]
	return c, exists
}

// Nodes returns all aliases in sorted order.
func (cg *ConversionGraph) Nodes() []conversion.Alias {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	nodes := make([]conversion.Alias, 0, len(cg.ids))
	for alias := range cg.ids {
		nodes = append(nodes, alias)
	}
	slices.Sort(nodes)
	return nodes
}

// Edges returns all conversions ordered by source, then target.
func (cg *ConversionGraph) Edges() []conversion.Conversion {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	var edges []conversion.Conversion
	for _, source := range sortedKeys(cg.adj) {
		for _, target := range sortedKeys(cg.adj[source]) {
			edges = append(edges, cg.adj[source][target])
		}
	}
	return edges
}

// Successors returns the aliases directly reachable from alias, sorted.
func (cg *ConversionGraph) Successors(alias conversion.Alias) []conversion.Alias {
	cg.mu.RLock()
	defer cg.mu.RUnlock()
	return sortedKeys(cg.adj[alias])
}

// Len returns the number of nodes and edges.
func (cg *ConversionGraph) Len() (nodes, edges int) {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	for _, targets := range cg.adj {
		edges += len(targets)
	}
	return len(cg.ids), edges
}

// Copy returns an independent deep copy. Mutating the copy never affects the
// receiver. Conversion functions are shared since they are pure values.
func (cg *ConversionGraph) Copy() *ConversionGraph {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	dup := Empty()
	dup.nextID = cg.nextID
	for alias, id := range cg.ids {
		dup.ids[alias] = id
		dup.aliases[id] = alias
	}
	for source, targets := range cg.adj {
		dup.adj[source] = make(map[conversion.Alias]conversion.Conversion, len(targets))
		for target, c := range targets {
			dup.adj[source][target] = c
		}
	}
	gonum.CopyWeighted(dup.graph, cg.graph)

	return dup
}

// Directed returns a detached gonum view of the graph together with a lookup
// from gonum node IDs to aliases.
func (cg *ConversionGraph) Directed() (gonum.Directed, func(id int64) conversion.Alias) {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	view := simple.NewWeightedDirectedGraph(0, math.Inf(1))
	gonum.CopyWeighted(view, cg.graph)

	names := make(map[int64]conversion.Alias, len(cg.aliases))
	for id, alias := range cg.aliases {
		names[id] = alias
	}
	return view, func(id int64) conversion.Alias { return names[id] }
}

// invalidate drops cached paths. Caller holds mu for writing.
func (cg *ConversionGraph) invalidate() {
	cg.cacheMu.Lock()
	defer cg.cacheMu.Unlock()
	clear(cg.cache)
}

func sortedKeys[V any](m map[conversion.Alias]V) []conversion.Alias {
	keys := make([]conversion.Alias, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
