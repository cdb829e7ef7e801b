// Package scheme bundles resolver settings so they can be carried across call
// boundaries: the conversion graph, the hop bound and extra edge arguments.
package scheme

import (
	"fmt"
	"maps"
	"sync"

	"github.com/ritzau/qconvert/pkg/conversion"
	"github.com/ritzau/qconvert/pkg/graph"
)

// Keys understood by UpdateValues and produced by ToMap. Any other key is an
// edge argument.
const (
	KeyConversionGraph = "conversion_graph"
	KeyMaxPathDepth    = "max_path_depth"
)

// Scheme is a conversion scheme. Its owner (a call site or a long-lived
// client such as a device handle) decides its lifetime. A Scheme is safe for
// concurrent use.
type Scheme struct {
	mu           sync.Mutex
	graph        *graph.ConversionGraph
	factory      func() *graph.ConversionGraph
	maxPathDepth int
	args         conversion.Args
}

// Option configures a Scheme.
type Option func(*Scheme)

// WithGraph sets the conversion graph explicitly. Passing the same graph to
// several schemes shares it.
func WithGraph(g *graph.ConversionGraph) Option {
	return func(s *Scheme) { s.graph = g }
}

// WithGraphFactory sets the constructor used for the lazy default graph.
func WithGraphFactory(f func() *graph.ConversionGraph) Option {
	return func(s *Scheme) { s.factory = f }
}

// WithMaxPathDepth bounds the number of conversions in a path. Negative means
// unbounded.
func WithMaxPathDepth(depth int) Option {
	return func(s *Scheme) { s.maxPathDepth = depth }
}

// WithArgs sets extra arguments forwarded to every conversion.
func WithArgs(args conversion.Args) Option {
	return func(s *Scheme) { s.args = maps.Clone(args) }
}

// New creates a scheme. Without options the graph is a fresh empty one
// created on first access and the depth is unbounded.
func New(opts ...Option) *Scheme {
	s := &Scheme{
		factory:      graph.Empty,
		maxPathDepth: graph.Unbounded,
		args:         conversion.Args{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.args == nil {
		s.args = conversion.Args{}
	}
	return s
}

// Graph returns the scheme's conversion graph, constructing and caching it on
// first access when none was set. Each scheme builds its own; nothing is
// shared unless the factory returns a shared instance.
func (s *Scheme) Graph() *graph.ConversionGraph {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.graph == nil {
		s.graph = s.factory()
	}
	return s.graph
}

// MaxPathDepth returns the hop bound, graph.Unbounded when unset.
func (s *Scheme) MaxPathDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxPathDepth
}

// Args returns a copy of the extra conversion arguments.
func (s *Scheme) Args() conversion.Args {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.args)
}

// UpdateValues mutates the scheme in place. conversion_graph takes a
// *graph.ConversionGraph, max_path_depth an int (nil resets to unbounded),
// and every other key is stored as a conversion argument (a nil value removes
// it). Values are checked before anything is applied, so a failed update
// leaves the scheme unchanged.
func (s *Scheme) UpdateValues(values map[string]any) error {
	var (
		newGraph *graph.ConversionGraph
		setGraph bool
		newDepth int
		setDepth bool
	)

	for key, value := range values {
		switch key {
		case KeyConversionGraph:
			g, ok := value.(*graph.ConversionGraph)
			if !ok || g == nil {
				return fmt.Errorf("%s must be a non-nil *graph.ConversionGraph, got %T", key, value)
			}
			newGraph, setGraph = g, true
		case KeyMaxPathDepth:
			depth, err := depthValue(value)
			if err != nil {
				return err
			}
			newDepth, setDepth = depth, true
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if setGraph {
		s.graph = newGraph
	}
	if setDepth {
		s.maxPathDepth = newDepth
	}
	for key, value := range values {
		if key == KeyConversionGraph || key == KeyMaxPathDepth {
			continue
		}
		if value == nil {
			delete(s.args, key)
			continue
		}
		s.args[key] = value
	}
	return nil
}

// ToMap exports the scheme as a flat mapping, materializing the lazy graph.
func (s *Scheme) ToMap() map[string]any {
	g := s.Graph()

	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]any, len(s.args)+2)
	for k, v := range s.args {
		m[k] = v
	}
	m[KeyConversionGraph] = g
	m[KeyMaxPathDepth] = s.maxPathDepth
	return m
}

// Copy returns a scheme with the same graph reference and depth and its own
// argument map.
func (s *Scheme) Copy() *Scheme {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &Scheme{
		graph:        s.graph,
		factory:      s.factory,
		maxPathDepth: s.maxPathDepth,
		args:         maps.Clone(s.args),
	}
}

// DepthValue converts a loosely typed depth (from a map or config) to an int.
// nil means unbounded.
func DepthValue(value any) (int, error) {
	return depthValue(value)
}

func depthValue(value any) (int, error) {
	switch v := value.(type) {
	case nil:
		return graph.Unbounded, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be an integer, got %v", KeyMaxPathDepth, v)
		}
		return int(v), nil
	case *int:
		if v == nil {
			return graph.Unbounded, nil
		}
		return *v, nil
	default:
		return 0, fmt.Errorf("%s must be an integer, got %T", KeyMaxPathDepth, value)
	}
}
