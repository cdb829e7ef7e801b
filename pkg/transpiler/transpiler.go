// Package transpiler converts a quantum program from its current
// representation to a target one by running the conversions along a path in
// a conversion graph.
package transpiler

import (
	"fmt"
	"maps"
	"reflect"

	"github.com/ritzau/qconvert/pkg/conversion"
	"github.com/ritzau/qconvert/pkg/graph"
	"github.com/ritzau/qconvert/pkg/logging"
	"github.com/ritzau/qconvert/pkg/scheme"
)

// TypeRegistry is the program-type capability the transpiler depends on.
// *registry.Registry implements it.
type TypeRegistry interface {
	ResolveAlias(program any) (conversion.Alias, error)
	NativeType(alias conversion.Alias) (reflect.Type, bool)
}

// Transpiler resolves and runs conversions. It holds no per-call state and is
// safe for concurrent use as long as its graphs are.
type Transpiler struct {
	registry     TypeRegistry
	defaultGraph *graph.ConversionGraph
}

// New creates a transpiler. defaultGraph is used when a call does not pass
// its own graph; nil means an empty graph.
func New(reg TypeRegistry, defaultGraph *graph.ConversionGraph) *Transpiler {
	if defaultGraph == nil {
		defaultGraph = graph.Empty()
	}
	return &Transpiler{registry: reg, defaultGraph: defaultGraph}
}

// Registry returns the type registry.
func (t *Transpiler) Registry() TypeRegistry { return t.registry }

// DefaultGraph returns the graph used when a call passes none.
func (t *Transpiler) DefaultGraph() *graph.ConversionGraph { return t.defaultGraph }

type options struct {
	graph    *graph.ConversionGraph
	maxDepth int
	args     conversion.Args
}

// Option configures one Transpile call.
type Option func(*options)

// WithGraph selects the conversion graph for the call.
func WithGraph(g *graph.ConversionGraph) Option {
	return func(o *options) { o.graph = g }
}

// WithMaxPathDepth bounds the number of conversions. Negative is unbounded.
// A bound of 1 restricts the call to direct conversions only.
func WithMaxPathDepth(depth int) Option {
	return func(o *options) { o.maxDepth = depth }
}

// WithArgs adds arguments forwarded to every conversion in the path.
func WithArgs(args conversion.Args) Option {
	return func(o *options) {
		for k, v := range args {
			o.args[k] = v
		}
	}
}

// WithScheme applies a scheme's graph, depth and arguments. A nil scheme
// changes nothing.
func WithScheme(s *scheme.Scheme) Option {
	return func(o *options) {
		if s == nil {
			return
		}
		o.graph = s.Graph()
		o.maxDepth = s.MaxPathDepth()
		maps.Copy(o.args, s.Args())
	}
}

// OptionsFromMap turns a flat mapping (as produced by scheme.Scheme.ToMap)
// into options. conversion_graph and max_path_depth are recognised; every
// other key becomes a conversion argument.
func OptionsFromMap(m map[string]any) ([]Option, error) {
	var opts []Option
	args := conversion.Args{}

	for key, value := range m {
		switch key {
		case scheme.KeyConversionGraph:
			if value == nil {
				continue
			}
			g, ok := value.(*graph.ConversionGraph)
			if !ok {
				return nil, fmt.Errorf("%s must be a *graph.ConversionGraph, got %T", key, value)
			}
			opts = append(opts, WithGraph(g))
		case scheme.KeyMaxPathDepth:
			depth, err := scheme.DepthValue(value)
			if err != nil {
				return nil, err
			}
			opts = append(opts, WithMaxPathDepth(depth))
		default:
			args[key] = value
		}
	}

	if len(args) > 0 {
		opts = append(opts, WithArgs(args))
	}
	return opts, nil
}

// Transpile converts program to the target alias.
//
// The source alias comes from the registry. When it equals target the
// program is returned as is and no conversion runs. Otherwise the best path
// is searched in the graph and every conversion is applied in order, each
// receiving the same arguments. The result must have the type registered for
// target.
//
// Errors: *ProgramTypeError when the source alias is unknown,
// *CircuitConversionError when no path exists, *ConversionExecutionError when
// a conversion fails or panics, *ProgramConversionError when the result has
// the wrong type. The graph is never modified.
func (t *Transpiler) Transpile(program any, target conversion.Alias, opts ...Option) (any, error) {
	o := options{
		graph:    t.defaultGraph,
		maxDepth: graph.Unbounded,
		args:     conversion.Args{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.graph == nil {
		o.graph = t.defaultGraph
	}

	source, err := t.registry.ResolveAlias(program)
	if err != nil {
		return nil, &ProgramTypeError{Type: reflect.TypeOf(program), Err: err}
	}

	if source == target {
		logging.Trace("program already in target representation", "alias", target)
		return program, nil
	}

	path, err := o.graph.FindPath(source, target, o.maxDepth)
	if err != nil {
		return nil, &CircuitConversionError{Source: source, Target: target, MaxDepth: o.maxDepth, Err: err}
	}

	logging.Debug("converting program",
		"source", source,
		"target", target,
		"path", path.String(),
		"hops", len(path),
		"weight", path.Weight(),
	)

	result := program
	for i, c := range path {
		result, err = apply(c, result, o.args)
		if err != nil {
			return nil, &ConversionExecutionError{
				Source: c.Source,
				Target: c.Target,
				Step:   i,
				Path:   path,
				Err:    err,
			}
		}
	}

	if err := t.checkType(result, target); err != nil {
		return nil, err
	}
	return result, nil
}

// Path reports the conversions Transpile would run for program, without
// running them.
func (t *Transpiler) Path(program any, target conversion.Alias, opts ...Option) (conversion.Path, error) {
	o := options{graph: t.defaultGraph, maxDepth: graph.Unbounded, args: conversion.Args{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.graph == nil {
		o.graph = t.defaultGraph
	}

	source, err := t.registry.ResolveAlias(program)
	if err != nil {
		return nil, &ProgramTypeError{Type: reflect.TypeOf(program), Err: err}
	}
	path, err := o.graph.FindPath(source, target, o.maxDepth)
	if err != nil {
		return nil, &CircuitConversionError{Source: source, Target: target, MaxDepth: o.maxDepth, Err: err}
	}
	return path, nil
}

// apply runs one conversion, turning a panic into an error.
func apply(c conversion.Conversion, program any, args conversion.Args) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, &panicError{value: r}
		}
	}()
	return c.Apply(program, args)
}

func (t *Transpiler) checkType(result any, target conversion.Alias) error {
	want, ok := t.registry.NativeType(target)
	if !ok {
		logging.Debug("no native type registered, skipping result check", "target", target)
		return nil
	}

	got := reflect.TypeOf(result)
	if got == want {
		return nil
	}
	if got != nil && want.Kind() == reflect.Interface && got.Implements(want) {
		return nil
	}
	return &ProgramConversionError{Target: target, Want: want, Got: got}
}
