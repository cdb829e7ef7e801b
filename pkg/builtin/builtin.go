// Package builtin provides the default conversion graph and registry: OpenQASM
// 2 and 3 text and the gate-list circuit, with the circuit acting as hub.
//
//	qasm2 <-> circuit <-> qasm3
//	qasm2  -> qasm3
package builtin

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/ritzau/qconvert/pkg/circuit"
	"github.com/ritzau/qconvert/pkg/conversion"
	"github.com/ritzau/qconvert/pkg/graph"
	"github.com/ritzau/qconvert/pkg/qasm"
	"github.com/ritzau/qconvert/pkg/registry"
	"github.com/ritzau/qconvert/pkg/transpiler"
)

// Aliases of the built-in representations.
const (
	QASM2   = qasm.Alias2
	QASM3   = qasm.Alias3
	Circuit conversion.Alias = "circuit"
)

// Conversion arguments understood by the emitters. Other arguments are
// ignored.
const (
	ArgQubitRegister = "qubit_register"
	ArgClbitRegister = "clbit_register"
)

// Conversions returns the built-in conversions.
func Conversions() []conversion.Conversion {
	return []conversion.Conversion{
		conversion.MustNew(QASM2, Circuit, parseText, conversion.WithName("qasm.Parse")),
		conversion.MustNew(QASM3, Circuit, parseText, conversion.WithName("qasm.Parse")),
		conversion.MustNew(Circuit, QASM2, emit2, conversion.WithName("qasm.Emit2")),
		conversion.MustNew(Circuit, QASM3, emit3, conversion.WithName("qasm.Emit3")),
		conversion.MustNew(QASM2, QASM3, upgrade, conversion.WithName("qasm.Upgrade")),
	}
}

// NewGraph builds a fresh graph holding the built-in conversions.
func NewGraph() *graph.ConversionGraph {
	return graph.MustNew(Conversions()...)
}

var (
	sharedOnce  sync.Once
	sharedGraph *graph.ConversionGraph
)

// Graph returns the process-wide built-in graph. It is built on first use.
// Callers that add edges should work on a Copy.
func Graph() *graph.ConversionGraph {
	sharedOnce.Do(func() {
		sharedGraph = NewGraph()
	})
	return sharedGraph
}

// NewRegistry registers the built-in program types. Plain strings resolve by
// their OPENQASM header; types from a package named like a registered alias
// resolve to that alias.
func NewRegistry() *registry.Registry {
	reg := registry.New(registry.PackageNameFallback(), qasm.HeaderFallback())
	for alias, typ := range map[conversion.Alias]reflect.Type{
		QASM2:   reflect.TypeFor[qasm.QASM2](),
		QASM3:   reflect.TypeFor[qasm.QASM3](),
		Circuit: reflect.TypeFor[*circuit.Circuit](),
	} {
		if err := reg.Register(alias, typ); err != nil {
			panic(fmt.Sprintf("builtin: %v", err))
		}
	}
	return reg
}

// Default returns a transpiler over NewRegistry and the shared Graph.
func Default() *transpiler.Transpiler {
	return transpiler.New(NewRegistry(), Graph())
}

// Transpile converts program with a default transpiler.
func Transpile(program any, target conversion.Alias, opts ...transpiler.Option) (any, error) {
	return Default().Transpile(program, target, opts...)
}

func programText(program any) (string, error) {
	switch p := program.(type) {
	case qasm.QASM2:
		return string(p), nil
	case qasm.QASM3:
		return string(p), nil
	case string:
		return p, nil
	case []byte:
		return string(p), nil
	}
	return "", fmt.Errorf("expected OpenQASM text, got %T", program)
}

func parseText(program any, _ conversion.Args) (any, error) {
	text, err := programText(program)
	if err != nil {
		return nil, err
	}
	return qasm.Parse(text)
}

func emitOptions(args conversion.Args) (qasm.EmitOptions, error) {
	var opts qasm.EmitOptions
	for key, dst := range map[string]*string{
		ArgQubitRegister: &opts.QubitRegister,
		ArgClbitRegister: &opts.ClbitRegister,
	} {
		value, ok := args[key]
		if !ok {
			continue
		}
		name, ok := value.(string)
		if !ok {
			return opts, fmt.Errorf("%s must be a string, got %T", key, value)
		}
		*dst = name
	}
	return opts, nil
}

func asCircuit(program any) (*circuit.Circuit, error) {
	c, ok := program.(*circuit.Circuit)
	if !ok || c == nil {
		return nil, fmt.Errorf("expected *circuit.Circuit, got %T", program)
	}
	return c, nil
}

func emit2(program any, args conversion.Args) (any, error) {
	c, err := asCircuit(program)
	if err != nil {
		return nil, err
	}
	opts, err := emitOptions(args)
	if err != nil {
		return nil, err
	}
	return qasm.Emit2(c, opts)
}

func emit3(program any, args conversion.Args) (any, error) {
	c, err := asCircuit(program)
	if err != nil {
		return nil, err
	}
	opts, err := emitOptions(args)
	if err != nil {
		return nil, err
	}
	return qasm.Emit3(c, opts)
}

func upgrade(program any, args conversion.Args) (any, error) {
	c, err := parseText(program, args)
	if err != nil {
		return nil, err
	}
	return emit3(c, args)
}
