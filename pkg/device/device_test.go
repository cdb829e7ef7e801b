package device

import (
	"errors"
	"testing"

	"github.com/ritzau/qconvert/pkg/builtin"
	"github.com/ritzau/qconvert/pkg/circuit"
	"github.com/ritzau/qconvert/pkg/conversion"
	"github.com/ritzau/qconvert/pkg/graph"
	"github.com/ritzau/qconvert/pkg/qasm"
	"github.com/ritzau/qconvert/pkg/scheme"
	"github.com/ritzau/qconvert/pkg/transpiler"
)

const program = qasm.QASM3("OPENQASM 3.0;\nqubit[1] q;\nh q[0];\n")

func newDevice(alias conversion.Alias) (*Device, *graph.ConversionGraph) {
	g := builtin.NewGraph()
	t := transpiler.New(builtin.NewRegistry(), g)
	return New("sim", alias, t, nil), g
}

func TestPrepareConverts(t *testing.T) {
	d, _ := newDevice(builtin.QASM2)
	got, err := d.Prepare(program)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, ok := got.(qasm.QASM2); !ok {
		t.Errorf("Expected qasm.QASM2, got %T", got)
	}
}

func TestPrepareIdentity(t *testing.T) {
	d, _ := newDevice(builtin.QASM3)
	got, err := d.Prepare(program)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if got != any(program) {
		t.Error("Expected program unchanged")
	}
}

func TestDirectOnly(t *testing.T) {
	d, _ := newDevice(builtin.QASM2)
	d.WithDirectOnly()

	if depth := d.Scheme.MaxPathDepth(); depth != 1 {
		t.Errorf("Expected depth 1, got %d", depth)
	}
	_, err := d.Prepare(program)
	var convErr *transpiler.CircuitConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("Expected CircuitConversionError, got %v", err)
	}
	if !errors.Is(err, graph.ErrPathNotFound) {
		t.Errorf("Expected wrapped ErrPathNotFound, got %v", err)
	}
}

func TestSpecializeLeavesSharedGraph(t *testing.T) {
	d, shared := newDevice(builtin.QASM2)
	d.WithDirectOnly()

	calls := 0
	shortcut := conversion.MustNew(builtin.QASM3, builtin.QASM2, func(p any, _ conversion.Args) (any, error) {
		calls++
		c, err := qasm.Parse(string(p.(qasm.QASM3)))
		if err != nil {
			return nil, err
		}
		return qasm.Emit2(c, qasm.EmitOptions{})
	}, conversion.WithName("vendor.Downgrade"))

	if err := d.Specialize(shortcut, false); err != nil {
		t.Fatalf("Specialize() error = %v", err)
	}
	if shared.HasEdge(builtin.QASM3, builtin.QASM2) {
		t.Error("Specialize must not touch the shared graph")
	}
	if d.Scheme.Graph() == shared {
		t.Error("Expected a private graph copy")
	}

	if _, err := d.Prepare(program); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected the shortcut to run once, got %d", calls)
	}

	// A second shortcut for the same pair needs overwrite
	if err := d.Specialize(shortcut, false); !errors.Is(err, graph.ErrDuplicateEdge) {
		t.Errorf("Expected ErrDuplicateEdge, got %v", err)
	}
	if err := d.Specialize(shortcut, true); err != nil {
		t.Errorf("Specialize(overwrite) error = %v", err)
	}
}

func TestExplicitScheme(t *testing.T) {
	g := builtin.NewGraph()
	tr := transpiler.New(builtin.NewRegistry(), graph.Empty())
	s := scheme.New(scheme.WithGraph(g), scheme.WithArgs(conversion.Args{builtin.ArgQubitRegister: "dev"}))
	d := New("qpu", builtin.Circuit, tr, s)

	got, err := d.Prepare(program)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if c, ok := got.(*circuit.Circuit); !ok || c.Qubits != 1 {
		t.Errorf("Unexpected result %#v", got)
	}
}

func TestNewDefaults(t *testing.T) {
	d := New("default", builtin.QASM2, nil, nil)
	if d.Scheme.Graph() != builtin.Graph() {
		t.Error("Expected the shared built-in graph")
	}
	got, err := d.Prepare(program)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, ok := got.(qasm.QASM2); !ok {
		t.Errorf("Expected qasm.QASM2, got %T", got)
	}
}
