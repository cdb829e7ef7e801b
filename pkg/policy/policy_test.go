package policy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ritzau/qconvert/pkg/conversion"
	"github.com/ritzau/qconvert/pkg/graph"
	"github.com/ritzau/qconvert/pkg/scheme"
)

func passthrough(p any, _ conversion.Args) (any, error) { return p, nil }

func testGraph() *graph.ConversionGraph {
	return graph.MustNew(
		conversion.MustNew("qasm2", "circuit", passthrough),
		conversion.MustNew("circuit", "qasm3", passthrough),
		conversion.MustNew("qasm2", "qasm3", passthrough),
		conversion.MustNew("circuit", "qasm2", passthrough),
	)
}

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write policy: %v", err)
	}
	return path
}

const sample = `
nodes = ["braket"]
max_path_depth = 2

[[weights]]
source = "qasm2"
target = "qasm3"
weight = 3.5

[[disabled]]
source = "circuit"
target = "qasm2"
`

func TestLoad(t *testing.T) {
	p, err := Load(writePolicy(t, sample))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(p.Nodes) != 1 || p.Nodes[0] != "braket" {
		t.Errorf("Expected nodes [braket], got %v", p.Nodes)
	}
	if len(p.Weights) != 1 || p.Weights[0].Weight != 3.5 {
		t.Errorf("Unexpected weights %+v", p.Weights)
	}
	if len(p.Disabled) != 1 || p.Disabled[0].Target != "qasm2" {
		t.Errorf("Unexpected disabled %+v", p.Disabled)
	}
	if p.MaxPathDepth == nil || *p.MaxPathDepth != 2 {
		t.Errorf("Expected max_path_depth 2, got %v", p.MaxPathDepth)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := Load(writePolicy(t, "nodes = [")); err == nil {
		t.Error("Expected error for malformed TOML")
	}

	_, err := Load(writePolicy(t, "[[weights]]\nsource = \"a\"\ntarget = \"b\"\nweight = -1\n"))
	if !errors.Is(err, conversion.ErrInvalidWeight) {
		t.Errorf("Expected ErrInvalidWeight, got %v", err)
	}
	_, err = Load(writePolicy(t, "[[disabled]]\nsource = \"a\"\n"))
	if !errors.Is(err, conversion.ErrEmptyAlias) {
		t.Errorf("Expected ErrEmptyAlias, got %v", err)
	}
}

func TestApply(t *testing.T) {
	p, err := Load(writePolicy(t, sample))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	g := testGraph()
	out, err := p.Apply(g)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if !out.HasNode("braket") {
		t.Error("Expected braket node")
	}
	if out.HasEdge("circuit", "qasm2") {
		t.Error("Expected circuit->qasm2 disabled")
	}
	if c, _ := out.Edge("qasm2", "qasm3"); c.Weight != 3.5 {
		t.Errorf("Expected weight 3.5, got %v", c.Weight)
	}

	// the reweighted direct edge now loses to the two-hop route
	path, err := out.FindPath("qasm2", "qasm3", graph.Unbounded)
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}
	if got := path.String(); got != "qasm2 -> circuit -> qasm3" {
		t.Errorf("Expected route through circuit, got %s", got)
	}

	// input untouched
	if !g.HasEdge("circuit", "qasm2") || g.HasNode("braket") {
		t.Error("Apply must not modify its input")
	}
	if c, _ := g.Edge("qasm2", "qasm3"); c.Weight != conversion.DefaultWeight {
		t.Errorf("Input weight changed to %v", c.Weight)
	}
}

func TestApplyMissingEdge(t *testing.T) {
	p := &Policy{Disabled: []Edge{{Source: "qasm3", Target: "qasm2"}}}
	if _, err := p.Apply(testGraph()); !errors.Is(err, graph.ErrEdgeNotFound) {
		t.Errorf("Expected ErrEdgeNotFound, got %v", err)
	}

	p = &Policy{Weights: []Weight{{Source: "qasm3", Target: "braket", Weight: 2}}}
	if _, err := p.Apply(testGraph()); !errors.Is(err, graph.ErrEdgeNotFound) {
		t.Errorf("Expected ErrEdgeNotFound, got %v", err)
	}
}

func TestApplyScheme(t *testing.T) {
	p, err := Load(writePolicy(t, sample))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	g := testGraph()
	s := scheme.New(scheme.WithGraph(g))
	if err := p.ApplyScheme(s); err != nil {
		t.Fatalf("ApplyScheme() error = %v", err)
	}
	if s.Graph() == g {
		t.Error("Expected the scheme to hold a new graph")
	}
	if s.MaxPathDepth() != 2 {
		t.Errorf("Expected depth 2, got %d", s.MaxPathDepth())
	}

	unbounded := scheme.New(scheme.WithGraph(g))
	if err := (&Policy{}).ApplyScheme(unbounded); err != nil {
		t.Fatalf("ApplyScheme() error = %v", err)
	}
	if unbounded.MaxPathDepth() != graph.Unbounded {
		t.Errorf("Empty policy must keep the depth, got %d", unbounded.MaxPathDepth())
	}
}
