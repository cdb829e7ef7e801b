package graph

import (
	"errors"
	"strings"
	"testing"

	"github.com/ritzau/qconvert/pkg/conversion"
)

func TestFindPathIdentity(t *testing.T) {
	cg := chainGraph(t)
	for _, alias := range cg.Nodes() {
		for _, depth := range []int{Unbounded, 0, 1, 3} {
			path, err := cg.FindPath(alias, alias, depth)
			if err != nil {
				t.Fatalf("FindPath(%s, %s, %d) error = %v", alias, alias, depth, err)
			}
			if len(path) != 0 {
				t.Errorf("Expected identity path for %s, got %v", alias, path)
			}
		}
	}
}

func TestFindPathDirectEdge(t *testing.T) {
	cg := chainGraph(t)
	for _, c := range cg.Edges() {
		path, err := cg.FindPath(c.Source, c.Target, 1)
		if err != nil {
			t.Fatalf("FindPath(%s) error = %v", c.Key(), err)
		}
		if len(path) != 1 || path[0].Key() != c.Key() {
			t.Errorf("Expected single hop %s, got %v", c.Key(), path)
		}
	}
}

func TestFindPathMultiHop(t *testing.T) {
	cg := chainGraph(t)
	path, err := cg.FindPath("qasm2", "braket", Unbounded)
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}
	assertChain(t, path, "qasm2", "qiskit", "cirq", "braket")
}

func TestFindPathDepthBound(t *testing.T) {
	cg := chainGraph(t)

	_, err := cg.FindPath("qasm2", "braket", 1)
	var notFound *PathNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected PathNotFoundError, got %v", err)
	}
	if notFound.MaxDepth != 1 {
		t.Errorf("Expected MaxDepth 1, got %d", notFound.MaxDepth)
	}
	if len(notFound.Reachable) != 1 || notFound.Reachable[0] != "qiskit" {
		t.Errorf("Expected reachable [qiskit], got %v", notFound.Reachable)
	}
	if !strings.Contains(err.Error(), "reachable: qiskit") {
		t.Errorf("Error should list reachable aliases: %v", err)
	}

	if _, err := cg.FindPath("qasm2", "braket", 2); err == nil {
		t.Error("Expected no path within 2 hops")
	}
	if _, err := cg.FindPath("qasm2", "braket", 3); err != nil {
		t.Errorf("Expected path within 3 hops, got %v", err)
	}
	if _, err := cg.FindPath("qasm2", "qiskit", 0); err == nil {
		t.Error("Depth 0 admits only the identity path")
	}
}

func TestFindPathUnknownSource(t *testing.T) {
	cg := chainGraph(t)
	_, err := cg.FindPath("quil", "braket", Unbounded)
	var notFound *PathNotFoundError
	if !errors.As(err, &notFound) || !notFound.Unknown {
		t.Fatalf("Expected unknown-source PathNotFoundError, got %v", err)
	}
	if !errors.Is(err, ErrUnknownNode) || !errors.Is(err, ErrPathNotFound) {
		t.Errorf("Expected ErrUnknownNode and ErrPathNotFound, got %v", err)
	}

	_, err = cg.FindPath("qasm2", "quil", Unbounded)
	if errors.Is(err, ErrUnknownNode) {
		t.Error("Unknown target must not match ErrUnknownNode")
	}
}

func TestFindPathMinimalHops(t *testing.T) {
	cg := chainGraph(t)
	_ = cg.AddConversion(edge("qasm2", "cirq"), false)

	path, err := cg.FindPath("qasm2", "braket", Unbounded)
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}
	assertChain(t, path, "qasm2", "cirq", "braket")
}

func TestFindPathPrefersLowerWeight(t *testing.T) {
	cg := MustNew(
		edge("a", "d", conversion.WithWeight(10)),
		edge("a", "b", conversion.WithWeight(1)),
		edge("b", "c", conversion.WithWeight(1)),
		edge("c", "d", conversion.WithWeight(1)),
	)

	path, err := cg.FindPath("a", "d", Unbounded)
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}
	assertChain(t, path, "a", "b", "c", "d")

	// A bound excludes the cheaper long route
	path, err = cg.FindPath("a", "d", 2)
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}
	assertChain(t, path, "a", "d")
}

func TestFindPathEqualWeightPrefersFewerHops(t *testing.T) {
	cg := MustNew(
		edge("a", "b", conversion.WithWeight(1)),
		edge("b", "d", conversion.WithWeight(1)),
		edge("a", "d", conversion.WithWeight(2)),
	)

	path, err := cg.FindPath("a", "d", Unbounded)
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}
	assertChain(t, path, "a", "d")
}

func TestFindPathTieBreakIsLexicographic(t *testing.T) {
	// Register the "z" branch first so insertion order cannot explain the result
	cg := MustNew(
		edge("src", "z"),
		edge("z", "dst"),
		edge("src", "m"),
		edge("m", "dst"),
		edge("src", "b"),
		edge("b", "dst"),
	)

	for i := 0; i < 10; i++ {
		path, err := cg.FindPath("src", "dst", Unbounded)
		if err != nil {
			t.Fatalf("FindPath() error = %v", err)
		}
		assertChain(t, path, "src", "b", "dst")
	}

	// Copies must resolve identically
	path, err := cg.Copy().FindPath("src", "dst", Unbounded)
	if err != nil {
		t.Fatalf("FindPath() on copy error = %v", err)
	}
	assertChain(t, path, "src", "b", "dst")
}

func TestFindPathWithCycles(t *testing.T) {
	cg := MustNew(
		edge("a", "b"),
		edge("b", "a"),
		edge("b", "c"),
		edge("c", "b"),
		edge("c", "d"),
	)

	path, err := cg.FindPath("a", "d", Unbounded)
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}
	assertChain(t, path, "a", "b", "c", "d")
}

func TestFindPathZeroWeightEdges(t *testing.T) {
	cg := MustNew(
		edge("a", "b", conversion.WithWeight(0)),
		edge("b", "a", conversion.WithWeight(0)),
		edge("b", "c", conversion.WithWeight(0)),
		edge("a", "c", conversion.WithWeight(0)),
	)

	path, err := cg.FindPath("a", "c", Unbounded)
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}
	assertChain(t, path, "a", "c")
}

func TestFindPathReturnsIndependentSlices(t *testing.T) {
	cg := chainGraph(t)
	first, _ := cg.FindPath("qasm2", "braket", Unbounded)
	first[0] = edge("x", "y")

	second, _ := cg.FindPath("qasm2", "braket", Unbounded)
	assertChain(t, second, "qasm2", "qiskit", "cirq", "braket")
}

func TestFailedSearchDoesNotMutate(t *testing.T) {
	cg := chainGraph(t)
	nodesBefore, edgesBefore := cg.Len()

	_, _ = cg.FindPath("braket", "qasm2", Unbounded)
	_, _ = cg.FindPath("qasm2", "braket", 1)
	_, _ = cg.FindPath("nowhere", "qasm2", Unbounded)

	nodesAfter, edgesAfter := cg.Len()
	if nodesBefore != nodesAfter || edgesBefore != edgesAfter {
		t.Errorf("Graph changed: %d/%d -> %d/%d", nodesBefore, edgesBefore, nodesAfter, edgesAfter)
	}
}

func TestHasPath(t *testing.T) {
	cg := chainGraph(t)

	tests := []struct {
		source, target conversion.Alias
		depth          int
		want           bool
	}{
		{"qasm2", "braket", Unbounded, true},
		{"qasm2", "braket", 2, false},
		{"qasm2", "braket", 3, true},
		{"braket", "qasm2", Unbounded, false},
		{"qasm2", "qasm2", 0, true},
		{"unknown", "braket", Unbounded, false},
	}

	for _, tt := range tests {
		if got := cg.HasPath(tt.source, tt.target, tt.depth); got != tt.want {
			t.Errorf("HasPath(%s, %s, %d) = %v, want %v", tt.source, tt.target, tt.depth, got, tt.want)
		}
	}
}

func TestReachable(t *testing.T) {
	cg := chainGraph(t)

	got := cg.Reachable("qasm2", 2)
	if len(got) != 2 || got[0] != "cirq" || got[1] != "qiskit" {
		t.Errorf("Expected [cirq qiskit], got %v", got)
	}

	got = cg.Reachable("qasm2", Unbounded)
	if len(got) != 3 {
		t.Errorf("Expected 3 reachable aliases, got %v", got)
	}

	if got := cg.Reachable("braket", Unbounded); len(got) != 0 {
		t.Errorf("Expected nothing reachable from sink, got %v", got)
	}
}
