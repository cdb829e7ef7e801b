package conversion

import (
	"errors"
	"math"
	"testing"
)

func identity(p any, _ Args) (any, error) { return p, nil }

func TestNewDefaults(t *testing.T) {
	c, err := New("qasm2", "qasm3", identity)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Weight != DefaultWeight {
		t.Errorf("Expected default weight %v, got %v", DefaultWeight, c.Weight)
	}
	if c.Name != "qasm2->qasm3" {
		t.Errorf("Expected default name qasm2->qasm3, got %s", c.Name)
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name   string
		source Alias
		target Alias
		fn     Func
		opts   []Option
		want   error
	}{
		{"empty source", "", "b", identity, nil, ErrEmptyAlias},
		{"empty target", "a", "", identity, nil, ErrEmptyAlias},
		{"self loop", "a", "a", identity, nil, ErrSelfLoop},
		{"nil func", "a", "b", nil, nil, ErrNilFunc},
		{"negative weight", "a", "b", identity, []Option{WithWeight(-1)}, ErrInvalidWeight},
		{"nan weight", "a", "b", identity, []Option{WithWeight(math.NaN())}, ErrInvalidWeight},
		{"inf weight", "a", "b", identity, []Option{WithWeight(math.Inf(1))}, ErrInvalidWeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.source, tt.target, tt.fn, tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestZeroWeightAllowed(t *testing.T) {
	c, err := New("a", "b", identity, WithWeight(0))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Weight != 0 {
		t.Errorf("Expected weight 0, got %v", c.Weight)
	}
}

func TestPathHelpers(t *testing.T) {
	p := Path{
		MustNew("qasm2", "circuit", identity),
		MustNew("circuit", "qasm3", identity, WithWeight(2)),
	}

	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got := p.String(); got != "qasm2 -> circuit -> qasm3" {
		t.Errorf("String() = %q", got)
	}
	if got := p.Weight(); got != 3 {
		t.Errorf("Weight() = %v, want 3", got)
	}
	aliases := p.Aliases()
	if len(aliases) != 3 || aliases[0] != "qasm2" || aliases[2] != "qasm3" {
		t.Errorf("Aliases() = %v", aliases)
	}

	broken := Path{MustNew("a", "b", identity), MustNew("c", "d", identity)}
	if err := broken.Validate(); err == nil {
		t.Error("Expected broken path to fail validation")
	}

	var empty Path
	if empty.String() != "(identity)" || empty.Aliases() != nil {
		t.Errorf("Unexpected identity rendering: %q %v", empty.String(), empty.Aliases())
	}
}
