package conversion

import (
	"errors"
	"fmt"
	"math"
)

// Alias identifies one program representation, e.g. "qasm2" or "circuit".
type Alias string

// Args holds extra keyword arguments forwarded to every conversion in a path.
type Args map[string]any

// Func transforms a program of the source representation into the target one.
// It must not mutate the graph or scheme that selected it.
type Func func(program any, args Args) (any, error)

// DefaultWeight is the cost of a conversion when none is given.
const DefaultWeight = 1.0

var (
	ErrEmptyAlias    = errors.New("alias must not be empty")
	ErrSelfLoop      = errors.New("conversion source and target must differ")
	ErrNilFunc       = errors.New("conversion function must not be nil")
	ErrInvalidWeight = errors.New("conversion weight must be finite and non-negative")
)

// Key is the identity of a conversion: its ordered endpoint pair.
type Key struct {
	Source Alias
	Target Alias
}

func (k Key) String() string {
	return fmt.Sprintf("%s->%s", k.Source, k.Target)
}

// Conversion is a directed edge between two aliases.
type Conversion struct {
	Source Alias
	Target Alias
	Func   Func
	Weight float64
	Name   string // Diagnostic label, defaults to "source->target"
}

// Option configures a Conversion built by New.
type Option func(*Conversion)

// WithWeight sets the cost used when ranking paths.
func WithWeight(w float64) Option {
	return func(c *Conversion) { c.Weight = w }
}

// WithName sets the diagnostic label.
func WithName(name string) Option {
	return func(c *Conversion) { c.Name = name }
}

// New creates a validated conversion with the default weight.
func New(source, target Alias, fn Func, opts ...Option) (Conversion, error) {
	c := Conversion{
		Source: source,
		Target: target,
		Func:   fn,
		Weight: DefaultWeight,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.Name == "" {
		c.Name = c.Key().String()
	}
	if err := c.Validate(); err != nil {
		return Conversion{}, err
	}
	return c, nil
}

// MustNew is like New but panics on an invalid conversion.
// Intended for statically known built-in edges.
func MustNew(source, target Alias, fn Func, opts ...Option) Conversion {
	c, err := New(source, target, fn, opts...)
	if err != nil {
		panic(fmt.Sprintf("conversion %s->%s: %v", source, target, err))
	}
	return c
}

// Key returns the ordered pair identifying the conversion.
func (c Conversion) Key() Key {
	return Key{Source: c.Source, Target: c.Target}
}

// Validate checks the structural invariants of a conversion.
func (c Conversion) Validate() error {
	if c.Source == "" || c.Target == "" {
		return ErrEmptyAlias
	}
	if c.Source == c.Target {
		return ErrSelfLoop
	}
	if c.Func == nil {
		return ErrNilFunc
	}
	if c.Weight < 0 || math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) {
		return ErrInvalidWeight
	}
	return nil
}

// Apply runs the conversion function.
func (c Conversion) Apply(program any, args Args) (any, error) {
	return c.Func(program, args)
}

func (c Conversion) String() string {
	if c.Name != "" && c.Name != c.Key().String() {
		return fmt.Sprintf("%s (%s, w=%g)", c.Key(), c.Name, c.Weight)
	}
	return fmt.Sprintf("%s (w=%g)", c.Key(), c.Weight)
}
