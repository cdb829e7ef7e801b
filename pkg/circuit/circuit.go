// Package circuit is a minimal framework-neutral gate-list circuit, used as
// the hub representation of the built-in conversions.
package circuit

import (
	"errors"
	"fmt"
	"slices"
)

// Op is one instruction: a gate, measurement, reset or barrier.
type Op struct {
	Name   string    `json:"name"`
	Qubits []int     `json:"qubits"`
	Clbits []int     `json:"clbits,omitempty"`
	Params []float64 `json:"params,omitempty"`
}

// Instruction names with special meaning.
const (
	OpMeasure = "measure"
	OpBarrier = "barrier"
	OpReset   = "reset"
)

// Circuit is an ordered list of operations on numbered qubits and classical
// bits.
type Circuit struct {
	Qubits int  `json:"qubits"`
	Clbits int  `json:"clbits"`
	Ops    []Op `json:"ops"`
}

var ErrOutOfRange = errors.New("operand out of range")

// New creates an empty circuit.
func New(qubits, clbits int) *Circuit {
	return &Circuit{Qubits: qubits, Clbits: clbits}
}

// Append adds an operation after validating its operands.
func (c *Circuit) Append(op Op) error {
	if err := c.check(op); err != nil {
		return err
	}
	c.Ops = append(c.Ops, op)
	return nil
}

// Validate checks every operation against the register sizes.
func (c *Circuit) Validate() error {
	for i, op := range c.Ops {
		if err := c.check(op); err != nil {
			return fmt.Errorf("op %d (%s): %w", i, op.Name, err)
		}
	}
	return nil
}

func (c *Circuit) check(op Op) error {
	if op.Name == "" {
		return errors.New("operation name must not be empty")
	}
	for _, q := range op.Qubits {
		if q < 0 || q >= c.Qubits {
			return fmt.Errorf("%w: qubit %d of %d", ErrOutOfRange, q, c.Qubits)
		}
	}
	for _, b := range op.Clbits {
		if b < 0 || b >= c.Clbits {
			return fmt.Errorf("%w: clbit %d of %d", ErrOutOfRange, b, c.Clbits)
		}
	}
	if op.Name == OpMeasure && len(op.Qubits) != len(op.Clbits) {
		return fmt.Errorf("measure needs as many clbits as qubits, got %d and %d", len(op.Qubits), len(op.Clbits))
	}
	return nil
}

// Depth is the number of layers when every op occupies its qubits (and
// clbits) for one time step. Barriers synchronise their qubits but add no
// layer.
func (c *Circuit) Depth() int {
	qubitLevel := make([]int, c.Qubits)
	clbitLevel := make([]int, c.Clbits)
	depth := 0

	for _, op := range c.Ops {
		level := 0
		for _, q := range op.Qubits {
			level = max(level, qubitLevel[q])
		}
		for _, b := range op.Clbits {
			level = max(level, clbitLevel[b])
		}
		if op.Name != OpBarrier {
			level++
		}
		for _, q := range op.Qubits {
			qubitLevel[q] = level
		}
		for _, b := range op.Clbits {
			clbitLevel[b] = level
		}
		depth = max(depth, level)
	}
	return depth
}

// GateCounts returns how often each operation name occurs.
func (c *Circuit) GateCounts() map[string]int {
	counts := make(map[string]int)
	for _, op := range c.Ops {
		counts[op.Name]++
	}
	return counts
}

// Clone returns a deep copy.
func (c *Circuit) Clone() *Circuit {
	dup := &Circuit{Qubits: c.Qubits, Clbits: c.Clbits, Ops: make([]Op, len(c.Ops))}
	for i, op := range c.Ops {
		dup.Ops[i] = Op{
			Name:   op.Name,
			Qubits: slices.Clone(op.Qubits),
			Clbits: slices.Clone(op.Clbits),
			Params: slices.Clone(op.Params),
		}
	}
	return dup
}
