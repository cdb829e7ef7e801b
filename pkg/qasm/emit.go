package qasm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ritzau/qconvert/pkg/circuit"
)

// Register names used when emitting.
const (
	DefaultQubitRegister = "q"
	DefaultClbitRegister = "c"
)

// EmitOptions names the registers of the emitted program.
type EmitOptions struct {
	QubitRegister string
	ClbitRegister string
}

func (o EmitOptions) withDefaults() EmitOptions {
	if o.QubitRegister == "" {
		o.QubitRegister = DefaultQubitRegister
	}
	if o.ClbitRegister == "" {
		o.ClbitRegister = DefaultClbitRegister
	}
	return o
}

// Emit2 writes c as OpenQASM 2.
func Emit2(c *circuit.Circuit, opts EmitOptions) (QASM2, error) {
	opts = opts.withDefaults()
	if err := c.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("OPENQASM 2.0;\n")
	b.WriteString("include \"qelib1.inc\";\n")
	if c.Qubits > 0 {
		fmt.Fprintf(&b, "qreg %s[%d];\n", opts.QubitRegister, c.Qubits)
	}
	if c.Clbits > 0 {
		fmt.Fprintf(&b, "creg %s[%d];\n", opts.ClbitRegister, c.Clbits)
	}

	for _, op := range c.Ops {
		if op.Name == circuit.OpMeasure {
			for i, q := range op.Qubits {
				fmt.Fprintf(&b, "measure %s[%d] -> %s[%d];\n", opts.QubitRegister, q, opts.ClbitRegister, op.Clbits[i])
			}
			continue
		}
		writeGate(&b, op, opts)
	}
	return QASM2(b.String()), nil
}

// Emit3 writes c as OpenQASM 3.
func Emit3(c *circuit.Circuit, opts EmitOptions) (QASM3, error) {
	opts = opts.withDefaults()
	if err := c.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("OPENQASM 3.0;\n")
	b.WriteString("include \"stdgates.inc\";\n")
	if c.Qubits > 0 {
		fmt.Fprintf(&b, "qubit[%d] %s;\n", c.Qubits, opts.QubitRegister)
	}
	if c.Clbits > 0 {
		fmt.Fprintf(&b, "bit[%d] %s;\n", c.Clbits, opts.ClbitRegister)
	}

	for _, op := range c.Ops {
		if op.Name == circuit.OpMeasure {
			for i, q := range op.Qubits {
				fmt.Fprintf(&b, "%s[%d] = measure %s[%d];\n", opts.ClbitRegister, op.Clbits[i], opts.QubitRegister, q)
			}
			continue
		}
		writeGate(&b, op, opts)
	}
	return QASM3(b.String()), nil
}

func writeGate(b *strings.Builder, op circuit.Op, opts EmitOptions) {
	b.WriteString(op.Name)
	if len(op.Params) > 0 {
		params := make([]string, len(op.Params))
		for i, p := range op.Params {
			params[i] = strconv.FormatFloat(p, 'g', -1, 64)
		}
		fmt.Fprintf(b, "(%s)", strings.Join(params, ","))
	}

	operands := make([]string, len(op.Qubits))
	for i, q := range op.Qubits {
		operands[i] = fmt.Sprintf("%s[%d]", opts.QubitRegister, q)
	}
	fmt.Fprintf(b, " %s;\n", strings.Join(operands, ","))
}
