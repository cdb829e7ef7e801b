// Package qasm reads and writes the OpenQASM 2 and 3 subset understood by the
// circuit package: register declarations, gate applications with constant
// parameters, measure, reset and barrier. Gate definitions, classical control
// and subroutines are rejected.
package qasm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ritzau/qconvert/pkg/circuit"
)

// QASM2 is an OpenQASM 2 program.
type QASM2 string

// QASM3 is an OpenQASM 3 program.
type QASM3 string

// ParseError locates a problem in the source.
type ParseError struct {
	Statement int // 1-based statement index
	Text      string
	Msg       string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("statement %d %q: %s", e.Statement, e.Text, e.Msg)
}

var (
	headerRe = regexp.MustCompile(`^OPENQASM\s+([0-9]+)(\.[0-9]+)?$`)
	qregRe   = regexp.MustCompile(`^qreg\s+([A-Za-z_][A-Za-z0-9_]*)\s*\[\s*([0-9]+)\s*\]$`)
	cregRe   = regexp.MustCompile(`^creg\s+([A-Za-z_][A-Za-z0-9_]*)\s*\[\s*([0-9]+)\s*\]$`)
	qubitRe  = regexp.MustCompile(`^qubit\s*(?:\[\s*([0-9]+)\s*\])?\s+([A-Za-z_][A-Za-z0-9_]*)$`)
	bitRe    = regexp.MustCompile(`^bit\s*(?:\[\s*([0-9]+)\s*\])?\s+([A-Za-z_][A-Za-z0-9_]*)$`)
	gateRe   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*(?:\((.*)\))?\s*(.*)$`)
	operRe   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*(?:\[\s*([0-9]+)\s*\])?$`)
	assignRe = regexp.MustCompile(`^(.+?)\s*=\s*measure\s+(.+)$`)
)

// register is a named slice of the flat qubit or clbit index space.
type register struct {
	offset int
	size   int
}

type parser struct {
	version int
	qregs   map[string]register
	cregs   map[string]register
	circ    *circuit.Circuit
}

// Parse reads an OpenQASM 2 or 3 program.
func Parse(text string) (*circuit.Circuit, error) {
	p := &parser{
		qregs: make(map[string]register),
		cregs: make(map[string]register),
		circ:  circuit.New(0, 0),
	}

	statements := splitStatements(stripComments(text))
	if len(statements) == 0 {
		return nil, fmt.Errorf("empty program")
	}

	for i, stmt := range statements {
		if err := p.statement(i, stmt); err != nil {
			return nil, &ParseError{Statement: i + 1, Text: stmt, Msg: err.Error()}
		}
	}

	if p.version == 0 {
		return nil, fmt.Errorf("missing OPENQASM header")
	}
	return p.circ, nil
}

// Version returns the major version named in the program header.
func Version(text string) (int, bool) {
	statements := splitStatements(stripComments(text))
	if len(statements) == 0 {
		return 0, false
	}
	m := headerRe.FindStringSubmatch(statements[0])
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}

func (p *parser) statement(index int, stmt string) error {
	if m := headerRe.FindStringSubmatch(stmt); m != nil {
		if index != 0 {
			return fmt.Errorf("header must be the first statement")
		}
		v, _ := strconv.Atoi(m[1])
		if v != 2 && v != 3 {
			return fmt.Errorf("unsupported OpenQASM version %s", m[1])
		}
		p.version = v
		return nil
	}
	if p.version == 0 {
		return fmt.Errorf("missing OPENQASM header")
	}

	switch {
	case strings.HasPrefix(stmt, "include "):
		return nil
	case strings.HasPrefix(stmt, "qreg "):
		return p.declare(qregRe, stmt, 2, p.qregs, &p.circ.Qubits, false)
	case strings.HasPrefix(stmt, "creg "):
		return p.declare(cregRe, stmt, 2, p.cregs, &p.circ.Clbits, false)
	case strings.HasPrefix(stmt, "qubit"):
		return p.declare(qubitRe, stmt, 3, p.qregs, &p.circ.Qubits, true)
	case strings.HasPrefix(stmt, "bit"):
		return p.declare(bitRe, stmt, 3, p.cregs, &p.circ.Clbits, true)
	case strings.HasPrefix(stmt, "measure "):
		return p.measure2(strings.TrimPrefix(stmt, "measure "))
	case assignRe.MatchString(stmt):
		m := assignRe.FindStringSubmatch(stmt)
		return p.measurePair(m[2], m[1])
	}

	for _, keyword := range []string{"gate ", "opaque ", "if", "def ", "for ", "while ", "ctrl", "inv", "pow"} {
		if strings.HasPrefix(stmt, keyword) {
			return fmt.Errorf("unsupported statement")
		}
	}
	return p.gate(stmt)
}

// declare handles qreg/creg (QASM 2, name then size) and qubit/bit (QASM 3,
// optional size then name).
func (p *parser) declare(re *regexp.Regexp, stmt string, version int, regs map[string]register, total *int, sizeFirst bool) error {
	if p.version != version {
		return fmt.Errorf("declaration not valid in OpenQASM %d", p.version)
	}
	m := re.FindStringSubmatch(stmt)
	if m == nil {
		return fmt.Errorf("malformed declaration")
	}

	name, sizeText := m[1], m[2]
	if sizeFirst {
		name, sizeText = m[2], m[1]
	}
	size := 1
	if sizeText != "" {
		size, _ = strconv.Atoi(sizeText)
	}
	if size == 0 {
		return fmt.Errorf("register %s has size 0", name)
	}
	if _, exists := p.qregs[name]; exists {
		return fmt.Errorf("register %s redeclared", name)
	}
	if _, exists := p.cregs[name]; exists {
		return fmt.Errorf("register %s redeclared", name)
	}

	regs[name] = register{offset: *total, size: size}
	*total += size
	return nil
}

func (p *parser) measure2(rest string) error {
	parts := strings.SplitN(rest, "->", 2)
	if len(parts) != 2 {
		return fmt.Errorf("measure needs '->' target")
	}
	return p.measurePair(parts[0], parts[1])
}

func (p *parser) measurePair(qubitText, clbitText string) error {
	qubits, err := p.operand(strings.TrimSpace(qubitText), p.qregs)
	if err != nil {
		return err
	}
	clbits, err := p.operand(strings.TrimSpace(clbitText), p.cregs)
	if err != nil {
		return err
	}
	if len(qubits) != len(clbits) {
		return fmt.Errorf("measure size mismatch: %d qubits, %d bits", len(qubits), len(clbits))
	}
	for i := range qubits {
		op := circuit.Op{Name: circuit.OpMeasure, Qubits: []int{qubits[i]}, Clbits: []int{clbits[i]}}
		if err := p.circ.Append(op); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) gate(stmt string) error {
	m := gateRe.FindStringSubmatch(stmt)
	if m == nil || strings.TrimSpace(m[3]) == "" {
		return fmt.Errorf("malformed instruction")
	}
	name := m[1]

	var params []float64
	if strings.TrimSpace(m[2]) != "" {
		for _, expr := range strings.Split(m[2], ",") {
			v, err := evalExpr(expr)
			if err != nil {
				return fmt.Errorf("parameter %q: %w", strings.TrimSpace(expr), err)
			}
			params = append(params, v)
		}
	}

	var operands [][]int
	width := 1
	for _, text := range strings.Split(m[3], ",") {
		qubits, err := p.operand(strings.TrimSpace(text), p.qregs)
		if err != nil {
			return err
		}
		if len(qubits) > 1 {
			if width > 1 && len(qubits) != width {
				return fmt.Errorf("register size mismatch in broadcast")
			}
			width = len(qubits)
		}
		operands = append(operands, qubits)
	}

	// Barriers apply to all their operands at once
	if name == circuit.OpBarrier {
		var all []int
		for _, q := range operands {
			all = append(all, q...)
		}
		return p.circ.Append(circuit.Op{Name: name, Qubits: all})
	}

	for i := 0; i < width; i++ {
		qubits := make([]int, len(operands))
		for j, q := range operands {
			if len(q) == 1 {
				qubits[j] = q[0]
			} else {
				qubits[j] = q[i]
			}
		}
		op := circuit.Op{Name: name, Qubits: qubits, Params: params}
		if err := p.circ.Append(op); err != nil {
			return err
		}
	}
	return nil
}

// operand resolves "q[1]" to one index or "q" to the whole register.
func (p *parser) operand(text string, regs map[string]register) ([]int, error) {
	m := operRe.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("malformed operand %q", text)
	}
	reg, ok := regs[m[1]]
	if !ok {
		return nil, fmt.Errorf("undeclared register %s", m[1])
	}

	if m[2] == "" {
		indices := make([]int, reg.size)
		for i := range indices {
			indices[i] = reg.offset + i
		}
		return indices, nil
	}

	i, _ := strconv.Atoi(m[2])
	if i >= reg.size {
		return nil, fmt.Errorf("index %d out of range for %s[%d]", i, m[1], reg.size)
	}
	return []int{reg.offset + i}, nil
}

func stripComments(text string) string {
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		switch {
		case strings.HasPrefix(text[i:], "//"):
			for i < len(text) && text[i] != '\n' {
				i++
			}
			b.WriteByte('\n')
		case strings.HasPrefix(text[i:], "/*"):
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			i += end + 3
			b.WriteByte(' ')
		default:
			b.WriteByte(text[i])
		}
	}
	return b.String()
}

func splitStatements(text string) []string {
	var statements []string
	for _, raw := range strings.Split(text, ";") {
		stmt := strings.Join(strings.Fields(raw), " ")
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
