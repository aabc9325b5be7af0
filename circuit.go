package main

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Gate types understood by the circuit, QASM codec and simulator.
const (
	GateH    = "H"
	GateX    = "X"
	GateY    = "Y"
	GateZ    = "Z"
	GateS    = "S"
	GateSDG  = "SDG"
	GateT    = "T"
	GateTDG  = "TDG"
	GateRX   = "RX"
	GateRY   = "RY"
	GateRZ   = "RZ"
	GateP    = "P"
	GateCX   = "CX"
	GateCZ   = "CZ"
	GateCP   = "CP"
	GateSwap = "SWAP"
)

var (
	// ErrInvalidArgument is returned for negative qubit counts and other
	// malformed caller input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrQubitOutOfRange is returned when a gate references a qubit outside
	// the circuit's register.
	ErrQubitOutOfRange = errors.New("qubit out of range")
)

// Pre-compiled regexps for QASM parsing.
var (
	singleGateRegex      = regexp.MustCompile(`^(\w+)\s+q\[(\d+)\];?$`)
	singleGateParamRegex = regexp.MustCompile(`^(\w+)\s*\(\s*(` + paramPattern + `)\s*\)\s+q\[(\d+)\];?$`)
	twoQubitRegex        = regexp.MustCompile(`^(\w+)\s+q\[(\d+)\],\s*q\[(\d+)\];?$`)
	twoQubitParamRegex   = regexp.MustCompile(`^(\w+)\s*\(\s*(` + paramPattern + `)\s*\)\s+q\[(\d+)\],\s*q\[(\d+)\];?$`)
	qregRegex            = regexp.MustCompile(`^qreg\s+(\w+)\[(\d+)\];?$`)
)

// Gate is a single operation in a circuit.
type Gate struct {
	Type    string
	Target  int
	Control int       // -1 if not a controlled gate; second qubit for SWAP
	Params  []float64 // angle in radians for parameterized gates
}

// Qubits returns the qubit indices the gate acts on, control first.
func (g Gate) Qubits() []int {
	if g.Control >= 0 {
		return []int{g.Control, g.Target}
	}
	return []int{g.Target}
}

// Angle returns the first parameter, or 0 for unparameterized gates.
func (g Gate) Angle() float64 {
	if len(g.Params) == 0 {
		return 0
	}
	return g.Params[0]
}

// String renders the gate in a compact, human readable form.
func (g Gate) String() string {
	switch {
	case g.Type == GateSwap:
		return fmt.Sprintf("SWAP(%d, %d)", g.Control, g.Target)
	case g.Control >= 0 && len(g.Params) > 0:
		return fmt.Sprintf("%s(%s, control=%d, target=%d)", g.Type, formatParam(g.Angle()), g.Control, g.Target)
	case g.Control >= 0:
		return fmt.Sprintf("%s(control=%d, target=%d)", g.Type, g.Control, g.Target)
	case len(g.Params) > 0:
		return fmt.Sprintf("%s(%s, %d)", g.Type, formatParam(g.Angle()), g.Target)
	default:
		return fmt.Sprintf("%s(%d)", g.Type, g.Target)
	}
}

// Circuit is an append-only sequence of gates over a fixed register of
// NumQubits qubits, indexed 0..NumQubits-1.
type Circuit struct {
	NumQubits int
	Gates     []Gate
}

// NewCircuit allocates an empty circuit over n qubits.
func NewCircuit(n int) (*Circuit, error) {
	if n < 0 {
		return nil, fmt.Errorf("qubit count %d: %w", n, ErrInvalidArgument)
	}
	return &Circuit{NumQubits: n}, nil
}

// AddGate appends an unparameterized gate to the circuit.
func (c *Circuit) AddGate(gateType string, target int, control ...int) {
	ctrl := -1
	if len(control) > 0 {
		ctrl = control[0]
	}
	c.Gates = append(c.Gates, Gate{
		Type:    gateType,
		Target:  target,
		Control: ctrl,
	})
}

// AddParameterizedGate appends a parameterized gate to the circuit.
func (c *Circuit) AddParameterizedGate(gateType string, target int, params []float64, control ...int) {
	ctrl := -1
	if len(control) > 0 {
		ctrl = control[0]
	}
	c.Gates = append(c.Gates, Gate{
		Type:    gateType,
		Target:  target,
		Control: ctrl,
		Params:  params,
	})
}

// H appends a Hadamard on qubit q.
func (c *Circuit) H(q int) {
	c.AddGate(GateH, q)
}

// CP appends a controlled-phase rotation by theta radians.
func (c *Circuit) CP(theta float64, control, target int) {
	c.AddParameterizedGate(GateCP, target, []float64{theta}, control)
}

// Swap appends a SWAP between qubits a and b.
func (c *Circuit) Swap(a, b int) {
	c.AddGate(GateSwap, b, a)
}

// Len returns the number of gates in the circuit.
func (c *Circuit) Len() int {
	return len(c.Gates)
}

// Counts returns the number of gates of each type.
func (c *Circuit) Counts() map[string]int {
	counts := make(map[string]int)
	for _, g := range c.Gates {
		counts[g.Type]++
	}
	return counts
}

// Clone returns a deep copy of the circuit.
func (c *Circuit) Clone() *Circuit {
	gates := make([]Gate, len(c.Gates))
	for i, g := range c.Gates {
		if g.Params != nil {
			g.Params = append([]float64(nil), g.Params...)
		}
		gates[i] = g
	}
	return &Circuit{NumQubits: c.NumQubits, Gates: gates}
}

// Validate checks that every gate references qubits inside the register
// and that two-qubit gates use distinct qubits.
func (c *Circuit) Validate() error {
	if c.NumQubits < 0 {
		return fmt.Errorf("qubit count %d: %w", c.NumQubits, ErrInvalidArgument)
	}
	for i, g := range c.Gates {
		for _, q := range g.Qubits() {
			if q < 0 || q >= c.NumQubits {
				return fmt.Errorf("gate %d %s: qubit %d of %d: %w", i, g, q, c.NumQubits, ErrQubitOutOfRange)
			}
		}
		if g.Control >= 0 && g.Control == g.Target {
			return fmt.Errorf("gate %d %s: control equals target: %w", i, g, ErrInvalidArgument)
		}
	}
	return nil
}

// ToQASM generates QASM 2.0 output from the circuit.
func (c *Circuit) ToQASM() string {
	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n\n")
	fmt.Fprintf(&sb, "qreg q[%d];\n\n", max(c.NumQubits, 1))

	for _, gate := range c.Gates {
		gateType := strings.ToLower(gate.Type)
		switch {
		case gate.Type == GateSwap:
			fmt.Fprintf(&sb, "swap q[%d], q[%d];\n", gate.Control, gate.Target)
		case gate.Type == GateCP:
			// cu1 is the qelib1.inc spelling of the controlled phase
			fmt.Fprintf(&sb, "cu1(%s) q[%d], q[%d];\n", formatParam(gate.Angle()), gate.Control, gate.Target)
		case gate.Control >= 0:
			fmt.Fprintf(&sb, "%s q[%d], q[%d];\n", gateType, gate.Control, gate.Target)
		case gate.Type == GateSDG || gate.Type == GateTDG:
			fmt.Fprintf(&sb, "%s q[%d];\n", gateType, gate.Target)
		case len(gate.Params) > 0:
			if gate.Type == GateP {
				gateType = "u1"
			}
			fmt.Fprintf(&sb, "%s(%s) q[%d];\n", gateType, formatParam(gate.Angle()), gate.Target)
		default:
			fmt.Fprintf(&sb, "%s q[%d];\n", gateType, gate.Target)
		}
	}

	return sb.String()
}

// maxRegisterSize bounds qreg sizes and qubit indices read from QASM.
const maxRegisterSize = 1 << 16

// parseIndex converts a register size or qubit index matched on line lineNo.
func parseIndex(lineNo int, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n > maxRegisterSize {
		return 0, fmt.Errorf("line %d: index %s out of range: %w", lineNo, s, ErrInvalidArgument)
	}
	return n, nil
}

// ParseQASM parses QASM text into a new circuit. Only the subset of
// qelib1.inc emitted by ToQASM is accepted; anything else is an error
// naming the offending line.
func ParseQASM(qasm string) (*Circuit, error) {
	c := &Circuit{}

	for i, line := range strings.Split(qasm, "\n") {
		lineNo := i + 1
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "OPENQASM") ||
			strings.HasPrefix(line, "include") ||
			strings.HasPrefix(line, "creg") ||
			strings.HasPrefix(line, "barrier") {
			continue
		}
		if strings.HasPrefix(line, "qreg") {
			matches := qregRegex.FindStringSubmatch(line)
			if matches == nil {
				return nil, fmt.Errorf("line %d: malformed qreg %q: %w", lineNo, line, ErrInvalidArgument)
			}
			n, err := parseIndex(lineNo, matches[2])
			if err != nil {
				return nil, err
			}
			c.NumQubits = n
			continue
		}

		// Two-qubit parameterized gates: cu1, cp
		if matches := twoQubitParamRegex.FindStringSubmatch(line); matches != nil {
			gateType := strings.ToUpper(matches[1])
			param, ok := parseParamExpr(matches[2])
			if !ok {
				return nil, fmt.Errorf("line %d: bad parameter %q: %w", lineNo, matches[2], ErrInvalidArgument)
			}
			qubit1, err := parseIndex(lineNo, matches[3])
			if err != nil {
				return nil, err
			}
			qubit2, err := parseIndex(lineNo, matches[4])
			if err != nil {
				return nil, err
			}
			switch gateType {
			case "CU1", "CP":
				c.CP(param, qubit1, qubit2)
			default:
				return nil, fmt.Errorf("line %d: unsupported gate %q: %w", lineNo, matches[1], ErrInvalidArgument)
			}
			continue
		}

		// Two-qubit gates: cx, cz, swap
		if matches := twoQubitRegex.FindStringSubmatch(line); matches != nil {
			gateType := strings.ToUpper(matches[1])
			qubit1, err := parseIndex(lineNo, matches[2])
			if err != nil {
				return nil, err
			}
			qubit2, err := parseIndex(lineNo, matches[3])
			if err != nil {
				return nil, err
			}
			switch gateType {
			case GateCX, GateCZ:
				c.AddGate(gateType, qubit2, qubit1)
			case GateSwap:
				c.Swap(qubit1, qubit2)
			default:
				return nil, fmt.Errorf("line %d: unsupported gate %q: %w", lineNo, matches[1], ErrInvalidArgument)
			}
			continue
		}

		// Single-qubit parameterized gates: rx, ry, rz, p, u1
		if matches := singleGateParamRegex.FindStringSubmatch(line); matches != nil {
			gateType := strings.ToUpper(matches[1])
			param, ok := parseParamExpr(matches[2])
			if !ok {
				return nil, fmt.Errorf("line %d: bad parameter %q: %w", lineNo, matches[2], ErrInvalidArgument)
			}
			target, err := parseIndex(lineNo, matches[3])
			if err != nil {
				return nil, err
			}
			switch gateType {
			case GateRX, GateRY, GateRZ, GateP:
			case "U1":
				gateType = GateP
			default:
				return nil, fmt.Errorf("line %d: unsupported gate %q: %w", lineNo, matches[1], ErrInvalidArgument)
			}
			c.AddParameterizedGate(gateType, target, []float64{param})
			continue
		}

		if matches := singleGateRegex.FindStringSubmatch(line); matches != nil {
			gateType := strings.ToUpper(matches[1])
			target, err := parseIndex(lineNo, matches[2])
			if err != nil {
				return nil, err
			}
			switch gateType {
			case GateH, GateX, GateY, GateZ, GateS, GateSDG, GateT, GateTDG:
				c.AddGate(gateType, target)
			default:
				return nil, fmt.Errorf("line %d: unsupported gate %q: %w", lineNo, matches[1], ErrInvalidArgument)
			}
			continue
		}

		return nil, fmt.Errorf("line %d: cannot parse %q: %w", lineNo, line, ErrInvalidArgument)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
