package main

// Layers groups gate indices into time steps: each gate lands in the
// earliest step after the last gate touching any of its qubits, so gates in
// one step act on disjoint qubits. Order within a step follows the circuit.
func (c *Circuit) Layers() [][]int {
	return c.schedule(Gate.Qubits)
}

// Depth returns the number of time steps in the circuit.
func (c *Circuit) Depth() int {
	return len(c.Layers())
}

// drawLayers is Layers with two-qubit gates also blocking every wire they
// cross, so each step can be drawn as one column.
func (c *Circuit) drawLayers() [][]int {
	return c.schedule(Gate.span)
}

// span returns every qubit between the gate's lowest and highest qubit.
func (g Gate) span() []int {
	lo, hi := g.Target, g.Target
	if g.Control >= 0 {
		lo, hi = min(g.Control, g.Target), max(g.Control, g.Target)
	}
	qubits := make([]int, 0, hi-lo+1)
	for q := lo; q <= hi; q++ {
		qubits = append(qubits, q)
	}
	return qubits
}

func (c *Circuit) schedule(occupies func(Gate) []int) [][]int {
	frontier := make(map[int]int) // qubit -> first free step
	var layers [][]int
	for i, g := range c.Gates {
		qubits := occupies(g)
		step := 0
		for _, q := range qubits {
			step = max(step, frontier[q])
		}
		for len(layers) <= step {
			layers = append(layers, nil)
		}
		layers[step] = append(layers[step], i)
		for _, q := range qubits {
			frontier[q] = step + 1
		}
	}
	return layers
}
