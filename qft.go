package main

import (
	"fmt"
	"math"
)

// phaseAngle returns pi / 2^k. The divisor is an exact power of two, so the
// result carries no rounding beyond that of math.Pi itself.
func phaseAngle(k int) float64 {
	return math.Pi / float64(uint64(1)<<k)
}

// BuildQFT returns the Quantum Fourier Transform circuit over n qubits.
//
// Gates are emitted qubit by qubit in ascending order: for qubit j, the
// controlled-phase rotations CP(pi/2^(j-k), control=j, target=k) for
// k = 0..j-1, then H(j). The circuit leaves the output in bit-reversed
// order; use AppendBitReversal for natural ordering.
//
// n == 0 yields an empty circuit. A negative n is rejected with
// ErrInvalidArgument.
func BuildQFT(n int) (*Circuit, error) {
	c, err := NewCircuit(n)
	if err != nil {
		return nil, err
	}
	if err := AppendQFT(c); err != nil {
		return nil, err
	}
	return c, nil
}

// AppendQFT appends the QFT gate pattern over all of c's qubits. It lets a
// caller prepare an input state before the transform.
func AppendQFT(c *Circuit) error {
	n := c.NumQubits
	if n < 0 {
		return fmt.Errorf("qubit count %d: %w", n, ErrInvalidArgument)
	}
	if n > maxPiPower+1 {
		return fmt.Errorf("qubit count %d exceeds %d: %w", n, maxPiPower+1, ErrInvalidArgument)
	}
	for j := range n {
		for k := range j {
			c.CP(phaseAngle(j-k), j, k)
		}
		c.H(j)
	}
	return nil
}

// AppendBitReversal appends SWAP(i, n-1-i) for i in 0..n/2-1, turning the
// QFT's bit-reversed output into natural order.
func AppendBitReversal(c *Circuit) {
	n := c.NumQubits
	for i := range n / 2 {
		c.Swap(i, n-1-i)
	}
}

// QFTGateCount returns the number of gates BuildQFT emits for n qubits.
func QFTGateCount(n int) int {
	if n <= 0 {
		return 0
	}
	return n * (n + 1) / 2
}
