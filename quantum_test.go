package main

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ampTolerance = 1e-9

// reverseBits reverses the low n bits of x.
func reverseBits(x, n int) int {
	r := 0
	for range n {
		r = r<<1 | x&1
		x >>= 1
	}
	return r
}

// simulateCircuit runs c from |0...0> with the given worker count.
func simulateCircuit(t *testing.T, c *Circuit, workers int) *StateVector {
	t.Helper()
	s := NewStateVector(c.NumQubits).WithWorkers(workers)
	require.NoError(t, s.Simulate(context.Background(), c))
	return s
}

// preparedQFT returns a circuit that loads basis state a and then applies
// the QFT, optionally followed by the bit-reversal swaps.
func preparedQFT(t *testing.T, n, a int, swaps bool) *Circuit {
	t.Helper()
	c, err := NewCircuit(n)
	require.NoError(t, err)
	for q := range n {
		if a>>q&1 == 1 {
			c.AddGate(GateX, q)
		}
	}
	require.NoError(t, AppendQFT(c))
	if swaps {
		AppendBitReversal(c)
	}
	return c
}

func TestQFTOfZeroStateIsUniform(t *testing.T) {
	for _, swaps := range []bool{false, true} {
		for n := 1; n <= 6; n++ {
			c, err := BuildQFT(n)
			require.NoError(t, err)
			if swaps {
				AppendBitReversal(c)
			}
			s := simulateCircuit(t, c, 1)

			want := 1 / math.Sqrt(float64(int(1)<<n))
			for i, a := range s.Amplitudes {
				assert.InDelta(t, want, real(a), ampTolerance, "n=%d swaps=%v |%d>", n, swaps, i)
				assert.InDelta(t, 0, imag(a), ampTolerance, "n=%d swaps=%v |%d>", n, swaps, i)
			}
		}
	}
}

func TestQFTOfBasisStates(t *testing.T) {
	const n = 3
	size := 1 << n
	norm := 1 / math.Sqrt(float64(size))

	for _, swaps := range []bool{false, true} {
		for a := range size {
			t.Run(fmt.Sprintf("a=%d swaps=%v", a, swaps), func(t *testing.T) {
				s := simulateCircuit(t, preparedQFT(t, n, a, swaps), 1)

				x := reverseBits(a, n)
				for b, got := range s.Amplitudes {
					y := b
					if swaps {
						y = reverseBits(b, n)
					}
					want := cmplx.Exp(complex(0, 2*math.Pi*float64(x*y)/float64(size))) * complex(norm, 0)
					assert.InDelta(t, real(want), real(got), ampTolerance, "|%d> real", b)
					assert.InDelta(t, imag(want), imag(got), ampTolerance, "|%d> imag", b)
				}
			})
		}
	}
}

func TestParallelKernelsMatchSerial(t *testing.T) {
	// 13 qubits gives 4096 index pairs, enough to take the parallel path.
	c := preparedQFT(t, 13, 0b1011001110101, true)

	serial := simulateCircuit(t, c, 1)
	parallel := simulateCircuit(t, c, 4)
	assert.Equal(t, serial.Amplitudes, parallel.Amplitudes)
	assert.InDelta(t, 1.0, parallel.Norm(), 1e-9)
}

func TestSingleQubitGates(t *testing.T) {
	h := 1 / math.Sqrt2
	tests := []struct {
		name  string
		build func(c *Circuit)
		want  []Complex
	}{
		{"X", func(c *Circuit) { c.AddGate(GateX, 0) }, []Complex{0, 1}},
		{"Y", func(c *Circuit) { c.AddGate(GateY, 0) }, []Complex{0, 1i}},
		{"H", func(c *Circuit) { c.H(0) }, []Complex{complex(h, 0), complex(h, 0)}},
		{"HZ", func(c *Circuit) { c.H(0); c.AddGate(GateZ, 0) }, []Complex{complex(h, 0), complex(-h, 0)}},
		{"XS", func(c *Circuit) { c.AddGate(GateX, 0); c.AddGate(GateS, 0) }, []Complex{0, 1i}},
		{"XT", func(c *Circuit) { c.AddGate(GateX, 0); c.AddGate(GateT, 0) }, []Complex{0, cmplx.Exp(complex(0, math.Pi/4))}},
		{"XP", func(c *Circuit) {
			c.AddGate(GateX, 0)
			c.AddParameterizedGate(GateP, 0, []float64{math.Pi / 2})
		}, []Complex{0, 1i}},
		{"RX(pi)", func(c *Circuit) { c.AddParameterizedGate(GateRX, 0, []float64{math.Pi}) }, []Complex{0, -1i}},
		{"RY(pi)", func(c *Circuit) { c.AddParameterizedGate(GateRY, 0, []float64{math.Pi}) }, []Complex{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Circuit{NumQubits: 1}
			tt.build(c)
			s := simulateCircuit(t, c, 1)
			for i, want := range tt.want {
				assert.InDelta(t, real(want), real(s.Amplitudes[i]), ampTolerance)
				assert.InDelta(t, imag(want), imag(s.Amplitudes[i]), ampTolerance)
			}
		})
	}
}

func TestControlledGates(t *testing.T) {
	// |q1 q0> = |01>, CX(control 0, target 1) -> |11>
	c := &Circuit{NumQubits: 2}
	c.AddGate(GateX, 0)
	c.AddGate(GateCX, 1, 0)
	s := simulateCircuit(t, c, 1)
	assert.Equal(t, []Complex{0, 0, 0, 1}, s.Amplitudes)

	// control clear: CP does nothing
	c = &Circuit{NumQubits: 2}
	c.AddGate(GateX, 0)
	c.CP(math.Pi/2, 1, 0)
	s = simulateCircuit(t, c, 1)
	assert.Equal(t, []Complex{0, 1, 0, 0}, s.Amplitudes)

	// both set: CP multiplies by e^{i theta}, symmetric in its qubits
	for _, ctrl := range []int{0, 1} {
		c = &Circuit{NumQubits: 2}
		c.AddGate(GateX, 0)
		c.AddGate(GateX, 1)
		c.CP(math.Pi/2, ctrl, 1-ctrl)
		s = simulateCircuit(t, c, 1)
		assert.InDelta(t, 0, real(s.Amplitudes[3]), ampTolerance)
		assert.InDelta(t, 1, imag(s.Amplitudes[3]), ampTolerance)
	}
}

func TestSwapGate(t *testing.T) {
	c := &Circuit{NumQubits: 3}
	c.AddGate(GateX, 0)
	c.Swap(0, 2)
	s := simulateCircuit(t, c, 1)
	assert.Equal(t, Complex(1), s.Amplitudes[0b100])
	assert.InDelta(t, 1.0, s.Norm(), 1e-12)
}

func TestApplyGateErrors(t *testing.T) {
	s := NewStateVector(2)

	assert.ErrorIs(t, s.ApplyGate(Gate{Type: GateH, Target: 2, Control: -1}), ErrQubitOutOfRange)
	assert.ErrorIs(t, s.ApplyGate(Gate{Type: GateCP, Target: 1, Control: -1, Params: []float64{1}}), ErrInvalidArgument)
	assert.ErrorIs(t, s.ApplyGate(Gate{Type: GateSwap, Target: 1, Control: -1}), ErrInvalidArgument)
	assert.ErrorIs(t, s.ApplyGate(Gate{Type: "MEASURE", Target: 0, Control: -1}), ErrInvalidArgument)
	assert.ErrorIs(t, s.ApplyGate(Gate{Type: GateCX, Target: 1, Control: 1}), ErrInvalidArgument)
}

func TestSimulateStopsOnCancel(t *testing.T) {
	c, err := BuildQFT(4)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewStateVector(4).Simulate(ctx, c)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulateRejectsMismatchedRegister(t *testing.T) {
	c, err := BuildQFT(3)
	require.NoError(t, err)
	assert.ErrorIs(t, NewStateVector(2).Simulate(context.Background(), c), ErrInvalidArgument)
}

func TestMarginals(t *testing.T) {
	c := &Circuit{NumQubits: 2}
	c.H(0)
	c.AddGate(GateX, 1)
	marginals := simulateCircuit(t, c, 1).Marginals()

	require.Len(t, marginals, 2)
	assert.Equal(t, 1, marginals[1].Qubit)
	assert.InDelta(t, 0.5, marginals[0].P0, 1e-12)
	assert.InDelta(t, 0.5, marginals[0].P1, 1e-12)
	assert.InDelta(t, 0.0, marginals[1].P0, 1e-12)
	assert.InDelta(t, 1.0, marginals[1].P1, 1e-12)
}

func TestRoundAmplitudes(t *testing.T) {
	amps := []Complex{complex(0.12345, -0.00049), complex(1/math.Sqrt(8), 0.5)}

	rounded := RoundAmplitudes(amps, 3)
	assert.Equal(t, []Complex{complex(0.123, 0), complex(0.354, 0.5)}, rounded)
	assert.False(t, math.Signbit(imag(rounded[0])), "negative zero should be dropped")

	assert.Equal(t, rounded, RoundAmplitudes(rounded, 3), "rounding is idempotent")
	assert.Equal(t, amps, RoundAmplitudes(amps, -1))

	rounded[0] = 9
	assert.Equal(t, complex(0.12345, -0.00049), amps[0], "input must not be modified")
}

func TestZeroQubitState(t *testing.T) {
	s := NewStateVector(0)
	require.Len(t, s.Amplitudes, 1)
	c, err := BuildQFT(0)
	require.NoError(t, err)
	require.NoError(t, s.Simulate(context.Background(), c))
	assert.Equal(t, Complex(1), s.Amplitudes[0])
}
