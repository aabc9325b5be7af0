package main

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"runtime"

	"golang.org/x/sync/errgroup"
)

type Complex = complex128

// parallelThreshold is the smallest number of index pairs worth fanning out
// across goroutines; below it the kernel runs inline.
const parallelThreshold = 1 << 12

// unitary2 is a 2x2 gate matrix in row-major order.
type unitary2 [4]Complex

type StateVector struct {
	Amplitudes []Complex
	NumQubits  int

	workers int
}

// NewStateVector returns |0...0> over numQubits qubits.
func NewStateVector(numQubits int) *StateVector {
	n := 1 << numQubits
	amps := make([]Complex, n)
	amps[0] = 1
	return &StateVector{Amplitudes: amps, NumQubits: numQubits, workers: 1}
}

// WithWorkers sets how many goroutines a single gate application may use.
// Values below 1 select GOMAXPROCS.
func (s *StateVector) WithWorkers(workers int) *StateVector {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	s.workers = workers
	return s
}

// Simulate applies every gate of c in order, checking ctx between gates.
func (s *StateVector) Simulate(ctx context.Context, c *Circuit) error {
	if c.NumQubits != s.NumQubits {
		return fmt.Errorf("circuit has %d qubits, state has %d: %w", c.NumQubits, s.NumQubits, ErrInvalidArgument)
	}
	for i, g := range c.Gates {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("simulation stopped at gate %d: %w", i, err)
		}
		if err := s.ApplyGate(g); err != nil {
			return fmt.Errorf("gate %d: %w", i, err)
		}
	}
	return nil
}

// ApplyGate applies a single gate to the state.
func (s *StateVector) ApplyGate(g Gate) error {
	for _, q := range g.Qubits() {
		if q < 0 || q >= s.NumQubits {
			return fmt.Errorf("%s: qubit %d of %d: %w", g, q, s.NumQubits, ErrQubitOutOfRange)
		}
	}

	switch g.Type {
	case GateSwap:
		if g.Control < 0 {
			return fmt.Errorf("%s: swap needs two qubits: %w", g, ErrInvalidArgument)
		}
		s.applySWAP(g.Control, g.Target)
		return nil
	case GateCX, GateCZ, GateCP:
		if g.Control < 0 {
			return fmt.Errorf("%s: missing control qubit: %w", g, ErrInvalidArgument)
		}
	}

	u, ok := gateUnitary(g)
	if !ok {
		return fmt.Errorf("unsupported gate %q: %w", g.Type, ErrInvalidArgument)
	}
	if g.Control == g.Target {
		return fmt.Errorf("%s: control equals target: %w", g, ErrInvalidArgument)
	}
	s.apply(u, g.Target, g.Control)
	return nil
}

// gateUnitary returns the single-qubit matrix a gate applies to its target.
// Controlled gates return the matrix applied when the control is set.
func gateUnitary(g Gate) (unitary2, bool) {
	theta := g.Angle()
	switch g.Type {
	case GateH:
		h := Complex(complex(1.0/math.Sqrt2, 0))
		return unitary2{h, h, h, -h}, true
	case GateX, GateCX:
		return unitary2{0, 1, 1, 0}, true
	case GateY:
		return unitary2{0, -1i, 1i, 0}, true
	case GateZ, GateCZ:
		return unitary2{1, 0, 0, -1}, true
	case GateS:
		return unitary2{1, 0, 0, 1i}, true
	case GateSDG:
		return unitary2{1, 0, 0, -1i}, true
	case GateT:
		return unitary2{1, 0, 0, cmplx.Exp(complex(0, math.Pi/4))}, true
	case GateTDG:
		return unitary2{1, 0, 0, cmplx.Exp(complex(0, -math.Pi/4))}, true
	case GateRX:
		c := complex(math.Cos(theta/2), 0)
		js := complex(0, -math.Sin(theta/2))
		return unitary2{c, js, js, c}, true
	case GateRY:
		c := complex(math.Cos(theta/2), 0)
		sn := complex(math.Sin(theta/2), 0)
		return unitary2{c, -sn, sn, c}, true
	case GateRZ:
		return unitary2{cmplx.Exp(complex(0, -theta/2)), 0, 0, cmplx.Exp(complex(0, theta/2))}, true
	case GateP, GateCP:
		return unitary2{1, 0, 0, cmplx.Exp(complex(0, theta))}, true
	}
	return unitary2{}, false
}

// apply runs u over every amplitude pair that differs only in the target
// bit. With control >= 0, pairs whose control bit is clear are skipped.
// Pairs are disjoint, so chunks of the pair index range run concurrently.
func (s *StateVector) apply(u unitary2, target, control int) {
	amps := s.Amplitudes
	tBit := 1 << target
	cBit := 0
	if control >= 0 {
		cBit = 1 << control
	}
	low := tBit - 1

	s.parallel(len(amps)>>1, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			zero := (i & low) | ((i &^ low) << 1)
			if cBit != 0 && zero&cBit == 0 {
				continue
			}
			one := zero | tBit
			a0, a1 := amps[zero], amps[one]
			amps[zero] = u[0]*a0 + u[1]*a1
			amps[one] = u[2]*a0 + u[3]*a1
		}
	})
}

func (s *StateVector) applySWAP(q1, q2 int) {
	amps := s.Amplitudes
	bit1 := 1 << q1
	bit2 := 1 << q2
	s.parallel(len(amps), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if i&bit1 != 0 && i&bit2 == 0 {
				j := (i &^ bit1) | bit2
				amps[i], amps[j] = amps[j], amps[i]
			}
		}
	})
}

// parallel splits [0, total) into one chunk per worker.
func (s *StateVector) parallel(total int, fn func(lo, hi int)) {
	workers := s.workers
	if workers <= 1 || total < parallelThreshold {
		fn(0, total)
		return
	}

	var g errgroup.Group
	g.SetLimit(workers)
	chunk := (total + workers - 1) / workers
	for lo := 0; lo < total; lo += chunk {
		hi := min(lo+chunk, total)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

// Probabilities returns |amplitude|^2 for every basis state.
func (s *StateVector) Probabilities() []float64 {
	probs := make([]float64, len(s.Amplitudes))
	for i, amp := range s.Amplitudes {
		probs[i] = real(amp * cmplx.Conj(amp))
	}
	return probs
}

// Norm returns the sum of all basis-state probabilities.
func (s *StateVector) Norm() float64 {
	total := 0.0
	for _, p := range s.Probabilities() {
		total += p
	}
	return total
}

// QubitMarginal is the probability of reading one qubit as 0 or 1 when it is
// measured on its own.
type QubitMarginal struct {
	Qubit int     `yaml:"qubit"`
	P0    float64 `yaml:"p0"`
	P1    float64 `yaml:"p1"`
}

// Marginals returns the per-qubit measurement probabilities, qubit 0 first.
func (s *StateVector) Marginals() []QubitMarginal {
	out := make([]QubitMarginal, s.NumQubits)
	for q := range out {
		out[q].Qubit = q
	}
	for i, p := range s.Probabilities() {
		for q := range out {
			if i>>q&1 == 1 {
				out[q].P1 += p
			} else {
				out[q].P0 += p
			}
		}
	}
	return out
}

// RoundAmplitudes returns a copy of amps with real and imaginary parts
// rounded to the given number of decimals. A negative count returns an
// unrounded copy.
func RoundAmplitudes(amps []Complex, decimals int) []Complex {
	out := make([]Complex, len(amps))
	if decimals < 0 {
		copy(out, amps)
		return out
	}
	scale := math.Pow(10, float64(decimals))
	for i, a := range amps {
		out[i] = complex(roundTo(real(a), scale), roundTo(imag(a), scale))
	}
	return out
}

func roundTo(x, scale float64) float64 {
	r := math.Round(x*scale) / scale
	if r == 0 {
		// drop negative zero so "-0.000" never shows up in output
		return 0
	}
	return r
}
