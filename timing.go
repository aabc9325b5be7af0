package main

import (
	"fmt"
	"io"
	"time"
)

// BuildFunc builds a circuit over n qubits.
type BuildFunc func(n int) (*Circuit, error)

// TimeBuild runs build(n) between two monotonic clock reads and returns the
// circuit with the elapsed construction time. The measurement does not
// touch the circuit.
func TimeBuild(n int, build BuildFunc) (*Circuit, time.Duration, error) {
	start := time.Now()
	c, err := build(n)
	elapsed := time.Since(start)
	if err != nil {
		return nil, elapsed, err
	}
	return c, elapsed, nil
}

// Milliseconds converts d to fractional milliseconds.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// FormatElapsed renders d as "Elapsed: 1.23ms".
func FormatElapsed(d time.Duration) string {
	return fmt.Sprintf("Elapsed: %.2fms", Milliseconds(d))
}

// ReportElapsed writes the timing line for d to w.
func ReportElapsed(w io.Writer, d time.Duration) error {
	_, err := fmt.Fprintln(w, FormatElapsed(d))
	return err
}
