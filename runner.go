package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Outcome is everything one QFT run produced.
type Outcome struct {
	Circuit *Circuit
	Elapsed time.Duration // circuit construction only
	Result  *Result
}

// buildCircuit times BuildQFT and, when swaps is set, appends the
// bit-reversal pass outside the timed region.
func buildCircuit(n int, swaps bool) (*Circuit, time.Duration, error) {
	c, elapsed, err := TimeBuild(n, BuildQFT)
	if err != nil {
		return nil, elapsed, err
	}
	if swaps {
		AppendBitReversal(c)
	}
	return c, elapsed, nil
}

// loadCircuit reads a QASM file and times parsing it. When swaps is set the
// bit-reversal pass is appended after the timed region.
func loadCircuit(path string, swaps bool) (*Circuit, time.Duration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read qasm: %w", err)
	}
	c, elapsed, err := TimeBuild(0, func(int) (*Circuit, error) {
		return ParseQASM(string(data))
	})
	if err != nil {
		return nil, elapsed, fmt.Errorf("%s: %w", path, err)
	}
	if swaps {
		AppendBitReversal(c)
	}
	return c, elapsed, nil
}

// simulate submits c and waits for its result. Backend errors are returned
// unchanged apart from added context.
func simulate(ctx context.Context, backend Backend, c *Circuit) (*Result, error) {
	job, err := backend.Submit(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	result, err := job.Result(ctx)
	if err != nil {
		return nil, fmt.Errorf("result: %w", err)
	}
	return result, nil
}

// runQFT builds and simulates an n-qubit QFT in one step.
func runQFT(ctx context.Context, backend Backend, n int, swaps bool) (*Outcome, error) {
	c, elapsed, err := buildCircuit(n, swaps)
	if err != nil {
		return nil, err
	}
	result, err := simulate(ctx, backend, c)
	if err != nil {
		return nil, err
	}
	return &Outcome{Circuit: c, Elapsed: elapsed, Result: result}, nil
}

// Runner drives a single command-line run.
type Runner struct {
	out     io.Writer
	logger  *log.Logger
	backend Backend
}

func NewRunner(out io.Writer, logger *log.Logger, backend Backend) *Runner {
	return &Runner{out: out, logger: logger, backend: backend}
}

// Run builds (or loads) the circuit, prints the timing line, simulates it
// and emits whatever optional output cfg asks for.
func (r *Runner) Run(ctx context.Context, cfg Config) error {
	var (
		c       *Circuit
		elapsed time.Duration
		err     error
	)
	if cfg.QASMIn != "" {
		c, elapsed, err = loadCircuit(cfg.QASMIn, cfg.Swaps)
	} else {
		c, elapsed, err = buildCircuit(cfg.Qubits, cfg.Swaps)
	}
	if err != nil {
		return err
	}
	if err := ReportElapsed(r.out, elapsed); err != nil {
		return err
	}
	r.logger.Info("circuit ready", "qubits", c.NumQubits, "gates", c.Len(), "swaps", cfg.Swaps, "source", cmp.Or(cfg.QASMIn, "qft"))

	if cfg.QASMOut != "" {
		if err := os.WriteFile(cfg.QASMOut, []byte(c.ToQASM()), 0o644); err != nil {
			return fmt.Errorf("write qasm: %w", err)
		}
		r.logger.Info("qasm written", "path", cfg.QASMOut)
	}
	if cfg.Draw {
		fmt.Fprintln(r.out, renderCircuit(c, 0))
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	result, err := simulate(ctx, r.backend, c)
	if err != nil {
		return err
	}
	r.logger.Info("simulation finished", "job", result.JobID, "elapsed", result.Duration)

	amps := result.StateVector(cfg.Decimals)
	if cfg.ShowState {
		if err := writeStateVector(r.out, amps, c.NumQubits, cfg.Decimals); err != nil {
			return err
		}
	}
	if cfg.Plot {
		fmt.Fprintln(r.out, plotState(amps, c.NumQubits, cfg.Decimals, stateRows))
	}

	if cfg.ReportOut != "" {
		report := NewReport(cfg, &Outcome{Circuit: c, Elapsed: elapsed, Result: result})
		if err := WriteReport(cfg.ReportOut, report); err != nil {
			return err
		}
		r.logger.Info("report written", "path", cfg.ReportOut)
	}
	return nil
}
