package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// simulatorQubitCap is the widest register the state-vector backend will
// allocate: 2^30 amplitudes take 16 GiB.
const simulatorQubitCap = 30

var (
	// ErrTooManyQubits is returned by Submit when a circuit's register would
	// not fit the backend's state-vector limit.
	ErrTooManyQubits = errors.New("too many qubits")

	// ErrBackendClosed is returned by Submit after Close.
	ErrBackendClosed = errors.New("backend closed")
)

// Backend runs circuits and hands back their final state.
type Backend interface {
	Submit(ctx context.Context, circuit *Circuit) (*Job, error)
}

// Job is a submitted simulation.
type Job struct {
	ID string

	done   chan struct{}
	result *Result
	err    error
}

func newJob(id string) *Job {
	return &Job{ID: id, done: make(chan struct{})}
}

func (j *Job) finish(result *Result, err error) {
	j.result = result
	j.err = err
	close(j.done)
}

// Done is closed once the job has a result or an error.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Result blocks until the simulation completes or ctx is done.
func (j *Job) Result(ctx context.Context) (*Result, error) {
	select {
	case <-j.done:
		return j.result, j.err
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for job %s: %w", j.ID, ctx.Err())
	}
}

// Result is the outcome of a finished job.
type Result struct {
	JobID     string
	NumQubits int
	Duration  time.Duration

	state *StateVector
}

// StateVector returns the final amplitudes rounded to decimals places.
// A negative decimals returns them unrounded.
func (r *Result) StateVector(decimals int) []Complex {
	return RoundAmplitudes(r.state.Amplitudes, decimals)
}

// Probabilities returns the basis-state probabilities of the final state.
func (r *Result) Probabilities() []float64 {
	return r.state.Probabilities()
}

// Marginals returns the per-qubit measurement probabilities of the final state.
func (r *Result) Marginals() []QubitMarginal {
	return r.state.Marginals()
}

// StatevectorBackend simulates circuits in memory, one goroutine per job.
type StatevectorBackend struct {
	logger    *log.Logger
	workers   int
	maxQubits int

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	nextID atomic.Uint64
}

// NewStatevectorBackend returns a backend whose gate kernels use up to
// workers goroutines and which refuses registers wider than maxQubits.
// maxQubits is clamped to simulatorQubitCap.
func NewStatevectorBackend(logger *log.Logger, workers, maxQubits int) *StatevectorBackend {
	if maxQubits <= 0 {
		maxQubits = defaultMaxQubits
	}
	maxQubits = min(maxQubits, simulatorQubitCap)
	return &StatevectorBackend{
		logger:    logger.WithPrefix("statevector"),
		workers:   workers,
		maxQubits: maxQubits,
	}
}

// Submit validates the circuit and starts simulating a private copy of it.
// The job stops early if ctx is cancelled.
func (b *StatevectorBackend) Submit(ctx context.Context, circuit *Circuit) (*Job, error) {
	if circuit.NumQubits > b.maxQubits {
		return nil, fmt.Errorf("circuit needs %d qubits, backend allows %d: %w", circuit.NumQubits, b.maxQubits, ErrTooManyQubits)
	}
	if err := circuit.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBackendClosed
	}

	job := newJob(fmt.Sprintf("job-%d", b.nextID.Add(1)))
	c := circuit.Clone()
	b.logger.Debug("job submitted", "job", job.ID, "qubits", c.NumQubits, "gates", c.Len())

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		job.finish(b.run(ctx, job.ID, c))
	}()
	return job, nil
}

func (b *StatevectorBackend) run(ctx context.Context, id string, c *Circuit) (*Result, error) {
	start := time.Now()
	state := NewStateVector(c.NumQubits).WithWorkers(b.workers)
	if err := state.Simulate(ctx, c); err != nil {
		b.logger.Error("job failed", "job", id, "err", err)
		return nil, fmt.Errorf("job %s: %w", id, err)
	}
	elapsed := time.Since(start)
	b.logger.Debug("job finished", "job", id, "elapsed", elapsed)
	return &Result{
		JobID:     id,
		NumQubits: c.NumQubits,
		Duration:  elapsed,
		state:     state,
	}, nil
}

// Close rejects further submissions and waits for running jobs.
func (b *StatevectorBackend) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
	return nil
}
