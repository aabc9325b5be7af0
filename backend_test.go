package main

import (
	"context"
	"io"
	"math"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T, workers, maxQubits int) *StatevectorBackend {
	t.Helper()
	b := NewStatevectorBackend(log.New(io.Discard), workers, maxQubits)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBackendSubmitAndResult(t *testing.T) {
	b := newTestBackend(t, 2, 10)
	c, err := BuildQFT(3)
	require.NoError(t, err)

	job, err := b.Submit(context.Background(), c)
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)

	result, err := job.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, job.ID, result.JobID)
	assert.Equal(t, 3, result.NumQubits)
	assert.GreaterOrEqual(t, result.Duration, time.Duration(0))

	amps := result.StateVector(3)
	require.Len(t, amps, 8)
	for _, a := range amps {
		assert.Equal(t, complex(0.354, 0), a)
	}

	raw := result.StateVector(-1)
	assert.InDelta(t, 1/math.Sqrt(8), real(raw[0]), 1e-12)

	sum := 0.0
	for _, p := range result.Probabilities() {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	marginals := result.Marginals()
	require.Len(t, marginals, 3)
	for q, m := range marginals {
		assert.Equal(t, q, m.Qubit)
		assert.InDelta(t, 0.5, m.P0, 1e-12)
		assert.InDelta(t, 0.5, m.P1, 1e-12)
	}
}

func TestBackendJobIDsAreUnique(t *testing.T) {
	b := newTestBackend(t, 1, 10)
	c, err := BuildQFT(2)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for range 5 {
		job, err := b.Submit(context.Background(), c)
		require.NoError(t, err)
		assert.False(t, seen[job.ID], "duplicate job id %s", job.ID)
		seen[job.ID] = true
		<-job.Done()
	}
}

func TestBackendSimulatesPrivateCopy(t *testing.T) {
	b := newTestBackend(t, 1, 10)
	c, err := BuildQFT(2)
	require.NoError(t, err)

	job, err := b.Submit(context.Background(), c)
	require.NoError(t, err)
	c.AddGate(GateX, 0)

	result, err := job.Result(context.Background())
	require.NoError(t, err)
	for _, a := range result.StateVector(6) {
		assert.Equal(t, complex(0.5, 0), a)
	}
}

func TestBackendRejectsTooManyQubits(t *testing.T) {
	b := newTestBackend(t, 1, 4)
	c, err := BuildQFT(5)
	require.NoError(t, err)

	_, err = b.Submit(context.Background(), c)
	assert.ErrorIs(t, err, ErrTooManyQubits)
}

func TestBackendDefaultLimit(t *testing.T) {
	b := newTestBackend(t, 1, 0)
	assert.Equal(t, defaultMaxQubits, b.maxQubits)
}

func TestBackendClampsLimitToSimulatorCap(t *testing.T) {
	b := newTestBackend(t, 1, 63)
	assert.Equal(t, simulatorQubitCap, b.maxQubits)

	c, err := BuildQFT(63)
	require.NoError(t, err)
	_, err = b.Submit(context.Background(), c)
	assert.ErrorIs(t, err, ErrTooManyQubits)
}

func TestBackendRejectsInvalidCircuit(t *testing.T) {
	b := newTestBackend(t, 1, 4)
	c := &Circuit{NumQubits: 2}
	c.H(3)

	_, err := b.Submit(context.Background(), c)
	assert.ErrorIs(t, err, ErrQubitOutOfRange)
}

func TestBackendClosed(t *testing.T) {
	b := NewStatevectorBackend(log.New(io.Discard), 1, 4)
	require.NoError(t, b.Close())

	c, err := BuildQFT(2)
	require.NoError(t, err)
	_, err = b.Submit(context.Background(), c)
	assert.ErrorIs(t, err, ErrBackendClosed)
}

func TestBackendCancelledSubmission(t *testing.T) {
	b := newTestBackend(t, 1, 10)
	c, err := BuildQFT(3)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job, err := b.Submit(ctx, c)
	require.NoError(t, err)

	_, err = job.Result(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJobResultHonoursWaitContext(t *testing.T) {
	job := newJob("job-x")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := job.Result(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
