package main

import (
	"cmp"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Report summarises a run for later comparison.
type Report struct {
	Qubits       int            `yaml:"qubits"`
	Swaps        bool           `yaml:"swaps"`
	Gates        map[string]int `yaml:"gates"`
	TotalGates   int            `yaml:"total_gates"`
	Depth        int            `yaml:"depth"`
	BuildMS      float64        `yaml:"build_ms"`
	SimulationMS float64        `yaml:"simulation_ms"`
	Decimals     int            `yaml:"decimals"`
	Norm         float64        `yaml:"norm"`
	TopStates    []StateEntry   `yaml:"top_states"`

	QubitMarginals []QubitMarginal `yaml:"qubit_marginals"`
}

// StateEntry is one basis state of the final state vector.
type StateEntry struct {
	Basis       string  `yaml:"basis"`
	Real        float64 `yaml:"real"`
	Imag        float64 `yaml:"imag"`
	Probability float64 `yaml:"probability"`
}

// NewReport builds a report from a finished run. TopStates holds the most
// probable basis states, ties broken by basis index.
func NewReport(cfg Config, o *Outcome) *Report {
	amps := o.Result.StateVector(cfg.Decimals)
	probs := o.Result.Probabilities()

	norm := 0.0
	order := make([]int, len(probs))
	for i, p := range probs {
		norm += p
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(probs[b], probs[a])
	})

	top := make([]StateEntry, 0, min(stateRows, len(order)))
	for _, i := range order[:min(stateRows, len(order))] {
		top = append(top, StateEntry{
			Basis:       fmt.Sprintf("%0*b", max(o.Circuit.NumQubits, 1), i),
			Real:        real(amps[i]),
			Imag:        imag(amps[i]),
			Probability: probs[i],
		})
	}

	return &Report{
		Qubits:       o.Circuit.NumQubits,
		Swaps:        cfg.Swaps,
		Gates:        o.Circuit.Counts(),
		TotalGates:   o.Circuit.Len(),
		Depth:        o.Circuit.Depth(),
		BuildMS:      Milliseconds(o.Elapsed),
		SimulationMS: Milliseconds(o.Result.Duration),
		Decimals:     cfg.Decimals,
		Norm:         norm,
		TopStates:    top,

		QubitMarginals: o.Result.Marginals(),
	}
}

// WriteReport writes r to path as yaml.
func WriteReport(path string, r *Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
