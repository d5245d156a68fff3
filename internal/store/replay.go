package store

import (
	"context"
	"fmt"

	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/ir"
)

// ReplayReport compares a stored run with a fresh re-simulation.
type ReplayReport struct {
	RunID string `json:"run_id"`

	// StoredIntact is true when the stored events still hash to the stored
	// trace hash.
	StoredIntact bool `json:"stored_intact"`

	// Deterministic is true when re-simulating the stored rules reproduces
	// the stored trace hash.
	Deterministic bool `json:"deterministic"`

	Presses      int    `json:"presses"`
	Events       int    `json:"events"`
	ExpectedHash string `json:"expected_hash"`
	ActualHash   string `json:"actual_hash"`
}

// OK reports whether the run is intact and replays identically.
func (r ReplayReport) OK() bool {
	return r.StoredIntact && r.Deterministic
}

// ReplayRun rebuilds the run's network from its stored rules, presses it the
// stored number of times and compares trace hashes. It also re-hashes the
// stored events, so a tampered or truncated log is reported separately from
// a change in simulation behavior.
func (s *Store) ReplayRun(ctx context.Context, runID string, opts ...engine.Option) (ReplayReport, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return ReplayReport{}, fmt.Errorf("replay: %w", err)
	}
	stored, err := s.ReadEvents(ctx, runID)
	if err != nil {
		return ReplayReport{}, fmt.Errorf("replay: %w", err)
	}
	storedHash, err := ir.TraceHash(stored)
	if err != nil {
		return ReplayReport{}, fmt.Errorf("replay: %w", err)
	}

	result, err := engine.Replay(run.Rules, run.Presses, run.TraceHash, opts...)
	if err != nil {
		return ReplayReport{}, fmt.Errorf("replay run %s: %w", runID, err)
	}

	return ReplayReport{
		RunID:         runID,
		StoredIntact:  storedHash == run.TraceHash,
		Deterministic: result.Match(),
		Presses:       run.Presses,
		Events:        result.Events,
		ExpectedHash:  run.TraceHash,
		ActualHash:    result.ActualHash,
	}, nil
}
