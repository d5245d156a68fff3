package engine

import (
	"fmt"

	"github.com/roach88/pulsenet/internal/ir"
)

// Record presses sim n times and returns the named trace, stamped by a
// fresh clock. Press indices continue from sim.Presses().
func Record(sim *Simulator, presses int) ([]ir.TraceEvent, error) {
	return RecordWithClock(sim, presses, NewClock())
}

// RecordWithClock is Record with a caller-supplied clock, so a run can be
// extended without restarting seq numbering.
func RecordWithClock(sim *Simulator, presses int, clock *Clock) ([]ir.TraceEvent, error) {
	if presses < 0 {
		return nil, fmt.Errorf("presses must be non-negative, got %d", presses)
	}

	trace := make([]ir.TraceEvent, 0)
	g := sim.Graph()
	for i := 0; i < presses; i++ {
		press := sim.Presses() + 1
		err := sim.Press(func(ev ir.Event) {
			trace = append(trace, ir.TraceEvent{
				Seq:   clock.Next(),
				Press: press,
				From:  g.Name(ev.From),
				To:    g.Name(ev.To),
				Value: ev.Value,
			})
		})
		if err != nil {
			return trace, err
		}
	}
	return trace, nil
}

// ReplayResult is the outcome of re-simulating a stored run.
type ReplayResult struct {
	Presses      int
	Events       int
	ExpectedHash string
	ActualHash   string
}

// Match reports whether the re-simulated trace hashes identically.
func (r ReplayResult) Match() bool {
	return r.ExpectedHash == r.ActualHash
}

// Replay rebuilds a graph from rules, re-simulates presses on fresh state
// and hashes the resulting trace. The simulation is deterministic, so a
// stored run replays to the same hash unless the engine's semantics changed.
func Replay(rules []ir.Rule, presses int, expectedHash string, opts ...Option) (ReplayResult, error) {
	g, err := Build(rules)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("rebuild network: %w", err)
	}
	trace, err := Record(NewSimulator(g, opts...), presses)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("re-simulate: %w", err)
	}
	hash, err := ir.TraceHash(trace)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("hash trace: %w", err)
	}
	return ReplayResult{
		Presses:      presses,
		Events:       len(trace),
		ExpectedHash: expectedHash,
		ActualHash:   hash,
	}, nil
}
