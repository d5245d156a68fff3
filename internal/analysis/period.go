package analysis

import (
	"fmt"

	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/ir"
)

// FeederPeriod records when one feeder sent high to the gate.
// Second is 0 when verification was skipped.
type FeederPeriod struct {
	Name   string `json:"name"`
	First  int    `json:"first"`
	Second int    `json:"second,omitempty"`
}

// PeriodResult is the predicted first press at which the sink receives low.
type PeriodResult struct {
	Sink     string         `json:"sink"`
	Gate     string         `json:"gate"`
	Feeders  []FeederPeriod `json:"feeders"`
	Presses  int            `json:"presses"` // presses actually simulated
	LCM      uint64         `json:"lcm"`
	Verified bool           `json:"verified"`
}

// Gate returns the module gating sink. The sink must have exactly one input
// and that input must be a conjunction.
func Gate(g *engine.Graph, sink string) (ir.ModuleID, error) {
	sinkID, ok := g.ID(sink)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSink, sink)
	}

	inputs := g.Predecessors(sinkID)
	switch {
	case len(inputs) == 0:
		return 0, fmt.Errorf("%w: %q", ErrNoGate, sink)
	case len(inputs) > 1:
		names := make([]string, len(inputs))
		for i, id := range inputs {
			names[i] = g.Name(id)
		}
		return 0, fmt.Errorf("%w: %q has inputs %v", ErrAmbiguousGate, sink, names)
	case g.Kind(inputs[0]) != ir.KindConjunction:
		return 0, fmt.Errorf("%w: %q is fed by %s %q", ErrAmbiguousGate, sink, g.Kind(inputs[0]), g.Name(inputs[0]))
	}
	return inputs[0], nil
}

// Period predicts the first press at which sink receives a low pulse.
//
// The gate's feeders are its memory keys. Presses run from the simulator's
// current state; for each feeder the first press in which it sends high to
// the gate is recorded, and the result is the LCM of those press indices.
// Unless WithoutVerification is given, each feeder must also send high again
// at exactly twice its first index, otherwise NotPeriodicError is returned.
func Period(sim *engine.Simulator, sink string, opts ...Option) (PeriodResult, error) {
	cfg := newConfig(opts)
	g := sim.Graph()

	gate, err := Gate(g, sink)
	if err != nil {
		return PeriodResult{}, err
	}
	feederIDs := g.Predecessors(gate)
	if len(feederIDs) == 0 {
		return PeriodResult{}, fmt.Errorf("%w: %q", ErrNoFeeders, g.Name(gate))
	}

	hits := newFeederLog(g, gate, feederIDs)
	feeders := hits.feeders

	cfg.logger.Debug("period analysis started",
		"sink", sink,
		"gate", g.Name(gate),
		"feeders", len(feeders),
		"verify", cfg.verify)

	var press int
	observe := func(ev ir.Event) { hits.observe(press, ev) }

	for ran := 0; ; ran++ {
		done, err := settled(feeders, cfg.verify)
		if err != nil {
			return PeriodResult{}, err
		}
		if done {
			return finish(cfg, sink, g.Name(gate), feeders, ran)
		}
		if ran == cfg.maxPresses {
			return PeriodResult{}, &NonConvergenceError{
				MaxPresses: cfg.maxPresses,
				Missing:    missing(feeders, cfg.verify),
			}
		}
		if err := cfg.ctx.Err(); err != nil {
			return PeriodResult{}, fmt.Errorf("period interrupted after %d presses: %w", ran, err)
		}

		press = sim.Presses() + 1
		if err := sim.Press(observe); err != nil {
			return PeriodResult{}, fmt.Errorf("period: %w", err)
		}
	}
}

// feederLog records the presses in which each feeder sends high to the gate.
type feederLog struct {
	gate    ir.ModuleID
	slot    map[ir.ModuleID]int
	feeders []FeederPeriod
}

func newFeederLog(g *engine.Graph, gate ir.ModuleID, ids []ir.ModuleID) *feederLog {
	l := &feederLog{
		gate:    gate,
		slot:    make(map[ir.ModuleID]int, len(ids)),
		feeders: make([]FeederPeriod, len(ids)),
	}
	for i, id := range ids {
		l.slot[id] = i
		l.feeders[i].Name = g.Name(id)
	}
	return l
}

// observe ignores senders outside the feeder set. Such an event can only be
// injected, and delivering it fails the press anyway.
func (l *feederLog) observe(press int, ev ir.Event) {
	if ev.To != l.gate || ev.Value != ir.High {
		return
	}
	i, ok := l.slot[ev.From]
	if !ok {
		return
	}
	f := &l.feeders[i]
	switch {
	case f.First == 0:
		f.First = press
	case f.Second == 0 && f.First != press:
		f.Second = press
	}
}

// settled reports whether every feeder has been observed enough times, and
// fails as soon as a verified feeder proves non-periodic.
func settled(feeders []FeederPeriod, verify bool) (bool, error) {
	done := true
	for _, f := range feeders {
		if f.First == 0 {
			done = false
			continue
		}
		if !verify {
			continue
		}
		if f.Second == 0 {
			done = false
			continue
		}
		if f.Second != 2*f.First {
			return false, &NotPeriodicError{Feeder: f.Name, First: f.First, Second: f.Second}
		}
	}
	return done, nil
}

func missing(feeders []FeederPeriod, verify bool) []string {
	var names []string
	for _, f := range feeders {
		if f.First == 0 || (verify && f.Second == 0) {
			names = append(names, f.Name)
		}
	}
	return names
}

func finish(cfg *config, sink, gate string, feeders []FeederPeriod, presses int) (PeriodResult, error) {
	firsts := make([]uint64, len(feeders))
	for i, f := range feeders {
		firsts[i] = uint64(f.First)
	}
	lcm, err := LCM(firsts...)
	if err != nil {
		return PeriodResult{}, err
	}

	res := PeriodResult{
		Sink:     sink,
		Gate:     gate,
		Feeders:  feeders,
		Presses:  presses,
		LCM:      lcm,
		Verified: cfg.verify,
	}
	cfg.logger.Info("period found",
		"sink", sink,
		"gate", gate,
		"presses", presses,
		"lcm", lcm)
	return res, nil
}
