package analysis

import (
	"fmt"

	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/ir"
)

// FirstLow presses sim until sink receives a low pulse and returns that
// press index, counted from the simulator's first press.
//
// It is the brute-force counterpart of Period and only practical when the
// answer is small. maxPresses below 1 means DefaultMaxPresses; a
// WithMaxPresses option takes precedence.
func FirstLow(sim *engine.Simulator, sink string, maxPresses int, opts ...Option) (int, error) {
	g := sim.Graph()
	sinkID, ok := g.ID(sink)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSink, sink)
	}
	if maxPresses > 0 {
		opts = append([]Option{WithMaxPresses(maxPresses)}, opts...)
	}
	cfg := newConfig(opts)

	hit := false
	observe := func(ev ir.Event) {
		if ev.To == sinkID && ev.Value == ir.Low {
			hit = true
		}
	}

	for i := 0; i < cfg.maxPresses; i++ {
		if err := cfg.ctx.Err(); err != nil {
			return 0, fmt.Errorf("probe interrupted after %d presses: %w", i, err)
		}
		if err := sim.Press(observe); err != nil {
			return 0, fmt.Errorf("probe: %w", err)
		}
		if hit {
			cfg.logger.Info("sink received low", "sink", sink, "press", sim.Presses())
			return sim.Presses(), nil
		}
	}
	return 0, &NonConvergenceError{MaxPresses: cfg.maxPresses, Missing: []string{sink}}
}
