package analysis

import (
	"fmt"

	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/ir"
)

// TallyResult counts every pulse delivered over a run of presses,
// the button's own pulse included.
type TallyResult struct {
	Presses int   `json:"presses"`
	Low     int64 `json:"low"`
	High    int64 `json:"high"`
	Product int64 `json:"product"`
}

// Tally presses sim n times and counts low and high pulses.
func Tally(sim *engine.Simulator, n int, opts ...Option) (TallyResult, error) {
	if n < 0 {
		return TallyResult{}, fmt.Errorf("presses must be non-negative, got %d", n)
	}
	cfg := newConfig(opts)

	var res TallyResult
	count := func(ev ir.Event) {
		if ev.Value == ir.High {
			res.High++
		} else {
			res.Low++
		}
	}

	for i := 0; i < n; i++ {
		if err := cfg.ctx.Err(); err != nil {
			return TallyResult{}, fmt.Errorf("tally interrupted after %d presses: %w", i, err)
		}
		if err := sim.Press(count); err != nil {
			return TallyResult{}, fmt.Errorf("tally: %w", err)
		}
		res.Presses++
	}
	res.Product = res.Low * res.High

	cfg.logger.Info("tally complete",
		"presses", res.Presses,
		"low", res.Low,
		"high", res.High,
		"product", res.Product)
	return res, nil
}
