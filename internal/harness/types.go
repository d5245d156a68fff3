package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/pulsenet/internal/ir"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// RunID identifies the persisted run.
	RunID string `json:"run_id"`

	// Presses is the number of presses recorded.
	Presses int `json:"presses"`

	// Low and High total the pulses of the whole trace.
	Low  int64 `json:"low"`
	High int64 `json:"high"`

	// NetworkHash and TraceHash identify the network and the trace.
	NetworkHash string `json:"network_hash"`
	TraceHash   string `json:"trace_hash"`

	// Trace is every delivered pulse, read back from the run log.
	Trace []ir.TraceEvent `json:"trace"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []ir.TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// eventPattern is a parsed "from -value-> to" string.
type eventPattern struct {
	From  string
	To    string
	Value ir.Pulse
}

// parseEvent parses the ir.TraceEvent.String form.
func parseEvent(s string) (eventPattern, error) {
	from, rest, ok := strings.Cut(strings.TrimSpace(s), " -")
	if !ok {
		return eventPattern{}, fmt.Errorf("event %q: want \"from -low-> to\" or \"from -high-> to\"", s)
	}
	value, to, ok := strings.Cut(rest, "-> ")
	if !ok || from == "" || strings.TrimSpace(to) == "" {
		return eventPattern{}, fmt.Errorf("event %q: want \"from -low-> to\" or \"from -high-> to\"", s)
	}
	v, err := ir.ParsePulse(value)
	if err != nil {
		return eventPattern{}, fmt.Errorf("event %q: %w", s, err)
	}
	return eventPattern{From: from, To: strings.TrimSpace(to), Value: v}, nil
}

func (p eventPattern) matches(e ir.TraceEvent) bool {
	return e.From == p.From && e.To == p.To && e.Value == p.Value
}
