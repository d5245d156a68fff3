package ir

import (
	"encoding/json"
	"fmt"
)

// Pulse is the binary signal value carried by every event.
type Pulse bool

const (
	// Low is the pulse value injected by a button press.
	Low Pulse = false
	// High is the other pulse value.
	High Pulse = true
)

// String returns "low" or "high".
func (p Pulse) String() string {
	if p {
		return "high"
	}
	return "low"
}

// ParsePulse converts "low"/"high" back into a Pulse.
func ParsePulse(s string) (Pulse, error) {
	switch s {
	case "low":
		return Low, nil
	case "high":
		return High, nil
	default:
		return Low, fmt.Errorf("invalid pulse %q: must be low or high", s)
	}
}

// MarshalJSON encodes the pulse as "low" or "high".
func (p Pulse) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts "low" or "high".
func (p *Pulse) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParsePulse(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Kind is the closed set of module variants.
type Kind int

const (
	// KindBroadcaster forwards every pulse as low to all targets.
	KindBroadcaster Kind = iota + 1
	// KindFlipFlop toggles on low pulses and ignores high pulses.
	KindFlipFlop
	// KindConjunction remembers the last pulse from each input.
	KindConjunction
	// KindSink has no outputs. Undeclared targets become sinks.
	KindSink
)

// String returns the lowercase kind name used in CUE descriptions and output.
func (k Kind) String() string {
	switch k {
	case KindBroadcaster:
		return "broadcaster"
	case KindFlipFlop:
		return "flipflop"
	case KindConjunction:
		return "conjunction"
	case KindSink:
		return "sink"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Prefix returns the rule prefix for the kind in the text format.
func (k Kind) Prefix() string {
	switch k {
	case KindFlipFlop:
		return "%"
	case KindConjunction:
		return "&"
	default:
		return ""
	}
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON accepts any declarable kind name and "sink".
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "sink" {
		*k = KindSink
		return nil
	}
	v, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParseKind converts a kind name into a Kind.
// Sinks cannot be declared, so "sink" is rejected.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "broadcaster":
		return KindBroadcaster, nil
	case "flipflop":
		return KindFlipFlop, nil
	case "conjunction":
		return KindConjunction, nil
	default:
		return 0, fmt.Errorf("unknown module kind %q", s)
	}
}

// BroadcasterName is the reserved name of the broadcaster module.
const BroadcasterName = "broadcaster"

// ButtonName is the name used for the external button in traces.
const ButtonName = "button"

// Rule is one declared module: its kind and ordered targets.
type Rule struct {
	Name    string   `json:"name"`
	Kind    Kind     `json:"kind"`
	Targets []string `json:"targets"`
	Line    int      `json:"line,omitempty"` // 1-based source line, 0 if unknown
}

// String renders the rule in the text format.
func (r Rule) String() string {
	s := r.Kind.Prefix() + r.Name + " ->"
	for i, t := range r.Targets {
		if i == 0 {
			s += " " + t
		} else {
			s += ", " + t
		}
	}
	return s
}

// ModuleID addresses a module in the graph arena.
type ModuleID int

// ButtonID is the sender of the virtual event that starts each press.
const ButtonID ModuleID = -1

// Event is one pulse travelling along one edge.
type Event struct {
	From  ModuleID
	To    ModuleID
	Value Pulse
}

// TraceEvent is a named, clock-stamped event.
// Traces are persisted and compared in this form.
type TraceEvent struct {
	Seq   int64  `json:"seq"`
	Press int    `json:"press"`
	From  string `json:"from"`
	To    string `json:"to"`
	Value Pulse  `json:"value"`
}

// String renders the event as "from -value-> to".
func (e TraceEvent) String() string {
	return e.From + " -" + e.Value.String() + "-> " + e.To
}
