package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pulsenet/internal/ir"
)

// Scenario defines a simulation test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Network is the path to a text or CUE network description,
	// relative to the scenario file. Exactly one of Network and Rules is set.
	Network string `yaml:"network,omitempty"`

	// Rules is an inline text network.
	Rules string `yaml:"rules,omitempty"`

	// Presses is the number of button presses to record.
	Presses int `yaml:"presses"`

	// RunID is an optional fixed run ID for the persisted run.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Assertions validate the trace, totals, analyses and final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one property of a scenario run.
// Which fields apply depends on Type.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Event is "from -value-> to" (trace_contains).
	Event string `yaml:"event,omitempty"`

	// Events is the expected relative order (trace_order).
	Events []string `yaml:"events,omitempty"`

	// Press restricts trace_contains and pulse_count to one press;
	// for first_low it is the expected press index.
	Press int `yaml:"press,omitempty"`

	// PressFrom and PressTo bound pulse_count to an inclusive press range.
	// Either end may be left open.
	PressFrom int `yaml:"press_from,omitempty"`
	PressTo   int `yaml:"press_to,omitempty"`

	// From, To and Value filter pulse_count. Empty means any.
	From  string `yaml:"from,omitempty"`
	To    string `yaml:"to,omitempty"`
	Value string `yaml:"value,omitempty"`

	// Count is the expected number of matching events (pulse_count).
	Count *int `yaml:"count,omitempty"`

	// Low, High and Product are the expected totals (tally).
	Low     *int64 `yaml:"low,omitempty"`
	High    *int64 `yaml:"high,omitempty"`
	Product *int64 `yaml:"product,omitempty"`

	// Sink names the analysed sink (period, first_low).
	Sink string `yaml:"sink,omitempty"`

	// LCM is the expected period (period).
	LCM uint64 `yaml:"lcm,omitempty"`

	// Verify toggles periodicity verification (period). Default true.
	Verify *bool `yaml:"verify,omitempty"`

	// MaxPresses caps the analysis (period, first_low).
	MaxPresses int `yaml:"max_presses,omitempty"`

	// Error is the expected analysis failure: "not_periodic" or
	// "non_convergence" (period, first_low).
	Error string `yaml:"error,omitempty"`

	// Module names the module inspected by final_state.
	Module string `yaml:"module,omitempty"`

	// On is the expected flip-flop state (final_state).
	On *bool `yaml:"on,omitempty"`

	// LowSeen is the expected sink flag (final_state).
	LowSeen *bool `yaml:"low_seen,omitempty"`

	// Memory is the expected conjunction memory, input name to pulse
	// (final_state). Subset match.
	Memory map[string]string `yaml:"memory,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertPulseCount    = "pulse_count"
	AssertTally         = "tally"
	AssertPeriod        = "period"
	AssertFirstLow      = "first_low"
	AssertFinalState    = "final_state"
)

// Expected analysis failures.
const (
	ErrorNotPeriodic    = "not_periodic"
	ErrorNonConvergence = "non_convergence"
)

// LoadScenario reads and parses a scenario YAML file, resolving the
// network path relative to the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the network path relative to basePath.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Network != "" && !filepath.IsAbs(scenario.Network) && basePath != "" {
		scenario.Network = filepath.Join(basePath, scenario.Network)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Network == "" && s.Rules == "":
		return fmt.Errorf("one of network or rules is required")
	case s.Network != "" && s.Rules != "":
		return fmt.Errorf("network and rules are mutually exclusive")
	}

	if s.Network != "" {
		if _, err := os.Stat(s.Network); os.IsNotExist(err) {
			return fmt.Errorf("network file not found: %s", s.Network)
		}
	}

	if s.Presses < 0 {
		return fmt.Errorf("presses must be non-negative")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
		if _, err := parseEvent(a.Event); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertTraceOrder:
		if len(a.Events) < 2 {
			return fmt.Errorf("assertions[%d]: at least two events are required for trace_order", index)
		}
		for _, e := range a.Events {
			if _, err := parseEvent(e); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertPulseCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for pulse_count", index)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for pulse_count", index)
		}
		if a.PressFrom < 0 || a.PressTo < 0 {
			return fmt.Errorf("assertions[%d]: press range must be non-negative for pulse_count", index)
		}
		if a.PressTo > 0 && a.PressFrom > a.PressTo {
			return fmt.Errorf("assertions[%d]: press_from %d is after press_to %d", index, a.PressFrom, a.PressTo)
		}
		if a.Value != "" {
			if _, err := ir.ParsePulse(a.Value); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertTally:
		if a.Low == nil && a.High == nil && a.Product == nil {
			return fmt.Errorf("assertions[%d]: one of low, high or product is required for tally", index)
		}
	case AssertPeriod:
		if a.Sink == "" {
			return fmt.Errorf("assertions[%d]: sink is required for period", index)
		}
		if a.LCM == 0 && a.Error == "" {
			return fmt.Errorf("assertions[%d]: lcm or error is required for period", index)
		}
		if err := validateExpectedError(index, a.Error); err != nil {
			return err
		}
	case AssertFirstLow:
		if a.Sink == "" {
			return fmt.Errorf("assertions[%d]: sink is required for first_low", index)
		}
		if a.Press == 0 && a.Error == "" {
			return fmt.Errorf("assertions[%d]: press or error is required for first_low", index)
		}
		if err := validateExpectedError(index, a.Error); err != nil {
			return err
		}
	case AssertFinalState:
		if a.Module == "" {
			return fmt.Errorf("assertions[%d]: module is required for final_state", index)
		}
		if a.On == nil && a.LowSeen == nil && len(a.Memory) == 0 {
			return fmt.Errorf("assertions[%d]: one of on, low_seen or memory is required for final_state", index)
		}
		for input, v := range a.Memory {
			if _, err := ir.ParsePulse(v); err != nil {
				return fmt.Errorf("assertions[%d]: memory[%s]: %w", index, input, err)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func validateExpectedError(index int, e string) error {
	switch e {
	case "", ErrorNotPeriodic, ErrorNonConvergence:
		return nil
	default:
		return fmt.Errorf("assertions[%d]: unknown expected error %q", index, e)
	}
}
