package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/pulsenet/internal/analysis"
	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/ir"
	"github.com/roach88/pulsenet/internal/queryir"
)

// maxTraceLines bounds the trace printed with a failed assertion.
const maxTraceLines = 40

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string          // Assertion type for categorization
	Expected string          // Human-readable expected outcome
	Actual   string          // Human-readable actual outcome
	Trace    []ir.TraceEvent // Trace for debugging context, may be nil
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nTrace:\n")
		for i, event := range e.Trace {
			if i == maxTraceLines {
				fmt.Fprintf(&buf, "  ... %d more\n", len(e.Trace)-maxTraceLines)
				break
			}
			fmt.Fprintf(&buf, "  [%d] press %d: %s\n", event.Seq, event.Press, event)
		}
	}

	return buf.String()
}

// AssertionContext provides what non-trace assertions need.
type AssertionContext struct {
	Ctx     context.Context
	Harness *Harness
}

// EvaluateAssertions runs all assertions and returns failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %s", i, err.Error()))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertPulseCount:
		return assertPulseCount(actx, a)
	case AssertTally:
		return assertTally(result, a)
	case AssertPeriod:
		return assertPeriod(actx, a)
	case AssertFirstLow:
		return assertFirstLow(actx, a)
	case AssertFinalState:
		return assertFinalState(actx, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTraceContains checks that the trace has at least one matching event,
// optionally within one press.
func assertTraceContains(trace []ir.TraceEvent, a Assertion) error {
	pattern, err := parseEvent(a.Event)
	if err != nil {
		return err
	}
	for _, e := range trace {
		if pattern.matches(e) && (a.Press == 0 || e.Press == a.Press) {
			return nil
		}
	}

	expected := a.Event
	if a.Press > 0 {
		expected = fmt.Sprintf("%s in press %d", a.Event, a.Press)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first occurrence of each event comes
// strictly after the first occurrence of the previous one.
// Events don't need to be consecutive.
func assertTraceOrder(trace []ir.TraceEvent, a Assertion) error {
	positions := make([]int, len(a.Events))
	for i, s := range a.Events {
		pattern, err := parseEvent(s)
		if err != nil {
			return err
		}
		for j, e := range trace {
			if pattern.matches(e) {
				positions[i] = j + 1 // 1-indexed; 0 means missing
				break
			}
		}
		if positions[i] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all events present: %v", a.Events),
				Actual:   fmt.Sprintf("missing event: %s", s),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(positions); i++ {
		if positions[i-1] >= positions[i] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("events in order: %v", a.Events),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					a.Events[i-1], positions[i-1], a.Events[i], positions[i]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertPulseCount counts matching events in the persisted run log.
func assertPulseCount(actx *AssertionContext, a Assertion) error {
	h := actx.Harness
	filter := queryir.EventFilter{
		RunID:     h.runID,
		Press:     a.Press,
		PressFrom: a.PressFrom,
		PressTo:   a.PressTo,
		From:      a.From,
		To:        a.To,
	}
	if a.Value != "" {
		v, err := ir.ParsePulse(a.Value)
		if err != nil {
			return err
		}
		filter.Value = &v
	}

	events, err := h.store.QueryEvents(actx.Ctx, filter)
	if err != nil {
		return fmt.Errorf("query events: %w", err)
	}
	if len(events) != *a.Count {
		return &AssertionError{
			Type:     AssertPulseCount,
			Expected: fmt.Sprintf("%d events matching %s", *a.Count, describeFilter(a)),
			Actual:   fmt.Sprintf("%d events", len(events)),
		}
	}
	return nil
}

func describeFilter(a Assertion) string {
	var parts []string
	if a.Press > 0 {
		parts = append(parts, fmt.Sprintf("press=%d", a.Press))
	}
	if a.PressFrom > 0 || a.PressTo > 0 {
		hi := "last"
		if a.PressTo > 0 {
			hi = fmt.Sprint(a.PressTo)
		}
		parts = append(parts, fmt.Sprintf("presses=%d..%s", max(a.PressFrom, 1), hi))
	}
	if a.From != "" {
		parts = append(parts, "from="+a.From)
	}
	if a.To != "" {
		parts = append(parts, "to="+a.To)
	}
	if a.Value != "" {
		parts = append(parts, "value="+a.Value)
	}
	if len(parts) == 0 {
		return "any"
	}
	return strings.Join(parts, " ")
}

// assertTally compares pulse totals over the whole run.
func assertTally(result *Result, a Assertion) error {
	var mismatches []string
	if a.Low != nil && *a.Low != result.Low {
		mismatches = append(mismatches, fmt.Sprintf("low %d != %d", result.Low, *a.Low))
	}
	if a.High != nil && *a.High != result.High {
		mismatches = append(mismatches, fmt.Sprintf("high %d != %d", result.High, *a.High))
	}
	if a.Product != nil && *a.Product != result.Low*result.High {
		mismatches = append(mismatches, fmt.Sprintf("product %d != %d", result.Low*result.High, *a.Product))
	}
	if len(mismatches) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertTally,
		Expected: fmt.Sprintf("low=%s high=%s product=%s", optInt(a.Low), optInt(a.High), optInt(a.Product)),
		Actual:   strings.Join(mismatches, ", "),
	}
}

func optInt(v *int64) string {
	if v == nil {
		return "any"
	}
	return fmt.Sprintf("%d", *v)
}

// freshSimulator builds a new graph from the scenario's rules.
func (h *Harness) freshSimulator() (*engine.Simulator, error) {
	g, err := engine.Build(h.rules)
	if err != nil {
		return nil, err
	}
	return engine.NewSimulator(g, engine.WithLogger(h.logger)), nil
}

func (h *Harness) analysisOptions(ctx context.Context, a Assertion) []analysis.Option {
	opts := []analysis.Option{
		analysis.WithContext(ctx),
		analysis.WithLogger(h.logger),
	}
	if a.MaxPresses > 0 {
		opts = append(opts, analysis.WithMaxPresses(a.MaxPresses))
	}
	if a.Verify != nil && !*a.Verify {
		opts = append(opts, analysis.WithoutVerification())
	}
	return opts
}

// assertPeriod runs the LCM analysis on a fresh graph.
func assertPeriod(actx *AssertionContext, a Assertion) error {
	sim, err := actx.Harness.freshSimulator()
	if err != nil {
		return err
	}
	res, err := analysis.Period(sim, a.Sink, actx.Harness.analysisOptions(actx.Ctx, a)...)
	if a.Error != "" {
		return expectAnalysisError(AssertPeriod, a.Error, err)
	}
	if err != nil {
		return &AssertionError{Type: AssertPeriod, Expected: fmt.Sprintf("lcm %d", a.LCM), Actual: err.Error()}
	}
	if res.LCM != a.LCM {
		return &AssertionError{
			Type:     AssertPeriod,
			Expected: fmt.Sprintf("lcm %d", a.LCM),
			Actual:   fmt.Sprintf("lcm %d (feeders %v)", res.LCM, res.Feeders),
		}
	}
	return nil
}

// assertFirstLow brute-forces the sink on a fresh graph.
func assertFirstLow(actx *AssertionContext, a Assertion) error {
	sim, err := actx.Harness.freshSimulator()
	if err != nil {
		return err
	}
	press, err := analysis.FirstLow(sim, a.Sink, a.MaxPresses, actx.Harness.analysisOptions(actx.Ctx, a)...)
	if a.Error != "" {
		return expectAnalysisError(AssertFirstLow, a.Error, err)
	}
	if err != nil {
		return &AssertionError{Type: AssertFirstLow, Expected: fmt.Sprintf("press %d", a.Press), Actual: err.Error()}
	}
	if press != a.Press {
		return &AssertionError{
			Type:     AssertFirstLow,
			Expected: fmt.Sprintf("press %d", a.Press),
			Actual:   fmt.Sprintf("press %d", press),
		}
	}
	return nil
}

func expectAnalysisError(kind, want string, err error) error {
	var got string
	switch {
	case err == nil:
		got = "no error"
	case analysis.IsNotPeriodic(err):
		got = ErrorNotPeriodic
	case analysis.IsNonConvergence(err):
		got = ErrorNonConvergence
	default:
		got = err.Error()
	}
	if got == want {
		return nil
	}
	return &AssertionError{Type: kind, Expected: "error " + want, Actual: got}
}

// assertFinalState inspects module state after the scenario's presses.
func assertFinalState(actx *AssertionContext, a Assertion) error {
	g := actx.Harness.graph
	id, ok := g.ID(a.Module)
	if !ok {
		return fmt.Errorf("unknown module %q", a.Module)
	}

	var mismatches []string
	if a.On != nil && g.State(id) != *a.On {
		mismatches = append(mismatches, fmt.Sprintf("on=%t", g.State(id)))
	}
	if a.LowSeen != nil && g.LowSeen(id) != *a.LowSeen {
		mismatches = append(mismatches, fmt.Sprintf("low_seen=%t", g.LowSeen(id)))
	}
	if len(a.Memory) > 0 {
		memory := g.Memory(id)
		if memory == nil {
			return fmt.Errorf("module %q is a %s and has no memory", a.Module, g.Kind(id))
		}
		inputs := make([]string, 0, len(a.Memory))
		for input := range a.Memory {
			inputs = append(inputs, input)
		}
		sort.Strings(inputs)
		for _, input := range inputs {
			want, _ := ir.ParsePulse(a.Memory[input])
			inID, ok := g.ID(input)
			got, remembered := memory[inID]
			if !ok || !remembered {
				mismatches = append(mismatches, fmt.Sprintf("memory[%s] missing", input))
				continue
			}
			if got != want {
				mismatches = append(mismatches, fmt.Sprintf("memory[%s]=%s", input, got))
			}
		}
	}

	if len(mismatches) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalState,
		Expected: fmt.Sprintf("module %s state as declared", a.Module),
		Actual:   strings.Join(mismatches, ", "),
	}
}
