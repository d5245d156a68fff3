package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/pulsenet/internal/compiler"
	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/ir"
	"github.com/roach88/pulsenet/internal/store"
)

// defaultRunID names the persisted run of a scenario without run_id, so
// golden snapshots stay byte-identical across runs.
const defaultRunID = "test-run-default"

// Harness holds what assertions need after a scenario has been pressed.
type Harness struct {
	store  *store.Store
	rules  []ir.Rule
	graph  *engine.Graph
	runID  string
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
//  1. Load the network and build a fresh graph
//  2. Record the requested presses
//  3. Persist the run and read the trace back
//  4. Evaluate assertions
//
// An error means the scenario could not run at all (bad network, runaway
// press, storage failure). Failed assertions are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context for store access and
// analysis cancellation.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	rules, err := loadRules(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load network: %w", err)
	}

	g, err := engine.Build(rules)
	if err != nil {
		return nil, fmt.Errorf("failed to build network: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	sim := engine.NewSimulator(g, engine.WithLogger(logger))
	trace, err := engine.Record(sim, scenario.Presses)
	if err != nil {
		return nil, fmt.Errorf("failed to simulate: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	runID := scenario.RunID
	if runID == "" {
		runID = defaultRunID
	}
	runID = engine.NewFixedGenerator(runID).Generate()
	run, err := store.NewRun(runID, scenario.Network, rules, scenario.Presses, trace)
	if err != nil {
		return nil, err
	}
	if err := st.WriteRun(ctx, run, trace); err != nil {
		return nil, fmt.Errorf("failed to persist run: %w", err)
	}
	stored, err := st.ReadEvents(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	result := NewResult()
	result.RunID = runID
	result.Presses = scenario.Presses
	result.Low = run.Low
	result.High = run.High
	result.NetworkHash = run.NetworkHash
	result.TraceHash = run.TraceHash
	result.Trace = stored

	h := &Harness{
		store:  st,
		rules:  rules,
		graph:  g,
		runID:  runID,
		logger: logger,
	}
	actx := &AssertionContext{Ctx: ctx, Harness: h}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

func loadRules(s *Scenario) ([]ir.Rule, error) {
	if s.Rules != "" {
		return compiler.ParseNetworkString(s.Rules)
	}
	return compiler.LoadFile(s.Network)
}
