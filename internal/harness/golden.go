package harness

import "github.com/roach88/pulsenet/internal/ir"

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string          `json:"scenario_name"`
	RunID        string          `json:"run_id"`
	Presses      int             `json:"presses"`
	Low          int64           `json:"low"`
	High         int64           `json:"high"`
	TraceHash    string          `json:"trace_hash"`
	Trace        []ir.TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, e := range s.Trace {
		trace[i] = e
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"run_id":        s.RunID,
		"presses":       s.Presses,
		"low":           s.Low,
		"high":          s.High,
		"trace_hash":    s.TraceHash,
		"trace":         trace,
	}
}

// SnapshotJSON renders the canonical golden bytes for a scenario result.
func SnapshotJSON(name string, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(snapshotOf(name, result).toCanonicalMap())
}

func snapshotOf(name string, result *Result) *TraceSnapshot {
	return &TraceSnapshot{
		ScenarioName: name,
		RunID:        result.RunID,
		Presses:      result.Presses,
		Low:          result.Low,
		High:         result.High,
		TraceHash:    result.TraceHash,
		Trace:        result.Trace,
	}
}
