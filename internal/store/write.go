package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/pulsenet/internal/ir"
)

// ErrRunExists is returned when a run ID is written twice.
var ErrRunExists = errors.New("run already exists")

// Run is the summary row of a persisted run.
type Run struct {
	ID            string    `json:"id"`
	NetworkHash   string    `json:"network_hash"`
	Rules         []ir.Rule `json:"rules,omitempty"`
	Source        string    `json:"source,omitempty"`
	Presses       int       `json:"presses"`
	Events        int       `json:"events"`
	Low           int64     `json:"low"`
	High          int64     `json:"high"`
	TraceHash     string    `json:"trace_hash"`
	EngineVersion string    `json:"engine_version"`
	IRVersion     string    `json:"ir_version"`
}

// NewRun summarizes a recorded trace into a Run row.
// Hashes and totals are derived from rules and trace.
func NewRun(id, source string, rules []ir.Rule, presses int, trace []ir.TraceEvent) (Run, error) {
	networkHash, err := ir.NetworkHash(rules)
	if err != nil {
		return Run{}, fmt.Errorf("new run: %w", err)
	}
	traceHash, err := ir.TraceHash(trace)
	if err != nil {
		return Run{}, fmt.Errorf("new run: %w", err)
	}

	run := Run{
		ID:            id,
		NetworkHash:   networkHash,
		Rules:         rules,
		Source:        source,
		Presses:       presses,
		Events:        len(trace),
		TraceHash:     traceHash,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
	for _, e := range trace {
		if e.Value == ir.High {
			run.High++
		} else {
			run.Low++
		}
	}
	return run, nil
}

// WriteRun inserts a run and its full trace in one transaction.
// Either everything is stored or nothing is. A duplicate run ID returns
// ErrRunExists and leaves the stored run untouched.
func (s *Store) WriteRun(ctx context.Context, run Run, trace []ir.TraceEvent) error {
	if len(trace) != run.Events {
		return fmt.Errorf("write run: trace has %d events, run says %d", len(trace), run.Events)
	}
	rulesJSON, err := marshalRules(run.Rules)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, network_hash, rules, source, presses, event_count, low, high, trace_hash, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.NetworkHash,
		rulesJSON,
		run.Source,
		run.Presses,
		run.Events,
		run.Low,
		run.High,
		run.TraceHash,
		run.EngineVersion,
		run.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("write run: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("write run %s: %w", run.ID, ErrRunExists)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (run_id, seq, press, from_module, to_module, value)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write run: prepare events: %w", err)
	}
	defer stmt.Close()

	for _, e := range trace {
		if _, err := stmt.ExecContext(ctx, run.ID, e.Seq, e.Press, e.From, e.To, e.Value.String()); err != nil {
			return fmt.Errorf("write run: event seq=%d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

// DeleteRun removes a run and, by cascade, its events.
// Deleting a missing run is not an error.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}
