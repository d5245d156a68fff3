package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/pulsenet/internal/ir"
	"github.com/roach88/pulsenet/internal/queryir"
	"github.com/roach88/pulsenet/internal/querysql"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// ReadRun retrieves a run by ID, rules included.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+strings.Join(queryir.RunColumns, ", ")+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns every run ordered by ID. Rules are omitted.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	return s.FindRuns(ctx, queryir.RunFilter{})
}

// FindRuns returns the runs matching the filter, ordered by ID. Rules are
// omitted; ReadRun loads them.
func (s *Store) FindRuns(ctx context.Context, filter queryir.RunFilter) ([]Run, error) {
	query, params, err := querysql.NewSQLCompiler().Compile(filter.Query())
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		run.Rules = nil
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadEvents returns the full trace of a run in seq order.
// Returns an empty slice (not nil) for an unknown run.
func (s *Store) ReadEvents(ctx context.Context, runID string) ([]ir.TraceEvent, error) {
	return s.QueryEvents(ctx, queryir.EventFilter{RunID: runID})
}

// QueryEvents returns the events of one run matching the filter, in seq order.
func (s *Store) QueryEvents(ctx context.Context, filter queryir.EventFilter) ([]ir.TraceEvent, error) {
	query, params, err := querysql.NewSQLCompiler().Compile(filter.Query())
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []ir.TraceEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var rulesJSON string
	err := sc.Scan(
		&run.ID,
		&run.NetworkHash,
		&rulesJSON,
		&run.Source,
		&run.Presses,
		&run.Events,
		&run.Low,
		&run.High,
		&run.TraceHash,
		&run.EngineVersion,
		&run.IRVersion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.Rules, err = unmarshalRules(rulesJSON)
	if err != nil {
		return Run{}, fmt.Errorf("scan run %s: %w", run.ID, err)
	}
	return run, nil
}

func scanEvent(sc scanner) (ir.TraceEvent, error) {
	var e ir.TraceEvent
	var value string
	if err := sc.Scan(&e.Seq, &e.Press, &e.From, &e.To, &value); err != nil {
		return ir.TraceEvent{}, fmt.Errorf("scan event: %w", err)
	}
	v, err := ir.ParsePulse(value)
	if err != nil {
		return ir.TraceEvent{}, fmt.Errorf("scan event seq=%d: %w", e.Seq, err)
	}
	e.Value = v
	return e, nil
}
