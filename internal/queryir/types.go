package queryir

import (
	"math"

	"github.com/roach88/pulsenet/internal/ir"
)

// Query represents an abstract query over the run log.
//
// This is a sealed interface: only types in this package implement it, so
// backend compilers can switch exhaustively.
type Query interface {
	queryNode()
}

// Predicate represents a filter condition.
//
// Predicate types:
//   - Equals: field = value
//   - Between: lo <= field <= hi
//   - And: all predicates must be true
type Predicate interface {
	predicateNode()
}

// Select reads columns from one table.
//
//	SELECT <columns> FROM <from> WHERE <filter>
type Select struct {
	From    string    // table name, see Tables
	Filter  Predicate // nil = no filter
	Columns []string  // explicit column list, in output order
}

func (Select) queryNode() {}

// Equals compares a column to a literal.
// Value may be a string, int, int64, bool or ir.Pulse.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// Between bounds an integer column, both ends inclusive.
type Between struct {
	Field string
	Lo    int64
	Hi    int64
}

func (Between) predicateNode() {}

// And is the conjunction of its predicates. An empty And is true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// ColumnType is the storage class of a run log column.
type ColumnType int

const (
	// ColumnText holds strings and pulse values.
	ColumnText ColumnType = iota + 1
	// ColumnInteger holds counts, indices and sequence numbers.
	ColumnInteger
)

// Table names.
const (
	TableRuns   = "runs"
	TableEvents = "events"
)

// RunColumns is the column list of a run read, in scan order.
var RunColumns = []string{
	"id", "network_hash", "rules", "source", "presses", "event_count",
	"low", "high", "trace_hash", "engine_version", "ir_version",
}

// EventColumns is the column list of a trace read, in ir.TraceEvent order.
var EventColumns = []string{"seq", "press", "from_module", "to_module", "value"}

// Tables is the catalogue of queryable columns.
var Tables = map[string]map[string]ColumnType{
	TableRuns: {
		"id":             ColumnText,
		"network_hash":   ColumnText,
		"rules":          ColumnText,
		"presses":        ColumnInteger,
		"event_count":    ColumnInteger,
		"low":            ColumnInteger,
		"high":           ColumnInteger,
		"trace_hash":     ColumnText,
		"source":         ColumnText,
		"engine_version": ColumnText,
		"ir_version":     ColumnText,
	},
	TableEvents: {
		"run_id":      ColumnText,
		"seq":         ColumnInteger,
		"press":       ColumnInteger,
		"from_module": ColumnText,
		"to_module":   ColumnText,
		"value":       ColumnText,
	},
}

// RunFilter selects runs. Zero fields do not filter.
type RunFilter struct {
	NetworkHash string // runs of one network
}

// Query builds the Select for the filter.
func (f RunFilter) Query() Select {
	var preds []Predicate
	if f.NetworkHash != "" {
		preds = append(preds, Equals{Field: "network_hash", Value: f.NetworkHash})
	}
	return Select{
		From:    TableRuns,
		Filter:  And{Predicates: preds},
		Columns: RunColumns,
	}
}

// EventFilter selects events of one run. Zero fields do not filter.
type EventFilter struct {
	RunID string
	Press int // single press; 0 = any

	// PressFrom and PressTo bound an inclusive press range. 0 leaves that
	// end open.
	PressFrom int
	PressTo   int

	From  string    // sender name
	To    string    // receiver name
	Value *ir.Pulse // nil = any
}

// Query builds the Select for the filter. The run ID is always constrained.
func (f EventFilter) Query() Select {
	preds := []Predicate{Equals{Field: "run_id", Value: f.RunID}}
	if f.Press > 0 {
		preds = append(preds, Equals{Field: "press", Value: f.Press})
	}
	if f.PressFrom > 0 || f.PressTo > 0 {
		lo, hi := f.pressRange()
		preds = append(preds, Between{Field: "press", Lo: lo, Hi: hi})
	}
	if f.From != "" {
		preds = append(preds, Equals{Field: "from_module", Value: f.From})
	}
	if f.To != "" {
		preds = append(preds, Equals{Field: "to_module", Value: f.To})
	}
	if f.Value != nil {
		preds = append(preds, Equals{Field: "value", Value: *f.Value})
	}
	return Select{
		From:    TableEvents,
		Filter:  And{Predicates: preds},
		Columns: EventColumns,
	}
}

// Match applies the filter to an event in memory, with the same meaning as
// the compiled query. RunID is ignored.
func (f EventFilter) Match(e ir.TraceEvent) bool {
	if f.Press > 0 && e.Press != f.Press {
		return false
	}
	if f.PressFrom > 0 || f.PressTo > 0 {
		lo, hi := f.pressRange()
		if int64(e.Press) < lo || int64(e.Press) > hi {
			return false
		}
	}
	if f.From != "" && e.From != f.From {
		return false
	}
	if f.To != "" && e.To != f.To {
		return false
	}
	if f.Value != nil && e.Value != *f.Value {
		return false
	}
	return true
}

func (f EventFilter) pressRange() (lo, hi int64) {
	lo, hi = 1, math.MaxInt64
	if f.PressFrom > 0 {
		lo = int64(f.PressFrom)
	}
	if f.PressTo > 0 {
		hi = int64(f.PressTo)
	}
	return lo, hi
}
