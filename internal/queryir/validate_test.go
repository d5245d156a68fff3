package queryir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/pulsenet/internal/ir"
)

func TestEventFilter_Query(t *testing.T) {
	high := ir.High
	q := EventFilter{RunID: "run-1", Press: 3, From: "a", To: "con", Value: &high}.Query()

	assert.Equal(t, TableEvents, q.From)
	assert.Equal(t, EventColumns, q.Columns)
	assert.Equal(t, And{Predicates: []Predicate{
		Equals{Field: "run_id", Value: "run-1"},
		Equals{Field: "press", Value: 3},
		Equals{Field: "from_module", Value: "a"},
		Equals{Field: "to_module", Value: "con"},
		Equals{Field: "value", Value: ir.High},
	}}, q.Filter)

	assert.True(t, Validate(q).Valid)
}

func TestEventFilter_OnlyRunID(t *testing.T) {
	q := EventFilter{RunID: "run-1"}.Query()
	assert.Equal(t, And{Predicates: []Predicate{Equals{Field: "run_id", Value: "run-1"}}}, q.Filter)
}

func TestEventFilter_PressRange(t *testing.T) {
	tests := []struct {
		name   string
		filter EventFilter
		want   Between
	}{
		{"closed", EventFilter{RunID: "r", PressFrom: 2, PressTo: 5}, Between{Field: "press", Lo: 2, Hi: 5}},
		{"open end", EventFilter{RunID: "r", PressFrom: 3}, Between{Field: "press", Lo: 3, Hi: math.MaxInt64}},
		{"open start", EventFilter{RunID: "r", PressTo: 4}, Between{Field: "press", Lo: 1, Hi: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.filter.Query()
			assert.Equal(t, And{Predicates: []Predicate{
				Equals{Field: "run_id", Value: "r"},
				tt.want,
			}}, q.Filter)
			assert.True(t, Validate(q).Valid)
		})
	}

	inverted := EventFilter{RunID: "r", PressFrom: 5, PressTo: 2}.Query()
	assert.False(t, Validate(inverted).Valid)
}

func TestEventFilter_Match(t *testing.T) {
	low := ir.Low
	e := ir.TraceEvent{Seq: 7, Press: 3, From: "a", To: "con", Value: ir.Low}

	tests := []struct {
		name   string
		filter EventFilter
		want   bool
	}{
		{"empty", EventFilter{}, true},
		{"run id ignored", EventFilter{RunID: "other"}, true},
		{"press", EventFilter{Press: 3}, true},
		{"other press", EventFilter{Press: 2}, false},
		{"inside range", EventFilter{PressFrom: 2, PressTo: 3}, true},
		{"below range", EventFilter{PressFrom: 4}, false},
		{"above range", EventFilter{PressTo: 2}, false},
		{"sender and value", EventFilter{From: "a", Value: &low}, true},
		{"other receiver", EventFilter{To: "inv"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(e))
		})
	}
}

func TestRunFilter_Query(t *testing.T) {
	all := RunFilter{}.Query()
	assert.Equal(t, TableRuns, all.From)
	assert.Equal(t, RunColumns, all.Columns)
	assert.Equal(t, And{}, all.Filter)
	assert.True(t, Validate(all).Valid)

	one := RunFilter{NetworkHash: "abc"}.Query()
	assert.Equal(t, And{Predicates: []Predicate{Equals{Field: "network_hash", Value: "abc"}}}, one.Filter)
	assert.True(t, Validate(one).Valid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		query  Query
		valid  bool
		errors int
	}{
		{
			name:  "valid runs select",
			query: Select{From: TableRuns, Columns: []string{"id", "presses"}},
			valid: true,
		},
		{
			name: "valid range",
			query: &Select{
				From:    TableEvents,
				Columns: EventColumns,
				Filter:  &Between{Field: "press", Lo: 2, Hi: 5},
			},
			valid: true,
		},
		{
			name:   "nil query",
			query:  nil,
			errors: 1,
		},
		{
			name:   "unknown table",
			query:  Select{From: "invocations", Columns: []string{"id"}},
			errors: 1,
		},
		{
			name:   "implicit columns",
			query:  Select{From: TableEvents},
			errors: 1,
		},
		{
			name:   "unknown column",
			query:  Select{From: TableEvents, Columns: []string{"seq", "payload"}},
			errors: 1,
		},
		{
			name: "type mismatch and nil",
			query: Select{
				From:    TableEvents,
				Columns: EventColumns,
				Filter: And{Predicates: []Predicate{
					Equals{Field: "press", Value: "3"},
					Equals{Field: "to_module", Value: nil},
				}},
			},
			errors: 2,
		},
		{
			name: "bad range",
			query: Select{
				From:    TableEvents,
				Columns: EventColumns,
				Filter:  Between{Field: "value", Lo: 5, Hi: 2},
			},
			errors: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.query)
			assert.Equal(t, tt.valid, res.Valid, "errors: %v", res.Errors)
			assert.Len(t, res.Errors, tt.errors)
		})
	}
}
