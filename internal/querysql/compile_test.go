package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsenet/internal/ir"
	"github.com/roach88/pulsenet/internal/queryir"
)

func TestCompile_EventFilter(t *testing.T) {
	low := ir.Low
	q := queryir.EventFilter{RunID: "run-1", Press: 2, To: "con", Value: &low}.Query()

	sql, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT seq, press, from_module, to_module, value FROM events"+
			" WHERE run_id = ? AND press = ? AND to_module = ? AND value = ?"+
			" ORDER BY run_id ASC COLLATE BINARY, seq ASC",
		sql)
	assert.Equal(t, []any{"run-1", int64(2), "con", "low"}, params)
}

func TestCompile_EventFilterPressRange(t *testing.T) {
	q := queryir.EventFilter{RunID: "run-1", PressFrom: 2, PressTo: 4, From: "a"}.Query()

	sql, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Contains(t, sql, " WHERE run_id = ? AND press BETWEEN ? AND ? AND from_module = ?")
	assert.Equal(t, []any{"run-1", int64(2), int64(4), "a"}, params)
}

func TestCompile_RunFilter(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.RunFilter{NetworkHash: "h1"}.Query())
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, network_hash, rules, source, presses, event_count, low, high,"+
			" trace_hash, engine_version, ir_version FROM runs"+
			" WHERE network_hash = ? ORDER BY id ASC COLLATE BINARY",
		sql)
	assert.Equal(t, []any{"h1"}, params)
}

func TestCompile_NoInterpolation(t *testing.T) {
	q := queryir.Select{
		From:    queryir.TableEvents,
		Columns: queryir.EventColumns,
		Filter:  queryir.Equals{Field: "from_module", Value: "x'; DROP TABLE runs; --"},
	}

	sql, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.NotContains(t, sql, "DROP")
	assert.Equal(t, []any{"x'; DROP TABLE runs; --"}, params)
}

func TestCompile_PointerNodes(t *testing.T) {
	q := &queryir.Select{
		From:    queryir.TableEvents,
		Columns: []string{"seq"},
		Filter: &queryir.And{Predicates: []queryir.Predicate{
			&queryir.Equals{Field: "run_id", Value: "r"},
			&queryir.Between{Field: "press", Lo: 3, Hi: 7},
		}},
	}

	sql, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE run_id = ? AND press BETWEEN ? AND ?")
	assert.Equal(t, []any{"r", int64(3), int64(7)}, params)
}

func TestCompile_RunsOrderedByID(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Select{
		From:    queryir.TableRuns,
		Columns: []string{"id", "presses"},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, presses FROM runs ORDER BY id ASC COLLATE BINARY", sql)
	assert.Empty(t, params)
}

func TestCompile_EmptyAnd(t *testing.T) {
	sql, _, err := NewSQLCompiler().Compile(queryir.Select{
		From:    queryir.TableRuns,
		Columns: []string{"id"},
		Filter:  queryir.And{},
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE 1 = 1")
}

func TestCompile_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		query queryir.Query
	}{
		{"nil", nil},
		{"unknown table", queryir.Select{From: "completions", Columns: []string{"id"}}},
		{"unknown filter column", queryir.Select{
			From:    queryir.TableEvents,
			Columns: []string{"seq"},
			Filter:  queryir.Equals{Field: "1=1 OR seq", Value: int64(1)},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewSQLCompiler().Compile(tt.query)
			assert.Error(t, err)
		})
	}
}
