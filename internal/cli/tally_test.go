package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsenet/internal/analysis"
	"github.com/roach88/pulsenet/internal/testutil"
)

func decodeData(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	if data != nil {
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, data))
	}
	return resp
}

func TestTally(t *testing.T) {
	tests := []struct {
		name    string
		network string
		args    []string
		want    analysis.TallyResult
	}{
		{"default presses", testutil.Example1, nil, analysis.TallyResult{Presses: 1000, Low: 8000, High: 4000, Product: 32000000}},
		{"implicit sink", testutil.Example2, nil, analysis.TallyResult{Presses: 1000, Low: 4250, High: 2750, Product: 11687500}},
		{"one press", testutil.Example2, []string{"--presses", "1"}, analysis.TallyResult{Presses: 1, Low: 4, High: 4, Product: 16}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "net.txt", tt.network)
			out, err := execute(t, "json", NewTallyCommand, append(tt.args, path)...)
			require.NoError(t, err)

			var got analysis.TallyResult
			resp := decodeData(t, out, &got)
			assert.Equal(t, "ok", resp.Status)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTallyText(t *testing.T) {
	path := writeFile(t, t.TempDir(), "net.txt", testutil.Example1)
	out, err := execute(t, "text", NewTallyCommand, path)
	require.NoError(t, err)
	assert.Contains(t, out, "low:     8000")
	assert.Contains(t, out, "product: 32000000")
}

func TestTallyErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "text", NewTallyCommand, "--presses", "-1", writeFile(t, dir, "a.txt", testutil.Example1))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := execute(t, "json", NewTallyCommand, "--presses", "1", writeFile(t, dir, "ring.txt", testutil.ConjunctionRing))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	resp := decodeData(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeRuntime, resp.Error.Code)
}

func TestPeriod(t *testing.T) {
	path := writeFile(t, t.TempDir(), "counters.txt", testutil.Counters345)

	out, err := execute(t, "json", NewPeriodCommand, path)
	require.NoError(t, err)

	var got analysis.PeriodResult
	decodeData(t, out, &got)
	assert.Equal(t, uint64(60), got.LCM)
	assert.Equal(t, "m", got.Gate)
	assert.True(t, got.Verified)
	assert.Equal(t, []analysis.FeederPeriod{
		{Name: "fx", First: 3, Second: 6},
		{Name: "fy", First: 4, Second: 8},
		{Name: "fz", First: 5, Second: 10},
	}, got.Feeders)

	out, err = execute(t, "text", NewPeriodCommand, "--no-verify", path)
	require.NoError(t, err)
	assert.Contains(t, out, "sink rx is gated by m")
	assert.Contains(t, out, "lcm: 60")
	assert.Contains(t, out, "(periodicity not verified)")
}

func TestPeriodFailures(t *testing.T) {
	dir := t.TempDir()
	counters := writeFile(t, dir, "counters.txt", testutil.Counters345)
	nonPeriodic := writeFile(t, dir, "np.txt", testutil.NonPeriodic)

	tests := []struct {
		name string
		args []string
		exit int
		code string
	}{
		{"not periodic", []string{nonPeriodic}, ExitFailure, ErrCodeNotPeriodic},
		{"press cap", []string{"--max-presses", "4", counters}, ExitFailure, ErrCodeNonConvergence},
		{"unknown sink", []string{"--sink", "nowhere", counters}, ExitCommandError, ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "json", NewPeriodCommand, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.exit, GetExitCode(err))

			resp := decodeData(t, out, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestProbe(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "json", NewProbeCommand, "--sink", "output", writeFile(t, dir, "ex2.txt", testutil.Example2))
	require.NoError(t, err)
	var got ProbeResult
	decodeData(t, out, &got)
	assert.Equal(t, ProbeResult{Sink: "output", Press: 1}, got)

	out, err = execute(t, "text", NewProbeCommand, writeFile(t, dir, "np.txt", testutil.NonPeriodic))
	require.NoError(t, err)
	assert.Equal(t, "rx first received low at press 15\n", out)

	out, err = execute(t, "text", NewProbeCommand, writeFile(t, dir, "counters.txt", testutil.Counters345))
	require.NoError(t, err)
	assert.Equal(t, "rx first received low at press 60\n", out)

	_, err = execute(t, "text", NewProbeCommand, "--max-presses", "10", filepath.Join(dir, "np.txt"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
