package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: tiny
presses: 1
rules: |
  broadcaster -> a
  %a -> out
assertions:
  - type: tally
    low: 2
    high: 1
`

const failingScenario = `name: wrong_tally
presses: 1
rules: |
  broadcaster -> a
  %a -> out
assertions:
  - type: tally
    low: 5
`

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := execute(t, "json", NewTestCommand, filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err)

	var got TestResult
	resp := decodeData(t, out, &got)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 6, got.Total)
	assert.Equal(t, 6, got.Passed)

	golden := map[string]string{}
	for _, s := range got.Scenarios {
		assert.True(t, s.Pass, "%s: %v", s.Name, s.Errors)
		golden[s.Name] = s.Golden
	}
	assert.Equal(t, "match", golden["example1_single_press"])
	assert.Equal(t, "match", golden["example2_four_presses"])
	assert.Equal(t, "", golden["counters345_period"])
}

func TestTestCommandFilter(t *testing.T) {
	out, err := execute(t, "text", NewTestCommand, "--filter", "example2*", filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ example2_first_press\n")
	assert.Contains(t, out, "✓ example2_four_presses\n")
	assert.NotContains(t, out, "example1")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
}

func TestTestCommandGoldenLifecycle(t *testing.T) {
	root := t.TempDir()
	scenarios := filepath.Join(root, "scenarios")
	require.NoError(t, os.MkdirAll(scenarios, 0755))
	writeFile(t, scenarios, "tiny.yaml", passingScenario)
	goldenPath := filepath.Join(root, "golden", "tiny.golden")

	out, err := execute(t, "text", NewTestCommand, "--update", scenarios)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ tiny (golden updated)")

	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"tiny"`)
	assert.Contains(t, string(data), `"from":"broadcaster"`)

	out, err = execute(t, "json", NewTestCommand, scenarios)
	require.NoError(t, err)
	var got TestResult
	decodeData(t, out, &got)
	require.Len(t, got.Scenarios, 1)
	assert.Equal(t, "match", got.Scenarios[0].Golden)

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"trace":[]}`), 0644))
	out, err = execute(t, "text", NewTestCommand, scenarios)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ tiny")
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommandCustomGoldenDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tiny.yaml", passingScenario)
	goldenDir := filepath.Join(dir, "snapshots")

	_, err := execute(t, "text", NewTestCommand, "--update", "--golden", goldenDir, dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(goldenDir, "tiny.golden"))
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tiny.yaml", passingScenario)
	writeFile(t, dir, "wrong.yaml", failingScenario)
	writeFile(t, dir, "broken.yml", "presses: 1\n")

	out, err := execute(t, "json", NewTestCommand, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var got TestResult
	resp := decodeData(t, out, &got)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 1, got.Passed)
	assert.Equal(t, 2, got.Failed)

	byName := map[string]ScenarioResult{}
	for _, s := range got.Scenarios {
		byName[s.Name] = s
	}
	require.Contains(t, byName, "wrong_tally")
	require.NotEmpty(t, byName["wrong_tally"].Errors)
	assert.Contains(t, byName["wrong_tally"].Errors[0], "low 2 != 5")
	require.Contains(t, byName, "broken.yml")
	assert.Contains(t, byName["broken.yml"].Errors[0], "failed to load scenario")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := execute(t, "text", NewTestCommand, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestTestCommandErrors(t *testing.T) {
	_, err := execute(t, "text", NewTestCommand)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")

	_, err = execute(t, "text", NewTestCommand, "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")

	dir := t.TempDir()
	writeFile(t, dir, "tiny.yaml", passingScenario)
	_, err = execute(t, "text", NewTestCommand, "--filter", "[", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}
