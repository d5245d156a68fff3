package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsenet/internal/ir"
	"github.com/roach88/pulsenet/internal/testutil"
)

const counterCUE = `package network

modules: {
	broadcaster: {kind: "broadcaster", targets: ["a"]}
	a: {kind: "flipflop", targets: ["inv", "con"]}
	inv: {kind: "conjunction", targets: ["b"]}
	b: {kind: "flipflop", targets: ["con"]}
	con: {kind: "conjunction", targets: ["output"]}
}
`

func TestValidateText(t *testing.T) {
	path := writeFile(t, t.TempDir(), "example2.txt", testutil.Example2)

	out, err := execute(t, "text", NewValidateCommand, path)
	require.NoError(t, err)

	assert.Contains(t, out, "is valid")
	assert.Contains(t, out, "6 modules: 1 broadcaster 2 flipflop 2 conjunction 1 sink")
	assert.Contains(t, out, "implicit sinks: output")
	assert.NotContains(t, out, "loop:")
}

func TestValidateJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "example1.txt", testutil.Example1)

	out, err := execute(t, "json", NewValidateCommand, path)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	got := resp.Data
	assert.True(t, got.Valid)
	assert.Equal(t, 5, got.Modules)
	assert.Equal(t, map[string]int{"broadcaster": 1, "flipflop": 3, "conjunction": 1}, got.Kinds)
	assert.Empty(t, got.ImplicitSinks)
	assert.Equal(t, ir.MustNetworkHash(testutil.MustRules(t, testutil.Example1)), got.NetworkHash)

	require.Len(t, got.Loops, 1)
	assert.Equal(t, []string{"a", "b", "c", "inv"}, got.Loops[0].Modules)
	assert.True(t, got.Loops[0].HasConjunction)
}

func TestValidateCUEFileAndDirectory(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "net.cue", counterCUE)

	textPath := writeFile(t, t.TempDir(), "example2.txt", testutil.Example2)
	want := ir.MustNetworkHash(testutil.MustRules(t, testutil.Example2))

	for _, path := range []string{file, dir, textPath} {
		out, err := execute(t, "json", NewValidateCommand, path)
		require.NoError(t, err, path)

		var resp struct {
			Data ValidationResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, want, resp.Data.NetworkHash, path)
		assert.Equal(t, []string{"output"}, resp.Data.ImplicitSinks)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		code    string
		message string
	}{
		{
			name:    "missing path",
			setup:   func(t *testing.T) string { return "/nonexistent/network.txt" },
			code:    ErrCodeNotFound,
			message: "network not found",
		},
		{
			name:    "empty directory",
			setup:   func(t *testing.T) string { return t.TempDir() },
			code:    ErrCodeNoFiles,
			message: "no CUE files found",
		},
		{
			name: "malformed rule",
			setup: func(t *testing.T) string {
				return writeFile(t, t.TempDir(), "bad.txt", "broadcaster -> a\n%a b\n")
			},
			code:    ErrCodeParse,
			message: "line 2",
		},
		{
			name: "duplicate module",
			setup: func(t *testing.T) string {
				return writeFile(t, t.TempDir(), "dup.txt", "broadcaster -> a\n%a -> b\n&a -> b\n")
			},
			code:    ErrCodeDuplicate,
			message: "first on line 2",
		},
		{
			name: "no broadcaster",
			setup: func(t *testing.T) string {
				return writeFile(t, t.TempDir(), "nob.txt", "%a -> b\n")
			},
			code:    ErrCodeNoBroadcast,
			message: "no broadcaster",
		},
		{
			name: "bad CUE kind",
			setup: func(t *testing.T) string {
				return writeFile(t, t.TempDir(), "bad.cue", `modules: {broadcaster: {kind: "broadcaster", targets: ["a"]}, a: {kind: "relay"}}`)
			},
			code:    ErrCodeCompile,
			message: "relay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "json", NewValidateCommand, tt.setup(t))
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.code)

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, tt.message)
		})
	}
}
