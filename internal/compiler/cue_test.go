package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsenet/internal/ir"
)

func TestCompileCUE_Basic(t *testing.T) {
	src := `
modules: {
	broadcaster: {kind: "broadcaster", targets: ["a"]}
	a: {kind: "flipflop", targets: ["inv", "con"]}
	inv: {kind: "conjunction", targets: ["b"]}
	b: {kind: "flipflop", targets: ["con"]}
	con: {kind: "conjunction", targets: ["output"]}
}
`
	rules, err := CompileCUE([]byte(src), "network.cue")
	require.NoError(t, err)
	require.Len(t, rules, 5)

	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"broadcaster", "a", "inv", "b", "con"}, names, "declaration order is preserved")
	assert.Equal(t, ir.KindFlipFlop, rules[1].Kind)
	assert.Equal(t, []string{"inv", "con"}, rules[1].Targets)
	assert.Equal(t, ir.KindConjunction, rules[4].Kind)
}

func TestCompileCUE_MatchesTextFormat(t *testing.T) {
	cueRules, err := CompileCUE([]byte(`
modules: {
	broadcaster: {kind: "broadcaster", targets: ["a", "b"]}
	a: {kind: "flipflop", targets: ["b"]}
	b: {kind: "conjunction", targets: ["a"]}
}
`), "n.cue")
	require.NoError(t, err)

	textRules, err := ParseNetworkString("broadcaster -> a, b\n%a -> b\n&b -> a\n")
	require.NoError(t, err)

	assert.Equal(t, ir.MustNetworkHash(textRules), ir.MustNetworkHash(cueRules))
}

func TestCompileCUE_TargetsOptional(t *testing.T) {
	rules, err := CompileCUE([]byte(`
modules: {
	broadcaster: {kind: "broadcaster", targets: ["x"]}
	x: {kind: "conjunction"}
}
`), "n.cue")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Empty(t, rules[1].Targets)
}

func TestCompileCUE_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{
			name:  "missing modules",
			src:   `network: {}`,
			field: "modules",
		},
		{
			name:  "missing kind",
			src:   `modules: { a: {targets: ["b"]} }`,
			field: "modules.a.kind",
		},
		{
			name:  "unknown kind",
			src:   `modules: { a: {kind: "nand", targets: ["b"]} }`,
			field: "modules.a.kind",
		},
		{
			name:  "sink declared",
			src:   `modules: { a: {kind: "sink"} }`,
			field: "modules.a.kind",
		},
		{
			name:  "misnamed broadcaster",
			src:   `modules: { start: {kind: "broadcaster", targets: ["b"]} }`,
			field: "modules.start.kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileCUE([]byte(tt.src), "bad.cue")
			require.Error(t, err)

			var ce *CompileError
			require.True(t, errors.As(err, &ce), "expected CompileError, got %T: %v", err, err)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileCUE_SyntaxError(t *testing.T) {
	_, err := CompileCUE([]byte(`modules: { a: `), "broken.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.cue")
}
