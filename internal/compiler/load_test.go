package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsenet/internal/ir"
)

func TestLoadFile_TextAndCUEAgree(t *testing.T) {
	dir := t.TempDir()
	text := filepath.Join(dir, "net.txt")
	require.NoError(t, os.WriteFile(text, []byte("broadcaster -> a\n%a -> con\n&con -> output\n"), 0o644))

	cueFile := filepath.Join(dir, "net.cue")
	require.NoError(t, os.WriteFile(cueFile, []byte(`modules: {
	broadcaster: {kind: "broadcaster", targets: ["a"]}
	a: {kind: "flipflop", targets: ["con"]}
	con: {kind: "conjunction", targets: ["output"]}
}
`), 0o644))

	fromText, err := LoadFile(text)
	require.NoError(t, err)
	fromCUE, err := LoadFile(cueFile)
	require.NoError(t, err)

	assert.Equal(t, ir.MustNetworkHash(fromText), ir.MustNetworkHash(fromCUE))
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("broadcaster -> a\n%a b\n"), 0o644))
	_, err = LoadFile(bad)
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)
	assert.Contains(t, err.Error(), "bad.txt")
}
