package main

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test-only packages must stay out of the binary.
func TestBinaryImportsNoTestPackages(t *testing.T) {
	forbidden := func(path string) bool {
		return path == "testing" ||
			strings.HasPrefix(path, "github.com/stretchr/testify") ||
			strings.HasPrefix(path, "github.com/sebdah/goldie") ||
			path == "github.com/roach88/pulsenet/internal/testutil"
	}

	checked := 0
	for _, root := range []string{".", filepath.Join("..", "..", "internal")} {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == "testdata" || d.Name() == "testutil" {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}

			f, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.ImportsOnly)
			require.NoError(t, err, path)
			for _, spec := range f.Imports {
				imp, err := strconv.Unquote(spec.Path.Value)
				require.NoError(t, err)
				assert.False(t, forbidden(imp), "%s imports %s", path, imp)
			}
			checked++
			return nil
		})
		require.NoError(t, err)
	}
	assert.Greater(t, checked, 10)
}
