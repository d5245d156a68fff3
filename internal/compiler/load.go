package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/pulsenet/internal/ir"
)

// LoadFile reads a network description from disk.
// Files ending in ".cue" are compiled as CUE; anything else is parsed as
// text rules.
func LoadFile(path string) ([]ir.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		return CompileCUE(data, path)
	}
	rules, err := ParseNetworkString(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}
