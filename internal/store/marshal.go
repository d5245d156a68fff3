package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/pulsenet/internal/ir"
)

// marshalRules converts rules to canonical JSON TEXT for storage.
// The same bytes feed the network hash, so a stored run can be re-hashed.
func marshalRules(rules []ir.Rule) (string, error) {
	data, err := ir.MarshalCanonical(rules)
	if err != nil {
		return "", fmt.Errorf("marshal rules: %w", err)
	}
	return string(data), nil
}

// unmarshalRules parses stored rules. Line numbers are not stored.
func unmarshalRules(data string) ([]ir.Rule, error) {
	if data == "" {
		return []ir.Rule{}, nil
	}
	var rules []ir.Rule
	if err := json.Unmarshal([]byte(data), &rules); err != nil {
		return nil, fmt.Errorf("unmarshal rules: %w", err)
	}
	for i := range rules {
		if rules[i].Targets == nil {
			rules[i].Targets = []string{}
		}
	}
	return rules, nil
}
