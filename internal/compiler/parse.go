package compiler

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/pulsenet/internal/ir"
)

// ruleSeparator splits a rule into its module and its target list.
const ruleSeparator = "->"

// ParseError reports a malformed rule in a text network description.
type ParseError struct {
	Line    int    // 1-based line number
	Text    string // offending line, trimmed
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Message, e.Text)
}

// ParseNetwork parses a line-oriented network description:
//
//	broadcaster -> a, b
//	%a -> inv
//	&inv -> a, output
//
// Blank lines and lines starting with '#' are skipped. Either all rules are
// returned or the first error; a partial rule list is never returned.
func ParseNetwork(r io.Reader) ([]ir.Rule, error) {
	var rules []ir.Rule

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		rule, err := ParseRule(text)
		if err != nil {
			return nil, withLine(err, line)
		}
		rule.Line = line
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read network: %w", err)
	}

	return rules, nil
}

// ParseNetworkString is ParseNetwork over a string.
func ParseNetworkString(s string) ([]ir.Rule, error) {
	return ParseNetwork(strings.NewReader(s))
}

// ParseRule parses a single "<prefix><name> -> <t1>, <t2>" rule.
//
// The target list may be empty ("x ->"), but an empty element inside a
// non-empty list ("a -> b, , c") is malformed.
func ParseRule(text string) (ir.Rule, error) {
	text = strings.TrimSpace(text)

	lhs, rhs, ok := strings.Cut(text, ruleSeparator)
	if !ok {
		return ir.Rule{}, &ParseError{Text: text, Message: "missing \"->\" separator"}
	}
	lhs = strings.TrimSpace(lhs)
	rhs = strings.TrimSpace(rhs)

	kind, name, err := parseModule(lhs)
	if err != nil {
		return ir.Rule{}, &ParseError{Text: text, Message: err.Error()}
	}

	targets, err := parseTargets(rhs)
	if err != nil {
		return ir.Rule{}, &ParseError{Text: text, Message: err.Error()}
	}

	return ir.Rule{Name: name, Kind: kind, Targets: targets}, nil
}

// parseModule splits the kind prefix from the module name.
func parseModule(lhs string) (ir.Kind, string, error) {
	if lhs == "" {
		return 0, "", fmt.Errorf("missing module name")
	}

	kind := ir.KindBroadcaster
	name := lhs
	switch lhs[0] {
	case '%':
		kind, name = ir.KindFlipFlop, lhs[1:]
	case '&':
		kind, name = ir.KindConjunction, lhs[1:]
	}

	if name == "" {
		return 0, "", fmt.Errorf("missing module name after %q prefix", kind.Prefix())
	}
	if err := validateName(name); err != nil {
		return 0, "", err
	}
	if kind == ir.KindBroadcaster && name != ir.BroadcasterName {
		return 0, "", fmt.Errorf("unknown kind prefix for module %q (expected %%, & or %s)", name, ir.BroadcasterName)
	}

	return kind, name, nil
}

func parseTargets(rhs string) ([]string, error) {
	if rhs == "" {
		return []string{}, nil
	}

	parts := strings.Split(rhs, ",")
	targets := make([]string, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("empty target at position %d", i+1)
		}
		if err := validateName(p); err != nil {
			return nil, err
		}
		targets = append(targets, p)
	}
	return targets, nil
}

// validateName rejects names that would not survive a round trip through
// the text format.
func validateName(name string) error {
	if strings.ContainsAny(name, " \t,%&") || strings.Contains(name, ruleSeparator) {
		return fmt.Errorf("invalid module name %q", name)
	}
	if name == ir.ButtonName {
		return fmt.Errorf("module name %q is reserved", name)
	}
	return nil
}

func withLine(err error, line int) error {
	if pe, ok := err.(*ParseError); ok {
		pe.Line = line
		return pe
	}
	return fmt.Errorf("line %d: %w", line, err)
}

// FormatNetwork renders rules back into the text format, one per line.
func FormatNetwork(rules []ir.Rule) string {
	var b strings.Builder
	for _, r := range rules {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	return b.String()
}
