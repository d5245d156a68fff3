package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/pulsenet/internal/ir"
)

// CompileCUE compiles a CUE network description into rules.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The description is a "modules" struct; field order is declaration order:
//
//	modules: {
//		broadcaster: {kind: "broadcaster", targets: ["a"]}
//		a: {kind: "flipflop", targets: ["inv", "con"]}
//		inv: {kind: "conjunction", targets: ["b"]}
//	}
//
// targets may be omitted for modules without outputs.
func CompileCUE(src []byte, filename string) ([]ir.Rule, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileModules(v.LookupPath(cue.ParsePath("modules")))
}

// CompileModules compiles an already-evaluated "modules" struct.
func CompileModules(v cue.Value) ([]ir.Rule, error) {
	if !v.Exists() {
		return nil, &CompileError{
			Field:   "modules",
			Message: "modules is required",
			Pos:     v.Pos(),
		}
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rules []ir.Rule
	for iter.Next() {
		rule, err := compileModule(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if len(rules) == 0 {
		return nil, &CompileError{
			Field:   "modules",
			Message: "at least one module is required",
			Pos:     v.Pos(),
		}
	}

	return rules, nil
}

func compileModule(name string, v cue.Value) (ir.Rule, error) {
	field := "modules." + name

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return ir.Rule{}, &CompileError{
			Field:   field + ".kind",
			Message: "kind is required",
			Pos:     v.Pos(),
		}
	}
	kindName, err := kindVal.String()
	if err != nil {
		return ir.Rule{}, formatCUEError(err)
	}
	kind, err := ir.ParseKind(kindName)
	if err != nil {
		return ir.Rule{}, &CompileError{
			Field:   field + ".kind",
			Message: err.Error(),
			Pos:     kindVal.Pos(),
		}
	}
	if err := validateName(name); err != nil {
		return ir.Rule{}, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	if kind == ir.KindBroadcaster && name != ir.BroadcasterName {
		return ir.Rule{}, &CompileError{
			Field:   field + ".kind",
			Message: fmt.Sprintf("only %q may be a broadcaster", ir.BroadcasterName),
			Pos:     kindVal.Pos(),
		}
	}

	rule := ir.Rule{Name: name, Kind: kind, Targets: []string{}, Line: v.Pos().Line()}

	targetsVal := v.LookupPath(cue.ParsePath("targets"))
	if !targetsVal.Exists() {
		return rule, nil
	}
	list, err := targetsVal.List()
	if err != nil {
		return ir.Rule{}, formatCUEError(err)
	}
	for list.Next() {
		target, err := list.Value().String()
		if err != nil {
			return ir.Rule{}, formatCUEError(err)
		}
		if err := validateName(target); err != nil {
			return ir.Rule{}, &CompileError{
				Field:   field + ".targets",
				Message: err.Error(),
				Pos:     list.Value().Pos(),
			}
		}
		rule.Targets = append(rule.Targets, target)
	}

	return rule, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
