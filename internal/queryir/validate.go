package queryir

import (
	"fmt"

	"github.com/roach88/pulsenet/internal/ir"
)

// ValidationResult lists everything wrong with a query.
type ValidationResult struct {
	// Valid is true when Errors is empty.
	Valid bool

	// Errors describes each problem found, in traversal order.
	Errors []string
}

// Validate checks a query against the table catalogue.
//
// Rules:
//  1. The table must exist
//  2. Columns must be explicit and exist in the table
//  3. Predicate fields must exist in the table
//  4. Equals values must match the column type; no nil
//  5. Between applies to integer columns with lo <= hi
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{
		errors: []string{},
	}
	v.validateQuery(query)

	return ValidationResult{
		Valid:  len(v.errors) == 0,
		Errors: v.errors,
	}
}

type validator struct {
	errors []string
	table  map[string]ColumnType
	name   string
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addError("nil query")
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	default:
		v.addError("unknown query type: %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	table, ok := Tables[sel.From]
	if !ok {
		v.addError("unknown table %q", sel.From)
		return
	}
	v.table = table
	v.name = sel.From

	if len(sel.Columns) == 0 {
		v.addError("empty column list; select columns explicitly")
	}
	for _, c := range sel.Columns {
		if _, ok := table[c]; !ok {
			v.addError("unknown column %q in table %q", c, sel.From)
		}
	}

	v.validatePredicate(sel.Filter)
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.validateEquals(pred)
	case *Equals:
		v.validateEquals(*pred)
	case Between:
		v.validateBetween(pred)
	case *Between:
		v.validateBetween(*pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addError("unknown predicate type: %T", p)
	}
}

func (v *validator) column(field string) (ColumnType, bool) {
	t, ok := v.table[field]
	if !ok {
		v.addError("unknown column %q in table %q", field, v.name)
	}
	return t, ok
}

func (v *validator) validateEquals(eq Equals) {
	t, ok := v.column(eq.Field)
	if !ok {
		return
	}
	var got ColumnType
	switch eq.Value.(type) {
	case nil:
		v.addError("column %q compared to nil", eq.Field)
		return
	case string, ir.Pulse:
		got = ColumnText
	case int, int64, bool:
		got = ColumnInteger
	default:
		v.addError("unsupported value type %T for column %q", eq.Value, eq.Field)
		return
	}
	if got != t {
		v.addError("column %q: value %v has the wrong type", eq.Field, eq.Value)
	}
}

func (v *validator) validateBetween(b Between) {
	t, ok := v.column(b.Field)
	if !ok {
		return
	}
	if t != ColumnInteger {
		v.addError("column %q: range needs an integer column", b.Field)
	}
	if b.Lo > b.Hi {
		v.addError("column %q: empty range %d..%d", b.Field, b.Lo, b.Hi)
	}
}
