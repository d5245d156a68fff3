package analysis

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownSink means the named sink is not a module of the graph.
	ErrUnknownSink = errors.New("unknown sink")

	// ErrNoGate means no module targets the sink.
	ErrNoGate = errors.New("sink has no inputs")

	// ErrAmbiguousGate means the sink does not have exactly one input, or its
	// only input is not a conjunction.
	ErrAmbiguousGate = errors.New("sink is not gated by exactly one conjunction")

	// ErrNoFeeders means the gate has no inputs, so it can never fire.
	ErrNoFeeders = errors.New("gate has no feeders")

	// ErrOverflow means the LCM does not fit in 64 bits.
	ErrOverflow = errors.New("lcm overflows uint64")
)

// NonConvergenceError is returned when the press cap is reached before every
// feeder has been observed.
type NonConvergenceError struct {
	MaxPresses int
	Missing    []string // feeders still lacking an observation, feeder order
}

// Error implements the error interface.
func (e *NonConvergenceError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("no result within %d presses", e.MaxPresses)
	}
	return fmt.Sprintf("no result within %d presses (missing: %s)",
		e.MaxPresses, strings.Join(e.Missing, ", "))
}

// NotPeriodicError is returned when a feeder's second high pulse does not
// land at twice its first press index, so the LCM of first indices would
// not predict the sink.
type NotPeriodicError struct {
	Feeder string
	First  int
	Second int
}

// Error implements the error interface.
func (e *NotPeriodicError) Error() string {
	return fmt.Sprintf("feeder %s is not periodic: first high at press %d, second at %d (want %d)",
		e.Feeder, e.First, e.Second, 2*e.First)
}

// IsNonConvergence returns true if the error is a NonConvergenceError.
func IsNonConvergence(err error) bool {
	var nc *NonConvergenceError
	return errors.As(err, &nc)
}

// IsNotPeriodic returns true if the error is a NotPeriodicError.
func IsNotPeriodic(err error) bool {
	var np *NotPeriodicError
	return errors.As(err, &np)
}
