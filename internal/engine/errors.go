package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while a press is running.
//
// Runtime errors include:
//   - Unknown input: a conjunction received a pulse from a module that is not
//     one of its inputs
//   - Unknown module: an event addressed a module outside the graph
//   - Quota exceeded: a press delivered more events than allowed
//
// A RuntimeError aborts the press. Module state is left as it was when the
// error occurred; call Graph.Reset before reusing the graph.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Press is the 1-based press index, 0 if unknown.
	Press int

	// Module names the module that detected the error.
	Module string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownInput indicates a conjunction received a pulse from a non-input.
	ErrCodeUnknownInput RuntimeErrorCode = "UNKNOWN_INPUT"

	// ErrCodeUnknownModule indicates an event addressed a nonexistent module.
	ErrCodeUnknownModule RuntimeErrorCode = "UNKNOWN_MODULE"

	// ErrCodeQuotaExceeded indicates a press exceeded the event quota.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Press > 0 && e.Module != "" {
		return fmt.Sprintf("%s: %s (press=%d, module=%s)", e.Code, e.Message, e.Press, e.Module)
	}
	if e.Module != "" {
		return fmt.Sprintf("%s: %s (module=%s)", e.Code, e.Message, e.Module)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnknownInputError returns true if a conjunction saw a pulse from a non-input.
// Uses errors.As to handle wrapped errors.
func IsUnknownInputError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeUnknownInput
	}
	return false
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and StepsExceededError.
func IsQuotaError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeQuotaExceeded
	}
	var se *StepsExceededError
	return errors.As(err, &se)
}

// NewUnknownInputError creates a RuntimeError for a pulse from a sender that
// is not in the conjunction's memory.
func NewUnknownInputError(from, conjunction string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeUnknownInput,
		Message: fmt.Sprintf("conjunction received pulse from %q, which is not one of its inputs", from),
		Module:  conjunction,
		Details: map[string]string{"from": from},
	}
}

// NewUnknownModuleError creates a RuntimeError for an out-of-range module ID.
func NewUnknownModuleError(id int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeUnknownModule,
		Message: fmt.Sprintf("event addressed to unknown module id %d", id),
		Details: map[string]string{"id": fmt.Sprintf("%d", id)},
	}
}

// BuildError reports a network that cannot be turned into a graph.
type BuildError struct {
	Code    BuildErrorCode
	Module  string
	Line    int // 1-based source line, 0 if unknown
	Message string
}

// BuildErrorCode categorizes build errors.
type BuildErrorCode string

const (
	// ErrCodeDuplicateModule indicates a module name declared more than once.
	ErrCodeDuplicateModule BuildErrorCode = "DUPLICATE_MODULE"

	// ErrCodeMissingBroadcaster indicates no broadcaster was declared.
	ErrCodeMissingBroadcaster BuildErrorCode = "MISSING_BROADCASTER"

	// ErrCodeInvalidModule indicates an empty or reserved name, or a kind that
	// does not match the name.
	ErrCodeInvalidModule BuildErrorCode = "INVALID_MODULE"
)

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", e.Code, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsBuildError returns true if the error is a BuildError with the given code.
func IsBuildError(err error, code BuildErrorCode) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}
