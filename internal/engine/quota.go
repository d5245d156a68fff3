package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxEventsPerPress bounds a single press.
// The reference networks deliver a few hundred events per press.
const DefaultMaxEventsPerPress = 1_000_000

// QuotaEnforcer counts events delivered during one press and enforces the
// per-press limit.
//
// A press normally terminates because flip-flops absorb high pulses. A ring
// made only of conjunctions never quiesces; the quota turns that into an
// error instead of a hang.
type QuotaEnforcer struct {
	maxEvents int
	current   int
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
func NewQuotaEnforcer(maxEvents int) *QuotaEnforcer {
	return &QuotaEnforcer{maxEvents: maxEvents}
}

// Check increments the event counter and validates against the limit.
// Returns StepsExceededError if the quota is exceeded.
func (q *QuotaEnforcer) Check(press int) error {
	q.current++
	if q.current > q.maxEvents {
		return &StepsExceededError{
			Press: press,
			Steps: q.current,
			Limit: q.maxEvents,
		}
	}
	return nil
}

// Reset resets the event counter to 0.
func (q *QuotaEnforcer) Reset() {
	q.current = 0
}

// Current returns the current event count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxEvents returns the limit.
func (q *QuotaEnforcer) MaxEvents() int {
	return q.maxEvents
}

// StepsExceededError is returned when a press delivers more events than the quota.
type StepsExceededError struct {
	Press int // 1-based press that ran away
	Steps int // events delivered when the limit tripped
	Limit int
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("press %d exceeded event quota: %d events > %d limit",
		e.Press, e.Steps, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
