package engine

// Clock is a monotonic logical clock for trace ordering.
//
// Every recorded event is stamped with a strictly increasing seq number.
// Seq is global across presses, so a trace sorts by seq alone and replay
// reproduces the exact order.
//
// The simulator is single-threaded; Clock is not safe for concurrent use.
type Clock struct {
	seq int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start.
// Used to append presses to an existing recorded run.
func NewClockAt(start int64) *Clock {
	return &Clock{seq: start}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq
}
