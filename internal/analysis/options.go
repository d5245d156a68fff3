package analysis

import (
	"context"
	"log/slog"
)

// DefaultMaxPresses bounds Period and FirstLow.
const DefaultMaxPresses = 100_000

type config struct {
	ctx        context.Context
	logger     *slog.Logger
	maxPresses int
	verify     bool
}

// Option configures an analysis.
type Option func(*config)

func newConfig(opts []Option) *config {
	c := &config{
		ctx:        context.Background(),
		logger:     slog.Default(),
		maxPresses: DefaultMaxPresses,
		verify:     true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithContext lets a caller cancel a long analysis between presses.
// A press in progress always runs to quiescence.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// WithLogger sets the logger for analysis milestones.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxPresses caps the number of presses. Values below 1 are ignored.
func WithMaxPresses(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxPresses = n
		}
	}
}

// WithoutVerification makes Period trust each feeder's first high pulse.
//
// By default Period also waits for the second one and requires it to land
// at exactly twice the first press index. Skipping that halves the presses
// but silently gives a wrong answer on a network whose feeders are not
// periodic from press 1.
func WithoutVerification() Option {
	return func(c *config) {
		c.verify = false
	}
}
