package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/pulsenet/internal/ir"
)

// Observer is called once for every event delivered during a press,
// including the initial button event, in delivery order.
type Observer func(ir.Event)

// Simulator drives button presses through a graph.
//
// The graph is persistent: module state carries over from one press to the
// next. A Simulator is not safe for concurrent use.
type Simulator struct {
	graph     *Graph
	maxEvents int
	logger    *slog.Logger
	presses   int
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithMaxEventsPerPress sets the per-press event quota.
// Values below 1 are ignored.
func WithMaxEventsPerPress(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.maxEvents = n
		}
	}
}

// WithLogger sets the logger for press diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSimulator creates a simulator over g.
func NewSimulator(g *Graph, opts ...Option) *Simulator {
	s := &Simulator{
		graph:     g,
		maxEvents: DefaultMaxEventsPerPress,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Graph returns the simulated graph.
func (s *Simulator) Graph() *Graph {
	return s.graph
}

// Presses returns the number of completed presses.
func (s *Simulator) Presses() int {
	return s.presses
}

// Press injects a low pulse from the button into the broadcaster and
// delivers events until the network is quiescent.
//
// Events are delivered in strict FIFO order: every pulse emitted while
// handling an event goes to the back of the queue, in target declaration
// order. observe may be nil.
//
// On error the press is abandoned part way and is not counted.
func (s *Simulator) Press(observe Observer) error {
	seed := ir.Event{From: ir.ButtonID, To: s.graph.broadcaster, Value: ir.Low}
	if err := s.propagate(seed, observe); err != nil {
		return err
	}
	s.presses++
	if s.presses%10_000 == 0 {
		s.logger.Debug("presses completed", "presses", s.presses)
	}
	return nil
}

// Inject delivers an arbitrary pulse and everything it causes.
// It does not count as a press. Used to exercise single modules.
func (s *Simulator) Inject(ev ir.Event, observe Observer) error {
	return s.propagate(ev, observe)
}

func (s *Simulator) propagate(seed ir.Event, observe Observer) error {
	press := s.presses + 1
	q := newEventQueue()
	quota := NewQuotaEnforcer(s.maxEvents)
	q.Enqueue(seed)

	for {
		ev, ok := q.TryDequeue()
		if !ok {
			return nil
		}
		if err := quota.Check(press); err != nil {
			s.logger.Warn("press exceeded event quota",
				"press", press,
				"limit", quota.MaxEvents())
			return err
		}
		if observe != nil {
			observe(ev)
		}

		out, emit, err := s.graph.deliver(ev)
		if err != nil {
			if re, ok := err.(*RuntimeError); ok {
				re.Press = press
			}
			return fmt.Errorf("press %d: %w", press, err)
		}
		if !emit {
			continue
		}
		for _, t := range s.graph.nodes[ev.To].targets {
			q.Enqueue(ir.Event{From: ev.To, To: t, Value: out})
		}
	}
}
