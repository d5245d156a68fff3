package engine

import (
	"fmt"
	"maps"

	"github.com/roach88/pulsenet/internal/ir"
)

// node is one module in the graph arena.
// Only the fields of its kind are meaningful.
type node struct {
	name     string
	kind     ir.Kind
	targets  []ir.ModuleID // declaration order, duplicates kept
	preds    []ir.ModuleID // modules with an edge into this one, first-seen order
	implicit bool          // synthesized sink for an undeclared target

	on bool // flip-flop

	memory map[ir.ModuleID]ir.Pulse // conjunction: last pulse per input
	highs  int                      // conjunction: number of High values in memory

	lowSeen bool // sink
}

// Graph is the module graph: a flat arena of nodes addressed by ModuleID
// plus the static wiring between them.
//
// The wiring never changes after Build. Node state changes only through
// deliver, which the Simulator calls once per dequeued event.
type Graph struct {
	nodes       []node
	index       map[string]ir.ModuleID
	broadcaster ir.ModuleID
	rules       []ir.Rule
}

// Build constructs a graph from parsed rules.
//
// Every declared module gets a node of its kind with default state. For every
// edge A → B, B is appended to A's targets and, if B is a conjunction, A is
// added to B's memory as Low. A target that is never declared becomes an
// implicit sink with no outputs.
//
// Build is all-or-nothing: on error no graph is returned.
func Build(rules []ir.Rule) (*Graph, error) {
	g := &Graph{
		index:       make(map[string]ir.ModuleID, len(rules)),
		broadcaster: -1,
		rules:       make([]ir.Rule, len(rules)),
	}
	copy(g.rules, rules)

	// Pass 1: declared modules.
	for _, r := range rules {
		if err := validateRule(r); err != nil {
			return nil, err
		}
		if prev, dup := g.index[r.Name]; dup {
			return nil, &BuildError{
				Code:    ErrCodeDuplicateModule,
				Module:  r.Name,
				Line:    r.Line,
				Message: fmt.Sprintf("module %q declared twice (first on line %d)", r.Name, g.rules[prev].Line),
			}
		}
		id := g.addNode(r.Name, r.Kind, false)
		if r.Kind == ir.KindBroadcaster {
			g.broadcaster = id
		}
	}
	if g.broadcaster < 0 {
		return nil, &BuildError{
			Code:    ErrCodeMissingBroadcaster,
			Module:  ir.BroadcasterName,
			Message: "network has no broadcaster",
		}
	}

	// Pass 2: edges, synthesizing sinks for undeclared targets.
	for i, r := range rules {
		from := ir.ModuleID(i)
		for _, t := range r.Targets {
			to, ok := g.index[t]
			if !ok {
				to = g.addNode(t, ir.KindSink, true)
			}
			g.connect(from, to)
		}
	}

	return g, nil
}

func validateRule(r ir.Rule) error {
	switch {
	case r.Name == "":
		return &BuildError{Code: ErrCodeInvalidModule, Line: r.Line, Message: "module name is empty"}
	case r.Name == ir.ButtonName:
		return &BuildError{Code: ErrCodeInvalidModule, Module: r.Name, Line: r.Line, Message: "module name is reserved for the button"}
	case r.Kind == ir.KindBroadcaster && r.Name != ir.BroadcasterName:
		return &BuildError{Code: ErrCodeInvalidModule, Module: r.Name, Line: r.Line, Message: fmt.Sprintf("only %q may be a broadcaster", ir.BroadcasterName)}
	case r.Kind != ir.KindBroadcaster && r.Name == ir.BroadcasterName:
		return &BuildError{Code: ErrCodeInvalidModule, Module: r.Name, Line: r.Line, Message: fmt.Sprintf("%q must be a broadcaster, not a %s", r.Name, r.Kind)}
	case r.Kind != ir.KindBroadcaster && r.Kind != ir.KindFlipFlop && r.Kind != ir.KindConjunction:
		return &BuildError{Code: ErrCodeInvalidModule, Module: r.Name, Line: r.Line, Message: fmt.Sprintf("module kind %s cannot be declared", r.Kind)}
	}
	return nil
}

func (g *Graph) addNode(name string, kind ir.Kind, implicit bool) ir.ModuleID {
	id := ir.ModuleID(len(g.nodes))
	n := node{name: name, kind: kind, implicit: implicit}
	if kind == ir.KindConjunction {
		n.memory = make(map[ir.ModuleID]ir.Pulse)
	}
	g.nodes = append(g.nodes, n)
	g.index[name] = id
	return id
}

func (g *Graph) connect(from, to ir.ModuleID) {
	src := &g.nodes[from]
	dst := &g.nodes[to]
	src.targets = append(src.targets, to)

	for _, p := range dst.preds {
		if p == from {
			return
		}
	}
	dst.preds = append(dst.preds, from)
	if dst.kind == ir.KindConjunction {
		dst.memory[from] = ir.Low
	}
}

// deliver applies ev to its receiver and reports the pulse the receiver
// sends to every one of its targets, if it sends anything.
func (g *Graph) deliver(ev ir.Event) (ir.Pulse, bool, error) {
	if ev.To < 0 || int(ev.To) >= len(g.nodes) {
		return ir.Low, false, NewUnknownModuleError(int(ev.To))
	}
	n := &g.nodes[ev.To]

	switch n.kind {
	case ir.KindBroadcaster:
		return ir.Low, true, nil

	case ir.KindFlipFlop:
		if ev.Value == ir.High {
			return ir.Low, false, nil
		}
		n.on = !n.on
		return ir.Pulse(n.on), true, nil

	case ir.KindConjunction:
		prev, ok := n.memory[ev.From]
		if !ok {
			return ir.Low, false, NewUnknownInputError(g.Name(ev.From), n.name)
		}
		if prev != ev.Value {
			if ev.Value == ir.High {
				n.highs++
			} else {
				n.highs--
			}
			n.memory[ev.From] = ev.Value
		}
		if n.highs == len(n.memory) {
			return ir.Low, true, nil
		}
		return ir.High, true, nil

	case ir.KindSink:
		if ev.Value == ir.Low {
			n.lowSeen = true
		}
		return ir.Low, false, nil

	default:
		return ir.Low, false, fmt.Errorf("module %q has unknown kind %d", n.name, n.kind)
	}
}

// Reset restores every module to its initial state. Wiring is untouched.
func (g *Graph) Reset() {
	for i := range g.nodes {
		n := &g.nodes[i]
		n.on = false
		n.lowSeen = false
		n.highs = 0
		for k := range n.memory {
			n.memory[k] = ir.Low
		}
	}
}

// Len returns the number of modules, implicit sinks included.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Broadcaster returns the broadcaster's ID.
func (g *Graph) Broadcaster() ir.ModuleID {
	return g.broadcaster
}

// ID looks up a module by name.
func (g *Graph) ID(name string) (ir.ModuleID, bool) {
	id, ok := g.index[name]
	return id, ok
}

// Name returns the module name, or "button" for ButtonID.
func (g *Graph) Name(id ir.ModuleID) string {
	if id == ir.ButtonID {
		return ir.ButtonName
	}
	if id < 0 || int(id) >= len(g.nodes) {
		return fmt.Sprintf("#%d", int(id))
	}
	return g.nodes[id].name
}

// Kind returns the module kind.
func (g *Graph) Kind(id ir.ModuleID) ir.Kind {
	return g.nodes[id].kind
}

// Targets returns the module's outputs in declaration order.
func (g *Graph) Targets(id ir.ModuleID) []ir.ModuleID {
	return append([]ir.ModuleID(nil), g.nodes[id].targets...)
}

// Predecessors returns every module with an edge into id, first-seen order.
// For a conjunction this is exactly its memory key set.
func (g *Graph) Predecessors(id ir.ModuleID) []ir.ModuleID {
	return append([]ir.ModuleID(nil), g.nodes[id].preds...)
}

// State reports whether a flip-flop is on.
func (g *Graph) State(id ir.ModuleID) bool {
	return g.nodes[id].on
}

// Memory returns a copy of a conjunction's memory, nil for other kinds.
func (g *Graph) Memory(id ir.ModuleID) map[ir.ModuleID]ir.Pulse {
	if g.nodes[id].memory == nil {
		return nil
	}
	return maps.Clone(g.nodes[id].memory)
}

// LowSeen reports whether a sink has received a low pulse since the last Reset.
func (g *Graph) LowSeen(id ir.ModuleID) bool {
	return g.nodes[id].lowSeen
}

// Implicit reports whether the module was synthesized for an undeclared target.
func (g *Graph) Implicit(id ir.ModuleID) bool {
	return g.nodes[id].implicit
}

// ImplicitSinks returns the names of synthesized sinks in first-seen order.
func (g *Graph) ImplicitSinks() []string {
	var names []string
	for _, n := range g.nodes {
		if n.implicit {
			names = append(names, n.name)
		}
	}
	return names
}

// Rules returns a copy of the rules the graph was built from.
func (g *Graph) Rules() []ir.Rule {
	return append([]ir.Rule(nil), g.rules...)
}

// KindCounts returns how many modules of each kind the graph holds.
func (g *Graph) KindCounts() map[ir.Kind]int {
	counts := make(map[ir.Kind]int)
	for _, n := range g.nodes {
		counts[n.kind]++
	}
	return counts
}
