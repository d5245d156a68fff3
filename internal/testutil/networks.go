package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsenet/internal/compiler"
	"github.com/roach88/pulsenet/internal/ir"
)

// Reference networks shared by tests across packages.
const (
	// Example1 is a three flip-flop chain closed by an inverter.
	// Every press delivers 8 low and 4 high pulses; 1000 presses tally 32000000.
	Example1 = `broadcaster -> a, b, c
%a -> b
%b -> c
%c -> inv
&inv -> a
`

	// Example2 leaves "output" undeclared, so it becomes an implicit sink.
	// The first press delivers 4 low and 4 high pulses; 1000 presses tally 11687500.
	Example2 = `broadcaster -> a
%a -> inv, con
&inv -> b
%b -> con
&con -> output
`

	// Counters345 gates rx behind m, whose feeders fx, fy and fz first send
	// high at presses 3, 4 and 5 and then every 3, 4 and 5 presses.
	// dx and ex delay x's reset until fy and fz have reported, so the highs
	// overlap and brute force agrees with the predicted LCM(3, 4, 5) = 60.
	Counters345 = `broadcaster -> x0, y0, z0
%x0 -> x1, cx
%x1 -> cx
&cx -> fx, dx
&dx -> ex
&ex -> x0
&fx -> m
%y0 -> y1
%y1 -> y2
%y2 -> cy
&cy -> fy, y2
&fy -> m
%z0 -> z1, cz
%z1 -> z2
%z2 -> cz
&cz -> fz, z0, z1
&fz -> m
&m -> rx
`

	// NonPeriodic resets its counters early and wires fy's reset differently:
	// fy sends high at presses 4, 9, 14 and so on, so its first hit does not
	// predict the later ones. Brute force sees rx receive low first at press 15.
	NonPeriodic = `broadcaster -> x0, y0, z0
%x0 -> x1, cx
%x1 -> cx
&cx -> x0, fx
&fx -> m
%y0 -> y1
%y1 -> y2
%y2 -> cy
&cy -> y0, y1, fy
&fy -> m
%z0 -> z1, cz
%z1 -> z2
%z2 -> cz
&cz -> z0, z1, fz
&fz -> m
&m -> rx
`

	// ConjunctionRing never quiesces: x and y keep forwarding high to each other.
	ConjunctionRing = `broadcaster -> x
&x -> y
&y -> x
`
)

// MustRules parses a text network or fails the test.
func MustRules(t testing.TB, src string) []ir.Rule {
	t.Helper()
	rules, err := compiler.ParseNetworkString(src)
	require.NoError(t, err)
	return rules
}
