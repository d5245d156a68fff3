// Package analysis answers questions about a network by pressing it.
//
// Tally counts pulses over a fixed number of presses. Period predicts the
// first press at which a sink receives a low pulse without simulating that
// far: the sink is gated by one conjunction, and the gate emits low only in
// the press where every feeder sends it high. Each feeder does so on a fixed
// cycle, so the answer is the LCM of the cycle lengths. FirstLow finds the
// same press by brute force.
//
// All three mutate the simulator's graph. Pass a freshly built graph, or
// call Graph.Reset, when press indices matter.
package analysis
