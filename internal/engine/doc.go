// Package engine simulates pulse propagation through a module network.
//
// A Graph is built once from parsed rules and then mutated across presses.
// Each press seeds a fresh FIFO queue with a low pulse from the button to the
// broadcaster and delivers events one at a time until the queue is empty.
//
// Event Processing Flow:
// 1. Dequeue the front event
// 2. Hand it to the observer, if any
// 3. Apply the receiver's transition (broadcaster, flip-flop, conjunction, sink)
// 4. Enqueue one event per target of the receiver, if it emitted
//
// Delivery order is the only source of ordering. There is no concurrency,
// randomness or wall-clock time in the loop, so the same graph pressed the
// same number of times always produces the same event sequence.
//
// Traces are stamped by a logical Clock. NEVER use wall-clock timestamps for
// ordering.
package engine
