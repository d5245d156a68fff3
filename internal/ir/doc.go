// Package ir provides the shared types of the pulse network simulator.
//
// This package contains type definitions and canonical serialization only.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Pulses are binary (Low/High); there is no third value
//   - Module kinds form a closed set dispatched by a single switch
//   - Modules are addressed by small integer IDs (arena indices)
//   - Traces are ordered by a logical seq counter, never wall-clock time
package ir
