// Package store provides SQLite-backed durable storage for simulation runs.
//
// A run is one network pressed some number of times from its initial state.
// The store keeps:
//   - Runs: the network (canonical rules and hash), press count, pulse
//     totals and the trace hash
//   - Events: every delivered pulse of the run, stamped with seq and press
//
// # Critical Patterns
//
// Logical Identity and Time
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - Run IDs are UUIDv7, so listing by ID is listing by creation
//
// Deterministic Query Results
//   - Every query has an ORDER BY with a total order
//   - Reads return empty slices, never nil
//
// Atomic Runs
//   - A run and all of its events are written in one transaction
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Network and trace hashes are computed by internal/ir/hash.go over
// canonical JSON with SHA-256 and domain separation.
package store
