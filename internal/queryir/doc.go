// Package queryir is a small query representation for reading persisted
// runs back out of the run log.
//
// The CLI and the scenario harness describe what they want (events of one
// run, restricted by press, sender, receiver or pulse value) as a Select
// with a Predicate tree. The querysql package turns that into parameterized
// SQL. Keeping the two apart means filter construction is testable without a
// database, and column names are checked against a fixed catalogue before any
// SQL is built.
//
//	[CLI flags / scenario] → EventFilter → Select → [querysql] → SQL + params
//
// Only conjunctive filters exist: Equals, Between and And. There are no ORs,
// joins or NULL comparisons; the run log has no nullable columns.
package queryir
