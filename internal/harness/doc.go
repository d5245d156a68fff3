// Package harness runs YAML test scenarios against the simulator.
//
// A scenario names a network (a file path or inline rules), a number of
// presses and a list of assertions:
//
//	name: example2_first_press
//	description: One press of the reference network
//	network: ../networks/example2.txt
//	presses: 1
//	assertions:
//	  - type: tally
//	    low: 4
//	    high: 4
//	  - type: trace_order
//	    events: ["a -high-> inv", "inv -low-> b"]
//
// Each scenario runs against a freshly built graph and a fresh in-memory run
// log. The recorded trace is persisted and read back before assertions run,
// so pulse_count assertions exercise the same query path as the CLI.
//
// Analysis assertions (period, first_low) build their own fresh graph from
// the scenario's rules and do not see the scenario's presses.
//
// Golden snapshots (RunWithGolden) store the canonical JSON trace under
// testdata/golden/<name>.golden; regenerate with:
//
//	go test ./internal/harness -update
package harness
