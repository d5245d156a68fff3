package ir

// Version constants for persisted runs.
const (
	// IRVersion is the trace schema version.
	IRVersion = "1"

	// EngineVersion is the simulator version.
	EngineVersion = "0.1.0"
)
