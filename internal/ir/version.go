package ir

// Version constants stamped on persisted runs.
const (
	// SchemaVersion is the version of the persisted run layout.
	SchemaVersion = "1"

	// EngineVersion is the gridmerge engine version.
	EngineVersion = "0.1.0"
)
