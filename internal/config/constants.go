package config

const (
	AppName = "eventkpi"

	// EnvPrefix namespaces every environment variable read by Load.
	EnvPrefix = "EVENTKPI"

	// DefaultStateKey is the constant key of the persisted comparison blob.
	DefaultStateKey = "event_comparison_state"

	// Storage backends
	StorageNone     = "none"
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageSheets   = "sheets"
)
