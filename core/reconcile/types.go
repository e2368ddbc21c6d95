package reconcile

// Record is a single source row keyed by column name.
// Values carry driver-dependent types and are normalized on use.
type Record map[string]any

// TargetRecord is one record as currently known on the platform.
type TargetRecord struct {
	// ID is the platform-internal identifier, used for delete calls.
	ID string `json:"id"`

	// Identity is the identity key matching source records
	// (e.g., lowercased email for users, axis value code for axes).
	Identity string `json:"identity"`

	// Fields holds the raw platform representation of the record.
	Fields map[string]any `json:"fields"`
}

// Options controls which phases of a synchronization pass execute.
type Options struct {
	// Create enables the create phase.
	Create bool

	// Update enables the update phase.
	Update bool

	// Delete enables the delete phase. Deletion is independently
	// toggleable so an empty source dataset cannot wipe the target
	// unless explicitly requested.
	Delete bool

	// DryRun records planned operations without dispatching any call.
	DryRun bool
}
