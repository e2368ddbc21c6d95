package reconcile

import "context"

// Adapter defines the interface for entity-specific synchronization logic.
// Each adapter implements identity extraction, payload shaping and the three
// mutating calls for one kind of record (e.g., users, project axis values).
// The engine and the change detector stay entity-agnostic.
type Adapter interface {
	// Name returns the scope name of this adapter (e.g., "users", "projects").
	Name() string

	// EntityType returns the cache invalidation scope for this adapter's
	// platform reads. Several adapters may share one entity type when they
	// write to the same platform collection.
	EntityType() string

	// Identity extracts the identity key from a source record.
	// An error means the record cannot be synchronized (missing or
	// malformed identity field) and is reported as a validation failure.
	Identity(rec Record) (string, error)

	// BuildPayload shapes a source record into the platform payload.
	// An error is a validation failure for that record only.
	BuildPayload(ctx context.Context, rec Record) (map[string]any, error)

	// ListTargets fetches the complete current target collection,
	// identity keys included. Pagination and caching happen below this
	// call; the engine always receives the full set.
	ListTargets(ctx context.Context) ([]TargetRecord, error)

	// Create sends a new record to the platform.
	Create(ctx context.Context, identity string, payload map[string]any) OperationResult

	// Update replaces an existing record on the platform.
	Update(ctx context.Context, identity string, target TargetRecord, payload map[string]any) OperationResult

	// Delete removes a record from the platform.
	Delete(ctx context.Context, target TargetRecord) OperationResult

	// IgnoreFields lists payload fields excluded from change detection
	// (server-managed ids, timestamps, normalization artifacts).
	IgnoreFields() []string
}
