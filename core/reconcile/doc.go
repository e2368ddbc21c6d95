// Package reconcile implements the entity-agnostic synchronization engine.
//
// One pass compares a read-only source dataset against the current platform
// collection by identity key, partitions the identities into create, update
// and delete sets, and dispatches the operations sequentially in that order
// through an entity-specific Adapter. Matched pairs only become updates when
// the Detector finds a meaningful difference outside the adapter's ignore
// list. Every operation outcome is collected into a Report; a failing record
// never aborts the pass.
package reconcile
