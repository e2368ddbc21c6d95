// Package memory bounds the footprint of in-memory source and target
// datasets during a run.
//
// Each dataset is registered under its synchronization scope; completed scopes
// are released deterministically with CleanupScope instead of waiting for the
// garbage collector.
package memory
