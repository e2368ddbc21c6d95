package reconcile

import "time"

// OperationKind is the type of a dispatched mutation.
type OperationKind string

const (
	OperationCreate OperationKind = "create"
	OperationUpdate OperationKind = "update"
	OperationDelete OperationKind = "delete"
)

// ErrorKind classifies why an operation failed.
type ErrorKind string

const (
	// ErrorNone means the operation succeeded.
	ErrorNone ErrorKind = ""
	// ErrorValidation means the source record was missing a required field
	// or carried a malformed value; no call was made.
	ErrorValidation ErrorKind = "validation"
	// ErrorPermanent means the platform rejected the call with a
	// non-retryable status.
	ErrorPermanent ErrorKind = "permanent"
	// ErrorTransient means retries were exhausted on a transient failure.
	ErrorTransient ErrorKind = "transient"
)

// OperationResult is the outcome of one create/update/delete dispatch.
// Results are appended to the run report and never mutated afterward.
type OperationResult struct {
	// Identity is the identity key of the record the operation targeted.
	Identity string `json:"identity"`

	// Kind is the operation type. It is empty for failures that occurred
	// before an operation was chosen (e.g. identity extraction).
	Kind OperationKind `json:"kind,omitempty"`

	// Success reports whether the operation completed.
	Success bool `json:"success"`

	// StatusCode is the final HTTP status, zero if no call was made.
	StatusCode int `json:"status_code,omitempty"`

	// Duration is the wall time spent on the operation, retries included.
	Duration time.Duration `json:"duration"`

	// ErrorKind classifies the failure, empty on success.
	ErrorKind ErrorKind `json:"error_kind,omitempty"`

	// Error is the failure message, empty on success.
	Error string `json:"error,omitempty"`

	// Simulated marks results produced without a network call
	// (dry-run or simulate mode).
	Simulated bool `json:"simulated,omitempty"`
}

// Report aggregates the outcome of one synchronization pass for one scope.
type Report struct {
	// RunID ties the report to the run it belongs to.
	RunID string `json:"run_id"`

	// Scope is the synchronized scope name (e.g., "users").
	Scope string `json:"scope"`

	// StartedAt is when the pass began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the total wall time of the pass.
	Duration time.Duration `json:"duration"`

	// SourceCount and TargetCount are the dataset sizes after identity
	// deduplication.
	SourceCount int `json:"source_count"`
	TargetCount int `json:"target_count"`

	// Created, Updated and Deleted count successful operations per kind.
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`

	// Unchanged counts matched records with no meaningful difference.
	Unchanged int `json:"unchanged"`

	// Failed counts operations that did not succeed.
	Failed int `json:"failed"`

	// Operations lists every dispatched operation in order.
	Operations []OperationResult `json:"operations"`
}

// Failures returns the subset of operations that did not succeed.
func (r *Report) Failures() []OperationResult {
	var failures []OperationResult
	for _, op := range r.Operations {
		if !op.Success {
			failures = append(failures, op)
		}
	}
	return failures
}

// record appends an operation result and updates the counters.
func (r *Report) record(op OperationResult) {
	r.Operations = append(r.Operations, op)
	if !op.Success {
		r.Failed++
		return
	}
	switch op.Kind {
	case OperationCreate:
		r.Created++
	case OperationUpdate:
		r.Updated++
	case OperationDelete:
		r.Deleted++
	}
}
