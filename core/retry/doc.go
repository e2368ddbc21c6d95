// Package retry wraps the backoff library with the retry policy applied to
// every platform API call: exponential delays with jitter, a hard attempt
// ceiling, permanent-error short-circuit and Retry-After support.
package retry
