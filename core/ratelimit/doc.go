// Package ratelimit implements the per-minute quota governor for platform
// API calls.
//
// Budgets are split by call class (read, write) and day phase (day, night)
// and enforced over a sliding one-minute window. Acquire blocks until the
// window has budget, so quota exhaustion is never surfaced as an error to
// callers.
package ratelimit
