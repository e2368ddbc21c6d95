// Package platform is the access layer for the expense platform API.
//
// Every call goes through three wrappers: the quota governor (per-minute
// read/write budgets split by day phase), the TTL response cache for list
// calls, and the retry policy for transient failures. Mutations return
// OperationResult values rather than errors, so a failing record is data for
// the run report instead of control flow. Calls are strictly sequential.
package platform
