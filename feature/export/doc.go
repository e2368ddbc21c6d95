// Package export persists run reports as JSON objects in object storage.
package export
