// Package user adapts ERP user rows to the platform's user collection.
package user
