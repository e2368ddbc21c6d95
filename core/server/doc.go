// Package server holds configuration for the optional report HTTP server
// started by the serve command.
package server
