// Package logger builds the application's zap logger from configuration.
//
// The debug level uses the development config (ISO timestamps, colored console
// levels); every other level uses the production config with JSON encoding
// unless console format is requested explicitly.
package logger
