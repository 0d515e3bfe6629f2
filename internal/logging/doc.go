// Package logging provides a simple leveled logging interface for the
// image vault.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// Messages are emitted through a zerolog logger. The log level is configured
// via the LOG_LEVEL (or DEBUG) environment variable and the output format via
// LOG_FORMAT ("console" or "json").
package logging
