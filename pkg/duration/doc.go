// Package duration provides a time.Duration wrapper for configuration
// fields written as human-readable strings such as "30s", "2m", or
// "1h30m".
//
// The zero value means "not configured". Validation beyond what
// time.ParseDuration accepts, such as rejecting negative values, is
// left to the caller.
package duration
