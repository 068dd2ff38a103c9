// Package journal provides machine-readable event capture for record
// synchronization.
//
// This package defines the Logger interface and Event types for recording
// what happens to canonical records: attribute updates, subscriber attach
// and detach, and cache lifecycle transitions (creation, scheduled and
// canceled evictions, removal). It is separate from operational logging
// (slog) - the journal is a complete replayable trace for debugging and
// analysis.
//
// # Basic Usage
//
// Applications configure journaling by providing a Logger implementation:
//
//	// For development: log to console via slog
//	jrnl := journal.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	jrnl, _ := journal.NewFileLogger("/var/log/resourcerer/records.rlog")
//
//	// Both: use MultiLogger
//	jrnl := journal.NewMultiLogger(
//	    journal.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Correlation
//
// Records do not know their own cache identity. The cache stamps every
// record with an opaque instance UUID at creation time and journals a
// CREATED lifecycle event binding that UUID to the (class, id) pair.
// All later events for the record carry only the UUID; joining against
// the CREATED event recovers the cache identity.
//
// # File Format
//
// Journal files use CBOR encoding with .rlog extension. The
// resourcerer-log CLI tool provides viewing, filtering, and export
// capabilities.
package journal
