// Package services defines shared error markers for the external programs the
// scan orchestrator drives.
//
// The Wrap helper tags a failure with a marker (external tool, configuration,
// timeout, transient) plus stage and operation context, so callers can
// classify it with errors.Is while the message stays readable in logs.
package services
