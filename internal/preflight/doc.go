// Package preflight provides readiness checks for the filesystem paths and
// external commands nabscan depends on.
//
// The scan command calls RunAll before entering the orchestrator loop and
// refuses to start when a required check fails. The status command renders
// the same results as a table. Free-space shortfalls are reported as
// warnings rather than failures.
package preflight
