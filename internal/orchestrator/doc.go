// Package orchestrator drives the scan cycle.
//
// A cycle selects the groups to scan, relieves segment backlog, runs the scan
// wave, retries misses (update mode only), processes binaries and releases,
// reaps dead binaries and compacts the store. Update mode sleeps and repeats;
// backfill runs a single cycle.
//
// Cancellation is observed between cycles and during the sleep. Work inside a
// cycle runs on a context detached from cancellation so in-flight scans are
// never torn down mid-request.
package orchestrator
