// Command nabscan drives the newsgroup scan cycle against the local index
// database.
//
// Subcommands:
//   - scan: run the update loop, or a single backfill pass with --backfill,
//     optionally detached with --daemonize
//   - groups: list, add, activate and deactivate newsgroups
//   - status: row counts per table and the segment backlog
//   - config init: write a sample configuration
//   - db check: schema and integrity diagnostics
//   - logs: print or follow the current run log
package main
