// Package store persists the indexer's working set in SQLite.
//
// The Store owns the relational layout shared by the scan orchestrator and its
// collaborators: groups, parts, segments, binaries, misses, releases and the
// three per-release artifact tables (nzbs, nfos, sfvs). Referential integrity
// is enforced by the database: every connection enables foreign keys, and
// deleting a release cascades to its artifact rows.
//
// The orchestrator only reads the active group set, counts the segment
// backlog, reaps aged binaries, lists miss groups and runs compaction. The
// remaining mutators exist for the collaborators, the operator CLI and tests.
//
// Schema changes bump schemaVersion in schema.go; users rebuild the database to
// adopt the new schema.
package store
