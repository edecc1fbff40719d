package store

import (
	"context"
	"fmt"
)

// compactedTables are the high-churn tables touched by every scan cycle.
var compactedTables = []string{"segments", "parts", "binaries"}

// Compact runs a compaction pass on a dedicated connection in autocommit
// mode; VACUUM fails inside a transaction. The light pass refreshes planner
// statistics for the high-churn tables. The full pass rebuilds the database
// file first, which SQLite can only do for the whole file.
func (s *Store) Compact(ctx context.Context, kind CompactionKind) error {
	ctx = ensureContext(ctx)
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire compaction connection: %w", err)
	}
	defer conn.Close()

	if kind == CompactionFull {
		if err := retryOnBusy(ctx, func() error {
			_, execErr := conn.ExecContext(ctx, "VACUUM")
			return execErr
		}); err != nil {
			return fmt.Errorf("vacuum: %w", err)
		}
	}

	for _, table := range compactedTables {
		stmt := "ANALYZE " + table
		if err := retryOnBusy(ctx, func() error {
			_, execErr := conn.ExecContext(ctx, stmt)
			return execErr
		}); err != nil {
			return fmt.Errorf("analyze %s: %w", table, err)
		}
	}

	if kind == CompactionFull {
		// Return the WAL to its minimum size after the rebuild.
		if _, err := conn.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			return fmt.Errorf("checkpoint wal: %w", err)
		}
	}
	return nil
}
