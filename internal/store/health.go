package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

var expectedTables = []string{
	"groups", "parts", "segments", "binaries", "misses", "releases", "nzbs", "nfos", "sfvs",
}

// Stats returns row counts for every table.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Artifacts: make(map[ArtifactKind]int64, len(ArtifactKinds))}
	counters := []struct {
		query string
		dst   *int64
	}{
		{`SELECT COUNT(1) FROM groups`, &stats.Groups},
		{`SELECT COUNT(1) FROM groups WHERE active = 1`, &stats.ActiveGroups},
		{`SELECT COUNT(1) FROM segments`, &stats.Segments},
		{`SELECT COUNT(1) FROM parts`, &stats.Parts},
		{`SELECT COUNT(1) FROM binaries`, &stats.Binaries},
		{`SELECT COUNT(1) FROM misses`, &stats.Misses},
		{`SELECT COUNT(DISTINCT group_name) FROM misses`, &stats.MissGroups},
		{`SELECT COUNT(1) FROM releases`, &stats.Releases},
	}
	for _, c := range counters {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("index stats: %w", err)
		}
	}
	for _, kind := range ArtifactKinds {
		count, err := s.CountArtifacts(ctx, kind)
		if err != nil {
			return Stats{}, err
		}
		stats.Artifacts[kind] = count
	}
	return stats, nil
}

// CheckHealth returns diagnostic information about the index database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("index database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat index database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("index database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("index database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping index database: %w", err)
	}
	health.DatabaseReadable = true

	if err := s.db.QueryRowContext(connCtx, "SELECT version FROM schema_version LIMIT 1").Scan(&health.SchemaVersion); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("read schema version: %w", err)
	}

	for _, table := range expectedTables {
		var count int
		if err := s.db.QueryRowContext(connCtx,
			"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&count); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
		if count == 0 {
			health.MissingTables = append(health.MissingTables, table)
		}
	}

	var foreignKeys int
	if err := s.db.QueryRowContext(connCtx, "PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("foreign keys pragma: %w", err)
	}
	health.ForeignKeys = foreignKeys == 1

	var integrityResult string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}
