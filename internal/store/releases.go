package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var artifactTables = map[ArtifactKind]string{
	ArtifactNZB: "nzbs",
	ArtifactNFO: "nfos",
	ArtifactSFV: "sfvs",
}

func artifactTable(kind ArtifactKind) (string, error) {
	table, ok := artifactTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown artifact kind %q", kind)
	}
	return table, nil
}

// AddRelease records a release and returns its id.
func (s *Store) AddRelease(ctx context.Context, rel Release) (int64, error) {
	if strings.TrimSpace(rel.Name) == "" {
		return 0, errors.New("release name is required")
	}
	searchName := rel.SearchName
	if searchName == "" {
		searchName = rel.Name
	}
	added := rel.Added
	if added.IsZero() {
		added = time.Now()
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO releases (name, search_name, group_name, posted, size, added) VALUES (?, ?, ?, ?, ?, ?)`,
		rel.Name, searchName, rel.GroupName, formatTime(rel.Posted), rel.Size, formatTime(added),
	)
	if err != nil {
		return 0, fmt.Errorf("insert release: %w", err)
	}
	return res.LastInsertId()
}

// AttachArtifact stores the artifact of the given kind for a release,
// replacing any previous payload. A release owns at most one row per kind.
func (s *Store) AttachArtifact(ctx context.Context, releaseID int64, kind ArtifactKind, payload []byte) error {
	table, err := artifactTable(kind)
	if err != nil {
		return err
	}
	if payload == nil {
		payload = []byte{}
	}
	query := `INSERT INTO ` + table + ` (release_id, data, created_at) VALUES (?, ?, ?)
        ON CONFLICT(release_id) DO UPDATE SET data = excluded.data`
	if _, err := s.execWithRetry(ctx, query, releaseID, payload, formatTime(time.Now())); err != nil {
		return fmt.Errorf("attach %s to release %d: %w", kind, releaseID, err)
	}
	return nil
}

// Artifact returns the payload of a release artifact, or nil when absent.
func (s *Store) Artifact(ctx context.Context, releaseID int64, kind ArtifactKind) ([]byte, error) {
	table, err := artifactTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM `+table+` WHERE release_id = ?`, releaseID)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	var data []byte
	if err := rows.Scan(&data); err != nil {
		return nil, err
	}
	return data, rows.Err()
}

// DeleteRelease removes a release. Its artifact rows are removed by the
// database through ON DELETE CASCADE.
func (s *Store) DeleteRelease(ctx context.Context, releaseID int64) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM releases WHERE id = ?`, releaseID)
	if err != nil {
		return fmt.Errorf("delete release: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("release %d: %w", releaseID, err)
	}
	return nil
}

// CountArtifacts returns the number of rows stored for an artifact kind.
func (s *Store) CountArtifacts(ctx context.Context, kind ArtifactKind) (int64, error) {
	table, err := artifactTable(kind)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM `+table).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}
