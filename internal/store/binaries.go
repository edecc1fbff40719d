package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AddBinary records a binary and returns its id. Re-adding a known hash
// returns the existing id.
func (s *Store) AddBinary(ctx context.Context, bin Binary) (int64, error) {
	if strings.TrimSpace(bin.Hash) == "" {
		return 0, errors.New("binary hash is required")
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO binaries (hash, name, group_name, posted, total_parts, created_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(hash) DO NOTHING`,
		bin.Hash,
		bin.Name,
		bin.GroupName,
		formatTime(bin.Posted),
		bin.TotalParts,
		formatTime(time.Now()),
	); err != nil {
		return 0, fmt.Errorf("insert binary: %w", err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM binaries WHERE hash = ?`, bin.Hash).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup binary: %w", err)
	}
	return id, nil
}

// BinaryByHash returns the binary with the given hash, or nil when absent.
func (s *Store) BinaryByHash(ctx context.Context, hash string) (*Binary, error) {
	var (
		bin       Binary
		postedRaw string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, hash, name, group_name, posted, total_parts FROM binaries WHERE hash = ?`, hash,
	).Scan(&bin.ID, &bin.Hash, &bin.Name, &bin.GroupName, &postedRaw, &bin.TotalParts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get binary: %w", err)
	}
	bin.Posted = parseTimeOrZero(postedRaw)
	return &bin, nil
}

// DeleteBinariesPostedBefore removes every binary posted strictly before
// cutoff, together with its parts and their segments, and returns how many
// binaries were deleted.
func (s *Store) DeleteBinariesPostedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM binaries WHERE posted < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete dead binaries: %w", err)
	}
	return res.RowsAffected()
}
