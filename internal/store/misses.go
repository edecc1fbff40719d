package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AddMiss records that a segment could not be retrieved from a group. A
// repeated miss bumps the attempt counter.
func (s *Store) AddMiss(ctx context.Context, groupName, messageID string) error {
	groupName = strings.TrimSpace(groupName)
	if groupName == "" || strings.TrimSpace(messageID) == "" {
		return errors.New("miss requires group name and message id")
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO misses (group_name, message_id, attempts, created_at) VALUES (?, ?, 1, ?)
         ON CONFLICT(group_name, message_id) DO UPDATE SET attempts = attempts + 1`,
		groupName, messageID, formatTime(time.Now()),
	); err != nil {
		return fmt.Errorf("insert miss: %w", err)
	}
	return nil
}

// DeleteMiss removes a miss after a successful retry.
func (s *Store) DeleteMiss(ctx context.Context, groupName, messageID string) error {
	if _, err := s.execWithRetry(ctx,
		`DELETE FROM misses WHERE group_name = ? AND message_id = ?`, groupName, messageID,
	); err != nil {
		return fmt.Errorf("delete miss: %w", err)
	}
	return nil
}

// MissGroups returns the distinct group names with outstanding misses, sorted.
func (s *Store) MissGroups(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT group_name FROM misses ORDER BY group_name`)
	if err != nil {
		return nil, fmt.Errorf("miss groups: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// MissesForGroup lists the outstanding misses of one group.
func (s *Store) MissesForGroup(ctx context.Context, groupName string) ([]Miss, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_name, message_id, attempts, created_at FROM misses WHERE group_name = ? ORDER BY id`,
		groupName,
	)
	if err != nil {
		return nil, fmt.Errorf("list misses: %w", err)
	}
	defer rows.Close()

	var misses []Miss
	for rows.Next() {
		var (
			m          Miss
			createdRaw string
		)
		if err := rows.Scan(&m.ID, &m.GroupName, &m.MessageID, &m.Attempts, &createdRaw); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTimeOrZero(createdRaw)
		misses = append(misses, m)
	}
	return misses, rows.Err()
}
