package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const groupColumns = "id, name, active, first, last, created_at, updated_at"

func scanGroup(scanner interface{ Scan(dest ...any) error }) (*Group, error) {
	var (
		g          Group
		active     int
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&g.ID, &g.Name, &active, &g.First, &g.Last, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	g.Active = active != 0
	g.CreatedAt = parseTimeOrZero(createdRaw)
	g.UpdatedAt = parseTimeOrZero(updatedRaw)
	return &g, nil
}

func (s *Store) queryGroups(ctx context.Context, query string, args ...any) ([]Group, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

// AddGroup registers a newsgroup, or updates the active flag of an existing one.
func (s *Store) AddGroup(ctx context.Context, name string, active bool) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("group name is required")
	}
	now := formatTime(time.Now())
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO groups (name, active, created_at, updated_at) VALUES (?, ?, ?, ?)
         ON CONFLICT(name) DO UPDATE SET active = excluded.active, updated_at = excluded.updated_at`,
		name, boolToInt(active), now, now,
	); err != nil {
		return nil, fmt.Errorf("add group %s: %w", name, err)
	}
	return s.GroupByName(ctx, name)
}

// SetGroupActive toggles whether a group participates in scan cycles.
func (s *Store) SetGroupActive(ctx context.Context, name string, active bool) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE groups SET active = ?, updated_at = ? WHERE name = ?`,
		boolToInt(active), formatTime(time.Now()), strings.TrimSpace(name),
	)
	if err != nil {
		return fmt.Errorf("set group active: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("group %s: %w", name, err)
	}
	return nil
}

// UpdateGroupCursor stores the scan collaborator's article bookmarks.
func (s *Store) UpdateGroupCursor(ctx context.Context, name string, first, last int64) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE groups SET first = ?, last = ?, updated_at = ? WHERE name = ?`,
		first, last, formatTime(time.Now()), name,
	)
	if err != nil {
		return fmt.Errorf("update group cursor: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("group %s: %w", name, err)
	}
	return nil
}

// GroupByName fetches a group by name. It returns nil when the group is unknown.
func (s *Store) GroupByName(ctx context.Context, name string) (*Group, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM groups WHERE name = ?`, strings.TrimSpace(name))
	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

// ActiveGroups returns every active group ordered by name.
func (s *Store) ActiveGroups(ctx context.Context) ([]Group, error) {
	groups, err := s.queryGroups(ctx, `SELECT `+groupColumns+` FROM groups WHERE active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("active groups: %w", err)
	}
	return groups, nil
}

// ListGroups returns all groups ordered by name.
func (s *Store) ListGroups(ctx context.Context) ([]Group, error) {
	groups, err := s.queryGroups(ctx, `SELECT `+groupColumns+` FROM groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}
