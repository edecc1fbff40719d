package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AddPart records a part. A zero BinaryID leaves the part unassigned.
func (s *Store) AddPart(ctx context.Context, part Part) (int64, error) {
	if strings.TrimSpace(part.MessageID) == "" {
		return 0, errors.New("part message id is required")
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO parts (binary_id, message_id, subject, group_name, total_segments, posted)
         VALUES (?, ?, ?, ?, ?, ?)`,
		nullableID(part.BinaryID),
		part.MessageID,
		part.Subject,
		part.GroupName,
		part.TotalSegments,
		formatTime(part.Posted),
	)
	if err != nil {
		return 0, fmt.Errorf("insert part: %w", err)
	}
	return res.LastInsertId()
}

// AssignPart attaches a part to a binary.
func (s *Store) AssignPart(ctx context.Context, partID, binaryID int64) error {
	res, err := s.execWithRetry(ctx, `UPDATE parts SET binary_id = ? WHERE id = ?`, binaryID, partID)
	if err != nil {
		return fmt.Errorf("assign part: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("part %d: %w", partID, err)
	}
	return nil
}

// AddSegment records a segment. Every segment must reference a group.
func (s *Store) AddSegment(ctx context.Context, seg Segment) (int64, error) {
	if seg.GroupID <= 0 {
		return 0, errors.New("segment group is required")
	}
	if strings.TrimSpace(seg.MessageID) == "" {
		return 0, errors.New("segment message id is required")
	}
	posted := seg.Posted
	if posted.IsZero() {
		posted = time.Now()
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO segments (group_id, part_id, message_id, segment, size, posted)
         VALUES (?, ?, ?, ?, ?, ?)`,
		seg.GroupID,
		nullableID(seg.PartID),
		seg.MessageID,
		seg.Number,
		seg.Size,
		formatTime(posted),
	)
	if err != nil {
		return 0, fmt.Errorf("insert segment: %w", err)
	}
	return res.LastInsertId()
}

// CountSegments returns the number of segments awaiting assembly.
func (s *Store) CountSegments(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM segments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count segments: %w", err)
	}
	return count, nil
}
