package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	RotationTheme          = "theme"
	RotationSecondaryTheme = "secondary_theme"
	RotationAngle          = "angle"
)

// RotationUsage is the durable usage counter for one rotation item.
type RotationUsage struct {
	Type       string
	ItemID     string
	LastUsedAt time.Time // zero when never used
	UseCount   int
}

// AngleUse is one angle applied to a topic.
type AngleUse struct {
	Topic  string
	Angle  string
	UsedAt time.Time
}

// SecondaryUse is one secondary theme paired with a primary theme.
type SecondaryUse struct {
	PrimaryID   string
	SecondaryID string
	UsedAt      time.Time
}

// RotationUsage returns every usage row of the given type.
func (s *Store) RotationUsage(ctx context.Context, rotationType string) ([]RotationUsage, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	ctx = ctxOrBackground(ctx)

	rows, err := s.query(ctx, s.db, `
		SELECT rotation_type, item_id, last_used_at, use_count
		FROM content_rotation
		WHERE rotation_type = ?
		ORDER BY item_id
	`, rotationType)
	if err != nil {
		return nil, fmt.Errorf("query rotation: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []RotationUsage
	for rows.Next() {
		var (
			u        RotationUsage
			lastUsed sql.NullString
		)
		if err := rows.Scan(&u.Type, &u.ItemID, &lastUsed, &u.UseCount); err != nil {
			return nil, fmt.Errorf("scan rotation: %w", err)
		}
		if u.LastUsedAt, err = nullTime(lastUsed); err != nil {
			return nil, fmt.Errorf("parse last_used_at: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rotation: %w", err)
	}
	return out, nil
}

// RecordRotation upserts a usage row, incrementing its count.
func (s *Store) RecordRotation(ctx context.Context, rotationType, itemID string, at time.Time) error {
	if err := s.ready(); err != nil {
		return err
	}
	ctx = ctxOrBackground(ctx)

	if strings.TrimSpace(rotationType) == "" || strings.TrimSpace(itemID) == "" {
		return errors.New("rotation type and item id are required")
	}
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.exec(ctx, s.db, `
		INSERT INTO content_rotation (rotation_type, item_id, last_used_at, use_count)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(rotation_type, item_id) DO UPDATE SET
			last_used_at = excluded.last_used_at,
			use_count = content_rotation.use_count + 1
	`, rotationType, itemID, formatTime(at))
	if err != nil {
		return fmt.Errorf("record rotation: %w", err)
	}
	return nil
}

// RecentAngles returns up to limit angle uses for topic at or before asOf,
// newest first.
func (s *Store) RecentAngles(ctx context.Context, topic string, asOf time.Time, limit int) ([]AngleUse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	ctx = ctxOrBackground(ctx)

	if limit <= 0 {
		limit = 10
	}
	rows, err := s.query(ctx, s.db, `
		SELECT topic, angle, used_at
		FROM angle_history
		WHERE topic = ? AND used_at <= ?
		ORDER BY used_at DESC, id DESC
		LIMIT ?
	`, topic, formatTime(asOf), limit)
	if err != nil {
		return nil, fmt.Errorf("query angles: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []AngleUse
	for rows.Next() {
		var (
			a      AngleUse
			usedAt string
		)
		if err := rows.Scan(&a.Topic, &a.Angle, &usedAt); err != nil {
			return nil, fmt.Errorf("scan angle: %w", err)
		}
		if a.UsedAt, err = parseTime(usedAt); err != nil {
			return nil, fmt.Errorf("parse used_at: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate angles: %w", err)
	}
	return out, nil
}

// InsertAngle appends to the angle history and bumps the angle counter.
func (s *Store) InsertAngle(ctx context.Context, a AngleUse) error {
	if err := s.ready(); err != nil {
		return err
	}
	ctx = ctxOrBackground(ctx)

	if strings.TrimSpace(a.Topic) == "" || strings.TrimSpace(a.Angle) == "" {
		return errors.New("topic and angle are required")
	}
	if a.UsedAt.IsZero() {
		a.UsedAt = time.Now()
	}
	if _, err := s.exec(ctx, s.db, `
		INSERT INTO angle_history (topic, angle, used_at) VALUES (?, ?, ?)
	`, a.Topic, a.Angle, formatTime(a.UsedAt)); err != nil {
		return fmt.Errorf("insert angle: %w", err)
	}
	return s.RecordRotation(ctx, RotationAngle, a.Angle, a.UsedAt)
}

// SecondaryUses returns the secondary theme history for a primary theme,
// newest first.
func (s *Store) SecondaryUses(ctx context.Context, primaryID string) ([]SecondaryUse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	ctx = ctxOrBackground(ctx)

	rows, err := s.query(ctx, s.db, `
		SELECT primary_theme_id, secondary_theme_id, used_at
		FROM secondary_theme_history
		WHERE primary_theme_id = ?
		ORDER BY used_at DESC, id DESC
	`, primaryID)
	if err != nil {
		return nil, fmt.Errorf("query secondary uses: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []SecondaryUse
	for rows.Next() {
		var (
			u      SecondaryUse
			usedAt string
		)
		if err := rows.Scan(&u.PrimaryID, &u.SecondaryID, &usedAt); err != nil {
			return nil, fmt.Errorf("scan secondary use: %w", err)
		}
		if u.UsedAt, err = parseTime(usedAt); err != nil {
			return nil, fmt.Errorf("parse used_at: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate secondary uses: %w", err)
	}
	return out, nil
}

// InsertSecondaryUse appends to the secondary theme history and bumps the
// secondary theme counter.
func (s *Store) InsertSecondaryUse(ctx context.Context, u SecondaryUse) error {
	if err := s.ready(); err != nil {
		return err
	}
	ctx = ctxOrBackground(ctx)

	if strings.TrimSpace(u.PrimaryID) == "" || strings.TrimSpace(u.SecondaryID) == "" {
		return errors.New("primary and secondary theme ids are required")
	}
	if u.UsedAt.IsZero() {
		u.UsedAt = time.Now()
	}
	if _, err := s.exec(ctx, s.db, `
		INSERT INTO secondary_theme_history (primary_theme_id, secondary_theme_id, used_at) VALUES (?, ?, ?)
	`, u.PrimaryID, u.SecondaryID, formatTime(u.UsedAt)); err != nil {
		return fmt.Errorf("insert secondary use: %w", err)
	}
	return s.RecordRotation(ctx, RotationSecondaryTheme, u.SecondaryID, u.UsedAt)
}
