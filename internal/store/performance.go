package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/orbitplan/internal/telemetry"
)

// UpsertPerformance stores a telemetry record keyed by (source, external_id).
func (s *Store) UpsertPerformance(ctx context.Context, r telemetry.Record) error {
	if err := s.ready(); err != nil {
		return err
	}
	ctx = ctxOrBackground(ctx)

	if strings.TrimSpace(r.Source) == "" || strings.TrimSpace(r.ExternalID) == "" {
		return errors.New("source and external_id are required")
	}
	if strings.TrimSpace(r.Category) == "" {
		return errors.New("category is required")
	}
	if r.RecordedAt.IsZero() {
		return errors.New("recorded_at is required")
	}

	_, err := s.exec(ctx, s.db, `
		INSERT INTO content_performance (
			source, external_id, category, platform, views, likes, shares, comments, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, external_id) DO UPDATE SET
			category = excluded.category,
			platform = excluded.platform,
			views = excluded.views,
			likes = excluded.likes,
			shares = excluded.shares,
			comments = excluded.comments,
			recorded_at = excluded.recorded_at
	`,
		r.Source,
		r.ExternalID,
		r.Category,
		r.Platform,
		r.Views,
		r.Likes,
		r.Shares,
		r.Comments,
		formatTime(r.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert performance: %w", err)
	}
	return nil
}

// PerformanceSince returns performance rows recorded at or after since.
func (s *Store) PerformanceSince(ctx context.Context, since time.Time) ([]telemetry.Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	ctx = ctxOrBackground(ctx)

	rows, err := s.query(ctx, s.db, `
		SELECT source, external_id, category, platform, views, likes, shares, comments, recorded_at
		FROM content_performance
		WHERE recorded_at >= ?
		ORDER BY recorded_at
	`, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("query performance: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []telemetry.Record
	for rows.Next() {
		var (
			r          telemetry.Record
			recordedAt string
		)
		if err := rows.Scan(&r.Source, &r.ExternalID, &r.Category, &r.Platform,
			&r.Views, &r.Likes, &r.Shares, &r.Comments, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan performance: %w", err)
		}
		if r.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, fmt.Errorf("parse recorded_at: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate performance: %w", err)
	}
	return out, nil
}
