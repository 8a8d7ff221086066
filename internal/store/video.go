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
	ScriptDraft    = "draft"
	ScriptRendered = "rendered"

	JobPending = "pending"
	JobDone    = "done"
	JobFailed  = "failed"
)

// VideoScript is a short-form video script for one facet on one date.
type VideoScript struct {
	ID              int64
	FacetTitle      string
	ScheduledDate   string
	ThemeName       string
	Topic           string
	ContentCategory string
	Angle           string
	Aspect          string
	HookText        string
	HookVersion     int
	Body            string
	PartNumber      int
	TotalParts      int
	VideoURL        string
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type VideoScriptInput struct {
	FacetTitle      string
	ScheduledDate   string
	ThemeName       string
	Topic           string
	ContentCategory string
	Angle           string
	Aspect          string
	HookText        string
	Body            string
	PartNumber      int
	TotalParts      int
}

// VideoJob is a queued render request for a script.
type VideoJob struct {
	ID        int64
	ScriptID  int64
	WeekStart string
	DateKey   string
	Topic     string
	Status    string
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type VideoJobInput struct {
	ScriptID  int64
	WeekStart string
	DateKey   string
	Topic     string
}

const scriptColumns = `id, facet_title, scheduled_date, theme_name, topic, content_category, angle, aspect,
	hook_text, hook_version, body, part_number, total_parts, video_url, status, created_at, updated_at`

// UpsertVideoScript inserts or refreshes the script keyed by
// (facet_title, scheduled_date). Hook version and video url are kept.
func (s *Store) UpsertVideoScript(ctx context.Context, in VideoScriptInput) (VideoScript, error) {
	if err := s.ready(); err != nil {
		return VideoScript{}, err
	}
	ctx = ctxOrBackground(ctx)

	if strings.TrimSpace(in.FacetTitle) == "" {
		return VideoScript{}, errors.New("facet_title is required")
	}
	if _, err := time.Parse(time.DateOnly, in.ScheduledDate); err != nil {
		return VideoScript{}, fmt.Errorf("scheduled_date: %w", err)
	}
	if in.PartNumber < 1 {
		in.PartNumber = 1
	}
	if in.TotalParts < in.PartNumber {
		in.TotalParts = in.PartNumber
	}

	now := formatTime(time.Now())
	row := s.queryRow(ctx, s.db, `
		INSERT INTO video_scripts (
			facet_title, scheduled_date, theme_name, topic, content_category, angle, aspect,
			hook_text, body, part_number, total_parts, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(facet_title, scheduled_date) DO UPDATE SET
			theme_name = excluded.theme_name,
			topic = excluded.topic,
			content_category = excluded.content_category,
			angle = excluded.angle,
			aspect = excluded.aspect,
			hook_text = excluded.hook_text,
			body = excluded.body,
			part_number = excluded.part_number,
			total_parts = excluded.total_parts,
			updated_at = excluded.updated_at
		RETURNING `+scriptColumns,
		in.FacetTitle,
		in.ScheduledDate,
		in.ThemeName,
		in.Topic,
		nullString(in.ContentCategory),
		in.Angle,
		in.Aspect,
		in.HookText,
		in.Body,
		in.PartNumber,
		in.TotalParts,
		ScriptDraft,
		now,
		now,
	)
	vs, err := scanScript(row)
	if err != nil {
		return VideoScript{}, fmt.Errorf("upsert video script: %w", err)
	}
	return vs, nil
}

// VideoScriptFor looks up the script for a facet and date.
func (s *Store) VideoScriptFor(ctx context.Context, facetTitle, date string) (VideoScript, error) {
	if err := s.ready(); err != nil {
		return VideoScript{}, err
	}
	ctx = ctxOrBackground(ctx)

	row := s.queryRow(ctx, s.db, `
		SELECT `+scriptColumns+`
		FROM video_scripts
		WHERE facet_title = ? AND scheduled_date = ?
	`, facetTitle, date)
	vs, err := scanScript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return VideoScript{}, ErrNotFound
	}
	return vs, err
}

// VideoScriptsInRange returns scripts scheduled between start and end inclusive.
func (s *Store) VideoScriptsInRange(ctx context.Context, start, end string) ([]VideoScript, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	ctx = ctxOrBackground(ctx)

	rows, err := s.query(ctx, s.db, `
		SELECT `+scriptColumns+`
		FROM video_scripts
		WHERE scheduled_date >= ? AND scheduled_date <= ?
		ORDER BY scheduled_date, id
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query video scripts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []VideoScript
	for rows.Next() {
		vs, err := scanScript(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, vs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate video scripts: %w", err)
	}
	return out, nil
}

// RewriteHook replaces a script's hook and bumps its hook version. The body
// is left untouched.
func (s *Store) RewriteHook(ctx context.Context, id int64, hook string) (VideoScript, error) {
	if err := s.ready(); err != nil {
		return VideoScript{}, err
	}
	ctx = ctxOrBackground(ctx)

	if strings.TrimSpace(hook) == "" {
		return VideoScript{}, errors.New("hook is required")
	}
	row := s.queryRow(ctx, s.db, `
		UPDATE video_scripts
		SET hook_text = ?, hook_version = hook_version + 1, updated_at = ?
		WHERE id = ?
		RETURNING `+scriptColumns,
		hook, formatTime(time.Now()), id)
	vs, err := scanScript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return VideoScript{}, ErrNotFound
	}
	if err != nil {
		return VideoScript{}, fmt.Errorf("rewrite hook: %w", err)
	}
	return vs, nil
}

// UpsertVideoJob queues a render for a script. An existing job for the same
// script goes back to pending with its error cleared.
func (s *Store) UpsertVideoJob(ctx context.Context, in VideoJobInput) (VideoJob, error) {
	if err := s.ready(); err != nil {
		return VideoJob{}, err
	}
	ctx = ctxOrBackground(ctx)

	if in.ScriptID == 0 {
		return VideoJob{}, errors.New("script_id is required")
	}

	now := formatTime(time.Now())
	row := s.queryRow(ctx, s.db, `
		INSERT INTO video_jobs (script_id, week_start, date_key, topic, status, attempts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(script_id) DO UPDATE SET
			week_start = excluded.week_start,
			date_key = excluded.date_key,
			topic = excluded.topic,
			status = excluded.status,
			last_error = NULL,
			updated_at = excluded.updated_at
		RETURNING id, script_id, week_start, date_key, topic, status, attempts, last_error, created_at, updated_at
	`, in.ScriptID, in.WeekStart, in.DateKey, in.Topic, JobPending, now, now)
	job, err := scanJob(row)
	if err != nil {
		return VideoJob{}, fmt.Errorf("upsert video job: %w", err)
	}
	return job, nil
}

// VideoJobs lists jobs, optionally filtered by status, oldest first.
func (s *Store) VideoJobs(ctx context.Context, status string) ([]VideoJob, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	ctx = ctxOrBackground(ctx)

	query := `
		SELECT id, script_id, week_start, date_key, topic, status, attempts, last_error, created_at, updated_at
		FROM video_jobs`
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY date_key, id"

	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query video jobs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []VideoJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate video jobs: %w", err)
	}
	return out, nil
}

// CompleteVideoJob marks a script's job done and attaches the rendered url.
func (s *Store) CompleteVideoJob(ctx context.Context, scriptID int64, videoURL string) error {
	if err := s.ready(); err != nil {
		return err
	}
	ctx = ctxOrBackground(ctx)

	if strings.TrimSpace(videoURL) == "" {
		return errors.New("video url is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	now := formatTime(time.Now())
	res, err := s.exec(ctx, tx, `
		UPDATE video_scripts SET video_url = ?, status = ?, updated_at = ? WHERE id = ?
	`, videoURL, ScriptRendered, now, scriptID)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("attach video url: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_ = tx.Rollback()
		return ErrNotFound
	}
	if _, err := s.exec(ctx, tx, `
		UPDATE video_jobs SET status = ?, attempts = attempts + 1, last_error = NULL, updated_at = ? WHERE script_id = ?
	`, JobDone, now, scriptID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("complete video job: %w", err)
	}
	return tx.Commit()
}

// FailVideoJob records a failed render attempt.
func (s *Store) FailVideoJob(ctx context.Context, scriptID int64, reason string) error {
	if err := s.ready(); err != nil {
		return err
	}
	ctx = ctxOrBackground(ctx)

	res, err := s.exec(ctx, s.db, `
		UPDATE video_jobs SET status = ?, attempts = attempts + 1, last_error = ?, updated_at = ? WHERE script_id = ?
	`, JobFailed, reason, formatTime(time.Now()), scriptID)
	if err != nil {
		return fmt.Errorf("fail video job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanScript(scanner rowScanner) (VideoScript, error) {
	var (
		vs                   VideoScript
		category, videoURL   sql.NullString
		createdAt, updatedAt string
	)
	if err := scanner.Scan(
		&vs.ID,
		&vs.FacetTitle,
		&vs.ScheduledDate,
		&vs.ThemeName,
		&vs.Topic,
		&category,
		&vs.Angle,
		&vs.Aspect,
		&vs.HookText,
		&vs.HookVersion,
		&vs.Body,
		&vs.PartNumber,
		&vs.TotalParts,
		&videoURL,
		&vs.Status,
		&createdAt,
		&updatedAt,
	); err != nil {
		return VideoScript{}, err
	}
	vs.ContentCategory = category.String
	vs.VideoURL = videoURL.String

	var err error
	if vs.CreatedAt, err = parseTime(createdAt); err != nil {
		return VideoScript{}, fmt.Errorf("parse created_at: %w", err)
	}
	if vs.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return VideoScript{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return vs, nil
}

func scanJob(scanner rowScanner) (VideoJob, error) {
	var (
		j                    VideoJob
		lastError            sql.NullString
		createdAt, updatedAt string
	)
	if err := scanner.Scan(
		&j.ID,
		&j.ScriptID,
		&j.WeekStart,
		&j.DateKey,
		&j.Topic,
		&j.Status,
		&j.Attempts,
		&lastError,
		&createdAt,
		&updatedAt,
	); err != nil {
		return VideoJob{}, err
	}
	j.LastError = lastError.String

	var err error
	if j.CreatedAt, err = parseTime(createdAt); err != nil {
		return VideoJob{}, fmt.Errorf("parse created_at: %w", err)
	}
	if j.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return VideoJob{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return j, nil
}
