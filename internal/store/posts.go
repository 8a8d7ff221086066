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
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusUsed     = "used"
)

// Post is one scheduled social media post.
type Post struct {
	ID              int64
	Content         string
	Platform        string
	PostType        string
	Topic           string
	ThemeName       string
	ScheduledDate   string // YYYY-MM-DD
	ScheduledTime   string // HH:MM
	Status          string
	ContentCategory string
	Hashtags        []string
	SourceType      string
	SourceID        string
	SourceTitle     string
	VideoURL        string
	ImageURL        string
	BaseGroupKey    string
	BasePostID      int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type PostInput struct {
	Content         string
	Platform        string
	PostType        string
	Topic           string
	ThemeName       string
	ScheduledDate   string
	ScheduledTime   string
	ContentCategory string
	Hashtags        []string
	SourceType      string
	SourceID        string
	SourceTitle     string
	VideoURL        string
	ImageURL        string
	CreatedAt       time.Time
}

const postColumns = `id, content, platform, post_type, topic, theme_name, scheduled_date, scheduled_time,
	status, content_category, hashtags, source_type, source_id, source_title, video_url, image_url,
	base_group_key, base_post_id, created_at, updated_at`

// InsertPost stores a new pending post and returns it with its id.
func (s *Store) InsertPost(ctx context.Context, in PostInput) (Post, error) {
	if err := s.ready(); err != nil {
		return Post{}, err
	}
	ctx = ctxOrBackground(ctx)

	if strings.TrimSpace(in.Content) == "" {
		return Post{}, errors.New("content is required")
	}
	if strings.TrimSpace(in.Platform) == "" {
		return Post{}, errors.New("platform is required")
	}
	if strings.TrimSpace(in.PostType) == "" {
		return Post{}, errors.New("post_type is required")
	}
	if _, err := time.Parse(time.DateOnly, in.ScheduledDate); err != nil {
		return Post{}, fmt.Errorf("scheduled_date: %w", err)
	}

	created := in.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	ts := formatTime(created)

	var id int64
	err := s.queryRow(ctx, s.db, `
		INSERT INTO social_posts (
			content, platform, post_type, topic, theme_name, scheduled_date, scheduled_time, status,
			content_category, hashtags, source_type, source_id, source_title, video_url, image_url,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		in.Content,
		in.Platform,
		in.PostType,
		in.Topic,
		in.ThemeName,
		in.ScheduledDate,
		in.ScheduledTime,
		StatusPending,
		nullString(in.ContentCategory),
		strings.Join(in.Hashtags, " "),
		nullString(in.SourceType),
		nullString(in.SourceID),
		nullString(in.SourceTitle),
		nullString(in.VideoURL),
		nullString(in.ImageURL),
		ts,
		ts,
	).Scan(&id)
	if err != nil {
		return Post{}, fmt.Errorf("insert post: %w", err)
	}

	return Post{
		ID:              id,
		Content:         in.Content,
		Platform:        in.Platform,
		PostType:        in.PostType,
		Topic:           in.Topic,
		ThemeName:       in.ThemeName,
		ScheduledDate:   in.ScheduledDate,
		ScheduledTime:   in.ScheduledTime,
		Status:          StatusPending,
		ContentCategory: in.ContentCategory,
		Hashtags:        in.Hashtags,
		SourceType:      in.SourceType,
		SourceID:        in.SourceID,
		SourceTitle:     in.SourceTitle,
		VideoURL:        in.VideoURL,
		ImageURL:        in.ImageURL,
		CreatedAt:       created.UTC(),
		UpdatedAt:       created.UTC(),
	}, nil
}

// PostsInRange returns posts scheduled between start and end inclusive,
// ordered by id.
func (s *Store) PostsInRange(ctx context.Context, start, end string) ([]Post, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	ctx = ctxOrBackground(ctx)

	rows, err := s.query(ctx, s.db, `
		SELECT `+postColumns+`
		FROM social_posts
		WHERE scheduled_date >= ? AND scheduled_date <= ?
		ORDER BY id
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// WeekThemeName returns the most used theme name among primary theme posts
// in the range.
func (s *Store) WeekThemeName(ctx context.Context, start, end string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	ctx = ctxOrBackground(ctx)

	var name string
	err := s.queryRow(ctx, s.db, `
		SELECT theme_name
		FROM social_posts
		WHERE scheduled_date >= ? AND scheduled_date <= ?
			AND source_type = 'theme' AND theme_name <> ''
		GROUP BY theme_name
		ORDER BY COUNT(*) DESC, MIN(id)
		LIMIT 1
	`, start, end).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("week theme: %w", err)
	}
	return name, nil
}

// SetPostGroup backfills the grouping key and canonical post id.
func (s *Store) SetPostGroup(ctx context.Context, id int64, groupKey string, basePostID int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	ctx = ctxOrBackground(ctx)

	res, err := s.exec(ctx, s.db, `
		UPDATE social_posts
		SET base_group_key = ?, base_post_id = ?, updated_at = ?
		WHERE id = ?
	`, groupKey, basePostID, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("set post group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPostStatus moves a post through the approval workflow.
func (s *Store) SetPostStatus(ctx context.Context, id int64, status string) error {
	if err := s.ready(); err != nil {
		return err
	}
	ctx = ctxOrBackground(ctx)

	switch status {
	case StatusPending, StatusApproved, StatusRejected, StatusUsed:
	default:
		return fmt.Errorf("unknown status %q", status)
	}
	res, err := s.exec(ctx, s.db, `
		UPDATE social_posts SET status = ?, updated_at = ? WHERE id = ?
	`, status, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("set post status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// WeekDeletion counts rows removed by DeleteWeek.
type WeekDeletion struct {
	Posts         int64
	Scripts       int64
	Jobs          int64
	AngleUses     int64
	SecondaryUses int64
}

// historyCounters ties a history table to the rotation counters it feeds.
var historyCounters = []struct {
	rotationType string
	table        string
	column       string
}{
	{RotationAngle, "angle_history", "angle"},
	{RotationSecondaryTheme, "secondary_theme_history", "secondary_theme_id"},
}

// DeleteWeek removes posts, video scripts and video jobs scheduled between
// start and end inclusive, in one transaction. Angle and secondary theme
// history recorded on those dates is removed too, and the counters derived
// from it are recounted, so a replaced week leaves rotation state as it
// was before the week was first generated.
func (s *Store) DeleteWeek(ctx context.Context, start, end string) (WeekDeletion, error) {
	if err := s.ready(); err != nil {
		return WeekDeletion{}, err
	}
	ctx = ctxOrBackground(ctx)

	from, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return WeekDeletion{}, fmt.Errorf("parse start: %w", err)
	}
	last, err := time.Parse(time.DateOnly, end)
	if err != nil {
		return WeekDeletion{}, fmt.Errorf("parse end: %w", err)
	}
	until := last.AddDate(0, 0, 1)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return WeekDeletion{}, fmt.Errorf("begin transaction: %w", err)
	}

	var out WeekDeletion
	steps := []struct {
		query string
		args  []any
		count *int64
	}{
		{`DELETE FROM video_jobs WHERE date_key >= ? AND date_key <= ?`, []any{start, end}, &out.Jobs},
		{`DELETE FROM video_scripts WHERE scheduled_date >= ? AND scheduled_date <= ?`, []any{start, end}, &out.Scripts},
		{`DELETE FROM social_posts WHERE scheduled_date >= ? AND scheduled_date <= ?`, []any{start, end}, &out.Posts},
		{`DELETE FROM angle_history WHERE used_at >= ? AND used_at < ?`, []any{formatTime(from), formatTime(until)}, &out.AngleUses},
		{`DELETE FROM secondary_theme_history WHERE used_at >= ? AND used_at < ?`, []any{formatTime(from), formatTime(until)}, &out.SecondaryUses},
	}
	for _, st := range steps {
		res, err := s.exec(ctx, tx, st.query, st.args...)
		if err != nil {
			_ = tx.Rollback()
			return WeekDeletion{}, fmt.Errorf("delete week: %w", err)
		}
		*st.count, _ = res.RowsAffected()
	}

	if out.AngleUses > 0 || out.SecondaryUses > 0 {
		if err := s.recountHistory(ctx, tx); err != nil {
			_ = tx.Rollback()
			return WeekDeletion{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return WeekDeletion{}, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

// recountHistory rebuilds the angle and secondary theme counters from their
// history tables. Items left without history lose their counter row.
func (s *Store) recountHistory(ctx context.Context, q execer) error {
	for _, hc := range historyCounters {
		if _, err := s.exec(ctx, q, `
			DELETE FROM content_rotation
			WHERE rotation_type = ?
				AND item_id NOT IN (SELECT `+hc.column+` FROM `+hc.table+`)
		`, hc.rotationType); err != nil {
			return fmt.Errorf("prune %s counters: %w", hc.rotationType, err)
		}
		if _, err := s.exec(ctx, q, `
			UPDATE content_rotation SET
				use_count = (SELECT COUNT(*) FROM `+hc.table+` h WHERE h.`+hc.column+` = content_rotation.item_id),
				last_used_at = (SELECT MAX(h.used_at) FROM `+hc.table+` h WHERE h.`+hc.column+` = content_rotation.item_id)
			WHERE rotation_type = ?
		`, hc.rotationType); err != nil {
			return fmt.Errorf("recount %s counters: %w", hc.rotationType, err)
		}
	}
	return nil
}

func scanPost(scanner rowScanner) (Post, error) {
	var (
		p                                 Post
		category, hashtags                sql.NullString
		sourceType, sourceID, sourceTitle sql.NullString
		videoURL, imageURL, groupKey      sql.NullString
		basePostID                        sql.NullInt64
		createdAt, updatedAt              string
	)
	if err := scanner.Scan(
		&p.ID,
		&p.Content,
		&p.Platform,
		&p.PostType,
		&p.Topic,
		&p.ThemeName,
		&p.ScheduledDate,
		&p.ScheduledTime,
		&p.Status,
		&category,
		&hashtags,
		&sourceType,
		&sourceID,
		&sourceTitle,
		&videoURL,
		&imageURL,
		&groupKey,
		&basePostID,
		&createdAt,
		&updatedAt,
	); err != nil {
		return Post{}, fmt.Errorf("scan post: %w", err)
	}

	p.ContentCategory = category.String
	if hashtags.String != "" {
		p.Hashtags = strings.Fields(hashtags.String)
	}
	p.SourceType = sourceType.String
	p.SourceID = sourceID.String
	p.SourceTitle = sourceTitle.String
	p.VideoURL = videoURL.String
	p.ImageURL = imageURL.String
	p.BaseGroupKey = groupKey.String
	p.BasePostID = basePostID.Int64

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return Post{}, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Post{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return p, nil
}
