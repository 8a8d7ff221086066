package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const schemaVersion = 3

// Each statement is applied on its own. Failures are logged and skipped so
// a partially evolved schema never blocks a run.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS social_posts (
		id {{id}},
		content TEXT NOT NULL,
		platform TEXT NOT NULL,
		post_type TEXT NOT NULL,
		topic TEXT NOT NULL DEFAULT '',
		theme_name TEXT NOT NULL DEFAULT '',
		scheduled_date TEXT NOT NULL,
		scheduled_time TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		hashtags TEXT NOT NULL DEFAULT '',
		source_type TEXT,
		source_id TEXT,
		source_title TEXT,
		video_url TEXT,
		base_group_key TEXT,
		base_post_id BIGINT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_social_posts_date ON social_posts(scheduled_date)`,
	`CREATE TABLE IF NOT EXISTS content_rotation (
		id {{id}},
		rotation_type TEXT NOT NULL,
		item_id TEXT NOT NULL,
		last_used_at TEXT,
		use_count INTEGER NOT NULL DEFAULT 0,
		UNIQUE(rotation_type, item_id)
	)`,
	`CREATE TABLE IF NOT EXISTS angle_history (
		id {{id}},
		topic TEXT NOT NULL,
		angle TEXT NOT NULL,
		used_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_angle_history_topic ON angle_history(topic, used_at)`,
	`CREATE TABLE IF NOT EXISTS secondary_theme_history (
		id {{id}},
		primary_theme_id TEXT NOT NULL,
		secondary_theme_id TEXT NOT NULL,
		used_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_secondary_theme_primary ON secondary_theme_history(primary_theme_id, used_at)`,
	`CREATE TABLE IF NOT EXISTS content_performance (
		id {{id}},
		source TEXT NOT NULL,
		external_id TEXT NOT NULL,
		category TEXT NOT NULL,
		platform TEXT NOT NULL DEFAULT '',
		views BIGINT NOT NULL DEFAULT 0,
		likes BIGINT NOT NULL DEFAULT 0,
		shares BIGINT NOT NULL DEFAULT 0,
		comments BIGINT NOT NULL DEFAULT 0,
		recorded_at TEXT NOT NULL,
		UNIQUE(source, external_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_content_performance_recorded ON content_performance(recorded_at)`,
	`CREATE TABLE IF NOT EXISTS video_scripts (
		id {{id}},
		facet_title TEXT NOT NULL,
		scheduled_date TEXT NOT NULL,
		theme_name TEXT NOT NULL DEFAULT '',
		hook_text TEXT NOT NULL DEFAULT '',
		hook_version INTEGER NOT NULL DEFAULT 1,
		body TEXT NOT NULL DEFAULT '',
		part_number INTEGER NOT NULL DEFAULT 1,
		total_parts INTEGER NOT NULL DEFAULT 1,
		video_url TEXT,
		status TEXT NOT NULL DEFAULT 'draft',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(facet_title, scheduled_date)
	)`,
	`CREATE TABLE IF NOT EXISTS video_jobs (
		id {{id}},
		script_id BIGINT NOT NULL UNIQUE,
		week_start TEXT NOT NULL,
		date_key TEXT NOT NULL,
		topic TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
}

// Columns added after the first release of each table.
var schemaColumns = []struct {
	table, column, ddl string
}{
	{"social_posts", "image_url", "TEXT"},
	{"social_posts", "content_category", "TEXT"},
	{"video_scripts", "topic", "TEXT NOT NULL DEFAULT ''"},
	{"video_scripts", "content_category", "TEXT"},
	{"video_scripts", "angle", "TEXT NOT NULL DEFAULT ''"},
	{"video_scripts", "aspect", "TEXT NOT NULL DEFAULT ''"},
}

func (s *Store) migrate(ctx context.Context) {
	ctx = ctxOrBackground(ctx)

	idDDL := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == dialectPostgres {
		idDDL = "BIGSERIAL PRIMARY KEY"
	}

	failed := 0
	for _, stmt := range schemaStatements {
		stmt = strings.ReplaceAll(stmt, "{{id}}", idDDL)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			failed++
			s.log.WithError(err).WithField("statement", firstLine(stmt)).Warn("schema statement failed; assuming schema is current")
		}
	}
	for _, c := range schemaColumns {
		if err := s.addColumn(ctx, c.table, c.column, c.ddl); err != nil {
			failed++
			s.log.WithError(err).WithFields(logrus.Fields{
				"table":  c.table,
				"column": c.column,
			}).Warn("add column failed; assuming schema is current")
		}
	}

	if _, err := s.exec(ctx, s.db, `
		INSERT INTO metadata(key, value) VALUES('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, strconv.Itoa(schemaVersion)); err != nil {
		failed++
		s.log.WithError(err).Warn("record schema version failed")
	}

	if failed > 0 {
		s.log.WithField("failed", failed).Warn("schema evolution finished with errors")
	}
}

func (s *Store) addColumn(ctx context.Context, table, column, ddl string) error {
	if s.dialect == dialectPostgres {
		_, err := s.db.ExecContext(ctx, "ALTER TABLE "+table+" ADD COLUMN IF NOT EXISTS "+column+" "+ddl)
		return err
	}

	var n int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column,
	).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "ALTER TABLE "+table+" ADD COLUMN "+column+" "+ddl)
	return err
}

// SchemaVersion returns the recorded schema version, or 0 when unknown.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	ctx = ctxOrBackground(ctx)
	var v string
	if err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&v); err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

func firstLine(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return strings.TrimSpace(stmt[:i])
	}
	return strings.TrimSpace(stmt)
}
