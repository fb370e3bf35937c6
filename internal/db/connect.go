package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:learnloop.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/learnloop?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS course_materials (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,                 -- section|subsection|pdf|video|quiz
  course_id TEXT NOT NULL DEFAULT '',
  section_id TEXT NOT NULL DEFAULT '',
  sub_section_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  ord INTEGER NOT NULL DEFAULT 0,
  is_locked INTEGER NOT NULL DEFAULT 0,

  pdf_url TEXT NOT NULL DEFAULT '',
  blob_key TEXT NOT NULL DEFAULT '',

  video_url TEXT NOT NULL DEFAULT '',
  video_duration INTEGER NOT NULL DEFAULT 0,
  video_size INTEGER NOT NULL DEFAULT 0,
  video_status TEXT NOT NULL DEFAULT '',
  video_type TEXT NOT NULL DEFAULT '',

  time_limit INTEGER NOT NULL DEFAULT 0,      -- minutes, 0 = untimed
  passing_score INTEGER NOT NULL DEFAULT 0,   -- percent
  max_attempts INTEGER NOT NULL DEFAULT 0,    -- 0 = unlimited
  total_points INTEGER NOT NULL DEFAULT 0,

  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_materials_course ON course_materials(course_id);
CREATE INDEX IF NOT EXISTS idx_materials_section ON course_materials(section_id);
CREATE INDEX IF NOT EXISTS idx_materials_subsection ON course_materials(sub_section_id);

CREATE TABLE IF NOT EXISTS quiz_questions (
  id TEXT PRIMARY KEY,
  quiz_id TEXT NOT NULL,
  question TEXT NOT NULL,
  options_json TEXT NOT NULL DEFAULT '[]',
  correct_answer TEXT NOT NULL DEFAULT '',   -- option index, or answer text for free-text
  points INTEGER NOT NULL DEFAULT 1,
  ord INTEGER NOT NULL DEFAULT 0,
  explanation TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_questions_quiz ON quiz_questions(quiz_id);

CREATE TABLE IF NOT EXISTS quiz_attempts (
  id TEXT PRIMARY KEY,
  quiz_id TEXT NOT NULL,
  email TEXT NOT NULL,
  answers_json TEXT NOT NULL DEFAULT '[]',
  score INTEGER NOT NULL DEFAULT 0,          -- 0..100
  passed INTEGER NOT NULL DEFAULT 0,
  time_spent INTEGER NOT NULL DEFAULT 0,     -- seconds
  attempted_at INTEGER NOT NULL,
  completed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attempts_quiz_email ON quiz_attempts(quiz_id, email);

CREATE TABLE IF NOT EXISTS student_progress (
  email TEXT NOT NULL,
  course_id TEXT NOT NULL,
  material_id TEXT NOT NULL,
  completed INTEGER NOT NULL DEFAULT 1,
  completed_at INTEGER NOT NULL,
  PRIMARY KEY (email, material_id)
);
CREATE INDEX IF NOT EXISTS idx_progress_course ON student_progress(email, course_id);

CREATE TABLE IF NOT EXISTS progress_summaries (
  email TEXT NOT NULL,
  course_id TEXT NOT NULL,
  total_lessons INTEGER NOT NULL DEFAULT 0,
  completed_lessons INTEGER NOT NULL DEFAULT 0,
  progress_pct INTEGER NOT NULL DEFAULT 0,
  quiz_scores_json TEXT NOT NULL DEFAULT '{}',
  last_activity INTEGER NOT NULL,
  PRIMARY KEY (email, course_id)
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'student'
);

CREATE TABLE IF NOT EXISTS event_log (
  "offset" INTEGER PRIMARY KEY AUTOINCREMENT,
  typ TEXT NOT NULL,            -- e.g. AttemptSubmitted, MaterialCompleted
  key TEXT NOT NULL,            -- natural key: attemptID / email|materialID
  data TEXT NOT NULL,           -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS course_materials (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  course_id TEXT NOT NULL DEFAULT '',
  section_id TEXT NOT NULL DEFAULT '',
  sub_section_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  ord INTEGER NOT NULL DEFAULT 0,
  is_locked BOOLEAN NOT NULL DEFAULT FALSE,

  pdf_url TEXT NOT NULL DEFAULT '',
  blob_key TEXT NOT NULL DEFAULT '',

  video_url TEXT NOT NULL DEFAULT '',
  video_duration BIGINT NOT NULL DEFAULT 0,
  video_size BIGINT NOT NULL DEFAULT 0,
  video_status TEXT NOT NULL DEFAULT '',
  video_type TEXT NOT NULL DEFAULT '',

  time_limit INTEGER NOT NULL DEFAULT 0,
  passing_score INTEGER NOT NULL DEFAULT 0,
  max_attempts INTEGER NOT NULL DEFAULT 0,
  total_points INTEGER NOT NULL DEFAULT 0,

  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_materials_course ON course_materials(course_id);
CREATE INDEX IF NOT EXISTS idx_materials_section ON course_materials(section_id);
CREATE INDEX IF NOT EXISTS idx_materials_subsection ON course_materials(sub_section_id);

CREATE TABLE IF NOT EXISTS quiz_questions (
  id TEXT PRIMARY KEY,
  quiz_id TEXT NOT NULL,
  question TEXT NOT NULL,
  options_json TEXT NOT NULL DEFAULT '[]',
  correct_answer TEXT NOT NULL DEFAULT '',
  points INTEGER NOT NULL DEFAULT 1,
  ord INTEGER NOT NULL DEFAULT 0,
  explanation TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_questions_quiz ON quiz_questions(quiz_id);

CREATE TABLE IF NOT EXISTS quiz_attempts (
  id TEXT PRIMARY KEY,
  quiz_id TEXT NOT NULL,
  email TEXT NOT NULL,
  answers_json TEXT NOT NULL DEFAULT '[]',
  score INTEGER NOT NULL DEFAULT 0,
  passed BOOLEAN NOT NULL DEFAULT FALSE,
  time_spent INTEGER NOT NULL DEFAULT 0,
  attempted_at BIGINT NOT NULL,
  completed_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attempts_quiz_email ON quiz_attempts(quiz_id, email);

CREATE TABLE IF NOT EXISTS student_progress (
  email TEXT NOT NULL,
  course_id TEXT NOT NULL,
  material_id TEXT NOT NULL,
  completed BOOLEAN NOT NULL DEFAULT TRUE,
  completed_at BIGINT NOT NULL,
  PRIMARY KEY (email, material_id)
);
CREATE INDEX IF NOT EXISTS idx_progress_course ON student_progress(email, course_id);

CREATE TABLE IF NOT EXISTS progress_summaries (
  email TEXT NOT NULL,
  course_id TEXT NOT NULL,
  total_lessons INTEGER NOT NULL DEFAULT 0,
  completed_lessons INTEGER NOT NULL DEFAULT 0,
  progress_pct INTEGER NOT NULL DEFAULT 0,
  quiz_scores_json TEXT NOT NULL DEFAULT '{}',
  last_activity BIGINT NOT NULL,
  PRIMARY KEY (email, course_id)
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'student'
);

CREATE TABLE IF NOT EXISTS event_log (
  "offset" BIGSERIAL PRIMARY KEY,
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
