package progress

import (
	"context"
	"database/sql"
	"encoding/json"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) MarkComplete(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO student_progress (email,course_id,material_id,completed,completed_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (email, material_id) DO UPDATE SET
		  completed=EXCLUDED.completed, completed_at=EXCLUDED.completed_at`,
		rec.Email, rec.CourseID, rec.MaterialID, rec.Completed, rec.CompletedAt)
	return err
}

func (s *SQLStore) CountCompleted(ctx context.Context, email, courseID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM student_progress
		 WHERE email = $1 AND course_id = $2 AND completed = $3`,
		email, courseID, true).Scan(&n)
	return n, err
}

func (s *SQLStore) UpsertSummary(ctx context.Context, sum Summary) error {
	scores, err := json.Marshal(sum.QuizScores)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO progress_summaries
		  (email,course_id,total_lessons,completed_lessons,progress_pct,quiz_scores_json,last_activity)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (email, course_id) DO UPDATE SET
		  total_lessons=EXCLUDED.total_lessons,
		  completed_lessons=EXCLUDED.completed_lessons,
		  progress_pct=EXCLUDED.progress_pct,
		  quiz_scores_json=EXCLUDED.quiz_scores_json,
		  last_activity=EXCLUDED.last_activity`,
		sum.Email, sum.CourseID, sum.TotalLessons, sum.CompletedLessons,
		sum.Percent, string(scores), sum.LastActivity)
	return err
}
