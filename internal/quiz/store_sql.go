package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/learnloop/learnloop-lms/internal/course"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) ListQuestions(ctx context.Context, quizID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id,quiz_id,question,options_json,correct_answer,points,ord,explanation
		  FROM quiz_questions WHERE quiz_id = $1
		 ORDER BY ord, id`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Question{}
	for rows.Next() {
		var q Question
		var opts string
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Question, &opts,
			&q.CorrectAnswer, &q.Points, &q.Order, &q.Explanation); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
			q.Options = []string{}
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutQuestion(ctx context.Context, q Question) (Question, error) {
	if strings.TrimSpace(q.QuizID) == "" {
		return Question{}, fmt.Errorf("%w: quizId", course.ErrMissingParameter)
	}
	var ok bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM course_materials WHERE id = $1 AND type = 'quiz')`,
		q.QuizID).Scan(&ok); err != nil {
		return Question{}, err
	}
	if !ok {
		return Question{}, fmt.Errorf("%w: quiz %s", course.ErrParentMissing, q.QuizID)
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Options == nil {
		q.Options = []string{}
	}
	if q.Points <= 0 {
		q.Points = 1
	}
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return Question{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quiz_questions (id,quiz_id,question,options_json,correct_answer,points,ord,explanation)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET
		  quiz_id=EXCLUDED.quiz_id, question=EXCLUDED.question,
		  options_json=EXCLUDED.options_json, correct_answer=EXCLUDED.correct_answer,
		  points=EXCLUDED.points, ord=EXCLUDED.ord, explanation=EXCLUDED.explanation`,
		q.ID, q.QuizID, q.Question, string(opts), q.CorrectAnswer, q.Points, q.Order, q.Explanation)
	if err != nil {
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quiz_questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: question %s", course.ErrNotFound, id)
	}
	return nil
}

func (s *SQLStore) InsertAttempt(ctx context.Context, a Attempt) error {
	aj, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quiz_attempts (id,quiz_id,email,answers_json,score,passed,time_spent,attempted_at,completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.QuizID, a.Email, string(aj), a.Score, a.Passed, a.TimeSpent, a.AttemptedAt, a.CompletedAt)
	return err
}

func (s *SQLStore) CountAttempts(ctx context.Context, quizID, email string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM quiz_attempts WHERE quiz_id = $1 AND email = $2`,
		quizID, email).Scan(&n)
	return n, err
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	sqlStr := `SELECT id,quiz_id,email,answers_json,score,passed,time_spent,attempted_at,completed_at
		 FROM quiz_attempts WHERE 1=1`
	args := []any{}
	if opts.QuizID != "" {
		args = append(args, opts.QuizID)
		sqlStr += fmt.Sprintf(" AND quiz_id = $%d", len(args))
	}
	if opts.Email != "" {
		args = append(args, opts.Email)
		sqlStr += fmt.Sprintf(" AND email = $%d", len(args))
	}
	sqlStr += " ORDER BY completed_at DESC, id"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		sqlStr += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Attempt{}
	for rows.Next() {
		var a Attempt
		var aj string
		if err := rows.Scan(&a.ID, &a.QuizID, &a.Email, &aj, &a.Score, &a.Passed,
			&a.TimeSpent, &a.AttemptedAt, &a.CompletedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(aj), &a.Answers); err != nil {
			a.Answers = []Answer{}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) BestScores(ctx context.Context, email string, quizIDs []string) (map[string]int, error) {
	scores := map[string]int{}
	if len(quizIDs) == 0 {
		return scores, nil
	}
	ph := make([]string, len(quizIDs))
	args := []any{email}
	for i, id := range quizIDs {
		args = append(args, id)
		ph[i] = fmt.Sprintf("$%d", len(args))
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT quiz_id, MAX(score) FROM quiz_attempts
		 WHERE email = $1 AND quiz_id IN (`+strings.Join(ph, ",")+`)
		 GROUP BY quiz_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var best int
		if err := rows.Scan(&id, &best); err != nil {
			return nil, err
		}
		scores[id] = best
	}
	return scores, rows.Err()
}
