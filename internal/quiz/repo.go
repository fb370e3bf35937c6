package quiz

import (
	"context"
	"errors"
)

// ErrAttemptLimit is returned when a quiz's max_attempts cap is already met.
var ErrAttemptLimit = errors.New("attempt limit reached")

type AttemptListOpts struct {
	QuizID string
	Email  string
	Limit  int
}

type Store interface {
	// ListQuestions returns a quiz's questions sorted ascending by order;
	// ties keep primary-key order so repeated reads are stable.
	ListQuestions(ctx context.Context, quizID string) ([]Question, error)

	// PutQuestion inserts or replaces a question. The owning quiz material
	// must exist (course.ErrParentMissing otherwise). Caller-supplied order
	// values are taken as-is: no contiguity or uniqueness validation.
	PutQuestion(ctx context.Context, q Question) (Question, error)

	// DeleteQuestion removes one question by id. Sibling order values are not
	// renumbered.
	DeleteQuestion(ctx context.Context, id string) error

	InsertAttempt(ctx context.Context, a Attempt) error
	CountAttempts(ctx context.Context, quizID, email string) (int, error)
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)

	// BestScores returns the highest recorded score per quiz id for one
	// student, for quizzes that have at least one attempt.
	BestScores(ctx context.Context, email string, quizIDs []string) (map[string]int, error)
}
