package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/learnloop/learnloop-lms/internal/activity"
	"github.com/learnloop/learnloop-lms/internal/course"
	"github.com/learnloop/learnloop-lms/internal/grading"
)

// Service owns the server-authoritative quiz flow: the client sends raw
// answers only, scoring and the pass decision happen here against the stored
// answer keys.
type Service struct {
	store     Store
	materials course.Store
	grader    grading.Grader
	events    activity.Recorder // optional, best-effort
}

func NewService(store Store, materials course.Store, grader grading.Grader, events activity.Recorder) *Service {
	if grader == nil {
		grader = grading.NewDefaultGrader()
	}
	return &Service{store: store, materials: materials, grader: grader, events: events}
}

// QuestionsForStudent returns a quiz's questions with answer keys and
// explanations stripped.
func (s *Service) QuestionsForStudent(ctx context.Context, quizID string) ([]Question, error) {
	if strings.TrimSpace(quizID) == "" {
		return nil, fmt.Errorf("%w: quizId", course.ErrMissingParameter)
	}
	qs, err := s.store.ListQuestions(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("%w: list questions: %v", course.ErrStoreUnavailable, err)
	}
	for i := range qs {
		qs[i].CorrectAnswer = ""
		qs[i].Explanation = ""
	}
	return qs, nil
}

type SubmitInput struct {
	QuizID    string   `json:"quizId"`
	Email     string   `json:"email"`
	Answers   []Answer `json:"answers"`
	TimeSpent int      `json:"timeSpent"` // seconds
}

type SubmitResult struct {
	Attempt        Attempt `json:"attempt"`
	CorrectCount   int     `json:"correctCount"`
	TotalQuestions int     `json:"totalQuestions"`
	// Stored is false when attempt persistence failed; the computed result is
	// still returned to the student.
	Stored bool `json:"stored"`
}

// Submit grades a completed run. Answers shorter than the question list treat
// the tail as unanswered; extra slots are ignored. Client-supplied scores do
// not exist on the wire at all.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (SubmitResult, error) {
	if strings.TrimSpace(in.QuizID) == "" {
		return SubmitResult{}, fmt.Errorf("%w: quizId", course.ErrMissingParameter)
	}
	if strings.TrimSpace(in.Email) == "" {
		return SubmitResult{}, fmt.Errorf("%w: email", course.ErrMissingParameter)
	}

	meta, err := s.materials.GetMaterial(ctx, in.QuizID)
	if err != nil {
		return SubmitResult{}, err
	}
	if meta.Type != course.TypeQuiz {
		return SubmitResult{}, fmt.Errorf("%w: quiz %s", course.ErrNotFound, in.QuizID)
	}

	// TimeSpent comes from the client; clamp it so attempted_at stays sane.
	if in.TimeSpent < 0 {
		in.TimeSpent = 0
	}
	if meta.TimeLimit > 0 && in.TimeSpent > meta.TimeLimit*60 {
		in.TimeSpent = meta.TimeLimit * 60
	}

	questions, err := s.store.ListQuestions(ctx, in.QuizID)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: list questions: %v", course.ErrStoreUnavailable, err)
	}
	if len(questions) == 0 {
		return SubmitResult{}, fmt.Errorf("%w: quiz %s has no questions", course.ErrNotFound, in.QuizID)
	}

	if meta.MaxAttempts > 0 {
		n, err := s.store.CountAttempts(ctx, in.QuizID, in.Email)
		if err != nil {
			return SubmitResult{}, fmt.Errorf("%w: count attempts: %v", course.ErrStoreUnavailable, err)
		}
		if n >= meta.MaxAttempts {
			return SubmitResult{}, fmt.Errorf("%w: %d of %d used", ErrAttemptLimit, n, meta.MaxAttempts)
		}
	}

	correct, earned, total := 0, 0, 0
	answers := make([]Answer, len(questions))
	for i, q := range questions {
		total += q.Points
		ans := Answer{Index: grading.Unanswered}
		if i < len(in.Answers) {
			ans = in.Answers[i]
		}
		answers[i] = ans

		res, err := s.grader.Grade(ctx, grading.Q{
			Options:   q.Options,
			AnswerKey: q.CorrectAnswer,
			Points:    q.Points,
		}, ans.Response())
		if err != nil {
			continue // malformed slot scores zero
		}
		if res.Correct {
			correct++
		}
		earned += res.Awarded
	}

	score := 0
	if total > 0 {
		score = int(math.Round(float64(earned) / float64(total) * 100))
	}

	now := time.Now().Unix()
	a := Attempt{
		ID:          uuid.NewString(),
		QuizID:      in.QuizID,
		Email:       in.Email,
		Answers:     answers,
		Score:       score,
		Passed:      score >= meta.PassingScore,
		TimeSpent:   in.TimeSpent,
		AttemptedAt: now - int64(in.TimeSpent),
		CompletedAt: now,
	}

	out := SubmitResult{Attempt: a, CorrectCount: correct, TotalQuestions: len(questions), Stored: true}
	if err := s.store.InsertAttempt(ctx, a); err != nil {
		// the student still sees the computed result
		log.Printf("quiz: persist attempt %s failed: %v", a.ID, err)
		out.Stored = false
		return out, nil
	}
	s.record(ctx, a)
	return out, nil
}

func (s *Service) record(ctx context.Context, a Attempt) {
	if s.events == nil {
		return
	}
	data, _ := json.Marshal(map[string]any{
		"quizId": a.QuizID, "email": a.Email, "score": a.Score, "passed": a.Passed,
	})
	if err := s.events.Append(ctx, activity.Event{
		Type:     activity.TypeAttemptSubmitted,
		Key:      a.ID,
		DataJSON: string(data),
	}); err != nil {
		log.Printf("quiz: event append failed: %v", err)
	}
}

// AttemptsFor lists a student's attempts for one quiz, newest first.
func (s *Service) AttemptsFor(ctx context.Context, quizID, email string) ([]Attempt, error) {
	if strings.TrimSpace(quizID) == "" {
		return nil, fmt.Errorf("%w: quizId", course.ErrMissingParameter)
	}
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: email", course.ErrMissingParameter)
	}
	list, err := s.store.ListAttempts(ctx, AttemptListOpts{QuizID: quizID, Email: email})
	if err != nil {
		return nil, fmt.Errorf("%w: list attempts: %v", course.ErrStoreUnavailable, err)
	}
	return list, nil
}
