package quiz

import (
	"encoding/json"
	"fmt"

	"github.com/learnloop/learnloop-lms/internal/grading"
)

// Question is one row of the quiz_questions collection. CorrectAnswer holds
// the correct option index for choice questions, or the expected text for
// free-text questions (empty options list).
type Question struct {
	ID            string   `json:"id"`
	QuizID        string   `json:"quizId"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
	Points        int      `json:"points"`
	Order         int      `json:"order"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Answer is one slot of a submitted answers array: an option index for choice
// questions, text for free-text ones. -1 or null marks an unanswered slot.
type Answer struct {
	Index  int
	Text   string
	IsText bool
}

func (a *Answer) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		a.Index = grading.Unanswered
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		a.IsText = true
		return json.Unmarshal(b, &a.Text)
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("answer must be an index or a string: %w", err)
	}
	a.Index = int(n)
	return nil
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.IsText {
		return json.Marshal(a.Text)
	}
	return json.Marshal(a.Index)
}

// Response is the value handed to the grader.
func (a Answer) Response() any {
	if a.IsText {
		return a.Text
	}
	return a.Index
}

// Attempt is one student's completed run through a quiz. Rows are insert-only:
// created at submission, never updated or deleted.
type Attempt struct {
	ID          string   `json:"id"`
	QuizID      string   `json:"quizId"`
	Email       string   `json:"email"`
	Answers     []Answer `json:"answers"`
	Score       int      `json:"score"` // 0..100
	Passed      bool     `json:"passed"`
	TimeSpent   int      `json:"timeSpent"` // seconds
	AttemptedAt int64    `json:"attemptedAt"`
	CompletedAt int64    `json:"completedAt"`
}
