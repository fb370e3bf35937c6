package quiz

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/learnloop/learnloop-lms/internal/course"
)

// memoryStore mirrors the SQL store for dev and tests. The parent-existence
// check is delegated to a course.Store.
type memoryStore struct {
	mu        sync.RWMutex
	materials course.Store
	questions map[string]Question
	attempts  []Attempt
}

func NewMemoryStore(materials course.Store) Store {
	return &memoryStore{materials: materials, questions: map[string]Question{}}
}

func (m *memoryStore) ListQuestions(_ context.Context, quizID string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Question{}
	for _, q := range m.questions {
		if q.QuizID == quizID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memoryStore) PutQuestion(ctx context.Context, q Question) (Question, error) {
	if strings.TrimSpace(q.QuizID) == "" {
		return Question{}, fmt.Errorf("%w: quizId", course.ErrMissingParameter)
	}
	parent, err := m.materials.GetMaterial(ctx, q.QuizID)
	if err != nil || parent.Type != course.TypeQuiz {
		return Question{}, fmt.Errorf("%w: quiz %s", course.ErrParentMissing, q.QuizID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Options == nil {
		q.Options = []string{}
	}
	if q.Points <= 0 {
		q.Points = 1
	}
	m.questions[q.ID] = q
	return q, nil
}

func (m *memoryStore) DeleteQuestion(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return fmt.Errorf("%w: question %s", course.ErrNotFound, id)
	}
	delete(m.questions, id)
	return nil
}

func (m *memoryStore) InsertAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, a)
	return nil
}

func (m *memoryStore) CountAttempts(_ context.Context, quizID, email string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, a := range m.attempts {
		if a.QuizID == quizID && a.Email == email {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) ListAttempts(_ context.Context, opts AttemptListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Attempt{}
	for _, a := range m.attempts {
		if opts.QuizID != "" && a.QuizID != opts.QuizID {
			continue
		}
		if opts.Email != "" && a.Email != opts.Email {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt > out[j].CompletedAt })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memoryStore) BestScores(_ context.Context, email string, quizIDs []string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := map[string]bool{}
	for _, id := range quizIDs {
		want[id] = true
	}
	scores := map[string]int{}
	for _, a := range m.attempts {
		if a.Email != email || !want[a.QuizID] {
			continue
		}
		if best, ok := scores[a.QuizID]; !ok || a.Score > best {
			scores[a.QuizID] = a.Score
		}
	}
	return scores, nil
}
