package progress

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu        sync.RWMutex
	records   map[string]Record // email|materialID
	summaries map[string]Summary
}

func NewMemoryStore() Store {
	return &memoryStore{records: map[string]Record{}, summaries: map[string]Summary{}}
}

func (m *memoryStore) MarkComplete(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Email+"|"+rec.MaterialID] = rec
	return nil
}

func (m *memoryStore) CountCompleted(_ context.Context, email, courseID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.records {
		if r.Email == email && r.CourseID == courseID && r.Completed {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) UpsertSummary(_ context.Context, s Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[s.Email+"|"+s.CourseID] = s
	return nil
}
