package course

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore is a minimal in-process Store for dev and tests. Listing order
// mimics the SQL store: ascending by id.
type memoryStore struct {
	mu        sync.RWMutex
	materials map[string]Material
}

func NewMemoryStore() Store {
	return &memoryStore{materials: map[string]Material{}}
}

func (m *memoryStore) ListCourseMaterials(_ context.Context, courseID string) ([]Material, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sectionIDs := map[string]bool{}
	for _, r := range m.materials {
		if r.Type == TypeSection && r.CourseID == courseID {
			sectionIDs[r.ID] = true
		}
	}
	subIDs := map[string]bool{}
	for _, r := range m.materials {
		if r.Type == TypeSubsection && (r.CourseID == courseID || sectionIDs[r.SectionID]) {
			subIDs[r.ID] = true
		}
	}

	out := []Material{}
	for _, r := range m.materials {
		if r.CourseID == courseID || sectionIDs[r.SectionID] || subIDs[r.SubSectionID] {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) GetMaterial(_ context.Context, id string) (Material, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.materials[id]
	if !ok {
		return Material{}, fmt.Errorf("%w: material %s", ErrNotFound, id)
	}
	return r, nil
}

func (m *memoryStore) PutMaterial(_ context.Context, rec Material) (Material, error) {
	if !rec.Type.Valid() {
		return Material{}, fmt.Errorf("%w: type", ErrMissingParameter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkParent(rec); err != nil {
		return Material{}, err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().Unix()
	}
	m.materials[rec.ID] = rec
	return rec, nil
}

func (m *memoryStore) checkParent(rec Material) error {
	var parentID string
	var parentType Type
	switch rec.Type {
	case TypeSection:
		if strings.TrimSpace(rec.CourseID) == "" {
			return fmt.Errorf("%w: courseId", ErrMissingParameter)
		}
		return nil
	case TypeSubsection, TypeQuiz:
		parentID, parentType = rec.SectionID, TypeSection
	case TypePDF, TypeVideo:
		parentID, parentType = rec.SubSectionID, TypeSubsection
	}
	if strings.TrimSpace(parentID) == "" {
		return fmt.Errorf("%w: parent id for %s", ErrMissingParameter, rec.Type)
	}
	p, ok := m.materials[parentID]
	if !ok || p.Type != parentType {
		return fmt.Errorf("%w: %s %s", ErrParentMissing, parentType, parentID)
	}
	return nil
}

func (m *memoryStore) DeleteMaterial(_ context.Context, id string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.materials[id]
	if !ok {
		return nil, fmt.Errorf("%w: material %s", ErrNotFound, id)
	}

	doomed := map[string]bool{id: true}
	switch rec.Type {
	case TypeSection:
		for _, r := range m.materials {
			if r.SectionID == id && (r.Type == TypeSubsection || r.Type == TypeQuiz) {
				doomed[r.ID] = true
			}
		}
		for _, r := range m.materials {
			if doomed[r.SubSectionID] {
				doomed[r.ID] = true
			}
		}
	case TypeSubsection:
		for _, r := range m.materials {
			if r.SubSectionID == id {
				doomed[r.ID] = true
			}
		}
	}

	var blobKeys []string
	for did := range doomed {
		if k := m.materials[did].BlobKey; k != "" {
			blobKeys = append(blobKeys, k)
		}
		delete(m.materials, did)
	}
	return blobKeys, nil
}
