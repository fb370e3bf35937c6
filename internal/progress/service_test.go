package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/learnloop/learnloop-lms/internal/course"
)

func seedMaterials(t *testing.T) course.Store {
	t.Helper()
	ctx := context.Background()
	materials := course.NewMemoryStore()
	puts := []course.Material{
		{ID: "S1", Type: course.TypeSection, CourseID: "C1", Order: 1},
		{ID: "SS1", Type: course.TypeSubsection, SectionID: "S1", Order: 1},
		{ID: "P1", Type: course.TypePDF, SubSectionID: "SS1", Order: 1},
		{ID: "P2", Type: course.TypePDF, SubSectionID: "SS1", Order: 2},
		{ID: "P3", Type: course.TypePDF, SubSectionID: "SS1", Order: 3},
		{ID: "QZ1", Type: course.TypeQuiz, SectionID: "S1", Order: 1},
		{ID: "V1", Type: course.TypeVideo, SubSectionID: "SS1", Order: 1}, // not a lesson
	}
	for _, m := range puts {
		if _, err := materials.PutMaterial(ctx, m); err != nil {
			t.Fatalf("seed %s: %v", m.ID, err)
		}
	}
	return materials
}

func newService(store Store, materials course.Store) *Service {
	return NewService(store, course.NewService(materials), materials, nil, nil)
}

func TestCourseProgressScenario(t *testing.T) {
	materials := seedMaterials(t) // 4 gradable lessons for C1
	store := NewMemoryStore()
	svc := newService(store, materials)
	ctx := context.Background()

	if err := store.MarkComplete(ctx, Record{
		Email: "student@x.com", CourseID: "C1", MaterialID: "P1", Completed: true, CompletedAt: 1,
	}); err != nil {
		t.Fatal(err)
	}

	p, err := svc.Course(ctx, "student@x.com", "C1")
	if err != nil {
		t.Fatal(err)
	}
	if p.TotalLessons != 4 || p.CompletedLessons != 1 || p.ProgressPercentage != 25 {
		t.Errorf("progress = %+v, want {4 1 25}", p)
	}
}

func TestCourseProgressZeroLessons(t *testing.T) {
	materials := course.NewMemoryStore()
	ctx := context.Background()
	// a bare section has no gradable lessons
	if _, err := materials.PutMaterial(ctx, course.Material{ID: "S1", Type: course.TypeSection, CourseID: "C9", Order: 1}); err != nil {
		t.Fatal(err)
	}
	svc := newService(NewMemoryStore(), materials)

	p, err := svc.Course(ctx, "s@x.com", "C9")
	if err != nil {
		t.Fatal(err)
	}
	if p.TotalLessons != 0 || p.ProgressPercentage != 0 {
		t.Errorf("progress = %+v, want zero values", p)
	}
}

func TestCourseProgressBounds(t *testing.T) {
	materials := seedMaterials(t)
	store := NewMemoryStore()
	svc := newService(store, materials)
	ctx := context.Background()

	for _, id := range []string{"P1", "P2", "P3", "QZ1"} {
		if _, err := svc.MarkComplete(ctx, "s@x.com", "C1", id); err != nil {
			t.Fatal(err)
		}
	}
	p, err := svc.Course(ctx, "s@x.com", "C1")
	if err != nil {
		t.Fatal(err)
	}
	if p.ProgressPercentage != 100 {
		t.Errorf("percentage = %d, want 100", p.ProgressPercentage)
	}
}

func TestMarkCompleteIdempotent(t *testing.T) {
	materials := seedMaterials(t)
	svc := newService(NewMemoryStore(), materials)
	ctx := context.Background()

	if _, err := svc.MarkComplete(ctx, "s@x.com", "C1", "P1"); err != nil {
		t.Fatal(err)
	}
	p, err := svc.MarkComplete(ctx, "s@x.com", "C1", "P1")
	if err != nil {
		t.Fatal(err)
	}
	if p.CompletedLessons != 1 {
		t.Errorf("re-marking inflated count: %+v", p)
	}
}

func TestMarkCompleteUnknownMaterial(t *testing.T) {
	materials := seedMaterials(t)
	svc := newService(NewMemoryStore(), materials)
	_, err := svc.MarkComplete(context.Background(), "s@x.com", "C1", "ghost")
	if !errors.Is(err, course.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMissingParameters(t *testing.T) {
	materials := seedMaterials(t)
	svc := newService(NewMemoryStore(), materials)
	ctx := context.Background()

	if _, err := svc.Course(ctx, "", "C1"); !errors.Is(err, course.ErrMissingParameter) {
		t.Errorf("missing email: %v", err)
	}
	if _, err := svc.Course(ctx, "s@x.com", ""); !errors.Is(err, course.ErrMissingParameter) {
		t.Errorf("missing courseId: %v", err)
	}
	if _, err := svc.MarkComplete(ctx, "s@x.com", "C1", ""); !errors.Is(err, course.ErrMissingParameter) {
		t.Errorf("missing materialId: %v", err)
	}
}

// failingSummaryStore breaks only the denormalized summary write.
type failingSummaryStore struct{ Store }

func (f failingSummaryStore) UpsertSummary(context.Context, Summary) error {
	return errors.New("summary table down")
}

func TestSummaryWriteFailureDoesNotFailRead(t *testing.T) {
	materials := seedMaterials(t)
	store := failingSummaryStore{NewMemoryStore()}
	svc := newService(store, materials)
	ctx := context.Background()

	if err := store.MarkComplete(ctx, Record{
		Email: "s@x.com", CourseID: "C1", MaterialID: "P1", Completed: true, CompletedAt: 1,
	}); err != nil {
		t.Fatal(err)
	}
	p, err := svc.Course(ctx, "s@x.com", "C1")
	if err != nil {
		t.Fatalf("read path failed on summary error: %v", err)
	}
	if p.ProgressPercentage != 25 {
		t.Errorf("percentage = %d, want 25", p.ProgressPercentage)
	}
}

func TestCourseProgressIdempotent(t *testing.T) {
	materials := seedMaterials(t)
	store := NewMemoryStore()
	svc := newService(store, materials)
	ctx := context.Background()

	if err := store.MarkComplete(ctx, Record{
		Email: "s@x.com", CourseID: "C1", MaterialID: "P1", Completed: true, CompletedAt: 1,
	}); err != nil {
		t.Fatal(err)
	}
	first, err := svc.Course(ctx, "s@x.com", "C1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Course(ctx, "s@x.com", "C1")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("repeated reads differ: %+v vs %+v", first, second)
	}
}
