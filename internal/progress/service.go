package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/learnloop/learnloop-lms/internal/activity"
	"github.com/learnloop/learnloop-lms/internal/course"
	"github.com/learnloop/learnloop-lms/internal/quiz"
)

// Service derives completion percentages and maintains the denormalized
// summary row. The canonical totals rule lives in course.Service.CountLessons
// (pdf + quiz records only) so every progress path counts the same way.
type Service struct {
	store   Store
	courses *course.Service
	lookup  course.Store
	quizzes quiz.Store        // nil disables quiz scores in summaries
	events  activity.Recorder // optional, best-effort
}

func NewService(store Store, courses *course.Service, lookup course.Store, quizzes quiz.Store, events activity.Recorder) *Service {
	return &Service{store: store, courses: courses, lookup: lookup, quizzes: quizzes, events: events}
}

// Course recomputes a student's progress from scratch: a full recount on
// every call, no caching and no incremental path. The summary refresh is a
// side effect whose failure never fails the read.
func (s *Service) Course(ctx context.Context, email, courseID string) (CourseProgress, error) {
	if strings.TrimSpace(email) == "" {
		return CourseProgress{}, fmt.Errorf("%w: email", course.ErrMissingParameter)
	}
	total, err := s.courses.CountLessons(ctx, courseID)
	if err != nil {
		return CourseProgress{}, err
	}
	completed, err := s.store.CountCompleted(ctx, email, courseID)
	if err != nil {
		return CourseProgress{}, fmt.Errorf("%w: count completed: %v", course.ErrStoreUnavailable, err)
	}

	p := CourseProgress{TotalLessons: total, CompletedLessons: completed}
	if total > 0 {
		p.ProgressPercentage = int(math.Round(float64(completed) / float64(total) * 100))
	}

	s.refreshSummary(ctx, email, courseID, p)
	return p, nil
}

// MarkComplete records one material completion and returns the recomputed
// progress.
func (s *Service) MarkComplete(ctx context.Context, email, courseID, materialID string) (CourseProgress, error) {
	if strings.TrimSpace(email) == "" {
		return CourseProgress{}, fmt.Errorf("%w: email", course.ErrMissingParameter)
	}
	if strings.TrimSpace(courseID) == "" {
		return CourseProgress{}, fmt.Errorf("%w: courseId", course.ErrMissingParameter)
	}
	if strings.TrimSpace(materialID) == "" {
		return CourseProgress{}, fmt.Errorf("%w: materialId", course.ErrMissingParameter)
	}
	if _, err := s.lookup.GetMaterial(ctx, materialID); err != nil {
		return CourseProgress{}, err
	}

	rec := Record{
		Email:       email,
		CourseID:    courseID,
		MaterialID:  materialID,
		Completed:   true,
		CompletedAt: time.Now().Unix(),
	}
	if err := s.store.MarkComplete(ctx, rec); err != nil {
		return CourseProgress{}, fmt.Errorf("%w: mark complete: %v", course.ErrStoreUnavailable, err)
	}
	s.record(ctx, rec)
	return s.Course(ctx, email, courseID)
}

func (s *Service) refreshSummary(ctx context.Context, email, courseID string, p CourseProgress) {
	sum := Summary{
		Email:            email,
		CourseID:         courseID,
		TotalLessons:     p.TotalLessons,
		CompletedLessons: p.CompletedLessons,
		Percent:          p.ProgressPercentage,
		QuizScores:       map[string]int{},
		LastActivity:     time.Now().Unix(),
	}
	if s.quizzes != nil {
		if scores, err := s.bestQuizScores(ctx, email, courseID); err == nil {
			sum.QuizScores = scores
		} else {
			log.Printf("progress: quiz scores for summary failed: %v", err)
		}
	}
	if err := s.store.UpsertSummary(ctx, sum); err != nil {
		log.Printf("progress: summary write failed for %s/%s: %v", email, courseID, err)
	}
}

func (s *Service) bestQuizScores(ctx context.Context, email, courseID string) (map[string]int, error) {
	recs, err := s.lookup.ListCourseMaterials(ctx, courseID)
	if err != nil {
		return nil, err
	}
	var quizIDs []string
	for _, m := range recs {
		if m.Type == course.TypeQuiz {
			quizIDs = append(quizIDs, m.ID)
		}
	}
	return s.quizzes.BestScores(ctx, email, quizIDs)
}

func (s *Service) record(ctx context.Context, rec Record) {
	if s.events == nil {
		return
	}
	data, _ := json.Marshal(map[string]any{"courseId": rec.CourseID, "materialId": rec.MaterialID})
	if err := s.events.Append(ctx, activity.Event{
		Type:     activity.TypeMaterialCompleted,
		Key:      rec.Email + "|" + rec.MaterialID,
		DataJSON: string(data),
	}); err != nil {
		log.Printf("progress: event append failed: %v", err)
	}
}
