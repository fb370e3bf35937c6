package course

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// BuildTree reassembles the nested section tree from a flat record set.
// Single pass buckets by type, then parents adopt children sorted by order
// (stable, so equal orders keep scan order). Records whose parent id matches
// nothing are dropped silently. If two video rows share a subsection the last
// scanned one wins.
func BuildTree(records []Material) []Section {
	var sections []Material
	subsBySection := map[string][]Material{}
	matsBySub := map[string][]Material{}
	videoBySub := map[string]Material{}
	quizzesBySection := map[string][]Material{}

	for _, m := range records {
		switch m.Type {
		case TypeSection:
			sections = append(sections, m)
		case TypeSubsection:
			subsBySection[m.SectionID] = append(subsBySection[m.SectionID], m)
		case TypePDF:
			matsBySub[m.SubSectionID] = append(matsBySub[m.SubSectionID], m)
		case TypeVideo:
			videoBySub[m.SubSectionID] = m
		case TypeQuiz:
			quizzesBySection[m.SectionID] = append(quizzesBySection[m.SectionID], m)
		}
	}

	sortByOrder(sections)
	out := make([]Section, 0, len(sections))
	for _, sec := range sections {
		node := Section{Material: sec, SubSections: []SubSection{}, Quizzes: []Material{}}

		subs := subsBySection[sec.ID]
		sortByOrder(subs)
		for _, sub := range subs {
			sn := SubSection{Material: sub, Materials: []Material{}}
			mats := matsBySub[sub.ID]
			sortByOrder(mats)
			sn.Materials = append(sn.Materials, mats...)
			if v, ok := videoBySub[sub.ID]; ok {
				vc := v
				sn.Video = &vc
			}
			node.SubSections = append(node.SubSections, sn)
		}

		quizzes := quizzesBySection[sec.ID]
		sortByOrder(quizzes)
		node.Quizzes = append(node.Quizzes, quizzes...)

		out = append(out, node)
	}
	return out
}

func sortByOrder(ms []Material) {
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Order < ms[j].Order })
}

// Service wraps a Store with the read-side operations handlers consume.
type Service struct {
	store Store
}

func NewService(store Store) *Service { return &Service{store: store} }

// CourseTree fetches and reassembles the full tree for one course. Pure
// read-and-reshape: no caching, no side effects.
func (s *Service) CourseTree(ctx context.Context, courseID string) ([]Section, error) {
	if strings.TrimSpace(courseID) == "" {
		return nil, fmt.Errorf("%w: courseId", ErrMissingParameter)
	}
	recs, err := s.store.ListCourseMaterials(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("%w: list materials: %v", ErrStoreUnavailable, err)
	}
	return BuildTree(recs), nil
}

// CountLessons is the canonical totals rule shared by every progress path:
// gradable (pdf + quiz) records in the course's reachable set.
func (s *Service) CountLessons(ctx context.Context, courseID string) (int, error) {
	if strings.TrimSpace(courseID) == "" {
		return 0, fmt.Errorf("%w: courseId", ErrMissingParameter)
	}
	recs, err := s.store.ListCourseMaterials(ctx, courseID)
	if err != nil {
		return 0, fmt.Errorf("%w: list materials: %v", ErrStoreUnavailable, err)
	}
	n := 0
	for _, m := range recs {
		if m.Type.Gradable() {
			n++
		}
	}
	return n, nil
}
