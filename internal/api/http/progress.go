package http

import (
	"encoding/json"
	"net/http"

	"github.com/learnloop/learnloop-lms/internal/progress"
	"github.com/learnloop/learnloop-lms/internal/rbac"
)

// GET /progress?courseId=...&email=...
// Callers without progress:view-all are scoped to their own progress.
func GetProgressHandler(svc *progress.Service) http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		role := rbac.RoleFromContext(r.Context())
		if !checker.Has(role, "progress:view-all") || email == "" {
			email = rbac.SubjectFromContext(r.Context())
		}
		p, err := svc.Course(r.Context(), email, r.URL.Query().Get("courseId"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{
			"totalLessons":       p.TotalLessons,
			"completedLessons":   p.CompletedLessons,
			"progressPercentage": p.ProgressPercentage,
		})
	}
}

// POST /progress/complete
// Body: {courseId, materialId}. Marks one material complete for the caller
// and returns the recomputed progress.
func MarkCompleteHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CourseID   string `json:"courseId"`
			MaterialID string `json:"materialId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFail(w, http.StatusBadRequest, "bad json")
			return
		}
		email := rbac.SubjectFromContext(r.Context())
		p, err := svc.MarkComplete(r.Context(), email, req.CourseID, req.MaterialID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{
			"totalLessons":       p.TotalLessons,
			"completedLessons":   p.CompletedLessons,
			"progressPercentage": p.ProgressPercentage,
		})
	}
}
