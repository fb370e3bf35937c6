package http

import (
	"encoding/json"
	"net/http"

	"github.com/learnloop/learnloop-lms/internal/quiz"
	"github.com/learnloop/learnloop-lms/internal/rbac"
)

// POST /attempts
// Body: {quizId, answers, timeSpent}. The server grades against the stored
// answer keys; the caller's identity comes from the token, never the body.
func SubmitAttemptHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in quiz.SubmitInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeFail(w, http.StatusBadRequest, "bad json")
			return
		}
		in.Email = rbac.SubjectFromContext(r.Context())

		res, err := svc.Submit(r.Context(), in)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{
			"attempt":        res.Attempt,
			"correctCount":   res.CorrectCount,
			"totalQuestions": res.TotalQuestions,
			"stored":         res.Stored,
		})
	}
}

// GET /attempts?quizId=...&email=...
// Callers without attempt:view-all are scoped to their own attempts.
func ListAttemptsHandler(svc *quiz.Service) http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		role := rbac.RoleFromContext(r.Context())
		if !checker.Has(role, "attempt:view-all") || email == "" {
			email = rbac.SubjectFromContext(r.Context())
		}
		list, err := svc.AttemptsFor(r.Context(), r.URL.Query().Get("quizId"), email)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"attempts": list})
	}
}
