package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnloop/learnloop-lms/internal/course"
	"github.com/learnloop/learnloop-lms/internal/quiz"
	"github.com/learnloop/learnloop-lms/internal/rbac"
)

// GET /questions?quizId=...
// Students get questions with answer keys and explanations stripped; roles
// holding quiz:view-keys get the full rows. An unknown quiz id is 404, not an
// empty list.
func ListQuestionsHandler(materials course.Store, store quiz.Store, svc *quiz.Service) http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		quizID := r.URL.Query().Get("quizId")
		if quizID == "" {
			writeErr(w, fmt.Errorf("%w: quizId", course.ErrMissingParameter))
			return
		}
		m, err := materials.GetMaterial(r.Context(), quizID)
		if err != nil {
			writeErr(w, err)
			return
		}
		if m.Type != course.TypeQuiz {
			writeErr(w, fmt.Errorf("%w: quiz %s", course.ErrNotFound, quizID))
			return
		}
		role := rbac.RoleFromContext(r.Context())
		var qs []quiz.Question
		if checker.Has(role, "quiz:view-keys") {
			qs, err = store.ListQuestions(r.Context(), quizID)
		} else {
			qs, err = svc.QuestionsForStudent(r.Context(), quizID)
		}
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"questions": qs})
	}
}

// POST /questions
func CreateQuestionHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q quiz.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			writeFail(w, http.StatusBadRequest, "bad json")
			return
		}
		saved, err := store.PutQuestion(r.Context(), q)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"question": saved})
	}
}

// DELETE /questions/{questionID}
func DeleteQuestionHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "questionID")
		if err := store.DeleteQuestion(r.Context(), id); err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"deleted": id})
	}
}
