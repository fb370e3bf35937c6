package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/learnloop/learnloop-lms/internal/course"
	"github.com/learnloop/learnloop-lms/internal/quiz"
)

// Every response uses the same envelope: {"success": true, ...payload} or
// {"success": false, "message": "..."}.

func writeOK(w http.ResponseWriter, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["success"] = true
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeFail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg})
}

// writeErr maps the error taxonomy onto HTTP statuses. Store failures become
// a generic 500: driver messages stay in the logs, not on the wire.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, course.ErrMissingParameter), errors.Is(err, course.ErrParentMissing):
		writeFail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, course.ErrNotFound):
		writeFail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, quiz.ErrAttemptLimit):
		writeFail(w, http.StatusConflict, err.Error())
	default:
		log.Printf("api: internal error: %v", err)
		writeFail(w, http.StatusInternalServerError, "internal error")
	}
}
