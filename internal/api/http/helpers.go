// Package http holds the REST handlers. Handlers are closures over their
// stores and mirror one URL each.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quizforge/quizforge/internal/assemble"
	"github.com/quizforge/quizforge/internal/bank"
	"github.com/quizforge/quizforge/internal/selector"
	"github.com/quizforge/quizforge/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps domain errors onto HTTP statuses. Anything unrecognized is a
// plain 500 with a generic body so internals never leak.
func writeErr(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, selector.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, selector.ErrEmptyPool),
		errors.Is(err, bank.ErrNotFound),
		errors.Is(err, assemble.ErrNotFound),
		errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrQuestionNotInTest):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrAlreadyCompleted),
		errors.Is(err, session.ErrNotCompleted):
		status = http.StatusConflict
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
