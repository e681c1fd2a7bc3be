package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizforge/quizforge/internal/assemble"
	"github.com/quizforge/quizforge/internal/eventlog"
	"github.com/quizforge/quizforge/internal/rbac"
	"github.com/quizforge/quizforge/internal/stats"
)

// POST /api/tests
func CreateTestHandler(svc *assemble.Service, st *stats.Repo, events *eventlog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assemble.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		userID := rbac.SubjectFromContext(r.Context())
		t, err := svc.RequestTest(r.Context(), userID, req)
		if err != nil {
			writeErr(w, err)
			return
		}
		// Stats and audit are best effort; the test is already stored.
		_ = st.RecordTestGenerated(r.Context())
		_ = events.Append(r.Context(), eventlog.TypeTestGenerated, t.ID, map[string]any{
			"mode":         t.Mode,
			"actual_count": t.ActualCount,
			"user_id":      userID,
		})
		writeJSON(w, http.StatusCreated, t)
	}
}

// GET /api/tests/{testID}
func GetTestHandler(tests assemble.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := tests.Get(r.Context(), chi.URLParam(r, "testID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}
