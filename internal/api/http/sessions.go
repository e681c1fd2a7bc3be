package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quizforge/quizforge/internal/assemble"
	"github.com/quizforge/quizforge/internal/bank"
	"github.com/quizforge/quizforge/internal/eventlog"
	"github.com/quizforge/quizforge/internal/rbac"
	"github.com/quizforge/quizforge/internal/session"
	"github.com/quizforge/quizforge/internal/stats"
)

// deliveryQuestion is what a test taker sees. The correct answer and the
// explanation stay server-side until results.
type deliveryQuestion struct {
	ID                   string   `json:"id"`
	Text                 string   `json:"question"`
	Options              []string `json:"options"`
	Difficulty           string   `json:"difficulty"`
	Category             string   `json:"category"`
	EstimatedTimeSeconds int      `json:"estimated_time_seconds"`
}

func toDelivery(q bank.Question) deliveryQuestion {
	return deliveryQuestion{
		ID:                   q.ID,
		Text:                 q.Text,
		Options:              q.Options,
		Difficulty:           string(q.Difficulty),
		Category:             q.Category,
		EstimatedTimeSeconds: q.EstimatedTimeSeconds,
	}
}

// POST /api/sessions  { "test_id": "..." }
func CreateSessionHandler(sessions session.Store, tests assemble.Store, st *stats.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TestID string `json:"test_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.TestID == "" {
			http.Error(w, "test_id required", 400)
			return
		}
		t, err := tests.Get(r.Context(), req.TestID)
		if err != nil {
			writeErr(w, err)
			return
		}
		sess, err := sessions.Start(r.Context(), rbac.SubjectFromContext(r.Context()), t)
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = st.RecordSessionStarted(r.Context())
		writeJSON(w, http.StatusCreated, sess)
	}
}

// GET /api/sessions/{sessionID}
func GetSessionHandler(sessions session.Store, pool bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		questions, err := pool.GetMany(r.Context(), sess.QuestionIDs)
		if err != nil {
			writeErr(w, err)
			return
		}
		view := make([]deliveryQuestion, len(questions))
		for i, q := range questions {
			view[i] = toDelivery(q)
		}
		writeJSON(w, http.StatusOK, struct {
			session.Session
			Questions []deliveryQuestion `json:"questions"`
		}{sess, view})
	}
}

// POST /api/sessions/{sessionID}/answers
func SaveAnswerHandler(sessions session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionID       string `json:"question_id"`
			SelectedOption   *int   `json:"selected_option"`
			TimeSpentSeconds int    `json:"time_spent_seconds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.QuestionID == "" {
			http.Error(w, "question_id required", 400)
			return
		}
		if req.SelectedOption != nil &&
			(*req.SelectedOption < 0 || *req.SelectedOption >= bank.NumOptions) {
			http.Error(w, "selected_option out of range", 400)
			return
		}
		err := sessions.SaveAnswer(r.Context(),
			chi.URLParam(r, "sessionID"), req.QuestionID, req.SelectedOption, req.TimeSpentSeconds)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
	}
}

// POST /api/sessions/{sessionID}/complete
func CompleteSessionHandler(sessions session.Store, st *stats.Repo, events *eventlog.Repo, passingGrade float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		result, err := sessions.Finalize(r.Context(), id, passingGrade)
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = st.RecordCompletion(r.Context(), result.Percentage, result.Passed)
		_ = events.Append(r.Context(), eventlog.TypeSessionFinalized, id, map[string]any{
			"percentage": result.Percentage,
			"passed":     result.Passed,
		})
		writeJSON(w, http.StatusOK, result)
	}
}

// GET /api/sessions/{sessionID}/results
// Full review payload: the stored score plus every question with its correct
// answer, explanation and the recorded selection.
func ResultsHandler(sessions session.Store, pool bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		result, err := sessions.Result(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		sess, err := sessions.Get(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		questions, err := pool.GetMany(r.Context(), sess.QuestionIDs)
		if err != nil {
			writeErr(w, err)
			return
		}
		type reviewItem struct {
			bank.Question
			Selected *int `json:"selected_option"`
			Correct  bool `json:"correct"`
		}
		items := make([]reviewItem, len(questions))
		for i, q := range questions {
			a := sess.Answers[q.ID]
			items[i] = reviewItem{
				Question: q,
				Selected: a.Selected,
				Correct:  a.Selected != nil && *a.Selected == q.CorrectOption,
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"session_id": id,
			"result":     result,
			"questions":  items,
		})
	}
}

// GET /api/admin/sessions
func ListSessionsHandler(sessions session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := session.ListOpts{
			UserID: r.URL.Query().Get("user_id"),
			Status: session.Status(r.URL.Query().Get("status")),
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				opts.Limit = n
			}
		}
		out, err := sessions.List(r.Context(), opts)
		if err != nil {
			writeErr(w, err)
			return
		}
		if out == nil {
			out = []session.Summary{}
		}
		writeJSON(w, http.StatusOK, out)
	}
}
