package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/quizforge/quizforge/internal/assemble"
	"github.com/quizforge/quizforge/internal/bank"
	"github.com/quizforge/quizforge/internal/selector"
	"github.com/quizforge/quizforge/internal/session"
	"github.com/quizforge/quizforge/internal/usage"
)

type env struct {
	pool     bank.Store
	tests    assemble.Store
	sessions session.Store
	test     assemble.Test
}

func newEnv(t *testing.T) env {
	t.Helper()
	ctx := context.Background()

	b := bank.Bank{ID: "b1", Title: "Fixture"}
	poolMap := map[string]bank.Question{}
	var ids []string
	for i := 0; i < 5; i++ {
		id := "q" + string(rune('1'+i))
		q := bank.Question{
			ID:                   id,
			Text:                 "q " + id,
			Options:              []string{"a", "b", "c", "d"},
			CorrectOption:        0,
			Difficulty:           bank.DifficultyMedium,
			Category:             "general",
			EstimatedTimeSeconds: 60,
		}
		b.Questions = append(b.Questions, q)
		poolMap[id] = q
		ids = append(ids, id)
	}
	pool := bank.NewInMemoryStore()
	if _, err := pool.UpsertBank(ctx, b); err != nil {
		t.Fatal(err)
	}

	tests := assemble.NewInMemoryStore()
	tt := assemble.New(ids, poolMap, selector.ModeRandom, selector.Filters{}, 5)
	if err := tests.Put(ctx, tt, "u1"); err != nil {
		t.Fatal(err)
	}
	sessions := session.NewInMemoryStore(pool, usage.NewMemoryLedger())
	return env{pool: pool, tests: tests, sessions: sessions, test: tt}
}

func TestGetTestHandler(t *testing.T) {
	e := newEnv(t)
	r := chi.NewRouter()
	r.Get("/api/tests/{testID}", GetTestHandler(e.tests))

	req := httptest.NewRequest("GET", "/api/tests/"+e.test.ID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got assemble.Test
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.ID != e.test.ID || got.ActualCount != 5 {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestGetTestHandlerNotFound(t *testing.T) {
	e := newEnv(t)
	r := chi.NewRouter()
	r.Get("/api/tests/{testID}", GetTestHandler(e.tests))

	req := httptest.NewRequest("GET", "/api/tests/nope", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetSessionHidesAnswers(t *testing.T) {
	e := newEnv(t)
	sess, err := e.sessions.Start(context.Background(), "u1", e.test)
	if err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	r.Get("/api/sessions/{sessionID}", GetSessionHandler(e.sessions, e.pool))

	req := httptest.NewRequest("GET", "/api/sessions/"+sess.ID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "correct_answer") {
		t.Fatalf("delivery view leaks the correct answer: %s", body)
	}
	if !strings.Contains(body, `"questions"`) {
		t.Fatalf("delivery view missing questions: %s", body)
	}
}

func TestSaveAnswerHandlerValidation(t *testing.T) {
	e := newEnv(t)
	sess, err := e.sessions.Start(context.Background(), "u1", e.test)
	if err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	r.Post("/api/sessions/{sessionID}/answers", SaveAnswerHandler(e.sessions))

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/sessions/"+sess.ID+"/answers", strings.NewReader(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := post(`{"question_id":"q1","selected_option":2,"time_spent_seconds":10}`); rec.Code != 200 {
		t.Fatalf("valid answer: status = %d, want 200", rec.Code)
	}
	if rec := post(`{"question_id":"q1","selected_option":9}`); rec.Code != 400 {
		t.Fatalf("out of range option: status = %d, want 400", rec.Code)
	}
	if rec := post(`{"selected_option":1}`); rec.Code != 400 {
		t.Fatalf("missing question_id: status = %d, want 400", rec.Code)
	}
	if rec := post(`{"question_id":"not-in-test","selected_option":1}`); rec.Code != 404 {
		t.Fatalf("foreign question: status = %d, want 404", rec.Code)
	}
}

func TestResultsBeforeCompletionConflicts(t *testing.T) {
	e := newEnv(t)
	sess, err := e.sessions.Start(context.Background(), "u1", e.test)
	if err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	r.Get("/api/sessions/{sessionID}/results", ResultsHandler(e.sessions, e.pool))

	req := httptest.NewRequest("GET", "/api/sessions/"+sess.ID+"/results", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestResultsAfterCompletion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sess, err := e.sessions.Start(ctx, "u1", e.test)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.sessions.Finalize(ctx, sess.ID, 70); err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	r.Get("/api/sessions/{sessionID}/results", ResultsHandler(e.sessions, e.pool))

	req := httptest.NewRequest("GET", "/api/sessions/"+sess.ID+"/results", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "correct_answer") {
		t.Fatal("results view should include the correct answers")
	}
}
