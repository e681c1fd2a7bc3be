package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quizforge/quizforge/internal/assemble"
	"github.com/quizforge/quizforge/internal/bank"
	"github.com/quizforge/quizforge/internal/score"
	"github.com/quizforge/quizforge/internal/usage"
)

type memoryStore struct {
	mu      sync.Mutex
	pool    bank.Store
	ledger  *usage.MemoryLedger
	byID    map[string]*memSession
	results map[string]score.Result
	titles  map[string]string // test id -> title, for summaries
}

type memSession struct {
	Session
	correctness map[string]bool // set at finalize
}

// NewInMemoryStore pairs with bank.NewInMemoryStore and usage.NewMemoryLedger
// for database-free runs and tests. Semantics match the SQL store.
func NewInMemoryStore(pool bank.Store, ledger *usage.MemoryLedger) Store {
	return &memoryStore{
		pool:    pool,
		ledger:  ledger,
		byID:    map[string]*memSession{},
		results: map[string]score.Result{},
		titles:  map[string]string{},
	}
}

func (m *memoryStore) Start(_ context.Context, userID string, t assemble.Test) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		TestID:      t.ID,
		Status:      StatusCreated,
		StartedAt:   time.Now().UTC(),
		QuestionIDs: append([]string(nil), t.QuestionIDs...),
		Answers:     map[string]Answer{},
	}
	for _, qid := range t.QuestionIDs {
		sess.Answers[qid] = Answer{}
	}
	m.byID[sess.ID] = &memSession{Session: sess}
	m.titles[t.ID] = t.Title
	return sess, nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.byID[id]
	if !ok {
		return Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return ms.clone(), nil
}

func (ms *memSession) clone() Session {
	out := ms.Session
	out.QuestionIDs = append([]string(nil), ms.QuestionIDs...)
	out.Answers = make(map[string]Answer, len(ms.Answers))
	for k, v := range ms.Answers {
		out.Answers[k] = v
	}
	return out
}

func (m *memoryStore) SaveAnswer(_ context.Context, sessionID, questionID string, selected *int, timeSpentSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.byID[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if ms.Status == StatusCompleted {
		return fmt.Errorf("session %s: %w", sessionID, ErrAlreadyCompleted)
	}
	if _, ok := ms.Answers[questionID]; !ok {
		return fmt.Errorf("question %s: %w", questionID, ErrQuestionNotInTest)
	}
	now := time.Now().UTC()
	a := Answer{TimeSpentSeconds: timeSpentSeconds, AnsweredAt: &now}
	if selected != nil {
		v := *selected
		a.Selected = &v
	}
	ms.Answers[questionID] = a
	ms.Status = StatusInProgress
	return nil
}

func (m *memoryStore) Finalize(ctx context.Context, sessionID string, passingGrade float64) (score.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.byID[sessionID]
	if !ok {
		return score.Result{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if ms.Status == StatusCompleted {
		return score.Result{}, fmt.Errorf("session %s: %w", sessionID, ErrAlreadyCompleted)
	}

	questions, err := m.pool.GetMany(ctx, ms.QuestionIDs)
	if err != nil {
		return score.Result{}, err
	}
	responses := make(map[string]score.Response, len(ms.Answers))
	for qid, a := range ms.Answers {
		responses[qid] = score.Response{Selected: a.Selected}
	}
	result := score.Score(questions, responses, passingGrade)

	now := time.Now().UTC()
	ms.Status = StatusCompleted
	ms.CompletedAt = &now
	ms.correctness = map[string]bool{}
	for _, q := range questions {
		correct := score.Correctness(q, responses[q.ID])
		ms.correctness[q.ID] = correct
		m.ledger.Apply(ms.UserID, q.ID, correct, now)
	}
	m.results[sessionID] = result
	return result, nil
}

func (m *memoryStore) Result(_ context.Context, sessionID string) (score.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.byID[sessionID]
	if !ok {
		return score.Result{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if ms.Status != StatusCompleted {
		return score.Result{}, fmt.Errorf("session %s: %w", sessionID, ErrNotCompleted)
	}
	return m.results[sessionID], nil
}

func (m *memoryStore) IncorrectQuestionIDs(_ context.Context, sessionID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.byID[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if ms.Status != StatusCompleted {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotCompleted)
	}
	var out []string
	for _, qid := range ms.QuestionIDs {
		if !ms.correctness[qid] {
			out = append(out, qid)
		}
	}
	return out, nil
}

func (m *memoryStore) List(_ context.Context, opts ListOpts) ([]Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	var out []Summary
	for _, ms := range m.byID {
		if opts.UserID != "" && ms.UserID != opts.UserID {
			continue
		}
		if opts.Status != "" && ms.Status != opts.Status {
			continue
		}
		sm := Summary{
			ID:          ms.ID,
			TestID:      ms.TestID,
			TestTitle:   m.titles[ms.TestID],
			UserID:      ms.UserID,
			Status:      ms.Status,
			StartedAt:   ms.StartedAt,
			CompletedAt: ms.CompletedAt,
			Total:       len(ms.QuestionIDs),
		}
		if r, ok := m.results[ms.ID]; ok {
			sm.Percentage = r.Percentage
		}
		out = append(out, sm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memoryStore) MarkAbandoned(_ context.Context, startedBefore time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, ms := range m.byID {
		if ms.Status == StatusInProgress && ms.StartedAt.Before(startedBefore) {
			ms.Status = StatusAbandoned
			n++
		}
	}
	return n, nil
}
