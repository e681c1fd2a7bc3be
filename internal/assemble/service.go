package assemble

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/quizforge/quizforge/internal/bank"
	"github.com/quizforge/quizforge/internal/selector"
	"github.com/quizforge/quizforge/internal/usage"
)

// Request is the web layer's test request.
type Request struct {
	Mode            selector.Mode    `json:"mode"`
	Filters         selector.Filters `json:"filters"`
	Count           int              `json:"count"`
	SourceSessionID string           `json:"source_session_id,omitempty"`
}

// Service wires pool snapshot + usage snapshot into the selector and persists
// the resulting test.
type Service struct {
	pool   bank.Store
	usage  usage.Store
	tests  Store
	review ReviewSource

	mu  sync.Mutex
	rng *rand.Rand
}

func NewService(pool bank.Store, usageStore usage.Store, tests Store, review ReviewSource) *Service {
	return &Service{
		pool:   pool,
		usage:  usageStore,
		tests:  tests,
		review: review,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RequestTest validates the request, selects questions and stores the test.
// Selection reads lock-free snapshots; an in-flight finalize not yet visible
// here is acceptable staleness.
func (s *Service) RequestTest(ctx context.Context, userID string, req Request) (Test, error) {
	if req.Count == 0 {
		req.Count = DefaultRequested
	}
	if !req.Mode.Valid() {
		return Test{}, fmt.Errorf("mode %q: %w", req.Mode, selector.ErrInvalidRequest)
	}
	if req.Mode == selector.ModeReview {
		if req.SourceSessionID == "" {
			return Test{}, fmt.Errorf("review mode requires source_session_id: %w", selector.ErrInvalidRequest)
		}
		ids, err := s.review.IncorrectQuestionIDs(ctx, req.SourceSessionID)
		if err != nil {
			return Test{}, err
		}
		req.Filters.ReviewIDs = ids
	}

	pool, err := s.pool.Snapshot(ctx)
	if err != nil {
		return Test{}, err
	}
	usageForUser, err := s.usage.ForUser(ctx, userID)
	if err != nil {
		return Test{}, err
	}

	s.mu.Lock()
	ids, err := selector.Select(pool, usageForUser, req.Mode, req.Filters, req.Count, s.rng)
	s.mu.Unlock()
	if err != nil {
		return Test{}, err
	}

	byID := make(map[string]bank.Question, len(pool))
	for _, q := range pool {
		byID[q.ID] = q
	}
	t := New(ids, byID, req.Mode, req.Filters, req.Count)
	if err := s.tests.Put(ctx, t, userID); err != nil {
		return Test{}, err
	}
	return t, nil
}
