package session

import (
	"context"
	"time"

	"github.com/quizforge/quizforge/internal/assemble"
	"github.com/quizforge/quizforge/internal/score"
)

type ListOpts struct {
	UserID string
	Status Status
	Limit  int
}

// Store runs the session lifecycle. Finalize is the only operation that
// touches the usage ledger, and does so atomically with the session update:
// a failed finalize leaves no partial increments and may be retried.
type Store interface {
	Start(ctx context.Context, userID string, t assemble.Test) (Session, error)
	Get(ctx context.Context, id string) (Session, error)

	// SaveAnswer overwrites the recorded selection for one question. It never
	// judges correctness; that is deferred to Finalize.
	SaveAnswer(ctx context.Context, sessionID, questionID string, selected *int, timeSpentSeconds int) error

	// Finalize scores the session exactly once. ErrAlreadyCompleted on any
	// later call; the stored result and ledger stay untouched.
	Finalize(ctx context.Context, sessionID string, passingGrade float64) (score.Result, error)

	// Result returns the stored score of a completed session.
	Result(ctx context.Context, sessionID string) (score.Result, error)

	// IncorrectQuestionIDs feeds review-mode selection from a completed
	// session's wrong answers.
	IncorrectQuestionIDs(ctx context.Context, sessionID string) ([]string, error)

	List(ctx context.Context, opts ListOpts) ([]Summary, error)

	// MarkAbandoned flags in_progress sessions started before the cutoff.
	// Called by the cleanup sweeper, not by the core.
	MarkAbandoned(ctx context.Context, startedBefore time.Time) (int64, error)
}
