package assemble

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("test not found")

// Store persists assembled tests. Tests are write-once.
type Store interface {
	Put(ctx context.Context, t Test, userID string) error
	Get(ctx context.Context, id string) (Test, error)
}

// ReviewSource resolves which question ids a user got wrong in a completed
// session. Satisfied by the session store; declared here so the generation
// service does not depend on the session package.
type ReviewSource interface {
	IncorrectQuestionIDs(ctx context.Context, sessionID string) ([]string, error)
}
