// Package usage is the per-user exposure ledger behind anti-repetition
// ranking. Rows are created lazily on first exposure and only ever mutated
// inside a session finalize transaction.
package usage

import (
	"context"
	"time"
)

// Record is one (user, question) row. LastUsed is nil until the first
// finalized exposure.
type Record struct {
	TimesUsed      int        `json:"times_used"`
	LastUsed       *time.Time `json:"last_used,omitempty"`
	CorrectCount   int        `json:"correct_count"`
	IncorrectCount int        `json:"incorrect_count"`
}

// Store reads ledger snapshots. Writes go through Apply with the caller's
// transaction handle so they share the finalize unit.
type Store interface {
	ForUser(ctx context.Context, userID string) (map[string]Record, error)
}
