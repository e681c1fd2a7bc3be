package bank

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("question not found")

// Store is the question pool. The core treats it as read-only; only the
// ingestion side (bank upload/delete) writes.
type Store interface {
	UpsertBank(ctx context.Context, b Bank) (UpsertReport, error)
	DeleteBank(ctx context.Context, bankID string) error
	ListBanks(ctx context.Context) ([]BankInfo, error)

	Get(ctx context.Context, id string) (Question, error)
	GetMany(ctx context.Context, ids []string) ([]Question, error)
	// Snapshot returns every question in the pool. Selection works on this
	// point-in-time copy; staleness against in-flight writes is acceptable.
	Snapshot(ctx context.Context) ([]Question, error)

	Categories(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (Stats, error)
}
