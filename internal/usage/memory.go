package usage

import (
	"context"
	"sync"
	"time"
)

// MemoryLedger keeps the ledger in process memory. The zero value is not
// usable; call NewMemoryLedger.
type MemoryLedger struct {
	mu   sync.RWMutex
	rows map[string]map[string]Record // user -> question -> record
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{rows: map[string]map[string]Record{}}
}

func (m *MemoryLedger) ForUser(_ context.Context, userID string) (map[string]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Record, len(m.rows[userID]))
	for qid, rec := range m.rows[userID] {
		out[qid] = rec
	}
	return out, nil
}

func (m *MemoryLedger) Apply(userID, questionID string, correct bool, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byQ := m.rows[userID]
	if byQ == nil {
		byQ = map[string]Record{}
		m.rows[userID] = byQ
	}
	rec := byQ[questionID]
	rec.TimesUsed++
	t := at
	rec.LastUsed = &t
	if correct {
		rec.CorrectCount++
	} else {
		rec.IncorrectCount++
	}
	byQ[questionID] = rec
}
