package bank

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu        sync.RWMutex
	questions map[string]Question
	banks     map[string]BankInfo
}

// NewInMemoryStore backs the pool with maps. Used by tests and by callers
// that want the service without a database.
func NewInMemoryStore() Store {
	return &memoryStore{
		questions: map[string]Question{},
		banks:     map[string]BankInfo{},
	}
}

func (m *memoryStore) UpsertBank(_ context.Context, b Bank) (UpsertReport, error) {
	if err := b.Validate(); err != nil {
		return UpsertReport{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rep := UpsertReport{BankID: b.ID}
	for _, q := range b.Questions {
		if old, ok := m.questions[q.ID]; ok && conflicting(old, q) {
			rep.Conflicts = append(rep.Conflicts, q.ID)
		}
	}
	for id, q := range m.questions {
		if q.BankID == b.ID {
			delete(m.questions, id)
		}
	}
	for _, q := range b.Questions {
		q.BankID = b.ID
		m.questions[q.ID] = q
		rep.Loaded++
	}
	now := time.Now().Unix()
	info, ok := m.banks[b.ID]
	if !ok {
		info = BankInfo{ID: b.ID, LoadedAt: now}
	}
	info.Title, info.Description = b.Title, b.Description
	info.QuestionCount = len(b.Questions)
	info.UpdatedAt = now
	m.banks[b.ID] = info
	return rep, nil
}

func conflicting(a, b Question) bool {
	if a.Text != b.Text || a.CorrectOption != b.CorrectOption || len(a.Options) != len(b.Options) {
		return true
	}
	for i := range a.Options {
		if a.Options[i] != b.Options[i] {
			return true
		}
	}
	return false
}

func (m *memoryStore) DeleteBank(_ context.Context, bankID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.banks[bankID]; !ok {
		return fmt.Errorf("bank %s: %w", bankID, ErrNotFound)
	}
	delete(m.banks, bankID)
	for id, q := range m.questions {
		if q.BankID == bankID {
			delete(m.questions, id)
		}
	}
	return nil
}

func (m *memoryStore) ListBanks(_ context.Context) ([]BankInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]BankInfo, 0, len(m.banks))
	for _, bi := range m.banks {
		out = append(out, bi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	return out, nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	if !ok {
		return Question{}, fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	return q, nil
}

func (m *memoryStore) GetMany(_ context.Context, ids []string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Question, 0, len(ids))
	for _, id := range ids {
		q, ok := m.questions[id]
		if !ok {
			return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
		}
		out = append(out, q)
	}
	return out, nil
}

func (m *memoryStore) Snapshot(_ context.Context) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Question, 0, len(m.questions))
	for _, q := range m.questions {
		out = append(out, q)
	}
	// Stable order keeps selection tests deterministic under a fixed seed.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) Categories(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := map[string]struct{}{}
	for _, q := range m.questions {
		if q.Category != "" {
			set[q.Category] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memoryStore) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Stats{
		TotalQuestions: len(m.questions),
		TotalBanks:     len(m.banks),
		ByDifficulty:   map[Difficulty]int{},
		ByCategory:     map[string]int{},
	}
	for _, q := range m.questions {
		st.ByDifficulty[q.Difficulty]++
		if q.Category != "" {
			st.ByCategory[q.Category]++
		}
	}
	return st, nil
}
