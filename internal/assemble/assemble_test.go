package assemble

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quizforge/quizforge/internal/bank"
	"github.com/quizforge/quizforge/internal/selector"
	"github.com/quizforge/quizforge/internal/usage"
)

func seedPool(t *testing.T, n int, seconds int) (bank.Store, []string) {
	t.Helper()
	b := bank.Bank{ID: "b1", Title: "Test Bank"}
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := "q" + string(rune('a'+i))
		ids = append(ids, id)
		b.Questions = append(b.Questions, bank.Question{
			ID:                   id,
			Text:                 "q " + id,
			Options:              []string{"a", "b", "c", "d"},
			Difficulty:           bank.DifficultyMedium,
			Category:             "general",
			EstimatedTimeSeconds: seconds,
		})
	}
	store := bank.NewInMemoryStore()
	_, err := store.UpsertBank(context.Background(), b)
	require.NoError(t, err)
	return store, ids
}

func TestNewRoundsDurationUp(t *testing.T) {
	pool := map[string]bank.Question{
		"q1": {ID: "q1", EstimatedTimeSeconds: 90},
		"q2": {ID: "q2", EstimatedTimeSeconds: 75},
	}
	// 165 seconds is 2m45s and must bill as 3 minutes.
	tt := New([]string{"q1", "q2"}, pool, selector.ModeRandom, selector.Filters{}, 10)
	require.Equal(t, 3, tt.DurationMinutes)
	require.Equal(t, 2, tt.ActualCount)
	require.Equal(t, 10, tt.RequestedCount)
}

func TestNewExactMinuteDoesNotRoundUp(t *testing.T) {
	pool := map[string]bank.Question{
		"q1": {ID: "q1", EstimatedTimeSeconds: 60},
		"q2": {ID: "q2", EstimatedTimeSeconds: 120},
	}
	tt := New([]string{"q1", "q2"}, pool, selector.ModeRandom, selector.Filters{}, 10)
	require.Equal(t, 3, tt.DurationMinutes)
}

func TestTitlePerMode(t *testing.T) {
	pool := map[string]bank.Question{"q1": {ID: "q1", EstimatedTimeSeconds: 60}}
	ids := []string{"q1"}

	tt := New(ids, pool, selector.ModeRandom, selector.Filters{}, 5)
	require.Equal(t, "Random test - 1 questions", tt.Title)

	tt = New(ids, pool, selector.ModeCategory, selector.Filters{Categories: []string{"math"}}, 5)
	require.Equal(t, "Category test (math) - 1 questions", tt.Title)

	tt = New(ids, pool, selector.ModeDifficulty, selector.Filters{Difficulty: bank.DifficultyMixed}, 5)
	require.Equal(t, "Mixed test - 1 questions", tt.Title)

	tt = New(ids, pool, selector.ModeReview, selector.Filters{}, 5)
	require.Equal(t, "Review mistakes - 1 questions", tt.Title)
}

type fakeReview struct{ ids []string }

func (f fakeReview) IncorrectQuestionIDs(context.Context, string) ([]string, error) {
	return f.ids, nil
}

func TestRequestTestDefaultsCount(t *testing.T) {
	pool, _ := seedPool(t, 8, 90)
	svc := NewService(pool, usage.NewMemoryLedger(), NewInMemoryStore(), fakeReview{})

	tt, err := svc.RequestTest(context.Background(), "u1", Request{Mode: selector.ModeRandom})
	require.NoError(t, err)
	require.Equal(t, DefaultRequested, tt.RequestedCount)
	require.Equal(t, 8, tt.ActualCount, "small pool caps the test")
}

func TestRequestTestPersists(t *testing.T) {
	pool, _ := seedPool(t, 10, 90)
	tests := NewInMemoryStore()
	svc := NewService(pool, usage.NewMemoryLedger(), tests, fakeReview{})

	tt, err := svc.RequestTest(context.Background(), "u1", Request{Mode: selector.ModeRandom, Count: 6})
	require.NoError(t, err)

	got, err := tests.Get(context.Background(), tt.ID)
	require.NoError(t, err)
	require.Equal(t, tt.QuestionIDs, got.QuestionIDs)
}

func TestRequestTestInvalidMode(t *testing.T) {
	pool, _ := seedPool(t, 10, 90)
	svc := NewService(pool, usage.NewMemoryLedger(), NewInMemoryStore(), fakeReview{})

	_, err := svc.RequestTest(context.Background(), "u1", Request{Mode: "adaptive"})
	require.ErrorIs(t, err, selector.ErrInvalidRequest)
}

func TestRequestTestReviewRequiresSource(t *testing.T) {
	pool, _ := seedPool(t, 10, 90)
	svc := NewService(pool, usage.NewMemoryLedger(), NewInMemoryStore(), fakeReview{})

	_, err := svc.RequestTest(context.Background(), "u1", Request{Mode: selector.ModeReview})
	require.ErrorIs(t, err, selector.ErrInvalidRequest)
}

func TestRequestTestReviewUsesSourceMistakes(t *testing.T) {
	pool, ids := seedPool(t, 10, 90)
	svc := NewService(pool, usage.NewMemoryLedger(), NewInMemoryStore(), fakeReview{ids: ids[:3]})

	tt, err := svc.RequestTest(context.Background(), "u1",
		Request{Mode: selector.ModeReview, SourceSessionID: "s1", Count: 50})
	require.NoError(t, err)
	require.ElementsMatch(t, ids[:3], tt.QuestionIDs, "review ignores the requested count")
}
