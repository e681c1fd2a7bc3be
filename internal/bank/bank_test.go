package bank

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func validQuestion(id string) Question {
	return Question{
		ID:                   id,
		Text:                 "q " + id,
		Options:              []string{"a", "b", "c", "d"},
		CorrectOption:        1,
		Difficulty:           DifficultyMedium,
		Category:             "general",
		EstimatedTimeSeconds: 90,
	}
}

func TestQuestionValidate(t *testing.T) {
	require.NoError(t, validQuestion("q1").Validate())

	q := validQuestion("q1")
	q.Options = []string{"a", "b"}
	require.Error(t, q.Validate())

	q = validQuestion("q1")
	q.CorrectOption = 4
	require.Error(t, q.Validate())

	q = validQuestion("q1")
	q.Difficulty = "impossible"
	require.Error(t, q.Validate())

	q = validQuestion("q1")
	q.EstimatedTimeSeconds = 0
	require.Error(t, q.Validate())
}

func TestBankValidateRejectsDuplicateIDs(t *testing.T) {
	b := Bank{ID: "b1", Questions: []Question{validQuestion("q1"), validQuestion("q1")}}
	err := b.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}

func TestParseBankAppliesDefaults(t *testing.T) {
	payload := `{
		"bank_id": "b1",
		"title": "Sample",
		"questions": [
			{"id": "q1", "question": "2+2?", "options": ["3","4","5","6"], "correct_answer": 1}
		]
	}`
	b, err := ParseBank(strings.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, DifficultyMedium, b.Questions[0].Difficulty)
	require.Equal(t, "general", b.Questions[0].Category)
	require.Equal(t, DefaultQuestionSeconds, b.Questions[0].EstimatedTimeSeconds)
}

func TestParseBankRejectsBadPayload(t *testing.T) {
	_, err := ParseBank(strings.NewReader(`{"bank_id": "b1", "questions": []}`))
	require.Error(t, err)

	_, err = ParseBank(strings.NewReader(`not json`))
	require.Error(t, err)
}

func TestUpsertReportsConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	_, err := store.UpsertBank(ctx, Bank{ID: "b1", Title: "One", Questions: []Question{validQuestion("q1")}})
	require.NoError(t, err)

	// Same id, different text: the upload wins but the conflict is reported.
	changed := validQuestion("q1")
	changed.Text = "something else"
	rep, err := store.UpsertBank(ctx, Bank{ID: "b2", Title: "Two", Questions: []Question{changed}})
	require.NoError(t, err)
	require.Equal(t, []string{"q1"}, rep.Conflicts)

	got, err := store.Get(ctx, "q1")
	require.NoError(t, err)
	require.Equal(t, "something else", got.Text)
}

func TestUpsertReplacesBankContents(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	_, err := store.UpsertBank(ctx, Bank{ID: "b1", Title: "One",
		Questions: []Question{validQuestion("q1"), validQuestion("q2")}})
	require.NoError(t, err)

	// Re-upload with q2 gone: the bank's old questions do not linger.
	_, err = store.UpsertBank(ctx, Bank{ID: "b1", Title: "One",
		Questions: []Question{validQuestion("q1")}})
	require.NoError(t, err)

	_, err = store.Get(ctx, "q2")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteBankRemovesQuestions(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	_, err := store.UpsertBank(ctx, Bank{ID: "b1", Title: "One", Questions: []Question{validQuestion("q1")}})
	require.NoError(t, err)
	require.NoError(t, store.DeleteBank(ctx, "b1"))

	_, err = store.Get(ctx, "q1")
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, store.DeleteBank(ctx, "b1"), ErrNotFound)
}

func TestGetManyPreservesOrder(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	_, err := store.UpsertBank(ctx, Bank{ID: "b1", Title: "One",
		Questions: []Question{validQuestion("q1"), validQuestion("q2"), validQuestion("q3")}})
	require.NoError(t, err)

	qs, err := store.GetMany(ctx, []string{"q3", "q1"})
	require.NoError(t, err)
	require.Equal(t, "q3", qs[0].ID)
	require.Equal(t, "q1", qs[1].ID)

	_, err = store.GetMany(ctx, []string{"q1", "missing"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStatsAndCategories(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	hard := validQuestion("q2")
	hard.Difficulty = DifficultyHard
	hard.Category = "algebra"
	_, err := store.UpsertBank(ctx, Bank{ID: "b1", Title: "One",
		Questions: []Question{validQuestion("q1"), hard}})
	require.NoError(t, err)

	cats, err := store.Categories(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"algebra", "general"}, cats)

	st, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, st.TotalQuestions)
	require.Equal(t, 1, st.TotalBanks)
	require.Equal(t, 1, st.ByDifficulty[DifficultyHard])
	require.Equal(t, 1, st.ByCategory["algebra"])
}
