package score

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quizforge/quizforge/internal/bank"
)

func q(id, category string, d bank.Difficulty, correct int) bank.Question {
	return bank.Question{
		ID:                   id,
		Text:                 "q " + id,
		Options:              []string{"a", "b", "c", "d"},
		CorrectOption:        correct,
		Difficulty:           d,
		Category:             category,
		EstimatedTimeSeconds: 90,
	}
}

func sel(n int) *int { return &n }

func TestScoreCountsAndPercentage(t *testing.T) {
	questions := []bank.Question{
		q("q1", "math", bank.DifficultyEasy, 0),
		q("q2", "math", bank.DifficultyEasy, 1),
		q("q3", "history", bank.DifficultyHard, 2),
	}
	responses := map[string]Response{
		"q1": {Selected: sel(0)}, // right
		"q2": {Selected: sel(3)}, // wrong
		"q3": {Selected: sel(2)}, // right
	}
	res := Score(questions, responses, 70)
	require.Equal(t, 3, res.Total)
	require.Equal(t, 2, res.Correct)
	require.Equal(t, 1, res.Incorrect)
	require.InDelta(t, 66.67, res.Percentage, 0.001)
	require.False(t, res.Passed)
	require.Equal(t, 70.0, res.PassingGrade)
}

func TestScoreUnansweredCountsIncorrect(t *testing.T) {
	questions := []bank.Question{
		q("q1", "g", bank.DifficultyMedium, 0),
		q("q2", "g", bank.DifficultyMedium, 1),
	}
	// q2 has no response at all, q1 has an explicit nil selection.
	res := Score(questions, map[string]Response{"q1": {Selected: nil}}, 70)
	require.Equal(t, 0, res.Correct)
	require.Equal(t, 2, res.Incorrect)
	require.Equal(t, 0.0, res.Percentage)
	require.False(t, res.Passed)
}

func TestScorePassAtExactThreshold(t *testing.T) {
	questions := []bank.Question{
		q("q1", "g", bank.DifficultyMedium, 0),
		q("q2", "g", bank.DifficultyMedium, 0),
		q("q3", "g", bank.DifficultyMedium, 0),
		q("q4", "g", bank.DifficultyMedium, 0),
		q("q5", "g", bank.DifficultyMedium, 0),
	}
	responses := map[string]Response{}
	for _, qq := range questions[:4] {
		responses[qq.ID] = Response{Selected: sel(0)}
	}
	res := Score(questions, responses, 80)
	require.Equal(t, 80.0, res.Percentage)
	require.True(t, res.Passed, "meeting the grade exactly passes")
}

func TestScoreBreakdownsFollowQuestionAttributes(t *testing.T) {
	questions := []bank.Question{
		q("q1", "math", bank.DifficultyEasy, 0),
		q("q2", "math", bank.DifficultyHard, 1),
		q("q3", "history", bank.DifficultyEasy, 2),
		q("q4", "history", bank.DifficultyEasy, 3),
	}
	responses := map[string]Response{
		"q1": {Selected: sel(0)},
		"q2": {Selected: sel(0)},
		"q3": {Selected: sel(2)},
		"q4": {Selected: sel(2)},
	}
	res := Score(questions, responses, 70)

	require.Equal(t, Breakdown{Correct: 1, Total: 2, Percentage: 50}, res.ByCategory["math"])
	require.Equal(t, Breakdown{Correct: 1, Total: 2, Percentage: 50}, res.ByCategory["history"])
	require.Equal(t, Breakdown{Correct: 2, Total: 3, Percentage: 66.67}, res.ByDifficulty[bank.DifficultyEasy])
	require.Equal(t, Breakdown{Correct: 0, Total: 1, Percentage: 0}, res.ByDifficulty[bank.DifficultyHard])
}

func TestCorrectness(t *testing.T) {
	question := q("q1", "g", bank.DifficultyMedium, 2)
	require.True(t, Correctness(question, Response{Selected: sel(2)}))
	require.False(t, Correctness(question, Response{Selected: sel(1)}))
	require.False(t, Correctness(question, Response{}))
}
