// Package score turns a finished answer map into a result. Pure: the session
// engine feeds it the test's questions and recorded selections at finalize.
package score

import (
	"math"

	"github.com/quizforge/quizforge/internal/bank"
)

// Response is one recorded selection. Selected nil means unanswered, which
// counts as incorrect.
type Response struct {
	Selected *int
}

type Breakdown struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

type Result struct {
	Total        int     `json:"total_questions"`
	Correct      int     `json:"correct"`
	Incorrect    int     `json:"incorrect"`
	Percentage   float64 `json:"percentage"`
	Passed       bool    `json:"passed"`
	PassingGrade float64 `json:"passing_grade"`

	// Breakdowns group by the question's own category/difficulty, not the
	// test's filters: a random test still surfaces weak categories.
	ByCategory   map[string]Breakdown          `json:"category_performance"`
	ByDifficulty map[bank.Difficulty]Breakdown `json:"difficulty_performance"`
}

// Correctness reports whether the response for q is present and right.
func Correctness(q bank.Question, resp Response) bool {
	return resp.Selected != nil && *resp.Selected == q.CorrectOption
}

// Score grades every question in the test. questions must be non-empty; the
// assembler never produces an empty test.
func Score(questions []bank.Question, responses map[string]Response, passingGrade float64) Result {
	res := Result{
		Total:        len(questions),
		PassingGrade: passingGrade,
		ByCategory:   map[string]Breakdown{},
		ByDifficulty: map[bank.Difficulty]Breakdown{},
	}
	for _, q := range questions {
		ok := Correctness(q, responses[q.ID])
		if ok {
			res.Correct++
		} else {
			res.Incorrect++
		}

		cat := res.ByCategory[q.Category]
		cat.Total++
		if ok {
			cat.Correct++
		}
		res.ByCategory[q.Category] = cat

		diff := res.ByDifficulty[q.Difficulty]
		diff.Total++
		if ok {
			diff.Correct++
		}
		res.ByDifficulty[q.Difficulty] = diff
	}

	res.Percentage = round2(100 * float64(res.Correct) / float64(res.Total))
	res.Passed = res.Percentage >= passingGrade
	for k, b := range res.ByCategory {
		b.Percentage = round2(100 * float64(b.Correct) / float64(b.Total))
		res.ByCategory[k] = b
	}
	for k, b := range res.ByDifficulty {
		b.Percentage = round2(100 * float64(b.Correct) / float64(b.Total))
		res.ByDifficulty[k] = b
	}
	return res
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
