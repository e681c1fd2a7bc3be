// Package assemble turns a selection into an immutable test definition and
// hosts the generation service that feeds the selector.
package assemble

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quizforge/quizforge/internal/bank"
	"github.com/quizforge/quizforge/internal/selector"
)

// Test is immutable after New. ActualCount may be below RequestedCount only
// when the filtered pool was smaller than requested.
type Test struct {
	ID              string           `json:"test_id"`
	Title           string           `json:"title"`
	Mode            selector.Mode    `json:"mode"`
	Filters         selector.Filters `json:"filters"`
	RequestedCount  int              `json:"requested_count"`
	ActualCount     int              `json:"actual_count"`
	DurationMinutes int              `json:"duration_minutes"`
	QuestionIDs     []string         `json:"question_ids"`
	CreatedAt       time.Time        `json:"created_at"`
}

// DefaultRequested applies when the caller omits a count. There is no fixed
// ceiling: a large pool may yield a large test.
const DefaultRequested = 50

// New builds the test definition. ids come from the selector, pool maps id to
// question for the duration sum.
func New(ids []string, pool map[string]bank.Question, mode selector.Mode, f selector.Filters, requested int) Test {
	seconds := 0
	for _, id := range ids {
		seconds += pool[id].EstimatedTimeSeconds
	}
	t := Test{
		ID:              uuid.NewString(),
		Mode:            mode,
		Filters:         f,
		RequestedCount:  requested,
		ActualCount:     len(ids),
		DurationMinutes: (seconds + 59) / 60,
		QuestionIDs:     append([]string(nil), ids...),
		CreatedAt:       time.Now().UTC(),
	}
	t.Title = title(t)
	return t
}

func title(t Test) string {
	switch t.Mode {
	case selector.ModeCategory:
		cats := t.Filters.Categories
		label := strings.Join(cats, ", ")
		if len(cats) > 2 {
			label = strings.Join(cats[:2], ", ") + ", ..."
		}
		return fmt.Sprintf("Category test (%s) - %d questions", label, t.ActualCount)
	case selector.ModeDifficulty:
		return fmt.Sprintf("%s test - %d questions", capitalize(string(t.Filters.Difficulty)), t.ActualCount)
	case selector.ModeReview:
		return fmt.Sprintf("Review mistakes - %d questions", t.ActualCount)
	default:
		return fmt.Sprintf("Random test - %d questions", t.ActualCount)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
