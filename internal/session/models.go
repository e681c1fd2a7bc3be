// Package session tracks a user's pass through an assembled test: answer
// recording, the created → in_progress → completed state machine, and the
// finalize step that scores the attempt and feeds the usage ledger.
package session

import (
	"errors"
	"time"
)

type Status string

const (
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"

	// StatusAbandoned is set by the cleanup sweeper, never by the core. It is
	// not terminal: a returning user may keep answering and finalize.
	StatusAbandoned Status = "abandoned"
)

var (
	ErrNotFound          = errors.New("session not found")
	ErrQuestionNotInTest = errors.New("question is not part of this session's test")
	ErrAlreadyCompleted  = errors.New("session already completed")
	ErrNotCompleted      = errors.New("session not completed")
)

// Answer is one recorded selection. Selected nil means unanswered; the entry
// itself always exists for every test question.
type Answer struct {
	Selected         *int       `json:"selected_option"`
	TimeSpentSeconds int        `json:"time_spent_seconds"`
	AnsweredAt       *time.Time `json:"answered_at,omitempty"`
}

type Session struct {
	ID          string     `json:"session_id"`
	UserID      string     `json:"user_id"`
	TestID      string     `json:"test_id"`
	Status      Status     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// QuestionIDs preserves the test's presentation order; Answers has exactly
	// one entry per id.
	QuestionIDs []string          `json:"question_ids"`
	Answers     map[string]Answer `json:"answers"`
}

// Summary is the listing row for dashboards.
type Summary struct {
	ID          string     `json:"session_id"`
	TestID      string     `json:"test_id"`
	TestTitle   string     `json:"test_title"`
	UserID      string     `json:"user_id"`
	Status      Status     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Total       int        `json:"total_questions"`
	Percentage  float64    `json:"percentage"`
}
