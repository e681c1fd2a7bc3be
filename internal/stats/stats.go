// Package stats keeps one rolling row of platform-wide counters.
package stats

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type General struct {
	TotalTests        int     `json:"total_tests"`
	TotalSessions     int     `json:"total_sessions"`
	CompletedSessions int     `json:"completed_sessions"`
	PassedSessions    int     `json:"passed_sessions"`
	AveragePercentage float64 `json:"average_percentage"`
	PassRate          float64 `json:"pass_rate"`
}

type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) ensureRow(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO test_stats (id, updated_at) VALUES (1, $1) ON CONFLICT (id) DO NOTHING`,
		time.Now().Unix())
	return err
}

func (r *Repo) RecordTestGenerated(ctx context.Context) error {
	if err := r.ensureRow(ctx); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE test_stats SET total_tests = total_tests + 1, updated_at = $1 WHERE id = 1`,
		time.Now().Unix())
	return err
}

func (r *Repo) RecordSessionStarted(ctx context.Context) error {
	if err := r.ensureRow(ctx); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE test_stats SET total_sessions = total_sessions + 1, updated_at = $1 WHERE id = 1`,
		time.Now().Unix())
	return err
}

func (r *Repo) RecordCompletion(ctx context.Context, percentage float64, passed bool) error {
	if err := r.ensureRow(ctx); err != nil {
		return err
	}
	p := 0
	if passed {
		p = 1
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE test_stats SET
		   completed_sessions = completed_sessions + 1,
		   passed_sessions = passed_sessions + $1,
		   sum_percentage = sum_percentage + $2,
		   updated_at = $3
		 WHERE id = 1`,
		p, percentage, time.Now().Unix())
	return err
}

func (r *Repo) General(ctx context.Context) (General, error) {
	var g General
	var sum float64
	err := r.db.QueryRowContext(ctx,
		`SELECT total_tests, total_sessions, completed_sessions, passed_sessions, sum_percentage
		 FROM test_stats WHERE id = 1`).
		Scan(&g.TotalTests, &g.TotalSessions, &g.CompletedSessions, &g.PassedSessions, &sum)
	if errors.Is(err, sql.ErrNoRows) {
		return General{}, nil
	}
	if err != nil {
		return General{}, err
	}
	if g.CompletedSessions > 0 {
		g.AveragePercentage = sum / float64(g.CompletedSessions)
		g.PassRate = 100 * float64(g.PassedSessions) / float64(g.CompletedSessions)
	}
	return g, nil
}
