package assemble

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quizforge/quizforge/internal/selector"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Put(ctx context.Context, t Test, userID string) error {
	fj, err := json.Marshal(t.Filters)
	if err != nil {
		return err
	}
	qj, err := json.Marshal(t.QuestionIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tests (id, title, mode, filters_json, requested_count, actual_count,
		   duration_minutes, question_ids_json, user_id, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		t.ID, t.Title, string(t.Mode), string(fj), t.RequestedCount, t.ActualCount,
		t.DurationMinutes, string(qj), userID, t.CreatedAt.Unix())
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (Test, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, mode, filters_json, requested_count, actual_count,
		   duration_minutes, question_ids_json, created_at
		 FROM tests WHERE id=$1`, id)

	var t Test
	var mode, fj, qj string
	var created int64
	err := row.Scan(&t.ID, &t.Title, &mode, &fj, &t.RequestedCount, &t.ActualCount,
		&t.DurationMinutes, &qj, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Test{}, fmt.Errorf("test %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Test{}, err
	}
	t.Mode = selector.Mode(mode)
	t.CreatedAt = time.Unix(created, 0).UTC()
	if err := json.Unmarshal([]byte(fj), &t.Filters); err != nil {
		return Test{}, err
	}
	if err := json.Unmarshal([]byte(qj), &t.QuestionIDs); err != nil {
		return Test{}, err
	}
	return t, nil
}
