package usage

import (
	"context"
	"database/sql"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) ForUser(ctx context.Context, userID string) (map[string]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, times_used, last_used, correct_count, incorrect_count
		 FROM question_usage WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]Record{}
	for rows.Next() {
		var qid string
		var rec Record
		var last sql.NullInt64
		if err := rows.Scan(&qid, &rec.TimesUsed, &last, &rec.CorrectCount, &rec.IncorrectCount); err != nil {
			return nil, err
		}
		if last.Valid {
			t := time.Unix(last.Int64, 0).UTC()
			rec.LastUsed = &t
		}
		out[qid] = rec
	}
	return out, rows.Err()
}

// Execer is the slice of *sql.Tx (or *sql.DB) Apply needs.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Apply records one finalized exposure: times_used += 1, last_used = at,
// and the correct/incorrect counter bumped. Runs on the caller's transaction
// so a finalize either applies every increment or none.
func Apply(ctx context.Context, tx Execer, userID, questionID string, correct bool, at time.Time) error {
	c, ic := 0, 1
	if correct {
		c, ic = 1, 0
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO question_usage (user_id, question_id, times_used, last_used, correct_count, incorrect_count)
		 VALUES ($1,$2,1,$3,$4,$5)
		 ON CONFLICT (user_id, question_id) DO UPDATE SET
		   times_used = question_usage.times_used + 1,
		   last_used = EXCLUDED.last_used,
		   correct_count = question_usage.correct_count + EXCLUDED.correct_count,
		   incorrect_count = question_usage.incorrect_count + EXCLUDED.incorrect_count`,
		userID, questionID, at.Unix(), c, ic)
	return err
}
