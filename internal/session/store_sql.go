package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quizforge/quizforge/internal/assemble"
	"github.com/quizforge/quizforge/internal/bank"
	"github.com/quizforge/quizforge/internal/score"
	"github.com/quizforge/quizforge/internal/usage"
)

type SQLStore struct {
	db     *sql.DB
	driver string
	pool   bank.Store
}

func NewSQLStore(db *sql.DB, driver string, pool bank.Store) *SQLStore {
	return &SQLStore{db: db, driver: driver, pool: pool}
}

func (s *SQLStore) Start(ctx context.Context, userID string, t assemble.Test) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		TestID:      t.ID,
		Status:      StatusCreated,
		StartedAt:   now,
		QuestionIDs: append([]string(nil), t.QuestionIDs...),
		Answers:     map[string]Answer{},
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, test_id, user_id, status, started_at) VALUES ($1,$2,$3,$4,$5)`,
		sess.ID, t.ID, userID, string(StatusCreated), now.Unix())
	if err != nil {
		return Session{}, err
	}
	// One row per question from the start; a null selection means unanswered.
	for i, qid := range t.QuestionIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO session_answers (session_id, question_id, ord) VALUES ($1,$2,$3)`,
			sess.ID, qid, i)
		if err != nil {
			return Session{}, err
		}
		sess.Answers[qid] = Answer{}
	}
	if err := tx.Commit(); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, test_id, user_id, status, started_at, completed_at FROM sessions WHERE id=$1`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Session{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, selected_option, time_spent_seconds, answered_at
		 FROM session_answers WHERE session_id=$1 ORDER BY ord`, id)
	if err != nil {
		return Session{}, err
	}
	defer rows.Close()

	sess.Answers = map[string]Answer{}
	for rows.Next() {
		var qid string
		var sel sql.NullInt64
		var spent int
		var at sql.NullInt64
		if err := rows.Scan(&qid, &sel, &spent, &at); err != nil {
			return Session{}, err
		}
		a := Answer{TimeSpentSeconds: spent}
		if sel.Valid {
			v := int(sel.Int64)
			a.Selected = &v
		}
		if at.Valid {
			t := time.Unix(at.Int64, 0).UTC()
			a.AnsweredAt = &t
		}
		sess.QuestionIDs = append(sess.QuestionIDs, qid)
		sess.Answers[qid] = a
	}
	return sess, rows.Err()
}

func scanSession(row *sql.Row) (Session, error) {
	var sess Session
	var status string
	var started int64
	var completed sql.NullInt64
	if err := row.Scan(&sess.ID, &sess.TestID, &sess.UserID, &status, &started, &completed); err != nil {
		return Session{}, err
	}
	sess.Status = Status(status)
	sess.StartedAt = time.Unix(started, 0).UTC()
	if completed.Valid {
		t := time.Unix(completed.Int64, 0).UTC()
		sess.CompletedAt = &t
	}
	return sess, nil
}

func (s *SQLStore) SaveAnswer(ctx context.Context, sessionID, questionID string, selected *int, timeSpentSeconds int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM sessions WHERE id=$1`, sessionID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if Status(status) == StatusCompleted {
		return fmt.Errorf("session %s: %w", sessionID, ErrAlreadyCompleted)
	}

	var sel any
	if selected != nil {
		sel = *selected
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE session_answers SET selected_option=$1, time_spent_seconds=$2, answered_at=$3
		 WHERE session_id=$4 AND question_id=$5`,
		sel, timeSpentSeconds, time.Now().Unix(), sessionID, questionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("question %s: %w", questionID, ErrQuestionNotInTest)
	}

	// First save moves the machine to in_progress; a sweeper-abandoned
	// session comes back the same way.
	_, err = tx.ExecContext(ctx,
		`UPDATE sessions SET status=$1 WHERE id=$2 AND status<>$1`,
		string(StatusInProgress), sessionID)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) Finalize(ctx context.Context, sessionID string, passingGrade float64) (score.Result, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return score.Result{}, err
	}
	if sess.Status == StatusCompleted {
		return score.Result{}, fmt.Errorf("session %s: %w", sessionID, ErrAlreadyCompleted)
	}

	questions, err := s.pool.GetMany(ctx, sess.QuestionIDs)
	if err != nil {
		return score.Result{}, err
	}
	responses := make(map[string]score.Response, len(sess.Answers))
	for qid, a := range sess.Answers {
		responses[qid] = score.Response{Selected: a.Selected}
	}
	result := score.Score(questions, responses, passingGrade)
	resJSON, err := json.Marshal(result)
	if err != nil {
		return score.Result{}, err
	}

	now := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return score.Result{}, err
	}
	defer tx.Rollback()

	// The guard makes finalize exactly-once even under concurrent calls:
	// whichever transaction wins the row update applies the ledger writes,
	// the loser sees zero rows and backs out untouched.
	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET status=$1, completed_at=$2, score_json=$3
		 WHERE id=$4 AND status<>$1`,
		string(StatusCompleted), now.Unix(), string(resJSON), sessionID)
	if err != nil {
		return score.Result{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return score.Result{}, fmt.Errorf("session %s: %w", sessionID, ErrAlreadyCompleted)
	}

	for _, q := range questions {
		correct := score.Correctness(q, responses[q.ID])
		_, err = tx.ExecContext(ctx,
			`UPDATE session_answers SET is_correct=$1 WHERE session_id=$2 AND question_id=$3`,
			boolInt(correct), sessionID, q.ID)
		if err != nil {
			return score.Result{}, err
		}
		if err := usage.Apply(ctx, tx, sess.UserID, q.ID, correct, now); err != nil {
			return score.Result{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return score.Result{}, err
	}
	return result, nil
}

func (s *SQLStore) Result(ctx context.Context, sessionID string) (score.Result, error) {
	var status, resJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT status, score_json FROM sessions WHERE id=$1`, sessionID).Scan(&status, &resJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return score.Result{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return score.Result{}, err
	}
	if Status(status) != StatusCompleted {
		return score.Result{}, fmt.Errorf("session %s: %w", sessionID, ErrNotCompleted)
	}
	var result score.Result
	if err := json.Unmarshal([]byte(resJSON), &result); err != nil {
		return score.Result{}, err
	}
	return result, nil
}

func (s *SQLStore) IncorrectQuestionIDs(ctx context.Context, sessionID string) ([]string, error) {
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM sessions WHERE id=$1`, sessionID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if Status(status) != StatusCompleted {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotCompleted)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id FROM session_answers WHERE session_id=$1 AND is_correct=0 ORDER BY ord`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Summary, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	q := `SELECT s.id, s.test_id, COALESCE(t.title,''), s.user_id, s.status, s.started_at, s.completed_at,
	        COALESCE(t.actual_count,0), s.score_json
	      FROM sessions s LEFT JOIN tests t ON s.test_id = t.id WHERE 1=1`
	args := []any{}
	n := 0
	add := func(cond string, v any) {
		n++
		q += fmt.Sprintf(" AND %s$%d", cond, n)
		args = append(args, v)
	}
	if opts.UserID != "" {
		add("s.user_id=", opts.UserID)
	}
	if opts.Status != "" {
		add("s.status=", string(opts.Status))
	}
	n++
	q += fmt.Sprintf(" ORDER BY s.started_at DESC LIMIT $%d", n)
	args = append(args, opts.Limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sm Summary
		var status, resJSON string
		var started int64
		var completed sql.NullInt64
		if err := rows.Scan(&sm.ID, &sm.TestID, &sm.TestTitle, &sm.UserID, &status, &started, &completed, &sm.Total, &resJSON); err != nil {
			return nil, err
		}
		sm.Status = Status(status)
		sm.StartedAt = time.Unix(started, 0).UTC()
		if completed.Valid {
			t := time.Unix(completed.Int64, 0).UTC()
			sm.CompletedAt = &t
		}
		if resJSON != "" {
			var r score.Result
			if json.Unmarshal([]byte(resJSON), &r) == nil {
				sm.Percentage = r.Percentage
			}
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *SQLStore) MarkAbandoned(ctx context.Context, startedBefore time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status=$1 WHERE status=$2 AND started_at < $3`,
		string(StatusAbandoned), string(StatusInProgress), startedBefore.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
