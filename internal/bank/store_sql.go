package bank

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// UpsertBank replaces the bank's question set. A question id that already
// exists with different text/options/answer is updated but reported as a
// conflict; the caller decides whether to surface that as a duplicate warning.
func (s *SQLStore) UpsertBank(ctx context.Context, b Bank) (UpsertReport, error) {
	if err := b.Validate(); err != nil {
		return UpsertReport{}, err
	}
	rep := UpsertReport{BankID: b.ID}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UpsertReport{}, err
	}
	defer tx.Rollback()

	// Detect content conflicts before touching anything.
	for _, q := range b.Questions {
		var text, optsJSON string
		var correct int
		err := tx.QueryRowContext(ctx,
			`SELECT question_text, options_json, correct_option FROM questions WHERE question_id=$1`,
			q.ID).Scan(&text, &optsJSON, &correct)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return UpsertReport{}, err
		}
		oj, _ := json.Marshal(q.Options)
		if text != q.Text || optsJSON != string(oj) || correct != q.CorrectOption {
			rep.Conflicts = append(rep.Conflicts, q.ID)
		}
	}

	now := time.Now().Unix()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO question_banks (bank_id, title, description, questions_count, loaded_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$5)
		 ON CONFLICT (bank_id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description,
		   questions_count=EXCLUDED.questions_count, updated_at=EXCLUDED.updated_at`,
		b.ID, b.Title, b.Description, len(b.Questions), now)
	if err != nil {
		return UpsertReport{}, err
	}

	// Drop questions that left the bank, then write the new set.
	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE bank_id=$1`, b.ID); err != nil {
		return UpsertReport{}, err
	}
	for _, q := range b.Questions {
		oj, _ := json.Marshal(q.Options)
		kj, _ := json.Marshal(q.Keywords)
		sj := ""
		if q.Source != nil {
			buf, _ := json.Marshal(q.Source)
			sj = string(buf)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO questions
			   (question_id, bank_id, question_text, options_json, correct_option, explanation,
			    difficulty, category, keywords_json, estimated_time_seconds, source_json, created_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			 ON CONFLICT (question_id) DO UPDATE SET bank_id=EXCLUDED.bank_id,
			   question_text=EXCLUDED.question_text, options_json=EXCLUDED.options_json,
			   correct_option=EXCLUDED.correct_option, explanation=EXCLUDED.explanation,
			   difficulty=EXCLUDED.difficulty, category=EXCLUDED.category,
			   keywords_json=EXCLUDED.keywords_json, estimated_time_seconds=EXCLUDED.estimated_time_seconds,
			   source_json=EXCLUDED.source_json`,
			q.ID, b.ID, q.Text, string(oj), q.CorrectOption, q.Explanation,
			string(q.Difficulty), q.Category, string(kj), q.EstimatedTimeSeconds, sj, now)
		if err != nil {
			return UpsertReport{}, err
		}
		rep.Loaded++
	}
	if err := tx.Commit(); err != nil {
		return UpsertReport{}, err
	}
	return rep, nil
}

func (s *SQLStore) DeleteBank(ctx context.Context, bankID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM question_banks WHERE bank_id=$1`, bankID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("bank %s: %w", bankID, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE bank_id=$1`, bankID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) ListBanks(ctx context.Context) ([]BankInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT bank_id, title, description, questions_count, loaded_at, updated_at
		 FROM question_banks ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BankInfo
	for rows.Next() {
		var bi BankInfo
		if err := rows.Scan(&bi.ID, &bi.Title, &bi.Description, &bi.QuestionCount, &bi.LoadedAt, &bi.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, bi)
	}
	return out, rows.Err()
}

const questionCols = `question_id, bank_id, question_text, options_json, correct_option, explanation,
	difficulty, category, keywords_json, estimated_time_seconds, source_json`

func scanQuestion(sc interface{ Scan(...any) error }) (Question, error) {
	var q Question
	var optsJSON, kwJSON, srcJSON, diff string
	err := sc.Scan(&q.ID, &q.BankID, &q.Text, &optsJSON, &q.CorrectOption, &q.Explanation,
		&diff, &q.Category, &kwJSON, &q.EstimatedTimeSeconds, &srcJSON)
	if err != nil {
		return Question{}, err
	}
	q.Difficulty = Difficulty(diff)
	if err := json.Unmarshal([]byte(optsJSON), &q.Options); err != nil {
		return Question{}, fmt.Errorf("question %s: bad options_json: %w", q.ID, err)
	}
	if kwJSON != "" {
		_ = json.Unmarshal([]byte(kwJSON), &q.Keywords)
	}
	if srcJSON != "" {
		var si SourceInfo
		if json.Unmarshal([]byte(srcJSON), &si) == nil {
			q.Source = &si
		}
	}
	return q, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+questionCols+` FROM questions WHERE question_id=$1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	return q, err
}

func (s *SQLStore) GetMany(ctx context.Context, ids []string) ([]Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionCols+` FROM questions WHERE question_id IN (`+strings.Join(ph, ",")+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]Question, len(ids))
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		byID[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Preserve the caller's order.
	out := make([]Question, 0, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *SQLStore) Snapshot(ctx context.Context) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+questionCols+` FROM questions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM questions WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) Stats(ctx context.Context) (Stats, error) {
	st := Stats{ByDifficulty: map[Difficulty]int{}, ByCategory: map[string]int{}}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&st.TotalQuestions); err != nil {
		return Stats{}, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM question_banks`).Scan(&st.TotalBanks); err != nil {
		return Stats{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT difficulty, COUNT(*) FROM questions GROUP BY difficulty`)
	if err != nil {
		return Stats{}, err
	}
	for rows.Next() {
		var d string
		var n int
		if err := rows.Scan(&d, &n); err != nil {
			rows.Close()
			return Stats{}, err
		}
		st.ByDifficulty[Difficulty(d)] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM questions WHERE category <> '' GROUP BY category`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var c string
		var n int
		if err := rows.Scan(&c, &n); err != nil {
			return Stats{}, err
		}
		st.ByCategory[c] = n
	}
	return st, rows.Err()
}
