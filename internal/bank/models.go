package bank

import "fmt"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"

	// DifficultyMixed is a synthetic request-side level: draw from all three
	// real levels in roughly equal parts. Questions themselves never carry it.
	DifficultyMixed Difficulty = "mixed"
)

func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// SourceInfo cites where a question was drawn from.
type SourceInfo struct {
	Document  string `json:"document"`
	Section   string `json:"section,omitempty"`
	Page      int    `json:"page,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// Question is immutable once ingested. Options is always exactly 4 entries
// and CorrectOption indexes into it.
type Question struct {
	ID                   string      `json:"id"`
	BankID               string      `json:"bank_id,omitempty"`
	Text                 string      `json:"question"`
	Options              []string    `json:"options"`
	CorrectOption        int         `json:"correct_answer"`
	Explanation          string      `json:"explanation,omitempty"`
	Difficulty           Difficulty  `json:"difficulty"`
	Category             string      `json:"category"`
	Keywords             []string    `json:"keywords,omitempty"`
	EstimatedTimeSeconds int         `json:"estimated_time_seconds"`
	Source               *SourceInfo `json:"source_info,omitempty"`
}

const NumOptions = 4

func (q Question) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("question has no id")
	}
	if q.Text == "" {
		return fmt.Errorf("question %s: empty text", q.ID)
	}
	if len(q.Options) != NumOptions {
		return fmt.Errorf("question %s: expected %d options, got %d", q.ID, NumOptions, len(q.Options))
	}
	if q.CorrectOption < 0 || q.CorrectOption >= NumOptions {
		return fmt.Errorf("question %s: correct_answer %d out of range", q.ID, q.CorrectOption)
	}
	if !q.Difficulty.Valid() {
		return fmt.Errorf("question %s: unknown difficulty %q", q.ID, q.Difficulty)
	}
	if q.EstimatedTimeSeconds <= 0 {
		return fmt.Errorf("question %s: estimated_time_seconds must be positive", q.ID)
	}
	return nil
}

// Bank is one uploadable unit of questions.
type Bank struct {
	ID          string     `json:"bank_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
}

func (b Bank) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("bank has no bank_id")
	}
	if len(b.Questions) == 0 {
		return fmt.Errorf("bank %s: no questions", b.ID)
	}
	seen := make(map[string]struct{}, len(b.Questions))
	for _, q := range b.Questions {
		if err := q.Validate(); err != nil {
			return err
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("bank %s: duplicate question id %s", b.ID, q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return nil
}

// BankInfo is bank metadata without the question payload.
type BankInfo struct {
	ID            string `json:"bank_id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	QuestionCount int    `json:"question_count"`
	LoadedAt      int64  `json:"loaded_at"`
	UpdatedAt     int64  `json:"updated_at"`
}

// Stats summarizes the pool for the test-config surface.
type Stats struct {
	TotalQuestions int                `json:"total_questions"`
	TotalBanks     int                `json:"total_banks"`
	ByDifficulty   map[Difficulty]int `json:"difficulty_distribution"`
	ByCategory     map[string]int     `json:"category_distribution"`
}

// UpsertReport tells the ingestion caller what happened. Conflicts lists
// question ids that already existed (from any bank) with different content;
// they are updated, never silently, so the caller can surface them.
type UpsertReport struct {
	BankID    string   `json:"bank_id"`
	Loaded    int      `json:"loaded"`
	Conflicts []string `json:"conflicts,omitempty"`
}
