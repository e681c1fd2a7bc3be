package http

import (
	"net/http"

	"github.com/quizforge/quizforge/internal/bank"
	"github.com/quizforge/quizforge/internal/selector"
	"github.com/quizforge/quizforge/internal/stats"
)

// ConfigLimits is the client-facing generation config.
type ConfigLimits struct {
	PassingGrade     float64  `json:"passing_grade"`
	MinQuestions     int      `json:"min_questions"`
	DefaultQuestions int      `json:"default_questions"`
	Modes            []string `json:"modes"`
	Difficulties     []string `json:"difficulties"`
}

// GET /api/config
func ConfigHandler(limits ConfigLimits) http.HandlerFunc {
	limits.Modes = []string{
		string(selector.ModeRandom), string(selector.ModeCategory),
		string(selector.ModeDifficulty), string(selector.ModeReview),
	}
	limits.Difficulties = []string{
		string(bank.DifficultyEasy), string(bank.DifficultyMedium),
		string(bank.DifficultyHard), string(bank.DifficultyMixed),
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, limits)
	}
}

// GET /api/categories
func CategoriesHandler(pool bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := pool.Categories(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		if cats == nil {
			cats = []string{}
		}
		writeJSON(w, http.StatusOK, map[string][]string{"categories": cats})
	}
}

// GET /api/stats
func StatsHandler(pool bank.Store, st *stats.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		poolStats, err := pool.Stats(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		general, err := st.General(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"pool":    poolStats,
			"general": general,
		})
	}
}
