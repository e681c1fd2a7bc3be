// Package selector picks question ids for a generated test. It is a pure
// function over a pool snapshot and a usage snapshot: persistence feeds it,
// it never reads or writes state itself.
package selector

import (
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/quizforge/quizforge/internal/bank"
	"github.com/quizforge/quizforge/internal/usage"
)

type Mode string

const (
	ModeRandom     Mode = "random"
	ModeCategory   Mode = "category"
	ModeDifficulty Mode = "difficulty"
	ModeReview     Mode = "review"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeRandom, ModeCategory, ModeDifficulty, ModeReview:
		return true
	}
	return false
}

type Filters struct {
	Categories []string        `json:"categories,omitempty"`
	Difficulty bank.Difficulty `json:"difficulty,omitempty"`
	ExcludeIDs []string        `json:"exclude_ids,omitempty"`

	// ReviewIDs is resolved server-side from the source session's incorrect
	// answers; it is never client input.
	ReviewIDs []string `json:"-"`
}

var (
	ErrEmptyPool      = errors.New("no questions match the requested filters")
	ErrInvalidRequest = errors.New("invalid test request")
)

// MinRequested is the smallest test a caller may ask for.
const MinRequested = 5

// Select returns at most requested question ids. Ranking decides which
// questions are chosen (least used first, oldest exposure first, random among
// ties); the returned order is shuffled independently so ranking never leaks
// into presentation order. Review mode bypasses ranking entirely: every
// resolved review id present in the pool is forced in and requested is
// ignored.
func Select(pool []bank.Question, usageForUser map[string]usage.Record, mode Mode, f Filters, requested int, rng *rand.Rand) ([]string, error) {
	if !mode.Valid() {
		return nil, ErrInvalidRequest
	}
	if mode == ModeReview {
		return selectReview(pool, f.ReviewIDs, rng)
	}
	if requested < MinRequested {
		return nil, ErrInvalidRequest
	}

	var picked []string
	switch mode {
	case ModeRandom:
		cands := excludeIDs(pool, f.ExcludeIDs)
		picked = rankAndTake(cands, usageForUser, requested, rng)
	case ModeCategory:
		if len(f.Categories) == 0 {
			return nil, ErrInvalidRequest
		}
		want := toSet(f.Categories)
		var cands []bank.Question
		for _, q := range pool {
			if _, ok := want[q.Category]; ok {
				cands = append(cands, q)
			}
		}
		picked = rankAndTake(cands, usageForUser, requested, rng)
	case ModeDifficulty:
		if f.Difficulty == bank.DifficultyMixed {
			picked = selectMixed(pool, usageForUser, requested, rng)
		} else {
			if !f.Difficulty.Valid() {
				return nil, ErrInvalidRequest
			}
			var cands []bank.Question
			for _, q := range pool {
				if q.Difficulty == f.Difficulty {
					cands = append(cands, q)
				}
			}
			picked = rankAndTake(cands, usageForUser, requested, rng)
		}
	}

	if len(picked) == 0 {
		return nil, ErrEmptyPool
	}
	rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	return picked, nil
}

func selectReview(pool []bank.Question, reviewIDs []string, rng *rand.Rand) ([]string, error) {
	inPool := make(map[string]struct{}, len(pool))
	for _, q := range pool {
		inPool[q.ID] = struct{}{}
	}
	var out []string
	seen := map[string]struct{}{}
	for _, id := range reviewIDs {
		if _, ok := inPool[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, ErrEmptyPool
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, nil
}

// rankAndTake orders candidates by the composite key (times_used asc,
// last_used asc with never-used first, fresh random tiebreaker) and keeps the
// first min(n, len) ids.
func rankAndTake(cands []bank.Question, usageForUser map[string]usage.Record, n int, rng *rand.Rand) []string {
	type ranked struct {
		id       string
		times    int
		lastUsed time.Time // zero means never used, which sorts first
		tiebreak float64
	}
	rs := make([]ranked, 0, len(cands))
	for _, q := range cands {
		r := ranked{id: q.ID, tiebreak: rng.Float64()}
		if rec, ok := usageForUser[q.ID]; ok {
			r.times = rec.TimesUsed
			if rec.LastUsed != nil {
				r.lastUsed = *rec.LastUsed
			}
		}
		rs = append(rs, r)
	}
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].times != rs[j].times {
			return rs[i].times < rs[j].times
		}
		if !rs[i].lastUsed.Equal(rs[j].lastUsed) {
			return rs[i].lastUsed.Before(rs[j].lastUsed)
		}
		return rs[i].tiebreak < rs[j].tiebreak
	})
	if n > len(rs) {
		n = len(rs)
	}
	out := make([]string, 0, n)
	for _, r := range rs[:n] {
		out = append(out, r.id)
	}
	return out
}

// selectMixed draws roughly requested/3 per real difficulty level. The
// remainder goes to the largest subsets first, and any shortfall from a small
// subset is redrawn from whichever levels still have candidates, largest
// spare first.
func selectMixed(pool []bank.Question, usageForUser map[string]usage.Record, requested int, rng *rand.Rand) []string {
	levels := []bank.Difficulty{bank.DifficultyEasy, bank.DifficultyMedium, bank.DifficultyHard}
	subsets := map[bank.Difficulty][]bank.Question{}
	for _, q := range pool {
		subsets[q.Difficulty] = append(subsets[q.Difficulty], q)
	}

	base, rem := requested/3, requested%3
	quota := map[bank.Difficulty]int{}
	for _, lv := range levels {
		quota[lv] = base
	}
	// Remainder to the largest subsets first.
	bySize := append([]bank.Difficulty(nil), levels...)
	sort.SliceStable(bySize, func(i, j int) bool {
		return len(subsets[bySize[i]]) > len(subsets[bySize[j]])
	})
	for i := 0; i < rem; i++ {
		quota[bySize[i]]++
	}

	take := map[bank.Difficulty]int{}
	total := 0
	for _, lv := range levels {
		take[lv] = quota[lv]
		if n := len(subsets[lv]); take[lv] > n {
			take[lv] = n
		}
		total += take[lv]
	}
	// Redistribute what small subsets could not supply.
	for total < requested {
		var best bank.Difficulty
		spare := 0
		for _, lv := range bySize {
			if s := len(subsets[lv]) - take[lv]; s > spare {
				best, spare = lv, s
			}
		}
		if spare == 0 {
			break
		}
		take[best]++
		total++
	}

	var out []string
	for _, lv := range levels {
		out = append(out, rankAndTake(subsets[lv], usageForUser, take[lv], rng)...)
	}
	return out
}

func excludeIDs(pool []bank.Question, exclude []string) []bank.Question {
	if len(exclude) == 0 {
		return pool
	}
	skip := toSet(exclude)
	out := make([]bank.Question, 0, len(pool))
	for _, q := range pool {
		if _, ok := skip[q.ID]; !ok {
			out = append(out, q)
		}
	}
	return out
}

func toSet(ss []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		m[s] = struct{}{}
	}
	return m
}
