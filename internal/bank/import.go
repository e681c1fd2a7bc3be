package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// ParseBank decodes a JSON question bank and validates it.
func ParseBank(r io.Reader) (Bank, error) {
	var b Bank
	dec := json.NewDecoder(r)
	if err := dec.Decode(&b); err != nil {
		return Bank{}, fmt.Errorf("decode bank: %w", err)
	}
	// Fill per-question defaults the upload format may omit.
	for i := range b.Questions {
		if b.Questions[i].EstimatedTimeSeconds == 0 {
			b.Questions[i].EstimatedTimeSeconds = DefaultQuestionSeconds
		}
		if b.Questions[i].Difficulty == "" {
			b.Questions[i].Difficulty = DifficultyMedium
		}
		if b.Questions[i].Category == "" {
			b.Questions[i].Category = "general"
		}
	}
	if err := b.Validate(); err != nil {
		return Bank{}, err
	}
	return b, nil
}

// DefaultQuestionSeconds is assumed when a bank omits per-question timing.
const DefaultQuestionSeconds = 90

// LoadDir ingests every bank_*.json file under dir. A broken file is logged
// and skipped so one bad upload cannot block startup.
func LoadDir(ctx context.Context, store Store, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	loaded := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "bank_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			log.Printf("bank: open %s: %v", name, err)
			continue
		}
		b, err := ParseBank(f)
		f.Close()
		if err != nil {
			log.Printf("bank: skip %s: %v", name, err)
			continue
		}
		rep, err := store.UpsertBank(ctx, b)
		if err != nil {
			log.Printf("bank: load %s: %v", name, err)
			continue
		}
		if len(rep.Conflicts) > 0 {
			log.Printf("bank: %s updated %d conflicting question(s): %v", b.ID, len(rep.Conflicts), rep.Conflicts)
		}
		loaded++
	}
	return loaded, nil
}
