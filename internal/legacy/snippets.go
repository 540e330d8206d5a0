// Package legacy reads the JSON snippet store used before the SQLite one.
package legacy

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"devcollab/internal/models"
	"devcollab/internal/repository"
)

type legacySnippet struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Language  string   `json:"language"`
	Code      string   `json:"code"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"createdAt"`
}

// Result counts what an import did.
type Result struct {
	Imported int
	Skipped  int // already present
	Invalid  int
}

// Parse reads a legacy snippets.json, a JSON object keyed by snippet id,
// and returns the snippets oldest first. Entries without a usable id fall
// back to their map key; unparseable timestamps become the zero time.
func Parse(r io.Reader) ([]models.Snippet, error) {
	var raw map[string]legacySnippet
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode legacy snippets: %w", err)
	}

	snippets := make([]models.Snippet, 0, len(raw))
	for key, item := range raw {
		s := models.Snippet{
			ID:       item.ID,
			Title:    item.Title,
			Language: item.Language,
			Code:     item.Code,
			Tags:     item.Tags,
		}
		if s.ID == "" {
			s.ID = key
		}
		if t, err := time.Parse(time.RFC3339Nano, item.CreatedAt); err == nil {
			s.CreatedAt = t.UTC()
		}
		s.Normalize()
		snippets = append(snippets, s)
	}

	sort.Slice(snippets, func(i, j int) bool {
		if snippets[i].CreatedAt.Equal(snippets[j].CreatedAt) {
			return snippets[i].ID < snippets[j].ID
		}
		return snippets[i].CreatedAt.Before(snippets[j].CreatedAt)
	})
	return snippets, nil
}

// Import inserts every snippet not yet present in repo. Snippets without a
// timestamp are counted invalid and skipped.
func Import(snippets []models.Snippet, repo repository.SnippetRepository) (Result, error) {
	var result Result
	for i := range snippets {
		s := &snippets[i]
		if s.CreatedAt.IsZero() {
			result.Invalid++
			continue
		}

		existing, err := repo.GetByID(s.ID)
		if err != nil {
			return result, err
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		if err := repo.Insert(s); err != nil {
			return result, fmt.Errorf("import %s: %w", s.ID, err)
		}
		result.Imported++
	}
	return result, nil
}
