package models

import (
	"strings"
	"time"
)

const (
	DefaultTitle    = "Untitled"
	DefaultLanguage = "python"
)

// Snippet is a shared piece of code.
type Snippet struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Language  string    `json:"language"`
	Code      string    `json:"code"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewSnippet builds a snippet with normalized fields. The ID is assigned by
// the repository on insert.
func NewSnippet(title, language, code string, tags []string) *Snippet {
	s := &Snippet{
		Title:     title,
		Language:  language,
		Code:      code,
		Tags:      tags,
		CreatedAt: time.Now().UTC(),
	}
	s.Normalize()
	return s
}

// Normalize trims title and language, falling back to the defaults when
// blank, and drops empty tags.
func (s *Snippet) Normalize() {
	s.Title = strings.TrimSpace(s.Title)
	if s.Title == "" {
		s.Title = DefaultTitle
	}
	s.Language = strings.TrimSpace(s.Language)
	if s.Language == "" {
		s.Language = DefaultLanguage
	}

	tags := make([]string, 0, len(s.Tags))
	for _, tag := range s.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	s.Tags = tags
}

// SnippetFilter narrows snippet listings. Zero values match everything.
type SnippetFilter struct {
	Language string
	Tag      string
	Limit    int
	Offset   int
}
