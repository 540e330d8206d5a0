package repository

import (
	"devcollab/internal/models"
)

// SnippetRepository defines the interface for snippet data operations.
type SnippetRepository interface {
	// Create operations
	Insert(s *models.Snippet) error

	// Read operations
	GetByID(id string) (*models.Snippet, error)
	GetAll(filter *models.SnippetFilter) ([]models.Snippet, error)
	Count(filter *models.SnippetFilter) (int, error)

	// Delete operations
	Delete(id string) error
}
