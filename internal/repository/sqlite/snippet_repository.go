package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"devcollab/internal/models"

	"github.com/google/uuid"
)

// createdAtLayout has a fixed width so that text ordering is time ordering.
// The column is TEXT so the driver hands the value back unchanged.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

// SnippetRepository implements repository.SnippetRepository for SQLite.
type SnippetRepository struct {
	db *DB
}

// NewSnippetRepository creates a new SQLite snippet repository.
func NewSnippetRepository(db *DB) *SnippetRepository {
	return &SnippetRepository{db: db}
}

// NewSnippetID returns a fresh snippet identifier.
func NewSnippetID() string {
	return "s_" + uuid.NewString()
}

// Insert stores a snippet and its tags. An empty ID or creation time is
// filled in before writing.
func (r *SnippetRepository) Insert(s *models.Snippet) error {
	if s.ID == "" {
		s.ID = NewSnippetID()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO snippets (id, title, language, code, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.ID, s.Title, s.Language, s.Code, s.CreatedAt.UTC().Format(createdAtLayout)); err != nil {
		return fmt.Errorf("failed to insert snippet: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO snippet_tags (snippet_id, position, tag) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, tag := range s.Tags {
		if _, err := stmt.Exec(s.ID, i, tag); err != nil {
			return fmt.Errorf("failed to insert tag: %w", err)
		}
	}

	return tx.Commit()
}

// GetByID retrieves a snippet by its ID. It returns nil, nil when the
// snippet does not exist.
func (r *SnippetRepository) GetByID(id string) (*models.Snippet, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var (
		s         models.Snippet
		createdAt string
	)
	err := r.db.Conn().QueryRow(`
		SELECT id, title, language, code, created_at
		FROM snippets WHERE id = ?
	`, id).Scan(&s.ID, &s.Title, &s.Language, &s.Code, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snippet: %w", err)
	}
	if s.CreatedAt, err = parseCreatedAt(createdAt); err != nil {
		return nil, err
	}

	tags, err := r.tagsFor([]string{s.ID})
	if err != nil {
		return nil, err
	}
	s.Tags = tags[s.ID]
	if s.Tags == nil {
		s.Tags = []string{}
	}
	return &s, nil
}

// GetAll retrieves snippets matching filter, newest first.
func (r *SnippetRepository) GetAll(filter *models.SnippetFilter) ([]models.Snippet, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildWhere(filter)
	query := `SELECT s.id, s.title, s.language, s.code, s.created_at FROM snippets s` +
		where + ` ORDER BY s.created_at DESC, s.rowid DESC`

	if filter != nil {
		switch {
		case filter.Limit > 0:
			query += " LIMIT ? OFFSET ?"
			args = append(args, filter.Limit, filter.Offset)
		case filter.Offset > 0:
			query += " LIMIT -1 OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snippets: %w", err)
	}

	snippets := []models.Snippet{}
	for rows.Next() {
		var (
			s         models.Snippet
			createdAt string
		)
		if err := rows.Scan(&s.ID, &s.Title, &s.Language, &s.Code, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan snippet: %w", err)
		}
		if s.CreatedAt, err = parseCreatedAt(createdAt); err != nil {
			rows.Close()
			return nil, err
		}
		snippets = append(snippets, s)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate snippets: %w", err)
	}

	// Osobne zapytanie dopiero po zamknięciu rows - mamy tylko jedno połączenie
	ids := make([]string, len(snippets))
	for i := range snippets {
		ids[i] = snippets[i].ID
	}
	tags, err := r.tagsFor(ids)
	if err != nil {
		return nil, err
	}
	for i := range snippets {
		snippets[i].Tags = tags[snippets[i].ID]
		if snippets[i].Tags == nil {
			snippets[i].Tags = []string{}
		}
	}

	return snippets, nil
}

// Count returns the number of snippets matching filter.
func (r *SnippetRepository) Count(filter *models.SnippetFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildWhere(filter)
	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM snippets s`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count snippets: %w", err)
	}
	return count, nil
}

// Delete removes a snippet and its tags.
func (r *SnippetRepository) Delete(id string) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM snippet_tags WHERE snippet_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete tags: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM snippets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete snippet: %w", err)
	}
	return tx.Commit()
}

// tagsFor loads tags for the given snippets in stored order. Callers hold
// the lock.
func (r *SnippetRepository) tagsFor(ids []string) (map[string][]string, error) {
	tags := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return tags, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.Conn().Query(`
		SELECT snippet_id, tag FROM snippet_tags
		WHERE snippet_id IN (`+placeholders+`)
		ORDER BY snippet_id, position
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags[id] = append(tags[id], tag)
	}
	return tags, rows.Err()
}

func buildWhere(filter *models.SnippetFilter) (string, []interface{}) {
	query := " WHERE 1=1"
	args := []interface{}{}
	if filter == nil {
		return query, args
	}

	if filter.Language != "" {
		query += " AND s.language = ?"
		args = append(args, filter.Language)
	}
	if filter.Tag != "" {
		query += " AND EXISTS (SELECT 1 FROM snippet_tags t WHERE t.snippet_id = s.id AND t.tag = ?)"
		args = append(args, filter.Tag)
	}
	return query, args
}

func parseCreatedAt(value string) (time.Time, error) {
	t, err := time.Parse(createdAtLayout, value)
	if err != nil {
		// rows written by other tools
		t, err = time.Parse(time.RFC3339Nano, value)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse created_at %q: %w", value, err)
	}
	return t, nil
}
