package legacy

import (
	"path/filepath"
	"strings"
	"testing"

	"devcollab/internal/repository/sqlite"
)

const legacyJSON = `{
  "s_1700000000000": {
    "id": "s_1700000000000",
    "title": "Canny demo",
    "language": "python",
    "code": "import cv2",
    "tags": ["cv"],
    "createdAt": "2023-11-14T22:13:20.000000Z"
  },
  "s_1700000005000": {
    "id": "s_1700000005000",
    "title": "  ",
    "language": "",
    "code": "print(1)",
    "createdAt": "2023-11-14T22:13:25.123456Z"
  },
  "s_broken": {
    "title": "no timestamp",
    "code": "x",
    "createdAt": "yesterday"
  }
}`

func TestParse(t *testing.T) {
	snippets, err := Parse(strings.NewReader(legacyJSON))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(snippets) != 3 {
		t.Fatalf("Expected 3 snippets, got %d", len(snippets))
	}

	// zero time sorts first
	if snippets[0].ID != "s_broken" || !snippets[0].CreatedAt.IsZero() {
		t.Errorf("Expected broken entry first with zero time, got %+v", snippets[0])
	}
	if snippets[1].Title != "Canny demo" || len(snippets[1].Tags) != 1 {
		t.Errorf("Unexpected snippet %+v", snippets[1])
	}
	if snippets[2].Title != "Untitled" || snippets[2].Language != "python" {
		t.Errorf("Expected normalized defaults, got %+v", snippets[2])
	}
	if snippets[2].CreatedAt.Nanosecond() != 123456000 {
		t.Errorf("Expected microseconds preserved, got %v", snippets[2].CreatedAt)
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	if _, err := Parse(strings.NewReader("[1,2,3]")); err == nil {
		t.Error("Expected error for non-object JSON")
	}
}

func TestImport_SkipsExisting(t *testing.T) {
	db, err := sqlite.New(filepath.Join(t.TempDir(), "import.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	repo := sqlite.NewSnippetRepository(db)

	snippets, err := Parse(strings.NewReader(legacyJSON))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	result, err := Import(snippets, repo)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Imported != 2 || result.Invalid != 1 || result.Skipped != 0 {
		t.Errorf("Unexpected first import result %+v", result)
	}

	snippets, _ = Parse(strings.NewReader(legacyJSON))
	result, err = Import(snippets, repo)
	if err != nil {
		t.Fatalf("Second import failed: %v", err)
	}
	if result.Imported != 0 || result.Skipped != 2 {
		t.Errorf("Unexpected second import result %+v", result)
	}

	all, _ := repo.GetAll(nil)
	if len(all) != 2 || all[0].ID != "s_1700000005000" {
		t.Errorf("Expected newest imported snippet first, got %+v", all)
	}
}
