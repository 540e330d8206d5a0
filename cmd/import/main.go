package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"devcollab/internal/config"
	"devcollab/internal/legacy"
	"devcollab/internal/repository/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	jsonPath := flag.String("json", "data/snippets.json", "Legacy snippets file")
	dbPath := flag.String("db", cfg.DatabasePath, "Database path")
	flag.Parse()

	fmt.Printf("Importing snippets from %s to database %s\n", *jsonPath, *dbPath)

	f, err := os.Open(*jsonPath)
	if err != nil {
		log.Fatalf("Failed to open legacy file: %v", err)
	}
	defer f.Close()

	snippets, err := legacy.Parse(f)
	if err != nil {
		log.Fatalf("Failed to read legacy file: %v", err)
	}
	if len(snippets) == 0 {
		fmt.Println("No snippets found to import")
		return
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	result, err := legacy.Import(snippets, sqlite.NewSnippetRepository(db))
	if err != nil {
		log.Fatalf("Import failed after %d snippets: %v", result.Imported, err)
	}

	if result.Invalid > 0 {
		log.Printf("⚠️  Skipped %d snippets without a valid createdAt", result.Invalid)
	}
	fmt.Printf("✅ Imported %d snippets (%d already present)\n", result.Imported, result.Skipped)
}
