package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"goqvalue/adapters/postgres"
	"goqvalue/domain/core"
	"goqvalue/domain/fdr"
	"goqvalue/internal"
	"goqvalue/internal/migration"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <database_url> [results_dir]")
	}

	databaseURL := os.Args[1]
	logger := internal.NewDefaultLogger()

	// Connect to database
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := migration.NewRunner(logger).Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if len(os.Args) < 3 {
		return
	}
	resultsDir := os.Args[2]

	// Find all JSON result files written by `goqvalue compute --out x.json`
	files, err := findResultFiles(resultsDir)
	if err != nil {
		log.Fatalf("Failed to find result files: %v", err)
	}
	log.Printf("Found %d result files to import", len(files))

	repo := postgres.NewRunRepository(db)
	imported, skipped := 0, 0

	for _, file := range files {
		run, err := loadRunFromFile(file)
		if err != nil {
			log.Printf("Failed to load result from %s: %v", file, err)
			skipped++
			continue
		}

		if err := repo.SaveRun(ctx, run); err != nil {
			log.Printf("Failed to save run %s: %v", run.ID, err)
			skipped++
			continue
		}
		imported++
	}

	log.Printf("Import complete: %d imported, %d skipped", imported, skipped)
}

func findResultFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// loadRunFromFile decodes a result file. The run id is derived from the
// absolute path so importing the same file twice updates one row.
func loadRunFromFile(filePath string) (*fdr.Run, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var result fdr.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(filePath)
	if err != nil {
		abs = filePath
	}

	createdAt := time.Now().UTC()
	if info, err := os.Stat(filePath); err == nil {
		createdAt = info.ModTime().UTC()
	}

	return &fdr.Run{
		ID:        core.RunID(uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs)).String()),
		Name:      strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath)),
		CreatedAt: createdAt,
		Result:    &result,
	}, nil
}
