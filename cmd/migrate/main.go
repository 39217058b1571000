package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"

	"github.com/saral/aadhaar-pulse/internal/pkg/logger"
)

func main() {
	dir := "migrations"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if err := run(dir); err != nil {
		logger.Error("migration run failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(dir string) error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	files, err := sqlFiles(dir)
	if err != nil {
		return err
	}

	var applied, failed int
	for _, f := range files {
		content, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			continue
		}
		if err := applyInTx(db, string(content)); err != nil {
			logger.Error("migration failed", "file", f, "error", err.Error())
			failed++
			continue
		}
		logger.Info("migration applied", "file", f)
		applied++
	}
	logger.Info("migrations complete", "applied", applied, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d migration(s) failed", failed)
	}
	return nil
}

// sqlFiles returns the .sql files of dir in lexical order, which is the
// application order (files are numbered 0001_, 0002_, ...).
func sqlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func applyInTx(db *sql.DB, statements string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(statements); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
