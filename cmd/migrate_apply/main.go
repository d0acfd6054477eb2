package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"game_lounge/internal/db"
	"game_lounge/internal/logger"

	"github.com/joho/godotenv"
)

// Lists pending migrations by default; -apply runs them. Applied files
// are recorded in schema_migrations so reruns are safe.
func main() {
	logger.Init(os.Getenv("LOG_LEVEL"), false)
	_ = godotenv.Load()

	apply := flag.Bool("apply", false, "apply pending migrations")
	dir := flag.String("dir", filepath.Join("internal", "migrations"), "migrations directory")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	ctx := context.Background()
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		logger.Fatal("init schema_migrations", "error", err)
	}

	applied := make(map[string]bool)
	rows, err := pool.Query(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		logger.Fatal("read schema_migrations", "error", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			logger.Fatal("scan schema_migrations", "error", err)
		}
		applied[name] = true
	}
	rows.Close()

	entries, err := os.ReadDir(*dir)
	if err != nil {
		logger.Fatal("read migrations dir", "dir", *dir, "error", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if applied[name] {
			logger.Info("already applied", "file", name)
			continue
		}
		if !*apply {
			logger.Info("pending", "file", name)
			continue
		}

		sql, err := os.ReadFile(filepath.Join(*dir, name))
		if err != nil {
			logger.Fatal("read migration", "file", name, "error", err)
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			logger.Fatal("begin tx", "error", err)
		}
		if _, err := tx.Exec(ctx, string(sql)); err != nil {
			_ = tx.Rollback(ctx)
			logger.Fatal("apply migration", "file", name, "error", err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
			_ = tx.Rollback(ctx)
			logger.Fatal("record migration", "file", name, "error", err)
		}
		if err := tx.Commit(ctx); err != nil {
			logger.Fatal("commit migration", "file", name, "error", err)
		}
		logger.Info("applied", "file", name)
	}
}
