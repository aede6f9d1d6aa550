package persistence

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/uptrace/bun"
)

const migrationTable = "press_migrations"

// Migrate applies every .sql file found under dir in fsys, in lexical order.
// Applied filenames are tracked in press_migrations so reruns are no-ops.
// Each file runs inside its own transaction.
func Migrate(ctx context.Context, db *bun.DB, fsys fs.FS, dir string) error {
	if db == nil {
		return fmt.Errorf("persistence: migrate: db is nil")
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (name TEXT PRIMARY KEY, applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
		migrationTable,
	)); err != nil {
		return fmt.Errorf("persistence: create migration table: %w", err)
	}

	names, err := listMigrations(fsys, dir)
	if err != nil {
		return err
	}

	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return err
	}

	for _, name := range names {
		if _, ok := applied[name]; ok {
			continue
		}
		if err := applyMigration(ctx, db, fsys, dir, name); err != nil {
			return err
		}
	}
	return nil
}

func listMigrations(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("persistence: read migrations dir %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func appliedMigrations(ctx context.Context, db *bun.DB) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT name FROM %s`, migrationTable))
	if err != nil {
		return nil, fmt.Errorf("persistence: list applied migrations: %w", err)
	}
	defer rows.Close()

	applied := map[string]struct{}{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("persistence: scan migration row: %w", err)
		}
		applied[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("persistence: iterate migration rows: %w", err)
	}
	return applied, nil
}

func applyMigration(ctx context.Context, db *bun.DB, fsys fs.FS, dir, name string) error {
	script, err := fs.ReadFile(fsys, path.Join(dir, name))
	if err != nil {
		return fmt.Errorf("persistence: read migration %s: %w", name, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("persistence: begin migration %s: %w", name, err)
	}

	for _, stmt := range splitStatements(string(script)) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("persistence: apply migration %s: %w", name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s (name) VALUES (?)`, migrationTable), name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("persistence: record migration %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("persistence: commit migration %s: %w", name, err)
	}
	return nil
}

// splitStatements breaks a script on semicolons at line boundaries. This is
// enough for the bundled DDL; migrations with procedural bodies should live
// in a single statement per file.
func splitStatements(script string) []string {
	parts := strings.Split(script, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
