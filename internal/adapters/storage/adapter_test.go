package storage_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/goliatone/go-press/internal/adapters/storage"
	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/goliatone/go-press/pkg/testsupport"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := testsupport.NewSQLiteMemoryDB("")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestProvidersImplementInterface(t *testing.T) {
	var (
		_ interfaces.StorageProvider = storage.NewBunStorageAdapter(openTestDB(t))
		_ interfaces.StorageProvider = storage.NewNoOpProvider()
	)
}

func TestBunStorageAdapterRoundTrip(t *testing.T) {
	provider := storage.NewBunStorageAdapter(openTestDB(t))
	ctx := context.Background()

	if _, err := provider.Exec(ctx, "CREATE TABLE artifacts (path TEXT PRIMARY KEY)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := provider.Exec(ctx, "INSERT INTO artifacts (path) VALUES (?)", "en/index.html"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rows, err := provider.Query(ctx, "SELECT path FROM artifacts")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	if !rows.Next() {
		t.Fatal("expected a row")
	}
	var path string
	if err := rows.Scan(&path); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if path != "en/index.html" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestBunStorageAdapterTransactionRollsBack(t *testing.T) {
	provider := storage.NewBunStorageAdapter(openTestDB(t))
	ctx := context.Background()

	if _, err := provider.Exec(ctx, "CREATE TABLE artifacts (path TEXT PRIMARY KEY)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	wantErr := context.Canceled
	err := provider.Transaction(ctx, func(tx interfaces.Transaction) error {
		if _, err := tx.Exec(ctx, "INSERT INTO artifacts (path) VALUES (?)", "en/about.html"); err != nil {
			return err
		}
		return wantErr
	})
	if err == nil {
		t.Fatal("expected transaction error")
	}

	rows, err := provider.Query(ctx, "SELECT COUNT(*) FROM artifacts")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	if !rows.Next() {
		t.Fatal("expected count row")
	}
	var count int
	if err := rows.Scan(&count); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d rows", count)
	}
}
