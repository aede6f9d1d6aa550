package fsstore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-press/pkg/fsstore"
)

func TestExecWriteCreatesFile(t *testing.T) {
	root := t.TempDir()
	provider := fsstore.New(root)
	ctx := context.Background()

	if _, err := provider.Exec(ctx, "generator.ensure_dir", "dist/en"); err != nil {
		t.Fatalf("ensure_dir: %v", err)
	}

	content := strings.NewReader("<html>hello</html>")
	if _, err := provider.Exec(ctx, "generator.write", "dist/en/index.html", content, int64(18), "page", "text/html", "en", "", map[string]string{}); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "dist", "en", "index.html"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "<html>hello</html>" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestQueryReadRoundTrip(t *testing.T) {
	root := t.TempDir()
	provider := fsstore.New(root)
	ctx := context.Background()

	if _, err := provider.Exec(ctx, "generator.write", "dist/manifest.json", strings.NewReader(`{"pages":{}}`), int64(12), "manifest", "application/json", "", "", map[string]string{}); err != nil {
		t.Fatalf("write: %v", err)
	}

	rows, err := provider.Query(ctx, "generator.read", "dist/manifest.json")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	defer rows.Close()

	if !rows.Next() {
		t.Fatal("expected one row")
	}
	var data []byte
	if err := rows.Scan(&data); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if string(data) != `{"pages":{}}` {
		t.Fatalf("unexpected content %q", data)
	}
	if rows.Next() {
		t.Fatal("expected single row")
	}
}

func TestQueryReadMissingFileYieldsNoRows(t *testing.T) {
	provider := fsstore.New(t.TempDir())

	rows, err := provider.Query(context.Background(), "generator.read", "dist/absent.json")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	defer rows.Close()
	if rows.Next() {
		t.Fatal("expected no rows for missing file")
	}
}

func TestExecRemove(t *testing.T) {
	root := t.TempDir()
	provider := fsstore.New(root)
	ctx := context.Background()

	if _, err := provider.Exec(ctx, "generator.write", "dist/tags/intro/index.html", strings.NewReader("x"), int64(1), "page", "text/html", "en", "", map[string]string{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := provider.Exec(ctx, "generator.remove", "dist"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "dist")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected dist removed, got %v", err)
	}
}

func TestRejectsEscapingPaths(t *testing.T) {
	provider := fsstore.New(t.TempDir())

	if _, err := provider.Exec(context.Background(), "generator.ensure_dir", "../outside"); !errors.Is(err, fsstore.ErrPathOutsideRoot) {
		t.Fatalf("expected ErrPathOutsideRoot, got %v", err)
	}
}

func TestRejectsUnknownOp(t *testing.T) {
	provider := fsstore.New(t.TempDir())

	if _, err := provider.Exec(context.Background(), "generator.rename", "a", "b"); !errors.Is(err, fsstore.ErrUnsupportedOp) {
		t.Fatalf("expected ErrUnsupportedOp, got %v", err)
	}
}
