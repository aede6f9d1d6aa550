package press_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	press "github.com/goliatone/go-press"
	"github.com/goliatone/go-press/internal/di"
	"github.com/goliatone/go-press/internal/persistence"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/google/uuid"
)

func TestModuleMemoryLifecycle(t *testing.T) {
	module, err := press.New(press.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	author := uuid.New()

	created, err := module.Posts().Create(ctx, interfaces.PostCreateRequest{
		Slug:      "hello-world",
		CreatedBy: author,
		UpdatedBy: author,
		Translations: []interfaces.PostTranslationInput{
			{Locale: "en", Title: "Hello World", Body: "# Hi\n"},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	fetched, err := module.Posts().GetBySlug(ctx, "hello-world", interfaces.PostReadOptions{
		Locale:        "en",
		IncludeDrafts: true,
	})
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if fetched.ID != created.ID {
		t.Fatalf("expected %v, got %v", created.ID, fetched.ID)
	}

	published, err := module.Posts().Publish(ctx, posts.PublishRequest{
		PostID:      created.ID,
		PublishedBy: author,
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if published.Status != "published" {
		t.Fatalf("expected published, got %q", published.Status)
	}
	if published.PublishedAt == nil {
		t.Fatal("expected published_at stamp")
	}
}

func TestModuleImportDirectory(t *testing.T) {
	cfg := press.DefaultConfig()
	cfg.Features.Markdown = true

	fsys := fstest.MapFS{
		"first-post.md": &fstest.MapFile{
			Data: []byte("---\ntitle: First Post\ntags: [intro]\n---\n\nWelcome to the blog.\n"),
		},
	}

	module, err := press.New(cfg, di.WithMarkdownFilesystem(fsys))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	result, err := module.ImportDirectory(ctx, ".", interfaces.ImportOptions{
		AuthorID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("ImportDirectory: %v", err)
	}
	if len(result.CreatedPostIDs) != 1 {
		t.Fatalf("expected 1 created post, got %+v", result)
	}

	record, err := module.Posts().GetBySlug(ctx, "first-post", interfaces.PostReadOptions{
		Locale:        "en",
		IncludeDrafts: true,
	})
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if record.Translation == nil || record.Translation.Title != "First Post" {
		t.Fatalf("unexpected translation %+v", record.Translation)
	}
}

func TestModuleImportRequiresMarkdownFeature(t *testing.T) {
	module, err := press.New(press.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := module.ImportDirectory(context.Background(), ".", interfaces.ImportOptions{}); !errors.Is(err, press.ErrMarkdownDisabled) {
		t.Fatalf("expected ErrMarkdownDisabled, got %v", err)
	}
}

func TestModuleSQLiteStorage(t *testing.T) {
	db, err := persistence.Open(persistence.Config{
		Driver: persistence.DriverSQLite,
		DSN:    "file::memory:?cache=shared",
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if err := persistence.Migrate(ctx, db, press.GetMigrationsFS(), "data/sql/migrations"); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	cfg := press.DefaultConfig()
	cfg.Features.Storage = true
	cfg.Storage.DSN = "file::memory:?cache=shared"

	module, err := press.New(cfg, di.WithBunDB(db))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// bun-backed locale repo reads from the migrated table; seed the default.
	locale := &posts.Locale{
		ID:        uuid.New(),
		Code:      "en",
		Display:   "English",
		IsActive:  true,
		IsDefault: true,
	}
	if _, err := db.NewInsert().Model(locale).Exec(ctx); err != nil {
		t.Fatalf("seed locale: %v", err)
	}

	author := uuid.New()
	created, err := module.Posts().Create(ctx, interfaces.PostCreateRequest{
		Slug:      "stored-post",
		CreatedBy: author,
		UpdatedBy: author,
		Translations: []interfaces.PostTranslationInput{
			{Locale: "en", Title: "Stored Post", Body: "body"},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	fetched, err := module.Posts().Get(ctx, created.ID, interfaces.PostReadOptions{
		Locale:        "en",
		IncludeDrafts: true,
	})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched.Slug != "stored-post" {
		t.Fatalf("unexpected slug %q", fetched.Slug)
	}
}
