package di

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-press/internal/generator"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/internal/runtimeconfig"
)

type recordingPostService struct {
	posts.Service
}

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Scheduling = true

	if _, err := NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrSchedulingFeatureRequiresVersioning) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewContainerDefaults(t *testing.T) {
	container, err := NewContainer(runtimeconfig.DefaultConfig())
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	if container.PostService() == nil {
		t.Fatal("expected post service")
	}
	if container.Scheduler() == nil {
		t.Fatal("expected scheduler binding")
	}
	if container.LoggerProvider() == nil {
		t.Fatal("expected logger provider")
	}
	if container.MarkdownService() != nil {
		t.Fatal("expected markdown disabled by default")
	}
	if container.Worker() != nil {
		t.Fatal("expected no worker without scheduling")
	}

	if _, err := container.GeneratorService().Build(context.Background(), generator.BuildOptions{}); !errors.Is(err, generator.ErrServiceDisabled) {
		t.Fatalf("expected disabled generator, got %v", err)
	}
}

func TestNewContainerSeedsLocales(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.I18N.Locales = []string{"en", "ES", "en"}

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	ctx := context.Background()
	locales, err := container.LocaleRepository().List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(locales) != 2 {
		t.Fatalf("expected 2 seeded locales, got %d", len(locales))
	}

	es, err := container.LocaleRepository().GetByCode(ctx, "es")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if es.IsDefault {
		t.Fatal("expected es to not be default")
	}

	en, err := container.LocaleRepository().GetByCode(ctx, "en")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if !en.IsDefault {
		t.Fatal("expected en marked default")
	}
}

func TestNewContainerSchedulingWiresWorker(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Storage = true
	cfg.Features.Versioning = true
	cfg.Features.Scheduling = true
	cfg.Storage.DSN = "file::memory:?cache=shared"

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	if container.Worker() == nil {
		t.Fatal("expected timed publication worker")
	}
	if container.AuditRecorder() == nil {
		t.Fatal("expected audit recorder default")
	}
}

func TestNewContainerMarkdownWithFilesystem(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Markdown = true

	fsys := fstest.MapFS{
		"welcome.md": &fstest.MapFile{
			Data: []byte("---\ntitle: Welcome\n---\n\n# Hello\n"),
		},
	}

	container, err := NewContainer(cfg, WithMarkdownFilesystem(fsys))
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	if container.MarkdownService() == nil {
		t.Fatal("expected markdown service")
	}
}

func TestNewContainerGeneratorEnabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Generator = true
	cfg.Generator.OutputDir = t.TempDir()

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	if err := container.GeneratorService().Clean(context.Background()); err != nil {
		t.Fatalf("Clean: %v", err)
	}
}

func TestNewContainerServiceOverride(t *testing.T) {
	sentinel := &recordingPostService{}
	container, err := NewContainer(runtimeconfig.DefaultConfig(), WithPostService(sentinel))
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	if container.PostService() != sentinel {
		t.Fatal("expected override to win")
	}
}
