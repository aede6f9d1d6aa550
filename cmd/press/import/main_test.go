package main

import (
	"context"
	"testing"

	"github.com/goliatone/go-press/cmd/press/internal/bootstrap"
	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/google/uuid"
)

type stubMarkdownService struct {
	importCalls int
	importDir   string
	importOpts  interfaces.ImportOptions
}

func (s *stubMarkdownService) Load(context.Context, string, interfaces.LoadOptions) (*interfaces.Document, error) {
	return nil, nil
}

func (s *stubMarkdownService) LoadDirectory(context.Context, string, interfaces.LoadOptions) ([]*interfaces.Document, error) {
	return nil, nil
}

func (s *stubMarkdownService) Render(context.Context, []byte, interfaces.ParseOptions) ([]byte, error) {
	return nil, nil
}

func (s *stubMarkdownService) RenderDocument(context.Context, *interfaces.Document, interfaces.ParseOptions) ([]byte, error) {
	return nil, nil
}

func (s *stubMarkdownService) Import(context.Context, *interfaces.Document, interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	return nil, nil
}

func (s *stubMarkdownService) ImportDirectory(_ context.Context, dir string, opts interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	s.importCalls++
	s.importDir = dir
	s.importOpts = opts
	return &interfaces.ImportResult{}, nil
}

func (s *stubMarkdownService) Sync(context.Context, string, interfaces.SyncOptions) (*interfaces.SyncResult, error) {
	return nil, nil
}

func TestRunImportUsesCommandHandler(t *testing.T) {
	original := moduleBuilder
	defer func() { moduleBuilder = original }()

	svc := &stubMarkdownService{}
	moduleBuilder = func(bootstrap.Options) (*bootstrap.Module, error) {
		return &bootstrap.Module{
			Markdown: svc,
			Logger:   logging.NoOp(),
		}, nil
	}

	author := uuid.New()
	if err := runImport([]string{
		"-directory", "docs",
		"-author", author.String(),
		"-dry-run",
	}); err != nil {
		t.Fatalf("runImport returned error: %v", err)
	}
	if svc.importCalls != 1 {
		t.Fatalf("expected import to be called once, got %d", svc.importCalls)
	}
	if svc.importDir != "docs" {
		t.Fatalf("expected import directory docs, got %s", svc.importDir)
	}
	if svc.importOpts.AuthorID != author {
		t.Fatalf("expected author %s, got %s", author, svc.importOpts.AuthorID)
	}
	if !svc.importOpts.DryRun {
		t.Fatal("expected dry-run flag to propagate")
	}
}

func TestRunImportRejectsInvalidAuthor(t *testing.T) {
	original := moduleBuilder
	defer func() { moduleBuilder = original }()

	moduleBuilder = func(bootstrap.Options) (*bootstrap.Module, error) {
		return &bootstrap.Module{
			Markdown: &stubMarkdownService{},
			Logger:   logging.NoOp(),
		}, nil
	}

	if err := runImport([]string{"-author", "not-a-uuid"}); err == nil {
		t.Fatal("expected error for malformed author id")
	}
}
