package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/goliatone/go-press/cmd/press/internal/bootstrap"
	markdowncmd "github.com/goliatone/go-press/internal/commands/markdown"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runSync(os.Args[1:]); err != nil {
		log.Fatalf("press sync: %v", err)
	}
}

func runSync(args []string) error {
	fs := flag.NewFlagSet("press-sync", flag.ExitOnError)
	contentDir := fs.String("content-dir", "content", "Path to the markdown content root")
	pattern := fs.String("pattern", "*.md", "Glob pattern applied when discovering markdown files")
	locales := fs.String("locales", "", "Comma separated list of locales (defaults to config locales)")
	defaultLocale := fs.String("default-locale", "en", "Default locale for fallback documents")
	directory := fs.String("directory", ".", "Directory to sync, relative to the content root")
	author := fs.String("author", "", "Author ID recorded on created posts")
	layout := fs.String("layout", "", "Layout override applied to synced posts")
	sqlitePath := fs.String("sqlite", "", "SQLite database path (defaults to in-memory repositories)")
	deleteOrphaned := fs.Bool("delete-orphaned", false, "Remove file-managed posts whose markdown files disappeared")
	updateExisting := fs.Bool("update-existing", true, "Update posts whose markdown files changed")
	dryRun := fs.Bool("dry-run", false, "Preview changes without persisting posts")

	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := bootstrap.Options{
		ContentDir:    *contentDir,
		Pattern:       *pattern,
		Recursive:     true,
		DefaultLocale: *defaultLocale,
		Locales:       bootstrap.SplitLocales(*locales),
		SQLitePath:    *sqlitePath,
	}

	module, err := moduleBuilder(opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	if module == nil || module.Markdown == nil {
		return fmt.Errorf("markdown service not configured; ensure Features.Markdown is enabled")
	}

	authorID, err := bootstrap.ParseUUID(*author)
	if err != nil {
		return fmt.Errorf("parse author: %w", err)
	}

	handler := markdowncmd.NewSyncDirectoryHandler(module.Markdown, module.Logger, markdowncmd.FeatureGates{
		MarkdownEnabled: func() bool { return true },
	})
	cmd := markdowncmd.SyncDirectoryCommand{
		Directory:      *directory,
		AuthorID:       authorID,
		Layout:         *layout,
		DryRun:         *dryRun,
		DeleteOrphaned: *deleteOrphaned,
		UpdateExisting: *updateExisting,
	}
	if err := handler.Execute(context.Background(), cmd); err != nil {
		return fmt.Errorf("execute sync command: %w", err)
	}
	fmt.Fprintln(os.Stdout, "press sync command executed successfully")

	return nil
}
