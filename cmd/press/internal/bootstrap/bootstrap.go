// Package bootstrap assembles press modules for the CLI entry points. The
// helpers here translate flag values into module configuration so each command
// binary stays focused on argument parsing and output.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	press "github.com/goliatone/go-press"
	"github.com/goliatone/go-press/internal/di"
	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/internal/persistence"
	"github.com/goliatone/go-press/pkg/fsstore"
	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/google/uuid"
)

// Options captures configuration for press CLI bootstraps.
type Options struct {
	ContentDir     string
	Pattern        string
	Recursive      bool
	LocalePatterns map[string]string
	DefaultLocale  string
	Locales        []string
	// SQLitePath enables persistent storage backed by the given SQLite file.
	// An empty path keeps the module on in-memory repositories.
	SQLitePath string
	// OutputDir enables the static generator writing beneath the given
	// directory, relative to the working directory.
	OutputDir      string
	ThemesDir      string
	BaseURL        string
	LoggerProvider interfaces.LoggerProvider
}

// Module wraps the press module and the services the CLIs exercise.
type Module struct {
	Module    *press.Module
	Markdown  interfaces.MarkdownService
	Generator press.GeneratorService
	Logger    interfaces.Logger
}

// BuildModule constructs a press module configured for CLI operations.
func BuildModule(opts Options) (*Module, error) {
	cfg := press.DefaultConfig()
	cfg.Features.Markdown = true

	cfg.Content.Dir = strings.TrimSpace(opts.ContentDir)
	if cfg.Content.Dir == "" {
		cfg.Content.Dir = "content"
	}
	if trimmed := strings.TrimSpace(opts.Pattern); trimmed != "" {
		cfg.Content.Pattern = trimmed
	}
	if opts.LocalePatterns != nil {
		cfg.Content.LocalePatterns = opts.LocalePatterns
	}
	cfg.Content.Recursive = opts.Recursive

	if defaultLocale := strings.TrimSpace(opts.DefaultLocale); defaultLocale != "" {
		cfg.DefaultLocale = defaultLocale
	}
	if len(opts.Locales) > 0 {
		cfg.I18N.Locales = cloneStrings(opts.Locales)
	} else if len(cfg.I18N.Locales) == 0 {
		cfg.I18N.Locales = []string{cfg.DefaultLocale}
	}

	diOpts := []di.Option{}
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, di.WithLoggerProvider(opts.LoggerProvider))
	}

	if path := strings.TrimSpace(opts.SQLitePath); path != "" {
		cfg.Features.Storage = true
		cfg.Features.Versioning = true
		cfg.Storage.Driver = persistence.DriverSQLite
		cfg.Storage.DSN = path

		db, err := persistence.Open(persistence.Config{
			Driver: persistence.DriverSQLite,
			DSN:    path,
		})
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := persistence.Migrate(context.Background(), db, press.GetMigrationsFS(), "data/sql/migrations"); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		diOpts = append(diOpts, di.WithBunDB(db))
	}

	if outputDir := strings.TrimSpace(opts.OutputDir); outputDir != "" {
		cfg.Features.Generator = true
		cfg.Generator.OutputDir = outputDir
		if themes := strings.TrimSpace(opts.ThemesDir); themes != "" {
			cfg.Generator.ThemesDir = themes
		}
		if base := strings.TrimSpace(opts.BaseURL); base != "" {
			cfg.Generator.BaseURL = base
		}
		diOpts = append(diOpts, di.WithGeneratorStorage(fsstore.New(".")))
	}

	module, err := press.New(cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise press module: %w", err)
	}

	markdown := module.Markdown()
	if markdown == nil {
		return nil, fmt.Errorf("markdown service not configured; ensure Features.Markdown is enabled")
	}

	logger := logging.MarkdownLogger(module.Container().LoggerProvider())

	return &Module{
		Module:    module,
		Markdown:  markdown,
		Generator: module.Generator(),
		Logger:    logger,
	}, nil
}

// SplitLocales parses a comma separated locale list into a trimmed slice.
func SplitLocales(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	locales := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			locales = append(locales, trimmed)
		}
	}
	return locales
}

// ParseUUID converts the supplied string into a UUID, returning uuid.Nil when the input is empty.
func ParseUUID(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(trimmed)
}

// ParseUUIDPointer returns a pointer to the parsed UUID, or nil when the value is empty.
func ParseUUIDPointer(value string) (*uuid.UUID, error) {
	id, err := ParseUUID(value)
	if err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, nil
	}
	return &id, nil
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
