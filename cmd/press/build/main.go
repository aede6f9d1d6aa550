package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/goliatone/go-press/cmd/press/internal/bootstrap"
	sitecmd "github.com/goliatone/go-press/internal/commands/site"
	"github.com/google/uuid"
)

type buildExecutor interface {
	Execute(ctx context.Context, msg sitecmd.BuildSiteCommand) error
}

type diffExecutor interface {
	Execute(ctx context.Context, msg sitecmd.DiffSiteCommand) error
}

type cleanExecutor interface {
	Execute(ctx context.Context, msg sitecmd.CleanSiteCommand) error
}

type handlerSet struct {
	build buildExecutor
	diff  diffExecutor
	clean cleanExecutor
}

type moduleOptions struct {
	contentDir string
	outputDir  string
	themesDir  string
	baseURL    string
	sqlitePath string
}

type moduleResources struct {
	handlers handlerSet
}

var moduleBuilder = buildModule

func buildModule(opts moduleOptions) (*moduleResources, error) {
	module, err := bootstrap.BuildModule(bootstrap.Options{
		ContentDir: opts.contentDir,
		Recursive:  true,
		SQLitePath: opts.sqlitePath,
		OutputDir:  opts.outputDir,
		ThemesDir:  opts.themesDir,
		BaseURL:    opts.baseURL,
	})
	if err != nil {
		return nil, err
	}
	if module.Generator == nil {
		return nil, fmt.Errorf("generator service not configured; ensure an output directory is set")
	}

	gates := sitecmd.FeatureGates{
		GeneratorEnabled: func() bool { return true },
	}

	return &moduleResources{
		handlers: handlerSet{
			build: sitecmd.NewBuildSiteHandler(module.Generator, module.Logger, gates),
			diff:  sitecmd.NewDiffSiteHandler(module.Generator, module.Logger, gates),
			clean: sitecmd.NewCleanSiteHandler(module.Generator, module.Logger, gates),
		},
	}, nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("press build: %v", err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand: expected build, diff, or clean")
	}

	sub := args[0]
	rest := args[1:]

	switch sub {
	case "build":
		return runBuild(rest)
	case "diff":
		return runDiff(rest)
	case "clean":
		return runClean(rest)
	default:
		return fmt.Errorf("unknown subcommand %q: expected build, diff, or clean", sub)
	}
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*s = append(*s, trimmed)
	}
	return nil
}

func commonFlags(fs *flag.FlagSet) *moduleOptions {
	opts := &moduleOptions{}
	fs.StringVar(&opts.contentDir, "content-dir", "content", "Path to the markdown content root")
	fs.StringVar(&opts.outputDir, "output", "dist", "Output directory for generated artifacts")
	fs.StringVar(&opts.themesDir, "themes", "themes", "Directory containing site themes")
	fs.StringVar(&opts.baseURL, "base-url", "", "Base URL used for absolute links and sitemaps")
	fs.StringVar(&opts.sqlitePath, "sqlite", "", "SQLite database path (defaults to in-memory repositories)")
	return opts
}

func parsePostIDs(values stringList) ([]uuid.UUID, error) {
	if len(values) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(values))
	for _, raw := range values {
		id, err := bootstrap.ParseUUID(raw)
		if err != nil {
			return nil, fmt.Errorf("parse post id %q: %w", raw, err)
		}
		if id != uuid.Nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("press-build", flag.ExitOnError)
	opts := commonFlags(fs)
	var posts stringList
	var locales stringList
	fs.Var(&posts, "post", "Post ID to build (repeatable; defaults to all posts)")
	fs.Var(&locales, "locale", "Locale to build (repeatable; defaults to all locales)")
	force := fs.Bool("force", false, "Rebuild artifacts even when checksums match")
	assetsOnly := fs.Bool("assets", false, "Copy theme assets without rebuilding pages")

	if err := fs.Parse(args); err != nil {
		return err
	}

	resources, err := moduleBuilder(*opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	if resources == nil || resources.handlers.build == nil {
		return fmt.Errorf("build handler not configured")
	}

	postIDs, err := parsePostIDs(posts)
	if err != nil {
		return err
	}

	cmd := sitecmd.BuildSiteCommand{
		PostIDs:        postIDs,
		Locales:        locales,
		Force:          *force,
		AssetsOnly:     *assetsOnly,
		ResultCallback: logEnvelope,
	}
	if err := resources.handlers.build.Execute(context.Background(), cmd); err != nil {
		return fmt.Errorf("execute build command: %w", err)
	}
	return nil
}

func runDiff(args []string) error {
	fs := flag.NewFlagSet("press-diff", flag.ExitOnError)
	opts := commonFlags(fs)
	var posts stringList
	var locales stringList
	fs.Var(&posts, "post", "Post ID to diff (repeatable; defaults to all posts)")
	fs.Var(&locales, "locale", "Locale to diff (repeatable; defaults to all locales)")
	force := fs.Bool("force", false, "Treat all artifacts as stale when diffing")

	if err := fs.Parse(args); err != nil {
		return err
	}

	resources, err := moduleBuilder(*opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	if resources == nil || resources.handlers.diff == nil {
		return fmt.Errorf("diff handler not configured")
	}

	postIDs, err := parsePostIDs(posts)
	if err != nil {
		return err
	}

	cmd := sitecmd.DiffSiteCommand{
		PostIDs:        postIDs,
		Locales:        locales,
		Force:          *force,
		ResultCallback: logEnvelope,
	}
	if err := resources.handlers.diff.Execute(context.Background(), cmd); err != nil {
		return fmt.Errorf("execute diff command: %w", err)
	}
	return nil
}

func runClean(args []string) error {
	fs := flag.NewFlagSet("press-clean", flag.ExitOnError)
	opts := commonFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}

	resources, err := moduleBuilder(*opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	if resources == nil || resources.handlers.clean == nil {
		return fmt.Errorf("clean handler not configured")
	}

	if err := resources.handlers.clean.Execute(context.Background(), sitecmd.CleanSiteCommand{}); err != nil {
		return fmt.Errorf("execute clean command: %w", err)
	}
	log.Printf("module=site operation=clean completed")
	return nil
}

func logEnvelope(envelope sitecmd.ResultEnvelope) {
	operation := "build"
	if envelope.Metadata != nil {
		if op, ok := envelope.Metadata["operation"].(string); ok && op != "" {
			operation = op
		}
	}
	if envelope.Result == nil {
		log.Printf("module=site operation=%s completed", operation)
		return
	}
	log.Printf(
		"module=site operation=%s summary pages_built=%d pages_skipped=%d assets_built=%d feeds_built=%d dry_run=%t duration=%s",
		operation,
		envelope.Result.PagesBuilt,
		envelope.Result.PagesSkipped,
		envelope.Result.AssetsBuilt,
		envelope.Result.FeedsBuilt,
		envelope.Result.DryRun,
		envelope.Result.Duration,
	)
}
