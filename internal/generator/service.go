package generator

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/pkg/interfaces"
	urlkit "github.com/goliatone/go-urlkit"
	"github.com/google/uuid"
)

var (
	// ErrServiceDisabled indicates the generator feature is disabled.
	ErrServiceDisabled  = errors.New("generator: service disabled")
	errRendererRequired = errors.New("generator: template renderer is required")
	errPostIDRequired   = errors.New("generator: post id is required")
)

// Service describes the static site generator contract.
type Service interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
	BuildPost(ctx context.Context, postID uuid.UUID, locale string) error
	BuildAssets(ctx context.Context) error
	BuildSitemap(ctx context.Context) error
	Clean(ctx context.Context) error
}

// Config captures runtime behaviour toggles for the generator.
type Config struct {
	OutputDir       string
	BaseURL         string
	SiteTitle       string
	SiteDescription string
	CleanBuild      bool
	Incremental     bool
	CopyAssets      bool
	GenerateSitemap bool
	GenerateRobots  bool
	GenerateFeeds   bool
	Workers         int
	DefaultLocale   string
	Locales         []string
	DefaultLayout   string
	IndexLayout     string
	TagLayout       string
	Theming         ThemingConfig
	Routes          RouteConfig
}

// BuildOptions narrows the scope of a generator run. Force bypasses the
// incremental manifest and re-renders every page in scope.
type BuildOptions struct {
	Locales []string
	PostIDs []uuid.UUID
	DryRun  bool
	Force   bool
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	PagesBuilt    int
	PagesSkipped  int
	AssetsBuilt   int
	AssetsSkipped int
	FeedsBuilt    int
	Locales       []string
	Duration      time.Duration
	Rendered      []RenderedPage
	Diagnostics   []RenderDiagnostic
	Errors        []error
	DryRun        bool
	Metrics       BuildMetrics
}

// BuildMetrics breaks the wall-clock duration into build phases.
type BuildMetrics struct {
	RenderDuration  time.Duration
	PersistDuration time.Duration
	AssetDuration   time.Duration
}

// Hooks lets embedders observe build lifecycle events. Nil hooks are skipped.
type Hooks struct {
	BeforeBuild func(ctx context.Context, opts BuildOptions) error
	AfterBuild  func(ctx context.Context, opts BuildOptions, result *BuildResult) error
	AfterPage   func(ctx context.Context, page RenderedPage) error
	BeforeClean func(ctx context.Context, outputDir string) error
	AfterClean  func(ctx context.Context, outputDir string) error
}

func (h Hooks) beforeBuild(ctx context.Context, opts BuildOptions) error {
	if h.BeforeBuild == nil {
		return nil
	}
	return h.BeforeBuild(ctx, opts)
}

func (h Hooks) afterBuild(ctx context.Context, opts BuildOptions, result *BuildResult) error {
	if h.AfterBuild == nil {
		return nil
	}
	return h.AfterBuild(ctx, opts, result)
}

func (h Hooks) afterPage(ctx context.Context, page RenderedPage) error {
	if h.AfterPage == nil {
		return nil
	}
	return h.AfterPage(ctx, page)
}

func (h Hooks) beforeClean(ctx context.Context, outputDir string) error {
	if h.BeforeClean == nil {
		return nil
	}
	return h.BeforeClean(ctx, outputDir)
}

func (h Hooks) afterClean(ctx context.Context, outputDir string) error {
	if h.AfterClean == nil {
		return nil
	}
	return h.AfterClean(ctx, outputDir)
}

// Dependencies lists the services required by the generator.
type Dependencies struct {
	Posts    posts.Service
	Locales  LocaleLookup
	Renderer interfaces.TemplateRenderer
	Storage  interfaces.StorageProvider
	Assets   AssetResolver
	Routes   *urlkit.RouteManager
	Logger   interfaces.Logger
	Hooks    Hooks
}

// LocaleLookup resolves locales from configured repositories.
type LocaleLookup interface {
	GetByCode(ctx context.Context, code string) (*posts.Locale, error)
}

// NewService wires a generator implementation with the provided configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	svc := &service{
		cfg:    cfg,
		deps:   deps,
		log:    deps.Logger,
		routes: newRouteResolver(deps.Routes, cfg.Routes),
		now:    time.Now,
	}
	if svc.log == nil {
		svc.log = logging.NoOp()
	}
	if strings.TrimSpace(cfg.Theming.Dir) != "" {
		svc.themes = newThemeSelector(cfg.Theming, nil)
	}
	return svc
}

// NewDisabledService returns a Service that fails all operations with ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

type service struct {
	cfg    Config
	deps   Dependencies
	log    interfaces.Logger
	routes *routeResolver
	themes *themeSelector
	now    func() time.Time
}

type disabledService struct{}

func (s *service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.deps.Renderer == nil {
		return nil, errRendererRequired
	}

	if err := s.deps.Hooks.beforeBuild(ctx, opts); err != nil {
		return nil, fmt.Errorf("generator: before build hook: %w", err)
	}
	result, err := s.build(ctx, opts)
	if hookErr := s.deps.Hooks.afterBuild(ctx, opts, result); hookErr != nil {
		hookErr = fmt.Errorf("generator: after build hook: %w", hookErr)
		if err != nil {
			err = errors.Join(err, hookErr)
		} else {
			err = hookErr
		}
	}
	return result, err
}

func (s *service) build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	start := time.Now()
	buildCtx, err := s.loadContext(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &BuildResult{
		Locales:     make([]string, 0, len(buildCtx.Locales)),
		DryRun:      opts.DryRun,
		Diagnostics: make([]RenderDiagnostic, 0, len(buildCtx.Pages)),
	}
	for _, spec := range buildCtx.Locales {
		result.Locales = append(result.Locales, spec.Code)
	}

	siteMeta := s.siteMetadata(buildCtx)

	var (
		mu             sync.Mutex
		rendered       = make([]RenderedPage, 0, len(buildCtx.Pages))
		errorsSlice    []error
		renderDuration time.Duration
		baseDir        = strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
		pageKeys       = map[string]struct{}{}
	)

	manifest, manifestErr := s.loadManifest(ctx)
	if manifestErr != nil {
		errorsSlice = append(errorsSlice, manifestErr)
	}
	if manifest == nil {
		manifest = newBuildManifest()
	}

	writer := newArtifactWriter(s.deps.Storage)
	if s.cfg.CleanBuild && !opts.DryRun && baseDir != "" {
		if err := writer.Remove(ctx, baseDir); err != nil {
			errorsSlice = append(errorsSlice, fmt.Errorf("generator: clean output: %w", err))
		} else {
			manifest = newBuildManifest()
		}
	}

	collect := func(outcome renderOutcome) {
		mu.Lock()
		defer mu.Unlock()
		result.Diagnostics = append(result.Diagnostics, outcome.diagnostic)
		renderDuration += outcome.diagnostic.Duration
		if outcome.diagnostic.ID != uuid.Nil {
			key := manifest.pageKey(outcome.diagnostic.ID, outcome.diagnostic.Locale)
			if key != "" {
				pageKeys[key] = struct{}{}
			}
		}
		if outcome.err != nil {
			errorsSlice = append(errorsSlice, outcome.err)
			return
		}
		if outcome.skipped {
			result.PagesSkipped++
			return
		}
		result.PagesBuilt++
		if !opts.DryRun {
			rendered = append(rendered, outcome.page)
		}
	}

	workerCount := s.effectiveWorkerCount(len(buildCtx.Locales))
	if workerCount <= 1 || len(buildCtx.Pages) <= 1 {
		for _, page := range buildCtx.Pages {
			select {
			case <-ctx.Done():
				collect(renderOutcome{
					diagnostic: RenderDiagnostic{
						ID:     page.ID,
						Kind:   page.Kind,
						Locale: page.Locale.Code,
						Route:  page.Route,
						Err:    ctx.Err(),
					},
					err: ctx.Err(),
				})
				return result, ctx.Err()
			default:
				outcome := s.renderPage(ctx, siteMeta, buildCtx, page, manifest, baseDir)
				collect(outcome)
			}
		}
	} else {
		if err := s.renderConcurrently(ctx, siteMeta, buildCtx, workerCount, manifest, baseDir, collect); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}
	result.Metrics.RenderDuration = renderDuration

	if opts.DryRun {
		result.Rendered = rendered
		result.Duration = time.Since(start)
		if len(errorsSlice) > 0 {
			result.Errors = append(result.Errors, errorsSlice...)
			return result, errors.Join(errorsSlice...)
		}
		return result, nil
	}

	persistStart := time.Now()
	if err := s.persistPages(ctx, writer, buildCtx, rendered); err != nil {
		errorsSlice = append(errorsSlice, err)
	}
	result.Metrics.PersistDuration = time.Since(persistStart)

	assetSummary := assetCopySummary{Keys: map[string]struct{}{}}
	if s.cfg.CopyAssets {
		assetStart := time.Now()
		assetSummary, err = s.copyAssets(ctx, writer, buildCtx, manifest, baseDir)
		if err != nil {
			errorsSlice = append(errorsSlice, err)
		} else {
			result.AssetsBuilt += assetSummary.Built
			result.AssetsSkipped += assetSummary.Skipped
		}
		result.Metrics.AssetDuration = time.Since(assetStart)
	}

	if s.cfg.GenerateSitemap {
		sitemapPages := s.mergeRenderedForSitemap(buildCtx, rendered, manifest)
		if err := s.writeSitemap(ctx, writer, siteMeta, buildCtx, sitemapPages); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if s.cfg.GenerateRobots {
		if err := s.writeRobots(ctx, writer, siteMeta); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if s.cfg.GenerateFeeds && fullBuild(opts) {
		docs := s.buildFeedDocuments(buildCtx)
		written, err := s.writeFeeds(ctx, writer, siteMeta, buildCtx, docs)
		if err != nil {
			errorsSlice = append(errorsSlice, err)
		}
		result.FeedsBuilt += written
	}

	if len(errorsSlice) == 0 {
		manifest.GeneratedAt = buildCtx.GeneratedAt
		for _, page := range rendered {
			if page.ID == uuid.Nil || strings.TrimSpace(page.Checksum) == "" {
				continue
			}
			manifest.setPage(manifestPage{
				PageID:       page.ID.String(),
				Kind:         string(page.Kind),
				Locale:       page.Locale,
				Route:        page.Route,
				Output:       page.Output,
				Template:     page.Template,
				Hash:         page.Metadata.Hash,
				Checksum:     page.Checksum,
				LastModified: page.Metadata.LastModified,
				RenderedAt:   buildCtx.GeneratedAt,
			})
		}
		if fullBuild(opts) {
			manifest.prunePages(pageKeys)
			if s.cfg.CopyAssets && s.deps.Assets != nil {
				manifest.pruneAssets(assetSummary.Keys)
			}
		}
		if err := s.persistManifest(ctx, writer, manifest); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	result.Rendered = rendered
	result.Duration = time.Since(start)
	if len(errorsSlice) > 0 {
		result.Errors = append(result.Errors, errorsSlice...)
		s.log.Error("static build finished with errors",
			"pages_built", result.PagesBuilt,
			"errors", len(errorsSlice),
			"duration", result.Duration.String(),
		)
		return result, errors.Join(errorsSlice...)
	}
	s.log.Info("static build finished",
		"pages_built", result.PagesBuilt,
		"pages_skipped", result.PagesSkipped,
		"assets_built", result.AssetsBuilt,
		"feeds_built", result.FeedsBuilt,
		"duration", result.Duration.String(),
	)
	return result, nil
}

func (s *service) renderConcurrently(
	ctx context.Context,
	siteMeta SiteMetadata,
	buildCtx *BuildContext,
	workers int,
	manifest *buildManifest,
	baseDir string,
	collect func(renderOutcome),
) error {
	grouped := groupPagesByLocale(buildCtx.Pages)
	if len(grouped) == 0 {
		return nil
	}

	jobs := make(chan []*PageData)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range jobs {
				for _, page := range batch {
					select {
					case <-ctx.Done():
						collect(renderOutcome{
							diagnostic: RenderDiagnostic{
								ID:     page.ID,
								Kind:   page.Kind,
								Locale: page.Locale.Code,
								Route:  page.Route,
								Err:    ctx.Err(),
							},
							err: ctx.Err(),
						})
						return
					default:
						outcome := s.renderPage(ctx, siteMeta, buildCtx, page, manifest, baseDir)
						collect(outcome)
					}
				}
			}
		}()
	}

	for _, locale := range buildCtx.Locales {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- grouped[locale.Code]:
		}
	}
	close(jobs)
	wg.Wait()
	return nil
}

func (s *service) renderPage(
	ctx context.Context,
	siteMeta SiteMetadata,
	buildCtx *BuildContext,
	data *PageData,
	manifest *buildManifest,
	baseDir string,
) renderOutcome {
	outcome := renderOutcome{
		diagnostic: RenderDiagnostic{
			ID:     data.ID,
			Kind:   data.Kind,
			Locale: data.Locale.Code,
			Route:  data.Route,
		},
	}

	select {
	case <-ctx.Done():
		outcome.err = ctx.Err()
		outcome.diagnostic.Err = ctx.Err()
		return outcome
	default:
	}

	templateName := data.Layout
	if buildCtx.Theme != nil {
		templateName = buildCtx.Theme.Template(data.Layout, data.Layout)
	}
	templateName = strings.TrimSpace(templateName)
	if templateName == "" {
		templateName = data.Layout
	}
	outcome.diagnostic.Template = templateName

	if s.cfg.Incremental && !buildCtx.Options.Force && manifest != nil {
		destRel := buildOutputPath(data.Route, data.Locale.Code, buildCtx.DefaultLocale)
		expectedOutput := joinOutputPath(baseDir, destRel)
		if manifest.shouldSkipPage(data.ID, data.Locale.Code, data.Metadata.Hash, expectedOutput) {
			outcome.skipped = true
			outcome.diagnostic.Skipped = true
			return outcome
		}
	}

	templateCtx := TemplateContext{
		Site: siteMeta,
		Page: PageRenderingContext{
			Kind:     data.Kind,
			Post:     data.Post,
			Posts:    data.Posts,
			Tag:      data.Tag,
			Locale:   data.Locale,
			Route:    data.Route,
			Metadata: data.Metadata,
		},
		Build: BuildMetadata{
			GeneratedAt: buildCtx.GeneratedAt,
			Options:     buildCtx.Options,
		},
		Theme:   buildThemeContext(buildCtx.Theme, s.cfg.Theming),
		Helpers: newTemplateHelpers(siteMeta.DefaultLocale, data.Locale, siteMeta.BaseURL),
	}

	start := time.Now()
	rendered, err := s.deps.Renderer.RenderTemplate(templateName, templateCtx)
	duration := time.Since(start)
	outcome.diagnostic.Duration = duration
	if err != nil {
		wrapped := fmt.Errorf("generator: render template %q for page %s (%s): %w", templateName, data.ID, data.Locale.Code, err)
		outcome.err = wrapped
		outcome.diagnostic.Err = wrapped
		return outcome
	}

	outcome.page = RenderedPage{
		ID:       data.ID,
		Kind:     data.Kind,
		Locale:   data.Locale.Code,
		Route:    data.Route,
		Template: templateName,
		HTML:     rendered,
		Metadata: data.Metadata,
		Duration: duration,
	}
	return outcome
}

func (s *service) persistPages(
	ctx context.Context,
	writer artifactWriter,
	buildCtx *BuildContext,
	pages []RenderedPage,
) error {
	if len(pages) == 0 {
		return nil
	}
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	dirCache := map[string]struct{}{}
	if baseDir != "" {
		dirCache[baseDir] = struct{}{}
		if err := writer.EnsureDir(ctx, baseDir); err != nil {
			return err
		}
	}
	for i := range pages {
		route := pages[i].Route
		destRel := buildOutputPath(route, pages[i].Locale, buildCtx.DefaultLocale)
		if strings.TrimSpace(destRel) == "" {
			destRel = "index.html"
		}
		fullPath := joinOutputPath(baseDir, destRel)
		if err := ensureDir(ctx, writer, dirCache, path.Dir(fullPath)); err != nil {
			return err
		}
		checksum := computeHashFromString(pages[i].HTML)
		pages[i].Output = fullPath
		pages[i].Checksum = checksum

		metadata := map[string]string{
			"page_id":  pages[i].ID.String(),
			"kind":     string(pages[i].Kind),
			"route":    route,
			"template": pages[i].Template,
		}
		if s.cfg.Incremental {
			metadata["incremental"] = "true"
		}
		req := writeFileRequest{
			Path:        fullPath,
			Content:     strings.NewReader(pages[i].HTML),
			Size:        int64(len(pages[i].HTML)),
			Locale:      pages[i].Locale,
			Category:    categoryPage,
			ContentType: "text/html; charset=utf-8",
			Checksum:    checksum,
			Metadata:    metadata,
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return err
		}
		if err := s.deps.Hooks.afterPage(ctx, pages[i]); err != nil {
			return fmt.Errorf("generator: after page hook: %w", err)
		}
	}
	return nil
}

type assetCopySummary struct {
	Built   int
	Skipped int
	Keys    map[string]struct{}
}

func (s *service) copyAssets(
	ctx context.Context,
	writer artifactWriter,
	buildCtx *BuildContext,
	manifest *buildManifest,
	baseDir string,
) (assetCopySummary, error) {
	summary := assetCopySummary{Keys: map[string]struct{}{}}
	if s.deps.Assets == nil {
		return summary, nil
	}
	selection := buildCtx.Theme
	if selection == nil || selection.Manifest == nil {
		return summary, nil
	}
	if strings.TrimSpace(baseDir) == "" {
		baseDir = strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	}
	dirCache := map[string]struct{}{}
	if baseDir != "" {
		dirCache[baseDir] = struct{}{}
		if err := writer.EnsureDir(ctx, baseDir); err != nil {
			return summary, err
		}
	}

	themeName := strings.TrimSpace(selection.Theme)
	if themeName == "" {
		themeName = selection.Manifest.Name
	}
	for _, asset := range collectThemeAssets(selection) {
		key := manifest.assetKey(themeName, asset)
		if _, ok := summary.Keys[key]; ok {
			continue
		}
		summary.Keys[key] = struct{}{}

		reader, err := s.deps.Assets.Open(ctx, asset)
		if err != nil {
			return summary, err
		}
		data, err := io.ReadAll(reader)
		_ = reader.Close()
		if err != nil {
			return summary, err
		}
		resolved, err := s.deps.Assets.ResolvePath(asset)
		if err != nil {
			return summary, err
		}
		resolved = strings.TrimLeft(strings.TrimSpace(resolved), "/")
		if resolved == "" {
			resolved = strings.TrimLeft(strings.TrimSpace(asset), "/")
		}
		destRel := path.Join("assets", resolved)
		fullPath := joinOutputPath(baseDir, destRel)
		checksum := computeHash(data)
		if s.cfg.Incremental && !buildCtx.Options.Force && manifest.shouldSkipAsset(themeName, asset, checksum, fullPath) {
			summary.Skipped++
			continue
		}
		if err := ensureDir(ctx, writer, dirCache, path.Dir(fullPath)); err != nil {
			return summary, err
		}
		metadata := map[string]string{
			"theme": themeName,
			"asset": asset,
		}
		req := writeFileRequest{
			Path:        fullPath,
			Content:     bytes.NewReader(data),
			Size:        int64(len(data)),
			Locale:      "",
			Category:    categoryAsset,
			ContentType: detectAssetContentType(destRel),
			Checksum:    checksum,
			Metadata:    metadata,
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return summary, err
		}
		summary.Built++
		manifest.setAsset(manifestAsset{
			Key:      key,
			Theme:    themeName,
			Source:   asset,
			Output:   fullPath,
			Checksum: checksum,
			Size:     int64(len(data)),
			CopiedAt: s.now(),
		})
	}
	return summary, nil
}

// mergeRenderedForSitemap folds the current render output with manifest state
// so sitemaps stay complete when a build only touched part of the site.
func (s *service) mergeRenderedForSitemap(
	buildCtx *BuildContext,
	rendered []RenderedPage,
	manifest *buildManifest,
) []RenderedPage {
	if buildCtx == nil || manifest == nil {
		return append([]RenderedPage(nil), rendered...)
	}

	renderedByKey := make(map[string]RenderedPage, len(rendered))
	for _, page := range rendered {
		key := manifest.pageKey(page.ID, page.Locale)
		renderedByKey[key] = page
	}

	seen := make(map[string]struct{}, len(buildCtx.Pages))
	sitemap := make([]RenderedPage, 0, len(buildCtx.Pages))
	for _, data := range buildCtx.Pages {
		key := manifest.pageKey(data.ID, data.Locale.Code)
		seen[key] = struct{}{}
		if page, ok := renderedByKey[key]; ok {
			sitemap = append(sitemap, page)
			continue
		}
		if entry, ok := manifest.lookupPage(data.ID, data.Locale.Code); ok {
			sitemap = append(sitemap, RenderedPage{
				ID:       data.ID,
				Kind:     data.Kind,
				Locale:   data.Locale.Code,
				Route:    entry.Route,
				Output:   entry.Output,
				Template: entry.Template,
				Metadata: DependencyMetadata{
					Hash:         entry.Hash,
					LastModified: entry.LastModified,
				},
				Checksum: entry.Checksum,
			})
			continue
		}
		sitemap = append(sitemap, RenderedPage{
			ID:       data.ID,
			Kind:     data.Kind,
			Locale:   data.Locale.Code,
			Route:    data.Route,
			Template: data.Layout,
			Metadata: data.Metadata,
		})
	}

	// Subset builds only carry the requested pages; the rest of the site comes
	// from the manifest.
	if !fullBuild(buildCtx.Options) {
		extraKeys := make([]string, 0, len(manifest.Pages))
		for key := range manifest.Pages {
			if _, ok := seen[key]; ok {
				continue
			}
			extraKeys = append(extraKeys, key)
		}
		sort.Strings(extraKeys)
		for _, key := range extraKeys {
			entry := manifest.Pages[key]
			id, err := uuid.Parse(entry.PageID)
			if err != nil {
				continue
			}
			sitemap = append(sitemap, RenderedPage{
				ID:       id,
				Kind:     PageKind(entry.Kind),
				Locale:   entry.Locale,
				Route:    entry.Route,
				Output:   entry.Output,
				Template: entry.Template,
				Metadata: DependencyMetadata{
					Hash:         entry.Hash,
					LastModified: entry.LastModified,
				},
				Checksum: entry.Checksum,
			})
		}
	}
	return sitemap
}

func (s *service) loadManifest(ctx context.Context) (*buildManifest, error) {
	if s.deps.Storage == nil {
		return newBuildManifest(), nil
	}
	target := s.manifestTargetPath()
	if strings.TrimSpace(target) == "" {
		return newBuildManifest(), nil
	}
	rows, err := s.deps.Storage.Query(ctx, storageOpRead, target)
	if err != nil {
		return nil, fmt.Errorf("generator: read manifest: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return newBuildManifest(), nil
	}
	var data []byte
	if err := rows.Scan(&data); err != nil {
		return nil, fmt.Errorf("generator: scan manifest: %w", err)
	}
	manifest, err := parseManifest(data)
	if err != nil {
		return nil, err
	}
	return manifest, nil
}

func (s *service) manifestTargetPath() string {
	base := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	return joinOutputPath(base, manifestFileName)
}

func (s *service) persistManifest(ctx context.Context, writer artifactWriter, manifest *buildManifest) error {
	if manifest == nil {
		return nil
	}
	data, err := manifest.marshal()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	target := s.manifestTargetPath()
	if strings.TrimSpace(target) == "" {
		return nil
	}
	dirCache := map[string]struct{}{}
	if err := ensureDir(ctx, writer, dirCache, path.Dir(target)); err != nil {
		return err
	}
	metadata := map[string]string{
		"version": strconv.Itoa(manifest.Version),
	}
	if !manifest.GeneratedAt.IsZero() {
		metadata["generated_at"] = manifest.GeneratedAt.UTC().Format(time.RFC3339)
	}
	req := writeFileRequest{
		Path:        target,
		Content:     bytes.NewReader(data),
		Size:        int64(len(data)),
		Category:    categoryManifest,
		ContentType: "application/json",
		Checksum:    computeHash(data),
		Metadata:    metadata,
	}
	return writer.WriteFile(ctx, req)
}

func (s *service) writeSitemap(
	ctx context.Context,
	writer artifactWriter,
	siteMeta SiteMetadata,
	buildCtx *BuildContext,
	pages []RenderedPage,
) error {
	content := buildSitemap(siteMeta.BaseURL, pages, buildCtx.GeneratedAt)
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	fullPath := joinOutputPath(baseDir, "sitemap.xml")
	if err := ensureDir(ctx, writer, map[string]struct{}{}, path.Dir(fullPath)); err != nil {
		return err
	}
	checksum := computeHashFromString(content)
	req := writeFileRequest{
		Path:        fullPath,
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    categorySitemap,
		ContentType: "application/xml",
		Checksum:    checksum,
		Metadata: map[string]string{
			"generated_at": buildCtx.GeneratedAt.UTC().Format(time.RFC3339),
		},
	}
	return writer.WriteFile(ctx, req)
}

func (s *service) writeRobots(
	ctx context.Context,
	writer artifactWriter,
	siteMeta SiteMetadata,
) error {
	content := buildRobots(siteMeta.BaseURL, s.cfg.GenerateSitemap)
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	fullPath := joinOutputPath(baseDir, "robots.txt")
	if err := ensureDir(ctx, writer, map[string]struct{}{}, path.Dir(fullPath)); err != nil {
		return err
	}
	checksum := computeHashFromString(content)
	req := writeFileRequest{
		Path:        fullPath,
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    categoryRobots,
		ContentType: "text/plain; charset=utf-8",
		Checksum:    checksum,
		Metadata: map[string]string{
			"generated_at": s.now().UTC().Format(time.RFC3339),
		},
	}
	return writer.WriteFile(ctx, req)
}

func (s *service) siteMetadata(buildCtx *BuildContext) SiteMetadata {
	return SiteMetadata{
		BaseURL:       strings.TrimRight(s.cfg.BaseURL, "/"),
		Title:         strings.TrimSpace(s.cfg.SiteTitle),
		Description:   strings.TrimSpace(s.cfg.SiteDescription),
		DefaultLocale: buildCtx.DefaultLocale,
		Locales:       append([]LocaleSpec(nil), buildCtx.Locales...),
		Metadata:      map[string]any{},
	}
}

func (s *service) effectiveWorkerCount(localeCount int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if localeCount > 0 && workers > localeCount {
		return localeCount
	}
	return workers
}

func fullBuild(opts BuildOptions) bool {
	return len(opts.PostIDs) == 0 && len(opts.Locales) == 0
}

func groupPagesByLocale(pages []*PageData) map[string][]*PageData {
	grouped := make(map[string][]*PageData, len(pages))
	for _, page := range pages {
		if page == nil {
			continue
		}
		code := page.Locale.Code
		grouped[code] = append(grouped[code], page)
	}
	return grouped
}

func ensureDir(ctx context.Context, writer artifactWriter, cache map[string]struct{}, dir string) error {
	dir = strings.Trim(dir, " ")
	if dir == "" || dir == "." {
		return nil
	}
	if cache != nil {
		if _, ok := cache[dir]; ok {
			return nil
		}
		cache[dir] = struct{}{}
	}
	return writer.EnsureDir(ctx, dir)
}

func joinOutputPath(base string, rel string) string {
	if strings.TrimSpace(base) == "" {
		return strings.TrimLeft(rel, "/")
	}
	return path.Join(strings.Trim(base, "/"), rel)
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func computeHashFromString(content string) string {
	return computeHash([]byte(content))
}

// BuildPost rebuilds a single post, bypassing the incremental manifest.
// An empty locale rebuilds the post for every configured locale.
func (s *service) BuildPost(ctx context.Context, postID uuid.UUID, locale string) error {
	if postID == uuid.Nil {
		return errPostIDRequired
	}
	opts := BuildOptions{PostIDs: []uuid.UUID{postID}, Force: true}
	if code := strings.TrimSpace(locale); code != "" {
		opts.Locales = []string{code}
	}
	_, err := s.Build(ctx, opts)
	return err
}

// BuildAssets copies the selected theme's assets without rendering pages.
func (s *service) BuildAssets(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := BuildOptions{Force: true}
	if err := s.deps.Hooks.beforeBuild(ctx, opts); err != nil {
		return fmt.Errorf("generator: before build hook: %w", err)
	}
	result := &BuildResult{}
	err := s.buildAssetsOnly(ctx, opts, result)
	if hookErr := s.deps.Hooks.afterBuild(ctx, opts, result); hookErr != nil {
		hookErr = fmt.Errorf("generator: after build hook: %w", hookErr)
		if err != nil {
			err = errors.Join(err, hookErr)
		} else {
			err = hookErr
		}
	}
	return err
}

func (s *service) buildAssetsOnly(ctx context.Context, opts BuildOptions, result *BuildResult) error {
	if s.deps.Assets == nil {
		return nil
	}
	buildCtx := &BuildContext{GeneratedAt: s.now(), Options: opts}
	if s.themes != nil {
		selection, err := s.themes.Selection("")
		if err != nil {
			return fmt.Errorf("generator: resolve theme: %w", err)
		}
		buildCtx.Theme = selection
	}
	manifest, err := s.loadManifest(ctx)
	if err != nil {
		return err
	}
	if manifest == nil {
		manifest = newBuildManifest()
	}
	writer := newArtifactWriter(s.deps.Storage)
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	summary, err := s.copyAssets(ctx, writer, buildCtx, manifest, baseDir)
	if err != nil {
		return err
	}
	result.AssetsBuilt = summary.Built
	result.AssetsSkipped = summary.Skipped
	return s.persistManifest(ctx, writer, manifest)
}

// BuildSitemap regenerates sitemap.xml from current content and manifest state.
func (s *service) BuildSitemap(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := BuildOptions{}
	buildCtx, err := s.loadContext(ctx, opts)
	if err != nil {
		return err
	}
	manifest, err := s.loadManifest(ctx)
	if err != nil {
		return err
	}
	if manifest == nil {
		manifest = newBuildManifest()
	}
	writer := newArtifactWriter(s.deps.Storage)
	pages := s.mergeRenderedForSitemap(buildCtx, nil, manifest)
	return s.writeSitemap(ctx, writer, s.siteMetadata(buildCtx), buildCtx, pages)
}

// Clean removes the output directory contents, including the build manifest.
func (s *service) Clean(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	if err := s.deps.Hooks.beforeClean(ctx, baseDir); err != nil {
		return fmt.Errorf("generator: before clean hook: %w", err)
	}
	writer := newArtifactWriter(s.deps.Storage)
	err := writer.Remove(ctx, baseDir)
	if hookErr := s.deps.Hooks.afterClean(ctx, baseDir); hookErr != nil {
		hookErr = fmt.Errorf("generator: after clean hook: %w", hookErr)
		if err != nil {
			err = errors.Join(err, hookErr)
		} else {
			err = hookErr
		}
	}
	return err
}

func (disabledService) Build(context.Context, BuildOptions) (*BuildResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) BuildPost(context.Context, uuid.UUID, string) error {
	return ErrServiceDisabled
}

func (disabledService) BuildAssets(context.Context) error {
	return ErrServiceDisabled
}

func (disabledService) BuildSitemap(context.Context) error {
	return ErrServiceDisabled
}

func (disabledService) Clean(context.Context) error {
	return ErrServiceDisabled
}
