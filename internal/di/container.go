// Package di wires the module's services from a runtime configuration. The
// container starts from in-memory defaults so embedding a blog requires no
// infrastructure, and swaps in bun-backed repositories, caches and providers
// as the host supplies them.
package di

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/goliatone/go-press/internal/adapters/noop"
	storageadapter "github.com/goliatone/go-press/internal/adapters/storage"
	"github.com/goliatone/go-press/internal/generator"
	"github.com/goliatone/go-press/internal/jobs"
	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/internal/logging/console"
	"github.com/goliatone/go-press/internal/logging/gologger"
	"github.com/goliatone/go-press/internal/markdown"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/internal/runtimeconfig"
	pressschema "github.com/goliatone/go-press/internal/schema"
	pressscheduler "github.com/goliatone/go-press/internal/scheduler"
	"github.com/goliatone/go-press/internal/validation"
	"github.com/goliatone/go-press/pkg/activity"
	"github.com/goliatone/go-press/pkg/activity/usersink"
	"github.com/goliatone/go-press/pkg/interfaces"
	repocache "github.com/goliatone/go-repository-cache/cache"
	urlkit "github.com/goliatone/go-urlkit"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Container wires module dependencies.
type Container struct {
	Config runtimeconfig.Config

	generatorStorage interfaces.StorageProvider
	template         interfaces.TemplateRenderer

	bunDB         *bun.DB
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	loggerProvider interfaces.LoggerProvider
	scheduler      interfaces.Scheduler
	activitySink   usersink.Sink
	activityHooks  activity.Hooks
	emitter        *activity.Emitter

	postRepo         posts.PostRepository
	localeRepo       posts.LocaleRepository
	memoryLocaleRepo *posts.MemoryLocaleRepository

	routeManager *urlkit.RouteManager

	markdownFS fs.FS

	auditRecorder jobs.AuditRecorder

	postSvc      posts.Service
	markdownSvc  interfaces.MarkdownService
	generatorSvc generator.Service
	worker       *jobs.Worker
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB supplies the shared database handle. Repositories switch from the
// in-memory defaults to bun-backed implementations.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the default repository cache bindings.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithTemplate overrides the template renderer handed to the generator.
func WithTemplate(tr interfaces.TemplateRenderer) Option {
	return func(c *Container) {
		c.template = tr
	}
}

// WithGeneratorStorage overrides the storage provider generated artifacts are
// written through.
func WithGeneratorStorage(sp interfaces.StorageProvider) Option {
	return func(c *Container) {
		c.generatorStorage = sp
	}
}

// WithLoggerProvider overrides the logger provider derived from configuration.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithScheduler overrides the scheduler implementation backing timed
// publication.
func WithScheduler(sched interfaces.Scheduler) Option {
	return func(c *Container) {
		c.scheduler = sched
	}
}

// WithActivitySink forwards activity events to a go-users activity logger.
func WithActivitySink(sink usersink.Sink) Option {
	return func(c *Container) {
		c.activitySink = sink
	}
}

// WithActivityHook registers an additional activity hook.
func WithActivityHook(hook activity.Hook) Option {
	return func(c *Container) {
		if hook != nil {
			c.activityHooks = append(c.activityHooks, hook)
		}
	}
}

// WithAuditRecorder overrides where the scheduler worker records lifecycle
// audit entries.
func WithAuditRecorder(recorder jobs.AuditRecorder) Option {
	return func(c *Container) {
		c.auditRecorder = recorder
	}
}

// WithPostRepository overrides the post repository binding.
func WithPostRepository(repo posts.PostRepository) Option {
	return func(c *Container) {
		c.postRepo = repo
	}
}

// WithLocaleRepository overrides the locale repository binding.
func WithLocaleRepository(repo posts.LocaleRepository) Option {
	return func(c *Container) {
		c.localeRepo = repo
		c.memoryLocaleRepo = nil
	}
}

// WithPostService overrides the default post service binding.
func WithPostService(svc posts.Service) Option {
	return func(c *Container) {
		c.postSvc = svc
	}
}

// WithMarkdownService overrides the default markdown service binding.
func WithMarkdownService(svc interfaces.MarkdownService) Option {
	return func(c *Container) {
		c.markdownSvc = svc
	}
}

// WithGeneratorService overrides the default generator binding.
func WithGeneratorService(svc generator.Service) Option {
	return func(c *Container) {
		c.generatorSvc = svc
	}
}

// WithMarkdownFilesystem overrides the filesystem markdown content is loaded
// from. Useful for embedded content and tests.
func WithMarkdownFilesystem(fsys fs.FS) Option {
	return func(c *Container) {
		c.markdownFS = fsys
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.DefaultTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	memoryPostRepo := posts.NewMemoryPostRepository()
	memoryLocaleRepo := posts.NewMemoryLocaleRepository()

	c := &Container{
		Config:           cfg,
		generatorStorage: storageadapter.NewNoOpProvider(),
		template:         noop.Template(),
		cacheTTL:         cacheTTL,
		postRepo:         memoryPostRepo,
		localeRepo:       memoryLocaleRepo,
		memoryLocaleRepo: memoryLocaleRepo,
	}

	c.seedLocales()

	for _, opt := range opts {
		opt(c)
	}

	if err := c.configureLogging(); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	c.configureRepositories()
	c.configureNavigation()
	c.configureScheduler()
	c.configureActivity()

	if err := c.configureServices(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Container) configureLogging() error {
	if c.loggerProvider != nil {
		return nil
	}

	logCfg := c.Config.Logging
	provider := strings.ToLower(strings.TrimSpace(logCfg.Provider))
	if c.Config.Features.Logger && provider == "gologger" {
		p, err := gologger.NewProvider(gologger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Focus:     logCfg.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: configure logging: %w", err)
		}
		c.loggerProvider = p
		return nil
	}

	c.loggerProvider = console.NewProvider(console.Options{})
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRepositories() {
	if c.bunDB == nil {
		return
	}
	c.postRepo = posts.NewBunPostRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	c.localeRepo = posts.NewBunLocaleRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	c.memoryLocaleRepo = nil
}

func (c *Container) configureNavigation() {
	if c.routeManager != nil {
		return
	}
	navCfg := c.Config.Navigation
	if navCfg.RouteConfig == nil {
		return
	}
	c.routeManager = urlkit.NewRouteManager(navCfg.RouteConfig)
}

func (c *Container) configureScheduler() {
	if c.scheduler != nil {
		return
	}
	if c.Config.Features.Scheduling {
		c.scheduler = pressscheduler.NewInMemory()
		return
	}
	c.scheduler = pressscheduler.NewNoOp()
}

func (c *Container) configureActivity() {
	hooks := activity.Hooks{}
	if c.activitySink != nil {
		hooks = append(hooks, usersink.Hook{Sink: c.activitySink})
	}
	hooks = append(hooks, c.activityHooks...)

	c.emitter = activity.NewEmitter(hooks, activity.Config{
		Enabled: c.Config.Features.Activity,
		Channel: "press",
	})
}

func (c *Container) configureServices() error {
	if c.postSvc == nil {
		c.postSvc = posts.NewService(
			c.postRepo,
			c.localeRepo,
			posts.WithVersioningEnabled(c.Config.Features.Versioning),
			posts.WithVersionRetentionLimit(c.Config.Retention.Posts),
			posts.WithScheduler(c.scheduler),
			posts.WithSchedulingEnabled(c.Config.Features.Scheduling),
			posts.WithActivityEmitter(c.emitter),
			posts.WithLogger(logging.PostsLogger(c.loggerProvider)),
		)
	}

	if c.markdownSvc == nil && c.Config.Features.Markdown {
		svc, err := c.buildMarkdownService()
		if err != nil {
			return err
		}
		c.markdownSvc = svc
	}

	if c.generatorSvc == nil {
		if !c.Config.Features.Generator {
			c.generatorSvc = generator.NewDisabledService()
		} else {
			c.generatorSvc = c.buildGeneratorService()
		}
	}

	if c.Config.Features.Scheduling {
		if c.auditRecorder == nil {
			c.auditRecorder = jobs.NewInMemoryAuditRecorder()
		}
		c.worker = jobs.NewWorker(
			c.scheduler,
			c.postRepo,
			jobs.WithAuditRecorder(c.auditRecorder),
			jobs.WithActivityEmitter(c.emitter),
		)
	}

	return nil
}

func (c *Container) buildMarkdownService() (*markdown.Service, error) {
	contentCfg := c.Config.Content
	mdCfg := markdown.Config{
		BasePath:       contentCfg.Dir,
		DefaultLocale:  c.Config.DefaultLocale,
		Locales:        c.Config.I18N.Locales,
		LocalePatterns: contentCfg.LocalePatterns,
		Pattern:        contentCfg.Pattern,
		Recursive:      contentCfg.Recursive,
		AcceptForeign:  contentCfg.ForeignFormats,
		Parser: interfaces.ParseOptions{
			Extensions: contentCfg.Parser.Extensions,
			Sanitize:   contentCfg.Parser.Sanitize,
			HardWraps:  contentCfg.Parser.HardWraps,
			SafeMode:   contentCfg.Parser.SafeMode,
		},
	}

	mdOpts := []markdown.ServiceOption{
		markdown.WithPostService(c.postSvc),
		markdown.WithLogger(logging.MarkdownLogger(c.loggerProvider)),
		markdown.WithMetadataValidator(validation.PayloadValidator{
			Schema: pressschema.PostMetadataSchema(),
		}),
	}
	if c.markdownFS != nil {
		mdOpts = append(mdOpts, markdown.WithFilesystem(c.markdownFS))
	}

	svc, err := markdown.NewService(mdCfg, nil, mdOpts...)
	if err != nil {
		return nil, fmt.Errorf("di: configure markdown: %w", err)
	}
	return svc, nil
}

func (c *Container) buildGeneratorService() generator.Service {
	genCfg := c.Config.Generator
	cfg := generator.Config{
		OutputDir:       genCfg.OutputDir,
		BaseURL:         genCfg.BaseURL,
		SiteTitle:       genCfg.SiteTitle,
		SiteDescription: genCfg.SiteDescription,
		CleanBuild:      genCfg.CleanBuild,
		Incremental:     genCfg.Incremental,
		CopyAssets:      genCfg.CopyAssets,
		GenerateSitemap: genCfg.GenerateSitemap,
		GenerateRobots:  genCfg.GenerateRobots,
		GenerateFeeds:   genCfg.GenerateFeeds,
		Workers:         genCfg.Workers,
		DefaultLocale:   c.Config.DefaultLocale,
		Locales:         c.Config.I18N.Locales,
		DefaultLayout:   genCfg.DefaultLayout,
		IndexLayout:     genCfg.IndexLayout,
		TagLayout:       genCfg.TagLayout,
		Theming: generator.ThemingConfig{
			Dir:          genCfg.ThemesDir,
			DefaultTheme: genCfg.DefaultTheme,
		},
		Routes: generator.RouteConfig{
			Group:        genCfg.Routes.Group,
			LocaleGroups: genCfg.Routes.LocaleGroups,
			PostRoute:    genCfg.Routes.PostRoute,
			TagRoute:     genCfg.Routes.TagRoute,
			HomeRoute:    genCfg.Routes.HomeRoute,
			SlugParam:    genCfg.Routes.SlugParam,
		},
	}

	return generator.NewService(cfg, generator.Dependencies{
		Posts:    c.postSvc,
		Locales:  c.localeRepo,
		Renderer: c.template,
		Storage:  c.generatorStorage,
		Routes:   c.routeManager,
		Logger:   logging.GeneratorLogger(c.loggerProvider),
	})
}

func (c *Container) seedLocales() {
	if c.memoryLocaleRepo == nil {
		return
	}

	locales := c.Config.I18N.Locales
	if len(locales) == 0 {
		locales = []string{c.Config.DefaultLocale}
	}

	seen := map[string]struct{}{}
	for _, code := range locales {
		normalized := strings.TrimSpace(code)
		if normalized == "" {
			continue
		}
		lower := strings.ToLower(normalized)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		c.memoryLocaleRepo.Put(&posts.Locale{
			ID:        uuid.New(),
			Code:      lower,
			Display:   normalized,
			IsActive:  true,
			IsDefault: strings.EqualFold(normalized, c.Config.DefaultLocale),
		})
	}
}

// RegisterSchemaProjections projects the post metadata schema into the
// supplied registry. A nil registry defaults to the process-wide go-crud
// registry so hosts running go-crud expose the content shape automatically.
func (c *Container) RegisterSchemaProjections(ctx context.Context, registry pressschema.Registry) error {
	if registry == nil {
		registry = pressschema.CrudRegistry{Resource: "post"}
	}
	projection, err := pressschema.ProjectToOpenAPI(
		"post-metadata",
		"Post Metadata",
		pressschema.PostMetadataSchema(),
		pressschema.DefaultVersion("post-metadata"),
	)
	if err != nil {
		return err
	}
	return pressschema.RegisterProjections(ctx, registry, []*pressschema.Projection{projection})
}

// LoggerProvider exposes the configured logging provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// StorageProvider exposes the storage implementation backing the generator.
func (c *Container) StorageProvider() interfaces.StorageProvider {
	return c.generatorStorage
}

// TemplateRenderer exposes the configured template renderer.
func (c *Container) TemplateRenderer() interfaces.TemplateRenderer {
	return c.template
}

// Scheduler exposes the configured scheduler.
func (c *Container) Scheduler() interfaces.Scheduler {
	return c.scheduler
}

// ActivityEmitter exposes the configured activity emitter.
func (c *Container) ActivityEmitter() *activity.Emitter {
	return c.emitter
}

// AuditRecorder exposes where the worker records lifecycle audit entries.
// Nil unless scheduling is enabled or an override was supplied.
func (c *Container) AuditRecorder() jobs.AuditRecorder {
	return c.auditRecorder
}

// PostRepository exposes the configured post repository.
func (c *Container) PostRepository() posts.PostRepository {
	return c.postRepo
}

// LocaleRepository exposes the configured locale repository.
func (c *Container) LocaleRepository() posts.LocaleRepository {
	return c.localeRepo
}

// RouteManager exposes the urlkit route manager when navigation is configured.
func (c *Container) RouteManager() *urlkit.RouteManager {
	return c.routeManager
}

// PostService returns the configured post service.
func (c *Container) PostService() posts.Service {
	return c.postSvc
}

// MarkdownService returns the configured markdown service. Nil when the
// markdown feature is disabled.
func (c *Container) MarkdownService() interfaces.MarkdownService {
	return c.markdownSvc
}

// GeneratorService returns the configured generator service.
func (c *Container) GeneratorService() generator.Service {
	return c.generatorSvc
}

// Worker returns the timed publication worker. Nil unless scheduling is
// enabled.
func (c *Container) Worker() *jobs.Worker {
	return c.worker
}
