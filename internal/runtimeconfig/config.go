package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	urlkit "github.com/goliatone/go-urlkit"
)

// ErrSchedulingFeatureRequiresVersioning ensures scheduling stays behind the versioning flag.
var ErrSchedulingFeatureRequiresVersioning = errors.New("press config: scheduling feature requires versioning to be enabled")

// ErrSchedulingFeatureRequiresStorage keeps timed publication from running on throwaway stores.
var ErrSchedulingFeatureRequiresStorage = errors.New("press config: scheduling feature requires storage to be enabled")

var ErrMarkdownContentDirRequired = errors.New("press config: content directory is required when markdown is enabled")
var ErrGeneratorOutputDirRequired = errors.New("press config: generator output directory is required when generator is enabled")
var ErrStorageDSNRequired = errors.New("press config: storage dsn is required when storage is enabled")
var ErrLoggingProviderRequired = errors.New("press config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("press config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("press config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("press config: logging format is invalid")
var ErrVersionRetentionLimitInvalid = errors.New("press config: version retention limit must be zero or positive")
var ErrCacheTTLInvalid = errors.New("press config: cache ttl must be zero or positive")

// Config aggregates feature flags and adapter bindings for the press module.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Enabled       bool
	DefaultLocale string
	Content       ContentConfig
	I18N          I18NConfig
	Storage       StorageConfig
	Cache         CacheConfig
	Navigation    NavigationConfig
	Retention     RetentionConfig
	Features      Features
	Commands      CommandsConfig
	Generator     GeneratorConfig
	Scheduler     SchedulerConfig
	Logging       LoggingConfig
}

// ContentConfig captures filesystem and parser behaviour for markdown ingestion.
type ContentConfig struct {
	Dir            string
	Pattern        string
	Recursive      bool
	LocalePatterns map[string]string
	ForeignFormats bool
	Parser         ParserConfig
}

// ParserConfig mirrors interfaces.ParseOptions for runtime configuration.
type ParserConfig struct {
	Extensions []string
	Sanitize   bool
	HardWraps  bool
	SafeMode   bool
}

// I18NConfig lists the locales the module ingests and renders.
type I18NConfig struct {
	Enabled bool
	Locales []string
}

// StorageConfig selects the SQL backend for post persistence.
type StorageConfig struct {
	Driver string
	DSN    string
}

// CacheConfig captures cache behaviour toggles.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// NavigationConfig captures routing configuration for generated URL resolution.
type NavigationConfig struct {
	RouteConfig *urlkit.Config
}

// Features toggles module functionality.
type Features struct {
	Markdown   bool
	Storage    bool
	Scheduling bool
	Versioning bool
	Generator  bool
	Activity   bool
	Logger     bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// RetentionConfig caps stored post versions; zero keeps everything.
type RetentionConfig struct {
	Posts int
}

// CommandsConfig captures optional command-layer behaviour.
type CommandsConfig struct {
	Enabled                bool
	AutoRegisterDispatcher bool
	AutoRegisterCron       bool
}

// GeneratorConfig captures behaviour for the static site generator.
type GeneratorConfig struct {
	Enabled         bool
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
	DefaultLayout   string
	IndexLayout     string
	TagLayout       string
	ThemesDir       string
	DefaultTheme    string
	Routes          RoutesConfig
}

// RoutesConfig mirrors generator route resolution settings.
type RoutesConfig struct {
	Group        string
	LocaleGroups map[string]string
	PostRoute    string
	TagRoute     string
	HomeRoute    string
	SlugParam    string
}

// SchedulerConfig tunes the timed publication runtime.
type SchedulerConfig struct {
	PollInterval time.Duration
}

// DefaultConfig returns opinionated defaults for an embedded blog engine.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		DefaultLocale: "en",
		Content: ContentConfig{
			Dir:            "content",
			Pattern:        "*.md",
			Recursive:      true,
			LocalePatterns: map[string]string{},
		},
		I18N: I18NConfig{
			Enabled: true,
			Locales: []string{"en"},
		},
		Storage: StorageConfig{
			Driver: "sqlite3",
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: time.Minute,
		},
		Navigation: NavigationConfig{},
		Retention:  RetentionConfig{},
		Features:   Features{},
		Commands:   CommandsConfig{},
		Generator: GeneratorConfig{
			OutputDir:       "dist",
			CleanBuild:      true,
			Incremental:     false,
			CopyAssets:      true,
			GenerateSitemap: true,
			GenerateRobots:  false,
			GenerateFeeds:   true,
			Workers:         0,
			DefaultLayout:   "post",
			ThemesDir:       "themes",
		},
		Scheduler: SchedulerConfig{
			PollInterval: time.Minute,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if cfg.Features.Scheduling && !cfg.Features.Versioning {
		return ErrSchedulingFeatureRequiresVersioning
	}
	if cfg.Features.Scheduling && !cfg.Features.Storage {
		return ErrSchedulingFeatureRequiresStorage
	}
	if cfg.Features.Markdown {
		if strings.TrimSpace(cfg.Content.Dir) == "" {
			return ErrMarkdownContentDirRequired
		}
	}
	if cfg.Features.Storage {
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	}
	if cfg.Features.Generator {
		if strings.TrimSpace(cfg.Generator.OutputDir) == "" {
			return ErrGeneratorOutputDirRequired
		}
	}
	if cfg.Cache.DefaultTTL < 0 {
		return ErrCacheTTLInvalid
	}
	if cfg.Retention.Posts < 0 {
		return fmt.Errorf("%w: posts", ErrVersionRetentionLimitInvalid)
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
