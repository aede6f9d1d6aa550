package press

import (
	"errors"

	"github.com/goliatone/go-press/internal/runtimeconfig"
)

// ErrMarkdownDisabled is returned by import/sync conveniences when the
// markdown feature is not enabled.
var ErrMarkdownDisabled = errors.New("press: markdown feature is disabled")

var (
	ErrSchedulingFeatureRequiresVersioning = runtimeconfig.ErrSchedulingFeatureRequiresVersioning
	ErrSchedulingFeatureRequiresStorage    = runtimeconfig.ErrSchedulingFeatureRequiresStorage
	ErrMarkdownContentDirRequired          = runtimeconfig.ErrMarkdownContentDirRequired
	ErrGeneratorOutputDirRequired          = runtimeconfig.ErrGeneratorOutputDirRequired
	ErrStorageDSNRequired                  = runtimeconfig.ErrStorageDSNRequired
	ErrLoggingProviderRequired             = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown              = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid                 = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid                = runtimeconfig.ErrLoggingFormatInvalid
	ErrVersionRetentionLimitInvalid        = runtimeconfig.ErrVersionRetentionLimitInvalid
	ErrCacheTTLInvalid                     = runtimeconfig.ErrCacheTTLInvalid
)

type (
	Config           = runtimeconfig.Config
	ContentConfig    = runtimeconfig.ContentConfig
	ParserConfig     = runtimeconfig.ParserConfig
	I18NConfig       = runtimeconfig.I18NConfig
	StorageConfig    = runtimeconfig.StorageConfig
	CacheConfig      = runtimeconfig.CacheConfig
	NavigationConfig = runtimeconfig.NavigationConfig
	RetentionConfig  = runtimeconfig.RetentionConfig
	Features         = runtimeconfig.Features
	CommandsConfig   = runtimeconfig.CommandsConfig
	GeneratorConfig  = runtimeconfig.GeneratorConfig
	RoutesConfig     = runtimeconfig.RoutesConfig
	SchedulerConfig  = runtimeconfig.SchedulerConfig
	LoggingConfig    = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
