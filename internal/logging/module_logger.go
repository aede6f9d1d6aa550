package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-press/pkg/interfaces"
)

const (
	rootModule      = "press"
	postsModule     = "press.posts"
	markdownModule  = "press.markdown"
	schedulerModule = "press.scheduler"
	generatorModule = "press.generator"
)

const (
	fieldSourcePath = "source_path"
	fieldLocale     = "locale"
	fieldSyncAction = "sync_action"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// PostsLogger returns the logger namespace reserved for the post services.
func PostsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, postsModule)
}

// MarkdownLogger returns the logger namespace reserved for markdown workflows.
func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markdownModule)
}

// SchedulerLogger returns the logger namespace reserved for scheduler workers.
func SchedulerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, schedulerModule)
}

// GeneratorLogger returns the logger namespace reserved for static builds.
func GeneratorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, generatorModule)
}

// WithSourceContext enriches the provided logger with common file-workflow
// fields such as source path, locale, and sync action. Empty values are
// ignored.
func WithSourceContext(logger interfaces.Logger, path, locale, action string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldSourcePath] = trimmed
	}
	if trimmed := strings.TrimSpace(locale); trimmed != "" {
		fields[fieldLocale] = trimmed
	}
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		fields[fieldSyncAction] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
