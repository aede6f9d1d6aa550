// Package commands wires the module's command handlers into host-provided
// registries, dispatchers, and cron schedulers. Hosts construct a container,
// hand it to RegisterContainerCommands, and receive the full handler set back
// for CLI or message-bus integration.
package commands

import (
	"errors"
	"strings"

	internalcmd "github.com/goliatone/go-press/internal/commands"
	markdowncmd "github.com/goliatone/go-press/internal/commands/markdown"
	postscmd "github.com/goliatone/go-press/internal/commands/posts"
	sitecmd "github.com/goliatone/go-press/internal/commands/site"
	"github.com/goliatone/go-press/internal/di"
	"github.com/goliatone/go-press/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

// CommandRegistry records command handlers so hosts can expose them via CLI or cron.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// CronRegistrar registers command handlers with a cron scheduler.
type CronRegistrar func(command.HandlerConfig, any) error

// RegistrationOptions configures how handlers are registered during construction.
type RegistrationOptions struct {
	Registry       CommandRegistry
	Dispatcher     CommandDispatcher
	CronRegistrar  CronRegistrar
	LoggerProvider interfaces.LoggerProvider
	// SyncCron, when set, schedules the Markdown sync handler with the given
	// cron expression using SyncCronCommand as the payload.
	SyncCron        string
	SyncCronCommand markdowncmd.SyncDirectoryCommand
}

// RegistrationResult captures the constructed command handlers and any dispatcher subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
}

// RegisterContainerCommands builds the command handlers exposed by the provided container and
// optionally registers them with registry/dispatcher/cron integrations.
func RegisterContainerCommands(container *di.Container, opts RegistrationOptions) (*RegistrationResult, error) {
	if container == nil {
		return &RegistrationResult{}, nil
	}

	cfg := container.Config

	provider := opts.LoggerProvider
	if provider == nil {
		provider = container.LoggerProvider()
	}

	if opts.Registry != nil && opts.CronRegistrar != nil {
		if reg, ok := opts.Registry.(interface {
			SetCronRegister(func(command.HandlerConfig, any) error) *command.Registry
		}); ok && reg != nil {
			reg.SetCronRegister(opts.CronRegistrar)
		}
	}

	result := &RegistrationResult{
		Handlers:      make([]any, 0),
		Subscriptions: make([]CommandSubscription, 0),
	}

	var errs error

	register := func(handler any) {
		if handler == nil {
			return
		}
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}

		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}

		if opts.CronRegistrar != nil {
			if cronCmd, ok := handler.(command.CronCommand); ok {
				if err := opts.CronRegistrar(cronCmd.CronOptions(), cronCmd.CronHandler()); err != nil {
					errs = errors.Join(errs, err)
				}
			}
		}
	}

	loggerFor := func(module string) interfaces.Logger {
		return internalcmd.CommandLogger(provider, module)
	}

	// Post lifecycle commands.
	if service := container.PostService(); service != nil {
		gates := postscmd.FeatureGates{
			SchedulingEnabled: func() bool { return cfg.Features.Scheduling },
		}
		set, err := postscmd.RegisterPostCommands(nil, service, provider, gates)
		if err != nil {
			errs = errors.Join(errs, err)
		} else if set != nil {
			register(set.Publish)
			register(set.Unpublish)
			register(set.Archive)
			if cfg.Features.Scheduling {
				register(set.Schedule)
			}
		}
	}

	// Markdown import/sync commands.
	if service := container.MarkdownService(); service != nil && cfg.Features.Markdown {
		gates := markdowncmd.FeatureGates{
			MarkdownEnabled: func() bool { return cfg.Features.Markdown },
		}
		set, err := markdowncmd.RegisterMarkdownCommands(nil, service, provider, gates)
		if err != nil {
			errs = errors.Join(errs, err)
		} else if set != nil {
			register(set.Import)
			register(set.Sync)

			if expr := strings.TrimSpace(opts.SyncCron); expr != "" && opts.CronRegistrar != nil {
				err := markdowncmd.RegisterMarkdownCron(
					markdowncmd.CronRegistrar(opts.CronRegistrar),
					set.Sync,
					command.HandlerConfig{Expression: expr},
					opts.SyncCronCommand,
				)
				if err != nil {
					errs = errors.Join(errs, err)
				}
			}
		}
	}

	// Site generator commands.
	if service := container.GeneratorService(); service != nil && cfg.Features.Generator {
		gates := sitecmd.FeatureGates{
			GeneratorEnabled: func() bool { return cfg.Features.Generator },
		}
		siteLogger := loggerFor("site")
		register(sitecmd.NewBuildSiteHandler(service, siteLogger, gates))
		register(sitecmd.NewDiffSiteHandler(service, siteLogger, gates))
		register(sitecmd.NewCleanSiteHandler(service, siteLogger, gates))
	}

	if errs != nil && len(result.Handlers) == 0 {
		return result, errs
	}

	if len(result.Handlers) == 0 {
		return result, errors.New("no command handlers registered; ensure services are configured and required features enabled")
	}

	return result, errs
}
