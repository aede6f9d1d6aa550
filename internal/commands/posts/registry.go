package postscmd

import (
	"errors"

	"github.com/goliatone/go-press/internal/commands"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the post command handlers produced by RegisterPostCommands.
type HandlerSet struct {
	Publish   *PublishPostHandler
	Unpublish *UnpublishPostHandler
	Archive   *ArchivePostHandler
	Schedule  *SchedulePostHandler
}

// RegisterPostCommands builds the post lifecycle handlers and registers them
// with the provided registry. The constructed HandlerSet is returned so
// callers can wire additional integrations.
func RegisterPostCommands(reg CommandRegistry, service posts.Service, provider interfaces.LoggerProvider, gates FeatureGates) (*HandlerSet, error) {
	if service == nil {
		return nil, errors.New("post command registration: service is nil")
	}

	logger := commands.CommandLogger(provider, "posts")

	set := &HandlerSet{
		Publish:   NewPublishPostHandler(service, logger),
		Unpublish: NewUnpublishPostHandler(service, logger),
		Archive:   NewArchivePostHandler(service, logger),
		Schedule:  NewSchedulePostHandler(service, logger, gates),
	}

	if reg != nil {
		for _, handler := range []any{set.Publish, set.Unpublish, set.Archive, set.Schedule} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}
