package postscmd

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-press/internal/commands"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/google/uuid"
)

const (
	publishPostMessageType   = "press.posts.publish"
	unpublishPostMessageType = "press.posts.unpublish"
	archivePostMessageType   = "press.posts.archive"
)

// PublishPostCommand moves a post into the published state.
type PublishPostCommand struct {
	PostID      uuid.UUID  `json:"post_id"`
	PublishedBy *uuid.UUID `json:"published_by,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// Type implements command.Message.
func (PublishPostCommand) Type() string { return publishPostMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m PublishPostCommand) Validate() error {
	errs := validation.Errors{}
	if m.PostID == uuid.Nil {
		errs["post_id"] = validation.NewError("press.posts.publish.post_id_required", "post_id is required")
	}
	if m.PublishedAt != nil && m.PublishedAt.IsZero() {
		errs["published_at"] = validation.NewError("press.posts.publish.published_at_invalid", "published_at must be a valid timestamp when provided")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PublishPostHandler publishes posts via the post service using the shared command handler foundation.
type PublishPostHandler struct {
	inner *commands.Handler[PublishPostCommand]
}

// NewPublishPostHandler constructs a handler wired to the provided post service.
func NewPublishPostHandler(service posts.Service, logger interfaces.Logger, opts ...commands.HandlerOption[PublishPostCommand]) *PublishPostHandler {
	exec := func(ctx context.Context, msg PublishPostCommand) error {
		req := posts.PublishRequest{
			PostID: msg.PostID,
			At:     msg.PublishedAt,
		}
		if msg.PublishedBy != nil {
			req.PublishedBy = *msg.PublishedBy
		}
		_, err := service.Publish(ctx, req)
		return err
	}

	handlerOpts := []commands.HandlerOption[PublishPostCommand]{
		commands.WithLogger[PublishPostCommand](logger),
		commands.WithOperation[PublishPostCommand]("posts.publish"),
		commands.WithMessageFields(func(msg PublishPostCommand) map[string]any {
			return map[string]any{"post_id": msg.PostID}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[PublishPostCommand](logger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PublishPostHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[PublishPostCommand].
func (h *PublishPostHandler) Execute(ctx context.Context, msg PublishPostCommand) error {
	return h.inner.Execute(ctx, msg)
}

// UnpublishPostCommand takes a post off the published surface.
type UnpublishPostCommand struct {
	PostID        uuid.UUID  `json:"post_id"`
	UnpublishedBy *uuid.UUID `json:"unpublished_by,omitempty"`
}

// Type implements command.Message.
func (UnpublishPostCommand) Type() string { return unpublishPostMessageType }

// Validate ensures the target post is identified.
func (m UnpublishPostCommand) Validate() error {
	if m.PostID == uuid.Nil {
		return validation.Errors{
			"post_id": validation.NewError("press.posts.unpublish.post_id_required", "post_id is required"),
		}
	}
	return nil
}

// UnpublishPostHandler retires published posts via the post service.
type UnpublishPostHandler struct {
	inner *commands.Handler[UnpublishPostCommand]
}

// NewUnpublishPostHandler constructs a handler wired to the provided post service.
func NewUnpublishPostHandler(service posts.Service, logger interfaces.Logger, opts ...commands.HandlerOption[UnpublishPostCommand]) *UnpublishPostHandler {
	exec := func(ctx context.Context, msg UnpublishPostCommand) error {
		req := posts.UnpublishRequest{PostID: msg.PostID}
		if msg.UnpublishedBy != nil {
			req.UnpublishedBy = *msg.UnpublishedBy
		}
		_, err := service.Unpublish(ctx, req)
		return err
	}

	handlerOpts := []commands.HandlerOption[UnpublishPostCommand]{
		commands.WithLogger[UnpublishPostCommand](logger),
		commands.WithOperation[UnpublishPostCommand]("posts.unpublish"),
		commands.WithMessageFields(func(msg UnpublishPostCommand) map[string]any {
			return map[string]any{"post_id": msg.PostID}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[UnpublishPostCommand](logger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &UnpublishPostHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[UnpublishPostCommand].
func (h *UnpublishPostHandler) Execute(ctx context.Context, msg UnpublishPostCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ArchivePostCommand retires a post while keeping its history.
type ArchivePostCommand struct {
	PostID     uuid.UUID  `json:"post_id"`
	ArchivedBy *uuid.UUID `json:"archived_by,omitempty"`
}

// Type implements command.Message.
func (ArchivePostCommand) Type() string { return archivePostMessageType }

// Validate ensures the target post is identified.
func (m ArchivePostCommand) Validate() error {
	if m.PostID == uuid.Nil {
		return validation.Errors{
			"post_id": validation.NewError("press.posts.archive.post_id_required", "post_id is required"),
		}
	}
	return nil
}

// ArchivePostHandler archives posts via the post service.
type ArchivePostHandler struct {
	inner *commands.Handler[ArchivePostCommand]
}

// NewArchivePostHandler constructs a handler wired to the provided post service.
func NewArchivePostHandler(service posts.Service, logger interfaces.Logger, opts ...commands.HandlerOption[ArchivePostCommand]) *ArchivePostHandler {
	exec := func(ctx context.Context, msg ArchivePostCommand) error {
		req := posts.ArchiveRequest{PostID: msg.PostID}
		if msg.ArchivedBy != nil {
			req.ArchivedBy = *msg.ArchivedBy
		}
		_, err := service.Archive(ctx, req)
		return err
	}

	handlerOpts := []commands.HandlerOption[ArchivePostCommand]{
		commands.WithLogger[ArchivePostCommand](logger),
		commands.WithOperation[ArchivePostCommand]("posts.archive"),
		commands.WithMessageFields(func(msg ArchivePostCommand) map[string]any {
			return map[string]any{"post_id": msg.PostID}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ArchivePostCommand](logger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ArchivePostHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ArchivePostCommand].
func (h *ArchivePostHandler) Execute(ctx context.Context, msg ArchivePostCommand) error {
	return h.inner.Execute(ctx, msg)
}
