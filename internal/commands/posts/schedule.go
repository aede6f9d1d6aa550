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

const schedulePostMessageType = "press.posts.schedule"

// SchedulePostCommand updates publish/unpublish windows for a post. A nil
// timestamp clears the corresponding window.
type SchedulePostCommand struct {
	PostID      uuid.UUID  `json:"post_id"`
	PublishAt   *time.Time `json:"publish_at,omitempty"`
	UnpublishAt *time.Time `json:"unpublish_at,omitempty"`
	ScheduledBy uuid.UUID  `json:"scheduled_by,omitempty"`
}

// Type implements command.Message.
func (SchedulePostCommand) Type() string { return schedulePostMessageType }

// Validate ensures required fields and basic payload consistency.
func (m SchedulePostCommand) Validate() error {
	errs := validation.Errors{}
	if m.PostID == uuid.Nil {
		errs["post_id"] = validation.NewError("press.posts.schedule.post_id_required", "post_id is required")
	}
	if m.PublishAt != nil && m.PublishAt.IsZero() {
		errs["publish_at"] = validation.NewError("press.posts.schedule.publish_at_invalid", "publish_at must be a valid timestamp when provided")
	}
	if m.UnpublishAt != nil && m.UnpublishAt.IsZero() {
		errs["unpublish_at"] = validation.NewError("press.posts.schedule.unpublish_at_invalid", "unpublish_at must be a valid timestamp when provided")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SchedulePostHandler coordinates scheduling changes via the post service.
type SchedulePostHandler struct {
	inner *commands.Handler[SchedulePostCommand]
}

// NewSchedulePostHandler constructs a handler wired to the provided post service.
func NewSchedulePostHandler(service posts.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[SchedulePostCommand]) *SchedulePostHandler {
	exec := func(ctx context.Context, msg SchedulePostCommand) error {
		if !gates.schedulingEnabled() {
			return posts.ErrSchedulingDisabled
		}
		_, err := service.Schedule(ctx, posts.ScheduleRequest{
			PostID:      msg.PostID,
			PublishAt:   msg.PublishAt,
			UnpublishAt: msg.UnpublishAt,
			ScheduledBy: msg.ScheduledBy,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[SchedulePostCommand]{
		commands.WithLogger[SchedulePostCommand](logger),
		commands.WithOperation[SchedulePostCommand]("posts.schedule"),
		commands.WithMessageFields(func(msg SchedulePostCommand) map[string]any {
			fields := map[string]any{"post_id": msg.PostID}
			if msg.PublishAt != nil {
				fields["publish_at"] = msg.PublishAt.UTC().Format(time.RFC3339)
			}
			if msg.UnpublishAt != nil {
				fields["unpublish_at"] = msg.UnpublishAt.UTC().Format(time.RFC3339)
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[SchedulePostCommand](logger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SchedulePostHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[SchedulePostCommand].
func (h *SchedulePostHandler) Execute(ctx context.Context, msg SchedulePostCommand) error {
	return h.inner.Execute(ctx, msg)
}
