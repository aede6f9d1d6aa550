// Package activity provides a light-weight audit event fan-out. Services emit
// events for lifecycle actions (post created, published, deleted) and hosts
// register hooks that forward them to their own audit or notification stack.
package activity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Event describes a single audit-trail entry.
type Event struct {
	// Verb names the action: create, update, publish, unpublish, archive, delete.
	Verb string
	// ActorID identifies who triggered the action.
	ActorID string
	// UserID optionally identifies the user the action applies to.
	UserID string
	// TenantID optionally scopes the event for multi-tenant hosts.
	TenantID string
	// ObjectType and ObjectID identify the affected record.
	ObjectType string
	ObjectID   string
	// Channel groups events by emitting subsystem. Defaults to the emitter's
	// configured channel when left empty.
	Channel string
	// DefinitionCode optionally maps the event onto a host-defined activity
	// definition (for notification routing).
	DefinitionCode string
	// Recipients optionally lists notification targets.
	Recipients []string
	// Metadata carries free-form context (slug, locales, source path).
	Metadata map[string]any
	// OccurredAt is stamped by the emitter when zero.
	OccurredAt time.Time
}

// Hook receives emitted events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// Hooks is a convenience type for registering several hooks at once.
type Hooks []Hook

// Config controls emitter behaviour.
type Config struct {
	Enabled bool
	// Channel is applied to events that do not set one.
	Channel string
}

// Emitter fans events out to the registered hooks.
type Emitter struct {
	hooks   Hooks
	enabled bool
	channel string
	now     func() time.Time
}

// NewEmitter builds an emitter. A nil hook list or a disabled config yields an
// emitter whose Emit is a no-op, so callers never need nil checks.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	return &Emitter{
		hooks:   hooks,
		enabled: cfg.Enabled,
		channel: strings.TrimSpace(cfg.Channel),
		now:     time.Now,
	}
}

// Enabled reports whether emitted events will be delivered.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled && len(e.hooks) > 0
}

// Emit delivers the event to every hook. Hook failures do not stop delivery to
// the remaining hooks; the joined error is returned for callers that care.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Verb) == "" {
		return nil
	}
	if event.Channel == "" {
		event.Channel = e.channel
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.now()
	}

	var errs []error
	for _, hook := range e.hooks {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CaptureHook records every delivered event. Intended for tests.
type CaptureHook struct {
	Events []Event
}

// Notify implements Hook.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.Events = append(h.Events, event)
	return nil
}
