// Package usersink forwards activity events to a go-users activity sink so
// hosts already running go-users pick up the blog's audit trail without any
// extra plumbing.
package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-press/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Sink is the subset of the go-users activity logger the hook needs.
type Sink interface {
	Log(ctx context.Context, record usertypes.ActivityRecord) error
}

// Hook maps activity events onto go-users ActivityRecord values.
type Hook struct {
	Sink Sink
}

// Notify implements activity.Hook. Events without a verb or object are
// skipped; malformed actor/user/tenant IDs degrade to the zero UUID rather
// than failing the emitting operation.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	if strings.TrimSpace(event.Verb) == "" || strings.TrimSpace(event.ObjectType) == "" {
		return nil
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	data := make(map[string]any, len(event.Metadata)+2)
	for key, value := range event.Metadata {
		data[key] = value
	}
	if event.DefinitionCode != "" {
		data["definition_code"] = event.DefinitionCode
	}
	if len(event.Recipients) > 0 {
		data["recipients"] = event.Recipients
	}

	record := usertypes.ActivityRecord{
		ActorID:    parseID(event.ActorID),
		UserID:     parseID(event.UserID),
		TenantID:   parseID(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		OccurredAt: occurredAt,
		Data:       data,
	}
	return h.Sink.Log(ctx, record)
}

func parseID(raw string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil
	}
	return id
}
