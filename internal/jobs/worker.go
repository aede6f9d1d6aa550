package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-press/internal/domain"
	"github.com/goliatone/go-press/internal/posts"
	pressscheduler "github.com/goliatone/go-press/internal/scheduler"
	"github.com/goliatone/go-press/pkg/activity"
	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/google/uuid"
)

// PostRepository is the slice of the post store the worker needs to apply
// deferred lifecycle changes.
type PostRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*posts.Post, error)
	Update(ctx context.Context, record *posts.Post) (*posts.Post, error)
}

// Worker drains due scheduler jobs and applies publish/unpublish transitions
// to the affected posts.
type Worker struct {
	scheduler interfaces.Scheduler
	posts     PostRepository
	audit     AuditRecorder
	activity  *activity.Emitter
	now       func() time.Time
	batchSize int
}

type Option func(*Worker)

func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(w *Worker) {
		w.audit = recorder
	}
}

func WithActivityEmitter(emitter *activity.Emitter) Option {
	return func(w *Worker) {
		if emitter != nil {
			w.activity = emitter
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(w *Worker) {
		if clock != nil {
			w.now = clock
		}
	}
}

func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

func NewWorker(scheduler interfaces.Scheduler, postsRepo PostRepository, opts ...Option) *Worker {
	w := &Worker{
		scheduler: scheduler,
		posts:     postsRepo,
		now:       time.Now,
		batchSize: 50,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Worker) emitActivity(ctx context.Context, actor *uuid.UUID, verb string, postID uuid.UUID, meta map[string]any) {
	if w.activity == nil || !w.activity.Enabled() || postID == uuid.Nil {
		return
	}
	actorID := uuid.Nil
	if actor != nil {
		actorID = *actor
	}
	event := activity.Event{
		Verb:       verb,
		ActorID:    actorID.String(),
		ObjectType: "post",
		ObjectID:   postID.String(),
		Metadata:   meta,
	}
	_ = w.activity.Emit(ctx, event)
}

// Process drains jobs due at the current instant and applies them. Failed
// jobs are reported back to the scheduler for retry accounting.
func (w *Worker) Process(ctx context.Context) error {
	if w.scheduler == nil {
		return errors.New("jobs: scheduler is nil")
	}
	deadline := w.now()
	due, err := w.scheduler.ListDue(ctx, deadline, w.batchSize)
	if err != nil {
		return err
	}
	for _, job := range due {
		if job == nil {
			continue
		}
		if err := w.handleJob(ctx, job, deadline); err != nil {
			_ = w.scheduler.MarkFailed(ctx, job.ID, err)
			continue
		}
		_ = w.scheduler.MarkDone(ctx, job.ID)
	}
	return nil
}

func (w *Worker) handleJob(ctx context.Context, job *interfaces.Job, now time.Time) error {
	switch job.Type {
	case pressscheduler.JobTypePostPublish:
		return w.processPublish(ctx, job, now)
	case pressscheduler.JobTypePostUnpublish:
		return w.processUnpublish(ctx, job, now)
	default:
		return nil
	}
}

func (w *Worker) processPublish(ctx context.Context, job *interfaces.Job, now time.Time) error {
	if w.posts == nil {
		return errors.New("jobs: post repository is nil")
	}
	id, triggeredBy, err := parseJobIdentifiers(job.Payload)
	if err != nil {
		return err
	}
	record, err := w.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	originalStatus := determineStatus(record, now)
	statusChanged := originalStatus != domain.StatusPublished
	if record.PublishAt != nil {
		record.PublishAt = nil
		statusChanged = true
	}
	if statusChanged {
		record.Status = string(domain.StatusPublished)
		publishedAt := job.RunAt
		if publishedAt.IsZero() {
			publishedAt = now
		}
		record.PublishedAt = &publishedAt
		record.UpdatedAt = now
		if triggeredBy != nil {
			record.PublishedBy = triggeredBy
			record.UpdatedBy = *triggeredBy
		}
		if _, err := w.posts.Update(ctx, record); err != nil {
			return err
		}
		w.recordAudit(ctx, AuditEvent{
			PostID:     id.String(),
			Action:     "publish",
			OccurredAt: now,
			Metadata:   buildAuditMetadata(job, triggeredBy),
		})
	}
	w.emitActivity(ctx, triggeredBy, "publish", id, map[string]any{
		"job_id":       job.ID,
		"job_type":     job.Type,
		"status":       record.Status,
		"published_at": record.PublishedAt,
	})
	return nil
}

func (w *Worker) processUnpublish(ctx context.Context, job *interfaces.Job, now time.Time) error {
	if w.posts == nil {
		return errors.New("jobs: post repository is nil")
	}
	id, triggeredBy, err := parseJobIdentifiers(job.Payload)
	if err != nil {
		return err
	}
	record, err := w.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	// Clear the lapsed window before resolving status; with the window still
	// set a live post reads as archived and the transition would land on draft.
	hadWindow := record.UnpublishAt != nil
	record.UnpublishAt = nil
	originalStatus := determineStatus(record, now)
	statusChanged := originalStatus == domain.StatusPublished || hadWindow
	if statusChanged {
		record.Status = string(domain.StatusOnUnpublish(originalStatus))
		record.UpdatedAt = now
		if triggeredBy != nil {
			record.UpdatedBy = *triggeredBy
		}
		if _, err := w.posts.Update(ctx, record); err != nil {
			return err
		}
		w.recordAudit(ctx, AuditEvent{
			PostID:     id.String(),
			Action:     "unpublish",
			OccurredAt: now,
			Metadata:   buildAuditMetadata(job, triggeredBy),
		})
	}
	w.emitActivity(ctx, triggeredBy, "unpublish", id, map[string]any{
		"job_id":   job.ID,
		"job_type": job.Type,
		"status":   record.Status,
	})
	return nil
}

func (w *Worker) recordAudit(ctx context.Context, event AuditEvent) {
	if w.audit == nil {
		return
	}
	_ = w.audit.Record(ctx, event)
}

func parseJobIdentifiers(payload map[string]any) (uuid.UUID, *uuid.UUID, error) {
	if payload == nil {
		return uuid.Nil, nil, fmt.Errorf("jobs: missing payload")
	}
	rawID, ok := payload["post_id"]
	if !ok {
		return uuid.Nil, nil, fmt.Errorf("jobs: payload missing post_id")
	}
	idStr, ok := rawID.(string)
	if !ok {
		return uuid.Nil, nil, fmt.Errorf("jobs: invalid post_id payload")
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, nil, err
	}
	var triggeredBy *uuid.UUID
	if rawScheduledBy, ok := payload["scheduled_by"]; ok {
		if str, ok := rawScheduledBy.(string); ok {
			if parsed, err := uuid.Parse(str); err == nil {
				triggeredBy = &parsed
			}
		}
	}
	return id, triggeredBy, nil
}

func buildAuditMetadata(job *interfaces.Job, triggeredBy *uuid.UUID) map[string]any {
	meta := map[string]any{
		"job_id":   job.ID,
		"job_type": job.Type,
		"run_at":   job.RunAt,
		"attempt":  job.Attempt,
	}
	if triggeredBy != nil {
		meta["scheduled_by"] = triggeredBy.String()
	}
	return meta
}

func determineStatus(record *posts.Post, now time.Time) domain.Status {
	if record == nil {
		return domain.StatusDraft
	}
	status := domain.Status(record.Status)
	if record.UnpublishAt != nil && !record.UnpublishAt.After(now) {
		return domain.StatusArchived
	}
	if record.PublishAt != nil {
		if record.PublishAt.After(now) {
			return domain.StatusScheduled
		}
		return domain.StatusPublished
	}
	if record.PublishedAt != nil && !record.PublishedAt.After(now) {
		return domain.StatusPublished
	}
	if status == "" {
		return domain.StatusDraft
	}
	return status
}
