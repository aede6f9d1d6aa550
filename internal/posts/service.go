package posts

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-slug"
	"github.com/google/uuid"

	"github.com/goliatone/go-press/internal/domain"
	"github.com/goliatone/go-press/internal/identity"
	"github.com/goliatone/go-press/internal/logging"
	pressscheduler "github.com/goliatone/go-press/internal/scheduler"
	"github.com/goliatone/go-press/pkg/activity"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// Service exposes post management use-cases. The create/read/update/delete
// subset satisfies interfaces.PostService so the markdown importer and the
// generator can work against the same implementation.
type Service interface {
	Create(ctx context.Context, req interfaces.PostCreateRequest) (*interfaces.PostRecord, error)
	Update(ctx context.Context, req interfaces.PostUpdateRequest) (*interfaces.PostRecord, error)
	Get(ctx context.Context, id uuid.UUID, opts interfaces.PostReadOptions) (*interfaces.PostRecord, error)
	GetBySlug(ctx context.Context, slug string, opts interfaces.PostReadOptions) (*interfaces.PostRecord, error)
	List(ctx context.Context, opts interfaces.PostReadOptions) ([]*interfaces.PostRecord, error)
	Delete(ctx context.Context, req interfaces.PostDeleteRequest) error
	Publish(ctx context.Context, req PublishRequest) (*interfaces.PostRecord, error)
	Unpublish(ctx context.Context, req UnpublishRequest) (*interfaces.PostRecord, error)
	Archive(ctx context.Context, req ArchiveRequest) (*interfaces.PostRecord, error)
	Schedule(ctx context.Context, req ScheduleRequest) (*interfaces.PostRecord, error)
	ListVersions(ctx context.Context, postID uuid.UUID) ([]*PostVersion, error)
	RestoreVersion(ctx context.Context, req RestoreVersionRequest) (*interfaces.PostRecord, error)
}

var _ interfaces.PostService = (Service)(nil)

// PublishRequest moves a post to the published state.
type PublishRequest struct {
	PostID      uuid.UUID
	PublishedBy uuid.UUID
	// At overrides the publication timestamp; zero or nil means now.
	At *time.Time
}

// UnpublishRequest takes a post off the published surface. Published posts are
// archived; posts that never went live fall back to draft.
type UnpublishRequest struct {
	PostID        uuid.UUID
	UnpublishedBy uuid.UUID
}

// ArchiveRequest retires a post while keeping its history.
type ArchiveRequest struct {
	PostID     uuid.UUID
	ArchivedBy uuid.UUID
}

// ScheduleRequest registers publish/unpublish windows. A nil timestamp clears
// the corresponding window and cancels its pending job.
type ScheduleRequest struct {
	PostID      uuid.UUID
	PublishAt   *time.Time
	UnpublishAt *time.Time
	ScheduledBy uuid.UUID
}

// RestoreVersionRequest reapplies a captured snapshot as the current state.
type RestoreVersionRequest struct {
	PostID     uuid.UUID
	Version    int
	RestoredBy uuid.UUID
}

// ListFilter narrows repository listings. Status visibility is resolved by the
// service because effective status depends on the clock.
type ListFilter struct {
	TagSlug string
}

// PostRepository abstracts storage operations for post aggregates. Create
// persists the record with its translations and tag links; Update touches the
// post row only, with translations and tags replaced explicitly.
type PostRepository interface {
	Create(ctx context.Context, record *Post) (*Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	GetBySlug(ctx context.Context, slug string) (*Post, error)
	List(ctx context.Context, filter ListFilter) ([]*Post, error)
	Update(ctx context.Context, record *Post) (*Post, error)
	ReplaceTranslations(ctx context.Context, postID uuid.UUID, translations []*PostTranslation) error
	ReplaceTags(ctx context.Context, postID uuid.UUID, links []*PostTag) error
	Delete(ctx context.Context, id uuid.UUID, hardDelete bool) error
	CreateVersion(ctx context.Context, version *PostVersion) (*PostVersion, error)
	ListVersions(ctx context.Context, postID uuid.UUID) ([]*PostVersion, error)
	GetVersion(ctx context.Context, postID uuid.UUID, number int) (*PostVersion, error)
	GetLatestVersion(ctx context.Context, postID uuid.UUID) (*PostVersion, error)
	UpdateVersion(ctx context.Context, version *PostVersion) (*PostVersion, error)
	PruneVersions(ctx context.Context, postID uuid.UUID, keep int) error
}

// LocaleRepository resolves locales by code.
type LocaleRepository interface {
	GetByCode(ctx context.Context, code string) (*Locale, error)
	List(ctx context.Context) ([]*Locale, error)
}

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithClock overrides the clock used to stamp records.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithVersioningEnabled toggles snapshot capture on mutations.
func WithVersioningEnabled(enabled bool) ServiceOption {
	return func(s *service) {
		s.versioningEnabled = enabled
	}
}

// WithVersionRetentionLimit constrains how many versions are retained per
// post. Older versions are pruned when the limit is exceeded.
func WithVersionRetentionLimit(limit int) ServiceOption {
	return func(s *service) {
		if limit < 0 {
			limit = 0
		}
		s.versionRetentionLimit = limit
	}
}

// WithScheduler overrides the scheduler used to register publish/unpublish jobs.
func WithScheduler(sched interfaces.Scheduler) ServiceOption {
	return func(s *service) {
		if sched != nil {
			s.scheduler = sched
		}
	}
}

// WithSchedulingEnabled toggles scheduling-related workflows.
func WithSchedulingEnabled(enabled bool) ServiceOption {
	return func(s *service) {
		s.schedulingEnabled = enabled
	}
}

// WithActivityEmitter wires lifecycle events into the activity trail.
func WithActivityEmitter(emitter *activity.Emitter) ServiceOption {
	return func(s *service) {
		if emitter != nil {
			s.activity = emitter
		}
	}
}

// WithLogger attaches a logger for service diagnostics.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSlugNormalizer overrides the normalizer applied to tag slugs.
func WithSlugNormalizer(normalizer slug.Normalizer) ServiceOption {
	return func(s *service) {
		if normalizer != nil {
			s.slugs = normalizer
		}
	}
}

type service struct {
	posts                 PostRepository
	locales               LocaleRepository
	now                   func() time.Time
	versioningEnabled     bool
	versionRetentionLimit int
	scheduler             interfaces.Scheduler
	schedulingEnabled     bool
	activity              *activity.Emitter
	logger                interfaces.Logger
	slugs                 slug.Normalizer
}

// NewService constructs a post service with the required dependencies.
func NewService(posts PostRepository, locales LocaleRepository, opts ...ServiceOption) Service {
	s := &service{
		posts:     posts,
		locales:   locales,
		now:       time.Now,
		scheduler: pressscheduler.NewNoOp(),
		logger:    logging.NoOp(),
		slugs:     slug.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create provisions a new post with its translations and tags. Identifiers
// are derived from the slug so repeated imports settle on the same records.
func (s *service) Create(ctx context.Context, req interfaces.PostCreateRequest) (*interfaces.PostRecord, error) {
	slugKey := strings.TrimSpace(req.Slug)
	if slugKey == "" {
		return nil, ErrSlugRequired
	}
	if !isValidSlug(slugKey) {
		return nil, ErrSlugInvalid
	}
	if len(req.Translations) == 0 {
		return nil, ErrNoTranslations
	}

	status := domain.NormalizeStatus(req.Status)
	if !status.IsValid() {
		return nil, ErrStatusInvalid
	}

	if existing, err := s.posts.GetBySlug(ctx, slugKey); err == nil && existing != nil {
		return nil, ErrSlugExists
	} else if err != nil && !IsNotFound(err) {
		return nil, err
	}

	now := s.now()
	record := &Post{
		ID:             identity.PostUUID(slugKey),
		Slug:           slugKey,
		Layout:         strings.TrimSpace(req.Layout),
		SourcePath:     req.SourcePath,
		Checksum:       cloneBytes(req.Checksum),
		CurrentVersion: 1,
		PublishAt:      cloneTimePtr(req.PublishAt),
		CreatedBy:      req.CreatedBy,
		UpdatedBy:      req.UpdatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	applyLifecycle(record, status, now)

	translations, err := s.buildTranslations(ctx, record.ID, req.Translations, now)
	if err != nil {
		return nil, err
	}
	record.Translations = translations
	record.TagLinks = s.buildTagLinks(record.ID, req.Tags, now)

	created, err := s.posts.Create(ctx, record)
	if err != nil {
		return nil, err
	}

	if err := s.syncScheduledJobs(ctx, created, req.CreatedBy); err != nil {
		return nil, err
	}

	if s.versioningEnabled {
		if err := s.captureVersion(ctx, created, req.CreatedBy); err != nil {
			return nil, err
		}
	}

	s.emitActivity(ctx, "create", req.CreatedBy, created, nil)
	return s.toRecord(s.decorate(created), interfaces.PostReadOptions{}), nil
}

// Update replaces the mutable fields of an existing post, snapshots the
// result, and reconciles scheduler jobs with the new lifecycle state.
func (s *service) Update(ctx context.Context, req interfaces.PostUpdateRequest) (*interfaces.PostRecord, error) {
	if req.ID == uuid.Nil {
		return nil, ErrPostIDRequired
	}

	record, err := s.posts.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	status := domain.NormalizeStatus(req.Status)
	if !status.IsValid() {
		return nil, ErrStatusInvalid
	}
	if !domain.CanTransition(domain.NormalizeStatus(record.Status), status) {
		return nil, ErrStatusTransitionInvalid
	}

	now := s.now()
	record.Layout = strings.TrimSpace(req.Layout)
	record.SourcePath = req.SourcePath
	record.Checksum = cloneBytes(req.Checksum)
	record.PublishAt = cloneTimePtr(req.PublishAt)
	record.UpdatedAt = now
	if req.UpdatedBy != uuid.Nil {
		record.UpdatedBy = req.UpdatedBy
	}
	applyLifecycle(record, status, now)

	if len(req.Translations) > 0 {
		translations, buildErr := s.buildTranslations(ctx, record.ID, req.Translations, now)
		if buildErr != nil {
			return nil, buildErr
		}
		if err := s.posts.ReplaceTranslations(ctx, record.ID, translations); err != nil {
			return nil, err
		}
		record.Translations = translations
	}

	links := s.buildTagLinks(record.ID, req.Tags, now)
	if err := s.posts.ReplaceTags(ctx, record.ID, links); err != nil {
		return nil, err
	}
	record.TagLinks = links

	if s.versioningEnabled {
		record.CurrentVersion++
	}

	updated, err := s.posts.Update(ctx, record)
	if err != nil {
		return nil, err
	}
	updated.Translations = record.Translations
	updated.TagLinks = record.TagLinks

	if err := s.syncScheduledJobs(ctx, updated, req.UpdatedBy); err != nil {
		return nil, err
	}

	if s.versioningEnabled {
		if err := s.captureVersion(ctx, updated, req.UpdatedBy); err != nil {
			return nil, err
		}
	}

	s.emitActivity(ctx, "update", req.UpdatedBy, updated, nil)
	return s.toRecord(s.decorate(updated), interfaces.PostReadOptions{}), nil
}

// Get fetches a post by identifier.
func (s *service) Get(ctx context.Context, id uuid.UUID, opts interfaces.PostReadOptions) (*interfaces.PostRecord, error) {
	if id == uuid.Nil {
		return nil, ErrPostIDRequired
	}
	record, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err)
	}
	return s.toRecord(s.decorate(record), opts), nil
}

// GetBySlug fetches a post by slug.
func (s *service) GetBySlug(ctx context.Context, slugKey string, opts interfaces.PostReadOptions) (*interfaces.PostRecord, error) {
	slugKey = strings.TrimSpace(slugKey)
	if slugKey == "" {
		return nil, ErrSlugRequired
	}
	record, err := s.posts.GetBySlug(ctx, slugKey)
	if err != nil {
		return nil, s.mapNotFound(err)
	}
	return s.toRecord(s.decorate(record), opts), nil
}

// List returns posts matching the read options, newest first. When a locale
// is requested, posts without a matching translation (after fallback) are
// omitted.
func (s *service) List(ctx context.Context, opts interfaces.PostReadOptions) ([]*interfaces.PostRecord, error) {
	filter := ListFilter{}
	if tag := strings.TrimSpace(opts.Tag); tag != "" {
		filter.TagSlug = s.tagSlug(tag)
	}

	records, err := s.posts.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	visible := make([]*Post, 0, len(records))
	for _, record := range records {
		if record == nil {
			continue
		}
		s.decorate(record)
		if !matchesStatus(record, opts) {
			continue
		}
		visible = append(visible, record)
	}

	sort.SliceStable(visible, func(a, b int) bool {
		da, db := effectivePublishDate(visible[a]), effectivePublishDate(visible[b])
		if da.Equal(db) {
			return visible[a].Slug < visible[b].Slug
		}
		return da.After(db)
	})

	out := make([]*interfaces.PostRecord, 0, len(visible))
	for _, record := range visible {
		dto := s.toRecord(record, opts)
		if opts.Locale != "" && dto.Translation == nil {
			continue
		}
		out = append(out, dto)
	}
	return out, nil
}

// Delete removes a post. Soft deletion keeps the row with a deletion stamp;
// hard deletion removes the aggregate. Pending scheduler jobs are canceled
// either way.
func (s *service) Delete(ctx context.Context, req interfaces.PostDeleteRequest) error {
	if req.ID == uuid.Nil {
		return ErrPostIDRequired
	}

	record, err := s.posts.GetByID(ctx, req.ID)
	if err != nil {
		return s.mapNotFound(err)
	}

	if err := s.posts.Delete(ctx, req.ID, req.HardDelete); err != nil {
		return err
	}

	if err := s.cancelJob(ctx, pressscheduler.PostPublishJobKey(req.ID)); err != nil {
		return err
	}
	if err := s.cancelJob(ctx, pressscheduler.PostUnpublishJobKey(req.ID)); err != nil {
		return err
	}

	s.emitActivity(ctx, "delete", req.DeletedBy, record, map[string]any{
		"hard_delete": req.HardDelete,
	})
	return nil
}

// Publish takes a post live immediately. Publishing an already published post
// is a no-op so retries stay safe.
func (s *service) Publish(ctx context.Context, req PublishRequest) (*interfaces.PostRecord, error) {
	if req.PostID == uuid.Nil {
		return nil, ErrPostIDRequired
	}

	record, err := s.posts.GetByID(ctx, req.PostID)
	if err != nil {
		return nil, s.mapNotFound(err)
	}

	now := s.now()
	current := domain.NormalizeStatus(record.Status)
	if current == domain.StatusPublished && record.PublishAt == nil {
		return s.toRecord(s.decorate(record), interfaces.PostReadOptions{}), nil
	}
	if !domain.CanTransition(current, domain.StatusPublished) {
		return nil, ErrStatusTransitionInvalid
	}

	publishedAt := now
	if req.At != nil && !req.At.IsZero() {
		publishedAt = *req.At
	}

	record.Status = string(domain.StatusPublished)
	record.PublishAt = nil
	record.PublishedAt = &publishedAt
	record.UpdatedAt = now
	if req.PublishedBy != uuid.Nil {
		published := req.PublishedBy
		record.PublishedBy = &published
		record.UpdatedBy = req.PublishedBy
	}

	updated, err := s.posts.Update(ctx, record)
	if err != nil {
		return nil, err
	}
	updated.Translations = record.Translations
	updated.TagLinks = record.TagLinks

	if err := s.cancelJob(ctx, pressscheduler.PostPublishJobKey(record.ID)); err != nil {
		return nil, err
	}

	if s.versioningEnabled {
		if err := s.markLatestVersionPublished(ctx, updated.ID, publishedAt, req.PublishedBy); err != nil {
			return nil, err
		}
	}

	s.emitActivity(ctx, "publish", req.PublishedBy, updated, map[string]any{
		"published_at": publishedAt,
	})
	return s.toRecord(s.decorate(updated), interfaces.PostReadOptions{}), nil
}

// Unpublish takes a post off the published surface and clears any pending
// schedule windows.
func (s *service) Unpublish(ctx context.Context, req UnpublishRequest) (*interfaces.PostRecord, error) {
	if req.PostID == uuid.Nil {
		return nil, ErrPostIDRequired
	}

	record, err := s.posts.GetByID(ctx, req.PostID)
	if err != nil {
		return nil, s.mapNotFound(err)
	}

	now := s.now()
	next := domain.StatusOnUnpublish(effectiveStatus(record, now))

	record.Status = string(next)
	record.PublishAt = nil
	record.UnpublishAt = nil
	record.UpdatedAt = now
	if req.UnpublishedBy != uuid.Nil {
		record.UpdatedBy = req.UnpublishedBy
	}

	updated, err := s.posts.Update(ctx, record)
	if err != nil {
		return nil, err
	}
	updated.Translations = record.Translations
	updated.TagLinks = record.TagLinks

	if err := s.cancelJob(ctx, pressscheduler.PostPublishJobKey(record.ID)); err != nil {
		return nil, err
	}
	if err := s.cancelJob(ctx, pressscheduler.PostUnpublishJobKey(record.ID)); err != nil {
		return nil, err
	}

	s.emitActivity(ctx, "unpublish", req.UnpublishedBy, updated, nil)
	return s.toRecord(s.decorate(updated), interfaces.PostReadOptions{}), nil
}

// Archive retires a post while keeping the record and its versions.
func (s *service) Archive(ctx context.Context, req ArchiveRequest) (*interfaces.PostRecord, error) {
	if req.PostID == uuid.Nil {
		return nil, ErrPostIDRequired
	}

	record, err := s.posts.GetByID(ctx, req.PostID)
	if err != nil {
		return nil, s.mapNotFound(err)
	}

	current := domain.NormalizeStatus(record.Status)
	if !domain.CanTransition(current, domain.StatusArchived) {
		return nil, ErrStatusTransitionInvalid
	}

	now := s.now()
	record.Status = string(domain.StatusArchived)
	record.PublishAt = nil
	record.UnpublishAt = nil
	record.UpdatedAt = now
	if req.ArchivedBy != uuid.Nil {
		record.UpdatedBy = req.ArchivedBy
	}

	updated, err := s.posts.Update(ctx, record)
	if err != nil {
		return nil, err
	}
	updated.Translations = record.Translations
	updated.TagLinks = record.TagLinks

	if err := s.cancelJob(ctx, pressscheduler.PostPublishJobKey(record.ID)); err != nil {
		return nil, err
	}
	if err := s.cancelJob(ctx, pressscheduler.PostUnpublishJobKey(record.ID)); err != nil {
		return nil, err
	}

	s.emitActivity(ctx, "archive", req.ArchivedBy, updated, nil)
	return s.toRecord(s.decorate(updated), interfaces.PostReadOptions{}), nil
}

// Schedule registers publish and unpublish windows and dispatches the
// matching scheduler jobs. Job keys dedupe by replacement, so re-scheduling
// moves the pending job instead of stacking a second one.
func (s *service) Schedule(ctx context.Context, req ScheduleRequest) (*interfaces.PostRecord, error) {
	if !s.schedulingEnabled {
		return nil, ErrSchedulingDisabled
	}
	if req.PostID == uuid.Nil {
		return nil, ErrPostIDRequired
	}
	if req.PublishAt != nil && req.PublishAt.IsZero() {
		return nil, ErrScheduleTimestampInvalid
	}
	if req.UnpublishAt != nil && req.UnpublishAt.IsZero() {
		return nil, ErrScheduleTimestampInvalid
	}
	if req.PublishAt != nil && req.UnpublishAt != nil && req.UnpublishAt.Before(*req.PublishAt) {
		return nil, ErrScheduleWindowInvalid
	}

	record, err := s.posts.GetByID(ctx, req.PostID)
	if err != nil {
		return nil, s.mapNotFound(err)
	}

	now := s.now()
	record.PublishAt = cloneTimePtr(req.PublishAt)
	record.UnpublishAt = cloneTimePtr(req.UnpublishAt)
	record.UpdatedAt = now
	if req.ScheduledBy != uuid.Nil {
		record.UpdatedBy = req.ScheduledBy
	}

	switch {
	case record.PublishAt != nil:
		record.Status = string(domain.StatusScheduled)
	case record.PublishedAt != nil:
		record.Status = string(domain.StatusPublished)
	default:
		record.Status = string(domain.StatusDraft)
	}

	updated, err := s.posts.Update(ctx, record)
	if err != nil {
		return nil, err
	}
	updated.Translations = record.Translations
	updated.TagLinks = record.TagLinks

	if err := s.syncScheduledJobs(ctx, updated, req.ScheduledBy); err != nil {
		return nil, err
	}

	s.emitActivity(ctx, "schedule", req.ScheduledBy, updated, map[string]any{
		"publish_at":   record.PublishAt,
		"unpublish_at": record.UnpublishAt,
	})
	return s.toRecord(s.decorate(updated), interfaces.PostReadOptions{}), nil
}

// ListVersions returns the captured snapshots for a post, oldest first.
func (s *service) ListVersions(ctx context.Context, postID uuid.UUID) ([]*PostVersion, error) {
	if !s.versioningEnabled {
		return nil, ErrVersioningDisabled
	}
	if postID == uuid.Nil {
		return nil, ErrPostIDRequired
	}
	versions, err := s.posts.ListVersions(ctx, postID)
	if err != nil {
		return nil, err
	}
	return cloneVersions(versions), nil
}

// RestoreVersion reapplies a snapshot as the current state, producing a new
// version on top rather than rewriting history.
func (s *service) RestoreVersion(ctx context.Context, req RestoreVersionRequest) (*interfaces.PostRecord, error) {
	if !s.versioningEnabled {
		return nil, ErrVersioningDisabled
	}
	if req.PostID == uuid.Nil {
		return nil, ErrPostIDRequired
	}
	if req.Version <= 0 {
		return nil, ErrVersionRequired
	}

	version, err := s.posts.GetVersion(ctx, req.PostID, req.Version)
	if err != nil {
		return nil, s.mapNotFound(err)
	}

	snapshot := version.Snapshot
	translations := make([]interfaces.PostTranslationInput, 0, len(snapshot.Translations))
	for _, tr := range snapshot.Translations {
		translations = append(translations, interfaces.PostTranslationInput{
			Locale:      tr.Locale,
			Title:       tr.Title,
			TLDR:        tr.TLDR,
			Description: tr.Description,
			Body:        tr.Body,
			BodyHTML:    tr.BodyHTML,
			Metadata:    cloneMap(tr.Metadata),
		})
	}

	return s.Update(ctx, interfaces.PostUpdateRequest{
		ID:           req.PostID,
		Status:       snapshot.Status,
		Layout:       snapshot.Layout,
		Tags:         append([]string(nil), snapshot.Tags...),
		SourcePath:   snapshot.SourcePath,
		UpdatedBy:    req.RestoredBy,
		Translations: translations,
	})
}

func (s *service) buildTranslations(ctx context.Context, postID uuid.UUID, inputs []interfaces.PostTranslationInput, now time.Time) ([]*PostTranslation, error) {
	seen := map[string]struct{}{}
	out := make([]*PostTranslation, 0, len(inputs))

	for _, input := range inputs {
		code := strings.TrimSpace(input.Locale)
		if code == "" {
			return nil, ErrUnknownLocale
		}
		key := strings.ToLower(code)
		if _, ok := seen[key]; ok {
			return nil, ErrDuplicateLocale
		}

		loc, err := s.locales.GetByCode(ctx, code)
		if err != nil {
			return nil, ErrUnknownLocale
		}

		out = append(out, &PostTranslation{
			ID:          identity.PostTranslationUUID(postID, loc.Code),
			PostID:      postID,
			LocaleID:    loc.ID,
			Title:       input.Title,
			TLDR:        nilIfEmpty(input.TLDR),
			Description: nilIfEmpty(input.Description),
			Body:        input.Body,
			BodyHTML:    input.BodyHTML,
			Metadata:    cloneMap(input.Metadata),
			CreatedAt:   now,
			UpdatedAt:   now,
			Locale:      loc,
		})
		seen[key] = struct{}{}
	}

	return out, nil
}

// buildTagLinks normalizes tag labels into slugs and preserves author order
// through the link position. Labels that normalize to nothing are dropped.
func (s *service) buildTagLinks(postID uuid.UUID, labels []string, now time.Time) []*PostTag {
	links := make([]*PostTag, 0, len(labels))
	seen := map[string]struct{}{}

	for _, label := range labels {
		display := strings.TrimSpace(label)
		if display == "" {
			continue
		}
		tagSlug := s.tagSlug(display)
		if tagSlug == "" {
			continue
		}
		if _, ok := seen[tagSlug]; ok {
			continue
		}
		seen[tagSlug] = struct{}{}

		tagID := identity.TagUUID(tagSlug)
		links = append(links, &PostTag{
			PostID:   postID,
			TagID:    tagID,
			Position: len(links),
			Tag: &Tag{
				ID:        tagID,
				Slug:      tagSlug,
				Display:   display,
				CreatedAt: now,
			},
		})
	}

	return links
}

func (s *service) tagSlug(label string) string {
	normalized, err := s.slugs.Normalize(label)
	if err != nil {
		return ""
	}
	return normalized
}

// syncScheduledJobs reconciles scheduler jobs with the record's publish and
// unpublish windows: a set window enqueues (replacing by key), a cleared
// window cancels.
func (s *service) syncScheduledJobs(ctx context.Context, record *Post, actor uuid.UUID) error {
	if s.scheduler == nil || !s.schedulingEnabled {
		return nil
	}

	payload := func() map[string]any {
		p := map[string]any{"post_id": record.ID.String()}
		if actor != uuid.Nil {
			p["scheduled_by"] = actor.String()
		}
		return p
	}

	if record.PublishAt != nil {
		if _, err := s.scheduler.Enqueue(ctx, interfaces.JobSpec{
			Key:     pressscheduler.PostPublishJobKey(record.ID),
			Type:    pressscheduler.JobTypePostPublish,
			RunAt:   *record.PublishAt,
			Payload: payload(),
		}); err != nil {
			return err
		}
	} else if err := s.cancelJob(ctx, pressscheduler.PostPublishJobKey(record.ID)); err != nil {
		return err
	}

	if record.UnpublishAt != nil {
		if _, err := s.scheduler.Enqueue(ctx, interfaces.JobSpec{
			Key:     pressscheduler.PostUnpublishJobKey(record.ID),
			Type:    pressscheduler.JobTypePostUnpublish,
			RunAt:   *record.UnpublishAt,
			Payload: payload(),
		}); err != nil {
			return err
		}
	} else if err := s.cancelJob(ctx, pressscheduler.PostUnpublishJobKey(record.ID)); err != nil {
		return err
	}

	return nil
}

func (s *service) cancelJob(ctx context.Context, key string) error {
	if s.scheduler == nil {
		return nil
	}
	if err := s.scheduler.CancelByKey(ctx, key); err != nil && !errors.Is(err, interfaces.ErrJobNotFound) {
		return err
	}
	return nil
}

// captureVersion records the aggregate as the next snapshot and prunes old
// versions past the retention limit.
func (s *service) captureVersion(ctx context.Context, record *Post, actor uuid.UUID) error {
	snapshot := snapshotFromPost(record)

	version := &PostVersion{
		ID:        identity.PostVersionUUID(record.ID, record.CurrentVersion),
		PostID:    record.ID,
		Version:   record.CurrentVersion,
		Status:    domain.NormalizeStatus(record.Status),
		Snapshot:  snapshot,
		CreatedBy: actor,
		CreatedAt: record.UpdatedAt,
	}

	if _, err := s.posts.CreateVersion(ctx, version); err != nil {
		return err
	}

	if s.versionRetentionLimit > 0 {
		if err := s.posts.PruneVersions(ctx, record.ID, s.versionRetentionLimit); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) markLatestVersionPublished(ctx context.Context, postID uuid.UUID, publishedAt time.Time, publishedBy uuid.UUID) error {
	latest, err := s.posts.GetLatestVersion(ctx, postID)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	if latest.Status == domain.StatusPublished {
		return nil
	}
	latest.Status = domain.StatusPublished
	latest.PublishedAt = &publishedAt
	if publishedBy != uuid.Nil {
		published := publishedBy
		latest.PublishedBy = &published
	}
	_, err = s.posts.UpdateVersion(ctx, latest)
	return err
}

func (s *service) emitActivity(ctx context.Context, verb string, actor uuid.UUID, record *Post, meta map[string]any) {
	if s.activity == nil || !s.activity.Enabled() || record == nil {
		return
	}
	metadata := map[string]any{"slug": record.Slug}
	for k, v := range meta {
		metadata[k] = v
	}
	actorID := ""
	if actor != uuid.Nil {
		actorID = actor.String()
	}
	if err := s.activity.Emit(ctx, activity.Event{
		Verb:       verb,
		ActorID:    actorID,
		ObjectType: "post",
		ObjectID:   record.ID.String(),
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn("posts.activity_emit_failed", "verb", verb, "post_id", record.ID.String(), "error", err)
	}
}

func (s *service) mapNotFound(err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) {
		return interfaces.ErrPostNotFound
	}
	return err
}

func (s *service) decorate(record *Post) *Post {
	if record == nil {
		return nil
	}
	status := effectiveStatus(record, s.now())
	record.EffectiveStatus = status
	record.IsVisible = status == domain.StatusPublished
	return record
}

// toRecord projects the aggregate onto the shared DTO, resolving the
// requested locale (exact match, then fallback) against the stored
// translations.
func (s *service) toRecord(record *Post, opts interfaces.PostReadOptions) *interfaces.PostRecord {
	if record == nil {
		return nil
	}

	out := &interfaces.PostRecord{
		ID:          record.ID,
		Slug:        record.Slug,
		Status:      record.EffectiveStatus.String(),
		Layout:      record.Layout,
		Tags:        tagLabels(record.TagLinks),
		SourcePath:  record.SourcePath,
		Checksum:    cloneBytes(record.Checksum),
		PublishAt:   cloneTimePtr(record.PublishAt),
		PublishedAt: cloneTimePtr(record.PublishedAt),
		UpdatedAt:   record.UpdatedAt,
	}

	if translation := resolveTranslation(record.Translations, opts); translation != nil {
		out.Translation = &interfaces.PostTranslationRecord{
			ID:          translation.ID,
			Locale:      translationLocale(translation),
			Title:       translation.Title,
			TLDR:        stringValue(translation.TLDR),
			Description: stringValue(translation.Description),
			Body:        translation.Body,
			BodyHTML:    translation.BodyHTML,
			Metadata:    cloneMap(translation.Metadata),
		}
	}

	return out
}

// applyLifecycle settles the stored status against the publish window: a
// future publish date keeps the post scheduled, a published status stamps
// published_at from the authored date when one was supplied. An existing
// publication date survives repeated updates so the original go-live moment
// is never lost.
func applyLifecycle(record *Post, status domain.Status, now time.Time) {
	switch {
	case record.PublishAt != nil && record.PublishAt.After(now):
		status = domain.StatusScheduled
	case status == domain.StatusPublished:
		publishedAt := now
		if record.PublishAt != nil {
			publishedAt = *record.PublishAt
		} else if record.PublishedAt != nil {
			publishedAt = *record.PublishedAt
		}
		record.PublishedAt = &publishedAt
		record.PublishAt = nil
	case status == domain.StatusScheduled && record.PublishAt == nil:
		status = domain.StatusDraft
	}
	record.Status = status.String()
}

func matchesStatus(record *Post, opts interfaces.PostReadOptions) bool {
	if opts.Status != "" {
		return record.EffectiveStatus == domain.NormalizeStatus(opts.Status)
	}
	if opts.IncludeDrafts {
		return true
	}
	return record.EffectiveStatus == domain.StatusPublished
}

func resolveTranslation(translations []*PostTranslation, opts interfaces.PostReadOptions) *PostTranslation {
	if len(translations) == 0 {
		return nil
	}

	find := func(code string) *PostTranslation {
		for _, tr := range translations {
			if tr == nil {
				continue
			}
			if strings.EqualFold(translationLocale(tr), code) {
				return tr
			}
		}
		return nil
	}

	if opts.Locale != "" {
		if tr := find(opts.Locale); tr != nil {
			return tr
		}
		if opts.FallbackLocale != "" {
			return find(opts.FallbackLocale)
		}
		return nil
	}

	sorted := make([]*PostTranslation, 0, len(translations))
	for _, tr := range translations {
		if tr != nil {
			sorted = append(sorted, tr)
		}
	}
	sort.SliceStable(sorted, func(a, b int) bool {
		return translationLocale(sorted[a]) < translationLocale(sorted[b])
	})
	if len(sorted) == 0 {
		return nil
	}
	return sorted[0]
}

func translationLocale(tr *PostTranslation) string {
	if tr == nil || tr.Locale == nil {
		return ""
	}
	return tr.Locale.Code
}

func tagLabels(links []*PostTag) []string {
	if len(links) == 0 {
		return nil
	}
	ordered := make([]*PostTag, 0, len(links))
	for _, link := range links {
		if link != nil {
			ordered = append(ordered, link)
		}
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		return ordered[a].Position < ordered[b].Position
	})
	labels := make([]string, 0, len(ordered))
	for _, link := range ordered {
		switch {
		case link.Tag != nil && link.Tag.Display != "":
			labels = append(labels, link.Tag.Display)
		case link.Tag != nil:
			labels = append(labels, link.Tag.Slug)
		}
	}
	return labels
}

func snapshotFromPost(record *Post) PostVersionSnapshot {
	snapshot := PostVersionSnapshot{
		Slug:       record.Slug,
		Status:     record.Status,
		Layout:     record.Layout,
		Tags:       tagLabels(record.TagLinks),
		SourcePath: record.SourcePath,
	}
	for _, tr := range record.Translations {
		if tr == nil {
			continue
		}
		snapshot.Translations = append(snapshot.Translations, PostVersionTranslationSnapshot{
			Locale:      translationLocale(tr),
			Title:       tr.Title,
			TLDR:        stringValue(tr.TLDR),
			Description: stringValue(tr.Description),
			Body:        tr.Body,
			BodyHTML:    tr.BodyHTML,
			Metadata:    cloneMap(tr.Metadata),
		})
	}
	return snapshot
}

func effectiveStatus(record *Post, now time.Time) domain.Status {
	if record == nil {
		return domain.StatusDraft
	}
	status := domain.NormalizeStatus(record.Status)
	if record.UnpublishAt != nil && !record.UnpublishAt.After(now) {
		return domain.StatusArchived
	}
	if record.PublishAt != nil {
		if record.PublishAt.After(now) {
			return domain.StatusScheduled
		}
		return domain.StatusPublished
	}
	if record.PublishedAt != nil && !record.PublishedAt.After(now) && status != domain.StatusArchived && status != domain.StatusDraft {
		return domain.StatusPublished
	}
	return status
}

func effectivePublishDate(record *Post) time.Time {
	if record.PublishedAt != nil {
		return *record.PublishedAt
	}
	if record.PublishAt != nil {
		return *record.PublishAt
	}
	return record.CreatedAt
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func isValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

func nilIfEmpty(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func cloneTimePtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneBytes(src []byte) []byte {
	if src == nil {
		return nil
	}
	out := make([]byte, len(src))
	copy(out, src)
	return out
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func cloneVersions(versions []*PostVersion) []*PostVersion {
	out := make([]*PostVersion, 0, len(versions))
	for _, version := range versions {
		if version == nil {
			continue
		}
		cloned := *version
		out = append(out, &cloned)
	}
	return out
}
