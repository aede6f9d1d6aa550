package posts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-press/internal/domain"
	"github.com/goliatone/go-press/internal/identity"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/internal/scheduler"
	"github.com/goliatone/go-press/pkg/activity"
	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/google/uuid"
)

var testClock = time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)

func newLocaleStore() *posts.MemoryLocaleRepository {
	store := posts.NewMemoryLocaleRepository()
	store.Put(&posts.Locale{ID: identity.LocaleUUID("en"), Code: "en", Display: "English", IsActive: true, IsDefault: true})
	store.Put(&posts.Locale{ID: identity.LocaleUUID("es"), Code: "es", Display: "Spanish", IsActive: true})
	return store
}

func fixedClock() time.Time {
	return testClock
}

func TestPostServiceCreateSuccess(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	svc := posts.NewService(store, newLocaleStore(), posts.WithClock(fixedClock))

	record, err := svc.Create(context.Background(), interfaces.PostCreateRequest{
		Slug:      "hello-world",
		Status:    "draft",
		Layout:    "post",
		Tags:      []string{"Go", "Web Dev"},
		CreatedBy: uuid.New(),
		UpdatedBy: uuid.New(),
		Translations: []interfaces.PostTranslationInput{{
			Locale: "en",
			Title:  "Hello World",
			Body:   "# Hello",
		}},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if record.ID != identity.PostUUID("hello-world") {
		t.Fatalf("expected deterministic id, got %s", record.ID)
	}
	if record.Slug != "hello-world" {
		t.Fatalf("expected slug hello-world, got %q", record.Slug)
	}
	if record.Status != "draft" {
		t.Fatalf("expected draft status, got %q", record.Status)
	}
	if len(record.Tags) != 2 || record.Tags[0] != "Go" || record.Tags[1] != "Web Dev" {
		t.Fatalf("expected author tag order, got %v", record.Tags)
	}
	if record.Translation == nil || record.Translation.Locale != "en" {
		t.Fatalf("expected en translation, got %+v", record.Translation)
	}
	if record.Translation.Title != "Hello World" {
		t.Fatalf("expected title Hello World, got %q", record.Translation.Title)
	}
}

func TestPostServiceCreateValidation(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	svc := posts.NewService(store, newLocaleStore(), posts.WithClock(fixedClock))
	translations := []interfaces.PostTranslationInput{{Locale: "en", Title: "T", Body: "B"}}

	if _, err := svc.Create(context.Background(), interfaces.PostCreateRequest{Translations: translations}); !errors.Is(err, posts.ErrSlugRequired) {
		t.Fatalf("expected ErrSlugRequired, got %v", err)
	}

	if _, err := svc.Create(context.Background(), interfaces.PostCreateRequest{Slug: "Hello World", Translations: translations}); !errors.Is(err, posts.ErrSlugInvalid) {
		t.Fatalf("expected ErrSlugInvalid, got %v", err)
	}

	if _, err := svc.Create(context.Background(), interfaces.PostCreateRequest{Slug: "no-translations"}); !errors.Is(err, posts.ErrNoTranslations) {
		t.Fatalf("expected ErrNoTranslations, got %v", err)
	}

	if _, err := svc.Create(context.Background(), interfaces.PostCreateRequest{
		Slug:         "bad-locale",
		Translations: []interfaces.PostTranslationInput{{Locale: "fr", Title: "T", Body: "B"}},
	}); !errors.Is(err, posts.ErrUnknownLocale) {
		t.Fatalf("expected ErrUnknownLocale, got %v", err)
	}

	if _, err := svc.Create(context.Background(), interfaces.PostCreateRequest{
		Slug: "dup-locale",
		Translations: []interfaces.PostTranslationInput{
			{Locale: "en", Title: "T", Body: "B"},
			{Locale: "EN", Title: "T2", Body: "B2"},
		},
	}); !errors.Is(err, posts.ErrDuplicateLocale) {
		t.Fatalf("expected ErrDuplicateLocale, got %v", err)
	}
}

func TestPostServiceCreateDuplicateSlug(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	svc := posts.NewService(store, newLocaleStore(), posts.WithClock(fixedClock))

	req := interfaces.PostCreateRequest{
		Slug:         "taken",
		Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: "T", Body: "B"}},
	}
	if _, err := svc.Create(context.Background(), req); err != nil {
		t.Fatalf("create post: %v", err)
	}
	if _, err := svc.Create(context.Background(), req); !errors.Is(err, posts.ErrSlugExists) {
		t.Fatalf("expected ErrSlugExists, got %v", err)
	}
}

func TestPostServiceCreatePublishedUsesAuthoredDate(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	svc := posts.NewService(store, newLocaleStore(), posts.WithClock(fixedClock))

	authored := testClock.Add(-72 * time.Hour)
	record, err := svc.Create(context.Background(), interfaces.PostCreateRequest{
		Slug:         "released",
		Status:       "published",
		PublishAt:    &authored,
		Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: "Released", Body: "B"}},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if record.Status != "published" {
		t.Fatalf("expected published, got %q", record.Status)
	}
	if record.PublishAt != nil {
		t.Fatalf("expected publish_at cleared, got %v", record.PublishAt)
	}
	if record.PublishedAt == nil || !record.PublishedAt.Equal(authored) {
		t.Fatalf("expected published_at %v, got %v", authored, record.PublishedAt)
	}
}

func TestPostServiceCreateFutureDateSchedules(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	sched := scheduler.NewInMemory(scheduler.WithClock(fixedClock))
	svc := posts.NewService(store, newLocaleStore(),
		posts.WithClock(fixedClock),
		posts.WithScheduler(sched),
		posts.WithSchedulingEnabled(true),
	)

	future := testClock.Add(48 * time.Hour)
	record, err := svc.Create(context.Background(), interfaces.PostCreateRequest{
		Slug:         "upcoming",
		Status:       "published",
		PublishAt:    &future,
		Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: "Upcoming", Body: "B"}},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if record.Status != "scheduled" {
		t.Fatalf("expected scheduled, got %q", record.Status)
	}
	if record.PublishAt == nil || !record.PublishAt.Equal(future) {
		t.Fatalf("expected publish_at %v, got %v", future, record.PublishAt)
	}

	job, err := sched.GetByKey(context.Background(), scheduler.PostPublishJobKey(record.ID))
	if err != nil {
		t.Fatalf("expected publish job, got %v", err)
	}
	if !job.RunAt.Equal(future) {
		t.Fatalf("expected job run_at %v, got %v", future, job.RunAt)
	}
	if job.Type != scheduler.JobTypePostPublish {
		t.Fatalf("expected job type %q, got %q", scheduler.JobTypePostPublish, job.Type)
	}
}

func TestPostServiceUpdateReplacesTranslationsAndTags(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	svc := posts.NewService(store, newLocaleStore(), posts.WithClock(fixedClock))

	created, err := svc.Create(context.Background(), interfaces.PostCreateRequest{
		Slug:         "evolving",
		Tags:         []string{"Go"},
		Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: "First", Body: "B"}},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	updated, err := svc.Update(context.Background(), interfaces.PostUpdateRequest{
		ID:     created.ID,
		Status: "draft",
		Tags:   []string{"Releases", "Go"},
		Translations: []interfaces.PostTranslationInput{
			{Locale: "en", Title: "Second", Body: "B2"},
			{Locale: "es", Title: "Segundo", Body: "C2"},
		},
	})
	if err != nil {
		t.Fatalf("update post: %v", err)
	}

	if len(updated.Tags) != 2 || updated.Tags[0] != "Releases" || updated.Tags[1] != "Go" {
		t.Fatalf("expected replaced tags, got %v", updated.Tags)
	}

	spanish, err := svc.GetBySlug(context.Background(), "evolving", interfaces.PostReadOptions{Locale: "es", IncludeDrafts: true})
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if spanish.Translation == nil || spanish.Translation.Title != "Segundo" {
		t.Fatalf("expected spanish translation, got %+v", spanish.Translation)
	}
}

func TestPostServiceUpdateRejectsInvalidTransition(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	svc := posts.NewService(store, newLocaleStore(), posts.WithClock(fixedClock))

	created, err := svc.Create(context.Background(), interfaces.PostCreateRequest{
		Slug:         "locked",
		Status:       "archived",
		Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: "T", Body: "B"}},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if _, err := svc.Update(context.Background(), interfaces.PostUpdateRequest{
		ID:     created.ID,
		Status: "published",
	}); !errors.Is(err, posts.ErrStatusTransitionInvalid) {
		t.Fatalf("expected ErrStatusTransitionInvalid, got %v", err)
	}
}

func TestPostServicePublishIsIdempotent(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	svc := posts.NewService(store, newLocaleStore(), posts.WithClock(fixedClock))

	created, err := svc.Create(context.Background(), interfaces.PostCreateRequest{
		Slug:         "go-live",
		Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: "T", Body: "B"}},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	first, err := svc.Publish(context.Background(), posts.PublishRequest{PostID: created.ID, PublishedBy: uuid.New()})
	if err != nil {
		t.Fatalf("publish post: %v", err)
	}
	if first.Status != "published" {
		t.Fatalf("expected published, got %q", first.Status)
	}
	if first.PublishedAt == nil || !first.PublishedAt.Equal(testClock) {
		t.Fatalf("expected published_at %v, got %v", testClock, first.PublishedAt)
	}

	second, err := svc.Publish(context.Background(), posts.PublishRequest{PostID: created.ID})
	if err != nil {
		t.Fatalf("republish post: %v", err)
	}
	if second.PublishedAt == nil || !second.PublishedAt.Equal(testClock) {
		t.Fatalf("expected original published_at preserved, got %v", second.PublishedAt)
	}
}

func TestPostServicePublishCancelsScheduledJob(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	sched := scheduler.NewInMemory(scheduler.WithClock(fixedClock))
	svc := posts.NewService(store, newLocaleStore(),
		posts.WithClock(fixedClock),
		posts.WithScheduler(sched),
		posts.WithSchedulingEnabled(true),
	)

	future := testClock.Add(24 * time.Hour)
	created, err := svc.Create(context.Background(), interfaces.PostCreateRequest{
		Slug:         "early-release",
		Status:       "published",
		PublishAt:    &future,
		Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: "T", Body: "B"}},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if _, err := sched.GetByKey(context.Background(), scheduler.PostPublishJobKey(created.ID)); err != nil {
		t.Fatalf("expected pending job, got %v", err)
	}

	record, err := svc.Publish(context.Background(), posts.PublishRequest{PostID: created.ID})
	if err != nil {
		t.Fatalf("publish post: %v", err)
	}
	if record.Status != "published" {
		t.Fatalf("expected published, got %q", record.Status)
	}

	if _, err := sched.GetByKey(context.Background(), scheduler.PostPublishJobKey(created.ID)); !errors.Is(err, interfaces.ErrJobNotFound) {
		t.Fatalf("expected job canceled, got %v", err)
	}
}

func TestPostServiceUnpublishArchivesLivePost(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	svc := posts.NewService(store, newLocaleStore(), posts.WithClock(fixedClock))

	created, err := svc.Create(context.Background(), interfaces.PostCreateRequest{
		Slug:         "retiring",
		Status:       "published",
		Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: "T", Body: "B"}},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	record, err := svc.Unpublish(context.Background(), posts.UnpublishRequest{PostID: created.ID})
	if err != nil {
		t.Fatalf("unpublish post: %v", err)
	}
	if record.Status != domain.StatusArchived.String() {
		t.Fatalf("expected archived, got %q", record.Status)
	}
	if record.PublishedAt == nil {
		t.Fatalf("expected published_at retained after unpublish")
	}
}

func TestPostServiceUnpublishDraftStaysDraft(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	svc := posts.NewService(store, newLocaleStore(), posts.WithClock(fixedClock))

	created, err := svc.Create(context.Background(), interfaces.PostCreateRequest{
		Slug:         "never-live",
		Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: "T", Body: "B"}},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	record, err := svc.Unpublish(context.Background(), posts.UnpublishRequest{PostID: created.ID})
	if err != nil {
		t.Fatalf("unpublish post: %v", err)
	}
	if record.Status != domain.StatusDraft.String() {
		t.Fatalf("expected draft, got %q", record.Status)
	}
}

func TestPostServiceScheduleWindows(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	sched := scheduler.NewInMemory(scheduler.WithClock(fixedClock))
	svc := posts.NewService(store, newLocaleStore(),
		posts.WithClock(fixedClock),
		posts.WithScheduler(sched),
		posts.WithSchedulingEnabled(true),
	)

	created, err := svc.Create(context.Background(), interfaces.PostCreateRequest{
		Slug:         "windowed",
		Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: "T", Body: "B"}},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	publishAt := testClock.Add(24 * time.Hour)
	unpublishAt := testClock.Add(48 * time.Hour)

	record, err := svc.Schedule(context.Background(), posts.ScheduleRequest{
		PostID:      created.ID,
		PublishAt:   &publishAt,
		UnpublishAt: &unpublishAt,
	})
	if err != nil {
		t.Fatalf("schedule post: %v", err)
	}
	if record.Status != "scheduled" {
		t.Fatalf("expected scheduled, got %q", record.Status)
	}

	publishJob, err := sched.GetByKey(context.Background(), scheduler.PostPublishJobKey(created.ID))
	if err != nil {
		t.Fatalf("expected publish job: %v", err)
	}
	if !publishJob.RunAt.Equal(publishAt) {
		t.Fatalf("expected publish run_at %v, got %v", publishAt, publishJob.RunAt)
	}
	unpublishJob, err := sched.GetByKey(context.Background(), scheduler.PostUnpublishJobKey(created.ID))
	if err != nil {
		t.Fatalf("expected unpublish job: %v", err)
	}
	if unpublishJob.Type != scheduler.JobTypePostUnpublish {
		t.Fatalf("expected unpublish type, got %q", unpublishJob.Type)
	}

	moved := testClock.Add(72 * time.Hour)
	if _, err := svc.Schedule(context.Background(), posts.ScheduleRequest{
		PostID:    created.ID,
		PublishAt: &moved,
	}); err != nil {
		t.Fatalf("reschedule post: %v", err)
	}

	replaced, err := sched.GetByKey(context.Background(), scheduler.PostPublishJobKey(created.ID))
	if err != nil {
		t.Fatalf("expected replacement job: %v", err)
	}
	if !replaced.RunAt.Equal(moved) {
		t.Fatalf("expected moved run_at %v, got %v", moved, replaced.RunAt)
	}
	if _, err := sched.GetByKey(context.Background(), scheduler.PostUnpublishJobKey(created.ID)); !errors.Is(err, interfaces.ErrJobNotFound) {
		t.Fatalf("expected cleared unpublish job, got %v", err)
	}
}

func TestPostServiceScheduleValidation(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	svc := posts.NewService(store, newLocaleStore(), posts.WithClock(fixedClock))

	if _, err := svc.Schedule(context.Background(), posts.ScheduleRequest{PostID: uuid.New()}); !errors.Is(err, posts.ErrSchedulingDisabled) {
		t.Fatalf("expected ErrSchedulingDisabled, got %v", err)
	}

	enabled := posts.NewService(store, newLocaleStore(),
		posts.WithClock(fixedClock),
		posts.WithScheduler(scheduler.NewInMemory(scheduler.WithClock(fixedClock))),
		posts.WithSchedulingEnabled(true),
	)

	publishAt := testClock.Add(48 * time.Hour)
	unpublishAt := testClock.Add(24 * time.Hour)
	if _, err := enabled.Schedule(context.Background(), posts.ScheduleRequest{
		PostID:      uuid.New(),
		PublishAt:   &publishAt,
		UnpublishAt: &unpublishAt,
	}); !errors.Is(err, posts.ErrScheduleWindowInvalid) {
		t.Fatalf("expected ErrScheduleWindowInvalid, got %v", err)
	}
}

func TestPostServiceListVisibilityAndOrder(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	svc := posts.NewService(store, newLocaleStore(), posts.WithClock(fixedClock))

	older := testClock.Add(-240 * time.Hour)
	newer := testClock.Add(-24 * time.Hour)

	seed := []interfaces.PostCreateRequest{
		{
			Slug: "old-news", Status: "published", PublishAt: &older, Tags: []string{"Go"},
			Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: "Old", Body: "B"}},
		},
		{
			Slug: "fresh-news", Status: "published", PublishAt: &newer,
			Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: "Fresh", Body: "B"}},
		},
		{
			Slug: "wip", Status: "draft",
			Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: "WIP", Body: "B"}},
		},
	}
	for _, req := range seed {
		if _, err := svc.Create(context.Background(), req); err != nil {
			t.Fatalf("create %s: %v", req.Slug, err)
		}
	}

	visible, err := svc.List(context.Background(), interfaces.PostReadOptions{})
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(visible) != 2 {
		t.Fatalf("expected 2 published posts, got %d", len(visible))
	}
	if visible[0].Slug != "fresh-news" || visible[1].Slug != "old-news" {
		t.Fatalf("expected newest first, got %s then %s", visible[0].Slug, visible[1].Slug)
	}

	all, err := svc.List(context.Background(), interfaces.PostReadOptions{IncludeDrafts: true})
	if err != nil {
		t.Fatalf("list all posts: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(all))
	}

	drafts, err := svc.List(context.Background(), interfaces.PostReadOptions{Status: "draft"})
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(drafts) != 1 || drafts[0].Slug != "wip" {
		t.Fatalf("expected draft wip, got %+v", drafts)
	}

	tagged, err := svc.List(context.Background(), interfaces.PostReadOptions{Tag: "Go"})
	if err != nil {
		t.Fatalf("list tagged: %v", err)
	}
	if len(tagged) != 1 || tagged[0].Slug != "old-news" {
		t.Fatalf("expected tagged old-news, got %+v", tagged)
	}
}

func TestPostServiceListLocaleFallback(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	svc := posts.NewService(store, newLocaleStore(), posts.WithClock(fixedClock))

	if _, err := svc.Create(context.Background(), interfaces.PostCreateRequest{
		Slug:         "english-only",
		Status:       "published",
		Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: "English", Body: "B"}},
	}); err != nil {
		t.Fatalf("create post: %v", err)
	}

	withFallback, err := svc.List(context.Background(), interfaces.PostReadOptions{Locale: "es", FallbackLocale: "en"})
	if err != nil {
		t.Fatalf("list with fallback: %v", err)
	}
	if len(withFallback) != 1 {
		t.Fatalf("expected fallback hit, got %d records", len(withFallback))
	}
	if withFallback[0].Translation == nil || withFallback[0].Translation.Locale != "en" {
		t.Fatalf("expected en fallback translation, got %+v", withFallback[0].Translation)
	}

	strict, err := svc.List(context.Background(), interfaces.PostReadOptions{Locale: "es"})
	if err != nil {
		t.Fatalf("list strict locale: %v", err)
	}
	if len(strict) != 0 {
		t.Fatalf("expected no matches without fallback, got %d", len(strict))
	}
}

func TestPostServiceVersionCaptureAndRestore(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	svc := posts.NewService(store, newLocaleStore(),
		posts.WithClock(fixedClock),
		posts.WithVersioningEnabled(true),
	)

	created, err := svc.Create(context.Background(), interfaces.PostCreateRequest{
		Slug:         "revisable",
		Tags:         []string{"History"},
		Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: "Original", Body: "v1"}},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if _, err := svc.Update(context.Background(), interfaces.PostUpdateRequest{
		ID:           created.ID,
		Status:       "draft",
		Tags:         []string{"History"},
		Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: "Revised", Body: "v2"}},
	}); err != nil {
		t.Fatalf("update post: %v", err)
	}

	versions, err := svc.ListVersions(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions))
	}
	if versions[0].Version != 1 || versions[1].Version != 2 {
		t.Fatalf("expected versions 1,2 got %d,%d", versions[0].Version, versions[1].Version)
	}
	if versions[0].Snapshot.Translations[0].Title != "Original" {
		t.Fatalf("expected v1 snapshot title Original, got %q", versions[0].Snapshot.Translations[0].Title)
	}

	restored, err := svc.RestoreVersion(context.Background(), posts.RestoreVersionRequest{
		PostID:  created.ID,
		Version: 1,
	})
	if err != nil {
		t.Fatalf("restore version: %v", err)
	}
	if restored.Translation == nil || restored.Translation.Title != "Original" {
		t.Fatalf("expected restored title Original, got %+v", restored.Translation)
	}

	after, err := svc.ListVersions(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("list versions after restore: %v", err)
	}
	if len(after) != 3 {
		t.Fatalf("expected restore to append version 3, got %d versions", len(after))
	}
}

func TestPostServiceVersionRetention(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	svc := posts.NewService(store, newLocaleStore(),
		posts.WithClock(fixedClock),
		posts.WithVersioningEnabled(true),
		posts.WithVersionRetentionLimit(2),
	)

	created, err := svc.Create(context.Background(), interfaces.PostCreateRequest{
		Slug:         "trimmed",
		Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: "v1", Body: "b1"}},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	for i, title := range []string{"v2", "v3"} {
		if _, err := svc.Update(context.Background(), interfaces.PostUpdateRequest{
			ID:           created.ID,
			Status:       "draft",
			Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: title, Body: "b"}},
		}); err != nil {
			t.Fatalf("update %d: %v", i+2, err)
		}
	}

	versions, err := svc.ListVersions(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected retention to keep 2 versions, got %d", len(versions))
	}
	if versions[0].Version != 2 || versions[1].Version != 3 {
		t.Fatalf("expected versions 2,3 got %d,%d", versions[0].Version, versions[1].Version)
	}
}

func TestPostServiceVersioningDisabled(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	svc := posts.NewService(store, newLocaleStore(), posts.WithClock(fixedClock))

	if _, err := svc.ListVersions(context.Background(), uuid.New()); !errors.Is(err, posts.ErrVersioningDisabled) {
		t.Fatalf("expected ErrVersioningDisabled, got %v", err)
	}
	if _, err := svc.RestoreVersion(context.Background(), posts.RestoreVersionRequest{PostID: uuid.New(), Version: 1}); !errors.Is(err, posts.ErrVersioningDisabled) {
		t.Fatalf("expected ErrVersioningDisabled, got %v", err)
	}
}

func TestPostServiceSoftDeleteHidesPost(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	svc := posts.NewService(store, newLocaleStore(), posts.WithClock(fixedClock))

	created, err := svc.Create(context.Background(), interfaces.PostCreateRequest{
		Slug:         "ephemeral",
		Status:       "published",
		Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: "T", Body: "B"}},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if err := svc.Delete(context.Background(), interfaces.PostDeleteRequest{ID: created.ID}); err != nil {
		t.Fatalf("delete post: %v", err)
	}

	if _, err := svc.GetBySlug(context.Background(), "ephemeral", interfaces.PostReadOptions{}); !errors.Is(err, interfaces.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}

	records, err := svc.List(context.Background(), interfaces.PostReadOptions{IncludeDrafts: true})
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no posts after delete, got %d", len(records))
	}
}

func TestPostServiceEmitsActivity(t *testing.T) {
	store := posts.NewMemoryPostRepository()
	hook := &activity.CaptureHook{}
	emitter := activity.NewEmitter(activity.Hooks{hook}, activity.Config{Enabled: true, Channel: "press"})
	svc := posts.NewService(store, newLocaleStore(),
		posts.WithClock(fixedClock),
		posts.WithActivityEmitter(emitter),
	)

	actor := uuid.New()
	created, err := svc.Create(context.Background(), interfaces.PostCreateRequest{
		Slug:         "observed",
		CreatedBy:    actor,
		Translations: []interfaces.PostTranslationInput{{Locale: "en", Title: "T", Body: "B"}},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if _, err := svc.Publish(context.Background(), posts.PublishRequest{PostID: created.ID, PublishedBy: actor}); err != nil {
		t.Fatalf("publish post: %v", err)
	}

	if len(hook.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(hook.Events))
	}
	if hook.Events[0].Verb != "create" || hook.Events[1].Verb != "publish" {
		t.Fatalf("expected create,publish got %s,%s", hook.Events[0].Verb, hook.Events[1].Verb)
	}
	if hook.Events[0].ObjectType != "post" || hook.Events[0].ObjectID != created.ID.String() {
		t.Fatalf("unexpected event object: %+v", hook.Events[0])
	}
	if hook.Events[0].ActorID != actor.String() {
		t.Fatalf("expected actor %s, got %s", actor, hook.Events[0].ActorID)
	}
	if hook.Events[0].Channel != "press" {
		t.Fatalf("expected channel press, got %q", hook.Events[0].Channel)
	}
}
