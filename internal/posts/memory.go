package posts

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryPostRepository is an in-memory post store for scaffolding/tests.
type MemoryPostRepository struct {
	mu        sync.RWMutex
	posts     map[uuid.UUID]*Post
	slugIndex map[string]uuid.UUID
	versions  map[uuid.UUID][]*PostVersion
}

var _ PostRepository = (*MemoryPostRepository)(nil)

// NewMemoryPostRepository constructs the repository.
func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{
		posts:     make(map[uuid.UUID]*Post),
		slugIndex: make(map[string]uuid.UUID),
		versions:  make(map[uuid.UUID][]*PostVersion),
	}
}

// Create inserts the supplied post aggregate.
func (m *MemoryPostRepository) Create(_ context.Context, record *Post) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := clonePost(record)
	m.posts[copied.ID] = copied
	m.slugIndex[postSlugKey(copied.Slug)] = copied.ID
	return clonePost(copied), nil
}

// GetByID retrieves a post by identifier. Soft-deleted posts are reported as
// missing to match the database-backed repository.
func (m *MemoryPostRepository) GetByID(_ context.Context, id uuid.UUID) (*Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.posts[id]
	if !ok || record.DeletedAt != nil {
		return nil, &NotFoundError{Resource: "post", Key: id.String()}
	}
	return clonePost(record), nil
}

// GetBySlug retrieves a post by slug.
func (m *MemoryPostRepository) GetBySlug(_ context.Context, slug string) (*Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.slugIndex[postSlugKey(slug)]
	if !ok {
		return nil, &NotFoundError{Resource: "post", Key: slug}
	}
	record := m.posts[id]
	if record == nil || record.DeletedAt != nil {
		return nil, &NotFoundError{Resource: "post", Key: slug}
	}
	return clonePost(record), nil
}

// List returns live posts matching the filter.
func (m *MemoryPostRepository) List(_ context.Context, filter ListFilter) ([]*Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Post, 0, len(m.posts))
	for _, record := range m.posts {
		if record == nil || record.DeletedAt != nil {
			continue
		}
		if filter.TagSlug != "" && !postHasTag(record, filter.TagSlug) {
			continue
		}
		out = append(out, clonePost(record))
	}
	return out, nil
}

// Update persists lifecycle and provenance changes for a post.
func (m *MemoryPostRepository) Update(_ context.Context, record *Post) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.posts[record.ID]
	if !ok {
		return nil, &NotFoundError{Resource: "post", Key: record.ID.String()}
	}

	updated := clonePost(current)
	updated.Status = record.Status
	updated.Layout = record.Layout
	updated.SourcePath = record.SourcePath
	updated.Checksum = cloneBytes(record.Checksum)
	updated.CurrentVersion = record.CurrentVersion
	updated.PublishAt = cloneTimePtr(record.PublishAt)
	updated.UnpublishAt = cloneTimePtr(record.UnpublishAt)
	updated.PublishedAt = cloneTimePtr(record.PublishedAt)
	updated.PublishedBy = cloneUUIDPtr(record.PublishedBy)
	updated.UpdatedBy = record.UpdatedBy
	updated.UpdatedAt = record.UpdatedAt
	if len(record.Translations) > 0 {
		updated.Translations = clonePostTranslations(record.Translations)
	}
	if len(record.TagLinks) > 0 {
		updated.TagLinks = clonePostTags(record.TagLinks)
	}

	m.posts[record.ID] = updated
	return clonePost(updated), nil
}

// ReplaceTranslations swaps the translations associated with a post.
func (m *MemoryPostRepository) ReplaceTranslations(_ context.Context, postID uuid.UUID, translations []*PostTranslation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.posts[postID]
	if !ok {
		return &NotFoundError{Resource: "post", Key: postID.String()}
	}
	record.Translations = clonePostTranslations(translations)
	return nil
}

// ReplaceTags swaps the tag links associated with a post.
func (m *MemoryPostRepository) ReplaceTags(_ context.Context, postID uuid.UUID, links []*PostTag) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.posts[postID]
	if !ok {
		return &NotFoundError{Resource: "post", Key: postID.String()}
	}
	record.TagLinks = clonePostTags(links)
	return nil
}

// Delete removes a post. Soft deletion keeps the record but hides it from
// lookups; hard deletion drops it with its versions.
func (m *MemoryPostRepository) Delete(_ context.Context, id uuid.UUID, hardDelete bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.posts[id]
	if !ok || record.DeletedAt != nil {
		return &NotFoundError{Resource: "post", Key: id.String()}
	}

	if !hardDelete {
		now := time.Now().UTC()
		record.DeletedAt = &now
		record.UpdatedAt = now
		delete(m.slugIndex, postSlugKey(record.Slug))
		return nil
	}

	delete(m.posts, id)
	delete(m.slugIndex, postSlugKey(record.Slug))
	delete(m.versions, id)
	return nil
}

// CreateVersion appends a version snapshot for a post.
func (m *MemoryPostRepository) CreateVersion(_ context.Context, version *PostVersion) (*PostVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cloned := clonePostVersion(version)
	queue := append([]*PostVersion{}, m.versions[cloned.PostID]...)
	queue = append(queue, cloned)
	sort.SliceStable(queue, func(a, b int) bool {
		return queue[a].Version < queue[b].Version
	})
	m.versions[cloned.PostID] = queue
	return clonePostVersion(cloned), nil
}

// ListVersions returns all recorded versions for a post, oldest first.
func (m *MemoryPostRepository) ListVersions(_ context.Context, postID uuid.UUID) ([]*PostVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clonePostVersions(m.versions[postID]), nil
}

// GetVersion retrieves a specific version number for a post.
func (m *MemoryPostRepository) GetVersion(_ context.Context, postID uuid.UUID, number int) (*PostVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, version := range m.versions[postID] {
		if version.Version == number {
			return clonePostVersion(version), nil
		}
	}
	return nil, &NotFoundError{Resource: "post version", Key: fmt.Sprintf("%s@%d", postID, number)}
}

// GetLatestVersion retrieves the most recent version of a post.
func (m *MemoryPostRepository) GetLatestVersion(_ context.Context, postID uuid.UUID) (*PostVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	queue := m.versions[postID]
	if len(queue) == 0 {
		return nil, &NotFoundError{Resource: "post version", Key: postID.String()}
	}
	return clonePostVersion(queue[len(queue)-1]), nil
}

// UpdateVersion mutates stored metadata for a post version.
func (m *MemoryPostRepository) UpdateVersion(_ context.Context, version *PostVersion) (*PostVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue := m.versions[version.PostID]
	for idx, existing := range queue {
		if existing == nil {
			continue
		}
		if existing.ID == version.ID {
			queue[idx] = clonePostVersion(version)
			m.versions[version.PostID] = queue
			return clonePostVersion(queue[idx]), nil
		}
	}
	return nil, &NotFoundError{Resource: "post version", Key: fmt.Sprintf("%s@%d", version.PostID, version.Version)}
}

// PruneVersions drops the oldest versions past the retention count.
func (m *MemoryPostRepository) PruneVersions(_ context.Context, postID uuid.UUID, keep int) error {
	if keep <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	queue := m.versions[postID]
	if len(queue) <= keep {
		return nil
	}
	m.versions[postID] = append([]*PostVersion{}, queue[len(queue)-keep:]...)
	return nil
}

// MemoryLocaleRepository stores locales by code.
type MemoryLocaleRepository struct {
	mu      sync.RWMutex
	locales map[string]*Locale
}

var _ LocaleRepository = (*MemoryLocaleRepository)(nil)

// NewMemoryLocaleRepository constructs the repository.
func NewMemoryLocaleRepository() *MemoryLocaleRepository {
	return &MemoryLocaleRepository{
		locales: make(map[string]*Locale),
	}
}

// Put inserts or replaces a locale.
func (m *MemoryLocaleRepository) Put(locale *Locale) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *locale
	m.locales[strings.ToLower(locale.Code)] = &copied
}

// GetByCode resolves a locale by code (case-insensitive).
func (m *MemoryLocaleRepository) GetByCode(_ context.Context, code string) (*Locale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.locales[strings.ToLower(code)]
	if !ok || loc.DeletedAt != nil {
		return nil, &NotFoundError{Resource: "locale", Key: code}
	}
	copied := *loc
	return &copied, nil
}

// List returns active locales ordered by code.
func (m *MemoryLocaleRepository) List(_ context.Context) ([]*Locale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Locale, 0, len(m.locales))
	for _, loc := range m.locales {
		if loc == nil || loc.DeletedAt != nil || !loc.IsActive {
			continue
		}
		copied := *loc
		out = append(out, &copied)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].Code < out[b].Code
	})
	return out, nil
}

func postSlugKey(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func postHasTag(record *Post, tagSlug string) bool {
	for _, link := range record.TagLinks {
		if link == nil || link.Tag == nil {
			continue
		}
		if link.Tag.Slug == tagSlug {
			return true
		}
	}
	return false
}

func clonePost(src *Post) *Post {
	if src == nil {
		return nil
	}
	copied := *src
	copied.Checksum = cloneBytes(src.Checksum)
	copied.PublishAt = cloneTimePtr(src.PublishAt)
	copied.UnpublishAt = cloneTimePtr(src.UnpublishAt)
	copied.PublishedAt = cloneTimePtr(src.PublishedAt)
	copied.PublishedBy = cloneUUIDPtr(src.PublishedBy)
	copied.DeletedAt = cloneTimePtr(src.DeletedAt)
	copied.Translations = clonePostTranslations(src.Translations)
	copied.TagLinks = clonePostTags(src.TagLinks)
	copied.Versions = nil
	return &copied
}

func clonePostTranslations(src []*PostTranslation) []*PostTranslation {
	if len(src) == 0 {
		return nil
	}
	out := make([]*PostTranslation, 0, len(src))
	for _, tr := range src {
		if tr == nil {
			continue
		}
		copied := *tr
		copied.TLDR = cloneStringPtr(tr.TLDR)
		copied.Description = cloneStringPtr(tr.Description)
		copied.Metadata = cloneMap(tr.Metadata)
		if tr.Locale != nil {
			locale := *tr.Locale
			copied.Locale = &locale
		}
		out = append(out, &copied)
	}
	return out
}

func clonePostTags(src []*PostTag) []*PostTag {
	if len(src) == 0 {
		return nil
	}
	out := make([]*PostTag, 0, len(src))
	for _, link := range src {
		if link == nil {
			continue
		}
		copied := *link
		if link.Tag != nil {
			tag := *link.Tag
			copied.Tag = &tag
		}
		out = append(out, &copied)
	}
	return out
}

func clonePostVersion(src *PostVersion) *PostVersion {
	if src == nil {
		return nil
	}
	copied := *src
	copied.PublishedAt = cloneTimePtr(src.PublishedAt)
	copied.PublishedBy = cloneUUIDPtr(src.PublishedBy)
	copied.Post = nil
	snapshot := src.Snapshot
	snapshot.Tags = append([]string(nil), src.Snapshot.Tags...)
	snapshot.Translations = append([]PostVersionTranslationSnapshot(nil), src.Snapshot.Translations...)
	snapshot.Metadata = cloneMap(src.Snapshot.Metadata)
	copied.Snapshot = snapshot
	return &copied
}

func clonePostVersions(src []*PostVersion) []*PostVersion {
	out := make([]*PostVersion, 0, len(src))
	for _, version := range src {
		if version == nil {
			continue
		}
		out = append(out, clonePostVersion(version))
	}
	return out
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneUUIDPtr(value *uuid.UUID) *uuid.UUID {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
