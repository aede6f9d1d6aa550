package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrPostNotFound is returned by post lookups when no record matches.
var ErrPostNotFound = errors.New("posts: not found")

// PostService abstracts the post service so markdown imports and generators
// can provision or update records without depending on internal
// implementations.
type PostService interface {
	Create(ctx context.Context, req PostCreateRequest) (*PostRecord, error)
	Update(ctx context.Context, req PostUpdateRequest) (*PostRecord, error)
	GetBySlug(ctx context.Context, slug string, opts PostReadOptions) (*PostRecord, error)
	List(ctx context.Context, opts PostReadOptions) ([]*PostRecord, error)
	Delete(ctx context.Context, req PostDeleteRequest) error
}

// PostReadOptions defines read-time filters and locale resolution behaviour.
type PostReadOptions struct {
	Locale         string
	FallbackLocale string
	Status         string
	Tag            string
	IncludeDrafts  bool
}

// PostCreateRequest captures the details required to create a post.
type PostCreateRequest struct {
	Slug         string
	Status       string
	Layout       string
	Tags         []string
	SourcePath   string
	Checksum     []byte
	PublishAt    *time.Time
	CreatedBy    uuid.UUID
	UpdatedBy    uuid.UUID
	Translations []PostTranslationInput
}

// PostUpdateRequest captures the mutable fields for an existing post.
type PostUpdateRequest struct {
	ID           uuid.UUID
	Status       string
	Layout       string
	Tags         []string
	SourcePath   string
	Checksum     []byte
	PublishAt    *time.Time
	UpdatedBy    uuid.UUID
	Translations []PostTranslationInput
}

// PostDeleteRequest captures the information required to remove a post. When
// HardDelete is false, implementations may opt for soft-deletion where
// supported.
type PostDeleteRequest struct {
	ID         uuid.UUID
	DeletedBy  uuid.UUID
	HardDelete bool
}

// PostTranslationInput represents localized fields provided during create/update.
type PostTranslationInput struct {
	Locale      string
	Title       string
	TLDR        string
	Description string
	Body        string
	BodyHTML    string
	Metadata    map[string]any
}

// PostRecord reflects the persisted state returned by the post service.
type PostRecord struct {
	ID          uuid.UUID
	Slug        string
	Status      string
	Layout      string
	Tags        []string
	SourcePath  string
	Checksum    []byte
	PublishAt   *time.Time
	PublishedAt *time.Time
	Translation *PostTranslationRecord
	UpdatedAt   time.Time
}

// PostTranslationRecord mirrors stored translation fields for one locale.
type PostTranslationRecord struct {
	ID          uuid.UUID
	Locale      string
	Title       string
	TLDR        string
	Description string
	Body        string
	BodyHTML    string
	Metadata    map[string]any
}
