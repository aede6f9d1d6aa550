package posts

import (
	"time"

	"github.com/goliatone/go-press/internal/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Locale represents a language the engine can store and publish posts in.
type Locale struct {
	bun.BaseModel `bun:"table:locales,alias:l"`

	ID         uuid.UUID      `bun:",pk,type:uuid"         json:"id"`
	Code       string         `bun:"code,notnull"          json:"code"`
	Display    string         `bun:"display_name,notnull"  json:"display_name"`
	NativeName *string        `bun:"native_name"           json:"native_name,omitempty"`
	IsActive   bool           `bun:"is_active,notnull,default:true"  json:"is_active"`
	IsDefault  bool           `bun:"is_default,notnull,default:false" json:"is_default"`
	Metadata   map[string]any `bun:"metadata,type:jsonb"   json:"metadata,omitempty"`
	DeletedAt  *time.Time     `bun:"deleted_at,nullzero"   json:"deleted_at,omitempty"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// Post is the canonical record for a blog entry. Localized fields live on
// PostTranslation; the post row carries identity, lifecycle, and provenance.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID             uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	Slug           string     `bun:"slug,notnull" json:"slug"`
	Status         string     `bun:"status,notnull,default:'draft'" json:"status"`
	Layout         string     `bun:"layout" json:"layout,omitempty"`
	SourcePath     string     `bun:"source_path" json:"source_path,omitempty"`
	Checksum       []byte     `bun:"checksum" json:"checksum,omitempty"`
	CurrentVersion int        `bun:"current_version,notnull,default:1" json:"current_version"`
	PublishAt      *time.Time `bun:"publish_at,nullzero" json:"publish_at,omitempty"`
	UnpublishAt    *time.Time `bun:"unpublish_at,nullzero" json:"unpublish_at,omitempty"`
	PublishedAt    *time.Time `bun:"published_at,nullzero" json:"published_at,omitempty"`
	PublishedBy    *uuid.UUID `bun:"published_by,type:uuid" json:"published_by,omitempty"`
	CreatedBy      uuid.UUID  `bun:"created_by,notnull,type:uuid" json:"created_by"`
	UpdatedBy      uuid.UUID  `bun:"updated_by,notnull,type:uuid" json:"updated_by"`
	DeletedAt      *time.Time `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Translations []*PostTranslation `bun:"rel:has-many,join:id=post_id" json:"translations,omitempty"`
	TagLinks     []*PostTag         `bun:"rel:has-many,join:id=post_id" json:"tag_links,omitempty"`
	Versions     []*PostVersion     `bun:"rel:has-many,join:id=post_id" json:"versions,omitempty"`

	EffectiveStatus domain.Status `bun:"-" json:"effective_status"`
	IsVisible       bool          `bun:"-" json:"is_visible"`
}

// PostTranslation stores the localized variant of a post for one locale.
type PostTranslation struct {
	bun.BaseModel `bun:"table:post_translations,alias:pt"`

	ID          uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	PostID      uuid.UUID      `bun:"post_id,notnull,type:uuid" json:"post_id"`
	LocaleID    uuid.UUID      `bun:"locale_id,notnull,type:uuid" json:"locale_id"`
	Title       string         `bun:"title,notnull" json:"title"`
	TLDR        *string        `bun:"tldr" json:"tldr,omitempty"`
	Description *string        `bun:"description" json:"description,omitempty"`
	Body        string         `bun:"body,notnull" json:"body"`
	BodyHTML    string         `bun:"body_html" json:"body_html,omitempty"`
	Metadata    map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	DeletedAt   *time.Time     `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt   time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Locale *Locale `bun:"rel:belongs-to,join:locale_id=id" json:"locale,omitempty"`
}

// Tag is a normalized label attached to posts.
type Tag struct {
	bun.BaseModel `bun:"table:tags,alias:t"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Slug      string    `bun:"slug,notnull" json:"slug"`
	Display   string    `bun:"display_name,notnull" json:"display_name"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// PostTag joins posts to tags. Position preserves the author order declared
// in front matter so listings and feeds can keep it.
type PostTag struct {
	bun.BaseModel `bun:"table:post_tags,alias:ptg"`

	PostID   uuid.UUID `bun:"post_id,pk,type:uuid" json:"post_id"`
	TagID    uuid.UUID `bun:"tag_id,pk,type:uuid" json:"tag_id"`
	Position int       `bun:"position,notnull,default:0" json:"position"`

	Tag *Tag `bun:"rel:belongs-to,join:tag_id=id" json:"tag,omitempty"`
}

// PostVersion captures an immutable snapshot of a post at mutation time.
type PostVersion struct {
	bun.BaseModel `bun:"table:post_versions,alias:pv"`

	ID          uuid.UUID           `bun:",pk,type:uuid" json:"id"`
	PostID      uuid.UUID           `bun:"post_id,notnull,type:uuid" json:"post_id"`
	Version     int                 `bun:"version,notnull" json:"version"`
	Status      domain.Status       `bun:"status,notnull,default:'draft'" json:"status"`
	Snapshot    PostVersionSnapshot `bun:"snapshot,type:jsonb,notnull" json:"snapshot"`
	CreatedBy   uuid.UUID           `bun:"created_by,notnull,type:uuid" json:"created_by"`
	CreatedAt   time.Time           `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	PublishedAt *time.Time          `bun:"published_at,nullzero" json:"published_at,omitempty"`
	PublishedBy *uuid.UUID          `bun:"published_by,type:uuid" json:"published_by,omitempty"`

	Post *Post `bun:"rel:belongs-to,join:post_id=id" json:"post,omitempty"`
}

// PostVersionSnapshot describes the persisted JSON snapshot for version history.
type PostVersionSnapshot struct {
	Slug         string                           `json:"slug"`
	Status       string                           `json:"status"`
	Layout       string                           `json:"layout,omitempty"`
	Tags         []string                         `json:"tags,omitempty"`
	SourcePath   string                           `json:"source_path,omitempty"`
	Translations []PostVersionTranslationSnapshot `json:"translations,omitempty"`
	Metadata     map[string]any                   `json:"metadata,omitempty"`
}

// PostVersionTranslationSnapshot encodes a localized payload captured in a version.
type PostVersionTranslationSnapshot struct {
	Locale      string         `json:"locale"`
	Title       string         `json:"title"`
	TLDR        string         `json:"tldr,omitempty"`
	Description string         `json:"description,omitempty"`
	Body        string         `json:"body"`
	BodyHTML    string         `json:"body_html,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}
