package posts

import (
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func NewLocaleRepository(db *bun.DB) repository.Repository[*Locale] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Locale]{
		NewRecord: func() *Locale { return &Locale{} },
		GetID: func(l *Locale) uuid.UUID {
			return l.ID
		},
		SetID: func(l *Locale, id uuid.UUID) {
			l.ID = id
		},
		GetIdentifier: func() string {
			return "code"
		},
		GetIdentifierValue: func(l *Locale) string {
			return l.Code
		},
	})
}

func NewPostRepository(db *bun.DB) repository.Repository[*Post] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Post]{
		NewRecord: func() *Post { return &Post{} },
		GetID: func(p *Post) uuid.UUID {
			return p.ID
		},
		SetID: func(p *Post, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(p *Post) string {
			return p.Slug
		},
	})
}

func NewPostTranslationRepository(db *bun.DB) repository.Repository[*PostTranslation] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*PostTranslation]{
		NewRecord: func() *PostTranslation { return &PostTranslation{} },
		GetID: func(pt *PostTranslation) uuid.UUID {
			return pt.ID
		},
		SetID: func(pt *PostTranslation, id uuid.UUID) {
			pt.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(pt *PostTranslation) string {
			if pt == nil {
				return ""
			}
			return pt.ID.String()
		},
	})
}

func NewTagRepository(db *bun.DB) repository.Repository[*Tag] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Tag]{
		NewRecord: func() *Tag { return &Tag{} },
		GetID: func(t *Tag) uuid.UUID {
			return t.ID
		},
		SetID: func(t *Tag, id uuid.UUID) {
			t.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(t *Tag) string {
			return t.Slug
		},
	})
}

// NewPostVersionRepository creates a repository for PostVersion entities.
func NewPostVersionRepository(db *bun.DB) repository.Repository[*PostVersion] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*PostVersion]{
		NewRecord: func() *PostVersion { return &PostVersion{} },
		GetID: func(pv *PostVersion) uuid.UUID {
			return pv.ID
		},
		SetID: func(pv *PostVersion, id uuid.UUID) {
			pv.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(pv *PostVersion) string {
			if pv == nil {
				return ""
			}
			return pv.ID.String()
		},
	})
}
