package posts

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunPostRepository persists post aggregates with bun. Queries for the post
// row go through go-repository-bun; translations and tag links are loaded in
// batched follow-up queries and child tables are maintained inside
// transactions.
type BunPostRepository struct {
	db           *bun.DB
	repo         repository.Repository[*Post]
	translations repository.Repository[*PostTranslation]
	tags         repository.Repository[*Tag]
	versions     repository.Repository[*PostVersion]
	locales      repository.Repository[*Locale]
}

var _ PostRepository = (*BunPostRepository)(nil)

func NewBunPostRepository(db *bun.DB) *BunPostRepository {
	return NewBunPostRepositoryWithCache(db, nil, nil)
}

// NewBunPostRepositoryWithCache constructs a PostRepository backed by bun with
// optional read-through caching.
func NewBunPostRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunPostRepository {
	return &BunPostRepository{
		db:           db,
		repo:         wrapWithCache(NewPostRepository(db), cacheService, keySerializer),
		translations: wrapWithCache(NewPostTranslationRepository(db), cacheService, keySerializer),
		tags:         wrapWithCache(NewTagRepository(db), cacheService, keySerializer),
		versions:     wrapWithCache(NewPostVersionRepository(db), cacheService, keySerializer),
		locales:      wrapWithCache(NewLocaleRepository(db), cacheService, keySerializer),
	}
}

// Create persists the post row together with its translations and tag links.
func (r *BunPostRepository) Create(ctx context.Context, record *Post) (*Post, error) {
	if r.db == nil {
		return nil, fmt.Errorf("post repository: database not configured")
	}
	if record == nil {
		return nil, fmt.Errorf("post repository: nil record")
	}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		if err := insertTranslationsTx(ctx, tx, record.ID, record.Translations); err != nil {
			return err
		}
		return replaceTagLinksTx(ctx, tx, record.ID, record.TagLinks)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *BunPostRepository) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	result, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapPostRepositoryError(err, "post", id.String())
	}
	if result.DeletedAt != nil {
		return nil, &NotFoundError{Resource: "post", Key: id.String()}
	}
	if err := r.loadAssociations(ctx, []*Post{result}); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *BunPostRepository) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.slug = ?", slug)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.deleted_at IS NULL")
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapPostRepositoryError(err, "post", slug)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "post", Key: slug}
	}
	if err := r.loadAssociations(ctx, records[:1]); err != nil {
		return nil, err
	}
	return records[0], nil
}

// List returns live posts, optionally narrowed to one tag slug. Ordering is
// left to callers since publish dates resolve against the clock.
func (r *BunPostRepository) List(ctx context.Context, filter ListFilter) ([]*Post, error) {
	liveOnly := repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.deleted_at IS NULL")
	})

	var (
		records []*Post
		err     error
	)
	if filter.TagSlug != "" {
		tagSlug := filter.TagSlug
		records, _, err = r.repo.List(ctx, liveOnly,
			repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where(
					"EXISTS (SELECT 1 FROM post_tags ptg JOIN tags t ON t.id = ptg.tag_id WHERE ptg.post_id = ?TableAlias.id AND t.slug = ?)",
					tagSlug,
				)
			}),
		)
	} else {
		records, _, err = r.repo.List(ctx, liveOnly)
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadAssociations(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *BunPostRepository) Update(ctx context.Context, record *Post) (*Post, error) {
	updated, err := r.repo.Update(ctx, record,
		repository.UpdateByID(record.ID.String()),
		repository.UpdateColumns(
			"status",
			"layout",
			"source_path",
			"checksum",
			"current_version",
			"publish_at",
			"unpublish_at",
			"published_at",
			"published_by",
			"updated_by",
			"updated_at",
		),
	)
	if err != nil {
		return nil, mapPostRepositoryError(err, "post", record.ID.String())
	}
	return updated, nil
}

func (r *BunPostRepository) ReplaceTranslations(ctx context.Context, postID uuid.UUID, translations []*PostTranslation) error {
	if r.db == nil {
		return fmt.Errorf("post repository: database not configured")
	}

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*PostTranslation)(nil)).
			Where("?TableAlias.post_id = ?", postID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete post translations: %w", err)
		}
		return insertTranslationsTx(ctx, tx, postID, translations)
	})
}

func (r *BunPostRepository) ReplaceTags(ctx context.Context, postID uuid.UUID, links []*PostTag) error {
	if r.db == nil {
		return fmt.Errorf("post repository: database not configured")
	}

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return replaceTagLinksTx(ctx, tx, postID, links)
	})
}

// Delete removes a post. Soft deletion stamps deleted_at so the row drops out
// of listings; hard deletion removes the aggregate including versions.
func (r *BunPostRepository) Delete(ctx context.Context, id uuid.UUID, hardDelete bool) error {
	if r.db == nil {
		return fmt.Errorf("post repository: database not configured")
	}

	if !hardDelete {
		now := time.Now().UTC()
		result, err := r.db.NewUpdate().
			Model((*Post)(nil)).
			Set("deleted_at = ?", now).
			Set("updated_at = ?", now).
			Where("?TableAlias.id = ?", id).
			Where("?TableAlias.deleted_at IS NULL").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("soft delete post: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("post delete rows affected: %w", err)
		}
		if affected == 0 {
			return &NotFoundError{Resource: "post", Key: id.String()}
		}
		return nil
	}

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*PostTranslation)(nil)).
			Where("?TableAlias.post_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete post translations: %w", err)
		}

		if _, err := tx.NewDelete().
			Model((*PostTag)(nil)).
			Where("?TableAlias.post_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete post tag links: %w", err)
		}

		if _, err := tx.NewDelete().
			Model((*PostVersion)(nil)).
			Where("?TableAlias.post_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete post versions: %w", err)
		}

		result, err := tx.NewDelete().
			Model((*Post)(nil)).
			Where("?TableAlias.id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("post delete rows affected: %w", err)
		}
		if affected == 0 {
			return &NotFoundError{Resource: "post", Key: id.String()}
		}
		return nil
	})
}

func (r *BunPostRepository) CreateVersion(ctx context.Context, version *PostVersion) (*PostVersion, error) {
	created, err := r.versions.Create(ctx, version)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *BunPostRepository) ListVersions(ctx context.Context, postID uuid.UUID) ([]*PostVersion, error) {
	records, _, err := r.versions.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.post_id = ?", postID)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.version ASC")
		}),
	)
	return records, err
}

func (r *BunPostRepository) GetVersion(ctx context.Context, postID uuid.UUID, number int) (*PostVersion, error) {
	records, _, err := r.versions.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.post_id = ?", postID).
				Where("?TableAlias.version = ?", number)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "post version", Key: fmt.Sprintf("%s@%d", postID, number)}
	}
	return records[0], nil
}

func (r *BunPostRepository) GetLatestVersion(ctx context.Context, postID uuid.UUID) (*PostVersion, error) {
	records, _, err := r.versions.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.post_id = ?", postID)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.version DESC")
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "post version", Key: postID.String()}
	}
	return records[0], nil
}

func (r *BunPostRepository) UpdateVersion(ctx context.Context, version *PostVersion) (*PostVersion, error) {
	updated, err := r.versions.Update(ctx, version,
		repository.UpdateByID(version.ID.String()),
		repository.UpdateColumns(
			"status",
			"published_at",
			"published_by",
		),
	)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// PruneVersions deletes the oldest versions past the retention count.
func (r *BunPostRepository) PruneVersions(ctx context.Context, postID uuid.UUID, keep int) error {
	if r.db == nil {
		return fmt.Errorf("post repository: database not configured")
	}
	if keep <= 0 {
		return nil
	}

	survivors := r.db.NewSelect().
		Model((*PostVersion)(nil)).
		Column("id").
		Where("?TableAlias.post_id = ?", postID).
		OrderExpr("?TableAlias.version DESC").
		Limit(keep)

	_, err := r.db.NewDelete().
		Model((*PostVersion)(nil)).
		Where("?TableAlias.post_id = ?", postID).
		Where("?TableAlias.id NOT IN (?)", survivors).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("prune post versions: %w", err)
	}
	return nil
}

// loadAssociations attaches translations (with their locales) and ordered tag
// links to the given posts in a fixed number of queries.
func (r *BunPostRepository) loadAssociations(ctx context.Context, records []*Post) error {
	if r.db == nil || len(records) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(records))
	byID := make(map[uuid.UUID]*Post, len(records))
	for _, record := range records {
		if record == nil {
			continue
		}
		record.Translations = nil
		record.TagLinks = nil
		ids = append(ids, record.ID)
		byID[record.ID] = record
	}
	if len(ids) == 0 {
		return nil
	}

	translations, _, err := r.translations.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.post_id IN (?)", bun.In(ids))
		}),
	)
	if err != nil {
		return fmt.Errorf("list post translations: %w", err)
	}

	if err := r.attachLocales(ctx, translations); err != nil {
		return err
	}
	for _, tr := range translations {
		if tr == nil {
			continue
		}
		if post, ok := byID[tr.PostID]; ok {
			post.Translations = append(post.Translations, tr)
		}
	}

	var links []*PostTag
	if err := r.db.NewSelect().
		Model(&links).
		Where("?TableAlias.post_id IN (?)", bun.In(ids)).
		OrderExpr("?TableAlias.position ASC").
		Scan(ctx); err != nil {
		return fmt.Errorf("list post tag links: %w", err)
	}

	if err := r.attachTags(ctx, links); err != nil {
		return err
	}
	for _, link := range links {
		if link == nil {
			continue
		}
		if post, ok := byID[link.PostID]; ok {
			post.TagLinks = append(post.TagLinks, link)
		}
	}

	return nil
}

func (r *BunPostRepository) attachLocales(ctx context.Context, translations []*PostTranslation) error {
	if len(translations) == 0 {
		return nil
	}

	seen := map[uuid.UUID]struct{}{}
	ids := make([]uuid.UUID, 0, len(translations))
	for _, tr := range translations {
		if tr == nil {
			continue
		}
		if _, ok := seen[tr.LocaleID]; ok {
			continue
		}
		seen[tr.LocaleID] = struct{}{}
		ids = append(ids, tr.LocaleID)
	}
	if len(ids) == 0 {
		return nil
	}

	locales, _, err := r.locales.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.id IN (?)", bun.In(ids))
		}),
	)
	if err != nil {
		return fmt.Errorf("list translation locales: %w", err)
	}

	byID := make(map[uuid.UUID]*Locale, len(locales))
	for _, loc := range locales {
		if loc != nil {
			byID[loc.ID] = loc
		}
	}
	for _, tr := range translations {
		if tr == nil {
			continue
		}
		tr.Locale = byID[tr.LocaleID]
	}
	return nil
}

func (r *BunPostRepository) attachTags(ctx context.Context, links []*PostTag) error {
	if len(links) == 0 {
		return nil
	}

	seen := map[uuid.UUID]struct{}{}
	ids := make([]uuid.UUID, 0, len(links))
	for _, link := range links {
		if link == nil {
			continue
		}
		if _, ok := seen[link.TagID]; ok {
			continue
		}
		seen[link.TagID] = struct{}{}
		ids = append(ids, link.TagID)
	}
	if len(ids) == 0 {
		return nil
	}

	tags, _, err := r.tags.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.id IN (?)", bun.In(ids))
		}),
	)
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}

	byID := make(map[uuid.UUID]*Tag, len(tags))
	for _, tag := range tags {
		if tag != nil {
			byID[tag.ID] = tag
		}
	}
	for _, link := range links {
		if link == nil {
			continue
		}
		link.Tag = byID[link.TagID]
	}
	return nil
}

func insertTranslationsTx(ctx context.Context, tx bun.Tx, postID uuid.UUID, translations []*PostTranslation) error {
	if len(translations) == 0 {
		return nil
	}

	now := time.Now().UTC()
	toInsert := make([]*PostTranslation, 0, len(translations))
	for _, tr := range translations {
		if tr == nil {
			continue
		}
		cloned := *tr
		cloned.PostID = postID
		if cloned.ID == uuid.Nil {
			cloned.ID = uuid.New()
		}
		if cloned.CreatedAt.IsZero() {
			cloned.CreatedAt = now
		}
		if cloned.UpdatedAt.IsZero() {
			cloned.UpdatedAt = now
		}
		toInsert = append(toInsert, &cloned)
	}
	if len(toInsert) == 0 {
		return nil
	}

	if _, err := tx.NewInsert().Model(&toInsert).Exec(ctx); err != nil {
		return fmt.Errorf("insert post translations: %w", err)
	}
	return nil
}

// replaceTagLinksTx rewrites the post's tag links, creating any tag rows that
// do not exist yet. Tag identifiers are deterministic, so two posts sharing a
// label converge on the same tag row.
func replaceTagLinksTx(ctx context.Context, tx bun.Tx, postID uuid.UUID, links []*PostTag) error {
	if _, err := tx.NewDelete().
		Model((*PostTag)(nil)).
		Where("?TableAlias.post_id = ?", postID).
		Exec(ctx); err != nil {
		return fmt.Errorf("delete post tag links: %w", err)
	}

	if len(links) == 0 {
		return nil
	}

	tagIDs := make([]uuid.UUID, 0, len(links))
	tagsByID := make(map[uuid.UUID]*Tag, len(links))
	for _, link := range links {
		if link == nil || link.Tag == nil {
			continue
		}
		if _, ok := tagsByID[link.TagID]; ok {
			continue
		}
		tagIDs = append(tagIDs, link.TagID)
		tagsByID[link.TagID] = link.Tag
	}

	if len(tagIDs) > 0 {
		var existing []uuid.UUID
		if err := tx.NewSelect().
			Model((*Tag)(nil)).
			Column("id").
			Where("?TableAlias.id IN (?)", bun.In(tagIDs)).
			Scan(ctx, &existing); err != nil {
			return fmt.Errorf("list existing tags: %w", err)
		}

		known := make(map[uuid.UUID]struct{}, len(existing))
		for _, id := range existing {
			known[id] = struct{}{}
		}

		now := time.Now().UTC()
		missing := make([]*Tag, 0, len(tagIDs))
		for _, id := range tagIDs {
			if _, ok := known[id]; ok {
				continue
			}
			tag := tagsByID[id]
			cloned := *tag
			cloned.ID = id
			if cloned.CreatedAt.IsZero() {
				cloned.CreatedAt = now
			}
			missing = append(missing, &cloned)
		}
		if len(missing) > 0 {
			if _, err := tx.NewInsert().Model(&missing).Exec(ctx); err != nil {
				return fmt.Errorf("insert tags: %w", err)
			}
		}
	}

	toInsert := make([]*PostTag, 0, len(links))
	for position, link := range links {
		if link == nil {
			continue
		}
		cloned := *link
		cloned.PostID = postID
		cloned.Position = position
		cloned.Tag = nil
		toInsert = append(toInsert, &cloned)
	}
	if len(toInsert) == 0 {
		return nil
	}

	if _, err := tx.NewInsert().Model(&toInsert).Exec(ctx); err != nil {
		return fmt.Errorf("insert post tag links: %w", err)
	}
	return nil
}

type BunLocaleRepository struct {
	repo repository.Repository[*Locale]
}

var _ LocaleRepository = (*BunLocaleRepository)(nil)

func NewBunLocaleRepository(db *bun.DB) *BunLocaleRepository {
	return NewBunLocaleRepositoryWithCache(db, nil, nil)
}

// NewBunLocaleRepositoryWithCache constructs a LocaleRepository with optional caching.
func NewBunLocaleRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunLocaleRepository {
	base := NewLocaleRepository(db)
	wrapped := wrapWithCache(base, cacheService, keySerializer)
	return &BunLocaleRepository{repo: wrapped}
}

func (r *BunLocaleRepository) GetByCode(ctx context.Context, code string) (*Locale, error) {
	result, err := r.repo.GetByIdentifier(ctx, code)
	if err != nil {
		return nil, mapPostRepositoryError(err, "locale", code)
	}
	if result.DeletedAt != nil {
		return nil, &NotFoundError{Resource: "locale", Key: code}
	}
	return result, nil
}

func (r *BunLocaleRepository) List(ctx context.Context) ([]*Locale, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.deleted_at IS NULL").
				Where("?TableAlias.is_active = TRUE")
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.code ASC")
		}),
	)
	return records, err
}

func mapPostRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
