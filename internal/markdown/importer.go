package markdown

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/goliatone/go-slug"
	"github.com/google/uuid"

	"github.com/goliatone/go-press/internal/domain"
	"github.com/goliatone/go-press/internal/identity"
	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/pkg/interfaces"
)

var (
	ErrPostServiceRequired = errors.New("markdown importer: post service is required")
	ErrSlugMissing         = errors.New("markdown importer: slug could not be determined")
	ErrLocaleMissing       = errors.New("markdown importer: locale could not be determined")
	ErrInvalidStatus       = errors.New("markdown importer: invalid status")
	ErrInvalidFrontMatter  = errors.New("markdown importer: invalid front matter")
)

// MetadataValidator checks front-matter payloads before anything is written.
type MetadataValidator interface {
	ValidatePayload(payload map[string]any) error
}

// ImporterConfig encapsulates dependencies required to persist markdown documents.
type ImporterConfig struct {
	Posts  interfaces.PostService
	Logger interfaces.Logger
	Slugs  slug.Normalizer
	// Metadata, when set, validates each document's front matter against the
	// metadata schema before the group is persisted.
	Metadata MetadataValidator
}

// Importer converts markdown documents into posts. Documents sharing a slug
// become translations of a single post.
type Importer struct {
	posts    interfaces.PostService
	logger   interfaces.Logger
	slugs    slug.Normalizer
	metadata MetadataValidator
}

// NewImporter builds an Importer from the supplied configuration.
func NewImporter(cfg ImporterConfig) *Importer {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	normalizer := cfg.Slugs
	if normalizer == nil {
		normalizer = slug.Default()
	}
	return &Importer{
		posts:    cfg.Posts,
		logger:   logger,
		slugs:    normalizer,
		metadata: cfg.Metadata,
	}
}

// ImportDocument imports a single markdown document.
func (i *Importer) ImportDocument(ctx context.Context, doc *interfaces.Document, opts interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	return i.ImportDocuments(ctx, []*interfaces.Document{doc}, opts)
}

// ImportDocuments imports an arbitrary slice of documents, grouping them by slug.
func (i *Importer) ImportDocuments(ctx context.Context, docs []*interfaces.Document, opts interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	if i.posts == nil {
		return nil, ErrPostServiceRequired
	}

	grouped, err := i.groupBySlug(docs)
	if err != nil {
		return nil, err
	}

	acc := newImportAccumulator()
	for _, slugKey := range sortedKeys(grouped) {
		group := sortDocuments(grouped[slugKey])
		if err := i.applyGroup(ctx, slugKey, group, opts, true, acc); err != nil {
			acc.addError(err)
		}
	}
	return acc.result(), firstError(acc.errors)
}

// SyncDocuments imports all provided documents and optionally deletes posts
// whose source files have disappeared.
func (i *Importer) SyncDocuments(ctx context.Context, docs []*interfaces.Document, opts interfaces.SyncOptions) (*interfaces.SyncResult, error) {
	if i.posts == nil {
		return nil, ErrPostServiceRequired
	}

	grouped, err := i.groupBySlug(docs)
	if err != nil {
		return nil, err
	}

	acc := newSyncAccumulator()
	for _, slugKey := range sortedKeys(grouped) {
		group := sortDocuments(grouped[slugKey])
		res := newImportAccumulator()
		if err := i.applyGroup(ctx, slugKey, group, opts.ImportOptions, opts.UpdateExisting, res); err != nil {
			res.addError(err)
		}
		acc.merge(res.result())
	}

	if opts.DeleteOrphaned {
		if err := i.deleteOrphaned(ctx, grouped, opts, acc); err != nil {
			acc.addError(err)
		}
	}

	return acc.result(), firstError(acc.errors)
}

func (i *Importer) applyGroup(ctx context.Context, slugKey string, docs []*interfaces.Document, opts interfaces.ImportOptions, updateExisting bool, acc *importAccumulator) error {
	if slugKey == "" {
		return ErrSlugMissing
	}

	status, err := selectStatus(docs)
	if err != nil {
		return err
	}

	translations := make([]interfaces.PostTranslationInput, 0, len(docs))
	titleFallback := fallbackTitle(slugKey)
	var tags []string

	for _, doc := range docs {
		if err := validateDocument(doc); err != nil {
			return err
		}
		if err := i.validateMetadata(doc); err != nil {
			return err
		}

		title := strings.TrimSpace(doc.FrontMatter.Title)
		if title == "" {
			title = titleFallback
		}

		tags = append(tags, doc.FrontMatter.Tags...)
		translations = append(translations, interfaces.PostTranslationInput{
			Locale:      doc.Locale,
			Title:       title,
			TLDR:        doc.FrontMatter.TLDR,
			Description: doc.FrontMatter.Description,
			Body:        string(doc.Body),
			BodyHTML:    string(doc.BodyHTML),
			Metadata:    translationMetadata(doc),
		})
	}

	layout := strings.TrimSpace(opts.Layout)
	if layout == "" {
		layout = selectLayout(docs)
	}

	checksum := groupChecksum(docs)
	publishAt := selectPublishAt(status, docs)
	sourcePath := docs[0].FilePath

	existing, err := i.posts.GetBySlug(ctx, slugKey, interfaces.PostReadOptions{IncludeDrafts: true})
	if err != nil && !errors.Is(err, interfaces.ErrPostNotFound) {
		return fmt.Errorf("markdown importer: post lookup %s: %w", slugKey, err)
	}

	if existing == nil {
		if opts.DryRun {
			acc.skip(identity.PostUUID(slugKey))
			return nil
		}

		record, createErr := i.posts.Create(ctx, interfaces.PostCreateRequest{
			Slug:         slugKey,
			Status:       string(status),
			Layout:       layout,
			Tags:         dedupeTags(tags),
			SourcePath:   sourcePath,
			Checksum:     checksum,
			PublishAt:    publishAt,
			CreatedBy:    opts.AuthorID,
			UpdatedBy:    opts.AuthorID,
			Translations: translations,
		})
		if createErr != nil {
			return fmt.Errorf("markdown importer: create post %s: %w", slugKey, createErr)
		}
		logging.WithSourceContext(i.logger, sourcePath, "", "create").Info("importer.post_created", "slug", slugKey)
		acc.created(record.ID)
		return nil
	}

	if bytes.Equal(existing.Checksum, checksum) {
		acc.skip(existing.ID)
		return nil
	}

	if !updateExisting || opts.DryRun {
		acc.skip(existing.ID)
		return nil
	}

	updated, updateErr := i.posts.Update(ctx, interfaces.PostUpdateRequest{
		ID:           existing.ID,
		Status:       string(status),
		Layout:       layout,
		Tags:         dedupeTags(tags),
		SourcePath:   sourcePath,
		Checksum:     checksum,
		PublishAt:    publishAt,
		UpdatedBy:    opts.AuthorID,
		Translations: translations,
	})
	if updateErr != nil {
		return fmt.Errorf("markdown importer: update post %s: %w", slugKey, updateErr)
	}
	logging.WithSourceContext(i.logger, sourcePath, "", "update").Info("importer.post_updated", "slug", slugKey)
	acc.updated(updated.ID)
	return nil
}

// deleteOrphaned removes file-managed posts whose slug no longer appears in
// the synced document set. Posts without a source path were created through
// the API and are never the syncer's to delete.
func (i *Importer) deleteOrphaned(ctx context.Context, groups map[string][]*interfaces.Document, opts interfaces.SyncOptions, acc *syncAccumulator) error {
	existing, err := i.posts.List(ctx, interfaces.PostReadOptions{IncludeDrafts: true})
	if err != nil {
		return fmt.Errorf("markdown importer: list posts: %w", err)
	}

	for _, record := range existing {
		if _, ok := groups[record.Slug]; ok {
			continue
		}
		if strings.TrimSpace(record.SourcePath) == "" {
			continue
		}
		if opts.DryRun {
			acc.deleted++
			continue
		}
		if err := i.posts.Delete(ctx, interfaces.PostDeleteRequest{
			ID:         record.ID,
			DeletedBy:  opts.AuthorID,
			HardDelete: true,
		}); err != nil {
			return fmt.Errorf("markdown importer: delete post %s: %w", record.Slug, err)
		}
		logging.WithSourceContext(i.logger, record.SourcePath, "", "delete").Info("importer.post_deleted", "slug", record.Slug)
		acc.deleted++
	}

	return nil
}

// documentSlug resolves the slug for a document: an explicit `slug` metadata
// field wins, otherwise the file name stem is normalized.
func (i *Importer) documentSlug(doc *interfaces.Document) (string, error) {
	if doc == nil {
		return "", errors.New("markdown importer: nil document")
	}

	candidate := ""
	if raw, ok := doc.FrontMatter.Custom["slug"].(string); ok {
		candidate = strings.TrimSpace(raw)
	}
	if candidate == "" {
		base := path.Base(slashPath(doc.FilePath))
		candidate = strings.TrimSuffix(base, path.Ext(base))
	}
	if candidate == "" {
		return "", ErrSlugMissing
	}

	normalized, err := i.slugs.Normalize(candidate)
	if err != nil || normalized == "" {
		return "", fmt.Errorf("%w: %q", ErrSlugMissing, candidate)
	}
	return normalized, nil
}

func (i *Importer) groupBySlug(docs []*interfaces.Document) (map[string][]*interfaces.Document, error) {
	grouped := map[string][]*interfaces.Document{}
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		key, err := i.documentSlug(doc)
		if err != nil {
			return nil, err
		}
		grouped[key] = append(grouped[key], doc)
	}
	return grouped, nil
}

func slashPath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// validateMetadata runs the configured schema validator over the document's
// raw front-matter mapping. Documents without front matter validate as empty
// payloads, which the post metadata schema accepts.
func (i *Importer) validateMetadata(doc *interfaces.Document) error {
	if i.metadata == nil {
		return nil
	}
	payload, _ := jsonSafe(doc.FrontMatter.Raw).(map[string]any)
	if err := i.metadata.ValidatePayload(payload); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidFrontMatter, doc.FilePath, err)
	}
	return nil
}

// jsonSafe rewrites YAML-decoded values into JSON-compatible ones so the
// schema validator sees the types an author wrote. Native YAML timestamps
// become RFC3339 strings.
func jsonSafe(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.Format(time.RFC3339)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = jsonSafe(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for idx, item := range v {
			out[idx] = jsonSafe(item)
		}
		return out
	default:
		return v
	}
}

func validateDocument(doc *interfaces.Document) error {
	if doc == nil {
		return errors.New("markdown importer: nil document")
	}
	if strings.TrimSpace(doc.Locale) == "" {
		return ErrLocaleMissing
	}
	return nil
}

func sortDocuments(docs []*interfaces.Document) []*interfaces.Document {
	sort.SliceStable(docs, func(a, b int) bool {
		if docs[a].Locale != docs[b].Locale {
			return docs[a].Locale < docs[b].Locale
		}
		return docs[a].FilePath < docs[b].FilePath
	})
	return docs
}

func sortedKeys[V any](input map[string]V) []string {
	keys := make([]string, 0, len(input))
	for key := range input {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func fallbackTitle(slugKey string) string {
	words := strings.FieldsFunc(slugKey, func(r rune) bool {
		return r == '-' || r == '_'
	})
	if len(words) == 0 {
		return "Untitled"
	}
	for idx, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[idx] = string(runes)
	}
	return strings.Join(words, " ")
}

// selectStatus picks the first explicit status declared across the group,
// defaulting to draft. Unknown statuses fail the group instead of silently
// publishing or hiding content.
func selectStatus(docs []*interfaces.Document) (domain.Status, error) {
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		raw, ok := doc.FrontMatter.Custom["status"].(string)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		status := domain.NormalizeStatus(raw)
		if !status.IsValid() {
			return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
		}
		return status, nil
	}
	return domain.StatusDraft, nil
}

func selectLayout(docs []*interfaces.Document) string {
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if layout := strings.TrimSpace(doc.FrontMatter.Layout); layout != "" {
			return layout
		}
	}
	return ""
}

// selectPublishAt surfaces the authored date as the publish timestamp for
// posts that arrive already published or scheduled.
func selectPublishAt(status domain.Status, docs []*interfaces.Document) *time.Time {
	if status != domain.StatusPublished && status != domain.StatusScheduled {
		return nil
	}
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if !doc.FrontMatter.Date.IsZero() {
			date := doc.FrontMatter.Date
			return &date
		}
	}
	return nil
}

func dedupeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func translationMetadata(doc *interfaces.Document) map[string]any {
	return map[string]any{
		"source_path": doc.FilePath,
		"checksum":    hex.EncodeToString(doc.Checksum),
		"custom":      doc.FrontMatter.Custom,
	}
}

// groupChecksum folds the per-locale checksums into one digest so repeat
// syncs can skip unchanged groups with a single comparison.
func groupChecksum(docs []*interfaces.Document) []byte {
	lines := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		lines = append(lines, doc.Locale+":"+hex.EncodeToString(doc.Checksum))
	}
	sort.Strings(lines)
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return sum[:]
}

type importAccumulator struct {
	createdIDs []uuid.UUID
	updatedIDs []uuid.UUID
	skippedIDs []uuid.UUID
	errors     []error
}

func newImportAccumulator() *importAccumulator {
	return &importAccumulator{
		createdIDs: []uuid.UUID{},
		updatedIDs: []uuid.UUID{},
		skippedIDs: []uuid.UUID{},
		errors:     []error{},
	}
}

func (a *importAccumulator) created(id uuid.UUID) {
	if id != uuid.Nil {
		a.createdIDs = append(a.createdIDs, id)
	}
}

func (a *importAccumulator) updated(id uuid.UUID) {
	if id != uuid.Nil {
		a.updatedIDs = append(a.updatedIDs, id)
	}
}

func (a *importAccumulator) skip(id uuid.UUID) {
	if id != uuid.Nil {
		a.skippedIDs = append(a.skippedIDs, id)
	}
}

func (a *importAccumulator) addError(err error) {
	if err != nil {
		a.errors = append(a.errors, err)
	}
}

func (a *importAccumulator) result() *interfaces.ImportResult {
	return &interfaces.ImportResult{
		CreatedPostIDs: a.createdIDs,
		UpdatedPostIDs: a.updatedIDs,
		SkippedPostIDs: a.skippedIDs,
		Errors:         a.errors,
	}
}

type syncAccumulator struct {
	created int
	updated int
	deleted int
	skipped int
	errors  []error
}

func newSyncAccumulator() *syncAccumulator {
	return &syncAccumulator{
		errors: []error{},
	}
}

func (s *syncAccumulator) merge(res *interfaces.ImportResult) {
	if res == nil {
		return
	}
	s.created += len(res.CreatedPostIDs)
	s.updated += len(res.UpdatedPostIDs)
	s.skipped += len(res.SkippedPostIDs)
	s.errors = append(s.errors, res.Errors...)
}

func (s *syncAccumulator) addError(err error) {
	if err != nil {
		s.errors = append(s.errors, err)
	}
}

func (s *syncAccumulator) result() *interfaces.SyncResult {
	return &interfaces.SyncResult{
		Created: s.created,
		Updated: s.updated,
		Deleted: s.deleted,
		Skipped: s.skipped,
		Errors:  s.errors,
	}
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
