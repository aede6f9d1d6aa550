package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-press/internal/identity"
	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/goliatone/go-slug"
	gotheme "github.com/goliatone/go-theme"
	"github.com/google/uuid"
)

var (
	errPostsServiceRequired = errors.New("generator: posts service is required")
	errLocaleLookupRequired = errors.New("generator: locale lookup is required")
)

// PageKind identifies the flavor of a generated page.
type PageKind string

const (
	PageKindPost    PageKind = "post"
	PageKindArchive PageKind = "archive"
	PageKindTag     PageKind = "tag"
)

// TagSpec carries the slug and display label of a tag listing page.
type TagSpec struct {
	Slug  string
	Label string
}

// BuildContext aggregates the localized page data required to execute a static build.
type BuildContext struct {
	GeneratedAt   time.Time
	DefaultLocale string
	Locales       []LocaleSpec
	Pages         []*PageData
	Theme         *gotheme.Selection
	Options       BuildOptions
}

// LocaleSpec captures resolved locale information for a build.
type LocaleSpec struct {
	Code      string
	LocaleID  uuid.UUID
	IsDefault bool
}

// PageData encapsulates resolved dependencies for a page/locale combination.
type PageData struct {
	Kind     PageKind
	ID       uuid.UUID
	Route    string
	Layout   string
	Locale   LocaleSpec
	Post     *interfaces.PostRecord
	Posts    []*interfaces.PostRecord
	Tag      *TagSpec
	Metadata DependencyMetadata
}

// DependencyMetadata fingerprints the inputs of a page so incremental builds
// can skip pages whose sources did not change.
type DependencyMetadata struct {
	Sources      map[string]string
	Hash         string
	LastModified time.Time
}

func (s *service) loadContext(ctx context.Context, opts BuildOptions) (*BuildContext, error) {
	if s.deps.Posts == nil {
		return nil, errPostsServiceRequired
	}
	if s.deps.Locales == nil {
		return nil, errLocaleLookupRequired
	}

	locales, defaultLocale, err := s.resolveLocales(ctx, opts)
	if err != nil {
		return nil, err
	}

	var selection *gotheme.Selection
	if s.themes != nil {
		selection, err = s.themes.Selection("")
		if err != nil {
			return nil, fmt.Errorf("generator: resolve theme: %w", err)
		}
	}

	generatedAt := s.now()
	buildCtx := &BuildContext{
		GeneratedAt:   generatedAt,
		DefaultLocale: defaultLocale,
		Locales:       locales,
		Theme:         selection,
		Options:       opts,
	}

	subset := len(opts.PostIDs) > 0
	for _, locale := range locales {
		records, err := s.localePosts(ctx, locale, opts)
		if err != nil {
			return nil, err
		}

		for _, record := range records {
			buildCtx.Pages = append(buildCtx.Pages, s.postPage(locale, record, selection))
		}

		if subset {
			continue
		}

		buildCtx.Pages = append(buildCtx.Pages, s.archivePage(locale, records, selection, generatedAt))
		buildCtx.Pages = append(buildCtx.Pages, s.tagPages(locale, records, selection, generatedAt)...)
	}

	return buildCtx, nil
}

// localePosts resolves the post records rendered for one locale. Full builds
// list every effective-published post; subset builds fetch the requested IDs
// and drop records that lack a translation for the locale.
func (s *service) localePosts(ctx context.Context, locale LocaleSpec, opts BuildOptions) ([]*interfaces.PostRecord, error) {
	if len(opts.PostIDs) == 0 {
		records, err := s.deps.Posts.List(ctx, interfaces.PostReadOptions{Locale: locale.Code})
		if err != nil {
			return nil, fmt.Errorf("generator: list posts for locale %q: %w", locale.Code, err)
		}
		return records, nil
	}

	seen := make(map[uuid.UUID]struct{}, len(opts.PostIDs))
	records := make([]*interfaces.PostRecord, 0, len(opts.PostIDs))
	for _, id := range opts.PostIDs {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		record, err := s.deps.Posts.Get(ctx, id, interfaces.PostReadOptions{Locale: locale.Code})
		if err != nil {
			return nil, fmt.Errorf("generator: load post %s for locale %q: %w", id, locale.Code, err)
		}
		if record == nil || record.Translation == nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *service) postPage(locale LocaleSpec, record *interfaces.PostRecord, selection *gotheme.Selection) *PageData {
	layout := strings.TrimSpace(record.Layout)
	if layout == "" {
		layout = s.postLayout()
	}
	return &PageData{
		Kind:     PageKindPost,
		ID:       record.ID,
		Route:    s.routes.Post(locale, record.Slug),
		Layout:   layout,
		Locale:   locale,
		Post:     record,
		Metadata: postDependencyMetadata(record, selection),
	}
}

func (s *service) archivePage(locale LocaleSpec, records []*interfaces.PostRecord, selection *gotheme.Selection, generatedAt time.Time) *PageData {
	return &PageData{
		Kind:     PageKindArchive,
		ID:       identity.SitePageUUID("archive", "index"),
		Route:    s.routes.Home(locale),
		Layout:   s.indexLayout(),
		Locale:   locale,
		Posts:    records,
		Metadata: listingDependencyMetadata(records, selection, generatedAt),
	}
}

func (s *service) tagPages(locale LocaleSpec, records []*interfaces.PostRecord, selection *gotheme.Selection, generatedAt time.Time) []*PageData {
	labels := map[string]string{}
	members := map[string][]*interfaces.PostRecord{}
	for _, record := range records {
		for _, label := range record.Tags {
			tagSlug := tagSlug(label)
			if tagSlug == "" {
				continue
			}
			if _, ok := labels[tagSlug]; !ok {
				labels[tagSlug] = label
			}
			members[tagSlug] = append(members[tagSlug], record)
		}
	}

	slugs := make([]string, 0, len(labels))
	for tagSlug := range labels {
		slugs = append(slugs, tagSlug)
	}
	sort.Strings(slugs)

	pages := make([]*PageData, 0, len(slugs))
	for _, tagSlug := range slugs {
		pages = append(pages, &PageData{
			Kind:     PageKindTag,
			ID:       identity.SitePageUUID("tag", tagSlug),
			Route:    s.routes.Tag(locale, tagSlug),
			Layout:   s.tagLayout(),
			Locale:   locale,
			Posts:    members[tagSlug],
			Tag:      &TagSpec{Slug: tagSlug, Label: labels[tagSlug]},
			Metadata: listingDependencyMetadata(members[tagSlug], selection, generatedAt),
		})
	}
	return pages
}

func (s *service) resolveLocales(ctx context.Context, opts BuildOptions) ([]LocaleSpec, string, error) {
	defaultLocale := strings.ToLower(strings.TrimSpace(s.cfg.DefaultLocale))
	if defaultLocale == "" {
		defaultLocale = "en"
	}

	codes := make([]string, 0, len(s.cfg.Locales)+1)
	seen := map[string]struct{}{}
	appendCode := func(code string) {
		code = strings.ToLower(strings.TrimSpace(code))
		if code == "" {
			return
		}
		if _, ok := seen[code]; ok {
			return
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}

	if len(opts.Locales) > 0 {
		for _, code := range opts.Locales {
			appendCode(code)
		}
	} else {
		appendCode(defaultLocale)
		for _, code := range s.cfg.Locales {
			appendCode(code)
		}
	}
	if len(codes) == 0 {
		return nil, "", fmt.Errorf("generator: no locales resolved")
	}

	specs := make([]LocaleSpec, 0, len(codes))
	for _, code := range codes {
		locale, err := s.deps.Locales.GetByCode(ctx, code)
		if err != nil {
			return nil, "", fmt.Errorf("generator: resolve locale %q: %w", code, err)
		}
		specs = append(specs, LocaleSpec{
			Code:      locale.Code,
			LocaleID:  locale.ID,
			IsDefault: strings.EqualFold(locale.Code, defaultLocale),
		})
	}

	return reorderWithDefaultFirst(specs), defaultLocale, nil
}

func reorderWithDefaultFirst(specs []LocaleSpec) []LocaleSpec {
	sort.SliceStable(specs, func(i, j int) bool {
		if specs[i].IsDefault != specs[j].IsDefault {
			return specs[i].IsDefault
		}
		return specs[i].Code < specs[j].Code
	})
	return specs
}

func postDependencyMetadata(record *interfaces.PostRecord, selection *gotheme.Selection) DependencyMetadata {
	sources := map[string]string{
		"post": strings.Join([]string{
			record.ID.String(),
			record.Slug,
			record.Status,
			record.UpdatedAt.UTC().Format(time.RFC3339Nano),
			hex.EncodeToString(record.Checksum),
		}, "|"),
	}
	if record.Translation != nil {
		sources["translation"] = strings.Join([]string{
			record.Translation.ID.String(),
			record.Translation.Locale,
			record.Translation.Title,
		}, "|")
	}
	if len(record.Tags) > 0 {
		sources["tags"] = strings.Join(record.Tags, ",")
	}
	if themeSource := themeFingerprint(selection); themeSource != "" {
		sources["theme"] = themeSource
	}
	return DependencyMetadata{
		Sources:      sources,
		Hash:         hashSources(sources),
		LastModified: record.UpdatedAt,
	}
}

func listingDependencyMetadata(records []*interfaces.PostRecord, selection *gotheme.Selection, generatedAt time.Time) DependencyMetadata {
	sources := map[string]string{}
	lastModified := time.Time{}
	for _, record := range records {
		member := postDependencyMetadata(record, nil)
		sources["post:"+record.ID.String()] = member.Hash
		if record.UpdatedAt.After(lastModified) {
			lastModified = record.UpdatedAt
		}
	}
	if themeSource := themeFingerprint(selection); themeSource != "" {
		sources["theme"] = themeSource
	}
	if lastModified.IsZero() {
		lastModified = generatedAt
	}
	return DependencyMetadata{
		Sources:      sources,
		Hash:         hashSources(sources),
		LastModified: lastModified,
	}
}

func themeFingerprint(selection *gotheme.Selection) string {
	if selection == nil || selection.Manifest == nil {
		return ""
	}
	fingerprint := selection.Manifest.Name
	if selection.Manifest.Version != "" {
		fingerprint += "@" + selection.Manifest.Version
	}
	if selection.Variant != "" {
		fingerprint += "#" + selection.Variant
	}
	return fingerprint
}

func hashSources(sources map[string]string) string {
	if len(sources) == 0 {
		return ""
	}
	keys := make([]string, 0, len(sources))
	for key := range sources {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	hasher := sha256.New()
	for _, key := range keys {
		hasher.Write([]byte(key))
		hasher.Write([]byte{'='})
		hasher.Write([]byte(sources[key]))
		hasher.Write([]byte{'\n'})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func tagSlug(label string) string {
	normalized, err := slug.Normalize(label)
	if err != nil || normalized == "" {
		normalized = strings.ToLower(strings.TrimSpace(label))
		normalized = strings.ReplaceAll(normalized, " ", "-")
	}
	return normalized
}

func (s *service) postLayout() string {
	if layout := strings.TrimSpace(s.cfg.DefaultLayout); layout != "" {
		return layout
	}
	return "post"
}

func (s *service) indexLayout() string {
	if layout := strings.TrimSpace(s.cfg.IndexLayout); layout != "" {
		return layout
	}
	return "index"
}

func (s *service) tagLayout() string {
	if layout := strings.TrimSpace(s.cfg.TagLayout); layout != "" {
		return layout
	}
	return "tag"
}
