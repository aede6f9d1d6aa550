package generator

import (
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/google/uuid"
)

func TestFeedDocumentsCapItems(t *testing.T) {
	svc := &service{cfg: Config{BaseURL: "https://example.test"}}
	locale := LocaleSpec{Code: "en", IsDefault: true}
	generated := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	buildCtx := &BuildContext{
		GeneratedAt:   generated,
		DefaultLocale: "en",
		Locales:       []LocaleSpec{locale},
	}
	for i := 0; i < maxFeedItems+20; i++ {
		publishedAt := generated.Add(-time.Duration(i) * time.Hour)
		record := &interfaces.PostRecord{
			ID:          uuid.New(),
			Slug:        fmt.Sprintf("post-%03d", i),
			PublishedAt: &publishedAt,
			Translation: &interfaces.PostTranslationRecord{
				Locale: "en",
				Title:  fmt.Sprintf("Post %03d", i),
			},
		}
		buildCtx.Pages = append(buildCtx.Pages, &PageData{
			Kind:   PageKindPost,
			ID:     record.ID,
			Route:  fmt.Sprintf("/en/post-%03d/", i),
			Locale: locale,
			Post:   record,
		})
	}

	docs := svc.buildFeedDocuments(buildCtx)
	if len(docs) != 1 {
		t.Fatalf("expected one feed document, got %d", len(docs))
	}

	items := docs[0].Items
	if len(items) != maxFeedItems {
		t.Fatalf("expected %d items, got %d", maxFeedItems, len(items))
	}
	if items[0].Title != "Post 000" {
		t.Fatalf("expected newest post first, got %q", items[0].Title)
	}
	oldestRetained := generated.Add(-time.Duration(maxFeedItems-1) * time.Hour)
	if !items[len(items)-1].PublishedAt.Equal(oldestRetained) {
		t.Fatalf("expected oldest retained item at %v, got %v", oldestRetained, items[len(items)-1].PublishedAt)
	}
}
