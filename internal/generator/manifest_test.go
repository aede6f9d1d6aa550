package generator

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestManifestMarshalParseRoundTrip(t *testing.T) {
	manifest := newBuildManifest()
	manifest.GeneratedAt = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	pageID := uuid.New()
	manifest.setPage(manifestPage{
		PageID:   pageID.String(),
		Kind:     string(PageKindPost),
		Locale:   "en",
		Route:    "/en/hello/",
		Output:   "dist/en/hello/index.html",
		Hash:     "hash-1",
		Checksum: "sum-1",
	})
	manifest.setAsset(manifestAsset{
		Theme:    "default",
		Source:   "css/site.css",
		Output:   "dist/assets/css/site.css",
		Checksum: "sum-css",
		Size:     42,
	})

	data, err := manifest.marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	parsed, err := parseManifest(data)
	if err != nil {
		t.Fatalf("parseManifest: %v", err)
	}
	if parsed.Version != manifestFileVersion {
		t.Fatalf("expected version %d, got %d", manifestFileVersion, parsed.Version)
	}
	if !parsed.GeneratedAt.Equal(manifest.GeneratedAt) {
		t.Fatalf("expected generated_at %v, got %v", manifest.GeneratedAt, parsed.GeneratedAt)
	}

	entry, ok := parsed.lookupPage(pageID, "en")
	if !ok {
		t.Fatal("expected page entry after round trip")
	}
	if entry.Hash != "hash-1" || entry.Output != "dist/en/hello/index.html" {
		t.Fatalf("unexpected page entry %+v", entry)
	}
	if !parsed.shouldSkipPage(pageID, "en", "hash-1", "dist/en/hello/index.html") {
		t.Fatal("expected unchanged page to be skippable")
	}

	asset, ok := parsed.lookupAsset("default", "css/site.css")
	if !ok {
		t.Fatal("expected asset entry after round trip")
	}
	if asset.Checksum != "sum-css" || asset.Size != 42 {
		t.Fatalf("unexpected asset entry %+v", asset)
	}
	if !parsed.shouldSkipAsset("default", "css/site.css", "sum-css", "dist/assets/css/site.css") {
		t.Fatal("expected unchanged asset to be skippable")
	}
}

func TestParseManifestEmptyInput(t *testing.T) {
	manifest, err := parseManifest(nil)
	if err != nil {
		t.Fatalf("parseManifest: %v", err)
	}
	if manifest.Version != manifestFileVersion {
		t.Fatalf("expected version %d, got %d", manifestFileVersion, manifest.Version)
	}
	if manifest.Pages == nil || manifest.Assets == nil {
		t.Fatal("expected initialized lookup maps")
	}
}
