package generator

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	gotheme "github.com/goliatone/go-theme"
)

// AssetResolver resolves theme assets for copying into static outputs.
type AssetResolver interface {
	Open(ctx context.Context, asset string) (io.ReadCloser, error)
	ResolvePath(asset string) (string, error)
}

// NoOpAssetResolver skips asset resolution.
type NoOpAssetResolver struct{}

func (NoOpAssetResolver) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("generator: asset resolver not configured")
}

func (NoOpAssetResolver) ResolvePath(string) (string, error) {
	return "", fmt.Errorf("generator: asset resolver not configured")
}

// DirAssetResolver serves theme assets from a directory on disk.
type DirAssetResolver struct {
	fsys fs.FS
}

// NewDirAssetResolver builds a resolver rooted at the provided theme directory.
func NewDirAssetResolver(dir string) *DirAssetResolver {
	cleaned := filepath.Clean(strings.TrimSpace(dir))
	if cleaned == "" {
		cleaned = "."
	}
	return &DirAssetResolver{fsys: os.DirFS(cleaned)}
}

// NewFSAssetResolver builds a resolver over an arbitrary filesystem, useful
// for embedded themes and tests.
func NewFSAssetResolver(fsys fs.FS) *DirAssetResolver {
	return &DirAssetResolver{fsys: fsys}
}

func (r *DirAssetResolver) Open(_ context.Context, asset string) (io.ReadCloser, error) {
	normalized, err := normalizeAssetPath(asset)
	if err != nil {
		return nil, err
	}
	file, err := r.fsys.Open(normalized)
	if err != nil {
		return nil, fmt.Errorf("generator: open asset %s: %w", normalized, err)
	}
	return file, nil
}

func (r *DirAssetResolver) ResolvePath(asset string) (string, error) {
	return normalizeAssetPath(asset)
}

func normalizeAssetPath(asset string) (string, error) {
	normalized := path.Clean(strings.TrimLeft(filepath.ToSlash(strings.TrimSpace(asset)), "/"))
	if normalized == "" || normalized == "." || normalized == ".." || strings.HasPrefix(normalized, "../") {
		return "", fmt.Errorf("generator: invalid asset path %q", asset)
	}
	return normalized, nil
}

// collectThemeAssets lists the asset files declared by the selected theme
// manifest, with variant overrides merged over the base set.
func collectThemeAssets(selection *gotheme.Selection) []string {
	if selection == nil || selection.Manifest == nil {
		return nil
	}

	assets := selection.Manifest.Assets.Files
	if variant := strings.TrimSpace(selection.Variant); variant != "" {
		if v, ok := selection.Manifest.Variants[variant]; ok && len(v.Assets.Files) > 0 {
			merged := make(map[string]string, len(selection.Manifest.Assets.Files)+len(v.Assets.Files))
			for key, file := range selection.Manifest.Assets.Files {
				merged[key] = file
			}
			for key, file := range v.Assets.Files {
				merged[key] = file
			}
			assets = merged
		}
	}

	keys := make([]string, 0, len(assets))
	for key := range assets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	seen := map[string]struct{}{}
	var out []string
	for _, key := range keys {
		asset := strings.TrimPrefix(strings.TrimSpace(assets[key]), "/")
		if asset == "" {
			continue
		}
		if _, ok := seen[asset]; ok {
			continue
		}
		seen[asset] = struct{}{}
		out = append(out, filepath.ToSlash(asset))
	}
	return out
}

func detectAssetContentType(asset string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(asset), "."))
	switch ext {
	case "css":
		return "text/css"
	case "js":
		return "application/javascript"
	case "json":
		return "application/json"
	case "svg":
		return "image/svg+xml"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "ico":
		return "image/x-icon"
	case "woff":
		return "font/woff"
	case "woff2":
		return "font/woff2"
	default:
		return "application/octet-stream"
	}
}
