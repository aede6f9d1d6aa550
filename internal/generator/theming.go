package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gotheme "github.com/goliatone/go-theme"
)

// ThemingConfig selects the theme manifest applied to generated pages.
type ThemingConfig struct {
	Dir               string
	DefaultTheme      string
	DefaultVariant    string
	CSSVariablePrefix string
	PartialFallbacks  map[string]string
}

type themeManifestLoader interface {
	Load(themePath string) (*gotheme.Manifest, error)
}

type fsThemeManifestLoader struct{}

func (fsThemeManifestLoader) Load(themePath string) (*gotheme.Manifest, error) {
	cleaned := filepath.Clean(strings.TrimSpace(themePath))
	if cleaned == "" {
		return nil, fmt.Errorf("theme path required")
	}

	return gotheme.LoadDir(os.DirFS(cleaned), ".")
}

// themeSelector loads the configured theme manifest once and resolves
// go-theme selections for builds.
type themeSelector struct {
	registry *gotheme.MemoryRegistry
	loader   themeManifestLoader
	cfg      ThemingConfig

	mu       sync.Mutex
	manifest *gotheme.Manifest
}

func newThemeSelector(cfg ThemingConfig, loader themeManifestLoader) *themeSelector {
	if loader == nil {
		loader = fsThemeManifestLoader{}
	}
	return &themeSelector{
		registry: gotheme.NewRegistry(),
		loader:   loader,
		cfg:      cfg,
	}
}

// Selection resolves the active theme/variant pair. The variant argument
// overrides the configured default when non-empty.
func (s *themeSelector) Selection(variant string) (*gotheme.Selection, error) {
	manifest, err := s.ensureManifest()
	if err != nil {
		return nil, err
	}

	selector := gotheme.Selector{
		Registry:       s.registry,
		DefaultTheme:   manifest.Name,
		DefaultVariant: strings.TrimSpace(s.cfg.DefaultVariant),
	}

	resolvedVariant := strings.TrimSpace(variant)
	if resolvedVariant == "" {
		resolvedVariant = strings.TrimSpace(s.cfg.DefaultVariant)
	}

	selection, err := selector.Select(manifest.Name, resolvedVariant)
	if err != nil {
		return nil, fmt.Errorf("select theme %s: %w", manifest.Name, err)
	}
	return selection, nil
}

func (s *themeSelector) ensureManifest() (*gotheme.Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.manifest != nil {
		return s.manifest, nil
	}

	manifest, err := s.loader.Load(s.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("load theme manifest from %s: %w", s.cfg.Dir, err)
	}

	normalized := *manifest
	if name := strings.TrimSpace(s.cfg.DefaultTheme); name != "" && !strings.EqualFold(normalized.Name, name) {
		normalized.Name = name
	}
	if strings.TrimSpace(normalized.Name) == "" {
		return nil, fmt.Errorf("theme name required for manifest registration")
	}

	if err := s.registry.Register(&normalized); err != nil {
		return nil, fmt.Errorf("register theme manifest: %w", err)
	}
	s.manifest = &normalized
	return &normalized, nil
}
