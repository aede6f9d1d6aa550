package generator_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-press/internal/di"
	"github.com/goliatone/go-press/internal/generator"
	"github.com/goliatone/go-press/internal/runtimeconfig"
	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/google/uuid"
)

// The test drives the full container wiring: posts created through the
// service layer come out the other side as rendered artifacts.
func TestIntegrationBuildWithMemoryRepositories(t *testing.T) {
	ctx := context.Background()

	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Generator = true
	cfg.Generator.OutputDir = "dist"
	cfg.Generator.BaseURL = "https://example.test"
	cfg.Generator.GenerateSitemap = true
	// No theme manifest on disk for this test; skip theme resolution.
	cfg.Generator.ThemesDir = ""
	cfg.I18N.Locales = []string{"en", "es"}

	renderer := &integrationRenderer{}
	storage := newIntegrationStorage()

	container, err := di.NewContainer(cfg,
		di.WithTemplate(renderer),
		di.WithGeneratorStorage(storage),
	)
	if err != nil {
		t.Fatalf("build container: %v", err)
	}

	postsSvc := container.PostService()
	author := uuid.New()

	publishAt := time.Now().Add(-time.Hour)
	for _, seed := range []struct {
		slug  string
		en    string
		es    string
	}{
		{slug: "company", en: "Company", es: "Empresa"},
		{slug: "roadmap", en: "Roadmap", es: "Hoja de ruta"},
	} {
		if _, err := postsSvc.Create(ctx, interfaces.PostCreateRequest{
			Slug:      seed.slug,
			Status:    "published",
			PublishAt: &publishAt,
			CreatedBy: author,
			UpdatedBy: author,
			Translations: []interfaces.PostTranslationInput{
				{Locale: "en", Title: seed.en, Body: "english body"},
				{Locale: "es", Title: seed.es, Body: "cuerpo espanol"},
			},
		}); err != nil {
			t.Fatalf("create %s: %v", seed.slug, err)
		}
	}

	result, err := container.GeneratorService().Build(ctx, generator.BuildOptions{})
	if err != nil {
		t.Fatalf("integration build: %v", err)
	}
	if result == nil {
		t.Fatal("expected build result")
	}
	if result.PagesBuilt == 0 {
		t.Fatal("expected pages built")
	}
	if result.Duration == 0 {
		t.Fatal("expected non-zero duration")
	}

	pageWrites := 0
	for _, call := range storage.ExecCalls() {
		if call.Query != "generator.write" || len(call.Args) == 0 {
			continue
		}
		if path, ok := call.Args[0].(string); ok && strings.HasSuffix(path, "index.html") {
			pageWrites++
		}
	}
	// Two posts, an archive index, and per-locale copies.
	if pageWrites < 4 {
		t.Fatalf("expected at least 4 page writes, got %d", pageWrites)
	}
}

type integrationRenderer struct{}

var _ interfaces.TemplateRenderer = (*integrationRenderer)(nil)

func (integrationRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	return integrationRenderer{}.RenderTemplate(name, data, out...)
}

func (integrationRenderer) RenderTemplate(name string, data any, _ ...io.Writer) (string, error) {
	ctx, ok := data.(generator.TemplateContext)
	if !ok {
		return "", fmt.Errorf("unexpected template context %T", data)
	}
	return fmt.Sprintf("<html><body>%s-%s</body></html>", name, ctx.Page.Locale.Code), nil
}

func (integrationRenderer) RenderString(templateContent string, data any, out ...io.Writer) (string, error) {
	return integrationRenderer{}.RenderTemplate(templateContent, data, out...)
}

func (integrationRenderer) RegisterFilter(string, func(any, any) (any, error)) error {
	return nil
}

func (integrationRenderer) GlobalContext(any) error { return nil }

type integrationStorageCall struct {
	Query string
	Args  []any
}

type integrationStorage struct {
	mu    sync.Mutex
	execs []integrationStorageCall
	files map[string][]byte
}

var _ interfaces.StorageProvider = (*integrationStorage)(nil)

func newIntegrationStorage() *integrationStorage {
	return &integrationStorage{files: map[string][]byte{}}
}

func (s *integrationStorage) Query(_ context.Context, query string, args ...any) (interfaces.Rows, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if query == "generator.read" && len(args) > 0 {
		if path, ok := args[0].(string); ok {
			if data, exists := s.files[path]; exists {
				return &integrationRows{rows: [][]byte{data}}, nil
			}
		}
	}
	return &integrationRows{}, nil
}

func (s *integrationStorage) Exec(_ context.Context, query string, args ...any) (interfaces.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.execs = append(s.execs, integrationStorageCall{Query: query, Args: args})
	if query == "generator.write" && len(args) >= 2 {
		path, _ := args[0].(string)
		if reader, ok := args[1].(io.Reader); ok && path != "" {
			data, err := io.ReadAll(reader)
			if err != nil {
				return nil, err
			}
			s.files[path] = data
		}
	}
	return integrationResult{}, nil
}

func (s *integrationStorage) Transaction(ctx context.Context, fn func(tx interfaces.Transaction) error) error {
	return fn(integrationTx{storage: s, ctx: ctx})
}

func (s *integrationStorage) ExecCalls() []integrationStorageCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]integrationStorageCall(nil), s.execs...)
}

type integrationTx struct {
	storage *integrationStorage
	ctx     context.Context
}

func (t integrationTx) Query(ctx context.Context, query string, args ...any) (interfaces.Rows, error) {
	return t.storage.Query(ctx, query, args...)
}

func (t integrationTx) Exec(ctx context.Context, query string, args ...any) (interfaces.Result, error) {
	return t.storage.Exec(ctx, query, args...)
}

func (t integrationTx) Transaction(ctx context.Context, fn func(interfaces.Transaction) error) error {
	return t.storage.Transaction(ctx, fn)
}

func (integrationTx) Commit() error   { return nil }
func (integrationTx) Rollback() error { return nil }

type integrationRows struct {
	rows [][]byte
	idx  int
}

func (r *integrationRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *integrationRows) Scan(dest ...any) error {
	if len(dest) == 0 || r.idx == 0 || r.idx > len(r.rows) {
		return fmt.Errorf("scan out of range")
	}
	if target, ok := dest[0].(*[]byte); ok {
		*target = r.rows[r.idx-1]
		return nil
	}
	return fmt.Errorf("unsupported scan destination %T", dest[0])
}

func (r *integrationRows) Close() error { return nil }

type integrationResult struct{}

func (integrationResult) RowsAffected() (int64, error) { return 1, nil }
func (integrationResult) LastInsertId() (int64, error) { return 0, nil }
