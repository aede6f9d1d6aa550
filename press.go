// Package press is an embeddable markdown blog engine: filesystem markdown
// ingestion, localized post storage with versioning, timed publication, and a
// static site generator behind a single module facade.
package press

import (
	"context"

	"github.com/goliatone/go-press/internal/di"
	"github.com/goliatone/go-press/internal/generator"
	"github.com/goliatone/go-press/internal/jobs"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// PostService exports the post service contract for consumers of the press package.
type PostService = posts.Service

// MarkdownService exports the markdown ingestion contract.
type MarkdownService = interfaces.MarkdownService

// GeneratorService exports the static site generator contract.
type GeneratorService = generator.Service

// Scheduler exports the timed publication scheduler contract.
type Scheduler = interfaces.Scheduler

// Worker exports the timed publication worker.
type Worker = jobs.Worker

// Module represents the top level blog engine runtime facade.
type Module struct {
	container *di.Container
}

// New constructs a press module using the provided configuration and optional
// DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Posts returns the configured post service.
func (m *Module) Posts() PostService {
	return m.container.PostService()
}

// Markdown returns the markdown service when the markdown feature is enabled.
func (m *Module) Markdown() MarkdownService {
	return m.container.MarkdownService()
}

// Importer returns the service handling markdown imports. It is the markdown
// service under a task-oriented name.
func (m *Module) Importer() MarkdownService {
	return m.container.MarkdownService()
}

// Generator returns the configured generator service.
func (m *Module) Generator() GeneratorService {
	return m.container.GeneratorService()
}

// Scheduler returns the scheduler used for publish automation.
func (m *Module) Scheduler() Scheduler {
	return m.container.Scheduler()
}

// Worker returns the timed publication worker. Nil unless scheduling is
// enabled.
func (m *Module) Worker() *Worker {
	return m.container.Worker()
}

// Build runs a full static site build with the supplied options.
func (m *Module) Build(ctx context.Context, opts generator.BuildOptions) (*generator.BuildResult, error) {
	return m.container.GeneratorService().Build(ctx, opts)
}

// ImportDirectory ingests every markdown document under dir into the post
// store.
func (m *Module) ImportDirectory(ctx context.Context, dir string, opts interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	svc := m.container.MarkdownService()
	if svc == nil {
		return nil, ErrMarkdownDisabled
	}
	return svc.ImportDirectory(ctx, dir, opts)
}

// Sync reconciles the post store against the markdown documents under dir.
func (m *Module) Sync(ctx context.Context, dir string, opts interfaces.SyncOptions) (*interfaces.SyncResult, error) {
	svc := m.container.MarkdownService()
	if svc == nil {
		return nil, ErrMarkdownDisabled
	}
	return svc.Sync(ctx, dir, opts)
}
