// Package noop provides inert adapter implementations for optional
// integrations, so the container can always hand services a non-nil
// collaborator.
package noop

import (
	"context"
	"io"
	"time"

	"github.com/goliatone/go-press/pkg/interfaces"
)

// Cache returns an interfaces.CacheProvider that does nothing.
func Cache() interfaces.CacheProvider {
	return cacheAdapter{}
}

type cacheAdapter struct{}

func (cacheAdapter) Get(context.Context, string) (any, error) {
	return nil, nil
}

func (cacheAdapter) Set(context.Context, string, any, time.Duration) error {
	return nil
}

func (cacheAdapter) Delete(context.Context, string) error {
	return nil
}

func (cacheAdapter) Clear(context.Context) error {
	return nil
}

// Template returns a template renderer that bypasses rendering.
func Template() interfaces.TemplateRenderer {
	return templateAdapter{}
}

type templateAdapter struct{}

func (templateAdapter) Render(string, any, ...io.Writer) (string, error) {
	return "", nil
}

func (templateAdapter) RenderTemplate(string, any, ...io.Writer) (string, error) {
	return "", nil
}

func (templateAdapter) RenderString(string, any, ...io.Writer) (string, error) {
	return "", nil
}

func (templateAdapter) RegisterFilter(string, func(any, any) (any, error)) error {
	return nil
}

func (templateAdapter) GlobalContext(any) error {
	return nil
}
