package schema

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-press/internal/openapi"
	"github.com/goliatone/go-slug"
)

// Projection contains an OpenAPI document projection of a metadata schema.
type Projection struct {
	Name     string
	Document *openapi.Document
}

// ProjectToOpenAPI builds an OpenAPI document exposing the metadata schema as
// a component, so host CRUD APIs can publish the content shape.
func ProjectToOpenAPI(slugValue string, title string, schema map[string]any, version Version) (*Projection, error) {
	slugValue = strings.TrimSpace(slugValue)
	if slugValue == "" {
		return nil, fmt.Errorf("schema: slug required for projection")
	}
	if strings.TrimSpace(title) == "" {
		title = slugValue
	}
	doc := openapi.NewDocument(title, strings.TrimPrefix(version.SemVer, "v"))
	doc.AddSchema(componentName(slugValue), cloneMap(schema))
	doc.SetExtension("x-press", map[string]any{
		"resource": slugValue,
		"schema":   version.String(),
	})
	return &Projection{
		Name:     slugValue,
		Document: doc,
	}, nil
}

func componentName(value string) string {
	normalized, err := slug.Normalize(value)
	if err != nil || normalized == "" {
		normalized = value
	}
	return strings.ReplaceAll(normalized, "-", "_")
}
