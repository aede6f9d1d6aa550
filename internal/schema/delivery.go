package schema

import (
	"context"
	"fmt"
	"strings"

	crud "github.com/goliatone/go-crud"
)

// CrudRegistry delivers projections into the process-wide go-crud schema
// registry so hosts running go-crud expose the post metadata shape.
type CrudRegistry struct {
	// Resource overrides the registered resource name; defaults to the
	// projection name. Plural defaults to Resource + "s".
	Resource string
	Plural   string
}

// Register implements Registry.
func (r CrudRegistry) Register(_ context.Context, name string, doc map[string]any) error {
	resource := strings.TrimSpace(r.Resource)
	if resource == "" {
		resource = name
	}
	plural := strings.TrimSpace(r.Plural)
	if plural == "" {
		plural = resource + "s"
	}
	if ok := crud.RegisterSchemaDocument(resource, plural, doc); !ok {
		return fmt.Errorf("schema: crud registry rejected %s", resource)
	}
	return nil
}
