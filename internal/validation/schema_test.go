package validation

import (
	"errors"
	"testing"

	pressschema "github.com/goliatone/go-press/internal/schema"
)

func TestValidatePayloadAcceptsPostFrontMatter(t *testing.T) {
	schema := pressschema.PostMetadataSchema()
	payload := map[string]any{
		"title":  "Hello World",
		"date":   "2026-01-15",
		"layout": "post",
		"tags":   []any{"go", "writing"},
		"tldr":   "A short summary.",
		"status": "published",
		"series": "misc",
	}
	if err := ValidatePayload(schema, payload); err != nil {
		t.Fatalf("ValidatePayload: %v", err)
	}
}

func TestValidatePayloadReportsTypedIssues(t *testing.T) {
	schema := pressschema.PostMetadataSchema()
	payload := map[string]any{
		"title": 42,
		"tags":  "not-a-list",
	}
	err := ValidatePayload(schema, payload)
	if !errors.Is(err, ErrSchemaValidation) {
		t.Fatalf("expected ErrSchemaValidation, got %v", err)
	}
	issues := Issues(err)
	if len(issues) == 0 {
		t.Fatalf("expected issues, got none")
	}
	locations := map[string]bool{}
	for _, issue := range issues {
		locations[issue.Location] = true
	}
	if !locations["/title"] || !locations["/tags"] {
		t.Fatalf("expected issues at /title and /tags, got %v", issues)
	}
}

func TestValidatePayloadRejectsUnknownStatus(t *testing.T) {
	schema := pressschema.PostMetadataSchema()
	err := ValidatePayload(schema, map[string]any{"status": "live"})
	if !errors.Is(err, ErrSchemaValidation) {
		t.Fatalf("expected ErrSchemaValidation, got %v", err)
	}
}

func TestNormalizeSchemaFieldShorthand(t *testing.T) {
	schema := map[string]any{
		"fields": []any{
			map[string]any{"name": "title", "type": "string", "required": true},
			map[string]any{"name": "weight", "type": "integer"},
			"category",
		},
	}
	normalized := NormalizeSchema(schema)
	if normalized == nil {
		t.Fatalf("expected normalized schema")
	}
	props := normalized["properties"].(map[string]any)
	if _, ok := props["title"]; !ok {
		t.Fatalf("expected title property")
	}
	if _, ok := props["category"]; !ok {
		t.Fatalf("expected bare string field to become a property")
	}
	required, _ := normalized["required"].([]string)
	if len(required) != 1 || required[0] != "title" {
		t.Fatalf("expected title required, got %v", required)
	}

	if err := ValidatePayload(schema, map[string]any{"weight": "heavy"}); err == nil {
		t.Fatalf("expected type error on weight")
	}
	if err := ValidatePayload(schema, map[string]any{"title": "ok", "weight": 3}); err != nil {
		t.Fatalf("expected valid payload: %v", err)
	}
}

func TestValidatePartialPayloadSkipsRequired(t *testing.T) {
	schema := map[string]any{
		"fields": []any{
			map[string]any{"name": "title", "type": "string", "required": true},
		},
	}
	if err := ValidatePartialPayload(schema, map[string]any{}); err != nil {
		t.Fatalf("partial payload should skip required: %v", err)
	}
}

func TestValidateSchemaRejectsUnsupportedKeyword(t *testing.T) {
	schema := map[string]any{
		"type":          "object",
		"patternProps!": map[string]any{},
	}
	err := ValidateSchema(schema)
	if !errors.Is(err, ErrSchemaInvalid) {
		t.Fatalf("expected ErrSchemaInvalid, got %v", err)
	}
}

func TestPayloadValidatorBindsSchema(t *testing.T) {
	validator := PayloadValidator{Schema: pressschema.PostMetadataSchema()}
	if err := validator.ValidatePayload(map[string]any{"title": "ok"}); err != nil {
		t.Fatalf("validator: %v", err)
	}
	if err := validator.ValidatePayload(map[string]any{"title": 1}); err == nil {
		t.Fatalf("expected validation failure")
	}
}
