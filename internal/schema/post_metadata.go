package schema

import "github.com/goliatone/go-press/internal/domain"

// PostMetadataSlug names the post front-matter schema in registries.
const PostMetadataSlug = "post"

// PostMetadataSchema returns the canonical JSON Schema for post front matter.
// Recognized keys are typed; unrecognized keys stay allowed because authors
// carry free-form metadata through to templates.
func PostMetadataSchema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Post title; defaults to the slug when empty.",
			},
			"date": map[string]any{
				"type":        "string",
				"description": "Authored date, ISO-like formats accepted.",
			},
			"layout": map[string]any{
				"type":        "string",
				"description": "Rendering template name.",
			},
			"tags": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"tldr":        map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"slug":        map[string]any{"type": "string"},
			"status": map[string]any{
				"type": "string",
				"enum": []any{
					string(domain.StatusDraft),
					string(domain.StatusScheduled),
					string(domain.StatusPublished),
					string(domain.StatusArchived),
				},
			},
		},
		"additionalProperties": true,
		"metadata": map[string]any{
			"slug":           PostMetadataSlug,
			"schema_version": DefaultVersion(PostMetadataSlug).String(),
		},
	}
}
