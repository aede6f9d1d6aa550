package schema

import "strings"

const (
	metadataKey        = "metadata"
	metadataSlugKey    = "slug"
	metadataVersionKey = "schema_version"
)

// Metadata captures schema-level metadata persisted alongside JSON Schema docs.
type Metadata struct {
	Slug          string
	SchemaVersion string
}

// ExtractMetadata reads the schema metadata object when present.
func ExtractMetadata(schema map[string]any) Metadata {
	meta := Metadata{}
	if schema == nil {
		return meta
	}
	raw, ok := schema[metadataKey].(map[string]any)
	if !ok || raw == nil {
		return meta
	}
	if slug, ok := raw[metadataSlugKey].(string); ok {
		meta.Slug = strings.TrimSpace(slug)
	}
	if version, ok := raw[metadataVersionKey].(string); ok {
		meta.SchemaVersion = strings.TrimSpace(version)
	}
	return meta
}

// ApplyMetadata updates the schema metadata object with the provided fields.
func ApplyMetadata(schema map[string]any, meta Metadata) map[string]any {
	if schema == nil {
		return nil
	}
	out := cloneMap(schema)
	target, _ := out[metadataKey].(map[string]any)
	if target == nil {
		target = map[string]any{}
	}
	if strings.TrimSpace(meta.Slug) != "" {
		target[metadataSlugKey] = strings.TrimSpace(meta.Slug)
	}
	if strings.TrimSpace(meta.SchemaVersion) != "" {
		target[metadataVersionKey] = strings.TrimSpace(meta.SchemaVersion)
	}
	out[metadataKey] = target
	return out
}
