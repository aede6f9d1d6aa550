package schema

import (
	"fmt"
	"strings"
)

// allowedKeywords is the JSON Schema subset the admin tooling understands.
// Vendor extensions (x-*) pass through untouched.
var allowedKeywords = map[string]struct{}{
	"$schema":              {},
	"$id":                  {},
	"$ref":                 {},
	"$defs":                {},
	"$anchor":              {},
	"metadata":             {},
	"type":                 {},
	"properties":           {},
	"required":             {},
	"items":                {},
	"oneOf":                {},
	"allOf":                {},
	"const":                {},
	"enum":                 {},
	"default":              {},
	"title":                {},
	"description":          {},
	"format":               {},
	"additionalProperties": {},
}

// ValidateSchemaSubset ensures the schema only uses supported keywords.
func ValidateSchemaSubset(schema map[string]any) error {
	return validateSchemaNode(schema, "")
}

func validateSchemaNode(node map[string]any, path string) error {
	if node == nil {
		return nil
	}
	for key, value := range node {
		if strings.HasPrefix(key, "x-") {
			continue
		}
		if _, ok := allowedKeywords[key]; !ok {
			return fmt.Errorf("%w: %s at %s", ErrUnsupportedKeyword, key, path)
		}

		switch key {
		case "metadata":
			continue
		case "properties", "$defs":
			children, ok := value.(map[string]any)
			if !ok {
				return fmt.Errorf("%w: %s at %s", ErrUnsupportedKeyword, key, path)
			}
			for name, child := range children {
				childSchema, ok := child.(map[string]any)
				if !ok {
					return fmt.Errorf("%w: %s/%s at %s", ErrUnsupportedKeyword, key, name, path)
				}
				if err := validateSchemaNode(childSchema, joinPath(path, key, name)); err != nil {
					return err
				}
			}
		case "items":
			child, ok := value.(map[string]any)
			if !ok {
				return fmt.Errorf("%w: items at %s", ErrUnsupportedKeyword, path)
			}
			if err := validateSchemaNode(child, joinPath(path, "items")); err != nil {
				return err
			}
		case "oneOf", "allOf":
			if err := validateSchemaArray(value, joinPath(path, key)); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateSchemaArray(value any, path string) error {
	items, ok := value.([]any)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedKeyword, path)
	}
	for idx, entry := range items {
		child, ok := entry.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s/%d", ErrUnsupportedKeyword, path, idx)
		}
		if err := validateSchemaNode(child, fmt.Sprintf("%s/%d", path, idx)); err != nil {
			return err
		}
	}
	return nil
}

func joinPath(parts ...string) string {
	trimmed := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		trimmed = append(trimmed, part)
	}
	if len(trimmed) == 0 {
		return ""
	}
	return strings.Join(trimmed, "/")
}
