package frontmatter

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrUnparseableDate indicates a date field that matches none of the accepted
// layouts.
var ErrUnparseableDate = errors.New("frontmatter: unparseable date")

// Recognized metadata keys. Unknown keys are preserved in Document.Fields and
// surfaced through Custom.
const (
	KeyTitle       = "title"
	KeyDate        = "date"
	KeyLayout      = "layout"
	KeyTags        = "tags"
	KeyTLDR        = "tldr"
	KeyDescription = "description"
)

// dateLayouts lists the accepted date formats, tried in order. Authors write
// anything from full RFC3339 timestamps down to bare dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Meta is the normalized view over the recognized metadata keys.
type Meta struct {
	Title       string
	Date        time.Time
	Layout      string
	Tags        []string
	TLDR        string
	Description string
}

// Meta projects the recognized keys into their typed form. Unparseable dates
// are left as the zero time; callers needing the error use ParseDate
// directly.
func (d Document) Meta() Meta {
	meta := Meta{
		Title:       d.stringOrEmpty(KeyTitle),
		Layout:      d.stringOrEmpty(KeyLayout),
		TLDR:        d.stringOrEmpty(KeyTLDR),
		Description: d.stringOrEmpty(KeyDescription),
	}
	if tags, ok := d.StringList(KeyTags); ok {
		meta.Tags = tags
	}
	if raw, ok := d.Fields[KeyDate]; ok {
		if parsed, err := coerceDate(raw); err == nil {
			meta.Date = parsed
		}
	}
	return meta
}

// Custom returns the metadata fields outside the recognized key set.
func (d Document) Custom() map[string]any {
	custom := map[string]any{}
	for key, value := range d.Fields {
		switch key {
		case KeyTitle, KeyDate, KeyLayout, KeyTags, KeyTLDR, KeyDescription:
			continue
		}
		custom[key] = value
	}
	return custom
}

// Has reports whether the key is present in the metadata.
func (d Document) Has(key string) bool {
	_, ok := d.Fields[key]
	return ok
}

// StringValue returns the field coerced to its scalar string form. Lists and
// mappings report false.
func (d Document) StringValue(key string) (string, bool) {
	value, ok := d.Fields[key]
	if !ok {
		return "", false
	}
	return scalarString(value)
}

// StringList returns the field as a list of scalar strings, preserving the
// declared order. Scalar values yield a single-element list so `tags: go`
// and `tags: [go]` behave alike.
func (d Document) StringList(key string) ([]string, bool) {
	value, ok := d.Fields[key]
	if !ok {
		return nil, false
	}
	if items, ok := value.([]any); ok {
		list := make([]string, 0, len(items))
		for _, item := range items {
			text, ok := scalarString(item)
			if !ok {
				return nil, false
			}
			list = append(list, text)
		}
		return list, true
	}
	if text, ok := scalarString(value); ok {
		return []string{text}, true
	}
	return nil, false
}

func (d Document) stringOrEmpty(key string) string {
	text, _ := d.StringValue(key)
	return text
}

// ParseDate parses value against the accepted date layouts in order.
func ParseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, value)
}

// coerceDate accepts the decoded forms a date field can take: native YAML
// timestamps arrive as time.Time, quoted dates as strings.
func coerceDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		return ParseDate(v)
	default:
		return time.Time{}, fmt.Errorf("%w: %v", ErrUnparseableDate, value)
	}
}

func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case time.Time:
		return v.Format(time.RFC3339), true
	case nil:
		return "", true
	default:
		return "", false
	}
}
