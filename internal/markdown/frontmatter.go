package markdown

import (
	"fmt"
	"time"

	"github.com/goliatone/go-press/internal/frontmatter"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// ParseFrontMatter extracts metadata and Markdown body content from the
// provided source bytes. It returns the structured frontmatter, the Markdown
// body without delimiters, and any error encountered.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	doc, err := frontmatter.Extract(source)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return envelopeFromDocument(doc), doc.Body, nil
}

// BuildDocument assembles an interfaces.Document from the supplied file path,
// locale, raw content, and modification time. BodyHTML is intentionally left
// empty so callers can render lazily. When acceptForeign is set, sources
// without a YAML fence are probed for TOML and JSON metadata headers before
// falling back to a body-only document.
func BuildDocument(path string, locale string, source []byte, modified time.Time, acceptForeign bool) (*interfaces.Document, error) {
	doc, err := frontmatter.Extract(source)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter %s: %w", path, err)
	}

	if acceptForeign && len(doc.Fields) == 0 {
		if foreign, ok, foreignErr := parseForeign(source); foreignErr != nil {
			return nil, fmt.Errorf("parse foreign frontmatter %s: %w", path, foreignErr)
		} else if ok {
			doc = foreign
		}
	}

	return &interfaces.Document{
		FilePath:     path,
		Locale:       locale,
		FrontMatter:  envelopeFromDocument(doc),
		Body:         doc.Body,
		LastModified: modified,
	}, nil
}

// envelopeFromDocument projects the extracted fields into the shared
// FrontMatter contract: recognized keys become typed values, the remainder
// lands in Custom, and Raw carries the complete mapping.
func envelopeFromDocument(doc frontmatter.Document) interfaces.FrontMatter {
	meta := doc.Meta()

	raw := make(map[string]any, len(doc.Fields))
	for key, value := range doc.Fields {
		raw[key] = value
	}

	return interfaces.FrontMatter{
		Title:       meta.Title,
		Date:        meta.Date,
		Layout:      meta.Layout,
		Tags:        append([]string(nil), meta.Tags...),
		TLDR:        meta.TLDR,
		Description: meta.Description,
		Custom:      doc.Custom(),
		Raw:         raw,
	}
}
