package markdown

import (
	"bytes"

	adrgfm "github.com/adrg/frontmatter"

	"github.com/goliatone/go-press/internal/frontmatter"
)

// parseForeign probes source for metadata headers written by other publishing
// tools: TOML fenced with `+++` and bare JSON objects. YAML fences never
// reach this path because the native extractor claims them first. The
// returned flag reports whether a foreign header was found.
func parseForeign(source []byte) (frontmatter.Document, bool, error) {
	fields := map[string]any{}

	body, err := adrgfm.Parse(bytes.NewReader(source), &fields)
	if err != nil {
		return frontmatter.Document{}, false, err
	}
	if len(fields) == 0 {
		return frontmatter.Document{}, false, nil
	}

	return frontmatter.Document{
		Fields: fields,
		Body:   body,
	}, true, nil
}
