// Package frontmatter extracts and composes YAML metadata blocks embedded at
// the top of markdown documents. A metadata block is fenced by `---` lines,
// with the opening fence required to be the very first line of the source.
// Documents without a fence are treated as body-only content.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnterminated indicates an opening fence without a closing fence.
	ErrUnterminated = errors.New("frontmatter: missing closing delimiter")
	// ErrInvalidMetadata indicates a fence whose contents are not a valid
	// YAML mapping.
	ErrInvalidMetadata = errors.New("frontmatter: invalid metadata block")
)

const fence = "---"

// Document is the result of splitting a source file into its metadata fields
// and markdown body. Fields preserves the YAML-decoded value types; use the
// typed accessors or Meta for the normalized view.
type Document struct {
	Fields map[string]any
	Body   []byte
}

// Extract splits source into metadata fields and body.
//
// When the first line is not an opening fence the entire source becomes the
// body and Fields is empty. An opening fence without a closing fence returns
// ErrUnterminated. Keys declared more than once resolve to the value declared
// last.
func Extract(source []byte) (Document, error) {
	doc := Document{Fields: map[string]any{}}

	first, rest, _ := cutLine(source)
	if !isFence(first) {
		doc.Body = source
		return doc, nil
	}

	block, body, terminated := splitAtClosingFence(rest)
	if !terminated {
		return Document{}, ErrUnterminated
	}
	doc.Body = body

	fields, err := decodeFields(block)
	if err != nil {
		return Document{}, err
	}
	doc.Fields = fields
	return doc, nil
}

// Compose renders the document in canonical form: a fenced YAML block with
// two-space indentation followed by the body verbatim. Documents with no
// fields render as their body alone. Extract(Compose(d)) yields d again.
func Compose(doc Document) ([]byte, error) {
	if len(doc.Fields) == 0 {
		return append([]byte(nil), doc.Body...), nil
	}

	var buf bytes.Buffer
	buf.WriteString(fence)
	buf.WriteByte('\n')

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc.Fields); err != nil {
		return nil, fmt.Errorf("frontmatter: encode metadata: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("frontmatter: encode metadata: %w", err)
	}

	buf.WriteString(fence)
	buf.WriteByte('\n')
	buf.Write(doc.Body)
	return buf.Bytes(), nil
}

// cutLine returns the first line of data without its terminator, the bytes
// after the terminator, and whether a terminator was present. A trailing
// carriage return is stripped so CRLF sources behave like LF sources.
func cutLine(data []byte) (line, rest []byte, ok bool) {
	idx := bytes.IndexByte(data, '\n')
	if idx < 0 {
		return trimCR(data), nil, false
	}
	return trimCR(data[:idx]), data[idx+1:], true
}

func trimCR(line []byte) []byte {
	if len(line) > 0 && line[len(line)-1] == '\r' {
		return line[:len(line)-1]
	}
	return line
}

func isFence(line []byte) bool {
	return string(line) == fence
}

// splitAtClosingFence scans data line by line for the closing fence. The
// fence must occupy a line of its own; hyphen runs inside values do not
// terminate the block.
func splitAtClosingFence(data []byte) (block, body []byte, ok bool) {
	offset := 0
	remaining := data
	for {
		line, rest, hasMore := cutLine(remaining)
		if isFence(line) {
			block = data[:offset]
			if !hasMore {
				return block, []byte{}, true
			}
			return block, rest, true
		}
		if !hasMore {
			return nil, nil, false
		}
		offset += len(remaining) - len(rest)
		remaining = rest
	}
}

// decodeFields parses the fenced block as a YAML mapping. The block is
// decoded at the node level so duplicate keys overwrite earlier entries
// instead of failing, matching how most static site tooling treats repeated
// declarations.
func decodeFields(block []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(block)) == 0 {
		return fields, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(block, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return fields, nil
	}

	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: expected mapping, got %s", ErrInvalidMetadata, nodeKind(mapping))
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode := mapping.Content[i]
		valueNode := mapping.Content[i+1]

		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: mapping keys must be scalars", ErrInvalidMetadata)
		}

		var value any
		if err := valueNode.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
		}
		fields[keyNode.Value] = value
	}
	return fields, nil
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
