package schema

import "errors"

var (
	ErrUnsupportedKeyword   = errors.New("schema: unsupported keyword")
	ErrInvalidSchemaVersion = errors.New("schema: invalid schema version")
)
