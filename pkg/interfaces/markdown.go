package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MarkdownParser defines how raw Markdown bytes are converted into HTML.
// Implementations should keep parser instances reusable and expose extension
// toggles so hosts can tailor rendering without rewriting the service layer.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown parsing behaviour, keeping option names
// readable for configuration unmarshalling and CLI flags.
type ParseOptions struct {
	Extensions []string
	Sanitize   bool
	HardWraps  bool
	SafeMode   bool
}

// MarkdownService exposes the file-centric workflows of the engine: loading
// Markdown documents from disk, converting them into HTML, and synchronising
// them with stored posts.
type MarkdownService interface {
	Load(ctx context.Context, path string, opts LoadOptions) (*Document, error)
	LoadDirectory(ctx context.Context, dir string, opts LoadOptions) ([]*Document, error)
	Render(ctx context.Context, markdown []byte, opts ParseOptions) ([]byte, error)
	RenderDocument(ctx context.Context, doc *Document, opts ParseOptions) ([]byte, error)
	Import(ctx context.Context, doc *Document, opts ImportOptions) (*ImportResult, error)
	ImportDirectory(ctx context.Context, dir string, opts ImportOptions) (*ImportResult, error)
	Sync(ctx context.Context, dir string, opts SyncOptions) (*SyncResult, error)
}

// Document represents a Markdown file with extracted metadata and content.
// The struct is shared between the interfaces package and internal
// implementations so consumers can depend on a stable contract.
type Document struct {
	FilePath     string
	Locale       string
	FrontMatter  FrontMatter
	Body         []byte
	BodyHTML     []byte
	LastModified time.Time
	// Checksum stores a digest of the original file content (typically SHA-256)
	// so sync workflows can detect changes without re-importing unchanged files.
	Checksum []byte
}

// FrontMatter models the metadata header extracted from a content file. The
// recognized keys carry typed values; everything else lands in Custom, and
// Raw preserves the complete mapping exactly as extracted.
type FrontMatter struct {
	Title       string         `yaml:"title" json:"title"`
	Date        time.Time      `yaml:"date" json:"date"`
	Layout      string         `yaml:"layout" json:"layout"`
	Tags        []string       `yaml:"tags" json:"tags"`
	TLDR        string         `yaml:"tldr" json:"tldr"`
	Description string         `yaml:"description" json:"description"`
	Custom      map[string]any `yaml:",inline" json:"custom"`
	Raw         map[string]any `yaml:"-" json:"raw"`
}

// LoadOptions fine-tunes how documents are discovered and parsed from disk.
type LoadOptions struct {
	Recursive      *bool
	Pattern        string
	LocalePatterns map[string]string
	Parser         ParseOptions
	// AcceptForeign enables fallback detection of TOML and JSON front matter
	// for documents migrated from other publishing tools.
	AcceptForeign bool
}

// ImportOptions controls how Markdown documents are converted into posts.
type ImportOptions struct {
	AuthorID uuid.UUID
	// Layout overrides the front-matter layout when set.
	Layout string
	DryRun bool
}

// SyncOptions extends ImportOptions to handle update/delete semantics for
// repeated synchronisation runs.
type SyncOptions struct {
	ImportOptions
	DeleteOrphaned bool
	UpdateExisting bool
}

// ImportResult reports the outcome of a single import operation, exposing
// counts and IDs so callers can audit behaviour or trigger follow-up actions.
type ImportResult struct {
	CreatedPostIDs []uuid.UUID
	UpdatedPostIDs []uuid.UUID
	SkippedPostIDs []uuid.UUID
	Errors         []error
}

// SyncResult summarises a bulk sync run across many files.
type SyncResult struct {
	Created int
	Updated int
	Deleted int
	Skipped int
	Errors  []error
}
