// Package fsstore implements the storage provider contract against the local
// filesystem. The generator routes artifact writes through op-coded Exec
// calls; this provider interprets them as directory and file operations under
// a root directory, which is what most static site deployments want.
package fsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-press/pkg/interfaces"
)

const (
	opEnsureDir = "generator.ensure_dir"
	opWrite     = "generator.write"
	opRead      = "generator.read"
	opRemove    = "generator.remove"
)

// ErrUnsupportedOp reports an operation code the provider does not understand.
var ErrUnsupportedOp = errors.New("fsstore: unsupported operation")

// ErrPathOutsideRoot reports a path that would escape the configured root.
var ErrPathOutsideRoot = errors.New("fsstore: path escapes root")

// Provider writes generator artifacts beneath a root directory.
type Provider struct {
	root string
}

var _ interfaces.StorageProvider = (*Provider)(nil)

// New constructs a filesystem provider rooted at dir. An empty dir means the
// current working directory.
func New(dir string) *Provider {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "."
	}
	return &Provider{root: dir}
}

func (p *Provider) resolve(raw string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(strings.TrimSpace(raw)))
	if cleaned == "" || cleaned == "." {
		return p.root, nil
	}
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideRoot, raw)
	}
	return filepath.Join(p.root, cleaned), nil
}

// Exec applies a mutation operation.
func (p *Provider) Exec(ctx context.Context, query string, args ...any) (interfaces.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch query {
	case opEnsureDir:
		return result{}, p.ensureDir(args)
	case opWrite:
		return result{rows: 1}, p.writeFile(args)
	case opRemove:
		return result{rows: 1}, p.remove(args)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOp, query)
	}
}

// Query serves read operations. The only supported op returns the contents of
// one file as a single row.
func (p *Provider) Query(ctx context.Context, query string, args ...any) (interfaces.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if query != opRead {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOp, query)
	}
	path, err := pathArg(args)
	if err != nil {
		return nil, err
	}
	target, err := p.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &byteRows{}, nil
		}
		return nil, err
	}
	return &byteRows{data: data, pending: true}, nil
}

// Transaction runs fn against the provider. Filesystem writes are not
// transactional; the wrapper exists to satisfy the contract.
func (p *Provider) Transaction(_ context.Context, fn func(tx interfaces.Transaction) error) error {
	if fn == nil {
		return nil
	}
	return fn(fsTx{provider: p})
}

func (p *Provider) ensureDir(args []any) error {
	path, err := pathArg(args)
	if err != nil {
		return err
	}
	target, err := p.resolve(path)
	if err != nil {
		return err
	}
	return os.MkdirAll(target, 0o755)
}

func (p *Provider) writeFile(args []any) error {
	if len(args) < 2 {
		return errors.New("fsstore: write requires path and content")
	}
	path, err := pathArg(args[:1])
	if err != nil {
		return err
	}
	reader, ok := args[1].(io.Reader)
	if !ok {
		return errors.New("fsstore: write content must be io.Reader")
	}
	target, err := p.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	file, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, reader); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func (p *Provider) remove(args []any) error {
	path, err := pathArg(args)
	if err != nil {
		return err
	}
	target, err := p.resolve(path)
	if err != nil {
		return err
	}
	return os.RemoveAll(target)
}

func pathArg(args []any) (string, error) {
	if len(args) == 0 {
		return "", errors.New("fsstore: path argument required")
	}
	path, ok := args[0].(string)
	if !ok || strings.TrimSpace(path) == "" {
		return "", errors.New("fsstore: path argument must be a non-empty string")
	}
	return path, nil
}

type result struct {
	rows int64
}

func (r result) RowsAffected() (int64, error) { return r.rows, nil }
func (r result) LastInsertId() (int64, error) { return 0, nil }

type byteRows struct {
	data    []byte
	pending bool
}

func (r *byteRows) Next() bool {
	if !r.pending {
		return false
	}
	r.pending = false
	return true
}

func (r *byteRows) Scan(dest ...any) error {
	if len(dest) == 0 {
		return errors.New("fsstore: scan requires a destination")
	}
	target, ok := dest[0].(*[]byte)
	if !ok {
		return errors.New("fsstore: scan destination must be *[]byte")
	}
	*target = r.data
	return nil
}

func (r *byteRows) Close() error { return nil }

type fsTx struct {
	provider *Provider
}

func (t fsTx) Query(ctx context.Context, query string, args ...any) (interfaces.Rows, error) {
	return t.provider.Query(ctx, query, args...)
}

func (t fsTx) Exec(ctx context.Context, query string, args ...any) (interfaces.Result, error) {
	return t.provider.Exec(ctx, query, args...)
}

func (t fsTx) Transaction(ctx context.Context, fn func(interfaces.Transaction) error) error {
	return t.provider.Transaction(ctx, fn)
}

func (t fsTx) Commit() error   { return nil }
func (t fsTx) Rollback() error { return nil }
