package logging

import (
	"context"
	"testing"

	"github.com/goliatone/go-press/pkg/interfaces"
)

type recordingLogger struct {
	fields   []map[string]any
	contexts []context.Context
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	r.fields = append(r.fields, copied)
	return r
}

func (r *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, "press.test")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	logger = logger.WithContext(context.Background())
	logger = WithFields(logger, map[string]any{"foo": "bar"})
	logger.Debug("noop")
}

func TestModuleLoggerRequestsNamedLogger(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	PostsLogger(provider)
	MarkdownLogger(provider)
	SchedulerLogger(provider)
	GeneratorLogger(provider)

	want := []string{"press.posts", "press.markdown", "press.scheduler", "press.generator"}
	if len(provider.requested) != len(want) {
		t.Fatalf("expected %d lookups, got %d", len(want), len(provider.requested))
	}
	for i, name := range want {
		if provider.requested[i] != name {
			t.Fatalf("lookup %d: expected %q, got %q", i, name, provider.requested[i])
		}
	}

	if len(rec.fields) != len(want) {
		t.Fatalf("expected module fields on each logger, got %d", len(rec.fields))
	}
	if rec.fields[0]["module"] != "press.posts" {
		t.Fatalf("expected module field press.posts, got %v", rec.fields[0]["module"])
	}
}

func TestWithSourceContextSkipsEmptyValues(t *testing.T) {
	rec := &recordingLogger{}

	WithSourceContext(rec, "content/hello.md", "", "create")

	if len(rec.fields) != 1 {
		t.Fatalf("expected one field set, got %d", len(rec.fields))
	}
	fields := rec.fields[0]
	if fields["source_path"] != "content/hello.md" {
		t.Fatalf("expected source_path field, got %v", fields)
	}
	if _, ok := fields["locale"]; ok {
		t.Fatalf("expected empty locale to be skipped, got %v", fields)
	}
	if fields["sync_action"] != "create" {
		t.Fatalf("expected sync_action field, got %v", fields)
	}
}

func TestWithFieldsIgnoresPlainLoggers(t *testing.T) {
	logger := NoOp()
	if got := WithFields(logger, nil); got != logger {
		t.Fatalf("expected logger to pass through for empty fields")
	}
}
