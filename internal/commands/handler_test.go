package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-press/pkg/interfaces"
)

type testMessage struct{}

func (testMessage) Type() string { return "press.test.message" }

func (testMessage) Validate() error { return nil }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "press.test.invalid" }

func (invalidMessage) Validate() error {
	return validationError()
}

func validationError() error {
	return errors.New("invalid")
}

type fieldsMessage struct {
	Slug string
}

func (fieldsMessage) Type() string { return "press.test.fields" }

func (fieldsMessage) Validate() error { return nil }

type recordingLogger struct {
	fields        []map[string]any
	infoMessages  []string
	errorMessages []string
}

var (
	_ interfaces.Logger       = (*recordingLogger)(nil)
	_ interfaces.FieldsLogger = (*recordingLogger)(nil)
)

func (l *recordingLogger) Trace(string, ...any) {}
func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(msg string, _ ...any) {
	l.infoMessages = append(l.infoMessages, msg)
}
func (l *recordingLogger) Warn(string, ...any) {}
func (l *recordingLogger) Error(msg string, _ ...any) {
	l.errorMessages = append(l.errorMessages, msg)
}
func (l *recordingLogger) Fatal(string, ...any) {}

func (l *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	l.fields = append(l.fields, copied)
	return l
}

func (l *recordingLogger) WithContext(context.Context) interfaces.Logger { return l }

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), invalidMessage{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	execErr := errors.New("boom")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return execErr
	})

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected wrapped execution error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !goerrors.HasCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category to propagate, got %v", err)
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond))

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
}

func TestHandlerMergesMessageFields(t *testing.T) {
	logger := &recordingLogger{}
	h := NewHandler[fieldsMessage](func(ctx context.Context, msg fieldsMessage) error {
		return nil
	},
		WithLogger[fieldsMessage](logger),
		WithOperation[fieldsMessage]("test.fields"),
		WithMessageFields(func(msg fieldsMessage) map[string]any {
			return map[string]any{"slug": msg.Slug}
		}),
	)

	if err := h.Execute(context.Background(), fieldsMessage{Slug: "release-notes"}); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if len(logger.fields) == 0 {
		t.Fatal("expected structured fields recorded")
	}
	fields := logger.fields[0]
	if fields["command"] != "press.test.fields" {
		t.Fatalf("expected command field, got %v", fields["command"])
	}
	if fields["operation"] != "test.fields" {
		t.Fatalf("expected operation field, got %v", fields["operation"])
	}
	if fields["slug"] != "release-notes" {
		t.Fatalf("expected slug field, got %v", fields["slug"])
	}
	if len(logger.infoMessages) == 0 || logger.infoMessages[0] != "command.execute.success" {
		t.Fatalf("expected success log, got %v", logger.infoMessages)
	}
}

func TestHandlerTelemetryReceivesOutcome(t *testing.T) {
	var captured []TelemetryInfo
	telemetry := func(_ context.Context, _ fieldsMessage, info TelemetryInfo) {
		captured = append(captured, info)
	}

	h := NewHandler[fieldsMessage](func(ctx context.Context, msg fieldsMessage) error {
		return nil
	},
		WithMessageFields(func(msg fieldsMessage) map[string]any {
			return map[string]any{"slug": msg.Slug}
		}),
		WithTelemetry[fieldsMessage](telemetry),
	)

	if err := h.Execute(context.Background(), fieldsMessage{Slug: "getting-started"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(captured) != 1 {
		t.Fatalf("expected one telemetry callback, got %d", len(captured))
	}
	info := captured[0]
	if info.Status != TelemetryStatusSuccess {
		t.Fatalf("expected success status, got %s", info.Status)
	}
	if info.Command != "press.test.fields" {
		t.Fatalf("expected command type, got %s", info.Command)
	}
	if info.Fields["slug"] != "getting-started" {
		t.Fatalf("expected slug field in telemetry, got %v", info.Fields["slug"])
	}
	if info.Error != nil {
		t.Fatalf("unexpected telemetry error %v", info.Error)
	}

	execErr := errors.New("boom")
	failing := NewHandler[fieldsMessage](func(ctx context.Context, msg fieldsMessage) error {
		return execErr
	}, WithTelemetry[fieldsMessage](telemetry))

	if err := failing.Execute(context.Background(), fieldsMessage{}); err == nil {
		t.Fatal("expected execution error")
	}
	if len(captured) != 2 {
		t.Fatalf("expected second telemetry callback, got %d", len(captured))
	}
	if captured[1].Status != TelemetryStatusFailed {
		t.Fatalf("expected failed status, got %s", captured[1].Status)
	}
	if !errors.Is(captured[1].Error, execErr) {
		t.Fatalf("expected exec error in telemetry, got %v", captured[1].Error)
	}
}
