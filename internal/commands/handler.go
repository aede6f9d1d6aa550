package commands

import (
	"context"
	"time"

	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

const defaultHandlerTimeout = 30 * time.Second

// HandlerOption configures a Handler instance.
type HandlerOption[T command.Message] func(*Handler[T])

// Handler wraps command execution with shared engine concerns (context, logging, error tagging).
type Handler[T command.Message] struct {
	exec          command.CommandFunc[T]
	logger        interfaces.Logger
	timeout       time.Duration
	operation     string
	messageFields func(T) map[string]any
	telemetry     Telemetry[T]
}

// NewHandler creates a handler that satisfies go-command's Commander interface while applying
// engine-specific concerns (validation, logging, timeout enforcement).
func NewHandler[T command.Message](fn command.CommandFunc[T], opts ...HandlerOption[T]) *Handler[T] {
	if fn == nil {
		panic("commands: handler function cannot be nil")
	}
	h := &Handler[T]{
		exec:    fn,
		logger:  logging.NoOp(),
		timeout: defaultHandlerTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Execute conforms to command.Commander[T].Execute and applies validation, context management,
// logging, and error categorisation before delegating to the wrapped function.
func (h *Handler[T]) Execute(ctx context.Context, msg T) error {
	if err := command.ValidateMessage(msg); err != nil {
		return WrapValidationError(err)
	}

	ctx = ensureContext(ctx)
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return WrapContextError(err)
	}

	messageType := command.GetMessageType(msg)
	fields := map[string]any{
		"command": messageType,
	}
	if h.operation != "" {
		fields["operation"] = h.operation
	}
	if h.messageFields != nil {
		for key, value := range h.messageFields(msg) {
			fields[key] = value
		}
	}
	logger := logging.WithFields(h.logger, fields)
	logger.Debug("command.execute.start")

	started := time.Now()
	execErr := h.exec(ctx, msg)
	duration := time.Since(started)

	if execErr != nil {
		h.report(ctx, msg, messageType, fields, duration, execErr, TelemetryStatusFailed, logger)
		return WrapExecuteError(execErr)
	}

	if err := ctx.Err(); err != nil {
		h.report(ctx, msg, messageType, fields, duration, err, TelemetryStatusContextError, logger)
		return WrapContextError(err)
	}

	h.report(ctx, msg, messageType, fields, duration, nil, TelemetryStatusSuccess, logger)
	return nil
}

func (h *Handler[T]) report(ctx context.Context, msg T, messageType string, fields map[string]any, duration time.Duration, err error, status TelemetryStatus, logger interfaces.Logger) {
	if h.telemetry != nil {
		h.telemetry(ctx, msg, TelemetryInfo{
			Command:   messageType,
			Operation: h.operation,
			Fields:    fields,
			Duration:  duration,
			Error:     err,
			Status:    status,
			Logger:    logger,
		})
		return
	}
	switch status {
	case TelemetryStatusSuccess:
		logger.Info("command.execute.success")
	case TelemetryStatusContextError:
		logger.Error("command.execute.context_error", "error", err)
	default:
		logger.Error("command.execute.failed", "error", err)
	}
}

// WithTimeout overrides the default execution timeout.
func WithTimeout[T command.Message](timeout time.Duration) HandlerOption[T] {
	return func(h *Handler[T]) {
		if timeout <= 0 {
			h.timeout = 0
			return
		}
		h.timeout = timeout
	}
}

// WithLogger injects the logger used during execution. Defaults to a no-op logger.
func WithLogger[T command.Message](logger interfaces.Logger) HandlerOption[T] {
	return func(h *Handler[T]) {
		if logger == nil {
			h.logger = logging.NoOp()
			return
		}
		h.logger = logger
	}
}

// WithOperation sets a human-friendly operation name emitted with every log entry.
func WithOperation[T command.Message](operation string) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.operation = operation
	}
}

// WithMessageFields derives structured log fields from the message payload. The
// fields are merged into every log entry and into telemetry callbacks.
func WithMessageFields[T command.Message](fn func(T) map[string]any) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.messageFields = fn
	}
}

// WithTelemetry installs a callback invoked after every execution with the
// outcome. When set it replaces the handler's terminal success/failure log
// lines so callbacks can own outcome reporting.
func WithTelemetry[T command.Message](t Telemetry[T]) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.telemetry = t
	}
}

func (h *Handler[T]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, h.timeout)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
