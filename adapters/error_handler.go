// Package adapters holds the pieces shared by the transport adapters.
package adapters

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcosta74/opstack/middleware"
)

// ErrorHandler receives the errors an adapter cannot return to a caller,
// such as a failed reply on a server side or a broken connection.
type ErrorHandler interface {
	Handle(ctx context.Context, err error)
}

// SlogErrorHandler logs adapter errors. Operation errors are logged with
// their kind and phase.
type SlogErrorHandler struct {
	logger *slog.Logger
}

func NewSlogErrorHandler(logger *slog.Logger) *SlogErrorHandler {
	return &SlogErrorHandler{
		logger: logger,
	}
}

func (h *SlogErrorHandler) Handle(ctx context.Context, err error) {
	attrs := []slog.Attr{slog.String("err", err.Error())}

	var oe *middleware.OperationError
	if errors.As(err, &oe) {
		attrs = append(attrs,
			slog.String("kind", oe.Kind.String()),
			slog.String("phase", string(oe.Phase)),
		)
	}
	h.logger.LogAttrs(ctx, slog.LevelError, "adapter error", attrs...)
}

// NoOpErrorHandler drops every error.
type NoOpErrorHandler struct{}

func NewNoOpErrorHandler() *NoOpErrorHandler {
	return &NoOpErrorHandler{}
}

func (h *NoOpErrorHandler) Handle(context.Context, error) {}

// The ErrorHandlerFunc type is an adapter to allow the use
// of a standard function as ErrorHandler.
type ErrorHandlerFunc func(ctx context.Context, err error)

// Handle calls f(ctx, err)
func (f ErrorHandlerFunc) Handle(ctx context.Context, err error) {
	f(ctx, err)
}
