package interceptors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcosta74/opstack/middleware"
	"github.com/mcosta74/opstack/ports"
)

// Logger logs the request sent and the response received according to the
// operation context log mode. Insert it at the head of the Deserialize step to
// see the response before it is decoded.
type Logger[Out any] struct{}

func NewLogger[Out any]() *Logger[Out] {
	return &Logger[Out]{}
}

func (*Logger[Out]) ID() string { return "Logger" }

func (*Logger[Out]) HandleMiddleware(ctx context.Context, req *ports.Request, next middleware.Handler[*ports.Request, *middleware.OperationOutput[Out]]) (*middleware.OperationOutput[Out], error) {
	opctx := middleware.OperationContextFrom(ctx)
	mode := opctx.LogMode()
	logger := opctx.Logger().With(
		slog.String("service", opctx.ServiceName()),
		slog.String("operation", opctx.OperationName()),
	)

	if mode.LogsRequest() {
		attrs := []slog.Attr{
			slog.String("method", req.Method),
			slog.String("url", req.URL().String()),
			slog.Any("header", req.Header),
		}
		if mode.LogsRequestBody() {
			attrs = append(attrs, slog.String("body", string(req.Body)))
		}
		logger.LogAttrs(ctx, opctx.LogLevel(), "request", attrs...)
	}

	out, err := next.Handle(ctx, req)

	if mode.LogsResponse() {
		if resp := responseOf(out, err); resp != nil {
			attrs := []slog.Attr{
				slog.Int("status", resp.StatusCode),
				slog.Any("header", resp.Header),
			}
			if mode.LogsResponseBody() {
				attrs = append(attrs, slog.String("body", string(resp.Body)))
			}
			logger.LogAttrs(ctx, opctx.LogLevel(), "response", attrs...)
		}
	}
	return out, err
}

func responseOf[Out any](out *middleware.OperationOutput[Out], err error) *ports.Response {
	if out != nil && out.RawResponse != nil {
		return out.RawResponse
	}
	var oe *middleware.OperationError
	if errors.As(err, &oe) {
		return oe.Response
	}
	return nil
}
