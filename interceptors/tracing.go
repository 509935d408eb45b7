package interceptors

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcosta74/opstack/middleware"
)

const tracerName = "github.com/mcosta74/opstack"

// Tracing opens one span around the whole operation. Insert it at the head of
// the Initialize step so that every other middleware runs inside the span.
type Tracing[In, Out any] struct {
	tracer trace.Tracer
}

// NewTracing returns a Tracing middleware. A nil tracer uses the global provider.
func NewTracing[In, Out any](tracer trace.Tracer) *Tracing[In, Out] {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &Tracing[In, Out]{tracer: tracer}
}

func (*Tracing[In, Out]) ID() string { return "Tracing" }

func (m *Tracing[In, Out]) HandleMiddleware(ctx context.Context, in In, next middleware.Handler[In, *middleware.OperationOutput[Out]]) (*middleware.OperationOutput[Out], error) {
	opctx := middleware.OperationContextFrom(ctx)

	name := opctx.OperationName()
	if svc := opctx.ServiceName(); svc != "" {
		name = svc + "." + name
	}

	ctx, span := m.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.service", opctx.ServiceName()),
			attribute.String("rpc.method", opctx.OperationName()),
			attribute.String("http.request.method", opctx.Method()),
		),
	)
	defer span.End()

	out, err := next.Handle(ctx, in)
	if err != nil {
		var oe *middleware.OperationError
		if errors.As(err, &oe) {
			span.SetAttributes(
				attribute.String("opstack.error.kind", oe.Kind.String()),
				attribute.String("opstack.error.phase", string(oe.Phase)),
			)
			if oe.Response != nil {
				span.SetAttributes(attribute.Int("http.response.status_code", oe.Response.StatusCode))
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if out != nil && out.RawResponse != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", out.RawResponse.StatusCode))
	}
	span.SetStatus(codes.Ok, "")
	return out, nil
}
