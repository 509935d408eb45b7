package interceptors

import (
	"context"
	"errors"

	"github.com/mcosta74/opstack/middleware"
	"github.com/mcosta74/opstack/ports"
)

// ErrNoHost is returned when no host could be resolved for the request.
var ErrNoHost = errors.New("no host resolved")

// EndpointOverride statically replaces parts of the resolved endpoint.
// Zero fields keep the values of the operation context.
type EndpointOverride struct {
	Scheme string
	Host   string
	Port   int
}

// Endpoint copies method, path, scheme and host from the operation context to
// the request builder.
type Endpoint[Out any] struct {
	override EndpointOverride
}

func NewEndpoint[Out any](override EndpointOverride) *Endpoint[Out] {
	return &Endpoint[Out]{override: override}
}

func (*Endpoint[Out]) ID() string { return "EndpointMiddleware" }

func (m *Endpoint[Out]) HandleMiddleware(ctx context.Context, b *ports.RequestBuilder, next middleware.Handler[*ports.RequestBuilder, *middleware.OperationOutput[Out]]) (*middleware.OperationOutput[Out], error) {
	opctx := middleware.OperationContextFrom(ctx)

	scheme := opctx.Scheme()
	if m.override.Scheme != "" {
		scheme = m.override.Scheme
	}
	host, _ := opctx.Host()
	if m.override.Host != "" {
		host = m.override.Host
	}
	if host == "" {
		return nil, ErrNoHost
	}

	b.WithMethod(opctx.Method()).
		WithPath(opctx.Path()).
		WithScheme(scheme).
		WithHost(opctx.HostPrefix() + host)
	if m.override.Port != 0 {
		b.WithPort(m.override.Port)
	}
	return next.Handle(ctx, b)
}
