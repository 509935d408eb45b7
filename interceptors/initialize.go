package interceptors

import (
	"context"
	"fmt"

	"github.com/mcosta74/opstack/middleware"
)

// URLPath resolves the request path from the operation input and stores it in
// the operation context.
type URLPath[In, Out any] struct {
	path func(In) (string, error)
}

// NewURLPath returns a URLPath middleware using path to template the request path.
func NewURLPath[In, Out any](path func(In) (string, error)) *URLPath[In, Out] {
	return &URLPath[In, Out]{path: path}
}

func (*URLPath[In, Out]) ID() string { return "URLPathMiddleware" }

func (m *URLPath[In, Out]) HandleMiddleware(ctx context.Context, in In, next middleware.Handler[In, *middleware.OperationOutput[Out]]) (*middleware.OperationOutput[Out], error) {
	path, err := m.path(in)
	if err != nil {
		return nil, fmt.Errorf("resolve url path: %w", err)
	}
	middleware.OperationContextFrom(ctx).SetPath(path)
	return next.Handle(ctx, in)
}

// URLHost stores the host, and an optional input-dependent host prefix, in the
// operation context.
type URLHost[In, Out any] struct {
	host   string
	prefix func(In) string
}

// NewURLHost returns a URLHost middleware. An empty host keeps the one already
// in the operation context; prefix may be nil.
func NewURLHost[In, Out any](host string, prefix func(In) string) *URLHost[In, Out] {
	return &URLHost[In, Out]{host: host, prefix: prefix}
}

func (*URLHost[In, Out]) ID() string { return "URLHostMiddleware" }

func (m *URLHost[In, Out]) HandleMiddleware(ctx context.Context, in In, next middleware.Handler[In, *middleware.OperationOutput[Out]]) (*middleware.OperationOutput[Out], error) {
	opctx := middleware.OperationContextFrom(ctx)
	if m.host != "" {
		opctx.SetHost(m.host)
	}
	if m.prefix != nil {
		opctx.SetHostPrefix(m.prefix(in))
	}
	return next.Handle(ctx, in)
}

// IdempotencyToken fills an empty idempotency token member with a token from
// the operation context generator. The input passed downstream is the copy
// returned by set; the caller's input is left untouched.
type IdempotencyToken[In, Out any] struct {
	get func(In) string
	set func(In, string) In
}

// NewIdempotencyToken returns an IdempotencyToken middleware.
func NewIdempotencyToken[In, Out any](get func(In) string, set func(In, string) In) *IdempotencyToken[In, Out] {
	return &IdempotencyToken[In, Out]{get: get, set: set}
}

func (*IdempotencyToken[In, Out]) ID() string { return "IdempotencyTokenMiddleware" }

func (m *IdempotencyToken[In, Out]) HandleMiddleware(ctx context.Context, in In, next middleware.Handler[In, *middleware.OperationOutput[Out]]) (*middleware.OperationOutput[Out], error) {
	if m.get(in) == "" {
		token := middleware.OperationContextFrom(ctx).IdempotencyTokenGenerator().GenerateToken()
		in = m.set(in, token)
	}
	return next.Handle(ctx, in)
}
