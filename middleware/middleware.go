package middleware

import (
	"context"
	"slices"
)

// Middleware is a named wrapper around the rest of a step's chain.
//
// HandleMiddleware either calls next and returns its result, possibly
// transformed, or returns an error without calling next. Implementations must
// not retain per-call state between invocations.
type Middleware[In, Out any] interface {
	ID() string
	HandleMiddleware(ctx context.Context, in In, next Handler[In, Out]) (Out, error)
}

// MiddlewareFunc is the signature of closure middleware.
type MiddlewareFunc[In, Out any] func(ctx context.Context, in In, next Handler[In, Out]) (Out, error)

// NewMiddleware returns a [Middleware] identified by id that calls fn.
func NewMiddleware[In, Out any](id string, fn MiddlewareFunc[In, Out]) Middleware[In, Out] {
	return funcMiddleware[In, Out]{id: id, fn: fn}
}

type funcMiddleware[In, Out any] struct {
	id string
	fn MiddlewareFunc[In, Out]
}

func (m funcMiddleware[In, Out]) ID() string { return m.id }

func (m funcMiddleware[In, Out]) HandleMiddleware(ctx context.Context, in In, next Handler[In, Out]) (Out, error) {
	return m.fn(ctx, in, next)
}

// decoratedHandler binds a middleware to the handler it wraps.
type decoratedHandler[In, Out any] struct {
	next Handler[In, Out]
	with Middleware[In, Out]
}

func (h decoratedHandler[In, Out]) Handle(ctx context.Context, in In) (Out, error) {
	return h.with.HandleMiddleware(ctx, in, h.next)
}

// Decorate wraps terminal with mws. Requests traverse the middleware in the order
// they are declared: the first middleware is treated as the outermost one.
func Decorate[In, Out any](terminal Handler[In, Out], mws ...Middleware[In, Out]) Handler[In, Out] {
	h := terminal
	for _, m := range slices.Backward(mws) {
		h = decoratedHandler[In, Out]{next: h, with: m}
	}
	return h
}
