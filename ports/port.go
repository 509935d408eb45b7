package ports

import (
	"context"
	"slices"
)

// Transport performs a single request/response exchange.
// Implementations are expected to honor ctx cancellation.
type Transport interface {
	RoundTrip(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc is an adapter to allow the use of ordinary functions as transports.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// RoundTrip calls f(ctx, req).
func (f TransportFunc) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware is a chainable behavior modifier for transports.
type Middleware func(next Transport) Transport

// Chain is a helper function for composing middlewares.
// Requests will traverse the middleware in the order they are declared: the first middleware
// is treated as the outermost one.
func Chain(outer Middleware, others ...Middleware) Middleware {
	return func(next Transport) Transport {
		for _, mdw := range slices.Backward(others) {
			next = mdw(next)
		}
		return outer(next)
	}
}
