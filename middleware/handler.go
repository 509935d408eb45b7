package middleware

import (
	"context"
)

// Handler is the atomic unit of execution of the pipeline.
type Handler[In, Out any] interface {
	Handle(ctx context.Context, in In) (Out, error)
}

// HandlerFunc is an adapter to allow use ordinary function as handlers.
// If hf is a function with proper signature, HandlerFunc(hf) is a [Handler] that calls hf
type HandlerFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

// Handle calls hf(ctx, in)
func (hf HandlerFunc[In, Out]) Handle(ctx context.Context, in In) (Out, error) {
	return hf(ctx, in)
}
