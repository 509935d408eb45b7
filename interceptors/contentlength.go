package interceptors

import (
	"context"
	"net/http"
	"strconv"

	"github.com/mcosta74/opstack/middleware"
	"github.com/mcosta74/opstack/ports"
)

// ContentLength sets the Content-Length header from the final body.
type ContentLength[Out any] struct{}

func NewContentLength[Out any]() *ContentLength[Out] {
	return &ContentLength[Out]{}
}

func (*ContentLength[Out]) ID() string { return "ContentLength" }

func (*ContentLength[Out]) HandleMiddleware(ctx context.Context, b *ports.RequestBuilder, next middleware.Handler[*ports.RequestBuilder, *middleware.OperationOutput[Out]]) (*middleware.OperationOutput[Out], error) {
	switch {
	case len(b.Body()) > 0:
		b.UpdateHeader("Content-Length", strconv.Itoa(len(b.Body())))
	case b.Method() == http.MethodPost || b.Method() == http.MethodPut || b.Method() == http.MethodPatch:
		b.UpdateHeader("Content-Length", "0")
	}
	return next.Handle(ctx, b)
}
