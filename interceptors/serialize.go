package interceptors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mcosta74/opstack/middleware"
)

// ErrNoEncoder is returned when a body must be encoded but the operation
// context carries no encoder.
var ErrNoEncoder = errors.New("no encoder configured")

// ContentType sets the Content-Type header of the request.
type ContentType[In, Out any] struct {
	contentType string
}

func NewContentType[In, Out any](contentType string) *ContentType[In, Out] {
	return &ContentType[In, Out]{contentType: contentType}
}

func (*ContentType[In, Out]) ID() string { return "ContentTypeMiddleware" }

func (m *ContentType[In, Out]) HandleMiddleware(ctx context.Context, in *middleware.SerializeInput[In], next middleware.Handler[*middleware.SerializeInput[In], *middleware.OperationOutput[Out]]) (*middleware.OperationOutput[Out], error) {
	in.Builder.UpdateHeader("Content-Type", m.contentType)
	return next.Handle(ctx, in)
}

// Body encodes the operation payload with the operation context encoder.
type Body[In, Out any] struct {
	payload func(In) (any, error)
}

// NewBody returns a Body middleware. payload selects the value to encode; when
// nil the whole input is encoded. A nil payload value leaves the body empty.
func NewBody[In, Out any](payload func(In) (any, error)) *Body[In, Out] {
	if payload == nil {
		payload = func(in In) (any, error) { return in, nil }
	}
	return &Body[In, Out]{payload: payload}
}

func (*Body[In, Out]) ID() string { return "BodyMiddleware" }

func (m *Body[In, Out]) HandleMiddleware(ctx context.Context, in *middleware.SerializeInput[In], next middleware.Handler[*middleware.SerializeInput[In], *middleware.OperationOutput[Out]]) (*middleware.OperationOutput[Out], error) {
	v, err := m.payload(in.Input)
	if err != nil {
		return nil, fmt.Errorf("select payload: %w", err)
	}
	if v == nil {
		return next.Handle(ctx, in)
	}

	enc, ok := middleware.OperationContextFrom(ctx).Encoder()
	if !ok {
		return nil, ErrNoEncoder
	}
	body, err := enc.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}

	in.Builder.WithBody(body)
	if in.Builder.Header().Get("Content-Type") == "" {
		in.Builder.UpdateHeader("Content-Type", enc.ContentType())
	}
	return next.Handle(ctx, in)
}

// Headers binds input members to request headers.
type Headers[In, Out any] struct {
	bind func(In, http.Header) error
}

func NewHeaders[In, Out any](bind func(In, http.Header) error) *Headers[In, Out] {
	return &Headers[In, Out]{bind: bind}
}

func (*Headers[In, Out]) ID() string { return "HeadersMiddleware" }

func (m *Headers[In, Out]) HandleMiddleware(ctx context.Context, in *middleware.SerializeInput[In], next middleware.Handler[*middleware.SerializeInput[In], *middleware.OperationOutput[Out]]) (*middleware.OperationOutput[Out], error) {
	if err := m.bind(in.Input, in.Builder.Header()); err != nil {
		return nil, fmt.Errorf("bind headers: %w", err)
	}
	return next.Handle(ctx, in)
}

// QueryItems binds input members to query parameters.
type QueryItems[In, Out any] struct {
	bind func(In, url.Values) error
}

func NewQueryItems[In, Out any](bind func(In, url.Values) error) *QueryItems[In, Out] {
	return &QueryItems[In, Out]{bind: bind}
}

func (*QueryItems[In, Out]) ID() string { return "QueryItemMiddleware" }

func (m *QueryItems[In, Out]) HandleMiddleware(ctx context.Context, in *middleware.SerializeInput[In], next middleware.Handler[*middleware.SerializeInput[In], *middleware.OperationOutput[Out]]) (*middleware.OperationOutput[Out], error) {
	if err := m.bind(in.Input, in.Builder.Query()); err != nil {
		return nil, fmt.Errorf("bind query: %w", err)
	}
	return next.Handle(ctx, in)
}
