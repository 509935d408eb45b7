package http

import (
	"context"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mcosta74/opstack/adapters"
	"github.com/mcosta74/opstack/ports"
)

// Client is a [ports.Transport] sending requests over HTTP.
type Client struct {
	client       *http.Client
	tracing      bool
	before       []ClientRequestFunc
	after        []ClientResponseFunc
	errorHandler adapters.ErrorHandler
}

// NewClient returns an HTTP transport. Without options it uses a copy of
// http.DefaultClient.
func NewClient(options ...ClientOption) *Client {
	c := &Client{
		client:       &http.Client{},
		errorHandler: adapters.NewNoOpErrorHandler(),
	}
	for _, o := range options {
		o(c)
	}
	if c.tracing {
		base := c.client.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		hc := *c.client
		hc.Transport = otelhttp.NewTransport(base)
		c.client = &hc
	}
	return c
}

// ClientOption sets optional parameter for the client.
type ClientOption func(c *Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// WithTracing instruments outgoing requests with OpenTelemetry.
func WithTracing() ClientOption {
	return func(c *Client) {
		c.tracing = true
	}
}

// WithClientBefore functions are executed on the HTTP request before it is sent.
func WithClientBefore(before ...ClientRequestFunc) ClientOption {
	return func(c *Client) {
		c.before = append(c.before, before...)
	}
}

// WithClientAfter functions are executed on the HTTP response before it is decoded.
func WithClientAfter(after ...ClientResponseFunc) ClientOption {
	return func(c *Client) {
		c.after = append(c.after, after...)
	}
}

// WithClientErrorHandler sets the handler notified of failed round trips.
func WithClientErrorHandler(eh adapters.ErrorHandler) ClientOption {
	return func(c *Client) {
		c.errorHandler = eh
	}
}

// WithClientErrorLogger logs failed round trips.
func WithClientErrorLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.errorHandler = adapters.NewSlogErrorHandler(logger)
	}
}

// RoundTrip implements ports.Transport.
func (c *Client) RoundTrip(ctx context.Context, req *ports.Request) (*ports.Response, error) {
	r, err := EncodeRequest(ctx, req)
	if err != nil {
		c.errorHandler.Handle(ctx, err)
		return nil, err
	}

	for _, f := range c.before {
		ctx = f(ctx, r)
	}

	hr, err := c.client.Do(r.WithContext(ctx))
	if err != nil {
		c.errorHandler.Handle(ctx, err)
		return nil, err
	}

	for _, f := range c.after {
		ctx = f(ctx, hr)
	}

	resp, err := DecodeResponse(hr)
	if err != nil {
		c.errorHandler.Handle(ctx, err)
		return nil, err
	}
	return resp, nil
}
