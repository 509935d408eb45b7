package http

import (
	"context"
	"net/http"
)

// RequestFunc may take information from an HTTP request and put it into
// the request context. In Servers, RequestFuncs are executed before the transport is invoked.
type RequestFunc func(context.Context, *http.Request) context.Context

// ServerResponseFunc may take information from the request context and use it
// to manipulate the ResponseWriter. ServerResponseFuncs are executed
// after invoking the transport but before writing the response.
type ServerResponseFunc func(context.Context, http.ResponseWriter) context.Context

// ClientRequestFunc may change the outgoing HTTP request right before it is sent.
type ClientRequestFunc func(context.Context, *http.Request) context.Context

// ClientResponseFunc may inspect the HTTP response right after it is received.
type ClientResponseFunc func(context.Context, *http.Response) context.Context
