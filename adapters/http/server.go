package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-json-experiment/json"

	"github.com/mcosta74/opstack/adapters"
	"github.com/mcosta74/opstack/ports"
)

// Server exposes a transport as an http.Handler. Paired with a service
// implementation wrapped as a [ports.Transport] it serves the requests an
// operation stack sends.
type Server struct {
	t            ports.Transport
	dec          DecodeRequestFunc
	enc          EncodeResponseFunc
	before       []RequestFunc
	after        []ServerResponseFunc
	errorEncoder ErrorEncoder
	errorHandler adapters.ErrorHandler
}

// NewServer creates a new server, which wraps the provided transport and implements http.Handler.
func NewServer(t ports.Transport, options ...ServerOption) *Server {
	s := &Server{
		t:            t,
		dec:          DecodeRequest,
		enc:          EncodeResponse,
		errorEncoder: DefaultErrorEncoder,
		errorHandler: adapters.NewNoOpErrorHandler(),
	}

	for _, o := range options {
		o(s)
	}
	return s
}

// ServerOption sets optional parameter for the server.
type ServerOption func(s *Server)

// WithRequestDecoder replaces [DecodeRequest].
func WithRequestDecoder(dec DecodeRequestFunc) ServerOption {
	return func(s *Server) {
		s.dec = dec
	}
}

// WithResponseEncoder replaces [EncodeResponse].
func WithResponseEncoder(enc EncodeResponseFunc) ServerOption {
	return func(s *Server) {
		s.enc = enc
	}
}

// WithErrorEncoder sets the error encoder for the server.
func WithErrorEncoder(ee ErrorEncoder) ServerOption {
	return func(s *Server) {
		s.errorEncoder = ee
	}
}

// WithErrorHandler sets the error handler for the server.
func WithErrorHandler(eh adapters.ErrorHandler) ServerOption {
	return func(s *Server) {
		s.errorHandler = eh
	}
}

// WithErrorLogger sets a error handler for the server that logs errors.
func WithErrorLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.errorHandler = adapters.NewSlogErrorHandler(logger)
	}
}

// WithServerBefore functions are executed on the HTTP request object
// before the transport is invoked.
func WithServerBefore(before ...RequestFunc) ServerOption {
	return func(s *Server) {
		s.before = append(s.before, before...)
	}
}

// WithServerAfter functions are executed on the HTTP response writer
// after the transport is invoked, but before anything is written on the client.
func WithServerAfter(after ...ServerResponseFunc) ServerOption {
	return func(s *Server) {
		s.after = append(s.after, after...)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	for _, f := range s.before {
		ctx = f(ctx, r)
	}

	request, err := s.dec(ctx, r)
	if err != nil {
		s.errorHandler.Handle(ctx, err)
		s.errorEncoder(ctx, err, w)
		return
	}

	response, err := s.t.RoundTrip(ctx, request)
	if err != nil {
		s.errorHandler.Handle(ctx, err)
		s.errorEncoder(ctx, err, w)
		return
	}

	for _, f := range s.after {
		ctx = f(ctx, w)
	}

	if err := s.enc(ctx, w, response); err != nil {
		s.errorHandler.Handle(ctx, err)
		s.errorEncoder(ctx, err, w)
		return
	}
}

// ErrorEncoder encodes an error to the ResponseWriter.
type ErrorEncoder func(ctx context.Context, err error, w http.ResponseWriter)

// DefaultErrorEncoder is used when no error encoder is provided.
func DefaultErrorEncoder(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(err.Error()))
}

// JSONErrorEncoder encodes errors in JSON format.
func JSONErrorEncoder(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)

	data := struct {
		Err string `json:"err,omitempty"`
	}{
		Err: err.Error(),
	}

	body, _ := json.Marshal(data)
	_, _ = w.Write(body)
}
