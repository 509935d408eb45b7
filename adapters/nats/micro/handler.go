package micro

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nats-io/nats.go/micro"

	"github.com/mcosta74/opstack/adapters"
	natsadapter "github.com/mcosta74/opstack/adapters/nats"
	"github.com/mcosta74/opstack/ports"
)

// Handler wraps a transport and implements micro.Handler.
type Handler struct {
	t            ports.Transport
	dec          DecodeRequestFunc
	enc          EncodeResponseFunc
	before       []RequestFunc
	errorEncoder ErrorEncoder
	errorHandler adapters.ErrorHandler
}

// NewHandler creates a new handler, which wraps the provided transport and implements a micro.Handler.
func NewHandler(t ports.Transport, options ...HandlerOption) *Handler {
	s := &Handler{
		t:            t,
		dec:          natsadapter.DecodeMicroRequest,
		enc:          EncodeResponse,
		errorEncoder: DefaultErrorEncoder,
		errorHandler: adapters.NewNoOpErrorHandler(),
	}

	for _, o := range options {
		o(s)
	}
	return s
}

// HandlerOption sets optional parameter for the handler.
type HandlerOption func(s *Handler)

// WithRequestDecoder replaces the default request decoder.
func WithRequestDecoder(dec DecodeRequestFunc) HandlerOption {
	return func(s *Handler) {
		s.dec = dec
	}
}

// WithResponseEncoder replaces [EncodeResponse].
func WithResponseEncoder(enc EncodeResponseFunc) HandlerOption {
	return func(s *Handler) {
		s.enc = enc
	}
}

// WithErrorEncoder sets the error encoder for the handler.
func WithErrorEncoder(ee ErrorEncoder) HandlerOption {
	return func(s *Handler) {
		s.errorEncoder = ee
	}
}

// WithErrorHandler sets the error handler for the handler.
func WithErrorHandler(eh adapters.ErrorHandler) HandlerOption {
	return func(s *Handler) {
		s.errorHandler = eh
	}
}

// WithErrorLogger sets a error handler for the handler that logs errors.
func WithErrorLogger(logger *slog.Logger) HandlerOption {
	return func(s *Handler) {
		s.errorHandler = adapters.NewSlogErrorHandler(logger)
	}
}

// WithHandlerBefore functions are executed on the micro request before the
// transport is invoked.
func WithHandlerBefore(before ...RequestFunc) HandlerOption {
	return func(s *Handler) {
		s.before = append(s.before, before...)
	}
}

// Handle implements micro.Handler
func (s *Handler) Handle(msg micro.Request) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, f := range s.before {
		ctx = f(ctx, msg)
	}

	request, err := s.dec(ctx, msg)
	if err != nil {
		s.errorHandler.Handle(ctx, err)
		if msg.Reply() != "" {
			s.errorEncoder(ctx, err, msg)
		}
		return
	}

	response, err := s.t.RoundTrip(ctx, request)
	if err != nil {
		s.errorHandler.Handle(ctx, err)
		if msg.Reply() != "" {
			s.errorEncoder(ctx, err, msg)
		}
		return
	}

	if msg.Reply() != "" {
		if err := s.enc(ctx, msg, response); err != nil {
			s.errorHandler.Handle(ctx, err)
			s.errorEncoder(ctx, err, msg)
			return
		}
	}
}

// ErrorEncoder encodes an error to the handler reply.
type ErrorEncoder func(ctx context.Context, err error, msg micro.Request)

// DefaultErrorEncoder replies with a micro service error with code 500.
func DefaultErrorEncoder(_ context.Context, err error, msg micro.Request) {
	_ = msg.Error(strconv.Itoa(http.StatusInternalServerError), err.Error(), nil)
}

// EncodeResponse is the default [EncodeResponseFunc]. Non-success responses
// are sent as micro service errors so that they count in the endpoint stats.
func EncodeResponse(_ context.Context, msg micro.Request, resp *ports.Response) error {
	h := micro.Headers{}
	for k, vs := range resp.Header {
		h[k] = append([]string(nil), vs...)
	}
	h[natsadapter.HeaderStatus] = []string{strconv.Itoa(resp.StatusCode)}

	if !resp.IsSuccess() {
		description := http.StatusText(resp.StatusCode)
		if description == "" {
			description = "error"
		}
		return msg.Error(strconv.Itoa(resp.StatusCode), description, resp.Body, micro.WithHeaders(h))
	}
	return msg.Respond(resp.Body, micro.WithHeaders(h))
}
