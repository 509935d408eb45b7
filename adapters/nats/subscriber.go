package nats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/nats-io/nats.go"

	"github.com/mcosta74/opstack/adapters"
	"github.com/mcosta74/opstack/ports"
)

// Subscriber wraps a transport and provides nats.MsgHandler. It serves the
// requests sent by a [Transport] on the other side of the connection.
type Subscriber struct {
	t            ports.Transport
	dec          DecodeRequestFunc
	enc          EncodeResponseFunc
	before       []RequestFunc
	after        []SubscriberResponseFunc
	errorEncoder ErrorEncoder
	errorHandler adapters.ErrorHandler
}

// NewSubscriber creates a new subscriber, which wraps the provided transport and provides a nats.MsgHandler.
func NewSubscriber(t ports.Transport, options ...SubscriberOption) *Subscriber {
	s := &Subscriber{
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

// SubscriberOption sets optional parameter for the subscriber.
type SubscriberOption func(s *Subscriber)

// WithRequestDecoder replaces [DecodeRequest].
func WithRequestDecoder(dec DecodeRequestFunc) SubscriberOption {
	return func(s *Subscriber) {
		s.dec = dec
	}
}

// WithResponseEncoder replaces [EncodeResponse].
func WithResponseEncoder(enc EncodeResponseFunc) SubscriberOption {
	return func(s *Subscriber) {
		s.enc = enc
	}
}

// WithErrorEncoder sets the error encoder for the subscriber.
func WithErrorEncoder(ee ErrorEncoder) SubscriberOption {
	return func(s *Subscriber) {
		s.errorEncoder = ee
	}
}

// WithErrorHandler sets the error handler for the subscriber.
func WithErrorHandler(eh adapters.ErrorHandler) SubscriberOption {
	return func(s *Subscriber) {
		s.errorHandler = eh
	}
}

// WithErrorLogger sets a error handler for the subscriber that logs errors.
func WithErrorLogger(logger *slog.Logger) SubscriberOption {
	return func(s *Subscriber) {
		s.errorHandler = adapters.NewSlogErrorHandler(logger)
	}
}

// WithSubscriberBefore functions are executed on the NATS message object
// before the transport is invoked.
func WithSubscriberBefore(before ...RequestFunc) SubscriberOption {
	return func(s *Subscriber) {
		s.before = append(s.before, before...)
	}
}

// WithSubscriberAfter functions are executed after the transport is invoked,
// but before the reply is published.
func WithSubscriberAfter(after ...SubscriberResponseFunc) SubscriberOption {
	return func(s *Subscriber) {
		s.after = append(s.after, after...)
	}
}

// ServeMsg provides nats.MsgHandler
func (s *Subscriber) ServeMsg(nc *nats.Conn) nats.MsgHandler {
	return func(msg *nats.Msg) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		for _, f := range s.before {
			ctx = f(ctx, msg)
		}

		request, err := s.dec(ctx, msg)
		if err != nil {
			s.errorHandler.Handle(ctx, err)
			if msg.Reply != "" {
				s.errorEncoder(ctx, err, msg.Reply, nc)
			}
			return
		}

		response, err := s.t.RoundTrip(ctx, request)
		if err != nil {
			s.errorHandler.Handle(ctx, err)
			if msg.Reply != "" {
				s.errorEncoder(ctx, err, msg.Reply, nc)
			}
			return
		}

		for _, f := range s.after {
			ctx = f(ctx, nc)
		}

		if msg.Reply != "" {
			if err := s.enc(ctx, msg.Reply, nc, response); err != nil {
				s.errorHandler.Handle(ctx, err)
				s.errorEncoder(ctx, err, msg.Reply, nc)
				return
			}
		}
	}
}

// ErrorEncoder encodes an error to the subscriber reply.
type ErrorEncoder func(ctx context.Context, err error, reply string, nc *nats.Conn)

// DefaultErrorEncoder replies with a 500 response carrying the error text.
func DefaultErrorEncoder(_ context.Context, err error, reply string, nc *nats.Conn) {
	resp := ports.NewResponse(http.StatusInternalServerError, []byte(err.Error()))
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	_ = nc.PublishMsg(responseMsg(reply, resp))
}
