package nats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mcosta74/opstack/adapters"
	"github.com/mcosta74/opstack/ports"
)

// DefaultTimeout bounds a request when the context has no deadline.
const DefaultTimeout = 10 * time.Second

// ErrNoResponders is returned when nobody listens on the request subject.
var ErrNoResponders = errors.New("no responders on subject")

// Transport is a [ports.Transport] sending requests as NATS request/reply
// messages.
type Transport struct {
	nc           *nats.Conn
	subject      SubjectFunc
	timeout      time.Duration
	before       []PublisherRequestFunc
	errorHandler adapters.ErrorHandler
}

// NewTransport returns a NATS transport. By default the subject is derived
// from the request path with [PathSubject].
func NewTransport(nc *nats.Conn, options ...TransportOption) *Transport {
	t := &Transport{
		nc:           nc,
		subject:      PathSubject(""),
		timeout:      DefaultTimeout,
		errorHandler: adapters.NewNoOpErrorHandler(),
	}
	for _, o := range options {
		o(t)
	}
	return t
}

// TransportOption sets optional parameter for the transport.
type TransportOption func(t *Transport)

// WithSubject sets the request to subject mapping.
func WithSubject(f SubjectFunc) TransportOption {
	return func(t *Transport) {
		t.subject = f
	}
}

// WithSubjectPrefix maps requests with [PathSubject] under prefix.
func WithSubjectPrefix(prefix string) TransportOption {
	return WithSubject(PathSubject(prefix))
}

// WithTimeout sets the timeout used when the context has no deadline.
func WithTimeout(d time.Duration) TransportOption {
	return func(t *Transport) {
		t.timeout = d
	}
}

// WithPublisherBefore functions are executed on the NATS message before it is sent.
func WithPublisherBefore(before ...PublisherRequestFunc) TransportOption {
	return func(t *Transport) {
		t.before = append(t.before, before...)
	}
}

// WithTransportErrorHandler sets the handler notified of failed round trips.
func WithTransportErrorHandler(eh adapters.ErrorHandler) TransportOption {
	return func(t *Transport) {
		t.errorHandler = eh
	}
}

// RoundTrip implements ports.Transport.
func (t *Transport) RoundTrip(ctx context.Context, req *ports.Request) (*ports.Response, error) {
	if _, ok := ctx.Deadline(); !ok && t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	subject := t.subject(req)
	msg := EncodeRequest(subject, req)
	for _, f := range t.before {
		ctx = f(ctx, msg)
	}

	reply, err := t.nc.RequestMsgWithContext(ctx, msg)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) {
			err = fmt.Errorf("%w: %s", ErrNoResponders, subject)
		}
		t.errorHandler.Handle(ctx, err)
		return nil, err
	}

	resp, err := DecodeResponse(reply)
	if err != nil {
		t.errorHandler.Handle(ctx, err)
		return nil, err
	}
	return resp, nil
}
