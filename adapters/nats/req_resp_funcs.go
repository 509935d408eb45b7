package nats

import (
	"context"

	"github.com/nats-io/nats.go"
)

// RequestFunc may take information from a NATS message and put it into
// the request context. In Subscribers, RequestFuncs are executed before the transport is invoked.
type RequestFunc func(context.Context, *nats.Msg) context.Context

// SubscriberResponseFunc may take information from the request context and use it
// to manipulate the connection. SubscriberResponseFuncs are executed
// after invoking the transport but before the reply is published.
type SubscriberResponseFunc func(context.Context, *nats.Conn) context.Context

// PublisherRequestFunc may change an outgoing NATS message right before it is sent.
type PublisherRequestFunc func(context.Context, *nats.Msg) context.Context
