package micro

import (
	"context"

	"github.com/nats-io/nats.go/micro"

	"github.com/mcosta74/opstack/ports"
)

// DecodeRequestFunc extracts a pipeline request from a micro request.
type DecodeRequestFunc func(ctx context.Context, msg micro.Request) (*ports.Request, error)

// EncodeResponseFunc sends a pipeline response as the micro reply.
type EncodeResponseFunc func(ctx context.Context, msg micro.Request, resp *ports.Response) error
