package micro

import (
	"context"

	"github.com/nats-io/nats.go/micro"
)

// RequestFunc may take information from a micro request and put it into
// the request context. RequestFuncs are executed before the transport is invoked.
type RequestFunc func(context.Context, micro.Request) context.Context
