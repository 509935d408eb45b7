package nats_test

import (
	"context"

	"github.com/mcosta74/opstack/adapters"
)

func adapterErrorHandler(dst *error) adapters.ErrorHandler {
	return adapters.ErrorHandlerFunc(func(_ context.Context, err error) { *dst = err })
}
