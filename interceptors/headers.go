package interceptors

import (
	"context"
	"maps"
	"slices"

	"github.com/mcosta74/opstack/middleware"
	"github.com/mcosta74/opstack/ports"
)

// MutateHeaders changes request headers during the Build step.
//
// Overrides replace every existing value, Additional values are appended and
// ConditionallySet values are only set when the header is absent. They are
// applied in that order.
type MutateHeaders[Out any] struct {
	Overrides        map[string]string
	Additional       map[string]string
	ConditionallySet map[string]string
}

func (*MutateHeaders[Out]) ID() string { return "MutateHeaders" }

func (m *MutateHeaders[Out]) HandleMiddleware(ctx context.Context, b *ports.RequestBuilder, next middleware.Handler[*ports.RequestBuilder, *middleware.OperationOutput[Out]]) (*middleware.OperationOutput[Out], error) {
	for _, name := range slices.Sorted(maps.Keys(m.Overrides)) {
		b.UpdateHeader(name, m.Overrides[name])
	}
	for _, name := range slices.Sorted(maps.Keys(m.Additional)) {
		b.WithHeader(name, m.Additional[name])
	}
	for _, name := range slices.Sorted(maps.Keys(m.ConditionallySet)) {
		if len(b.Header().Values(name)) == 0 {
			b.UpdateHeader(name, m.ConditionallySet[name])
		}
	}
	return next.Handle(ctx, b)
}
