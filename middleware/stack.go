package middleware

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/mcosta74/opstack/ports"
)

// Step aliases binding each phase to the types flowing through it.
type (
	InitializeStep[In, Out any] = Step[In, *OperationOutput[Out]]
	SerializeStep[In, Out any]  = Step[*SerializeInput[In], *OperationOutput[Out]]
	BuildStep[Out any]          = Step[*ports.RequestBuilder, *OperationOutput[Out]]
	FinalizeStep[Out any]       = Step[*ports.RequestBuilder, *OperationOutput[Out]]
	DeserializeStep[Out any]    = Step[*ports.Request, *OperationOutput[Out]]
)

// Stack is the middleware template of one operation kind.
//
// A Stack is assembled once, then executed any number of times, possibly
// concurrently. The first call to Execute seals it: later insertions fail
// with [ErrStackSealed].
type Stack[In, Out any] struct {
	id     string
	sealed *atomic.Bool

	Initialize  *InitializeStep[In, Out]
	Serialize   *SerializeStep[In, Out]
	Build       *BuildStep[Out]
	Finalize    *FinalizeStep[Out]
	Deserialize *DeserializeStep[Out]
}

// NewStack returns an empty stack for the operation identified by id.
func NewStack[In, Out any](id string) *Stack[In, Out] {
	sealed := &atomic.Bool{}
	return &Stack[In, Out]{
		id:          id,
		sealed:      sealed,
		Initialize:  newSealableStep[In, *OperationOutput[Out]](string(PhaseInitialize), sealed),
		Serialize:   newSealableStep[*SerializeInput[In], *OperationOutput[Out]](string(PhaseSerialize), sealed),
		Build:       newSealableStep[*ports.RequestBuilder, *OperationOutput[Out]](string(PhaseBuild), sealed),
		Finalize:    newSealableStep[*ports.RequestBuilder, *OperationOutput[Out]](string(PhaseFinalize), sealed),
		Deserialize: newSealableStep[*ports.Request, *OperationOutput[Out]](string(PhaseDeserialize), sealed),
	}
}

// ID returns the operation identifier.
func (s *Stack[In, Out]) ID() string { return s.id }

// Execute runs input through the five steps and transport, and returns the
// decoded output. Every failure is returned as an [*OperationError].
func (s *Stack[In, Out]) Execute(ctx context.Context, opctx *OperationContext, input In, transport ports.Transport) (Out, error) {
	out, err := s.ExecuteOutput(ctx, opctx, input, transport)
	if err != nil {
		var zero Out
		return zero, err
	}
	return out.Output, nil
}

// ExecuteOutput is like Execute but also returns the raw response.
func (s *Stack[In, Out]) ExecuteOutput(ctx context.Context, opctx *OperationContext, input In, transport ports.Transport) (*OperationOutput[Out], error) {
	s.sealed.Store(true)

	if opctx == nil {
		opctx = NewOperationContextBuilder().Build()
	}
	ctx = WithOperationContext(ctx, opctx)

	out, err := s.handler(transport).Handle(ctx, input)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// handler composes the steps bottom-up: each step's composed handler is the
// terminal handler of the step before it.
func (s *Stack[In, Out]) handler(transport ports.Transport) Handler[In, *OperationOutput[Out]] {
	deserialize := phaseHandler(PhaseDeserialize, s.Deserialize.Compose(transportHandler[Out](transport)), identity)

	finalize := phaseHandler(PhaseFinalize, s.Finalize.Compose(
		HandlerFunc[*ports.RequestBuilder, *OperationOutput[Out]](func(ctx context.Context, b *ports.RequestBuilder) (*OperationOutput[Out], error) {
			return deserialize.Handle(ctx, b.Build())
		}),
	), snapshot)

	build := phaseHandler(PhaseBuild, s.Build.Compose(finalize), snapshot)

	serialize := phaseHandler(PhaseSerialize, s.Serialize.Compose(
		HandlerFunc[*SerializeInput[In], *OperationOutput[Out]](func(ctx context.Context, in *SerializeInput[In]) (*OperationOutput[Out], error) {
			return build.Handle(ctx, in.Builder)
		}),
	), func(in *SerializeInput[In]) *ports.Request { return in.Builder.Build() })

	return phaseHandler(PhaseInitialize, s.Initialize.Compose(
		HandlerFunc[In, *OperationOutput[Out]](func(ctx context.Context, in In) (*OperationOutput[Out], error) {
			return serialize.Handle(ctx, &SerializeInput[In]{Input: in, Builder: ports.NewRequestBuilder()})
		}),
	), nil)
}

// phaseHandler classifies errors leaving a phase. When request is not nil,
// the client errors it creates carry the request state reached by the phase.
// Errors that are already classified are returned untouched: they may be
// shared between calls.
func phaseHandler[In, Out any](phase Phase, h Handler[In, Out], request func(In) *ports.Request) Handler[In, Out] {
	return HandlerFunc[In, Out](func(ctx context.Context, in In) (Out, error) {
		out, err := h.Handle(ctx, in)
		if err != nil {
			var zero Out
			oe, created := classify(phase, err)
			if !created {
				return zero, err
			}
			if request != nil {
				oe.Request = request(in)
			}
			return zero, oe
		}
		return out, nil
	})
}

func identity(r *ports.Request) *ports.Request { return r }

func snapshot(b *ports.RequestBuilder) *ports.Request { return b.Build() }

var errNoTransport = errors.New("no transport configured")

// transportHandler adapts a transport into the terminal handler of the
// Deserialize step. The output is left for deserialize middleware to decode.
func transportHandler[Out any](t ports.Transport) Handler[*ports.Request, *OperationOutput[Out]] {
	return HandlerFunc[*ports.Request, *OperationOutput[Out]](func(ctx context.Context, req *ports.Request) (*OperationOutput[Out], error) {
		if t == nil {
			return nil, &OperationError{Kind: KindClient, Phase: PhaseTransport, Err: errNoTransport, Request: req}
		}
		if err := ctx.Err(); err != nil {
			return nil, &OperationError{Kind: KindClient, Phase: PhaseTransport, Err: err, Request: req}
		}
		resp, err := t.RoundTrip(ctx, req)
		if err != nil {
			return nil, &OperationError{Kind: KindClient, Phase: PhaseTransport, Err: err, Request: req}
		}
		return &OperationOutput[Out]{RawResponse: resp}, nil
	})
}
