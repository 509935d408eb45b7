package middleware

import (
	"github.com/mcosta74/opstack/ports"
)

// Phase identifies where in the stack something happened.
type Phase string

const (
	PhaseInitialize  Phase = "Initialize"
	PhaseSerialize   Phase = "Serialize"
	PhaseBuild       Phase = "Build"
	PhaseFinalize    Phase = "Finalize"
	PhaseDeserialize Phase = "Deserialize"
	PhaseTransport   Phase = "Transport"
)

// OperationOutput pairs the raw transport response with the decoded output.
type OperationOutput[Out any] struct {
	RawResponse *ports.Response
	Output      Out
}

// SerializeInput is the input of the Serialize step: the operation input and
// the fresh request builder serializers populate.
type SerializeInput[In any] struct {
	Input   In
	Builder *ports.RequestBuilder
}
