package interceptors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/mcosta74/opstack/codec"
	"github.com/mcosta74/opstack/middleware"
	"github.com/mcosta74/opstack/ports"
)

// ErrNoDecoder is returned when a body must be decoded but the operation
// context carries no decoder.
var ErrNoDecoder = errors.New("no decoder configured")

// OutputDecoder turns a success response into the operation output.
type OutputDecoder[Out any] func(resp *ports.Response, dec codec.Decoder) (Out, error)

// ErrorDecoder turns a non-success response into a typed service error. It
// returns nil when the response matches no known error shape.
type ErrorDecoder func(resp *ports.Response, dec codec.Decoder) error

// DecodeBody is the default [OutputDecoder]: it decodes the whole body into
// Out. An empty body yields the zero output.
func DecodeBody[Out any](resp *ports.Response, dec codec.Decoder) (Out, error) {
	var out Out
	if len(resp.Body) == 0 {
		return out, nil
	}
	if dec == nil {
		return out, ErrNoDecoder
	}
	if err := dec.Decode(resp.Body, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Deserialize decodes the raw response returned by the transport. It must be
// the innermost middleware of the Deserialize step.
type Deserialize[Out any] struct {
	output OutputDecoder[Out]
	errors ErrorDecoder
}

// NewDeserialize returns a Deserialize middleware. A nil output decoder uses
// [DecodeBody]; errs may be nil when the operation declares no error shapes.
func NewDeserialize[Out any](output OutputDecoder[Out], errs ErrorDecoder) *Deserialize[Out] {
	if output == nil {
		output = DecodeBody[Out]
	}
	return &Deserialize[Out]{output: output, errors: errs}
}

func (*Deserialize[Out]) ID() string { return "DeserializeMiddleware" }

func (m *Deserialize[Out]) HandleMiddleware(ctx context.Context, req *ports.Request, next middleware.Handler[*ports.Request, *middleware.OperationOutput[Out]]) (*middleware.OperationOutput[Out], error) {
	out, err := next.Handle(ctx, req)
	if err != nil {
		return nil, err
	}

	dec, _ := middleware.OperationContextFrom(ctx).Decoder()
	resp := out.RawResponse

	if !resp.IsSuccess() {
		if m.errors != nil {
			if typed := m.errors(resp, dec); typed != nil {
				oe := middleware.NewServiceError(resp, typed)
				oe.Request = req
				return nil, oe
			}
		}
		oe := middleware.NewUnknownError(resp, unknownMessage(resp))
		oe.Request = req
		return nil, oe
	}

	v, err := m.output(resp, dec)
	if err != nil {
		return nil, &middleware.OperationError{
			Kind:     middleware.KindClient,
			Phase:    middleware.PhaseDeserialize,
			Err:      fmt.Errorf("decode output: %w", err),
			Request:  req,
			Response: resp,
		}
	}
	out.Output = v
	return out, nil
}

const maxUnknownMessage = 256

func unknownMessage(resp *ports.Response) string {
	msg := strings.TrimSpace(string(resp.Body))
	if msg == "" {
		return http.StatusText(resp.StatusCode)
	}
	if len(msg) > maxUnknownMessage {
		cut := maxUnknownMessage
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}
