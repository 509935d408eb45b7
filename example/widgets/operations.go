package widgets

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/mcosta74/opstack/codec"
	"github.com/mcosta74/opstack/interceptors"
	"github.com/mcosta74/opstack/middleware"
	"github.com/mcosta74/opstack/ports"
)

// GetWidget returns the widget identified by in.ID.
func (c *Client) GetWidget(ctx context.Context, in *GetWidgetInput) (*GetWidgetOutput, error) {
	return c.getWidget.Execute(ctx, c.operationContext("GetWidget", http.MethodGet), in, c.transport)
}

// PutWidget creates or replaces a widget.
func (c *Client) PutWidget(ctx context.Context, in *PutWidgetInput) (*PutWidgetOutput, error) {
	return c.putWidget.Execute(ctx, c.operationContext("PutWidget", http.MethodPut), in, c.transport)
}

// DeleteWidget removes a widget.
func (c *Client) DeleteWidget(ctx context.Context, in *DeleteWidgetInput) (*DeleteWidgetOutput, error) {
	return c.deleteWidget.Execute(ctx, c.operationContext("DeleteWidget", http.MethodDelete), in, c.transport)
}

var errNilInput = errors.New("nil input")

func newGetWidgetStack(o *options) (*middleware.Stack[*GetWidgetInput, *GetWidgetOutput], error) {
	type (
		In  = *GetWidgetInput
		Out = *GetWidgetOutput
	)
	s := middleware.NewStack[In, Out]("GetWidget")

	err := errors.Join(
		s.Initialize.InsertAtTail(interceptors.NewURLPath[In, Out](func(in In) (string, error) {
			if in == nil {
				return "", errNilInput
			}
			return widgetPath(in.ID)
		})),
		addCommon(s, o, interceptors.NewDeserialize[Out](func(resp *ports.Response, dec codec.Decoder) (Out, error) {
			w, err := interceptors.DecodeBody[Widget](resp, dec)
			if err != nil {
				return nil, err
			}
			return &GetWidgetOutput{Widget: w, ETag: resp.Header.Get("ETag")}, nil
		}, decodeError)),
	)
	return s, err
}

type putWidgetBody struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func newPutWidgetStack(o *options) (*middleware.Stack[*PutWidgetInput, *PutWidgetOutput], error) {
	type (
		In  = *PutWidgetInput
		Out = *PutWidgetOutput
	)
	s := middleware.NewStack[In, Out]("PutWidget")

	err := errors.Join(
		s.Initialize.InsertAtTail(interceptors.NewURLPath[In, Out](func(in In) (string, error) {
			if in == nil {
				return "", errNilInput
			}
			return widgetPath(in.ID)
		})),
		s.Initialize.InsertAtTail(interceptors.NewIdempotencyToken[In, Out](
			func(in In) string { return in.ClientToken },
			func(in In, token string) In {
				cp := *in
				cp.ClientToken = token
				return &cp
			},
		)),
		s.Serialize.InsertAtTail(interceptors.NewHeaders[In, Out](func(in In, h http.Header) error {
			setClientToken(h, in.ClientToken)
			return nil
		})),
		s.Serialize.InsertAtTail(interceptors.NewQueryItems[In, Out](func(in In, q url.Values) error {
			if in.DryRun {
				q.Set("dryRun", "true")
			}
			return nil
		})),
		s.Serialize.InsertAtTail(interceptors.NewBody[In, Out](func(in In) (any, error) {
			return putWidgetBody{Name: in.Name, Color: in.Color}, nil
		})),
		s.Build.InsertAtTail(interceptors.NewContentMD5[Out]()),
		addCommon(s, o, interceptors.NewDeserialize[Out](func(resp *ports.Response, dec codec.Decoder) (Out, error) {
			w, err := interceptors.DecodeBody[Widget](resp, dec)
			if err != nil {
				return nil, err
			}
			return &PutWidgetOutput{Widget: w, Created: resp.StatusCode == http.StatusCreated}, nil
		}, decodeError)),
	)
	return s, err
}

func newDeleteWidgetStack(o *options) (*middleware.Stack[*DeleteWidgetInput, *DeleteWidgetOutput], error) {
	type (
		In  = *DeleteWidgetInput
		Out = *DeleteWidgetOutput
	)
	s := middleware.NewStack[In, Out]("DeleteWidget")

	err := errors.Join(
		s.Initialize.InsertAtTail(interceptors.NewURLPath[In, Out](func(in In) (string, error) {
			if in == nil {
				return "", errNilInput
			}
			return widgetPath(in.ID)
		})),
		s.Initialize.InsertAtTail(interceptors.NewIdempotencyToken[In, Out](
			func(in In) string { return in.ClientToken },
			func(in In, token string) In {
				cp := *in
				cp.ClientToken = token
				return &cp
			},
		)),
		s.Serialize.InsertAtTail(interceptors.NewHeaders[In, Out](func(in In, h http.Header) error {
			setClientToken(h, in.ClientToken)
			return nil
		})),
		addCommon(s, o, interceptors.NewDeserialize[Out](func(*ports.Response, codec.Decoder) (Out, error) {
			return &DeleteWidgetOutput{}, nil
		}, decodeError)),
	)
	return s, err
}
