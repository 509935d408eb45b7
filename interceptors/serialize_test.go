package interceptors_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcosta74/opstack/codec"
	"github.com/mcosta74/opstack/interceptors"
	kittesting "github.com/mcosta74/opstack/internal/testing"
	"github.com/mcosta74/opstack/middleware"
)

type widget struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type putWidgetInput struct {
	ID      string
	Version string
	DryRun  bool
	Widget  *widget
}

func serializeStack(t *testing.T) *middleware.Stack[putWidgetInput, empty] {
	t.Helper()

	s := middleware.NewStack[putWidgetInput, empty]("PutWidget")
	require.NoError(t, s.Serialize.InsertAtTail(interceptors.NewHeaders[putWidgetInput, empty](func(in putWidgetInput, h http.Header) error {
		if in.Version != "" {
			h.Set("If-Match", in.Version)
		}
		return nil
	})))
	require.NoError(t, s.Serialize.InsertAtTail(interceptors.NewQueryItems[putWidgetInput, empty](func(in putWidgetInput, q url.Values) error {
		if in.DryRun {
			q.Set("dryRun", "true")
		}
		return nil
	})))
	require.NoError(t, s.Serialize.InsertAtTail(interceptors.NewBody[putWidgetInput, empty](func(in putWidgetInput) (any, error) {
		if in.Widget == nil {
			return nil, nil
		}
		return in.Widget, nil
	})))
	return s
}

func TestSerializeBindsInput(t *testing.T) {
	transport := &kittesting.StubTransport{}
	s := serializeStack(t)
	opctx := middleware.NewOperationContextBuilder().WithCodec(codec.JSON{}).Build()

	_, err := s.Execute(context.Background(), opctx, putWidgetInput{
		ID:      "w1",
		Version: "v3",
		DryRun:  true,
		Widget:  &widget{Name: "sprocket"},
	}, transport)
	require.NoError(t, err)

	req := transport.Requests()[0]
	assert.Equal(t, "v3", req.Header.Get("If-Match"))
	assert.Equal(t, "true", req.Query.Get("dryRun"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"name":"sprocket"}`, string(req.Body))
}

func TestSerializeEmptyPayload(t *testing.T) {
	transport := &kittesting.StubTransport{}
	s := serializeStack(t)

	_, err := s.Execute(context.Background(), nil, putWidgetInput{ID: "w1"}, transport)
	require.NoError(t, err)

	req := transport.Requests()[0]
	assert.Empty(t, req.Body)
	assert.Empty(t, req.Header.Get("Content-Type"))
}

func TestSerializeWithoutEncoder(t *testing.T) {
	s := serializeStack(t)

	_, err := s.Execute(context.Background(), nil, putWidgetInput{Widget: &widget{Name: "x"}}, kittesting.EchoTransport{})

	assert.ErrorIs(t, err, interceptors.ErrNoEncoder)
	var oe *middleware.OperationError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, middleware.PhaseSerialize, oe.Phase)
}

func TestContentTypeTakesPrecedence(t *testing.T) {
	transport := &kittesting.StubTransport{}
	s := serializeStack(t)
	require.NoError(t, s.Serialize.InsertAtHead(interceptors.NewContentType[putWidgetInput, empty]("application/vnd.widget+json")))
	opctx := middleware.NewOperationContextBuilder().WithCodec(codec.JSON{}).Build()

	_, err := s.Execute(context.Background(), opctx, putWidgetInput{Widget: &widget{Name: "x"}}, transport)
	require.NoError(t, err)

	assert.Equal(t, "application/vnd.widget+json", transport.Requests()[0].Header.Get("Content-Type"))
}
