package interceptors_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcosta74/opstack/interceptors"
	kittesting "github.com/mcosta74/opstack/internal/testing"
	"github.com/mcosta74/opstack/middleware"
	"github.com/mcosta74/opstack/ports"
)

func TestLogger(t *testing.T) {
	for name, tc := range map[string]struct {
		mode     middleware.ClientLogMode
		contains []string
		excludes []string
	}{
		"none": {
			mode:     middleware.LogNone,
			excludes: []string{"msg=request", "msg=response"},
		},
		"request": {
			mode:     middleware.LogRequest,
			contains: []string{"msg=request", "method=PUT"},
			excludes: []string{"msg=response", "secret-body"},
		},
		"request with body": {
			mode:     middleware.LogRequestWithBody,
			contains: []string{"msg=request", "body=secret-body"},
		},
		"response": {
			mode:     middleware.LogResponse,
			contains: []string{"msg=response", "status=200"},
			excludes: []string{"msg=request"},
		},
		"request and response with body": {
			mode:     middleware.LogRequestAndResponseWithBody,
			contains: []string{"msg=request", "msg=response", "body=secret-body", "operation=PutWidget"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			s := middleware.NewStack[empty, empty]("PutWidget")
			require.NoError(t, s.Serialize.InsertAtTail(withBody(http.MethodPut, []byte("secret-body"))))
			require.NoError(t, s.Deserialize.InsertAtHead(interceptors.NewLogger[empty]()))

			opctx := middleware.NewOperationContextBuilder().
				WithOperation("PutWidget").
				WithLogger(logger).
				WithLogMode(tc.mode).
				Build()
			_, err := s.Execute(context.Background(), opctx, empty{}, kittesting.EchoTransport{})
			require.NoError(t, err)

			for _, want := range tc.contains {
				assert.Contains(t, buf.String(), want)
			}
			for _, unwanted := range tc.excludes {
				assert.NotContains(t, buf.String(), unwanted)
			}
		})
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	s := middleware.NewStack[empty, empty]("PutWidget")
	require.NoError(t, s.Deserialize.InsertAtHead(interceptors.NewLogger[empty]()))

	opctx := middleware.NewOperationContextBuilder().WithLogger(logger).WithLogMode(middleware.LogRequestAndResponse).Build()
	_, err := s.Execute(context.Background(), opctx, empty{}, kittesting.EchoTransport{})
	require.NoError(t, err)
	assert.Empty(t, buf.String())

	opctx = middleware.NewOperationContextBuilder().WithLogger(logger).WithLogMode(middleware.LogRequestAndResponse).WithLogLevel(slog.LevelInfo).Build()
	_, err = s.Execute(context.Background(), opctx, empty{}, kittesting.EchoTransport{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "msg=response")
}

func TestLoggerSeesWrappedErrorResponse(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := middleware.NewStack[empty, empty]("GetWidget")
	require.NoError(t, s.Deserialize.InsertAtHead(interceptors.NewLogger[empty]()))
	require.NoError(t, s.Deserialize.InsertAtTail(middleware.NewMiddleware("annotate", func(ctx context.Context, req *ports.Request, next middleware.Handler[*ports.Request, *middleware.OperationOutput[empty]]) (*middleware.OperationOutput[empty], error) {
		out, err := next.Handle(ctx, req)
		if err != nil {
			return nil, err
		}
		oe := middleware.NewUnknownError(out.RawResponse, "teapot")
		return nil, fmt.Errorf("get widget: %w", oe)
	})))

	opctx := middleware.NewOperationContextBuilder().WithLogger(logger).WithLogMode(middleware.LogResponse).Build()
	transport := &kittesting.StubTransport{Responses: []*ports.Response{kittesting.BuildResponse(http.StatusTeapot, nil, "")}}
	_, err := s.Execute(context.Background(), opctx, empty{}, transport)

	require.Error(t, err)
	assert.Contains(t, buf.String(), "msg=response")
	assert.Contains(t, buf.String(), "status=418")
}
